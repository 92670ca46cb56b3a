// Package client speaks the line protocol from the user side.
package client

import (
	"context"
	"fmt"

	"github.com/vovakirdan/linechat/internal/conn"
	"github.com/vovakirdan/linechat/internal/proto"
)

// Role selects the login tag.
type Role int

const (
	Receiver Role = iota
	Sender
)

// ServerError is an ERROR frame returned by the server. Its text is the
// payload verbatim.
type ServerError struct {
	Reason string
}

func (e *ServerError) Error() string {
	return e.Reason
}

// UnexpectedError reports a frame with a tag the client did not expect.
type UnexpectedError struct {
	Msg proto.Message
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected %s frame: %q", e.Msg.Tag, e.Msg.Data)
}

// Client is one logged-in (or logging-in) connection to the broker.
type Client struct {
	conn *conn.Connection

	// Deliveries that arrived while a receiver waited for its QUIT reply.
	pending []proto.Delivery
}

// New wraps an established connection.
func New(c *conn.Connection) *Client {
	return &Client{conn: c}
}

// Dial connects to host:port.
func Dial(ctx context.Context, host string, port int) (*Client, error) {
	c := conn.New()
	if err := c.Connect(ctx, host, port); err != nil {
		return nil, err
	}
	return New(c), nil
}

// Login performs the RLOGIN or SLOGIN handshake.
func (c *Client) Login(role Role, username string) error {
	tag := proto.TagRLogin
	if role == Sender {
		tag = proto.TagSLogin
	}
	return c.request(tag, username)
}

// Join enters room, leaving any current one on the server side.
func (c *Client) Join(room string) error {
	return c.request(proto.TagJoin, room)
}

// Leave exits the current room.
func (c *Client) Leave() error {
	return c.request(proto.TagLeave, "")
}

// SendAll broadcasts text to the current room.
func (c *Client) SendAll(text string) error {
	return c.request(proto.TagSendAll, text)
}

// Quit asks the server to end the session and closes the connection.
func (c *Client) Quit() error {
	defer c.conn.Close()
	return c.request(proto.TagQuit, "")
}

// NextDelivery blocks until the next DELIVERY frame arrives.
func (c *Client) NextDelivery() (proto.Delivery, error) {
	if len(c.pending) > 0 {
		d := c.pending[0]
		c.pending = c.pending[1:]
		return d, nil
	}

	msg, err := c.conn.Receive()
	if err != nil {
		return proto.Delivery{}, err
	}
	switch msg.Tag {
	case proto.TagDelivery:
		return proto.ParseDelivery(msg.Data)
	case proto.TagError:
		return proto.Delivery{}, &ServerError{Reason: msg.Data}
	default:
		return proto.Delivery{}, &UnexpectedError{Msg: msg}
	}
}

// Close releases the connection without a QUIT.
func (c *Client) Close() error {
	return c.conn.Close()
}

// request sends one command and waits for its OK or ERROR. A receiver may
// see deliveries first; they are kept for NextDelivery.
func (c *Client) request(tag, data string) error {
	msg, err := proto.NewMessage(tag, data)
	if err != nil {
		return err
	}
	if err := c.conn.Send(msg); err != nil {
		return err
	}

	for {
		reply, err := c.conn.Receive()
		if err != nil {
			return err
		}
		switch reply.Tag {
		case proto.TagOK:
			return nil
		case proto.TagError:
			return &ServerError{Reason: reply.Data}
		case proto.TagDelivery:
			d, err := proto.ParseDelivery(reply.Data)
			if err != nil {
				return err
			}
			c.pending = append(c.pending, d)
		default:
			return &UnexpectedError{Msg: reply}
		}
	}
}
