// Package conn wraps one stream socket carrying newline-terminated frames.
//
// A Connection supports exactly one goroutine calling Receive and at most one
// other goroutine calling Send at the same time. Close may be called from
// either side, any number of times.
package conn

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/vovakirdan/linechat/internal/proto"
)

// Result is the outcome of the most recent operation on a Connection.
type Result int32

const (
	Success Result = iota
	EOFOrError
	InvalidMsg
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case EOFOrError:
		return "eof_or_error"
	case InvalidMsg:
		return "invalid_msg"
	default:
		return "unknown"
	}
}

// State is the lifecycle stage of a Connection.
type State int

const (
	Disconnected State = iota
	Connected
	Closed
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return "disconnected"
	}
}

var (
	// ErrConnection is the root of every I/O failure, EOF included.
	ErrConnection = errors.New("connection error")
	// ErrClosed is returned when the connection is not open.
	ErrClosed = fmt.Errorf("%w: connection closed", ErrConnection)
)

// Connection is one live bidirectional frame stream.
type Connection struct {
	mu     sync.Mutex
	state  State
	nc     net.Conn
	reader *bufio.Reader

	last atomic.Int32
}

// New returns a disconnected Connection ready for Connect.
func New() *Connection {
	return &Connection{}
}

// Wrap adopts an already connected socket, e.g. one returned by Accept.
func Wrap(nc net.Conn) *Connection {
	c := &Connection{}
	c.attach(nc)
	return c
}

func (c *Connection) attach(nc net.Conn) {
	c.nc = nc
	c.reader = bufio.NewReaderSize(nc, proto.MaxLen)
	c.state = Connected
}

// Connect dials host:port over TCP. On failure LastResult reports EOFOrError
// and the connection stays disconnected; there is no retry.
func (c *Connection) Connect(ctx context.Context, host string, port int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Disconnected {
		c.last.Store(int32(EOFOrError))
		return fmt.Errorf("%w: connect on %s connection", ErrConnection, c.state)
	}

	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		c.last.Store(int32(EOFOrError))
		return fmt.Errorf("%w: dial: %w", ErrConnection, err)
	}

	c.attach(nc)
	c.last.Store(int32(Success))
	return nil
}

// Send writes the whole frame for msg. A failed or short write fails the send.
func (c *Connection) Send(msg proto.Message) error {
	nc, ok := c.openConn()
	if !ok {
		c.last.Store(int32(EOFOrError))
		return ErrClosed
	}

	frame, err := proto.Serialize(msg.Tag, msg.Data)
	if err != nil {
		c.last.Store(int32(InvalidMsg))
		return err
	}

	n, err := io.WriteString(nc, frame)
	if err == nil && n != len(frame) {
		err = io.ErrShortWrite
	}
	if err != nil {
		c.last.Store(int32(EOFOrError))
		return fmt.Errorf("%w: write: %w", ErrConnection, err)
	}

	c.last.Store(int32(Success))
	return nil
}

// Receive reads and parses one frame. A line that does not parse, or that
// exceeds proto.MaxLen, yields InvalidMsg and leaves the connection open.
func (c *Connection) Receive() (proto.Message, error) {
	if _, ok := c.openConn(); !ok {
		c.last.Store(int32(EOFOrError))
		return proto.Message{}, ErrClosed
	}

	line, err := c.readLine()
	if err != nil {
		if errors.Is(err, proto.ErrProtocol) {
			c.last.Store(int32(InvalidMsg))
			return proto.Message{}, err
		}
		c.last.Store(int32(EOFOrError))
		return proto.Message{}, fmt.Errorf("%w: read: %w", ErrConnection, err)
	}

	msg, err := proto.Parse(line)
	if err != nil {
		c.last.Store(int32(InvalidMsg))
		return proto.Message{}, err
	}

	c.last.Store(int32(Success))
	return msg, nil
}

// readLine returns one newline-terminated line. An oversized line is drained
// up to its newline and reported as proto.ErrFrameTooLong. A final line
// without a newline counts as EOF.
func (c *Connection) readLine() (string, error) {
	line, err := c.reader.ReadSlice('\n')
	if err == nil {
		return string(line), nil
	}
	if !errors.Is(err, bufio.ErrBufferFull) {
		return "", err
	}

	for {
		_, err = c.reader.ReadSlice('\n')
		switch {
		case err == nil:
			return "", proto.ErrFrameTooLong
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return "", err
		}
	}
}

// Close releases the socket. Only the first call closes it.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Closed {
		return nil
	}
	prev := c.state
	c.state = Closed
	if prev == Disconnected || c.nc == nil {
		return nil
	}
	return c.nc.Close()
}

// LastResult reports the outcome of the most recent operation.
func (c *Connection) LastResult() Result {
	return Result(c.last.Load())
}

// State reports the lifecycle stage.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsOpen reports whether the connection can carry frames.
func (c *Connection) IsOpen() bool {
	return c.State() == Connected
}

// RemoteAddr returns the peer address, or an empty string when disconnected.
func (c *Connection) RemoteAddr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nc == nil {
		return ""
	}
	return c.nc.RemoteAddr().String()
}

func (c *Connection) openConn() (net.Conn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nc, c.state == Connected
}

