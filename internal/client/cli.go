package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vovakirdan/linechat/internal/proto"
)

const joinHint = "join a room first with /join <room>"

// RunSender logs in as username and drives an interactive sender session:
// lines from in become commands or messages until /quit or end of input.
// Server errors after login are printed to errOut and the loop continues.
func RunSender(c *Client, username string, in io.Reader, out, errOut io.Writer) error {
	if err := c.Login(Sender, username); err != nil {
		reportServerError(errOut, err)
		return err
	}

	scanner := bufio.NewScanner(in)
	joined := false

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return c.Quit()
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		cmd, arg, _ := strings.Cut(line, " ")

		var err error
		switch cmd {
		case "/quit":
			return c.Quit()
		case "/join":
			room := strings.TrimSpace(arg)
			if room == "" {
				fmt.Fprintln(errOut, "usage: /join <room>")
				continue
			}
			if err = c.Join(room); err == nil {
				joined = true
			}
		case "/leave":
			if err = c.Leave(); err == nil {
				joined = false
			}
		default:
			if line == "" {
				continue
			}
			if !joined {
				fmt.Fprintln(errOut, joinHint)
				continue
			}
			err = c.SendAll(line)
		}

		var se *ServerError
		if errors.As(err, &se) {
			fmt.Fprintln(errOut, se.Reason)
			continue
		}
		// The frame was refused before it was sent; the session is intact.
		if errors.Is(err, proto.ErrProtocol) {
			fmt.Fprintln(errOut, err)
			continue
		}
		if err != nil {
			return err
		}
	}
}

// RunReceiver logs in as username, joins room and prints each delivery as
// "<sender>: <text>" until ctx is cancelled, which is a normal exit.
func RunReceiver(ctx context.Context, c *Client, username, room string, out, errOut io.Writer) error {
	err := c.Login(Receiver, username)
	if err == nil {
		err = c.Join(room)
	}
	if err != nil {
		reportServerError(errOut, err)
		return err
	}

	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	for {
		d, err := c.NextDelivery()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			reportServerError(errOut, err)
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", d.Sender, d.Text)
	}
}

func reportServerError(w io.Writer, err error) {
	var se *ServerError
	if errors.As(err, &se) {
		fmt.Fprintln(w, se.Reason)
	}
}
