package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/linechat/internal/client"
	"github.com/vovakirdan/linechat/internal/conn"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run logs a receiver and a sender in over the WebSocket bridge and checks
// that a message makes it from one to the other.
func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	room := flag.String("room", "smoke", "room name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	receiver, err := dial(ctx, *addr)
	if err != nil {
		return err
	}
	defer receiver.Close()
	if err := receiver.Login(client.Receiver, "smoke-receiver"); err != nil {
		return fmt.Errorf("receiver login: %w", err)
	}
	if err := receiver.Join(*room); err != nil {
		return fmt.Errorf("receiver join: %w", err)
	}

	sender, err := dial(ctx, *addr)
	if err != nil {
		return err
	}
	defer sender.Close()
	if err := sender.Login(client.Sender, "smoke-sender"); err != nil {
		return fmt.Errorf("sender login: %w", err)
	}
	if err := sender.Join(*room); err != nil {
		return fmt.Errorf("sender join: %w", err)
	}
	if err := sender.SendAll(*text); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	d, err := receiver.NextDelivery()
	if err != nil {
		return fmt.Errorf("read delivery: %w", err)
	}
	if d.Text != *text {
		return fmt.Errorf("unexpected delivery %q from %s", d.Text, d.Sender)
	}
	fmt.Printf("ok: %s -> %s in %s: %s\n", d.Sender, "smoke-receiver", d.Room, d.Text)

	if err := sender.Quit(); err != nil {
		return fmt.Errorf("sender quit: %w", err)
	}
	return receiver.Quit()
}

func dial(ctx context.Context, addr string) (*client.Client, error) {
	ws, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	nc := websocket.NetConn(context.Background(), ws, websocket.MessageText)
	return client.New(conn.Wrap(nc)), nil
}
