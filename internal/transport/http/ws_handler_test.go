package http

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

type wsPeer struct {
	t  *testing.T
	ws *websocket.Conn
}

func dialWS(t *testing.T, ts *httptest.Server) *wsPeer {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ws, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { _ = ws.CloseNow() })
	return &wsPeer{t: t, ws: ws}
}

func (p *wsPeer) send(line string) {
	p.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.ws.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
		p.t.Fatalf("write %q: %v", line, err)
	}
}

// expect reads one message; every frame the server sends is written in a
// single message.
func (p *wsPeer) expect(want string) {
	p.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	typ, data, err := p.ws.Read(ctx)
	if err != nil {
		p.t.Fatalf("read (want %q): %v", want, err)
	}
	if typ != websocket.MessageText {
		p.t.Errorf("expected text message, got %v", typ)
	}
	if string(data) != want {
		p.t.Fatalf("expected %q, got %q", want, string(data))
	}
}

func (p *wsPeer) roundTrip(line, want string) {
	p.t.Helper()
	p.send(line)
	p.expect(want)
}

func TestWebSocketSession(t *testing.T) {
	ts := startTestServer(t, newTestBroker(), Deps{})

	alice := dialWS(t, ts)
	alice.roundTrip("RLOGIN:alice\n", "OK:\n")
	alice.roundTrip("JOIN:general\n", "OK:\n")

	bob := dialWS(t, ts)
	bob.roundTrip("SLOGIN:bob\n", "OK:\n")
	bob.roundTrip("JOIN:general\n", "OK:\n")
	bob.roundTrip("SENDALL:hello over ws\n", "OK:\n")

	alice.expect("DELIVERY:general:bob:hello over ws\n")
}

func TestWebSocketFrameSplitAcrossMessages(t *testing.T) {
	ts := startTestServer(t, newTestBroker(), Deps{})

	bob := dialWS(t, ts)
	bob.send("SLO")
	bob.send("GIN:bob\nJOIN:general\n")
	bob.expect("OK:\n")
	bob.expect("OK:\n")
}

func TestWebSocketQuitClosesSocket(t *testing.T) {
	broker := newTestBroker()
	ts := startTestServer(t, broker, Deps{})

	bob := dialWS(t, ts)
	bob.roundTrip("SLOGIN:bob\n", "OK:\n")
	bob.roundTrip("JOIN:general\n", "OK:\n")
	bob.roundTrip("QUIT:\n", "OK:\n")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, _, err := bob.ws.Read(ctx); err == nil {
		t.Fatal("expected socket to be closed after QUIT")
	}
	if rooms := broker.Hub().Rooms(); len(rooms) != 0 {
		t.Errorf("expected rooms to be evicted, got %v", rooms)
	}
}
