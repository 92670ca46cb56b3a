package core

import (
	"bufio"
	"context"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/conn"
	"github.com/vovakirdan/linechat/internal/proto"
	"github.com/vovakirdan/linechat/internal/store"
)

func newTestUser(name string) *User {
	return NewUser("id-"+name, name, RoleReceiver, nil)
}

func newTestUsers(n int) []*User {
	users := make([]*User, 0, n)
	for i := range n {
		users = append(users, newTestUser("u"+strconv.Itoa(i)))
	}
	return users
}

// mustDequeue waits for the next queued frame.
func mustDequeue(t *testing.T, q *MessageQueue) proto.Message {
	t.Helper()

	ch := make(chan proto.Message, 1)
	go func() {
		if msg, ok := q.Dequeue(); ok {
			ch <- msg
		}
	}()

	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("no message queued")
		return proto.Message{}
	}
}

// peer is the client end of a session served over net.Pipe.
type peer struct {
	t      *testing.T
	nc     net.Conn
	reader *bufio.Reader
	done   chan struct{}
}

// startSession serves one connection with broker and returns the client end.
func startSession(t *testing.T, broker *Broker) *peer {
	t.Helper()

	serverSide, clientSide := net.Pipe()
	p := &peer{
		t:      t,
		nc:     clientSide,
		reader: bufio.NewReader(clientSide),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		broker.Serve(context.Background(), conn.Wrap(serverSide))
	}()
	t.Cleanup(func() { _ = clientSide.Close() })
	return p
}

func (p *peer) send(line string) {
	p.t.Helper()
	_ = p.nc.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := io.WriteString(p.nc, line); err != nil {
		p.t.Fatalf("write %q: %v", line, err)
	}
}

func (p *peer) expect(want string) {
	p.t.Helper()
	_ = p.nc.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, err := p.reader.ReadString('\n')
	if err != nil {
		p.t.Fatalf("read (want %q): %v", want, err)
	}
	if got != want {
		p.t.Fatalf("expected %q, got %q", want, got)
	}
}

func (p *peer) roundTrip(line, want string) {
	p.t.Helper()
	p.send(line)
	p.expect(want)
}

// expectClosed waits for the server to close its end.
func (p *peer) expectClosed() {
	p.t.Helper()
	_ = p.nc.SetReadDeadline(time.Now().Add(2 * time.Second))
	if line, err := p.reader.ReadString('\n'); err == nil {
		p.t.Fatalf("expected closed connection, got %q", line)
	}
	p.waitDone()
}

func (p *peer) waitDone() {
	p.t.Helper()
	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		p.t.Fatalf("session did not finish")
	}
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []store.Event
}

func (r *fakeRecorder) RecordEvent(_ context.Context, ev *store.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *ev)
	return nil
}

func (r *fakeRecorder) kinds() []store.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]store.EventKind, 0, len(r.events))
	for _, ev := range r.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

type fakePresence struct {
	mu     sync.Mutex
	online map[string]bool
}

func (p *fakePresence) Online(_ context.Context, username string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.online == nil {
		p.online = make(map[string]bool)
	}
	p.online[username] = true
	return nil
}

func (p *fakePresence) Offline(_ context.Context, username string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, username)
	return nil
}

func (p *fakePresence) isOnline(username string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[username]
}

func newTestBroker(opts ...BrokerOption) *Broker {
	logger := zerolog.Nop()
	return NewBroker(NewHub(), &logger, opts...)
}
