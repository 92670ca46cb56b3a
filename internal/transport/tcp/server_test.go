package tcp

import (
	"bufio"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/linechat/internal/core"
)

func startTestServer(t *testing.T) (*core.Hub, string, context.CancelFunc, <-chan error) {
	t.Helper()

	logger := zerolog.Nop()
	hub := core.NewHub()
	broker := core.NewBroker(hub, &logger)
	srv := NewServer("127.0.0.1:0", broker, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx)
	}()
	t.Cleanup(cancel)

	addrCtx, addrCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer addrCancel()
	addr, err := srv.Addr(addrCtx)
	require.NoError(t, err)

	return hub, addr.String(), cancel, errCh
}

type lineClient struct {
	t      *testing.T
	nc     net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, addr string) *lineClient {
	t.Helper()
	nc, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = nc.Close() })
	return &lineClient{t: t, nc: nc, reader: bufio.NewReader(nc)}
}

func (c *lineClient) send(line string) {
	c.t.Helper()
	_, err := io.WriteString(c.nc, line)
	require.NoError(c.t, err)
}

func (c *lineClient) expect(want string) {
	c.t.Helper()
	require.NoError(c.t, c.nc.SetReadDeadline(time.Now().Add(2*time.Second)))
	got, err := c.reader.ReadString('\n')
	require.NoError(c.t, err)
	require.Equal(c.t, want, got)
}

func TestServerEndToEnd(t *testing.T) {
	_, addr, _, _ := startTestServer(t)

	alice := dial(t, addr)
	alice.send("RLOGIN:alice\n")
	alice.expect("OK:\n")
	alice.send("JOIN:general\n")
	alice.expect("OK:\n")

	bob := dial(t, addr)
	bob.send("SLOGIN:bob\n")
	bob.expect("OK:\n")
	bob.send("JOIN:general\n")
	bob.expect("OK:\n")
	bob.send("SENDALL:hi\n")
	bob.expect("OK:\n")

	alice.expect("DELIVERY:general:bob:hi\n")
}

func TestServerRoomsAreIsolated(t *testing.T) {
	_, addr, _, _ := startTestServer(t)

	alice := dial(t, addr)
	alice.send("RLOGIN:alice\n")
	alice.expect("OK:\n")
	alice.send("JOIN:red\n")
	alice.expect("OK:\n")

	carol := dial(t, addr)
	carol.send("RLOGIN:carol\n")
	carol.expect("OK:\n")
	carol.send("JOIN:blue\n")
	carol.expect("OK:\n")

	bob := dial(t, addr)
	bob.send("SLOGIN:bob\n")
	bob.expect("OK:\n")
	bob.send("JOIN:blue\n")
	bob.expect("OK:\n")
	bob.send("SENDALL:blue only\n")
	bob.expect("OK:\n")
	bob.send("JOIN:red\n")
	bob.expect("OK:\n")
	bob.send("SENDALL:red only\n")
	bob.expect("OK:\n")

	carol.expect("DELIVERY:blue:bob:blue only\n")
	alice.expect("DELIVERY:red:bob:red only\n")
}

func TestServerShutdownClosesSessions(t *testing.T) {
	hub, addr, cancel, errCh := startTestServer(t)

	alice := dial(t, addr)
	alice.send("RLOGIN:alice\n")
	alice.expect("OK:\n")
	alice.send("JOIN:general\n")
	alice.expect("OK:\n")

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}

	require.NoError(t, alice.nc.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := alice.reader.ReadString('\n')
	assert.Error(t, err, "client connection must be closed")
	assert.Empty(t, hub.Rooms())
}
