package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/config"
	"github.com/vovakirdan/linechat/internal/core"
	"github.com/vovakirdan/linechat/internal/store"
	"github.com/vovakirdan/linechat/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite audit store.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

type stubPresence struct {
	names []string
}

func (p stubPresence) List(context.Context) ([]string, error) {
	return p.names, nil
}

// startTestServer serves the admin router for broker over httptest.
func startTestServer(t *testing.T, broker *core.Broker, deps Deps) *httptest.Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	disabledLogger := zerolog.Nop()
	cfg := config.Config{
		HTTPAddr:          ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}

	server := NewServer(ctx, broker, deps, &cfg, &disabledLogger)
	ts := httptest.NewUnstartedServer(server.Handler)
	ts.Config.BaseContext = server.BaseContext
	ts.Start()
	t.Cleanup(ts.Close)

	return ts
}

func newTestBroker(opts ...core.BrokerOption) *core.Broker {
	logger := zerolog.Nop()
	return core.NewBroker(core.NewHub(), &logger, opts...)
}
