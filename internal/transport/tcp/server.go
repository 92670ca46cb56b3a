package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/conn"
	"github.com/vovakirdan/linechat/internal/core"
)

// Server accepts line-protocol clients and hands each one to the broker on
// its own goroutine.
type Server struct {
	addr   string
	broker *core.Broker
	log    *zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[*conn.Connection]struct{}
	ready    chan struct{}
	wg       sync.WaitGroup
}

// NewServer builds a TCP server for addr.
func NewServer(addr string, broker *core.Broker, logger *zerolog.Logger) *Server {
	return &Server{
		addr:   addr,
		broker: broker,
		log:    logger,
		conns:  make(map[*conn.Connection]struct{}),
		ready:  make(chan struct{}),
	}
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln. On return every session has been torn
// down and ln is closed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.ready)

	s.log.Info().Str("addr", ln.Addr().String()).Msg("tcp server listening")

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	var serveErr error
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				serveErr = fmt.Errorf("accept: %w", err)
			}
			break
		}

		c := conn.Wrap(nc)
		s.track(c)
		s.log.Debug().Str("remote", c.RemoteAddr()).Msg("client connected")

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			s.broker.Serve(ctx, c)
		}()
	}

	_ = ln.Close()
	s.closeAll()
	s.wg.Wait()
	s.log.Info().Msg("tcp server stopped")
	return serveErr
}

// Addr returns the listening address once Serve has started.
func (s *Server) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-s.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener.Addr(), nil
}

func (s *Server) track(c *conn.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c] = struct{}{}
}

func (s *Server) untrack(c *conn.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

// closeAll closes every live connection, which ends each session's reader
// and triggers its teardown.
func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
}
