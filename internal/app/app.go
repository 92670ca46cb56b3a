package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/linechat/internal/config"
	"github.com/vovakirdan/linechat/internal/core"
	"github.com/vovakirdan/linechat/internal/presence"
	"github.com/vovakirdan/linechat/internal/store"
	"github.com/vovakirdan/linechat/internal/store/sqlite"
	"github.com/vovakirdan/linechat/internal/transport/http"
	"github.com/vovakirdan/linechat/internal/transport/tcp"
)

// App wires together core, storage and transport layers.
type App struct {
	cfg      *config.Config
	broker   *core.Broker
	tcp      *tcp.Server
	store    store.Store
	presence *presence.RedisPresence
	log      *zerolog.Logger
}

// New constructs the application with provided configuration. The audit
// store and presence tracker are only opened when configured.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: logger}

	var opts []core.BrokerOption
	if cfg.DatabasePath != "" {
		st, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		a.store = st
		opts = append(opts, core.WithRecorder(st))
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("audit log enabled")
	}

	if cfg.RedisURL != "" {
		p, err := presence.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			a.cleanup()
			return nil, fmt.Errorf("init presence: %w", err)
		}
		// Nobody is online before the first login.
		if err := p.Clear(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to reset presence set")
		}
		a.presence = p
		opts = append(opts, core.WithPresence(p))
		logger.Info().Msg("presence tracking enabled")
	}

	if cfg.SendRateLimit > 0 {
		opts = append(opts, core.WithSendLimit(cfg.SendRateLimit))
	}

	hub := core.NewHub(core.WithEviction(cfg.EvictEmptyRooms))
	a.broker = core.NewBroker(hub, logger, opts...)
	a.tcp = tcp.NewServer(cfg.Addr, a.broker, logger)

	return a, nil
}

// Broker returns the broker shared by every transport.
func (a *App) Broker() *core.Broker {
	return a.broker
}

// Run starts the TCP listener and, when configured, the admin HTTP server,
// and blocks until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.tcp.ListenAndServe(gctx)
	})

	if a.cfg.HTTPAddr != "" {
		server := http.NewServer(gctx, a.broker, a.httpDeps(), a.cfg, a.log)
		g.Go(func() error {
			a.log.Info().Str("addr", server.Addr).Msg("http server listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.shutdownTimeout())
			defer cancel()

			a.log.Info().Msg("shutting down http server")
			return server.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

func (a *App) httpDeps() http.Deps {
	var deps http.Deps
	if a.store != nil {
		deps.Events = a.store
	}
	if a.presence != nil {
		deps.Presence = a.presence
	}
	return deps
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg.ShutdownTimeout > 0 {
		return a.cfg.ShutdownTimeout
	}
	return 5 * time.Second
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.presence != nil {
		if err := a.presence.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close presence")
		}
		a.presence = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
		a.store = nil
	}
}
