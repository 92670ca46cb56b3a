package http

import (
	"context"
	"net"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/config"
	"github.com/vovakirdan/linechat/internal/core"
	"github.com/vovakirdan/linechat/internal/store"
)

// OnlineLister reports logged-in usernames.
type OnlineLister interface {
	List(ctx context.Context) ([]string, error)
}

// Deps are the optional backends behind the admin API. Nil fields disable
// the endpoints that need them.
type Deps struct {
	Events   store.EventStore
	Presence OnlineLister
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the admin HTTP server. Requests, including WebSocket
// sessions, run under ctx and end when it is cancelled.
func NewServer(ctx context.Context, broker *core.Broker, deps Deps, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(broker, deps, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

// NewRouter registers every admin route on a fresh gin engine.
func NewRouter(broker *core.Broker, deps Deps, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(broker, logger)))

	rooms := NewRoomHandlers(broker.Hub(), logger)
	events := NewEventHandlers(deps.Events, deps.Presence, logger)

	api := router.Group("/api")
	api.GET("/rooms", rooms.ListRooms)
	api.GET("/rooms/:name", rooms.GetRoom)
	api.GET("/events", events.ListEvents)
	api.GET("/events/counts", events.EventCounts)
	api.GET("/online", events.ListOnline)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
