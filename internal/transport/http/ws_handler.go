package http

import (
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/conn"
	"github.com/vovakirdan/linechat/internal/core"
)

// WSHandler upgrades HTTP connections and serves the line protocol over
// text messages, one broker session per socket.
type WSHandler struct {
	broker *core.Broker
	log    *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(broker *core.Broker, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{broker: broker, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	// Frames may span or share text messages; the connection reader
	// only cares about newlines.
	nc := websocket.NetConn(ctx, ws, websocket.MessageText)
	h.broker.Serve(ctx, conn.Wrap(nc))
}
