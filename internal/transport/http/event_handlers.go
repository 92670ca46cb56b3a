package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/store"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// EventHandlers serves the audit log and presence list.
type EventHandlers struct {
	events   store.EventStore
	presence OnlineLister
	log      *zerolog.Logger
}

// NewEventHandlers creates handlers over the optional backends.
func NewEventHandlers(events store.EventStore, presence OnlineLister, logger *zerolog.Logger) *EventHandlers {
	return &EventHandlers{
		events:   events,
		presence: presence,
		log:      logger,
	}
}

// EventResponse represents an audit event in API responses.
type EventResponse struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Kind      string `json:"kind"`
	Room      string `json:"room,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ListEvents returns recent audit events, newest first.
// GET /api/events?limit=N
func (h *EventHandlers) ListEvents(c *gin.Context) {
	limit := defaultEventLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxEventLimit)
	}

	response := []EventResponse{}
	if h.events == nil {
		c.JSON(http.StatusOK, response)
		return
	}

	events, err := h.events.ListEvents(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list events")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	for _, ev := range events {
		response = append(response, EventResponse{
			ID:        ev.ID,
			SessionID: ev.SessionID,
			Username:  ev.Username,
			Role:      ev.Role,
			Kind:      string(ev.Kind),
			Room:      ev.Room,
			CreatedAt: ev.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, response)
}

// ListOnline returns logged-in usernames.
// GET /api/online
func (h *EventHandlers) ListOnline(c *gin.Context) {
	if h.presence == nil {
		c.JSON(http.StatusOK, []string{})
		return
	}

	names, err := h.presence.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list online users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, names)
}

// EventCounts returns how many audit events of each kind were recorded.
// GET /api/events/counts
func (h *EventHandlers) EventCounts(c *gin.Context) {
	response := map[string]int64{}
	if h.events == nil {
		c.JSON(http.StatusOK, response)
		return
	}

	counts, err := h.events.CountEvents(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to count events")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	for kind, n := range counts {
		response[string(kind)] = n
	}
	c.JSON(http.StatusOK, response)
}
