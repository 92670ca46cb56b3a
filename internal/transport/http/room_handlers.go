package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/core"
)

// RoomHandlers exposes the live room registry.
type RoomHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// RoomSummary is one entry of the room list.
type RoomSummary struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// RoomDetail describes a single room and who is in it.
type RoomDetail struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// ListRooms handles listing live rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	infos := h.hub.Rooms()

	response := make([]RoomSummary, 0, len(infos))
	for _, info := range infos {
		response = append(response, RoomSummary{Name: info.Name, Members: info.Members})
	}

	h.log.Debug().Int("room_count", len(response)).Msg("rooms listed")
	c.JSON(http.StatusOK, response)
}

// GetRoom handles looking up one room by name.
// GET /api/rooms/:name
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	name := c.Param("name")
	room, ok := h.hub.Room(name)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	c.JSON(http.StatusOK, RoomDetail{
		Name:    room.Name,
		Members: room.MemberNames(),
	})
}
