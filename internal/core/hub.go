package core

import (
	"sort"
	"sync"

	"github.com/vovakirdan/linechat/internal/proto"
)

// Hub is the process-wide room registry. Lock order is always hub, then room.
type Hub struct {
	mu         sync.Mutex
	rooms      map[string]*Room
	evictEmpty bool
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithEviction controls whether a room is dropped from the registry once
// its last member leaves.
func WithEviction(enabled bool) HubOption {
	return func(h *Hub) {
		h.evictEmpty = enabled
	}
}

// NewHub creates an empty registry. Empty rooms are evicted by default.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		rooms:      make(map[string]*Room),
		evictEmpty: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Join moves u into the named room, creating the room if needed. If u is
// already in another room it leaves that room first. Joining the room u is
// already in is a no-op.
func (h *Hub) Join(u *User, name string) *Room {
	return h.join(u, name, nil)
}

// JoinAck is Join, with ack queued to u ahead of any delivery from the new
// room.
func (h *Hub) JoinAck(u *User, name string, ack proto.Message) *Room {
	return h.join(u, name, &ack)
}

func (h *Hub) join(u *User, name string, ack *proto.Message) *Room {
	if cur := u.room; cur != nil {
		if cur.Name == name && cur.HasMember(u) {
			if ack != nil {
				u.deliver(*ack)
			}
			return cur
		}
		h.Leave(u)
	}

	h.mu.Lock()
	room, ok := h.rooms[name]
	if !ok {
		room = NewRoom(name)
		h.rooms[name] = room
	}
	// Adding under the hub lock keeps eviction from racing with the join.
	room.addMember(u, ack)
	h.mu.Unlock()

	u.room = room
	return room
}

// Leave removes u from its current room. Returns the room it left, or nil
// when u was not in a room.
func (h *Hub) Leave(u *User) *Room {
	room := u.room
	if room == nil {
		return nil
	}
	u.room = nil
	room.RemoveMember(u)

	if h.evictEmpty {
		h.mu.Lock()
		if h.rooms[room.Name] == room && room.Empty() {
			delete(h.rooms, room.Name)
		}
		h.mu.Unlock()
	}
	return room
}

// Room looks up a room by name.
func (h *Hub) Room(name string) (*Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[name]
	return room, ok
}

// RoomInfo is a point-in-time summary of one room.
type RoomInfo struct {
	Name    string
	Members int
}

// Rooms returns a snapshot of all registered rooms sorted by name.
func (h *Hub) Rooms() []RoomInfo {
	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.Unlock()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, RoomInfo{Name: r.Name, Members: r.Len()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
