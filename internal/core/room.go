package core

import (
	"sort"
	"sync"

	"github.com/vovakirdan/linechat/internal/proto"
)

// Room is a named multicast group. It never owns its members.
type Room struct {
	Name string

	mu      sync.Mutex
	members map[*User]struct{}
}

// NewRoom constructs a room with no members.
func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		members: make(map[*User]struct{}),
	}
}

// AddMember inserts u. Returns true if newly added.
func (r *Room) AddMember(u *User) bool {
	return r.addMember(u, nil)
}

// addMember inserts u and, if ack is set, queues it to u before the room
// lock is released, so no broadcast can reach u ahead of it.
func (r *Room) addMember(u *User, ack *proto.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.members[u]
	if !exists {
		r.members[u] = struct{}{}
	}
	if ack != nil {
		u.deliver(*ack)
	}
	return !exists
}

// RemoveMember deletes u. Returns true if it was a member.
func (r *Room) RemoveMember(u *User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.members[u]; !exists {
		return false
	}
	delete(r.members, u)
	return true
}

// BroadcastMessage enqueues one DELIVERY frame room:sender:text on the queue
// of every receiver in the room and returns how many got it. Senders are
// members but never read deliveries. The room lock is held throughout, so
// membership cannot change mid-broadcast.
func (r *Room) BroadcastMessage(sender, text string) (int, error) {
	msg, err := proto.NewDelivery(r.Name, sender, text)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for u := range r.members {
		if u.Role != RoleReceiver {
			continue
		}
		u.deliver(msg)
		n++
	}
	return n, nil
}

// HasMember reports whether u is currently in the room.
func (r *Room) HasMember(u *User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[u]
	return ok
}

// Len returns the number of members.
func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Empty returns true if nobody is in the room.
func (r *Room) Empty() bool {
	return r.Len() == 0
}

// MemberNames returns the sorted usernames of current members.
func (r *Room) MemberNames() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.members))
	for u := range r.members {
		names = append(names, u.Name)
	}
	r.mu.Unlock()

	sort.Strings(names)
	return names
}
