package core

import (
	"github.com/vovakirdan/linechat/internal/conn"
	"github.com/vovakirdan/linechat/internal/proto"
)

// Role is fixed at login by the handshake tag.
type Role int

const (
	// RoleReceiver logs in with RLOGIN and only consumes deliveries.
	RoleReceiver Role = iota
	// RoleSender logs in with SLOGIN and issues commands.
	RoleSender
)

func (r Role) String() string {
	if r == RoleSender {
		return "sender"
	}
	return "receiver"
}

// User is a logged-in chat participant bound to one connection.
type User struct {
	ID    string
	Name  string
	Role  Role
	Conn  *conn.Connection
	Queue *MessageQueue

	// room is only touched by the session goroutine that owns the user.
	room *Room
}

// NewUser constructs a user with an open outbound queue.
func NewUser(id, name string, role Role, c *conn.Connection) *User {
	if name == "" {
		name = id
	}
	return &User{
		ID:    id,
		Name:  name,
		Role:  role,
		Conn:  c,
		Queue: NewMessageQueue(),
	}
}

// Room returns the room the user currently belongs to, or nil.
func (u *User) Room() *Room {
	return u.room
}

// deliver hands msg to the user's writer.
func (u *User) deliver(msg proto.Message) {
	u.Queue.Enqueue(msg)
}
