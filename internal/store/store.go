package store

import (
	"context"
	"time"
)

// EventKind names a session lifecycle transition.
type EventKind string

const (
	EventLogin  EventKind = "login"
	EventLogout EventKind = "logout"
	EventJoin   EventKind = "join"
	EventLeave  EventKind = "leave"
)

// Event is one audited session transition. Message text is never stored.
type Event struct {
	ID        int64
	SessionID string
	Username  string
	Role      string
	Kind      EventKind
	Room      string // empty for login/logout
	CreatedAt time.Time
}

// EventStore handles audit event persistence.
type EventStore interface {
	// RecordEvent inserts ev and fills in its ID and CreatedAt.
	RecordEvent(ctx context.Context, ev *Event) error

	// ListEvents returns up to limit events, newest first.
	ListEvents(ctx context.Context, limit int) ([]Event, error)

	// CountEvents returns the number of events of each kind.
	CountEvents(ctx context.Context) (map[EventKind]int64, error)
}

// Store combines all storage interfaces.
type Store interface {
	EventStore

	// Close closes the underlying storage.
	Close() error
}
