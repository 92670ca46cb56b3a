package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/conn"
	"github.com/vovakirdan/linechat/internal/proto"
	"github.com/vovakirdan/linechat/internal/store"
)

// Recorder receives session lifecycle events for auditing.
type Recorder interface {
	RecordEvent(ctx context.Context, ev *store.Event) error
}

// Presence tracks which usernames are logged in.
type Presence interface {
	Online(ctx context.Context, username string) error
	Offline(ctx context.Context, username string) error
}

const bookkeepingTimeout = 2 * time.Second

// Broker runs client sessions against a shared room registry.
type Broker struct {
	hub       *Hub
	log       *zerolog.Logger
	recorder  Recorder
	presence  Presence
	sendLimit int
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithRecorder enables the audit trail.
func WithRecorder(r Recorder) BrokerOption {
	return func(b *Broker) { b.recorder = r }
}

// WithPresence enables online-user tracking.
func WithPresence(p Presence) BrokerOption {
	return func(b *Broker) { b.presence = p }
}

// WithSendLimit caps SENDALL commands per minute per session; 0 disables.
func WithSendLimit(perMinute int) BrokerOption {
	return func(b *Broker) { b.sendLimit = perMinute }
}

// NewBroker creates a broker over hub.
func NewBroker(hub *Hub, logger *zerolog.Logger, opts ...BrokerOption) *Broker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	b := &Broker{hub: hub, log: logger}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Hub returns the room registry the broker serves.
func (b *Broker) Hub() *Hub {
	return b.hub
}

// Serve runs one client session on c until the peer quits or the connection
// fails, and always closes c before returning.
func (b *Broker) Serve(ctx context.Context, c *conn.Connection) {
	sessionID := uuid.NewString()
	logger := b.log.With().Str("session_id", sessionID).Str("remote", c.RemoteAddr()).Logger()

	user, err := b.handshake(c, sessionID)
	if err != nil {
		logger.Debug().Err(err).Msg("handshake failed")
		_ = c.Close()
		return
	}

	logger = logger.With().Str("user", user.Name).Str("role", user.Role.String()).Logger()
	logger.Info().Msg("user logged in")

	s := &session{
		broker:     b,
		user:       user,
		log:        &logger,
		limiter:    newRateLimiter(b.sendLimit),
		writerDone: make(chan error, 1),
	}
	s.run(ctx)
}

// handshake expects RLOGIN or SLOGIN as the first frame. Any failure is
// answered with ERROR and ends the session without creating a user.
func (b *Broker) handshake(c *conn.Connection, sessionID string) (*User, error) {
	msg, err := c.Receive()
	if err != nil {
		if errors.Is(err, proto.ErrProtocol) {
			_ = c.Send(proto.Error(err.Error()))
		}
		return nil, err
	}

	var role Role
	switch msg.Tag {
	case proto.TagRLogin:
		role = RoleReceiver
	case proto.TagSLogin:
		role = RoleSender
	default:
		_ = c.Send(proto.Error(errNotLoggedIn.Message))
		return nil, errNotLoggedIn
	}

	if err := validateName(msg.Data, errUsernameMissing, errUsername); err != nil {
		_ = c.Send(proto.Error(err.Error()))
		return nil, err
	}

	if err := c.Send(proto.OK()); err != nil {
		return nil, err
	}
	return NewUser(sessionID, msg.Data, role, c), nil
}

func (b *Broker) record(ctx context.Context, u *User, kind store.EventKind, room string, logger *zerolog.Logger) {
	if b.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()

	ev := &store.Event{
		SessionID: u.ID,
		Username:  u.Name,
		Role:      u.Role.String(),
		Kind:      kind,
		Room:      room,
	}
	if err := b.recorder.RecordEvent(ctx, ev); err != nil {
		logger.Warn().Err(err).Str("kind", string(kind)).Msg("failed to record event")
	}
}

func (b *Broker) setPresence(ctx context.Context, u *User, online bool, logger *zerolog.Logger) {
	if b.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()

	var err error
	if online {
		err = b.presence.Online(ctx, u.Name)
	} else {
		err = b.presence.Offline(ctx, u.Name)
	}
	if err != nil {
		logger.Warn().Err(err).Bool("online", online).Msg("failed to update presence")
	}
}
