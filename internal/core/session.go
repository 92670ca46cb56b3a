package core

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/proto"
	"github.com/vovakirdan/linechat/internal/store"
)

// session is one logged-in user: the calling goroutine reads commands and a
// writer goroutine drains the user's queue. After login only the writer
// sends on the connection, until teardown has stopped it.
type session struct {
	broker     *Broker
	user       *User
	log        *zerolog.Logger
	limiter    *rateLimiter
	writerDone chan error
}

func (s *session) run(ctx context.Context) {
	go s.writeLoop()

	s.broker.setPresence(ctx, s.user, true, s.log)
	s.broker.record(ctx, s.user, store.EventLogin, "", s.log)

	final := s.readLoop(ctx)
	s.teardown(ctx, final)
}

func (s *session) writeLoop() {
	for {
		msg, ok := s.user.Queue.Dequeue()
		if !ok {
			s.writerDone <- nil
			return
		}
		if err := s.user.Conn.Send(msg); err != nil {
			// Closing wakes the reader, which then tears the session down.
			_ = s.user.Conn.Close()
			s.writerDone <- err
			return
		}
	}
}

// readLoop handles frames until the session should end. It returns the frame
// to send once the writer has stopped, if any.
func (s *session) readLoop(ctx context.Context) *proto.Message {
	for {
		msg, err := s.user.Conn.Receive()
		if err != nil {
			if errors.Is(err, proto.ErrProtocol) {
				s.log.Debug().Err(err).Msg("invalid frame")
				s.reply(proto.Error(err.Error()))
				continue
			}
			s.log.Info().Err(err).Msg("connection lost")
			return nil
		}

		cmd, err := ParseCommand(msg)
		if err != nil {
			s.reject(err)
			continue
		}

		if final, done := s.dispatch(ctx, cmd); done {
			return final
		}
	}
}

func (s *session) dispatch(ctx context.Context, cmd Command) (*proto.Message, bool) {
	if cmd.Kind == CommandQuit {
		s.log.Info().Msg("user quit")
		ok := proto.OK()
		return &ok, true
	}
	if s.user.Role == RoleReceiver {
		return s.dispatchReceiver(ctx, cmd)
	}

	switch cmd.Kind {
	case CommandJoinRoom:
		s.join(ctx, cmd.Room)
	case CommandLeaveRoom:
		if s.user.Room() == nil {
			s.reject(errNotInRoom)
			return nil, false
		}
		s.leave(ctx)
		s.reply(proto.OK())
	case CommandSendRoomMessage:
		s.sendAll(cmd.Text)
	}
	return nil, false
}

// dispatchReceiver accepts a single JOIN. Anything else before it ends the
// session; anything but QUIT after it is refused.
func (s *session) dispatchReceiver(ctx context.Context, cmd Command) (*proto.Message, bool) {
	if s.user.Room() != nil {
		s.reject(errReceiverOnly)
		return nil, false
	}
	if cmd.Kind != CommandJoinRoom {
		s.log.Debug().Msg("receiver did not join")
		e := proto.Error(errReceiverJoin.Message)
		return &e, true
	}
	s.join(ctx, cmd.Room)
	return nil, false
}

// join moves the user into name and acknowledges with OK, which is queued
// before any delivery from that room.
func (s *session) join(ctx context.Context, name string) {
	if prev := s.user.Room(); prev != nil && prev.Name != name {
		s.broker.record(ctx, s.user, store.EventLeave, prev.Name, s.log)
	}
	room := s.broker.hub.JoinAck(s.user, name, proto.OK())
	s.log.Debug().Str("room", room.Name).Msg("joined room")
	s.broker.record(ctx, s.user, store.EventJoin, room.Name, s.log)
}

func (s *session) leave(ctx context.Context) {
	if room := s.broker.hub.Leave(s.user); room != nil {
		s.log.Debug().Str("room", room.Name).Msg("left room")
		s.broker.record(ctx, s.user, store.EventLeave, room.Name, s.log)
	}
}

func (s *session) sendAll(text string) {
	room := s.user.Room()
	if room == nil {
		s.reject(errNotInRoom)
		return
	}
	if !s.limiter.allow() {
		s.reject(errRateLimited)
		return
	}
	n, err := room.BroadcastMessage(s.user.Name, text)
	if errors.Is(err, proto.ErrFrameTooLong) {
		s.reject(errTooLong)
		return
	}
	if err != nil {
		s.reject(err)
		return
	}
	s.log.Debug().Str("room", room.Name).Int("recipients", n).Msg("broadcast")
	s.reply(proto.OK())
}

func (s *session) reply(msg proto.Message) {
	s.user.Queue.Enqueue(msg)
}

func (s *session) reject(err error) {
	var ce *CoreError
	if errors.As(err, &ce) {
		s.log.Debug().Str("code", ce.Code).Msg(ce.Message)
	}
	s.reply(proto.Error(err.Error()))
}

// teardown leaves the room, stops the writer, sends the final frame if any
// and closes the connection, in that order.
func (s *session) teardown(ctx context.Context, final *proto.Message) {
	s.leave(ctx)
	s.user.Queue.Shutdown()
	if err := <-s.writerDone; err != nil {
		s.log.Debug().Err(err).Msg("writer stopped")
	}

	if final != nil {
		if err := s.user.Conn.Send(*final); err != nil {
			s.log.Debug().Err(err).Msg("send final frame")
		}
	}
	_ = s.user.Conn.Close()

	s.broker.setPresence(ctx, s.user, false, s.log)
	s.broker.record(ctx, s.user, store.EventLogout, "", s.log)
	s.log.Info().Msg("session closed")
}
