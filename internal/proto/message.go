package proto

import (
	"errors"
	"fmt"
	"strings"
)

// MaxLen bounds a serialized frame, trailing newline included.
const MaxLen = 255

// Frame tags understood by the broker and its clients.
const (
	TagRLogin   = "RLOGIN"
	TagSLogin   = "SLOGIN"
	TagJoin     = "JOIN"
	TagLeave    = "LEAVE"
	TagSendAll  = "SENDALL"
	TagQuit     = "QUIT"
	TagOK       = "OK"
	TagError    = "ERROR"
	TagDelivery = "DELIVERY"
)

var (
	// ErrProtocol is the root of every frame-level error.
	ErrProtocol = errors.New("protocol error")

	ErrInvalidTag     = fmt.Errorf("%w: invalid tag", ErrProtocol)
	ErrMalformedFrame = fmt.Errorf("%w: malformed frame", ErrProtocol)
	ErrFrameTooLong   = fmt.Errorf("%w: frame too long", ErrProtocol)
	ErrInvalidData    = fmt.Errorf("%w: data contains line break", ErrProtocol)
)

// Message is one tagged text frame.
type Message struct {
	Tag  string
	Data string
}

// NewMessage validates tag and data and returns the frame.
func NewMessage(tag, data string) (Message, error) {
	if _, err := Serialize(tag, data); err != nil {
		return Message{}, err
	}
	return Message{Tag: tag, Data: data}, nil
}

// String returns the wire form without validation.
func (m Message) String() string {
	return m.Tag + ":" + m.Data + "\n"
}

// Serialize produces the wire form tag:data\n. Data may not contain \r or
// \n, so Parse always gives back what was serialized.
func Serialize(tag, data string) (string, error) {
	if tag == "" || strings.ContainsRune(tag, ':') || strings.ContainsAny(tag, "\r\n") {
		return "", ErrInvalidTag
	}
	if strings.ContainsAny(data, "\r\n") {
		return "", ErrInvalidData
	}
	frame := tag + ":" + data + "\n"
	if len(frame) > MaxLen {
		return "", ErrFrameTooLong
	}
	return frame, nil
}

// Parse splits a received line on its first colon. Any further colons belong
// to the data, and a trailing \n and/or \r is stripped.
func Parse(line string) (Message, error) {
	tag, data, found := strings.Cut(line, ":")
	if !found {
		return Message{}, ErrMalformedFrame
	}
	if tag == "" {
		return Message{}, ErrInvalidTag
	}
	data = strings.TrimSuffix(data, "\n")
	data = strings.TrimSuffix(data, "\r")
	return Message{Tag: tag, Data: data}, nil
}

// OK builds an acknowledgement frame.
func OK() Message {
	return Message{Tag: TagOK}
}

// Error builds an ERROR frame carrying reason. Newlines are flattened so the
// frame stays a single line.
func Error(reason string) Message {
	reason = strings.NewReplacer("\r", " ", "\n", " ").Replace(reason)
	if limit := MaxLen - len(TagError) - 2; len(reason) > limit {
		reason = reason[:limit]
	}
	return Message{Tag: TagError, Data: reason}
}
