package core

import (
	"strings"

	"github.com/vovakirdan/linechat/internal/proto"
)

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom moves the user into a room.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom takes the user out of its room.
	CommandLeaveRoom
	// CommandSendRoomMessage broadcasts text to the user's room.
	CommandSendRoomMessage
	// CommandQuit ends the session.
	CommandQuit
)

// Command is a decoded post-login request.
type Command struct {
	Kind CommandKind
	Room string
	Text string
}

// ParseCommand maps a received frame to a Command.
func ParseCommand(msg proto.Message) (Command, error) {
	switch msg.Tag {
	case proto.TagJoin:
		if err := validateName(msg.Data, errRoomRequired, errRoomName); err != nil {
			return Command{}, err
		}
		return Command{Kind: CommandJoinRoom, Room: msg.Data}, nil
	case proto.TagLeave:
		return Command{Kind: CommandLeaveRoom}, nil
	case proto.TagSendAll:
		return Command{Kind: CommandSendRoomMessage, Text: msg.Data}, nil
	case proto.TagQuit:
		return Command{Kind: CommandQuit}, nil
	default:
		return Command{}, coreError(ErrCodeUnknownCommand, "unknown command "+msg.Tag)
	}
}

// validateName checks usernames and room names, which travel inside the
// colon-separated DELIVERY payload.
func validateName(name string, missing, invalid *CoreError) error {
	if strings.TrimSpace(name) == "" {
		return missing
	}
	if strings.ContainsRune(name, ':') {
		return invalid
	}
	return nil
}
