package core

// Error codes for domain errors.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotInRoom      = "not_in_room"
	ErrCodeInvalidName    = "invalid_name"
	ErrCodeForbidden      = "forbidden"
	ErrCodeUnknownCommand = "unknown_command"
	ErrCodeTooLong        = "message_too_long"
	ErrCodeRateLimited    = "rate_limited"
)

// CoreError is a rejected, well-formed request. Message is what the peer
// sees in the ERROR frame; Code is for logs.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

var (
	errNotInRoom       = coreError(ErrCodeNotInRoom, "not in a room")
	errRoomRequired    = coreError(ErrCodeInvalidName, "room name is required")
	errRoomName        = coreError(ErrCodeInvalidName, "room name must not contain ':'")
	errUsernameMissing = coreError(ErrCodeInvalidName, "username is required")
	errUsername        = coreError(ErrCodeInvalidName, "username must not contain ':'")
	errNotLoggedIn     = coreError(ErrCodeBadRequest, "expected RLOGIN or SLOGIN")
	errReceiverJoin    = coreError(ErrCodeBadRequest, "receiver must JOIN a room first")
	errReceiverOnly    = coreError(ErrCodeForbidden, "receivers may only quit")
	errTooLong         = coreError(ErrCodeTooLong, "message too long")
	errRateLimited     = coreError(ErrCodeRateLimited, "rate limit exceeded")
)
