package board

import "errors"

var (
	ErrRoomNotFound   = errors.New("room-not-found")
	ErrRoomClosed     = errors.New("room-closed")
	ErrNotJoined      = errors.New("not-joined")
	ErrAlreadyJoined  = errors.New("already-joined")
	ErrRoomMismatch   = errors.New("room-mismatch")
	ErrSessionClosed  = errors.New("session-closed")
	ErrNotParticipant = errors.New("not-participant")
)

var (
	ErrSendBufferFull = errors.New("send-buffer-full")
	ErrConnClosed     = errors.New("connection-closed")
)
