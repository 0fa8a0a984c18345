package domain

import "errors"

var (
	ErrMalformedMessage = errors.New("malformed-message")
	ErrUnknownEvent     = errors.New("unknown-event")
	ErrMissingRoomId    = errors.New("missing-room-id")
	ErrRoomIdTooLong    = errors.New("room-id-too-long")
	ErrTooFewPoints     = errors.New("too-few-points")
	ErrTooManyPoints    = errors.New("too-many-points")
	ErrInvalidStyle     = errors.New("invalid-style")
	ErrNonFiniteNumber  = errors.New("non-finite-number")
	ErrMissingProfile   = errors.New("missing-profile")
)
