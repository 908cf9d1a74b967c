package types

import "errors"

// Structural validation errors.
var (
	ErrInvalidSessionKey = errors.New("session key cannot be empty")
	ErrInvalidChannelID  = errors.New("channel ID cannot be empty")
	ErrEmptyRegistry     = errors.New("course registry cannot be empty")
)
