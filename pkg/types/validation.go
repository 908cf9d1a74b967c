package types

import "regexp"

// Compiled once at package initialization; validation runs on every
// inbound interaction.
var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsValidUserID checks that a user ID is a reasonable platform identifier.
// Platform IDs are decimal strings in practice, but the format is treated
// as opaque beyond basic shape checks.
func IsValidUserID(userID string) bool {
	if len(userID) < 1 || len(userID) > 50 {
		return false
	}
	return userIDRegex.MatchString(userID)
}

// Validate ensures a session meets the structural requirements before it
// enters the store.
func (s *Session) Validate() error {
	if s.Key == "" {
		return ErrInvalidSessionKey
	}
	if s.ChannelID == "" {
		return ErrInvalidChannelID
	}
	if s.Courses.Len() == 0 {
		return ErrEmptyRegistry
	}
	return nil
}
