package interfaces

import "errors"

// Shared error types used across component boundaries. These identify
// expected failure modes: stale tokens and lost sessions come from external
// data loss, not bugs, and are reported privately to the triggering user.
var (
	ErrEmptyCourseList  = errors.New("no valid course blocks in input")
	ErrPreviewNotFound  = errors.New("preview draft not found")
	ErrPreviewExpired   = errors.New("preview draft expired")
	ErrNotAuthorized    = errors.New("not authorized to act on this draft")
	ErrSessionNotFound  = errors.New("session not found")
	ErrCourseNotFound   = errors.New("course not found in session")
	ErrDuplicateKey     = errors.New("session key already exists")
	ErrGatewayClosed    = errors.New("gateway connection closed")
	ErrGatewayTimeout   = errors.New("gateway request timed out")
)
