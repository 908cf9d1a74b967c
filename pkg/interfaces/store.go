package interfaces

import "studytables/pkg/types"

// SessionStore is the single owner of durable session state. Every method
// that mutates state persists before returning; a returned error means the
// mutation is not durable and must not be acknowledged as success.
type SessionStore interface {
	// Load reads durable state into memory. Missing or corrupt state
	// initializes empty and is never fatal.
	Load() error

	// Save atomically persists the full in-memory state.
	Save() error

	// Create registers a new session keyed by the posted message's
	// identifier. Fails with ErrDuplicateKey if the key exists.
	Create(key, channelID, guildID, announcement string, courses *types.CourseRegistry) (*types.Session, error)

	// Get returns a snapshot of the session, or ErrSessionNotFound.
	Get(key string) (*types.Session, error)

	// ToggleVolunteer adds userID to the course's volunteer set if absent
	// (added=true) or removes it if present (added=false). The returned
	// session is a post-mutation snapshot, already persisted.
	ToggleVolunteer(key, courseKey, userID string) (session *types.Session, added bool, err error)

	// Reattach invokes bind once per stored session with a non-empty
	// course registry, so interactive controls can be re-registered after
	// a restart. Calling it twice does not double-register.
	Reattach(bind func(key string, courses *types.CourseRegistry))

	// List returns snapshots of all sessions ordered by key.
	List() []*types.Session
}

// ToggleRecorder appends volunteer toggle events to the history log.
// Recording is best-effort from the toggle path.
type ToggleRecorder interface {
	RecordToggle(event *types.ToggleEvent) error
}

// ControlBinder registers interactive controls for a posted session so
// subsequent presses route to the volunteer toggle handler. Binding the
// same session twice is a no-op.
type ControlBinder interface {
	BindSessionControls(sessionKey string, courses *types.CourseRegistry)
}
