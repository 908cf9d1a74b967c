package types

import (
	"time"
)

// MaxCourses caps the number of courses a single announcement may carry.
// The interactive surface attaches one control per course, and the platform
// limits controls per message, so the registry enforces the same cap.
const MaxCourses = 25

// CourseEntry holds one course's instructor, requested topics, and the
// volunteer tutors who signed up for it. Topics and Volunteers preserve
// insertion order and contain no duplicates; mutate them only through the
// methods below so the invariants hold at every access site.
type CourseEntry struct {
	Professor  string   `json:"professor"`
	Topics     []string `json:"desc"`
	Volunteers []string `json:"volunteers"`
}

// NewCourseEntry returns an entry with non-nil slices so it serializes as
// [] rather than null in the state file.
func NewCourseEntry(professor string) *CourseEntry {
	return &CourseEntry{
		Professor:  professor,
		Topics:     []string{},
		Volunteers: []string{},
	}
}

// AddTopic appends a topic unless an identical one is already present.
// Returns true if the topic was added.
func (e *CourseEntry) AddTopic(topic string) bool {
	for _, t := range e.Topics {
		if t == topic {
			return false
		}
	}
	e.Topics = append(e.Topics, topic)
	return true
}

// HasVolunteer reports whether userID is in the volunteer set.
func (e *CourseEntry) HasVolunteer(userID string) bool {
	for _, v := range e.Volunteers {
		if v == userID {
			return true
		}
	}
	return false
}

// AddVolunteer appends userID unless already present. Returns true if added.
func (e *CourseEntry) AddVolunteer(userID string) bool {
	if e.HasVolunteer(userID) {
		return false
	}
	e.Volunteers = append(e.Volunteers, userID)
	return true
}

// RemoveVolunteer removes userID, preserving the order of the rest.
// Returns true if userID was present.
func (e *CourseEntry) RemoveVolunteer(userID string) bool {
	for i, v := range e.Volunteers {
		if v == userID {
			e.Volunteers = append(e.Volunteers[:i], e.Volunteers[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the entry.
func (e *CourseEntry) Clone() *CourseEntry {
	c := NewCourseEntry(e.Professor)
	c.Topics = append(c.Topics, e.Topics...)
	c.Volunteers = append(c.Volunteers, e.Volunteers...)
	return c
}

// normalize repairs nil slices after JSON decoding.
func (e *CourseEntry) normalize() {
	if e.Topics == nil {
		e.Topics = []string{}
	}
	if e.Volunteers == nil {
		e.Volunteers = []string{}
	}
}

// Session is the durable state bound to one posted announcement. Key is the
// identifier the platform assigned to the posted message, serialized as a
// decimal string; it doubles as the map key in the state file, so it is not
// serialized inside the object. Sessions are owned exclusively by the
// session store and mutated only through it.
type Session struct {
	Key          string          `json:"-"`
	ChannelID    string          `json:"channel_id"`
	GuildID      string          `json:"guild_id"`
	Announcement string          `json:"announcement"`
	Courses      *CourseRegistry `json:"courses"`
}

// Clone returns a deep copy safe to read outside the store's lock.
func (s *Session) Clone() *Session {
	return &Session{
		Key:          s.Key,
		ChannelID:    s.ChannelID,
		GuildID:      s.GuildID,
		Announcement: s.Announcement,
		Courses:      s.Courses.Clone(),
	}
}

// PreviewDraft is a parsed-but-unposted announcement staged by its owner.
// Drafts live only in memory; a restart drops them.
type PreviewDraft struct {
	Token        string
	OwnerID      string
	Announcement string
	Courses      *CourseRegistry
	RawCourses   string
	CreatedAt    time.Time
}

// ToggleEvent records one volunteer add/remove for the history log.
type ToggleEvent struct {
	ID         string    `json:"id"`
	SessionKey string    `json:"session_key"`
	CourseKey  string    `json:"course_key"`
	UserID     string    `json:"user_id"`
	Added      bool      `json:"added"`
	CreatedAt  time.Time `json:"created_at"`
}

// DisplaySection is one named block of a rendered announcement.
type DisplaySection struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DisplayPayload is the platform-independent rendering of an announcement.
// The platform layer converts it into the native message format.
type DisplayPayload struct {
	Title    string           `json:"title"`
	Body     string           `json:"body"`
	Sections []DisplaySection `json:"sections"`
}

// Control describes one interactive element attached to a message. ID must
// be re-derivable from durable state so controls can be reconstructed after
// a restart without fetching the original message.
type Control struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Style string `json:"style"`
}

// Control styles understood by the platform layer.
const (
	ControlStylePrimary   = "primary"
	ControlStyleSuccess   = "success"
	ControlStyleSecondary = "secondary"
	ControlStyleDanger    = "danger"
)

// ModalField is one text input of a modal prompt.
type ModalField struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Default   string `json:"default"`
	Paragraph bool   `json:"paragraph"`
	Required  bool   `json:"required"`
	MaxLength int    `json:"max_length"`
}

// ModalPrompt is a form the platform shows to a single user.
type ModalPrompt struct {
	Title  string       `json:"title"`
	Fields []ModalField `json:"fields"`
}

// Interaction event kinds delivered by the gateway.
const (
	EventKindCommand = "command"
	EventKindModal   = "modal"
	EventKindControl = "control"
)

// InteractionEvent is one inbound action by a platform user: a slash
// command, a modal submission, or a control press. ID identifies the
// interaction for private replies; ControlID carries the pressed control's
// identifier; Fields carries modal input values keyed by field key.
type InteractionEvent struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	UserID    string            `json:"user_id"`
	UserName  string            `json:"user_name,omitempty"`
	ChannelID string            `json:"channel_id"`
	GuildID   string            `json:"guild_id"`
	Command   string            `json:"command,omitempty"`
	ControlID string            `json:"control_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}
