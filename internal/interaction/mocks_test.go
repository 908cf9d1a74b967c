package interaction

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"studytables/internal/parser"
	"studytables/internal/preview"
	"studytables/internal/store"
	"studytables/pkg/types"
)

// mockResponder records private replies and modal opens.
type mockResponder struct {
	mu       sync.Mutex
	messages []string
	payloads []*types.DisplayPayload
	controls [][]types.Control
	modals   []*types.ModalPrompt
}

func (m *mockResponder) RespondEphemeral(ctx context.Context, interactionID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, content)
	return nil
}

func (m *mockResponder) RespondEphemeralPayload(ctx context.Context, interactionID, content string, payload *types.DisplayPayload, controls []types.Control) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, content)
	m.payloads = append(m.payloads, payload)
	m.controls = append(m.controls, controls)
	return nil
}

func (m *mockResponder) OpenModal(ctx context.Context, interactionID string, modal *types.ModalPrompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modals = append(m.modals, modal)
	return nil
}

func (m *mockResponder) lastMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return ""
	}
	return m.messages[len(m.messages)-1]
}

// mockPublisher assigns sequential message IDs and records edits.
type mockPublisher struct {
	mu         sync.Mutex
	nextID     int
	published  []string // channel IDs
	edits      []string // message IDs
	failEdit   bool
	failPost   bool
	lastEdited *types.DisplayPayload
}

func (m *mockPublisher) PublishMessage(ctx context.Context, channelID string, payload *types.DisplayPayload, controls []types.Control) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPost {
		return "", errors.New("publish failed")
	}
	m.nextID++
	m.published = append(m.published, channelID)
	return fmt.Sprintf("%d", 1000+m.nextID), nil
}

func (m *mockPublisher) EditMessage(ctx context.Context, channelID, messageID string, payload *types.DisplayPayload, controls []types.Control) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEdit {
		return errors.New("message deleted")
	}
	m.edits = append(m.edits, messageID)
	m.lastEdited = payload
	return nil
}

func (m *mockPublisher) editCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.edits)
}

// mockRecorder captures toggle events.
type mockRecorder struct {
	mu     sync.Mutex
	events []*types.ToggleEvent
	fail   bool
}

func (m *mockRecorder) RecordToggle(event *types.ToggleEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("history unavailable")
	}
	m.events = append(m.events, event)
	return nil
}

// fixture wires a real store and preview cache to mock platform ends.
type fixture struct {
	store      *store.Store
	storePath  string
	previews   *preview.Cache
	responder  *mockResponder
	publisher  *mockPublisher
	recorder   *mockRecorder
	dispatcher *Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sessions.json")
	s := store.NewStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("store load failed: %v", err)
	}

	f := &fixture{
		store:     s,
		storePath: path,
		previews:  preview.NewCache(0),
		responder: &mockResponder{},
		publisher: &mockPublisher{},
		recorder:  &mockRecorder{},
	}
	f.dispatcher = NewDispatcher()
	volunteer := NewVolunteerHandler(f.store, f.recorder, f.responder, f.publisher, nil)
	setup := NewSetupHandler(f.previews, f.store, f.dispatcher, f.responder, f.publisher)
	f.dispatcher.SetHandlers(setup, volunteer)
	return f
}

// createSession seeds a posted session and binds its controls.
func (f *fixture) createSession(t *testing.T, key, rawCourses string) *types.Session {
	t.Helper()
	session, err := f.store.Create(key, "chan-1", "guild-1", "announcement", mustParse(t, rawCourses))
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	f.dispatcher.BindSessionControls(session.Key, session.Courses)
	return session
}

func mustParse(t *testing.T, raw string) *types.CourseRegistry {
	t.Helper()
	courses := parser.Parse(raw)
	if courses.Len() == 0 {
		t.Fatalf("fixture parse of %q produced no courses", raw)
	}
	return courses
}

func controlPress(userID, controlID string) *types.InteractionEvent {
	return &types.InteractionEvent{
		ID:        "int-1",
		Kind:      types.EventKindControl,
		UserID:    userID,
		ChannelID: "chan-1",
		GuildID:   "guild-1",
		ControlID: controlID,
	}
}
