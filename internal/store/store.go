// Package store owns durable session state: the mapping from posted
// announcement identity to course registry and volunteer signups. All
// mutation goes through the store, which persists the full state after
// every change.
package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"studytables/pkg/interfaces"
	"studytables/pkg/types"
)

// stateFile is the on-disk shape: {"sessions": {"<key>": {...}}}. Session
// keys are decimal strings assigned by the platform.
type stateFile struct {
	Sessions map[string]*types.Session `json:"sessions"`
}

// Store is a mutex-guarded in-memory session map backed by a JSON state
// file. A single lock serializes mutations; each mutation is an O(1) map
// update plus a bounded local write, so per-session locking is not worth
// its complexity at this scale.
type Store struct {
	path       string
	mu         sync.RWMutex
	sessions   map[string]*types.Session
	reattached bool
}

// NewStore creates a store persisting to path. Call Load before use.
func NewStore(path string) *Store {
	return &Store{
		path:     path,
		sessions: make(map[string]*types.Session),
	}
}

// Load reads the state file into memory. A missing file starts empty; a
// corrupt file is logged and treated as empty, never fatal.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*types.Session)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("No state file at %s, starting empty", s.path)
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var state stateFile
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("State file %s is corrupt, starting empty: %v", s.path, err)
		return nil
	}

	for key, session := range state.Sessions {
		if session == nil {
			continue
		}
		session.Key = key
		if session.Courses == nil {
			session.Courses = types.NewCourseRegistry()
		}
		s.sessions[key] = session
	}

	log.Printf("Loaded %d sessions from %s", len(s.sessions), s.path)
	return nil
}

// Save atomically persists the full in-memory state.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveLocked()
}

// saveLocked writes the state file via temp-file-then-rename so an
// interrupted write never clobbers previously saved sessions. Callers must
// hold at least a read lock.
func (s *Store) saveLocked() error {
	state := stateFile{Sessions: s.sessions}
	data, err := json.MarshalIndent(&state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sessions-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Create registers a new session under the posted message's key and
// persists it. The registry is deep-copied: the store owns its sessions
// exclusively. Fails with ErrDuplicateKey if the key already exists.
func (s *Store) Create(key, channelID, guildID, announcement string, courses *types.CourseRegistry) (*types.Session, error) {
	session := &types.Session{
		Key:          key,
		ChannelID:    channelID,
		GuildID:      guildID,
		Announcement: announcement,
		Courses:      courses.Clone(),
	}
	if err := session.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[key]; exists {
		return nil, interfaces.ErrDuplicateKey
	}
	s.sessions[key] = session

	if err := s.saveLocked(); err != nil {
		delete(s.sessions, key)
		return nil, err
	}

	log.Printf("Created session: key=%s channel=%s courses=%d", key, channelID, session.Courses.Len())
	return session.Clone(), nil
}

// Get returns a snapshot of the session, or ErrSessionNotFound.
func (s *Store) Get(key string) (*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[key]
	if !exists {
		return nil, interfaces.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// ToggleVolunteer adds userID to the course's volunteer set if absent, or
// removes it if present. The mutation is persisted before the method
// returns; on a persistence failure the mutation is rolled back and the
// error propagates, so a toggle is never acknowledged without durability.
func (s *Store) ToggleVolunteer(key, courseKey, userID string) (*types.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[key]
	if !exists {
		return nil, false, interfaces.ErrSessionNotFound
	}
	entry, exists := session.Courses.Get(courseKey)
	if !exists {
		return nil, false, interfaces.ErrCourseNotFound
	}

	added := false
	if entry.HasVolunteer(userID) {
		entry.RemoveVolunteer(userID)
	} else {
		entry.AddVolunteer(userID)
		added = true
	}

	if err := s.saveLocked(); err != nil {
		// Roll back so memory and disk stay consistent.
		if added {
			entry.RemoveVolunteer(userID)
		} else {
			entry.AddVolunteer(userID)
		}
		return nil, false, err
	}

	log.Printf("Toggled volunteer: session=%s course=%s user=%s added=%t", key, courseKey, userID, added)
	return session.Clone(), added, nil
}

// Reattach invokes bind once per stored session with a non-empty course
// registry, in key order, so interactive controls can be re-registered
// against previously posted announcements without fetching them. Calling
// Reattach twice is a no-op.
func (s *Store) Reattach(bind func(key string, courses *types.CourseRegistry)) {
	s.mu.Lock()
	if s.reattached {
		s.mu.Unlock()
		return
	}
	s.reattached = true

	keys := make([]string, 0, len(s.sessions))
	for key := range s.sessions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	type bound struct {
		key     string
		courses *types.CourseRegistry
	}
	var targets []bound
	for _, key := range keys {
		session := s.sessions[key]
		if session.Courses.Len() == 0 {
			continue
		}
		targets = append(targets, bound{key: key, courses: session.Courses.Clone()})
	}
	s.mu.Unlock()

	for _, t := range targets {
		bind(t.key, t.courses)
	}
	log.Printf("Reattached controls for %d sessions", len(targets))
}

// List returns snapshots of all sessions ordered by key.
func (s *Store) List() []*types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.sessions))
	for key := range s.sessions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	sessions := make([]*types.Session, 0, len(keys))
	for _, key := range keys {
		sessions = append(sessions, s.sessions[key].Clone())
	}
	return sessions
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
