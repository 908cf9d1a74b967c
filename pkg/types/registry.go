package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CourseRegistry is an ordered mapping from normalized course name to
// CourseEntry. Insertion order is preserved and defines render order, so the
// registry carries its own JSON encoding: a plain Go map would lose order on
// a state-file round trip.
type CourseRegistry struct {
	order   []string
	entries map[string]*CourseEntry
}

// NewCourseRegistry returns an empty registry.
func NewCourseRegistry() *CourseRegistry {
	return &CourseRegistry{
		entries: make(map[string]*CourseEntry),
	}
}

// Len returns the number of courses.
func (r *CourseRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Get returns the entry for key, if present.
func (r *CourseRegistry) Get(key string) (*CourseEntry, bool) {
	if r == nil {
		return nil, false
	}
	e, ok := r.entries[key]
	return e, ok
}

// Put inserts a new entry or replaces an existing one in place. A new key
// beyond MaxCourses is rejected; returns false in that case.
func (r *CourseRegistry) Put(key string, entry *CourseEntry) bool {
	if _, exists := r.entries[key]; !exists {
		if len(r.order) >= MaxCourses {
			return false
		}
		r.order = append(r.order, key)
	}
	r.entries[key] = entry
	return true
}

// Keys returns the course keys in insertion order.
func (r *CourseRegistry) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, len(r.order))
	copy(keys, r.order)
	return keys
}

// Clone returns a deep copy of the registry.
func (r *CourseRegistry) Clone() *CourseRegistry {
	c := NewCourseRegistry()
	if r == nil {
		return c
	}
	for _, key := range r.order {
		c.Put(key, r.entries[key].Clone())
	}
	return c
}

// MarshalJSON encodes the registry as a JSON object in insertion order.
func (r *CourseRegistry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		entryJSON, err := json.Marshal(r.entries[key])
		if err != nil {
			return nil, err
		}
		buf.Write(entryJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order as it appears
// in the document.
func (r *CourseRegistry) UnmarshalJSON(data []byte) error {
	r.order = nil
	r.entries = make(map[string]*CourseEntry)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("course registry: expected JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("course registry: expected string key, got %v", tok)
		}
		entry := &CourseEntry{}
		if err := dec.Decode(entry); err != nil {
			return fmt.Errorf("course registry: entry %q: %w", key, err)
		}
		entry.normalize()
		if _, exists := r.entries[key]; !exists {
			r.order = append(r.order, key)
		}
		r.entries[key] = entry
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
