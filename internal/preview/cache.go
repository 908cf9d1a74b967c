// Package preview holds parsed-but-unposted announcements while their owner
// decides to post, edit, or cancel. Drafts are in-memory only: a restart
// drops them, which is acceptable pre-commit scratch state.
package preview

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"studytables/internal/parser"
	"studytables/pkg/interfaces"
	"studytables/pkg/types"
)

// DefaultTTL is how long a staged draft stays actionable.
const DefaultTTL = 600 * time.Second

// Cache is an owner-scoped staging area for preview drafts. Expiry is a
// wall-clock comparison at access time; there is no background timer.
type Cache struct {
	mu     sync.Mutex
	ttl    time.Duration
	drafts map[string]*types.PreviewDraft
	now    func() time.Time
}

// NewCache creates a cache with the given draft TTL. A non-positive ttl
// falls back to DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:    ttl,
		drafts: make(map[string]*types.PreviewDraft),
		now:    time.Now,
	}
}

// Stage parses rawCourses and stores a draft for ownerID, returning the
// draft with its opaque token. Fails with ErrEmptyCourseList when no valid
// course blocks parse, so the caller can ask the user to correct the input.
func (c *Cache) Stage(ownerID, announcement, rawCourses string) (*types.PreviewDraft, error) {
	courses := parser.Parse(rawCourses)
	if courses.Len() == 0 {
		return nil, interfaces.ErrEmptyCourseList
	}

	draft := &types.PreviewDraft{
		Token:        uuid.New().String(),
		OwnerID:      ownerID,
		Announcement: announcement,
		Courses:      courses,
		RawCourses:   rawCourses,
		CreatedAt:    c.now(),
	}

	c.mu.Lock()
	c.drafts[draft.Token] = draft
	c.mu.Unlock()

	log.Printf("Staged preview draft: token=%s owner=%s courses=%d", draft.Token, ownerID, courses.Len())
	return draft, nil
}

// Get returns the draft for token if it exists, has not expired, and
// belongs to userID. Expired drafts are removed on access.
func (c *Cache) Get(token, userID string) (*types.PreviewDraft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	draft, exists := c.drafts[token]
	if !exists {
		return nil, interfaces.ErrPreviewNotFound
	}
	if c.now().Sub(draft.CreatedAt) > c.ttl {
		delete(c.drafts, token)
		return nil, interfaces.ErrPreviewExpired
	}
	if draft.OwnerID != userID {
		return nil, interfaces.ErrNotAuthorized
	}
	return draft, nil
}

// Discard removes a draft. Discarding an unknown token is a no-op.
func (c *Cache) Discard(token string) {
	c.mu.Lock()
	delete(c.drafts, token)
	c.mu.Unlock()
}

// Len returns the number of outstanding drafts, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.drafts)
}
