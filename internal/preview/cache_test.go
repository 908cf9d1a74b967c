package preview

import (
	"errors"
	"testing"
	"time"

	"studytables/pkg/interfaces"
)

const validCourses = "MATH-101 | Prof: A. Lee\nHW1\nQuiz1"

func TestCache_StageAndGet(t *testing.T) {
	cache := NewCache(0)

	draft, err := cache.Stage("owner", "announcement", validCourses)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if draft.Token == "" {
		t.Error("draft token is empty")
	}
	if draft.Courses.Len() != 1 {
		t.Errorf("draft courses = %d, want 1", draft.Courses.Len())
	}

	got, err := cache.Get(draft.Token, "owner")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Announcement != "announcement" {
		t.Errorf("Announcement = %q", got.Announcement)
	}
}

func TestCache_StageRejectsEmptyParse(t *testing.T) {
	cache := NewCache(0)

	for _, raw := range []string{"", "   \n  ", "| bad header only"} {
		_, err := cache.Stage("owner", "announcement", raw)
		if !errors.Is(err, interfaces.ErrEmptyCourseList) {
			t.Errorf("Stage(%q) error = %v, want ErrEmptyCourseList", raw, err)
		}
	}
	if cache.Len() != 0 {
		t.Errorf("failed stages left drafts behind: %d", cache.Len())
	}
}

func TestCache_GetUnknownToken(t *testing.T) {
	cache := NewCache(0)
	if _, err := cache.Get("nope", "owner"); !errors.Is(err, interfaces.ErrPreviewNotFound) {
		t.Errorf("error = %v, want ErrPreviewNotFound", err)
	}
}

func TestCache_GetWrongOwner(t *testing.T) {
	cache := NewCache(0)
	draft, err := cache.Stage("owner", "a", validCourses)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	if _, err := cache.Get(draft.Token, "intruder"); !errors.Is(err, interfaces.ErrNotAuthorized) {
		t.Errorf("error = %v, want ErrNotAuthorized", err)
	}

	// The owner can still act on it.
	if _, err := cache.Get(draft.Token, "owner"); err != nil {
		t.Errorf("owner Get failed after intruder attempt: %v", err)
	}
}

func TestCache_ExpiryIsWallClockAtAccess(t *testing.T) {
	cache := NewCache(600 * time.Second)
	base := time.Now()
	cache.now = func() time.Time { return base }

	draft, err := cache.Stage("owner", "a", validCourses)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	cache.now = func() time.Time { return base.Add(599 * time.Second) }
	if _, err := cache.Get(draft.Token, "owner"); err != nil {
		t.Errorf("Get inside TTL failed: %v", err)
	}

	cache.now = func() time.Time { return base.Add(601 * time.Second) }
	if _, err := cache.Get(draft.Token, "owner"); !errors.Is(err, interfaces.ErrPreviewExpired) {
		t.Errorf("error = %v, want ErrPreviewExpired", err)
	}

	// Expired drafts are removed on access.
	if cache.Len() != 0 {
		t.Errorf("expired draft not removed; Len() = %d", cache.Len())
	}
}

func TestCache_Discard(t *testing.T) {
	cache := NewCache(0)
	draft, err := cache.Stage("owner", "a", validCourses)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	cache.Discard(draft.Token)
	if _, err := cache.Get(draft.Token, "owner"); !errors.Is(err, interfaces.ErrPreviewNotFound) {
		t.Errorf("error after discard = %v, want ErrPreviewNotFound", err)
	}

	// Discarding again is a no-op.
	cache.Discard(draft.Token)
}
