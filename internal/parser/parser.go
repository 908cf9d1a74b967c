// Package parser turns free-form course text into a normalized course
// registry. Parsing is total: unparsable input yields an empty or partial
// registry, never an error.
package parser

import (
	"regexp"
	"strings"

	"studytables/pkg/types"
)

var (
	// A block header is "<name>" or "<name> | Prof: <professor>".
	headerRegex = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9 \-]*)\s*(?:\|\s*Prof:\s*(.+))?\s*$`)

	// Blocks are maximal runs of non-blank lines.
	blockRegex = regexp.MustCompile(`\n\s*\n`)

	nonAlnumRegex = regexp.MustCompile(`[^A-Z0-9]+`)
)

// Parse splits raw into blank-line-separated blocks and builds a course
// registry from them. At most types.MaxCourses blocks are processed; blocks
// whose first line does not match the header format are discarded silently.
// Course names are upper-cased, trimmed, and whitespace-collapsed to form
// registry keys. Remaining block lines become topics, deduplicated by exact
// string within the course. When the same course appears in multiple
// blocks, topics merge in first-seen order and the first block's professor
// wins; later professors are ignored.
func Parse(raw string) *types.CourseRegistry {
	registry := types.NewCourseRegistry()

	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return registry
	}

	blocks := blockRegex.Split(raw, -1)
	processed := 0
	for _, block := range blocks {
		if strings.TrimSpace(block) == "" {
			continue
		}
		if processed == types.MaxCourses {
			break
		}
		processed++

		var lines []string
		for _, line := range strings.Split(block, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
		if len(lines) == 0 {
			continue
		}

		match := headerRegex.FindStringSubmatch(lines[0])
		if match == nil {
			continue
		}

		key := NormalizeCourseName(match[1])
		professor := strings.TrimSpace(match[2])

		entry, exists := registry.Get(key)
		if !exists {
			entry = types.NewCourseEntry(professor)
			if !registry.Put(key, entry) {
				continue
			}
		}
		for _, topic := range lines[1:] {
			entry.AddTopic(topic)
		}
	}

	return registry
}

// NormalizeCourseName upper-cases, trims, and collapses internal whitespace
// to single spaces, producing the registry key for a course.
func NormalizeCourseName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// Slug builds a stable identifier fragment from a course name: upper-case,
// every run of non-alphanumerics replaced with a single "-", leading and
// trailing "-" trimmed, truncated to 80 characters. Used for control IDs
// bound to a (session, course) pair; it is not the registry key.
func Slug(name string) string {
	s := nonAlnumRegex.ReplaceAllString(strings.ToUpper(name), "-")
	s = strings.Trim(s, "-")
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}
