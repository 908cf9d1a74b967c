// Package render maps session state to a platform-independent display
// payload. Rendering is pure: identical input produces identical output.
package render

import (
	"fmt"
	"strings"

	"studytables/pkg/types"
)

// Title shown on every rendered announcement.
const Title = "Study Tables Preparation"

const (
	heavySeparator = "=============================="
	lightSeparator = "------------------------------"

	noTopicsPlaceholder = "_(no specific topics requested)_"
	noTutorsPlaceholder = "—"
)

// NameResolver maps a volunteer user ID to a display name. ok=false falls
// back to a generic "User <id>" label.
type NameResolver func(userID string) (name string, ok bool)

// Render builds the display payload for an announcement: the announcement
// text, then one section per course in registry order with its topics and
// current tutors. The heavy separator frames the first and last sections;
// interior sections end with the light one.
func Render(announcement string, courses *types.CourseRegistry, resolve NameResolver) *types.DisplayPayload {
	payload := &types.DisplayPayload{
		Title: Title,
		Body:  strings.TrimSpace(announcement) + "\n\n" + heavySeparator,
	}

	keys := courses.Keys()
	for i, key := range keys {
		entry, _ := courses.Get(key)

		name := key
		if entry.Professor != "" {
			name = fmt.Sprintf("%s — %s", key, entry.Professor)
		}

		var value strings.Builder
		value.WriteString(topicList(entry.Topics))
		value.WriteString("\n\n**Tutors:**\n")
		value.WriteString(tutorList(entry.Volunteers, resolve))
		value.WriteString("\n\n")
		if i == len(keys)-1 {
			value.WriteString(heavySeparator)
		} else {
			value.WriteString(lightSeparator)
		}

		payload.Sections = append(payload.Sections, types.DisplaySection{
			Name:  name,
			Value: value.String(),
		})
	}

	return payload
}

func topicList(topics []string) string {
	if len(topics) == 0 {
		return noTopicsPlaceholder
	}
	bullets := make([]string, len(topics))
	for i, topic := range topics {
		bullets[i] = "• " + topic
	}
	return strings.Join(bullets, "\n")
}

func tutorList(volunteers []string, resolve NameResolver) string {
	if len(volunteers) == 0 {
		return noTutorsPlaceholder
	}
	names := make([]string, len(volunteers))
	for i, userID := range volunteers {
		if resolve != nil {
			if name, ok := resolve(userID); ok {
				names[i] = name
				continue
			}
		}
		names[i] = fmt.Sprintf("User %s", userID)
	}
	return strings.Join(names, "\n")
}
