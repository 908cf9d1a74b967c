package interaction

import (
	"fmt"
	"strings"

	"studytables/internal/parser"
	"studytables/pkg/types"
)

// Control ID prefixes. Volunteer control IDs embed only durable values
// (session key, course slug) so identical controls can be reconstructed
// after a restart without consulting the original message.
const (
	volunteerPrefix = "tt"
	previewPrefix   = "pv"
)

// Preview control actions.
const (
	previewActionPost   = "post"
	previewActionEdit   = "edit"
	previewActionCancel = "cancel"
)

// VolunteerControlID builds the control identifier for a (session, course)
// pair: "tt;<sessionKey>;<courseSlug>".
func VolunteerControlID(sessionKey, courseKey string) string {
	return fmt.Sprintf("%s;%s;%s", volunteerPrefix, sessionKey, parser.Slug(courseKey))
}

// previewControlID builds "pv;<token>;<action>".
func previewControlID(token, action string) string {
	return fmt.Sprintf("%s;%s;%s", previewPrefix, token, action)
}

// parseControlID splits a control ID into its prefix and two fields.
func parseControlID(controlID string) (prefix, a, b string, ok bool) {
	parts := strings.SplitN(controlID, ";", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// SessionControls builds the volunteer toggle controls for a session's
// courses, in registry order.
func SessionControls(sessionKey string, courses *types.CourseRegistry) []types.Control {
	var controls []types.Control
	for _, key := range courses.Keys() {
		entry, _ := courses.Get(key)
		label := key
		if entry.Professor != "" {
			label = fmt.Sprintf("%s (%s)", key, entry.Professor)
		}
		controls = append(controls, types.Control{
			ID:    VolunteerControlID(sessionKey, key),
			Label: label,
			Style: types.ControlStylePrimary,
		})
	}
	return controls
}

// previewControls builds the Post / Edit / Cancel controls for a draft.
func previewControls(token string) []types.Control {
	return []types.Control{
		{ID: previewControlID(token, previewActionPost), Label: "Post", Style: types.ControlStyleSuccess},
		{ID: previewControlID(token, previewActionEdit), Label: "Edit", Style: types.ControlStyleSecondary},
		{ID: previewControlID(token, previewActionCancel), Label: "Cancel", Style: types.ControlStyleDanger},
	}
}
