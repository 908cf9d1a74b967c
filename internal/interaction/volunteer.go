package interaction

import (
	"context"
	"errors"
	"fmt"
	"log"

	"studytables/internal/parser"
	"studytables/internal/render"
	"studytables/pkg/interfaces"
	"studytables/pkg/types"
)

// User-facing toggle messages.
const (
	msgSessionLost   = "Sorry, this session data wasn't found."
	msgCourseMissing = "Course not found."
	msgTutorAdded    = "Added you as a tutor for this course."
	msgTutorRemoved  = "Removed you as a tutor from this course."
)

// VolunteerHandler executes the volunteer toggle protocol: resolve the
// pressed control to a (session, course) pair, toggle the pressing user in
// that course's volunteer set, acknowledge privately, and refresh the
// public announcement.
type VolunteerHandler struct {
	store     interfaces.SessionStore
	history   interfaces.ToggleRecorder
	responder interfaces.Responder
	publisher interfaces.Publisher
	resolver  interfaces.NameResolver
}

// NewVolunteerHandler creates the toggle handler. history and resolver may
// be nil (history disabled, names fall back to generic labels).
func NewVolunteerHandler(store interfaces.SessionStore, history interfaces.ToggleRecorder, responder interfaces.Responder, publisher interfaces.Publisher, resolver interfaces.NameResolver) *VolunteerHandler {
	return &VolunteerHandler{
		store:     store,
		history:   history,
		responder: responder,
		publisher: publisher,
		resolver:  resolver,
	}
}

// HandleToggle processes one press of a volunteer control. The toggle is
// persisted before the private acknowledgment goes out; the public
// re-render afterwards is best-effort — if the original announcement is
// gone the display just goes stale, the toggle itself already succeeded.
func (h *VolunteerHandler) HandleToggle(ctx context.Context, event *types.InteractionEvent) error {
	_, sessionKey, courseSlug, ok := parseControlID(event.ControlID)
	if !ok {
		return fmt.Errorf("malformed volunteer control ID %q", event.ControlID)
	}

	session, err := h.store.Get(sessionKey)
	if err != nil {
		if errors.Is(err, interfaces.ErrSessionNotFound) {
			return h.responder.RespondEphemeral(ctx, event.ID, msgSessionLost)
		}
		return err
	}

	courseKey, found := resolveCourseKey(session.Courses, courseSlug)
	if !found {
		// The registry was edited out from under the control.
		return h.responder.RespondEphemeral(ctx, event.ID, msgCourseMissing)
	}

	session, added, err := h.store.ToggleVolunteer(sessionKey, courseKey, event.UserID)
	if err != nil {
		return fmt.Errorf("failed to toggle volunteer: %w", err)
	}

	message := msgTutorRemoved
	if added {
		message = msgTutorAdded
	}
	if err := h.responder.RespondEphemeral(ctx, event.ID, message); err != nil {
		log.Printf("Failed to acknowledge toggle to user %s: %v", event.UserID, err)
	}

	if h.history != nil {
		if err := h.history.RecordToggle(&types.ToggleEvent{
			SessionKey: sessionKey,
			CourseKey:  courseKey,
			UserID:     event.UserID,
			Added:      added,
		}); err != nil {
			log.Printf("Failed to record toggle history: %v", err)
		}
	}

	h.republish(ctx, session)
	return nil
}

// respondStale tells the user the control's backing data is gone. Used for
// presses on controls that survived in the platform UI past a data loss.
func (h *VolunteerHandler) respondStale(ctx context.Context, event *types.InteractionEvent) error {
	return h.responder.RespondEphemeral(ctx, event.ID, msgSessionLost)
}

// republish re-renders the session and edits the original announcement.
// Failures are swallowed: the state is already durable.
func (h *VolunteerHandler) republish(ctx context.Context, session *types.Session) {
	payload := render.Render(session.Announcement, session.Courses, h.nameResolver(session.GuildID))
	controls := SessionControls(session.Key, session.Courses)
	if err := h.publisher.EditMessage(ctx, session.ChannelID, session.Key, payload, controls); err != nil {
		log.Printf("Failed to refresh announcement %s: %v", session.Key, err)
	}
}

// nameResolver adapts the guild-aware resolver to the renderer's shape.
func (h *VolunteerHandler) nameResolver(guildID string) render.NameResolver {
	if h.resolver == nil {
		return nil
	}
	return func(userID string) (string, bool) {
		return h.resolver.ResolveName(guildID, userID)
	}
}

// resolveCourseKey finds the registry key whose slug matches courseSlug.
func resolveCourseKey(courses *types.CourseRegistry, courseSlug string) (string, bool) {
	for _, key := range courses.Keys() {
		if parser.Slug(key) == courseSlug {
			return key, true
		}
	}
	return "", false
}
