package interaction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"studytables/internal/preview"
	"studytables/internal/render"
	"studytables/pkg/interfaces"
	"studytables/pkg/types"
)

// Modal field keys and limits.
const (
	fieldAnnouncement = "announcement"
	fieldCourses      = "courses"

	maxAnnouncementLen = 500
	maxCoursesLen      = 3500
)

const defaultAnnouncement = "Study Tables will be held on {date} at {place}.\n\n" +
	"Brothers need help with the courses listed below.\n" +
	"If you are able to tutor during Study Tables, please click the corresponding toggle button.\n\n" +
	"If you requested help, find a brother that is listed as a tutor for your course during Study Tables."

const defaultCourses = "MECH-241 | Prof: Dr. Smith\nAssignment 1\nQuiz 2\n\nCHEM-132\nReaction rates"

// User-facing setup messages.
const (
	msgParseFailed    = "I couldn't parse any courses. Make sure each block starts with `COURSE | Prof: NAME` (prof optional)."
	msgPreviewHeader  = "**Preview (only you can see this):**"
	msgPreviewGone    = "This preview isn't yours or expired."
	msgPreviewCancel  = "Canceled preview."
	msgPostFailed     = "Posting failed, please try again."
	msgPostSaveFailed = "The announcement was posted but its session could not be saved; toggles on it will not work."
)

// SetupHandler runs the announcement setup flow: open the setup modal,
// stage a preview draft from the submission, and act on the preview's
// Post / Edit / Cancel controls.
type SetupHandler struct {
	previews  *preview.Cache
	store     interfaces.SessionStore
	binder    interfaces.ControlBinder
	responder interfaces.Responder
	publisher interfaces.Publisher
}

// NewSetupHandler creates the setup flow handler.
func NewSetupHandler(previews *preview.Cache, store interfaces.SessionStore, binder interfaces.ControlBinder, responder interfaces.Responder, publisher interfaces.Publisher) *SetupHandler {
	return &SetupHandler{
		previews:  previews,
		store:     store,
		binder:    binder,
		responder: responder,
		publisher: publisher,
	}
}

// OpenSetup responds to the setup command with the announcement modal.
func (h *SetupHandler) OpenSetup(ctx context.Context, event *types.InteractionEvent) error {
	return h.responder.OpenModal(ctx, event.ID, setupModal("", ""))
}

// HandleSubmit stages a preview from a modal submission and shows it to
// the submitting user with Post / Edit / Cancel controls.
func (h *SetupHandler) HandleSubmit(ctx context.Context, event *types.InteractionEvent) error {
	announcement := strings.TrimSpace(event.Fields[fieldAnnouncement])
	rawCourses := strings.TrimSpace(event.Fields[fieldCourses])

	draft, err := h.previews.Stage(event.UserID, announcement, rawCourses)
	if err != nil {
		if errors.Is(err, interfaces.ErrEmptyCourseList) {
			return h.responder.RespondEphemeral(ctx, event.ID, msgParseFailed)
		}
		return err
	}

	payload := render.Render(draft.Announcement, draft.Courses, nil)
	return h.responder.RespondEphemeralPayload(ctx, event.ID, msgPreviewHeader, payload, previewControls(draft.Token))
}

// HandlePreviewControl routes a press on one of a draft's controls. Only
// the draft's owner may act on it; everyone else (and anyone pressing past
// the expiry window) gets the same private refusal.
func (h *SetupHandler) HandlePreviewControl(ctx context.Context, event *types.InteractionEvent) error {
	_, token, action, ok := parseControlID(event.ControlID)
	if !ok {
		return fmt.Errorf("malformed preview control ID %q", event.ControlID)
	}

	if action == previewActionCancel {
		h.previews.Discard(token)
		return h.responder.RespondEphemeral(ctx, event.ID, msgPreviewCancel)
	}

	draft, err := h.previews.Get(token, event.UserID)
	if err != nil {
		if errors.Is(err, interfaces.ErrPreviewNotFound) ||
			errors.Is(err, interfaces.ErrPreviewExpired) ||
			errors.Is(err, interfaces.ErrNotAuthorized) {
			return h.responder.RespondEphemeral(ctx, event.ID, msgPreviewGone)
		}
		return err
	}

	switch action {
	case previewActionPost:
		return h.post(ctx, event, draft)
	case previewActionEdit:
		return h.responder.OpenModal(ctx, event.ID, setupModal(draft.Announcement, draft.RawCourses))
	default:
		return fmt.Errorf("unknown preview action %q", action)
	}
}

// post publishes the draft publicly, promotes it into the session store
// keyed by the new message's ID, attaches the volunteer controls, and
// discards the draft.
func (h *SetupHandler) post(ctx context.Context, event *types.InteractionEvent, draft *types.PreviewDraft) error {
	payload := render.Render(draft.Announcement, draft.Courses, nil)

	messageID, err := h.publisher.PublishMessage(ctx, event.ChannelID, payload, nil)
	if err != nil {
		if respondErr := h.responder.RespondEphemeral(ctx, event.ID, msgPostFailed); respondErr != nil {
			log.Printf("Failed to report post failure to user %s: %v", event.UserID, respondErr)
		}
		return fmt.Errorf("failed to publish announcement: %w", err)
	}

	session, err := h.store.Create(messageID, event.ChannelID, event.GuildID, draft.Announcement, draft.Courses)
	if err != nil {
		if respondErr := h.responder.RespondEphemeral(ctx, event.ID, msgPostSaveFailed); respondErr != nil {
			log.Printf("Failed to report save failure to user %s: %v", event.UserID, respondErr)
		}
		return fmt.Errorf("failed to create session %s: %w", messageID, err)
	}

	h.binder.BindSessionControls(session.Key, session.Courses)

	// Attach the volunteer controls to the posted message. The session is
	// already durable; a failure here only leaves the message buttonless
	// until the next re-render.
	controls := SessionControls(session.Key, session.Courses)
	if err := h.publisher.EditMessage(ctx, session.ChannelID, session.Key, payload, controls); err != nil {
		log.Printf("Failed to attach controls to announcement %s: %v", session.Key, err)
	}

	if err := h.responder.RespondEphemeral(ctx, event.ID, fmt.Sprintf("Posted! Message ID: %s", session.Key)); err != nil {
		log.Printf("Failed to acknowledge post to user %s: %v", event.UserID, err)
	}

	h.previews.Discard(draft.Token)
	return nil
}

// setupModal builds the setup form, pre-filled when re-opened from a
// draft's Edit control.
func setupModal(announcement, rawCourses string) *types.ModalPrompt {
	announcement = strings.TrimSpace(announcement)
	if len(announcement) > maxAnnouncementLen {
		announcement = announcement[:maxAnnouncementLen]
	}
	if announcement == "" {
		announcement = defaultAnnouncement
	}

	rawCourses = strings.TrimSpace(rawCourses)
	if len(rawCourses) > maxCoursesLen {
		rawCourses = rawCourses[:maxCoursesLen]
	}
	if rawCourses == "" {
		rawCourses = defaultCourses
	}

	return &types.ModalPrompt{
		Title: "Study Tables Setup",
		Fields: []types.ModalField{
			{
				Key:       fieldAnnouncement,
				Label:     "Study Tables Announcement",
				Default:   announcement,
				Paragraph: true,
				Required:  true,
				MaxLength: maxAnnouncementLen,
			},
			{
				Key:       fieldCourses,
				Label:     "Courses (MUST FOLLOW THIS EXACT FORMAT)",
				Default:   rawCourses,
				Paragraph: true,
				Required:  true,
				MaxLength: maxCoursesLen,
			},
		},
	}
}
