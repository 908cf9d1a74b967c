package interfaces

import (
	"context"

	"studytables/pkg/types"
)

// Responder delivers private feedback to the actor of one interaction.
// All user-facing failures in the core surface through these methods as
// plain-language messages visible only to the triggering user.
type Responder interface {
	// RespondEphemeral sends a private text reply to the interaction.
	RespondEphemeral(ctx context.Context, interactionID, content string) error

	// RespondEphemeralPayload sends a private reply carrying a rendered
	// payload and optional controls (the preview flow).
	RespondEphemeralPayload(ctx context.Context, interactionID, content string, payload *types.DisplayPayload, controls []types.Control) error

	// OpenModal shows a form to the interacting user.
	OpenModal(ctx context.Context, interactionID string, modal *types.ModalPrompt) error
}

// Publisher posts and edits public announcement messages. PublishMessage
// returns the platform-assigned message identifier, which becomes the
// session key.
type Publisher interface {
	PublishMessage(ctx context.Context, channelID string, payload *types.DisplayPayload, controls []types.Control) (messageID string, err error)
	EditMessage(ctx context.Context, channelID, messageID string, payload *types.DisplayPayload, controls []types.Control) error
}

// NameResolver maps a user ID to a human-readable display name within a
// guild. ok=false means the member could not be resolved and the caller
// should fall back to a generic label.
type NameResolver interface {
	ResolveName(guildID, userID string) (name string, ok bool)
}
