package gateway

import "studytables/pkg/types"

// Frame operations on the platform gateway socket. Inbound frames carry
// "dispatch" (an interaction event) or "result" (the response to a nonce'd
// request); everything else is outbound.
const (
	opDispatch = "dispatch"
	opResult   = "result"

	opIdentify = "identify"
	opPublish  = "publish"
	opEdit     = "edit"
	opReply    = "reply"
	opModal    = "modal"
	opRegister = "register_commands"
)

// commandSpec describes one application command to register. GuildID
// scopes registration to a single guild; empty registers globally.
type commandSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	GuildID     string `json:"guild_id,omitempty"`
}

// frame is the wire format for both directions of the gateway socket.
// Fields are populated per op; unused fields are omitted.
type frame struct {
	Op            string                  `json:"op"`
	Nonce         string                  `json:"nonce,omitempty"`
	Token         string                  `json:"token,omitempty"`
	Event         *types.InteractionEvent `json:"event,omitempty"`
	InteractionID string                  `json:"interaction_id,omitempty"`
	ChannelID     string                  `json:"channel_id,omitempty"`
	MessageID     string                  `json:"message_id,omitempty"`
	Content       string                  `json:"content,omitempty"`
	Ephemeral     bool                    `json:"ephemeral,omitempty"`
	Payload       *types.DisplayPayload   `json:"payload,omitempty"`
	Controls      []types.Control         `json:"controls,omitempty"`
	Modal         *types.ModalPrompt      `json:"modal,omitempty"`
	Commands      []commandSpec           `json:"commands,omitempty"`
	Error         string                  `json:"error,omitempty"`
}
