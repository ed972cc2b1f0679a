package chat

import "encoding/json"

// Inbound action tags. Every client frame is a tagged object carrying one
// of these in its "action" field; unknown tags are rejected.
const (
	ActionSendMessage   = "sendMessage"
	ActionJoinRoom      = "joinRoom"
	ActionCreateDMRoom  = "createDMRoom"
	ActionJoinDMRoom    = "joinDMRoom"
	ActionTyping        = "typing"
	ActionUpdateProfile = "updateProfile"
	ActionLogout        = "logout"
)

// Action is the decoded form of an inbound client frame. Only the fields
// matching the tag are meaningful; the rest stay at their zero value.
type Action struct {
	Action   string        `json:"action"`
	Content  string        `json:"content,omitempty"`
	Room     string        `json:"room,omitempty"`
	Receiver string        `json:"receiver,omitempty"`
	Typing   bool          `json:"typing,omitempty"`
	Profile  *ProfilePatch `json:"profile,omitempty"`
}

// ProfilePatch carries the mutable profile fields of an updateProfile
// action. Pointers distinguish absent fields from zero values.
type ProfilePatch struct {
	Avatar *int    `json:"avatar"`
	Bio    *string `json:"bio"`
}

// decodeAction parses a raw inbound frame into an Action.
func decodeAction(raw []byte) (Action, error) {
	var a Action
	if err := json.Unmarshal(raw, &a); err != nil {
		return Action{}, err
	}
	return a, nil
}
