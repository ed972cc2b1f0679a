package chat

import (
	"parlor/internal/app/user"

	"parlor/internal/pkg/errs"
)

// Outbound event type tags. Every payload sent to a client is a tagged
// object carrying one of these in its "type" field.
const (
	EventMessage        = "message"
	EventTyping         = "typing"
	EventBlocked        = "blocked"
	EventJoinRoom       = "joinRoom"
	EventRoomUsers      = "roomUsers"
	EventUsersOnline    = "usersOnline"
	EventMessageHistory = "messageHistory"
	EventDMTab          = "dmTab"
	EventProfile        = "profile"
	EventLoggedOut      = "loggedOut"
)

// TypingEvent tells room members that a user started or stopped typing.
type TypingEvent struct {
	Type   string    `json:"type"`
	Typing bool      `json:"typing"`
	User   user.View `json:"user"`
}

// BlockedEvent rejects an action. It is only ever sent to the offending
// connection; the connection stays open unless explicitly closed.
type BlockedEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// JoinRoomEvent acknowledges that a room was entered.
type JoinRoomEvent struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

// RoomUsersEvent carries the member list of a single room.
type RoomUsersEvent struct {
	Type      string      `json:"type"`
	RoomUsers []user.View `json:"roomUsers"`
}

// UsersOnlineEvent carries the global online-user list. It is broadcast to
// every connection whenever the online set changes.
type UsersOnlineEvent struct {
	Type        string      `json:"type"`
	UsersOnline []user.View `json:"usersOnline"`
}

// MessageHistoryEvent carries a room's buffered messages, most recent first.
type MessageHistoryEvent struct {
	Type           string    `json:"type"`
	MessageHistory []Message `json:"messageHistory"`
}

// DMTabEvent tells a DM participant's client to surface the DM tab. The
// Sender field carries the other participant's view.
type DMTabEvent struct {
	Type   string    `json:"type"`
	Sender user.View `json:"sender"`
	Room   string    `json:"room"`
}

// ProfileEvent pushes a user's own profile back to their connection.
type ProfileEvent struct {
	Type    string    `json:"type"`
	Profile user.View `json:"profile"`
}

// LoggedOutEvent confirms a logout before the connection is closed.
type LoggedOutEvent struct {
	Type string `json:"type"`
}

func newTypingEvent(typing bool, v user.View) TypingEvent {
	return TypingEvent{Type: EventTyping, Typing: typing, User: v}
}

func newBlockedEvent(err *errs.CustomError) BlockedEvent {
	return BlockedEvent{Type: EventBlocked, Message: err.Message}
}

func newJoinRoomEvent(room string) JoinRoomEvent {
	return JoinRoomEvent{Type: EventJoinRoom, Room: room}
}

func newRoomUsersEvent(views []user.View) RoomUsersEvent {
	return RoomUsersEvent{Type: EventRoomUsers, RoomUsers: views}
}

func newUsersOnlineEvent(views []user.View) UsersOnlineEvent {
	return UsersOnlineEvent{Type: EventUsersOnline, UsersOnline: views}
}

func newMessageHistoryEvent(msgs []Message) MessageHistoryEvent {
	return MessageHistoryEvent{Type: EventMessageHistory, MessageHistory: msgs}
}

func newDMTabEvent(other user.View, room string) DMTabEvent {
	return DMTabEvent{Type: EventDMTab, Sender: other, Room: room}
}

func newProfileEvent(v user.View) ProfileEvent {
	return ProfileEvent{Type: EventProfile, Profile: v}
}

func newLoggedOutEvent() LoggedOutEvent {
	return LoggedOutEvent{Type: EventLoggedOut}
}
