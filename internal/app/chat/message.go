/*
Package chat contains the presence and room-routing engine: the in-memory
registries that track which connections belong to which rooms, the action
dispatch state machine driven by inbound client frames, and the fanout logic
that delivers events to sets of connections.
*/
package chat

import (
	"time"

	"parlor/internal/app/user"
)

// MaxContentRunes is the maximum length of a chat message in runes.
const MaxContentRunes = 900

// Message is the wire form of a chat message: it embeds a resolved public
// view of the author so clients can render it without a lookup. Messages are
// immutable once created.
type Message struct {
	Type    string    `json:"type"`
	Content string    `json:"content"`
	User    user.View `json:"user"`
	Date    time.Time `json:"date"`
	Guest   bool      `json:"guest"`
}

// NewMessage builds the wire form of a chat message authored by the given
// user at the current time.
func NewMessage(content string, author user.Profile) Message {
	return Message{
		Type:    EventMessage,
		Content: content,
		User:    author.View(),
		Date:    time.Now().UTC(),
		Guest:   author.Guest,
	}
}

// StoredMessage is the persisted form of a chat message. It references the
// author by identity rather than embedding the profile, so history stays
// consistent if the profile later changes. The display name is kept as a
// snapshot for guest authors, whose identity has no database row.
type StoredMessage struct {
	ID         string
	Room       string
	AuthorID   string
	AuthorName string
	Content    string
	Guest      bool
	Date       time.Time
}
