package chat

import (
	"time"
)

// DMRoom is an ephemeral private channel between exactly two participants.
// Sender and Receiver are online-user snapshots captured at creation time;
// they are re-resolved against the presence directory before every DM
// fanout because either participant may have reconnected on a new socket.
type DMRoom struct {
	Room

	Sender   *OnlineUser
	Receiver *OnlineUser

	createdAt time.Time
}

// DMRoomID derives the canonical id for a DM between two usernames. The id
// is order-independent: both participants resolve to the same room no
// matter who initiates.
func DMRoomID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + " & " + b
}

func newDMRoom(id string, sender, receiver *OnlineUser, now time.Time) *DMRoom {
	return &DMRoom{
		Room:      *newRoom(id),
		Sender:    sender,
		Receiver:  receiver,
		createdAt: now,
	}
}

// Allows reports whether the username is one of the two participants. This
// is the authorization boundary that keeps an unrelated user from joining a
// private room by guessing its id.
func (d *DMRoom) Allows(username string) bool {
	return d.Sender.Profile.Username == username || d.Receiver.Profile.Username == username
}

// Other returns the participant that is not the given username.
func (d *DMRoom) Other(username string) *OnlineUser {
	if d.Sender.Profile.Username == username {
		return d.Receiver
	}
	return d.Sender
}

// RefreshParticipants re-points the cached sender/receiver snapshots at the
// presence directory's live entries. Run opportunistically whenever fewer
// than two sockets are attached, so a reconnected participant's new socket
// receives DM traffic.
func (d *DMRoom) RefreshParticipants(p *Presence) {
	if len(d.conns) >= 2 {
		return
	}
	if live, ok := p.Lookup(d.Sender.Profile.Username); ok {
		d.Sender = live
	}
	if live, ok := p.Lookup(d.Receiver.Profile.Username); ok {
		d.Receiver = live
	}
}

// IdleSince reports the last-activity timestamp used by the idle sweeper:
// the newest message's date, or the room's creation time when no message
// was ever sent.
func (d *DMRoom) IdleSince() time.Time {
	return d.history.LastActivity(d.createdAt)
}
