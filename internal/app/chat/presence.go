package chat

import (
	"sort"

	"parlor/internal/app/user"
)

// OnlineUser pairs a profile with its single active connection. Exactly one
// exists per username at any time; the Presence directory enforces this.
type OnlineUser struct {
	Profile user.Profile
	Conn    Conn
}

// View returns the public-safe projection of the online user.
func (u *OnlineUser) View() user.View {
	return u.Profile.View()
}

// Presence is the authoritative directory of which usernames are currently
// connected. Methods are not safe for concurrent use; callers hold the
// owning Service lock.
type Presence struct {
	users map[string]*OnlineUser
}

// NewPresence returns an empty presence directory.
func NewPresence() *Presence {
	return &Presence{users: make(map[string]*OnlineUser)}
}

// Register binds a profile to its connection, replacing any previous entry
// for the same username. The superseded entry, if any, is returned so the
// caller can close its connection.
func (p *Presence) Register(profile user.Profile, conn Conn) (online *OnlineUser, superseded *OnlineUser) {
	superseded = p.users[profile.Username]
	online = &OnlineUser{Profile: profile, Conn: conn}
	p.users[profile.Username] = online
	return online, superseded
}

// Lookup returns the online entry for a username, if present.
func (p *Presence) Lookup(username string) (*OnlineUser, bool) {
	u, ok := p.users[username]
	return u, ok
}

// Unregister removes the entry for a username, but only when it is still
// bound to the given connection. A stale disconnect from a superseded
// session must not evict the replacement entry.
func (p *Presence) Unregister(username string, conn Conn) bool {
	u, ok := p.users[username]
	if !ok || u.Conn != conn {
		return false
	}
	delete(p.users, username)
	return true
}

// Snapshot returns the public views of every online user, ordered by
// username for stable client rendering.
func (p *Presence) Snapshot() []user.View {
	views := make([]user.View, 0, len(p.users))
	for _, u := range p.users {
		views = append(views, u.View())
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Username < views[j].Username })
	return views
}

// Len reports the number of online users.
func (p *Presence) Len() int {
	return len(p.users)
}
