package chat

import (
	"sort"

	"parlor/internal/app/user"
)

// DefaultRoom is the public room every new connection joins automatically.
const DefaultRoom = "General"

// SeedRooms are the public rooms pre-populated from persisted history at
// startup. Public rooms are durable: they are created lazily on first join
// and never evicted.
var SeedRooms = []string{"General", "Gaming", "Music", "Sports", "Computer Science"}

// Room is a named public chat channel. Its connection set and member map
// are kept in lock-step: every connection corresponds to exactly one member
// entry, keyed by the owning user's name. Not safe for concurrent use;
// callers hold the owning Service lock.
type Room struct {
	ID      string
	conns   map[Conn]struct{}
	members map[string]*OnlineUser
	history History
}

func newRoom(id string) *Room {
	return &Room{
		ID:      id,
		conns:   make(map[Conn]struct{}),
		members: make(map[string]*OnlineUser),
	}
}

// Add inserts the online user's connection and member entry together.
func (r *Room) Add(u *OnlineUser) {
	r.conns[u.Conn] = struct{}{}
	r.members[u.Profile.Username] = u
}

// Remove deletes the connection from the room. The member entry is removed
// only when it still belongs to this connection, so a stale disconnect from
// a superseded session cannot evict a rejoined user.
func (r *Room) Remove(conn Conn, username string) {
	delete(r.conns, conn)
	if m, ok := r.members[username]; ok && m.Conn == conn {
		delete(r.members, username)
	}
}

// Has reports whether the connection is attached to the room.
func (r *Room) Has(conn Conn) bool {
	_, ok := r.conns[conn]
	return ok
}

// MemberViews returns the public views of the room's members, ordered by
// username.
func (r *Room) MemberViews() []user.View {
	views := make([]user.View, 0, len(r.members))
	for _, m := range r.members {
		views = append(views, m.View())
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Username < views[j].Username })
	return views
}

// ConnCount reports the number of attached connections.
func (r *Room) ConnCount() int {
	return len(r.conns)
}
