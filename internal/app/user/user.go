/*
Package user contains core data structures related to user identity.

It defines the full Profile carried by an authenticated connection and the
public-safe View that is embedded in WebSocket payloads sent to clients.
*/
package user

const (
	// MinAvatar and MaxAvatar bound the avatar index a profile may carry.
	MinAvatar = 0
	MaxAvatar = 13

	// MaxBioRunes is the maximum length of a profile bio in runes.
	MaxBioRunes = 900
)

// Profile is the authenticated identity of a chat participant, as supplied
// by the authentication layer. It is never serialized to clients directly.
type Profile struct {

	// Identity is the opaque stable identifier: a registered user's database
	// ID, or a generated guest ID for guest sessions.
	Identity string

	// Username is the unique display name (1-16 chars).
	Username string

	// Avatar is the avatar index in [MinAvatar, MaxAvatar].
	Avatar int

	// Bio is a short free-form description (<= MaxBioRunes runes).
	Bio string

	// Guest marks sessions whose identity is not backed by a database row.
	Guest bool
}

// View is the public-safe projection of a Profile. Every outbound payload
// that mentions a user embeds a View; it never carries the connection
// handle or any credential.
type View struct {
	Username string `json:"username"`
	Avatar   int    `json:"avatar"`
	Bio      string `json:"bio"`
}

// View returns the public-safe projection of the profile.
func (p Profile) View() View {
	return View{
		Username: p.Username,
		Avatar:   p.Avatar,
		Bio:      p.Bio,
	}
}
