package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the JSON Web Token claims issued by the
// authentication layer. It carries the full profile of the participant so a
// guest session can be reconstructed without any database row.
type Payload struct {
	// StandardClaims embeds the necessary JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These are crucial for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the unified identifier for the participant: a registered user's
	// database ID, or a generated guest ID.
	ID string `json:"id"`

	// Username is the unique display name bound to the session.
	Username string `json:"username"`

	// Avatar is the avatar index captured at issue time.
	Avatar int `json:"avatar"`

	// Bio is the profile bio captured at issue time.
	Bio string `json:"bio"`

	// Guest marks tokens for sessions without a database-backed identity.
	Guest bool `json:"guest"`
}
