/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Chat and Content Business Logic Errors
const (
	// ErrActionInvalid indicates a malformed or unsupported client action frame.
	ErrActionInvalid = 2001

	// ErrMessageEmpty indicates a message with no content.
	ErrMessageEmpty = 2101

	// ErrMessageTooLong indicates message content exceeding the maximum length.
	ErrMessageTooLong = 2102

	// ErrRoomNameInvalid indicates a missing or oversized public room name.
	ErrRoomNameInvalid = 2103

	// ErrDMSelf indicates an attempt to open a DM room with oneself.
	ErrDMSelf = 2201

	// ErrDMRoomNotFound indicates a DM room id that does not resolve to a live room.
	ErrDMRoomNotFound = 2202

	// ErrDMAccessDenied indicates a DM join by a user who is neither participant.
	ErrDMAccessDenied = 2203

	// ErrProfileInvalid indicates an updateProfile action without a profile body.
	ErrProfileInvalid = 2301

	// ErrAvatarInvalid indicates an avatar index outside the allowed range.
	ErrAvatarInvalid = 2302

	// ErrBioInvalid indicates a bio that is not a string of acceptable length.
	ErrBioInvalid = 2303
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrNotLoggedIn indicates a connection that carries no valid session.
	ErrNotLoggedIn = 3001

	// ErrSessionSuperseded indicates the connection was replaced by a newer one.
	ErrSessionSuperseded = 3002

	// ErrInvalidUsername indicates a username failing format validation.
	ErrInvalidUsername = 3101

	// ErrInvalidPassword indicates a password failing length validation.
	ErrInvalidPassword = 3102

	// ErrUserAlreadyExists indicates a registration conflict on username.
	ErrUserAlreadyExists = 3103

	// ErrInvalidCredentials indicates a failed username/password check.
	ErrInvalidCredentials = 3104

	// ErrUserNotFound indicates a lookup of a non-existent account.
	ErrUserNotFound = 3105

	// ErrAlreadyLoggedIn indicates an auth request from an authenticated client.
	ErrAlreadyLoggedIn = 3106

	// ErrUnauthorized indicates a request that requires authentication.
	ErrUnauthorized = 3107

	// ErrPowChallengeRequired indicates the client must complete a Proof-of-Work challenge first.
	ErrPowChallengeRequired = 3201

	// ErrPowChallengeInvalid indicates that the PoW proof provided by the client is invalid.
	ErrPowChallengeInvalid = 3202
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
