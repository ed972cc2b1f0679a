/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses, WebSocket blocked events, and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Chat and Content Business Logic Errors
	ErrActionInvalid:   {Code: ErrActionInvalid, Message: "Unsupported action."},
	ErrMessageEmpty:    {Code: ErrMessageEmpty, Message: "Message is empty."},
	ErrMessageTooLong:  {Code: ErrMessageTooLong, Message: "Message longer than 900 characters."},
	ErrRoomNameInvalid: {Code: ErrRoomNameInvalid, Message: "Room name not valid."},
	ErrDMSelf:          {Code: ErrDMSelf, Message: "You can't DM yourself."},
	ErrDMRoomNotFound:  {Code: ErrDMRoomNotFound, Message: "Room does not exist."},
	ErrDMAccessDenied:  {Code: ErrDMAccessDenied, Message: "Access denied."},
	ErrProfileInvalid:  {Code: ErrProfileInvalid, Message: "Profile not valid."},
	ErrAvatarInvalid:   {Code: ErrAvatarInvalid, Message: "Avatar not valid."},
	ErrBioInvalid:      {Code: ErrBioInvalid, Message: "Bio not valid."},

	// 3xxx: User, Session, and Security Errors
	ErrNotLoggedIn:       {Code: ErrNotLoggedIn, Message: "User not logged in."},
	ErrSessionSuperseded: {Code: ErrSessionSuperseded, Message: "You were signed in from another connection."},

	ErrInvalidUsername:    {Code: ErrInvalidUsername, Message: "Invalid username."},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Message: "Invalid password."},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "Username is already taken."},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect username or password."},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "Account not found."},
	ErrAlreadyLoggedIn:    {Code: ErrAlreadyLoggedIn, Message: "You are already signed in."},
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},

	ErrPowChallengeRequired: {Code: ErrPowChallengeRequired, Message: "Verification required. Please try again."},
	ErrPowChallengeInvalid:  {Code: ErrPowChallengeInvalid, Message: "Verification failed. Please try again."},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
