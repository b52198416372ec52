package services

import "errors"

// AuthErrorCode classifies authentication failures for API clients.
type AuthErrorCode string

const (
	CodeUnauthenticated AuthErrorCode = "UNAUTHENTICATED"
	CodeAuthInvalid     AuthErrorCode = "AUTH_INVALID"
)

// AuthError is returned by the authorization gate and the token service.
// Two AuthErrors match under errors.Is when their codes are equal.
type AuthError struct {
	Code    AuthErrorCode
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Code == e.Code
}

// Extensions is surfaced in GraphQL error responses.
func (e *AuthError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": string(e.Code)}
}

var (
	ErrUnauthenticated      = &AuthError{Code: CodeUnauthenticated, Message: "You need to be logged in!"}
	ErrNotLoggedIn          = &AuthError{Code: CodeUnauthenticated, Message: "Not logged in"}
	ErrIncorrectCredentials = &AuthError{Code: CodeAuthInvalid, Message: "Incorrect credentials"}
	ErrInvalidToken         = &AuthError{Code: CodeAuthInvalid, Message: "Invalid token"}
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrCannotFriendSelf = errors.New("cannot add yourself as a friend")
)
