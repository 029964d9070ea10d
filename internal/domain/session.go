package domain

import "errors"

var (
	// ErrNoSession is returned when an operation requires an authenticated session.
	ErrNoSession = errors.New("no session")
	// ErrSessionExpired is returned when the backend no longer accepts the session's token.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionStorageBusy is returned when the session database is locked by another process.
	ErrSessionStorageBusy = errors.New("session storage busy")
)

// Session couples the bearer token with the identity it was issued to.
type Session struct {
	Token string
	User  User
}

// Valid reports whether the session carries a token and a username.
func (s Session) Valid() bool {
	return s.Token != "" && s.User.Username != ""
}
