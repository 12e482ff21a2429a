package domain

import "fmt"

// Caller is an authenticated identity making a request. Subject is the owner
// identity reference an account is registered under.
type Caller struct {
	Subject string
	Email   string
}

// Authenticated reports whether the caller carries an identity.
func (c *Caller) Authenticated() bool {
	return c != nil && c.Subject != ""
}

// Token errors
var (
	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrExpiredToken = fmt.Errorf("%w: token has expired", ErrUnauthenticated)
)
