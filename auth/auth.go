// Package auth is the narrow interface to the external identity provider.
// The service trusts the yielded identity verbatim and never reads user ids
// from client input.
package auth

import (
	"context"
	"errors"
)

// ErrUnauthorized marks a missing, malformed, or rejected credential.
var ErrUnauthorized = errors.New("unauthorized")

// Identity is what the identity provider yields for a valid credential.
type Identity struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Authenticator validates a bearer credential.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
}

type ctxKey struct{}

// WithIdentity stashes the authenticated identity on the request context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext retrieves the identity set by the auth middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
