package auth

import (
	"context"
	"fmt"
)

// StaticAuthenticator maps fixed tokens to identities. It stands in for the
// real identity provider in local development and tests.
type StaticAuthenticator struct {
	tokens map[string]Identity
}

func NewStatic(tokens map[string]Identity) *StaticAuthenticator {
	cp := make(map[string]Identity, len(tokens))
	for k, v := range tokens {
		cp[k] = v
	}
	return &StaticAuthenticator{tokens: cp}
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, token string) (Identity, error) {
	id, ok := a.tokens[token]
	if !ok {
		return Identity{}, fmt.Errorf("unknown token: %w", ErrUnauthorized)
	}
	return id, nil
}

var _ Authenticator = (*StaticAuthenticator)(nil)
