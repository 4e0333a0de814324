package ports

import (
	"context"

	"filedrive/internal/domain/user"
)

type Auth interface {
	// Login returns a signed session token.
	Login(ctx context.Context, name, password string) (string, error)
	// Authenticate resolves a token to its user and session id. A token whose
	// session was revoked fails even when its signature is still valid.
	Authenticate(ctx context.Context, token string) (user.User, string, error)
	Logout(ctx context.Context, name, sessionID string)
}
