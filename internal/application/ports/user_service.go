package ports

import (
	"context"

	"filedrive/internal/domain/user"
)

type UserService interface {
	// EnsureRoot creates the root account on first start.
	EnsureRoot(ctx context.Context) error
	ListUsers(ctx context.Context) user.Users
	GetUser(ctx context.Context, name string) (user.User, error)
	CreateUser(ctx context.Context, name, password string) (user.User, error)
	ChangeLimits(ctx context.Context, actor, name string, l user.Limits) (user.User, error)
	SetAdmin(ctx context.Context, actor, name string, isAdmin bool) (user.User, error)
	// ChangePassword requires current when actor changes their own password.
	ChangePassword(ctx context.Context, actor, name, current, next string) error
	DeleteUser(ctx context.Context, actor, name string) error
}
