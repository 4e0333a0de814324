package user

import (
	"context"
)

type Repository interface {
	FetchUsers(ctx context.Context) (Users, error)
	CreateUser(ctx context.Context, u User) error
	UpdateUser(ctx context.Context, u User) error
	// DeleteUser removes the user together with every file row it owns,
	// atomically.
	DeleteUser(ctx context.Context, name string) error
}
