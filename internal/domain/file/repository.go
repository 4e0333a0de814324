package file

import (
	"context"
)

type Repository interface {
	FetchFiles(ctx context.Context) (Files, error)
	CreateFile(ctx context.Context, f File) error
	UpdateVisibility(ctx context.Context, id string, isPublic bool) error
	DeleteFile(ctx context.Context, id string) error
}
