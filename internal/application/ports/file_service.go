package ports

import (
	"context"
	"io"

	"filedrive/internal/domain/file"
)

type FileService interface {
	Upload(ctx context.Context, owner string, in file.Incoming) (file.File, error)
	// UploadWithCode spends the upload code before storing anything.
	UploadWithCode(ctx context.Context, code string, in file.Incoming) (file.File, error)
	List(ctx context.Context, owner string, sort file.SortMode) (file.Files, error)
	// Get and Open report private files of other users as not found.
	Get(ctx context.Context, viewer, id string) (file.File, error)
	Open(ctx context.Context, viewer, id string) (file.File, io.ReadCloser, error)
	SetVisibility(ctx context.Context, actor, id string, isPublic bool) (file.File, error)
	Delete(ctx context.Context, actor, id string) error
}
