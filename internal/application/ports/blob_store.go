package ports

import (
	"context"
	"io"
)

// BlobStore keeps uploaded content keyed by file id. Ids handed to it never
// contain path separators.
type BlobStore interface {
	// MoveIntoStore moves (not copies) a finished temp file under id. It must
	// refuse to overwrite an existing blob.
	MoveIntoStore(ctx context.Context, tempPath, id string) error
	DeleteFromStore(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	Open(ctx context.Context, id string) (io.ReadCloser, error)
}
