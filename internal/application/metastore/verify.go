package metastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"filedrive/internal/common"
	"filedrive/internal/domain/file"
)

// Verify checks that every registered file has a blob. Missing blobs are
// reported as ErrBlobMissing and never repaired.
func (s *Store) Verify(ctx context.Context) ([]string, error) {
	var missing []string
	for _, f := range s.registry.all() {
		if err := ctx.Err(); err != nil {
			return missing, err
		}
		ok, err := s.blobs.Exists(ctx, f.ID)
		if err != nil {
			return missing, fmt.Errorf("check blob %s: %w", f.ID, err)
		}
		if !ok {
			missing = append(missing, f.ID)
		}
	}
	if len(missing) > 0 {
		s.log.Error("registered files without blob", zap.Strings("file_ids", missing))
		return missing, fmt.Errorf("%w: %s", common.ErrBlobMissing, strings.Join(missing, ", "))
	}

	return nil, nil
}

// OpenBlob returns the record and content of a registered file.
func (s *Store) OpenBlob(ctx context.Context, id string) (file.File, io.ReadCloser, error) {
	f, ok := s.registry.get(id)
	if !ok {
		return file.File{}, nil, common.ErrFileNotFound
	}
	rc, err := s.blobs.Open(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.log.Error("registered file has no blob", zap.String("file_id", id))
			return file.File{}, nil, fmt.Errorf("%w: %s", common.ErrBlobMissing, id)
		}
		return file.File{}, nil, err
	}

	return f, rc, nil
}
