package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"filedrive/internal/common"
)

// Store keeps blobs as plain files named by file id in one directory.
type Store struct {
	logger *zap.Logger
	dir    string
}

func New(logger *zap.Logger, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create blob dir: %w", common.ErrIOFailure, err)
	}

	return &Store{logger: logger, dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id)
}

// MoveIntoStore links the temp file into place and unlinks the temp name,
// so an existing blob is never replaced. Across devices it falls back to an
// exclusive create plus copy.
func (s *Store) MoveIntoStore(ctx context.Context, tempPath, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst := s.path(id)

	err := os.Link(tempPath, dst)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrExist):
		return fmt.Errorf("%w: %s", common.ErrBlobExists, id)
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: temp upload %s: %w", common.ErrIOFailure, tempPath, err)
	default:
		s.logger.Debug("hard link failed, copying", zap.String("file_id", id), zap.Error(err))
		if err = copyExclusive(tempPath, dst); err != nil {
			if errors.Is(err, os.ErrExist) {
				return fmt.Errorf("%w: %s", common.ErrBlobExists, id)
			}
			return fmt.Errorf("%w: copy blob %s: %w", common.ErrIOFailure, id, err)
		}
	}

	if err = os.Remove(tempPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("temp upload not removed after move",
			zap.String("path", tempPath), zap.Error(err))
	}

	return nil
}

func copyExclusive(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

func (s *Store) DeleteFromStore(_ context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: blob %s", common.ErrNotFound, id)
		}
		return fmt.Errorf("%w: delete blob %s: %w", common.ErrIOFailure, id, err)
	}
	return nil
}

func (s *Store) Exists(_ context.Context, id string) (bool, error) {
	_, err := os.Stat(s.path(id))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("%w: stat blob %s: %w", common.ErrIOFailure, id, err)
	}
}

func (s *Store) Open(_ context.Context, id string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: blob %s", common.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: open blob %s: %w", common.ErrIOFailure, id, err)
	}
	return f, nil
}

// CleanTemp empties dir, creating it when missing. Leftovers are uploads
// interrupted by a previous shutdown.
func CleanTemp(logger *zap.Logger, dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: create temp dir: %w", common.ErrIOFailure, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%w: read temp dir: %w", common.ErrIOFailure, err)
	}
	for _, e := range entries {
		if err = os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("%w: clean temp dir: %w", common.ErrIOFailure, err)
		}
	}
	if len(entries) > 0 {
		logger.Info("stale temp uploads removed", zap.Int("count", len(entries)))
	}
	return nil
}
