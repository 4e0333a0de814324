package metastore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"filedrive/internal/common"
	"filedrive/internal/domain/file"
)

// Upload is a fully received temp blob waiting to be stored.
type Upload struct {
	TempPath    string
	Size        int64
	Name        string
	ContentType string
	Extension   string
	Owner       string
}

// Relocate moves an uploaded temp blob into the blob store and registers
// it. On any failure the temp blob is removed, the reservation and the id
// are released, and a relocated blob is deleted again.
func (s *Store) Relocate(ctx context.Context, up Upload) (file.File, error) {
	if up.Size < 0 {
		s.discardTemp(up.TempPath)
		return file.File{}, fmt.Errorf("%w: negative size", common.ErrInvalidInput)
	}

	acc, err := s.lockAccount(up.Owner)
	if err != nil {
		s.discardTemp(up.TempPath)
		return file.File{}, err
	}
	if err = ctx.Err(); err == nil {
		err = acc.reserve(up.Size)
	}
	acc.mu.Unlock()
	if err != nil {
		s.discardTemp(up.TempPath)
		return file.File{}, err
	}

	unreserve := func() {
		acc.mu.Lock()
		acc.release(up.Size)
		acc.mu.Unlock()
	}

	id, err := s.registry.generateUniqueID()
	if err != nil {
		unreserve()
		s.discardTemp(up.TempPath)
		return file.File{}, err
	}

	if err = s.blobs.MoveIntoStore(ctx, up.TempPath, id); err != nil {
		unreserve()
		s.discardTemp(up.TempPath)
		if errors.Is(err, common.ErrBlobExists) {
			// The id stays reserved so it is never handed out again.
			s.log.Error("blob already present for fresh id",
				zap.String("file_id", id), zap.Error(err))
			return file.File{}, err
		}
		s.registry.release(id)
		return file.File{}, err
	}

	// new files start private; only SetVisibility publishes them
	f, err := s.commit(ctx, acc, file.File{
		ID:          id,
		Name:        up.Name,
		ContentType: up.ContentType,
		Extension:   up.Extension,
		Size:        up.Size,
		IsPublic:    false,
		Owner:       acc.user.Name,
	})
	if err != nil {
		s.registry.release(id)
		if cerr := s.blobs.DeleteFromStore(context.WithoutCancel(ctx), id); cerr != nil {
			s.log.Warn("rollback: relocated blob not deleted",
				zap.String("file_id", id), zap.Error(cerr))
		}
		return file.File{}, err
	}

	return f, nil
}

// commit turns a reservation into a registered file under the account lock.
func (s *Store) commit(ctx context.Context, acc *account, f file.File) (file.File, error) {
	acc.mu.Lock()
	defer acc.mu.Unlock()
	acc.release(f.Size)

	if err := ctx.Err(); err != nil {
		return file.File{}, err
	}
	if acc.deleted {
		return file.File{}, common.ErrUnknownOwner
	}

	created, err := s.register(ctx, acc, f)
	if err != nil {
		return file.File{}, err
	}
	acc.onFileCreated(created.ID, created.Size)

	return created, nil
}

// Removal describes a deleted file. BlobErr is set when the metadata is gone
// but the blob could not be removed; the orphan blob is a leak, not a
// failure of the deletion.
type Removal struct {
	File    file.File
	BlobErr error
}

func (s *Store) DeleteFile(ctx context.Context, id string) (Removal, error) {
	f, ok := s.registry.get(id)
	if !ok {
		return Removal{}, common.ErrFileNotFound
	}
	acc, err := s.lockAccount(f.Owner)
	if err != nil {
		return Removal{}, common.ErrFileNotFound
	}
	if _, ok = s.registry.get(id); !ok {
		acc.mu.Unlock()
		return Removal{}, common.ErrFileNotFound
	}
	if err = s.files.DeleteFile(ctx, id); err != nil {
		acc.mu.Unlock()
		return Removal{}, fmt.Errorf("delete file %s: %w", id, err)
	}
	s.registry.mu.Lock()
	delete(s.registry.files, id)
	s.registry.mu.Unlock()
	acc.onFileDeleted(id)
	acc.mu.Unlock()

	return Removal{File: f, BlobErr: s.deleteBlob(ctx, id)}, nil
}

func (s *Store) deleteBlob(ctx context.Context, id string) error {
	err := s.blobs.DeleteFromStore(context.WithoutCancel(ctx), id)
	if err != nil {
		s.log.Warn("orphan blob left after delete", zap.String("file_id", id), zap.Error(err))
	}
	return err
}

// Discard drops a received upload that will not be relocated.
func (s *Store) Discard(up Upload) { s.discardTemp(up.TempPath) }
