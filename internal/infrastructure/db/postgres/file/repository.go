package file

import (
	"context"
	"fmt"

	"filedrive/internal/common"
	"filedrive/internal/domain/file"
	"filedrive/internal/infrastructure/db/postgres"
)

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) file.Repository {
	return &Repository{db: db}
}

func (r *Repository) FetchFiles(ctx context.Context) (file.Files, error) {
	rows, err := r.db.Query(ctx, SelectFiles)
	if err != nil {
		return nil, fmt.Errorf("%w: select files: %w", common.ErrIOFailure, err)
	}
	defer rows.Close()

	var fs Files
	for rows.Next() {
		f := new(File)

		if err = rows.Scan(
			&f.ID,
			&f.Owner,
			&f.Name,
			&f.ContentType,
			&f.Extension,
			&f.Size,
			&f.IsPublic,

			&f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scan file: %w", common.ErrIOFailure, err)
		}

		fs = append(fs, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: select files: %w", common.ErrIOFailure, err)
	}

	return fromDBModels(&fs), nil
}

func (r *Repository) CreateFile(ctx context.Context, req file.File) error {
	_, err := r.db.Exec(
		ctx,
		InsertFile,
		req.ID, req.Owner, req.Name, req.ContentType, req.Extension, req.Size, req.IsPublic, req.CreatedAt,
	)
	switch {
	case err == nil:
		return nil
	case postgres.IsPgUniqueViolation(err):
		return common.ErrDuplicateID
	case postgres.IsPgForeignKeyViolation(err):
		return common.ErrUnknownOwner
	default:
		return fmt.Errorf("%w: insert file: %w", common.ErrIOFailure, err)
	}
}

func (r *Repository) UpdateVisibility(ctx context.Context, id string, isPublic bool) error {
	tag, err := r.db.Exec(ctx, UpdateFileVisibility, id, isPublic)
	if err != nil {
		return fmt.Errorf("%w: update file: %w", common.ErrIOFailure, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrFileNotFound
	}

	return nil
}

func (r *Repository) DeleteFile(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, DeleteFileByID, id)
	if err != nil {
		return fmt.Errorf("%w: delete file: %w", common.ErrIOFailure, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrFileNotFound
	}

	return nil
}
