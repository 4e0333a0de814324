package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"filedrive/internal/common"
	"filedrive/internal/domain/file"
)

type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) FetchFiles(ctx context.Context) (file.Files, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, name, content_type, extension, size, is_public, created_at FROM files ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: select files: %w", common.ErrIOFailure, err)
	}
	defer rows.Close()

	var fs file.Files
	for rows.Next() {
		var (
			f       file.File
			created int64
		)
		if err = rows.Scan(&f.ID, &f.Owner, &f.Name, &f.ContentType, &f.Extension, &f.Size, &f.IsPublic, &created); err != nil {
			return nil, fmt.Errorf("%w: scan file: %w", common.ErrIOFailure, err)
		}
		f.CreatedAt = time.UnixMilli(created).UTC()
		fs = append(fs, &f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: select files: %w", common.ErrIOFailure, err)
	}

	return fs, nil
}

func (r *FileRepository) CreateFile(ctx context.Context, f file.File) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO files (id, owner, name, content_type, extension, size, is_public, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Owner, f.Name, f.ContentType, f.Extension, f.Size, f.IsPublic, f.CreatedAt.UnixMilli(),
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return common.ErrDuplicateID
	case isForeignKeyViolation(err):
		return common.ErrUnknownOwner
	default:
		return fmt.Errorf("%w: insert file: %w", common.ErrIOFailure, err)
	}
}

func (r *FileRepository) UpdateVisibility(ctx context.Context, id string, isPublic bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE files SET is_public = ? WHERE id = ?`, isPublic, id)
	if err != nil {
		return fmt.Errorf("%w: update file: %w", common.ErrIOFailure, err)
	}
	return expectOne(res, common.ErrFileNotFound)
}

func (r *FileRepository) DeleteFile(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: delete file: %w", common.ErrIOFailure, err)
	}
	return expectOne(res, common.ErrFileNotFound)
}
