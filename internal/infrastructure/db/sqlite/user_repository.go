package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"filedrive/internal/common"
	"filedrive/internal/domain/user"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FetchUsers(ctx context.Context) (user.Users, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, password_hash, quota, max_files, is_admin, created_at FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: select users: %w", common.ErrIOFailure, err)
	}
	defer rows.Close()

	var us user.Users
	for rows.Next() {
		var (
			u        user.User
			maxFiles int64
			created  int64
		)
		if err = rows.Scan(&u.Name, &u.PasswordHash, &u.Quota, &maxFiles, &u.IsAdmin, &created); err != nil {
			return nil, fmt.Errorf("%w: scan user: %w", common.ErrIOFailure, err)
		}
		u.MaxFiles = int(maxFiles)
		u.CreatedAt = time.UnixMilli(created).UTC()
		us = append(us, &u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: select users: %w", common.ErrIOFailure, err)
	}

	return us, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, u user.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, password_hash, quota, max_files, is_admin, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.Name, u.PasswordHash, u.Quota, u.MaxFiles, u.IsAdmin, u.CreatedAt.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrDuplicateName
		}
		return fmt.Errorf("%w: insert user: %w", common.ErrIOFailure, err)
	}
	return nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, u user.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, quota = ?, max_files = ?, is_admin = ? WHERE name = ?`,
		u.PasswordHash, u.Quota, u.MaxFiles, u.IsAdmin, u.Name,
	)
	if err != nil {
		return fmt.Errorf("%w: update user: %w", common.ErrIOFailure, err)
	}
	return expectOne(res, common.ErrUserNotFound)
}

func (r *UserRepository) DeleteUser(ctx context.Context, name string) error {
	err := WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE owner = ?`, name); err != nil {
			return fmt.Errorf("%w: delete user files: %w", common.ErrIOFailure, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE name = ?`, name)
		if err != nil {
			return fmt.Errorf("%w: delete user: %w", common.ErrIOFailure, err)
		}
		return expectOne(res, common.ErrUserNotFound)
	})
	if err != nil && !errors.Is(err, common.ErrNotFound) && !errors.Is(err, common.ErrIOFailure) {
		return fmt.Errorf("%w: delete user tx: %w", common.ErrIOFailure, err)
	}
	return err
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %w", common.ErrIOFailure, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
