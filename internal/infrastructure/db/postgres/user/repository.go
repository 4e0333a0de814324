package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"filedrive/internal/common"
	"filedrive/internal/domain/user"
	"filedrive/internal/infrastructure/db/postgres"
)

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) user.Repository {
	return &Repository{db: db}
}

func (r *Repository) FetchUsers(ctx context.Context) (user.Users, error) {
	rows, err := r.db.Query(ctx, SelectUsers)
	if err != nil {
		return nil, fmt.Errorf("%w: select users: %w", common.ErrIOFailure, err)
	}
	defer rows.Close()

	var us Users
	for rows.Next() {
		u := new(User)

		if err = rows.Scan(
			&u.Name,
			&u.PasswordHash,
			&u.Quota,
			&u.MaxFiles,
			&u.IsAdmin,

			&u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scan user: %w", common.ErrIOFailure, err)
		}

		us = append(us, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: select users: %w", common.ErrIOFailure, err)
	}

	return fromDBModels(&us), nil
}

func (r *Repository) CreateUser(ctx context.Context, req user.User) error {
	_, err := r.db.Exec(
		ctx,
		InsertUser,
		req.Name, req.PasswordHash, req.Quota, int64(req.MaxFiles), req.IsAdmin, req.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgUniqueViolation(err) {
			return common.ErrDuplicateName
		}
		return fmt.Errorf("%w: insert user: %w", common.ErrIOFailure, err)
	}

	return nil
}

func (r *Repository) UpdateUser(ctx context.Context, req user.User) error {
	tag, err := r.db.Exec(ctx, UpdateUserByName,
		req.Name, req.PasswordHash, req.Quota, int64(req.MaxFiles), req.IsAdmin,
	)
	if err != nil {
		return fmt.Errorf("%w: update user: %w", common.ErrIOFailure, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}

	return nil
}

// DeleteUser removes the user's files and the user in one transaction.
func (r *Repository) DeleteUser(ctx context.Context, name string) error {
	err := postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, DeleteUserFiles, name); err != nil {
			return fmt.Errorf("%w: delete user files: %w", common.ErrIOFailure, err)
		}
		tag, err := tx.Exec(ctx, DeleteUserByName, name)
		if err != nil {
			return fmt.Errorf("%w: delete user: %w", common.ErrIOFailure, err)
		}
		if tag.RowsAffected() == 0 {
			return common.ErrUserNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, common.ErrNotFound) && !errors.Is(err, common.ErrIOFailure) {
		return fmt.Errorf("%w: delete user tx: %w", common.ErrIOFailure, err)
	}

	return err
}
