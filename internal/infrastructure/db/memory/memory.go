// Package memory keeps users and files in process memory. Nothing survives a
// restart; it backs tests and throwaway deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"filedrive/internal/common"
	"filedrive/internal/domain/file"
	"filedrive/internal/domain/user"
)

type DB struct {
	mu    sync.RWMutex
	users map[string]user.User
	files map[string]file.File
}

func New() *DB {
	return &DB{
		users: make(map[string]user.User),
		files: make(map[string]file.File),
	}
}

type UserRepository struct{ db *DB }

func NewUserRepository(db *DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) FetchUsers(ctx context.Context) (user.Users, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make(user.Users, 0, len(r.db.users))
	for _, u := range r.db.users {
		cp := u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, u user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[u.Name]; ok {
		return common.ErrDuplicateName
	}
	u.UsedBytes, u.Files = 0, nil
	r.db.users[u.Name] = u
	return nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, u user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[u.Name]; !ok {
		return common.ErrUserNotFound
	}
	u.UsedBytes, u.Files = 0, nil
	r.db.users[u.Name] = u
	return nil
}

func (r *UserRepository) DeleteUser(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[name]; !ok {
		return common.ErrUserNotFound
	}
	for id, f := range r.db.files {
		if f.Owner == name {
			delete(r.db.files, id)
		}
	}
	delete(r.db.users, name)
	return nil
}

type FileRepository struct{ db *DB }

func NewFileRepository(db *DB) *FileRepository { return &FileRepository{db: db} }

func (r *FileRepository) FetchFiles(ctx context.Context) (file.Files, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make(file.Files, 0, len(r.db.files))
	for _, f := range r.db.files {
		cp := f
		out = append(out, &cp)
	}
	return out, nil
}

func (r *FileRepository) CreateFile(ctx context.Context, f file.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.files[f.ID]; ok {
		return common.ErrDuplicateID
	}
	if _, ok := r.db.users[f.Owner]; !ok {
		return fmt.Errorf("%w: %s", common.ErrUnknownOwner, f.Owner)
	}
	r.db.files[f.ID] = f
	return nil
}

func (r *FileRepository) UpdateVisibility(ctx context.Context, id string, isPublic bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	f, ok := r.db.files[id]
	if !ok {
		return common.ErrFileNotFound
	}
	f.IsPublic = isPublic
	r.db.files[id] = f
	return nil
}

func (r *FileRepository) DeleteFile(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.files[id]; !ok {
		return common.ErrFileNotFound
	}
	delete(r.db.files, id)
	return nil
}
