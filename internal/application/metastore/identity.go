package metastore

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"filedrive/internal/common"
	"filedrive/internal/domain/user"
)

var nameRe = regexp.MustCompile(`^[a-z0-9\-_.]{3,50}$`)

func normalizeName(name string) string {
	return strings.ToLower(name)
}

// ValidName reports whether name, once lower-cased, is an acceptable user name.
func ValidName(name string) bool {
	return nameRe.MatchString(normalizeName(name))
}

func (s *Store) CreateUser(ctx context.Context, name, credential string, quota int64, maxFiles int) (user.User, error) {
	name = normalizeName(name)
	if !nameRe.MatchString(name) {
		return user.User{}, common.ErrInvalidName
	}
	if credential == "" {
		return user.User{}, common.ErrInvalidCredential
	}
	if quota < 0 || maxFiles < 0 {
		return user.User{}, fmt.Errorf("%w: limits must not be negative", common.ErrInvalidInput)
	}
	if _, ok := s.GetUser(name); ok {
		return user.User{}, common.ErrDuplicateName
	}

	hash, err := s.hasher.Hash(credential)
	if err != nil {
		return user.User{}, fmt.Errorf("hash credential: %w", err)
	}

	u := user.User{
		Name:         name,
		PasswordHash: hash,
		Quota:        quota,
		MaxFiles:     maxFiles,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()
	if _, ok := s.GetUser(name); ok {
		return user.User{}, common.ErrDuplicateName
	}
	if err = s.users.CreateUser(ctx, u); err != nil {
		return user.User{}, fmt.Errorf("create user %s: %w", name, err)
	}

	acc := newAccount(u)
	s.mu.Lock()
	s.accounts[name] = acc
	s.mu.Unlock()

	return acc.snapshot(), nil
}

// GetUser looks a user up case-insensitively. A missing user is not an error.
func (s *Store) GetUser(name string) (user.User, bool) {
	acc, err := s.account(name)
	if err != nil {
		return user.User{}, false
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	if acc.deleted {
		return user.User{}, false
	}
	return acc.snapshot(), true
}

// Users lists every user ordered by name.
func (s *Store) Users() user.Users {
	s.mu.RLock()
	accs := make([]*account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		accs = append(accs, acc)
	}
	s.mu.RUnlock()

	out := make(user.Users, 0, len(accs))
	for _, acc := range accs {
		acc.mu.Lock()
		if !acc.deleted {
			u := acc.snapshot()
			out = append(out, &u)
		}
		acc.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// updateUser persists the result of mutate unless it reports no change.
func (s *Store) updateUser(ctx context.Context, name string, mutate func(u *user.User) bool) (user.User, error) {
	acc, err := s.lockAccount(name)
	if err != nil {
		return user.User{}, err
	}
	defer acc.mu.Unlock()

	next := acc.user
	if !mutate(&next) {
		return acc.snapshot(), nil
	}
	if err = s.users.UpdateUser(ctx, next); err != nil {
		return user.User{}, fmt.Errorf("update user %s: %w", acc.user.Name, err)
	}
	acc.user = next

	return acc.snapshot(), nil
}

// SetQuota does not evict files when the new quota is below current usage.
func (s *Store) SetQuota(ctx context.Context, name string, quota int64) (user.User, error) {
	if quota < 0 {
		return user.User{}, fmt.Errorf("%w: quota must not be negative", common.ErrInvalidInput)
	}
	return s.updateUser(ctx, name, func(u *user.User) bool {
		if u.Quota == quota {
			return false
		}
		u.Quota = quota
		return true
	})
}

// SetMaxFiles does not evict files when the new limit is below the current count.
func (s *Store) SetMaxFiles(ctx context.Context, name string, maxFiles int) (user.User, error) {
	if maxFiles < 0 {
		return user.User{}, fmt.Errorf("%w: file limit must not be negative", common.ErrInvalidInput)
	}
	return s.updateUser(ctx, name, func(u *user.User) bool {
		if u.MaxFiles == maxFiles {
			return false
		}
		u.MaxFiles = maxFiles
		return true
	})
}

func (s *Store) SetAdmin(ctx context.Context, name string, isAdmin bool) (user.User, error) {
	return s.updateUser(ctx, name, func(u *user.User) bool {
		if u.IsAdmin == isAdmin {
			return false
		}
		u.IsAdmin = isAdmin
		return true
	})
}

// SetCredential replaces the credential and drops every active session of
// the user. Setting the current credential again changes nothing.
func (s *Store) SetCredential(ctx context.Context, name, credential string) (user.User, error) {
	if credential == "" {
		return user.User{}, common.ErrInvalidCredential
	}
	cur, ok := s.GetUser(name)
	if !ok {
		return user.User{}, common.ErrUserNotFound
	}
	if s.hasher.Compare(credential, cur.PasswordHash) {
		return cur, nil
	}
	hash, err := s.hasher.Hash(credential)
	if err != nil {
		return user.User{}, fmt.Errorf("hash credential: %w", err)
	}

	acc, err := s.lockAccount(name)
	if err != nil {
		return user.User{}, err
	}
	defer acc.mu.Unlock()

	next := acc.user
	next.PasswordHash = hash
	if err = s.users.UpdateUser(ctx, next); err != nil {
		return user.User{}, fmt.Errorf("update user %s: %w", acc.user.Name, err)
	}
	acc.user = next
	clear(acc.sessions)

	return acc.snapshot(), nil
}

// VerifyCredential compares plaintext against the stored hash. Unknown
// users never verify.
func (s *Store) VerifyCredential(name, plaintext string) (user.User, bool) {
	u, ok := s.GetUser(name)
	if !ok || plaintext == "" {
		return user.User{}, false
	}
	if !s.hasher.Compare(plaintext, u.PasswordHash) {
		return user.User{}, false
	}
	return u, true
}

// DeleteUser removes the user and every file it owns in one durable
// transaction. Blob deletion failures are reported per file in the result.
func (s *Store) DeleteUser(ctx context.Context, name string) ([]Removal, error) {
	acc, err := s.lockAccount(name)
	if err != nil {
		return nil, err
	}
	if err = s.users.DeleteUser(ctx, acc.user.Name); err != nil {
		acc.mu.Unlock()
		return nil, fmt.Errorf("delete user %s: %w", acc.user.Name, err)
	}

	ids := make([]string, 0, len(acc.files))
	for id := range acc.files {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	removed := make([]Removal, 0, len(ids))
	s.registry.mu.Lock()
	for _, id := range ids {
		if f, ok := s.registry.files[id]; ok {
			removed = append(removed, Removal{File: *f})
			delete(s.registry.files, id)
		}
	}
	s.registry.mu.Unlock()
	for _, id := range ids {
		acc.onFileDeleted(id)
	}
	acc.deleted = true
	clear(acc.sessions)
	owner := acc.user.Name
	acc.mu.Unlock()

	s.mu.Lock()
	if s.accounts[owner] == acc {
		delete(s.accounts, owner)
	}
	s.mu.Unlock()
	s.codes.Renew(owner)

	for i := range removed {
		removed[i].BlobErr = s.deleteBlob(ctx, removed[i].File.ID)
	}

	return removed, nil
}

func (s *Store) AddSession(name, sid string) error {
	acc, err := s.lockAccount(name)
	if err != nil {
		return err
	}
	defer acc.mu.Unlock()
	acc.sessions[sid] = struct{}{}
	return nil
}

func (s *Store) HasSession(name, sid string) bool {
	acc, err := s.lockAccount(name)
	if err != nil {
		return false
	}
	defer acc.mu.Unlock()
	_, ok := acc.sessions[sid]
	return ok
}

func (s *Store) RemoveSession(name, sid string) {
	acc, err := s.lockAccount(name)
	if err != nil {
		return
	}
	defer acc.mu.Unlock()
	delete(acc.sessions, sid)
}
