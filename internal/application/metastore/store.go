// Package metastore owns user accounts, file records, storage quotas and
// upload codes, and moves uploaded blobs into durable storage while keeping
// metadata, quota counters and the blob set consistent.
//
// Locking: every mutation of a single user's quota or file set runs under
// that user's account mutex. File id allocation and upload codes are
// serialized globally. Blob moves run outside every lock, after capacity
// has been reserved on the account.
package metastore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"filedrive/internal/application/ports"
	"filedrive/internal/application/uploadcode"
	"filedrive/internal/common"
	"filedrive/internal/domain/file"
	"filedrive/internal/domain/user"
)

type (
	Store struct {
		log    *zap.Logger
		users  user.Repository
		files  file.Repository
		blobs  ports.BlobStore
		hasher ports.PasswordHasher
		codes  *uploadcode.Manager
		now    func() time.Time

		loaded atomic.Bool

		// createMu serializes user creation so the duplicate check and the
		// durable insert cannot interleave.
		createMu sync.Mutex
		mu       sync.RWMutex
		accounts map[string]*account

		registry *registry
	}

	Option func(*Store)
)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDSource replaces crypto/rand.Reader for file id generation.
func WithIDSource(r io.Reader) Option {
	return func(s *Store) { s.registry.rand = r }
}

func WithIDLength(n int) Option {
	return func(s *Store) { s.registry.length = n }
}

func New(
	logger *zap.Logger,
	users user.Repository,
	files file.Repository,
	blobs ports.BlobStore,
	hasher ports.PasswordHasher,
	codes *uploadcode.Manager,
	opts ...Option,
) *Store {
	s := &Store{
		log:      logger,
		users:    users,
		files:    files,
		blobs:    blobs,
		hasher:   hasher,
		codes:    codes,
		now:      time.Now,
		accounts: make(map[string]*account),
		registry: newRegistry(rand.Reader, DefaultIDLength),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Open constructs a store and loads the persisted state into it.
func Open(
	ctx context.Context,
	logger *zap.Logger,
	users user.Repository,
	files file.Repository,
	blobs ports.BlobStore,
	hasher ports.PasswordHasher,
	codes *uploadcode.Manager,
	opts ...Option,
) (*Store, error) {
	s := New(logger, users, files, blobs, hasher, codes, opts...)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// Load reads users and files from the repositories and derives the quota
// ledger. It may succeed only once per store.
func (s *Store) Load(ctx context.Context) error {
	if !s.loaded.CompareAndSwap(false, true) {
		return common.ErrAlreadyInitialized
	}

	accounts, files, err := s.fetchState(ctx)
	if err != nil {
		s.loaded.Store(false)
		return err
	}

	s.mu.Lock()
	s.accounts = accounts
	s.mu.Unlock()
	s.registry.reset(files)

	s.log.Info("metadata store loaded",
		zap.Int("users", len(accounts)),
		zap.Int("files", len(files)),
	)

	return nil
}

func (s *Store) fetchState(ctx context.Context) (map[string]*account, map[string]*file.File, error) {
	us, err := s.users.FetchUsers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load users: %w", err)
	}
	fs, err := s.files.FetchFiles(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load files: %w", err)
	}

	accounts := make(map[string]*account, len(us))
	for _, u := range us {
		accounts[u.Name] = newAccount(*u)
	}

	files := make(map[string]*file.File, len(fs))
	for _, f := range fs {
		acc, ok := accounts[f.Owner]
		if !ok {
			return nil, nil, fmt.Errorf("%w: file %s owned by %q", common.ErrOrphanFile, f.ID, f.Owner)
		}
		if _, dup := files[f.ID]; dup {
			return nil, nil, fmt.Errorf("%w: %s", common.ErrDuplicateID, f.ID)
		}
		cp := *f
		files[f.ID] = &cp
		acc.onFileCreated(f.ID, f.Size)
	}

	return accounts, files, nil
}

func (s *Store) account(name string) (*account, error) {
	s.mu.RLock()
	acc, ok := s.accounts[normalizeName(name)]
	s.mu.RUnlock()
	if !ok {
		return nil, common.ErrUserNotFound
	}

	return acc, nil
}

// lockAccount returns the live account with its mutex held.
func (s *Store) lockAccount(name string) (*account, error) {
	acc, err := s.account(name)
	if err != nil {
		return nil, err
	}
	acc.mu.Lock()
	if acc.deleted {
		acc.mu.Unlock()
		return nil, common.ErrUserNotFound
	}

	return acc, nil
}

// discardTemp removes an upload that will never be registered.
func (s *Store) discardTemp(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("temp upload not removed", zap.String("path", path), zap.Error(err))
	}
}

type account struct {
	mu sync.Mutex

	user user.User

	usedBytes int64
	files     map[string]int64

	// capacity held by uploads that passed admission but are not registered yet
	pendingBytes int64
	pendingFiles int

	sessions map[string]struct{}
	deleted  bool
}

func newAccount(u user.User) *account {
	u.UsedBytes = 0
	u.Files = nil
	return &account{
		user:     u,
		files:    make(map[string]int64),
		sessions: make(map[string]struct{}),
	}
}

func (a *account) snapshot() user.User {
	u := a.user
	u.UsedBytes = a.usedBytes
	u.Files = make([]string, 0, len(a.files))
	for id := range a.files {
		u.Files = append(u.Files, id)
	}
	sort.Strings(u.Files)

	return u
}
