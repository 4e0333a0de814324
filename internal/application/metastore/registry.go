package metastore

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"filedrive/internal/common"
	"filedrive/internal/domain/file"
)

const (
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// DefaultIDLength gives 62^6 (about 5.7e10) ids; a 1% chance of any
	// collision needs roughly 34k live files.
	DefaultIDLength = 6
	maxIDAttempts   = 32
)

// registry is the in-memory index of file records. Reserved ids are handed
// out but not yet registered.
type registry struct {
	mu       sync.RWMutex
	rand     io.Reader
	length   int
	files    map[string]*file.File
	reserved map[string]struct{}
}

func newRegistry(r io.Reader, length int) *registry {
	return &registry{
		rand:     r,
		length:   length,
		files:    make(map[string]*file.File),
		reserved: make(map[string]struct{}),
	}
}

func (r *registry) reset(files map[string]*file.File) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = files
	r.reserved = make(map[string]struct{})
}

// generateUniqueID returns an id that is neither registered nor reserved,
// and reserves it. The caller must either register it or release it.
func (r *registry) generateUniqueID() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for range maxIDAttempts {
		id, err := common.RandomString(r.rand, idAlphabet, r.length)
		if err != nil {
			return "", fmt.Errorf("%w: generate file id: %w", common.ErrIOFailure, err)
		}
		if _, ok := r.files[id]; ok {
			continue
		}
		if _, ok := r.reserved[id]; ok {
			continue
		}
		r.reserved[id] = struct{}{}
		return id, nil
	}

	return "", common.ErrIDSpaceExhausted
}

// claim reserves a caller-chosen id. It fails when the id is registered or
// already handed out.
func (r *registry) claim(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[id]; ok {
		return false
	}
	if _, ok := r.reserved[id]; ok {
		return false
	}
	r.reserved[id] = struct{}{}
	return true
}

func (r *registry) release(id string) {
	r.mu.Lock()
	delete(r.reserved, id)
	r.mu.Unlock()
}

func (r *registry) get(id string) (file.File, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[id]
	if !ok {
		return file.File{}, false
	}
	return *f, true
}

func (r *registry) all() file.Files {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(file.Files, 0, len(r.files))
	for _, f := range r.files {
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}

func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

// register persists a record and indexes it. The owner's account lock must
// be held.
func (s *Store) register(ctx context.Context, acc *account, f file.File) (file.File, error) {
	if !validID(f.ID) {
		return file.File{}, common.ErrInvalidID
	}
	if acc == nil || acc.deleted || acc.user.Name != f.Owner {
		return file.File{}, common.ErrUnknownOwner
	}
	if _, ok := s.registry.get(f.ID); ok {
		return file.File{}, common.ErrDuplicateID
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	}

	if err := s.files.CreateFile(ctx, f); err != nil {
		return file.File{}, fmt.Errorf("register file %s: %w", f.ID, err)
	}

	s.registry.mu.Lock()
	s.registry.files[f.ID] = &f
	delete(s.registry.reserved, f.ID)
	s.registry.mu.Unlock()

	return f, nil
}

// Register inserts a record for a blob that is already in the blob store.
// Uploads go through Relocate; this is for imports. An id that an upload
// has reserved is refused like a registered one.
func (s *Store) Register(ctx context.Context, f file.File) (file.File, error) {
	if !validID(f.ID) {
		return file.File{}, common.ErrInvalidID
	}
	acc, err := s.lockAccount(f.Owner)
	if err != nil {
		return file.File{}, common.ErrUnknownOwner
	}
	defer acc.mu.Unlock()

	if !s.registry.claim(f.ID) {
		return file.File{}, common.ErrDuplicateID
	}
	f.Owner = acc.user.Name
	created, err := s.register(ctx, acc, f)
	if err != nil {
		s.registry.release(f.ID)
		return file.File{}, err
	}
	acc.onFileCreated(created.ID, created.Size)

	return created, nil
}

func (s *Store) GetFile(id string) (file.File, bool) {
	return s.registry.get(id)
}

func (s *Store) Files() file.Files {
	return s.registry.all()
}

// FilesOf lists the files owned by name, ordered by id.
func (s *Store) FilesOf(name string) (file.Files, error) {
	acc, err := s.account(name)
	if err != nil {
		return nil, err
	}
	acc.mu.Lock()
	ids := make([]string, 0, len(acc.files))
	for id := range acc.files {
		ids = append(ids, id)
	}
	acc.mu.Unlock()
	sort.Strings(ids)

	out := make(file.Files, 0, len(ids))
	for _, id := range ids {
		if f, ok := s.registry.get(id); ok {
			out = append(out, &f)
		}
	}
	return out, nil
}

// SetVisibility is a no-op when the flag already has the requested value.
func (s *Store) SetVisibility(ctx context.Context, id string, isPublic bool) (file.File, error) {
	f, ok := s.registry.get(id)
	if !ok {
		return file.File{}, common.ErrFileNotFound
	}
	acc, err := s.lockAccount(f.Owner)
	if err != nil {
		return file.File{}, common.ErrFileNotFound
	}
	defer acc.mu.Unlock()

	cur, ok := s.registry.get(id)
	if !ok {
		return file.File{}, common.ErrFileNotFound
	}
	if cur.IsPublic == isPublic {
		return cur, nil
	}
	if err := s.files.UpdateVisibility(ctx, id, isPublic); err != nil {
		return file.File{}, fmt.Errorf("set visibility of %s: %w", id, err)
	}

	s.registry.mu.Lock()
	if rec, ok := s.registry.files[id]; ok {
		rec.IsPublic = isPublic
	}
	s.registry.mu.Unlock()
	cur.IsPublic = isPublic

	return cur, nil
}
