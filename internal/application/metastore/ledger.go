package metastore

import (
	"filedrive/internal/common"
)

// admit checks whether an upload of size bytes still fits, counting
// capacity already reserved by in-flight uploads. Reaching the quota
// exactly is rejected.
func (a *account) admit(size int64) error {
	if a.usedBytes+a.pendingBytes+size >= a.user.Quota {
		return common.ErrQuotaExceeded
	}
	if len(a.files)+a.pendingFiles >= a.user.MaxFiles {
		return common.ErrFileLimitExceeded
	}
	return nil
}

func (a *account) reserve(size int64) error {
	if err := a.admit(size); err != nil {
		return err
	}
	a.pendingBytes += size
	a.pendingFiles++
	return nil
}

func (a *account) release(size int64) {
	a.pendingBytes -= size
	a.pendingFiles--
}

func (a *account) onFileCreated(id string, size int64) {
	if _, ok := a.files[id]; ok {
		return
	}
	a.files[id] = size
	a.usedBytes += size
}

func (a *account) onFileDeleted(id string) {
	size, ok := a.files[id]
	if !ok {
		return
	}
	delete(a.files, id)
	a.usedBytes -= size
}

// Usage is a point-in-time view of one user's ledger.
type Usage struct {
	UsedBytes int64
	FileCount int
	Quota     int64
	MaxFiles  int
}

func (u Usage) AvailableBytes() int64 {
	if u.UsedBytes >= u.Quota {
		return 0
	}
	return u.Quota - u.UsedBytes
}

func (s *Store) usageOf(name string) (Usage, error) {
	acc, err := s.account(name)
	if err != nil {
		return Usage{}, err
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()

	return Usage{
		UsedBytes: acc.usedBytes,
		FileCount: len(acc.files),
		Quota:     acc.user.Quota,
		MaxFiles:  acc.user.MaxFiles,
	}, nil
}
