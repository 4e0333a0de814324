package metastore

import (
	"filedrive/internal/application/uploadcode"
	"filedrive/internal/common"
)

// CurrentUploadCode returns the live upload code of name, minting one when
// there is none.
func (s *Store) CurrentUploadCode(name string) (uploadcode.Code, error) {
	u, ok := s.GetUser(name)
	if !ok {
		return uploadcode.Code{}, common.ErrUserNotFound
	}
	return s.codes.Current(u.Name)
}

func (s *Store) RenewUploadCode(name string) error {
	u, ok := s.GetUser(name)
	if !ok {
		return common.ErrUserNotFound
	}
	s.codes.Renew(u.Name)
	return nil
}

// resolveUploadCode reports the owner of a live code without using it up.
func (s *Store) resolveUploadCode(value string) (string, bool) {
	owner, ok := s.codes.Resolve(value)
	if !ok {
		return "", false
	}
	if _, ok = s.GetUser(owner); !ok {
		return "", false
	}
	return owner, true
}

// ConsumeUploadCode resolves and invalidates a code in one step; at most one
// caller wins a given code.
func (s *Store) ConsumeUploadCode(value string) (string, bool) {
	owner, ok := s.codes.Consume(value)
	if !ok {
		return "", false
	}
	if _, ok = s.GetUser(owner); !ok {
		return "", false
	}
	return owner, true
}
