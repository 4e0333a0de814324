// Package common defines the error taxonomy shared by the metadata store,
// the infrastructure adapters and the transport layer. Every specific error
// wraps exactly one kind, so callers can match either level with errors.Is.
package common

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrIOFailure         = errors.New("io failure")
	ErrInconsistent      = errors.New("inconsistent state")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrPermissionDenied  = errors.New("permission denied")
)

var (
	// Identity errors.
	ErrInvalidName       = fmt.Errorf("%w: user name must match [a-z0-9-_.]{3,50}", ErrInvalidInput)
	ErrInvalidCredential = fmt.Errorf("%w: credential must not be empty", ErrInvalidInput)
	ErrDuplicateName     = fmt.Errorf("%w: user with this name already exists", ErrConflict)
	ErrUserNotFound      = fmt.Errorf("%w: user", ErrNotFound)

	// Registry errors.
	ErrInvalidID        = fmt.Errorf("%w: file id contains a path separator", ErrInvalidInput)
	ErrDuplicateID      = fmt.Errorf("%w: file with this id is already registered", ErrConflict)
	ErrUnknownOwner     = fmt.Errorf("%w: owner", ErrNotFound)
	ErrFileNotFound     = fmt.Errorf("%w: file", ErrNotFound)
	ErrIDSpaceExhausted = fmt.Errorf("%w: no free file id after retries", ErrResourceExhausted)

	// Admission errors.
	ErrQuotaExceeded     = fmt.Errorf("%w: not enough free space", ErrResourceExhausted)
	ErrFileLimitExceeded = fmt.Errorf("%w: file count limit reached", ErrResourceExhausted)

	// Upload code errors.
	ErrCodeNotFound       = fmt.Errorf("%w: upload code", ErrNotFound)
	ErrCodeSpaceExhausted = fmt.Errorf("%w: no free upload code after retries", ErrResourceExhausted)

	// Blob/registry divergence.
	ErrBlobExists  = fmt.Errorf("%w: blob already present for unregistered id", ErrInconsistent)
	ErrBlobMissing = fmt.Errorf("%w: registered file has no blob", ErrInconsistent)
	ErrOrphanFile  = fmt.Errorf("%w: file owner is not registered", ErrInconsistent)

	// Access errors.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	ErrSessionExpired     = fmt.Errorf("%w: session is not active", ErrUnauthenticated)
	ErrRootProtected      = fmt.Errorf("%w: root account can only be changed by root", ErrPermissionDenied)
	ErrAdminRequired      = fmt.Errorf("%w: admin rights required", ErrPermissionDenied)
	ErrNotOwner           = fmt.Errorf("%w: only the owner can change this file", ErrPermissionDenied)

	// Lifecycle.
	ErrAlreadyInitialized = errors.New("metadata store already initialized")
)
