package services

import (
	"context"
	"time"

	"filedrive/internal/application/metastore"
	"filedrive/internal/application/ports"
)

type UploadCodeService struct {
	store *metastore.Store
	now   func() time.Time
}

func NewUploadCodeService(store *metastore.Store) ports.UploadCodeService {
	return &UploadCodeService{store: store, now: time.Now}
}

func (cs *UploadCodeService) Current(_ context.Context, name string) (string, time.Duration, error) {
	c, err := cs.store.CurrentUploadCode(name)
	if err != nil {
		return "", 0, err
	}

	left := c.ExpiresAt.Sub(cs.now())
	if left < 0 {
		left = 0
	}

	return c.Value, left, nil
}

func (cs *UploadCodeService) Renew(_ context.Context, name string) error {
	return cs.store.RenewUploadCode(name)
}
