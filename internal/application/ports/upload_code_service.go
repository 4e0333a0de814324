package ports

import (
	"context"
	"time"
)

type UploadCodeService interface {
	Current(ctx context.Context, name string) (code string, expiresIn time.Duration, err error)
	Renew(ctx context.Context, name string) error
}
