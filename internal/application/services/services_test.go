package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"filedrive/config"
	"filedrive/internal/application/metastore"
	"filedrive/internal/application/uploadcode"
	"filedrive/internal/domain/file"
	"filedrive/internal/infrastructure/db/memory"
	"filedrive/internal/infrastructure/disk"
	"filedrive/internal/infrastructure/jwt"
	"filedrive/internal/infrastructure/mq"
	"filedrive/internal/infrastructure/password"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []mq.Event
}

func (p *recordingPublisher) Publish(e mq.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Action
	}
	return out
}

type env struct {
	store  *metastore.Store
	events *recordingPublisher
	tmp    string
	blobs  *disk.Store

	users *UserService
	files *FileService
	auth  *AuthService
	codes *UploadCodeService
}

func counter(name string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, []string{"result"})
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()
	blobs, err := disk.New(zap.NewNop(), filepath.Join(root, "blobs"))
	require.NoError(t, err)
	tmp := filepath.Join(root, "tmp")
	require.NoError(t, os.MkdirAll(tmp, 0o750))

	db := memory.New()
	store, err := metastore.Open(context.Background(), zap.NewNop(),
		memory.NewUserRepository(db), memory.NewFileRepository(db), blobs,
		password.NewHasher(bcrypt.MinCost), uploadcode.New(4, 2*time.Minute))
	require.NoError(t, err)

	cfg := config.Storage{
		DefaultQuota:    1000,
		DefaultMaxFiles: 3,
		RootPassword:    "root",
	}
	events := &recordingPublisher{}
	stored := counter("stored")

	e := &env{store: store, events: events, tmp: tmp, blobs: blobs}
	e.users = NewUserService(zap.NewNop(), store, cfg, events, counter("users"), stored).(*UserService)
	e.files = NewFileService(zap.NewNop(), store, events, counter("files"), stored).(*FileService)
	e.auth = NewAuthService(zap.NewNop(), store, jwt.New("secret"), time.Hour, counter("auth")).(*AuthService)
	e.codes = NewUploadCodeService(store).(*UploadCodeService)

	require.NoError(t, e.users.EnsureRoot(context.Background()))

	return e
}

var seq atomic.Int64

func (e *env) incoming(t *testing.T, content, original string) file.Incoming {
	t.Helper()
	p := filepath.Join(e.tmp, fmt.Sprintf("upload-%d", seq.Add(1)))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return file.Incoming{
		TempPath:     p,
		Size:         int64(len(content)),
		OriginalName: original,
		ContentType:  " Text/Plain ",
	}
}

func (e *env) tempFiles(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(e.tmp)
	require.NoError(t, err)
	return len(entries)
}
