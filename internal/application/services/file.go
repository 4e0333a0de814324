package services

import (
	"context"
	"io"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"filedrive/internal/application/metastore"
	"filedrive/internal/application/ports"
	"filedrive/internal/common"
	domain "filedrive/internal/domain/file"
	"filedrive/internal/infrastructure/mq"
	"filedrive/internal/interface/api/rest/dto/file"
)

const (
	maxNameLen  = 255
	unnamedFile = "unnamed"
)

type FileService struct {
	logger      *zap.Logger
	store       *metastore.Store
	mq          ports.EventPublisher
	mCounter    *prometheus.CounterVec
	storedBytes *prometheus.CounterVec
}

func NewFileService(
	logger *zap.Logger,
	store *metastore.Store,
	mq ports.EventPublisher,
	mCounter *prometheus.CounterVec,
	storedBytes *prometheus.CounterVec,
) ports.FileService {
	return &FileService{
		logger:      logger,
		store:       store,
		mq:          mq,
		mCounter:    mCounter,
		storedBytes: storedBytes,
	}
}

func (fs *FileService) Upload(ctx context.Context, owner string, in domain.Incoming) (domain.File, error) {
	f, err := fs.store.Relocate(ctx, toUpload(owner, in))
	if err != nil {
		fs.mCounter.WithLabelValues("file_rejected_total").Inc()
		return domain.File{}, err
	}

	fs.mq.Publish(mq.NewEvent(mq.FileCreated, f.Owner, file.ToResponseFile(f)))
	fs.mCounter.WithLabelValues("file_created_total").Inc()
	fs.storedBytes.WithLabelValues("stored").Add(float64(f.Size))

	return f, nil
}

// UploadWithCode spends the code first: a code is single use even when the
// upload behind it is rejected afterwards.
func (fs *FileService) UploadWithCode(ctx context.Context, code string, in domain.Incoming) (domain.File, error) {
	owner, ok := fs.store.ConsumeUploadCode(strings.TrimSpace(code))
	if !ok {
		fs.store.Discard(metastore.Upload{TempPath: in.TempPath})
		fs.mCounter.WithLabelValues("upload_code_rejected_total").Inc()
		return domain.File{}, common.ErrCodeNotFound
	}

	return fs.Upload(ctx, owner, in)
}

func (fs *FileService) List(_ context.Context, owner string, mode domain.SortMode) (domain.Files, error) {
	files, err := fs.store.FilesOf(owner)
	if err != nil {
		return nil, err
	}
	if !mode.Valid() {
		mode = domain.DefaultSort
	}
	sortFiles(files, mode)

	return files, nil
}

func (fs *FileService) Get(_ context.Context, viewer, id string) (domain.File, error) {
	f, ok := fs.store.GetFile(id)
	if !ok || !visible(f, viewer) {
		return domain.File{}, common.ErrFileNotFound
	}

	return f, nil
}

func (fs *FileService) Open(ctx context.Context, viewer, id string) (domain.File, io.ReadCloser, error) {
	if _, err := fs.Get(ctx, viewer, id); err != nil {
		return domain.File{}, nil, err
	}

	return fs.store.OpenBlob(ctx, id)
}

func (fs *FileService) SetVisibility(ctx context.Context, actor, id string, isPublic bool) (domain.File, error) {
	if _, err := fs.owned(actor, id); err != nil {
		return domain.File{}, err
	}

	f, err := fs.store.SetVisibility(ctx, id, isPublic)
	if err != nil {
		return domain.File{}, err
	}

	fs.mCounter.WithLabelValues("file_visibility_changed_total").Inc()

	return f, nil
}

func (fs *FileService) Delete(ctx context.Context, actor, id string) error {
	if _, err := fs.owned(actor, id); err != nil {
		return err
	}

	removal, err := fs.store.DeleteFile(ctx, id)
	if err != nil {
		return err
	}

	fs.mq.Publish(mq.NewEvent(mq.FileDeleted, removal.File.Owner, file.ToResponseFile(removal.File)))
	fs.mCounter.WithLabelValues("file_deleted_total").Inc()
	fs.storedBytes.WithLabelValues("released").Add(float64(removal.File.Size))

	return nil
}

// owned hides files the actor cannot see and refuses the ones it can see
// but does not own.
func (fs *FileService) owned(actor, id string) (domain.File, error) {
	f, ok := fs.store.GetFile(id)
	if !ok || !visible(f, actor) {
		return domain.File{}, common.ErrFileNotFound
	}
	if f.Owner != actor {
		return domain.File{}, common.ErrNotOwner
	}

	return f, nil
}

func visible(f domain.File, viewer string) bool {
	return f.IsPublic || (viewer != "" && f.Owner == viewer)
}

func toUpload(owner string, in domain.Incoming) metastore.Upload {
	return metastore.Upload{
		TempPath:    in.TempPath,
		Size:        in.Size,
		Name:        displayName(in.DisplayName, in.OriginalName),
		ContentType: strings.ToLower(strings.TrimSpace(in.ContentType)),
		Extension:   extension(in.OriginalName),
		Owner:       owner,
	}
}

func displayName(typed, original string) string {
	for _, candidate := range []string{typed, original} {
		if name := cleanName(candidate); name != "" {
			return name
		}
	}

	return unnamedFile
}

// extension is the text after the last dot of the original name; a leading
// dot does not start an extension.
func extension(original string) string {
	name := cleanName(original)
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[i+1:]
	}

	return ""
}

// cleanName drops directory parts and control characters and composes the
// name to NFC.
func cleanName(s string) string {
	s = strings.ReplaceAll(s, "\\", "/")
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}

	t := transform.Chain(norm.NFC, transform.RemoveFunc(unicode.IsControl))
	s, _, _ = transform.String(t, s)
	s = strings.TrimSpace(s)

	for utf8.RuneCountInString(s) > maxNameLen {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}

	return s
}

func sortFiles(files domain.Files, mode domain.SortMode) {
	var less func(a, b *domain.File) bool
	switch mode {
	case domain.SortNameAsc:
		less = func(a, b *domain.File) bool { return a.Name < b.Name }
	case domain.SortNameDesc:
		less = func(a, b *domain.File) bool { return a.Name > b.Name }
	case domain.SortUploadDesc:
		less = func(a, b *domain.File) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case domain.SortSizeDesc:
		less = func(a, b *domain.File) bool { return a.Size > b.Size }
	case domain.SortSizeAsc:
		less = func(a, b *domain.File) bool { return a.Size < b.Size }
	default:
		// upload-asc lists the newest upload first
		less = func(a, b *domain.File) bool { return a.CreatedAt.After(b.CreatedAt) }
	}

	sort.SliceStable(files, func(i, j int) bool { return less(files[i], files[j]) })
}
