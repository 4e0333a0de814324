package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filedrive/internal/common"
	"filedrive/internal/domain/file"
	"filedrive/internal/infrastructure/mq"
)

func TestDisplayNameAndExtension(t *testing.T) {
	tests := []struct {
		name     string
		typed    string
		original string
		wantName string
		wantExt  string
	}{
		{"typed wins", "  Quarterly report ", "q1.pdf", "Quarterly report", "pdf"},
		{"original fallback", "", "photo.JPG", "photo.JPG", "JPG"},
		{"unnamed", "", "", "unnamed", ""},
		{"windows path", "", `C:\Users\al\notes.txt`, "notes.txt", "txt"},
		{"unix path", "", "../../etc/passwd", "passwd", ""},
		{"leading dot is not an extension", "", ".bashrc", ".bashrc", ""},
		{"last dot wins", "", "archive.tar.gz", "archive.tar.gz", "gz"},
		{"control chars dropped", "a\x00b\tc", "x", "abc", ""},
		{"decomposed composed", "", "cafe\u0301.txt", "caf\u00e9.txt", "txt"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantName, displayName(tt.typed, tt.original))
			assert.Equal(t, tt.wantExt, extension(tt.original))
		})
	}
}

func TestCleanName_TruncatesOnRuneBoundary(t *testing.T) {
	got := cleanName(strings.Repeat("é", maxNameLen+10))
	assert.Equal(t, strings.Repeat("é", maxNameLen), got)
}

func TestSortFiles(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func() file.Files {
		return file.Files{
			{ID: "a", Name: "beta", Size: 30, CreatedAt: base.Add(2 * time.Hour)},
			{ID: "b", Name: "alpha", Size: 10, CreatedAt: base},
			{ID: "c", Name: "gamma", Size: 20, CreatedAt: base.Add(time.Hour)},
		}
	}
	ids := func(fs file.Files) []string {
		out := make([]string, len(fs))
		for i, f := range fs {
			out[i] = f.ID
		}
		return out
	}

	tests := []struct {
		mode file.SortMode
		want []string
	}{
		{file.SortNameAsc, []string{"b", "a", "c"}},
		{file.SortNameDesc, []string{"c", "a", "b"}},
		{file.SortUploadAsc, []string{"a", "c", "b"}},
		{file.SortUploadDesc, []string{"b", "c", "a"}},
		{file.SortSizeDesc, []string{"a", "c", "b"}},
		{file.SortSizeAsc, []string{"b", "c", "a"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.mode), func(t *testing.T) {
			fs := mk()
			sortFiles(fs, tt.mode)
			assert.Equal(t, tt.want, ids(fs))
		})
	}
}

func TestFileService_UploadDerivesMetadata(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.users.CreateUser(ctx, "alice", "pw")
	require.NoError(t, err)

	in := e.incoming(t, "hello", "Report.Final.PDF")
	f, err := e.files.Upload(ctx, "alice", in)
	require.NoError(t, err)

	assert.Equal(t, "Report.Final.PDF", f.Name)
	assert.Equal(t, "PDF", f.Extension)
	assert.Equal(t, "text/plain", f.ContentType)
	assert.EqualValues(t, 5, f.Size)
	assert.False(t, f.IsPublic)
	assert.Equal(t, 0, e.tempFiles(t))
	assert.Equal(t, []string{mq.UserCreated, mq.UserCreated, mq.FileCreated}, e.events.actions())
}

func TestFileService_UploadOverQuotaRemovesTemp(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.users.CreateUser(ctx, "alice", "pw")
	require.NoError(t, err)

	_, err = e.files.Upload(ctx, "alice", e.incoming(t, strings.Repeat("x", 1000), "big.bin"))
	require.ErrorIs(t, err, common.ErrQuotaExceeded)
	assert.Equal(t, 0, e.tempFiles(t))
}

func TestFileService_UploadWithCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.users.CreateUser(ctx, "alice", "pw")
	require.NoError(t, err)

	code, left, err := e.codes.Current(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, code, 4)
	assert.Greater(t, left, time.Duration(0))
	assert.LessOrEqual(t, left, 2*time.Minute)

	f, err := e.files.UploadWithCode(ctx, " "+code+" ", e.incoming(t, "via code", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alice", f.Owner)

	// single use
	_, err = e.files.UploadWithCode(ctx, code, e.incoming(t, "again", "d.txt"))
	require.ErrorIs(t, err, common.ErrCodeNotFound)
	assert.Equal(t, 0, e.tempFiles(t))

	files, err := e.files.List(ctx, "alice", "")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestFileService_RejectedUploadStillSpendsCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.users.CreateUser(ctx, "alice", "pw")
	require.NoError(t, err)
	code, _, err := e.codes.Current(ctx, "alice")
	require.NoError(t, err)

	_, err = e.files.UploadWithCode(ctx, code, e.incoming(t, strings.Repeat("x", 2000), "big.bin"))
	require.ErrorIs(t, err, common.ErrQuotaExceeded)

	_, err = e.files.UploadWithCode(ctx, code, e.incoming(t, "small", "s.txt"))
	require.ErrorIs(t, err, common.ErrCodeNotFound)
}

func TestUploadCodeService_Renew(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.users.CreateUser(ctx, "alice", "pw")
	require.NoError(t, err)

	require.NoError(t, e.codes.Renew(ctx, "alice"))
	require.ErrorIs(t, e.codes.Renew(ctx, "nobody"), common.ErrUserNotFound)

	_, _, err = e.codes.Current(ctx, "nobody")
	require.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestFileService_Visibility(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, name := range []string{"alice", "bob"} {
		_, err := e.users.CreateUser(ctx, name, "pw")
		require.NoError(t, err)
	}
	f, err := e.files.Upload(ctx, "alice", e.incoming(t, "secret", "s.txt"))
	require.NoError(t, err)

	_, err = e.files.Get(ctx, "alice", f.ID)
	require.NoError(t, err)
	_, err = e.files.Get(ctx, "bob", f.ID)
	require.ErrorIs(t, err, common.ErrFileNotFound)
	_, err = e.files.Get(ctx, "", f.ID)
	require.ErrorIs(t, err, common.ErrFileNotFound)
	_, err = e.files.SetVisibility(ctx, "bob", f.ID, true)
	require.ErrorIs(t, err, common.ErrFileNotFound)

	_, err = e.files.SetVisibility(ctx, "alice", f.ID, true)
	require.NoError(t, err)

	got, rc, err := e.files.Open(ctx, "", f.ID)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "secret", string(body))
	assert.True(t, got.IsPublic)

	_, err = e.files.SetVisibility(ctx, "bob", f.ID, false)
	require.ErrorIs(t, err, common.ErrNotOwner)
	require.ErrorIs(t, e.files.Delete(ctx, "bob", f.ID), common.ErrNotOwner)
}

func TestFileService_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.users.CreateUser(ctx, "alice", "pw")
	require.NoError(t, err)
	f, err := e.files.Upload(ctx, "alice", e.incoming(t, "bye", "b.txt"))
	require.NoError(t, err)

	require.NoError(t, e.files.Delete(ctx, "alice", f.ID))
	require.ErrorIs(t, e.files.Delete(ctx, "alice", f.ID), common.ErrFileNotFound)

	u, err := e.users.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, u.UsedBytes)
	assert.Empty(t, u.Files)
	assert.Contains(t, e.events.actions(), mq.FileDeleted)
}
