package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"filedrive/internal/common"
	domainFile "filedrive/internal/domain/file"
	domain "filedrive/internal/domain/user"
)

const (
	aliceToken = "alice-token"
	rootToken  = "root-token"
)

type FakeAuth struct {
	LoginFunc  func(ctx context.Context, name, password string) (string, error)
	LogoutFunc func(ctx context.Context, name, sessionID string)
}

func (f *FakeAuth) Login(ctx context.Context, name, password string) (string, error) {
	if f.LoginFunc == nil {
		return "", errors.New("not used")
	}
	return f.LoginFunc(ctx, name, password)
}

// Authenticate knows two fixed tokens: alice (regular) and root (admin).
func (f *FakeAuth) Authenticate(_ context.Context, token string) (domain.User, string, error) {
	switch token {
	case aliceToken:
		return someUser("alice"), "sid-alice", nil
	case rootToken:
		u := someUser(domain.RootName)
		u.IsAdmin = true
		return u, "sid-root", nil
	}
	return domain.User{}, "", common.ErrSessionExpired
}

func (f *FakeAuth) Logout(ctx context.Context, name, sessionID string) {
	if f.LogoutFunc != nil {
		f.LogoutFunc(ctx, name, sessionID)
	}
}

type FakeUserService struct {
	EnsureRootFunc     func(ctx context.Context) error
	ListUsersFunc      func(ctx context.Context) domain.Users
	GetUserFunc        func(ctx context.Context, name string) (domain.User, error)
	CreateUserFunc     func(ctx context.Context, name, password string) (domain.User, error)
	ChangeLimitsFunc   func(ctx context.Context, actor, name string, l domain.Limits) (domain.User, error)
	SetAdminFunc       func(ctx context.Context, actor, name string, isAdmin bool) (domain.User, error)
	ChangePasswordFunc func(ctx context.Context, actor, name, current, next string) error
	DeleteUserFunc     func(ctx context.Context, actor, name string) error
}

func (f *FakeUserService) EnsureRoot(ctx context.Context) error {
	if f.EnsureRootFunc == nil {
		return errors.New("not used")
	}
	return f.EnsureRootFunc(ctx)
}
func (f *FakeUserService) ListUsers(ctx context.Context) domain.Users {
	if f.ListUsersFunc == nil {
		return nil
	}
	return f.ListUsersFunc(ctx)
}
func (f *FakeUserService) GetUser(ctx context.Context, name string) (domain.User, error) {
	if f.GetUserFunc == nil {
		return domain.User{}, errors.New("not used")
	}
	return f.GetUserFunc(ctx, name)
}
func (f *FakeUserService) CreateUser(ctx context.Context, name, password string) (domain.User, error) {
	if f.CreateUserFunc == nil {
		return domain.User{}, errors.New("not used")
	}
	return f.CreateUserFunc(ctx, name, password)
}
func (f *FakeUserService) ChangeLimits(ctx context.Context, actor, name string, l domain.Limits) (domain.User, error) {
	if f.ChangeLimitsFunc == nil {
		return domain.User{}, errors.New("not used")
	}
	return f.ChangeLimitsFunc(ctx, actor, name, l)
}
func (f *FakeUserService) SetAdmin(ctx context.Context, actor, name string, isAdmin bool) (domain.User, error) {
	if f.SetAdminFunc == nil {
		return domain.User{}, errors.New("not used")
	}
	return f.SetAdminFunc(ctx, actor, name, isAdmin)
}
func (f *FakeUserService) ChangePassword(ctx context.Context, actor, name, current, next string) error {
	if f.ChangePasswordFunc == nil {
		return errors.New("not used")
	}
	return f.ChangePasswordFunc(ctx, actor, name, current, next)
}
func (f *FakeUserService) DeleteUser(ctx context.Context, actor, name string) error {
	if f.DeleteUserFunc == nil {
		return errors.New("not used")
	}
	return f.DeleteUserFunc(ctx, actor, name)
}

type FakeFileService struct {
	UploadFunc         func(ctx context.Context, owner string, in domainFile.Incoming) (domainFile.File, error)
	UploadWithCodeFunc func(ctx context.Context, code string, in domainFile.Incoming) (domainFile.File, error)
	ListFunc           func(ctx context.Context, owner string, sort domainFile.SortMode) (domainFile.Files, error)
	GetFunc            func(ctx context.Context, viewer, id string) (domainFile.File, error)
	OpenFunc           func(ctx context.Context, viewer, id string) (domainFile.File, io.ReadCloser, error)
	SetVisibilityFunc  func(ctx context.Context, actor, id string, isPublic bool) (domainFile.File, error)
	DeleteFunc         func(ctx context.Context, actor, id string) error
}

func (f *FakeFileService) Upload(ctx context.Context, owner string, in domainFile.Incoming) (domainFile.File, error) {
	if f.UploadFunc == nil {
		return domainFile.File{}, errors.New("not used")
	}
	return f.UploadFunc(ctx, owner, in)
}
func (f *FakeFileService) UploadWithCode(ctx context.Context, code string, in domainFile.Incoming) (domainFile.File, error) {
	if f.UploadWithCodeFunc == nil {
		return domainFile.File{}, errors.New("not used")
	}
	return f.UploadWithCodeFunc(ctx, code, in)
}
func (f *FakeFileService) List(ctx context.Context, owner string, sort domainFile.SortMode) (domainFile.Files, error) {
	if f.ListFunc == nil {
		return nil, errors.New("not used")
	}
	return f.ListFunc(ctx, owner, sort)
}
func (f *FakeFileService) Get(ctx context.Context, viewer, id string) (domainFile.File, error) {
	if f.GetFunc == nil {
		return domainFile.File{}, errors.New("not used")
	}
	return f.GetFunc(ctx, viewer, id)
}
func (f *FakeFileService) Open(ctx context.Context, viewer, id string) (domainFile.File, io.ReadCloser, error) {
	if f.OpenFunc == nil {
		return domainFile.File{}, nil, errors.New("not used")
	}
	return f.OpenFunc(ctx, viewer, id)
}
func (f *FakeFileService) SetVisibility(ctx context.Context, actor, id string, isPublic bool) (domainFile.File, error) {
	if f.SetVisibilityFunc == nil {
		return domainFile.File{}, errors.New("not used")
	}
	return f.SetVisibilityFunc(ctx, actor, id, isPublic)
}
func (f *FakeFileService) Delete(ctx context.Context, actor, id string) error {
	if f.DeleteFunc == nil {
		return errors.New("not used")
	}
	return f.DeleteFunc(ctx, actor, id)
}

type FakeCodeService struct {
	CurrentFunc func(ctx context.Context, name string) (string, time.Duration, error)
	RenewFunc   func(ctx context.Context, name string) error
}

func (f *FakeCodeService) Current(ctx context.Context, name string) (string, time.Duration, error) {
	if f.CurrentFunc == nil {
		return "", 0, errors.New("not used")
	}
	return f.CurrentFunc(ctx, name)
}
func (f *FakeCodeService) Renew(ctx context.Context, name string) error {
	if f.RenewFunc == nil {
		return errors.New("not used")
	}
	return f.RenewFunc(ctx, name)
}

func someUser(name string) domain.User {
	return domain.User{
		Name:      name,
		Quota:     1000,
		MaxFiles:  16,
		UsedBytes: 100,
		Files:     []string{"abc123"},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func someFile(id, owner string) domainFile.File {
	return domainFile.File{
		ID:          id,
		Name:        "report",
		ContentType: "text/plain",
		Extension:   "txt",
		Size:        5,
		CreatedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Owner:       owner,
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func doReq(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf *bytes.Reader
	switch v := body.(type) {
	case nil:
		buf = bytes.NewReader(nil)
	case string:
		buf = bytes.NewReader([]byte(v))
	default:
		b, err := json.Marshal(v)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	s, _ := resp["error"].(string)
	return s
}
