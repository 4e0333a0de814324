package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"filedrive/internal/application/ports"
	"filedrive/internal/common"
	domain "filedrive/internal/domain/user"
	"filedrive/internal/interface/api/rest/dto/user"
)

func setupUserRouter(t *testing.T, us ports.UserService) *gin.Engine {
	t.Helper()
	r := newTestRouter(t)
	NewUserController(r, us, zap.NewNop(), &FakeAuth{})
	NewMeController(r, us, zap.NewNop(), &FakeAuth{})
	return r
}

func TestUserController_AdminOnly(t *testing.T) {
	r := setupUserRouter(t, &FakeUserService{})

	rr := doReq(t, r, http.MethodGet, RouteUsers, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doReq(t, r, http.MethodGet, RouteUsers, nil, bearer("bogus"))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid token", errorOf(t, rr))

	rr = doReq(t, r, http.MethodGet, RouteUsers, nil, bearer(aliceToken))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUserController_GetUsersHandler(t *testing.T) {
	r := setupUserRouter(t, &FakeUserService{
		ListUsersFunc: func(ctx context.Context) domain.Users {
			a, b := someUser("alice"), someUser("bob")
			return domain.Users{&a, &b}
		},
	})

	rr := doReq(t, r, http.MethodGet, RouteUsers, nil, bearer(rootToken))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp user.ResponseData
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "alice", resp.Data[0].Name)
	assert.EqualValues(t, 900, resp.Data[0].AvailableBytes)
	assert.Equal(t, 1, resp.Data[0].Files)
}

func TestUserController_CreateUserHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		create     func(ctx context.Context, name, password string) (domain.User, error)
		wantStatus int
		wantErr    string
	}{
		{
			name:       "400 invalid json",
			body:       "{bad",
			wantStatus: http.StatusBadRequest,
			wantErr:    "invalid json",
		},
		{
			name:       "400 invalid name",
			body:       user.Request{Name: "Al", Password: "pw", PasswordConfirm: "pw"},
			wantStatus: http.StatusBadRequest,
			wantErr:    "invalid request body",
		},
		{
			name:       "400 password mismatch",
			body:       user.Request{Name: "carol", Password: "pw", PasswordConfirm: "px"},
			wantStatus: http.StatusBadRequest,
			wantErr:    "invalid request body",
		},
		{
			name: "409 duplicate",
			body: user.Request{Name: "carol", Password: "pw", PasswordConfirm: "pw"},
			create: func(ctx context.Context, name, password string) (domain.User, error) {
				return domain.User{}, common.ErrDuplicateName
			},
			wantStatus: http.StatusConflict,
			wantErr:    common.ErrDuplicateName.Error(),
		},
		{
			name: "500 service error",
			body: user.Request{Name: "carol", Password: "pw", PasswordConfirm: "pw"},
			create: func(ctx context.Context, name, password string) (domain.User, error) {
				return domain.User{}, errors.New("db down")
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "201 success",
			body: user.Request{Name: "carol", Password: "pw", PasswordConfirm: "pw"},
			create: func(ctx context.Context, name, password string) (domain.User, error) {
				return someUser(name), nil
			},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := setupUserRouter(t, &FakeUserService{CreateUserFunc: tt.create})
			rr := doReq(t, r, http.MethodPost, RouteUsers, tt.body, bearer(rootToken))
			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, errorOf(t, rr))
			}
		})
	}
}

func TestUserController_ChangeLimitsKeepsOmittedValues(t *testing.T) {
	var got domain.Limits
	r := setupUserRouter(t, &FakeUserService{
		GetUserFunc: func(ctx context.Context, name string) (domain.User, error) {
			return someUser("alice"), nil
		},
		ChangeLimitsFunc: func(ctx context.Context, actor, name string, l domain.Limits) (domain.User, error) {
			assert.Equal(t, domain.RootName, actor)
			assert.Equal(t, "alice", name)
			got = l
			u := someUser(name)
			u.Quota, u.MaxFiles = l.Quota, l.MaxFiles
			return u, nil
		},
	})

	rr := doReq(t, r, http.MethodPut, "/api/v1/users/alice/limits", map[string]any{"quota": 4096}, bearer(rootToken))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.Limits{Quota: 4096, MaxFiles: 16}, got)

	rr = doReq(t, r, http.MethodPut, "/api/v1/users/alice/limits", map[string]any{}, bearer(rootToken))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUserController_ErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		us         *FakeUserService
		wantStatus int
	}{
		{
			name:   "403 root protected",
			method: http.MethodDelete,
			path:   "/api/v1/users/root",
			us: &FakeUserService{DeleteUserFunc: func(ctx context.Context, actor, name string) error {
				return common.ErrRootProtected
			}},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "404 unknown user",
			method: http.MethodGet,
			path:   "/api/v1/users/ghost",
			us: &FakeUserService{GetUserFunc: func(ctx context.Context, name string) (domain.User, error) {
				return domain.User{}, common.ErrUserNotFound
			}},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "400 admin flag missing",
			method:     http.MethodPut,
			path:       "/api/v1/users/alice/admin",
			body:       map[string]any{},
			us:         &FakeUserService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "200 promote",
			method: http.MethodPut,
			path:   "/api/v1/users/alice/admin",
			body:   map[string]any{"is_admin": true},
			us: &FakeUserService{SetAdminFunc: func(ctx context.Context, actor, name string, isAdmin bool) (domain.User, error) {
				u := someUser(name)
				u.IsAdmin = isAdmin
				return u, nil
			}},
			wantStatus: http.StatusOK,
		},
		{
			name:   "204 admin resets password",
			method: http.MethodPut,
			path:   "/api/v1/users/alice/password",
			body:   user.PasswordRequest{NewPassword: "n", NewPasswordConfirm: "n"},
			us: &FakeUserService{ChangePasswordFunc: func(ctx context.Context, actor, name, current, next string) error {
				return nil
			}},
			wantStatus: http.StatusNoContent,
		},
		{
			name:   "204 delete",
			method: http.MethodDelete,
			path:   "/api/v1/users/alice",
			us: &FakeUserService{DeleteUserFunc: func(ctx context.Context, actor, name string) error {
				return nil
			}},
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := setupUserRouter(t, tt.us)
			rr := doReq(t, r, tt.method, tt.path, tt.body, bearer(rootToken))
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestMeController(t *testing.T) {
	var changed bool
	r := setupUserRouter(t, &FakeUserService{
		GetUserFunc: func(ctx context.Context, name string) (domain.User, error) {
			return someUser(name), nil
		},
		ChangePasswordFunc: func(ctx context.Context, actor, name, current, next string) error {
			assert.Equal(t, "alice", actor)
			assert.Equal(t, "alice", name)
			if current != "old" {
				return errors.New("unexpected")
			}
			changed = true
			return nil
		},
	})

	rr := doReq(t, r, http.MethodGet, RouteMe, nil, bearer(aliceToken))
	require.Equal(t, http.StatusOK, rr.Code)
	var me user.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, "alice", me.Name)

	rr = doReq(t, r, http.MethodPut, RouteMePassword,
		user.PasswordRequest{NewPassword: "new", NewPasswordConfirm: "new"}, bearer(aliceToken))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doReq(t, r, http.MethodPut, RouteMePassword,
		user.PasswordRequest{CurrentPassword: "old", NewPassword: "new", NewPasswordConfirm: "new"}, bearer(aliceToken))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, changed)
}
