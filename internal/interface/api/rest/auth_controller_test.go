package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"filedrive/internal/common"
	"filedrive/internal/interface/api/rest/dto/auth"
)

func TestAuthController_LoginHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		login      func(ctx context.Context, name, password string) (string, error)
		wantStatus int
		wantErr    string
	}{
		{
			name:       "400 invalid json",
			body:       "{bad json",
			wantStatus: http.StatusBadRequest,
			wantErr:    "invalid json",
		},
		{
			name:       "400 validation error",
			body:       auth.LoginRequest{Name: " "},
			wantStatus: http.StatusBadRequest,
			wantErr:    "invalid request body",
		},
		{
			name: "401 invalid credentials",
			body: auth.LoginRequest{Name: "alice", Password: "nope"},
			login: func(ctx context.Context, name, password string) (string, error) {
				return "", common.ErrInvalidCredentials
			},
			wantStatus: http.StatusUnauthorized,
			wantErr:    common.ErrInvalidCredentials.Error(),
		},
		{
			name: "500 token failure is not leaked",
			body: auth.LoginRequest{Name: "alice", Password: "pw"},
			login: func(ctx context.Context, name, password string) (string, error) {
				return "", errors.New("signing key missing")
			},
			wantStatus: http.StatusInternalServerError,
			wantErr:    http.StatusText(http.StatusInternalServerError),
		},
		{
			name: "200 success",
			body: auth.LoginRequest{Name: "alice", Password: "pw"},
			login: func(ctx context.Context, name, password string) (string, error) {
				return "signed", nil
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t)
			NewAuthController(r, zap.NewNop(), &FakeAuth{LoginFunc: tt.login})

			rr := doReq(t, r, http.MethodPost, RouteLogin, tt.body, nil)
			require.Equal(t, tt.wantStatus, rr.Code)

			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, errorOf(t, rr))
				return
			}
			var resp auth.LoginResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, "signed", resp.AccessToken)
			assert.Equal(t, "Bearer", resp.TokenType)
		})
	}
}

func TestAuthController_LogoutHandler(t *testing.T) {
	var gotName, gotSID string
	fa := &FakeAuth{LogoutFunc: func(ctx context.Context, name, sessionID string) {
		gotName, gotSID = name, sessionID
	}}
	r := newTestRouter(t)
	NewAuthController(r, zap.NewNop(), fa)

	rr := doReq(t, r, http.MethodPost, RouteLogout, nil, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "missing Authorization header", errorOf(t, rr))

	rr = doReq(t, r, http.MethodPost, RouteLogout, nil, bearer(aliceToken))
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "alice", gotName)
	assert.Equal(t, "sid-alice", gotSID)
}
