package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"filedrive/internal/application/metastore"
	"filedrive/internal/application/ports"
	"filedrive/internal/common"
	"filedrive/internal/domain/user"
	"filedrive/internal/infrastructure/jwt"
)

var (
	ErrInvalidToken          = fmt.Errorf("%w: invalid token", common.ErrUnauthenticated)
	ErrFailedToGenerateToken = errors.New("failed to generate token")
)

type AuthService struct {
	logger     *zap.Logger
	store      *metastore.Store
	jwtService *jwt.Service
	ttl        time.Duration
	mCounter   *prometheus.CounterVec
}

func NewAuthService(
	logger *zap.Logger,
	store *metastore.Store,
	jwtService *jwt.Service,
	ttl time.Duration,
	mCounter *prometheus.CounterVec,
) ports.Auth {
	return &AuthService{
		logger:     logger,
		store:      store,
		jwtService: jwtService,
		ttl:        ttl,
		mCounter:   mCounter,
	}
}

func (as *AuthService) Login(_ context.Context, name, password string) (string, error) {
	u, ok := as.store.VerifyCredential(name, password)
	if !ok {
		as.mCounter.WithLabelValues("login_failed_total").Inc()
		return "", common.ErrInvalidCredentials
	}

	sid := uuid.NewString()
	if err := as.store.AddSession(u.Name, sid); err != nil {
		return "", err
	}

	token, err := as.jwtService.GenerateJWT(u.Name, sid, as.ttl)
	if err != nil {
		as.store.RemoveSession(u.Name, sid)
		as.logger.Error("GenerateJWT() error", zap.Error(err), zap.String("user", u.Name))
		return "", ErrFailedToGenerateToken
	}

	as.mCounter.WithLabelValues("login_total").Inc()

	return token, nil
}

func (as *AuthService) Authenticate(_ context.Context, token string) (user.User, string, error) {
	claims, err := as.jwtService.ValidateToken(token)
	if err != nil {
		return user.User{}, "", ErrInvalidToken
	}

	sid := claims.SessionID()
	if !as.store.HasSession(claims.UserName, sid) {
		return user.User{}, "", common.ErrSessionExpired
	}
	u, ok := as.store.GetUser(claims.UserName)
	if !ok {
		return user.User{}, "", common.ErrSessionExpired
	}

	return u, sid, nil
}

func (as *AuthService) Logout(_ context.Context, name, sessionID string) {
	as.store.RemoveSession(name, sessionID)
	as.mCounter.WithLabelValues("logout_total").Inc()
}
