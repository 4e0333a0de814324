package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"filedrive/config"
	"filedrive/internal/application/metastore"
	"filedrive/internal/application/ports"
	"filedrive/internal/common"
	domain "filedrive/internal/domain/user"
	"filedrive/internal/infrastructure/mq"
	"filedrive/internal/interface/api/rest/dto/user"
)

var ErrWrongPassword = fmt.Errorf("%w: current password does not match", common.ErrInvalidInput)

type UserService struct {
	logger      *zap.Logger
	store       *metastore.Store
	cfg         config.Storage
	mq          ports.EventPublisher
	mCounter    *prometheus.CounterVec
	storedBytes *prometheus.CounterVec
}

func NewUserService(
	logger *zap.Logger,
	store *metastore.Store,
	cfg config.Storage,
	mq ports.EventPublisher,
	mCounter *prometheus.CounterVec,
	storedBytes *prometheus.CounterVec,
) ports.UserService {
	return &UserService{
		logger:      logger,
		store:       store,
		cfg:         cfg,
		mq:          mq,
		mCounter:    mCounter,
		storedBytes: storedBytes,
	}
}

func (us *UserService) EnsureRoot(ctx context.Context) error {
	if _, ok := us.store.GetUser(domain.RootName); ok {
		return nil
	}

	_, err := us.store.CreateUser(ctx, domain.RootName, us.cfg.RootPassword, 0, 0)
	if err != nil && !errors.Is(err, common.ErrDuplicateName) {
		return fmt.Errorf("create root: %w", err)
	}
	u, err := us.store.SetAdmin(ctx, domain.RootName, true)
	if err != nil {
		return fmt.Errorf("promote root: %w", err)
	}

	us.logger.Warn("root account created, change its password",
		zap.String("user", u.Name), zap.String("password", us.cfg.RootPassword))
	us.mq.Publish(mq.NewEvent(mq.UserCreated, u.Name, user.ToResponseUser(u)))

	return nil
}

func (us *UserService) ListUsers(_ context.Context) domain.Users {
	return us.store.Users()
}

func (us *UserService) GetUser(_ context.Context, name string) (domain.User, error) {
	u, ok := us.store.GetUser(name)
	if !ok {
		return domain.User{}, common.ErrUserNotFound
	}

	return u, nil
}

func (us *UserService) CreateUser(ctx context.Context, name, password string) (domain.User, error) {
	u, err := us.store.CreateUser(ctx, name, password, us.cfg.DefaultQuota, us.cfg.DefaultMaxFiles)
	if err != nil {
		return domain.User{}, err
	}

	us.mq.Publish(mq.NewEvent(mq.UserCreated, u.Name, user.ToResponseUser(u)))
	us.mCounter.WithLabelValues("user_created_total").Inc()

	return u, nil
}

func (us *UserService) ChangeLimits(ctx context.Context, actor, name string, l domain.Limits) (domain.User, error) {
	target, err := us.target(actor, name)
	if err != nil {
		return domain.User{}, err
	}
	if l.Quota < 0 || l.MaxFiles < 0 {
		return domain.User{}, fmt.Errorf("%w: limits must not be negative", common.ErrInvalidInput)
	}

	if _, err = us.store.SetQuota(ctx, target.Name, l.Quota); err != nil {
		return domain.User{}, err
	}
	u, err := us.store.SetMaxFiles(ctx, target.Name, l.MaxFiles)
	if err != nil {
		return domain.User{}, err
	}

	us.updated(u)

	return u, nil
}

func (us *UserService) SetAdmin(ctx context.Context, actor, name string, isAdmin bool) (domain.User, error) {
	target, err := us.target(actor, name)
	if err != nil {
		return domain.User{}, err
	}
	if target.IsRoot() && !isAdmin {
		return domain.User{}, common.ErrRootProtected
	}

	u, err := us.store.SetAdmin(ctx, target.Name, isAdmin)
	if err != nil {
		return domain.User{}, err
	}

	us.updated(u)

	return u, nil
}

func (us *UserService) ChangePassword(ctx context.Context, actor, name, current, next string) error {
	target, ok := us.store.GetUser(name)
	if !ok {
		return common.ErrUserNotFound
	}

	if target.Name == actor {
		if _, ok = us.store.VerifyCredential(actor, current); !ok {
			return ErrWrongPassword
		}
	} else {
		if target.IsRoot() {
			return common.ErrRootProtected
		}
		if err := us.requireAdmin(actor); err != nil {
			return err
		}
	}

	u, err := us.store.SetCredential(ctx, target.Name, next)
	if err != nil {
		return err
	}

	us.updated(u)

	return nil
}

func (us *UserService) DeleteUser(ctx context.Context, actor, name string) error {
	target, err := us.target(actor, name)
	if err != nil {
		return err
	}
	if target.IsRoot() {
		return common.ErrRootProtected
	}

	removed, err := us.store.DeleteUser(ctx, target.Name)
	if err != nil {
		return err
	}

	var released int64
	for _, r := range removed {
		released += r.File.Size
	}
	us.storedBytes.WithLabelValues("released").Add(float64(released))

	us.mq.Publish(mq.NewEvent(mq.UserDeleted, target.Name, user.ToResponseUser(target)))
	us.mCounter.WithLabelValues("user_deleted_total").Inc()

	return nil
}

// target resolves name for an admin action by actor. Only root may act on
// root.
func (us *UserService) target(actor, name string) (domain.User, error) {
	if err := us.requireAdmin(actor); err != nil {
		return domain.User{}, err
	}
	u, ok := us.store.GetUser(name)
	if !ok {
		return domain.User{}, common.ErrUserNotFound
	}
	if u.IsRoot() && actor != domain.RootName {
		return domain.User{}, common.ErrRootProtected
	}

	return u, nil
}

func (us *UserService) requireAdmin(actor string) error {
	a, ok := us.store.GetUser(actor)
	if !ok || !a.IsAdmin {
		return common.ErrAdminRequired
	}

	return nil
}

func (us *UserService) updated(u domain.User) {
	us.mq.Publish(mq.NewEvent(mq.UserUpdated, u.Name, user.ToResponseUser(u)))
	us.mCounter.WithLabelValues("user_updated_total").Inc()
}
