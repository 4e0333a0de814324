package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"filedrive/config"
	"filedrive/internal/application/metastore"
	"filedrive/internal/application/ports"
	"filedrive/internal/application/services"
	"filedrive/internal/application/uploadcode"
	"filedrive/internal/common"
	"filedrive/internal/domain/file"
	"filedrive/internal/domain/user"
	"filedrive/internal/infrastructure/db/memory"
	"filedrive/internal/infrastructure/db/postgres"
	pgfile "filedrive/internal/infrastructure/db/postgres/file"
	pguser "filedrive/internal/infrastructure/db/postgres/user"
	"filedrive/internal/infrastructure/db/sqlite"
	"filedrive/internal/infrastructure/disk"
	"filedrive/internal/infrastructure/jwt"
	"filedrive/internal/infrastructure/metrics"
	"filedrive/internal/infrastructure/mq"
	"filedrive/internal/infrastructure/password"
	"filedrive/internal/infrastructure/s3"
	"filedrive/internal/interface/api/rest"
	"filedrive/internal/interface/api/rest/middleware"
	"filedrive/pkg/rmqconsumer"
)

type App struct {
	logger      *zap.Logger
	cfg         config.Config
	closers     []func()
	store       *metastore.Store
	httpSrv     *http.Server
	router      *gin.Engine
	mCounter    *prometheus.CounterVec
	storedBytes *prometheus.CounterVec
	publisher   ports.EventPublisher
	// nil unless RABBITMQ_ENABLED
	mq         ports.RabbitMQ
	mqConsumer ports.RMQConsumer
}

func NewApp(ctx context.Context) (*App, error) {
	// logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("cannot initialize zap logger: %v", err)
	}

	// config
	if err = godotenv.Load(".env"); err != nil {
		logger.Warn("no .env file loaded, using process environment", zap.Error(err))
	}
	cfg := config.Load()
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// metrics
	mCounter := metrics.NewCounter()
	storedBytes := metrics.NewStoredBytes()

	// router
	switch cfg.App.Env {
	case gin.ReleaseMode, "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogGin(logger, mCounter))

	// httpServer
	httpSrv := &http.Server{
		Addr:              cfg.App.Host + ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a := &App{
		logger:      logger,
		cfg:         cfg,
		httpSrv:     httpSrv,
		router:      r,
		mCounter:    mCounter,
		storedBytes: storedBytes,
	}

	// db
	users, files, err := a.openRepositories(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	// blobs
	blobs, err := a.openBlobStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err = disk.CleanTemp(logger, cfg.Storage.TmpDir); err != nil {
		a.Close()
		return nil, err
	}

	// metadata
	a.store, err = metastore.Open(
		ctx,
		logger,
		users,
		files,
		blobs,
		password.NewHasher(cfg.Storage.BcryptCost),
		uploadcode.New(cfg.Storage.CodeLength, cfg.Storage.CodeTTL),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	// missing blobs are reported, not repaired; the rest of the drive stays usable
	if _, err = a.store.Verify(ctx); err != nil && !errors.Is(err, common.ErrBlobMissing) {
		a.Close()
		return nil, fmt.Errorf("verify blobs: %w", err)
	}

	// rabbitMQ
	if err = a.openMQ(ctx); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) openRepositories(ctx context.Context) (user.Repository, file.Repository, error) {
	switch a.cfg.DB.Driver {
	case config.DriverPostgres:
		dbDsn, err := a.cfg.DBDSN()
		if err != nil {
			return nil, nil, fmt.Errorf("DB config error: %w", err)
		}
		pool, err := postgres.New(ctx, a.logger, dbDsn)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if err = postgres.Migrate(ctx, a.logger, pool); err != nil {
			return nil, nil, err
		}

		return pguser.NewRepository(pool), pgfile.NewRepository(pool), nil

	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(a.cfg.DB.SQLitePath), 0o750); err != nil {
			return nil, nil, fmt.Errorf("%w: create sqlite dir: %w", common.ErrIOFailure, err)
		}
		db, err := sqlite.Open(ctx, a.logger, a.cfg.DB.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })

		return sqlite.NewUserRepository(db), sqlite.NewFileRepository(db), nil

	default:
		a.logger.Warn("in-memory database, nothing survives a restart")
		db := memory.New()

		return memory.NewUserRepository(db), memory.NewFileRepository(db), nil
	}
}

func (a *App) openBlobStore(ctx context.Context) (ports.BlobStore, error) {
	if a.cfg.Storage.Backend == config.StorageS3 {
		store, err := s3.New(ctx, a.logger, a.cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to S3: %w", err)
		}
		return store, nil
	}

	return disk.New(a.logger, a.cfg.Storage.UploadsDir)
}

func (a *App) openMQ(ctx context.Context) error {
	if !a.cfg.MQ.Enabled {
		a.publisher = mq.NewDiscard(a.logger)
		return nil
	}

	rabbitDsn, err := a.cfg.AMQPDSN()
	if err != nil {
		return fmt.Errorf("RabbitMQ config error: %w", err)
	}
	rbMQ := mq.New(a.cfg.MQ, a.logger)
	if err = rbMQ.Connect(ctx, rabbitDsn); err != nil {
		return fmt.Errorf("failed to connect to rabbitMQ: %w", err)
	}
	a.mq = rbMQ
	a.publisher = rbMQ
	if err = rbMQ.Init(); err != nil {
		return fmt.Errorf("failed init rabbitMQ: %w", err)
	}

	// rmqConsumer
	consumer := rmqconsumer.New(a.cfg.MQ, a.logger)
	if err = consumer.Connect(rabbitDsn); err != nil {
		return fmt.Errorf("failed to connect rabbitMQ consumer: %w", err)
	}
	a.mqConsumer = consumer
	if err = consumer.Init(); err != nil {
		return fmt.Errorf("failed to init rabbitMQ consumer: %w", err)
	}

	return nil
}

func (a *App) Close() {
	if a.mqConsumer != nil {
		a.mqConsumer.Close()
	}
	if a.mq != nil && a.mq.GetConn() != nil {
		_ = a.mq.GetConn().Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// Run - The central place to launch and manage our application and
// parallel processes through a single context.
func (a *App) Run(ctx context.Context) error {
	// context with os signals cancel chan
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting "+a.cfg.App.Name, zap.String("addr", a.httpSrv.Addr))
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server "+a.cfg.App.Name+" error: %w", err)
		}

		return nil
	})

	if a.mq != nil {
		g.Go(func() error {
			a.mq.PublisherWorker(ctx)
			return nil
		})
	}

	if a.mqConsumer != nil {
		g.Go(func() error {
			a.mqConsumer.DeliveryWorker(ctx)
			return nil
		})
	}

	<-ctx.Done()

	a.logger.Info("shutting down " + a.cfg.App.Name + " gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown "+a.cfg.App.Name+" error", zap.Error(err))
		return err
	}

	if err := g.Wait(); err != nil {
		a.logger.Error(a.cfg.App.Name+" returning an error", zap.Error(err))
		return err
	}

	a.logger.Info(a.cfg.App.Name + " gracefully stopped")

	return nil
}

func (a *App) InitControllers(ctx context.Context) error {
	// services
	jwtService := jwt.New(a.cfg.App.JWTSecret)
	authService := services.NewAuthService(a.logger, a.store, jwtService, a.cfg.App.SessionTTL, a.mCounter)
	userService := services.NewUserService(a.logger, a.store, a.cfg.Storage, a.publisher, a.mCounter, a.storedBytes)
	fileService := services.NewFileService(a.logger, a.store, a.publisher, a.mCounter, a.storedBytes)
	codeService := services.NewUploadCodeService(a.store)

	if err := userService.EnsureRoot(ctx); err != nil {
		return err
	}

	// controllers
	limits := rest.UploadLimits{
		TmpDir:   a.cfg.Storage.TmpDir,
		MaxBytes: a.cfg.Storage.MaxUploadBytes,
	}
	codeLimiter := middleware.NewIPRateLimiter(a.cfg.App.CodeRateLimit, a.cfg.App.CodeRateBurst)

	rest.NewAuthController(a.router, a.logger, authService)
	rest.NewMeController(a.router, userService, a.logger, authService)
	rest.NewUserController(a.router, userService, a.logger, authService)
	rest.NewFileController(a.router, fileService, a.logger, authService, limits)
	rest.NewCodeController(a.router, codeService, fileService, a.logger, authService, codeLimiter, limits)

	// ops
	a.router.GET(rest.RouteHealth, func(c *gin.Context) { c.Status(http.StatusOK) })
	a.router.GET(rest.RouteMetrics, gin.WrapH(promhttp.Handler()))

	return nil
}

func (a *App) Logger() *zap.Logger { return a.logger }
