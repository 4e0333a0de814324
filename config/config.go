package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	StorageDisk = "disk"
	StorageS3   = "s3"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type (
	APP struct {
		Name       string
		Host       string
		Port       string
		Env        string
		JWTSecret  string
		SessionTTL time.Duration
		// requests per second allowed per client on the upload-code endpoint
		CodeRateLimit float64
		CodeRateBurst int
	}
	Storage struct {
		Backend         string
		UploadsDir      string
		TmpDir          string
		MaxUploadBytes  int64
		DefaultQuota    int64
		DefaultMaxFiles int
		CodeLength      int
		CodeTTL         time.Duration
		RootPassword    string
		BcryptCost      int
	}
	DB struct {
		Driver     string
		User       string
		Password   string
		Name       string
		Host       string
		Port       string
		SQLitePath string
	}
	S3 struct {
		Region          string
		AccessKeyID     string
		SecretAccessKey string
		BucketUploads   string
		Endpoint        string
	}
	MQ struct {
		Enabled      bool
		User         string
		Password     string
		Vhost        string
		Host         string
		AmqpPort     string
		Exchange     string
		ExchangeType string
		QueueName    string
	}

	Config struct {
		App     APP
		Storage Storage
		DB      DB
		S3      S3
		MQ      MQ
	}
)

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v, err := strconv.ParseInt(getEnv(key, ""), 10, 64); err == nil {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	return int(getEnvInt64(key, int64(def)))
}

func getEnvFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return def
}

func Load() Config {
	app := APP{
		Name:          getEnv("SERVICE_NAME", "filedrive"),
		Host:          getEnv("SERVICE_HOST", ""),
		Port:          getEnv("SERVICE_PORT", "8123"),
		Env:           getEnv("SERVICE_ENV", ""),
		JWTSecret:     getEnv("SERVICE_JWT_SECRET", ""),
		SessionTTL:    getEnvDuration("SERVICE_SESSION_TTL", 24*time.Hour),
		CodeRateLimit: getEnvFloat("SERVICE_CODE_RATE_LIMIT", 1),
		CodeRateBurst: getEnvInt("SERVICE_CODE_RATE_BURST", 5),
	}
	uploads := getEnv("STORAGE_UPLOADS_DIR", "./uploads")
	storage := Storage{
		Backend:         getEnv("STORAGE_BACKEND", StorageDisk),
		UploadsDir:      uploads,
		TmpDir:          getEnv("STORAGE_TMP_DIR", uploads+"/.tmp.uploads"),
		MaxUploadBytes:  getEnvInt64("STORAGE_MAX_UPLOAD_BYTES", 4<<30),
		DefaultQuota:    getEnvInt64("STORAGE_DEFAULT_QUOTA", 64<<20),
		DefaultMaxFiles: getEnvInt("STORAGE_DEFAULT_MAX_FILES", 16),
		CodeLength:      getEnvInt("STORAGE_CODE_LENGTH", 4),
		CodeTTL:         getEnvDuration("STORAGE_CODE_TTL", 2*time.Minute),
		RootPassword:    getEnv("STORAGE_ROOT_PASSWORD", "root"),
		BcryptCost:      getEnvInt("STORAGE_BCRYPT_COST", 12),
	}
	db := DB{
		Driver:     getEnv("DB_DRIVER", DriverSQLite),
		User:       getEnv("POSTGRES_USER", ""),
		Password:   getEnv("POSTGRES_PASSWORD", ""),
		Name:       getEnv("POSTGRES_DB", ""),
		Host:       getEnv("POSTGRES_HOST", ""),
		Port:       getEnv("POSTGRES_PORT", ""),
		SQLitePath: getEnv("SQLITE_PATH", uploads+"/filedrive.db"),
	}
	s3 := S3{
		Region:          getEnv("S3_REGION", ""),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		BucketUploads:   getEnv("S3_BUCKET_UPLOADS", ""),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
	}
	mq := MQ{
		Enabled:      getEnvBool("RABBITMQ_ENABLED", false),
		User:         getEnv("RABBITMQ_USER", ""),
		Password:     getEnv("RABBITMQ_PASSWORD", ""),
		Vhost:        getEnv("RABBITMQ_VHOST", ""),
		Host:         getEnv("RABBITMQ_HOST", ""),
		AmqpPort:     getEnv("RABBITMQ_AMQP_PORT", ""),
		Exchange:     getEnv("RABBITMQ_EXCHANGE", "filedrive.events"),
		ExchangeType: getEnv("RABBITMQ_EXCHANGE_TYPE", "direct"),
		QueueName:    getEnv("RABBITMQ_QUEUE_NAME", "filedrive.audit"),
	}

	return Config{
		App:     app,
		Storage: storage,
		DB:      db,
		S3:      s3,
		MQ:      mq,
	}
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.App.JWTSecret == "" {
		errs = append(errs, errors.New("SERVICE_JWT_SECRET is required"))
	}
	if c.App.Port == "" {
		errs = append(errs, errors.New("SERVICE_PORT is required"))
	}
	if c.Storage.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("STORAGE_MAX_UPLOAD_BYTES must be positive"))
	}
	if c.Storage.DefaultQuota < 0 || c.Storage.DefaultMaxFiles < 0 {
		errs = append(errs, errors.New("default limits must not be negative"))
	}
	if c.Storage.CodeLength < 1 || c.Storage.CodeTTL <= 0 {
		errs = append(errs, errors.New("upload code length and ttl must be positive"))
	}

	switch c.Storage.Backend {
	case StorageDisk:
	case StorageS3:
		if c.S3.BucketUploads == "" || c.S3.Region == "" {
			errs = append(errs, errors.New("S3_BUCKET_UPLOADS and S3_REGION are required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend))
	}

	switch c.DB.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if _, err := c.DBDSN(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DB.Driver))
	}

	if c.MQ.Enabled {
		if _, err := c.AMQPDSN(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c Config) DBDSN() (string, error) {
	if c.DB.User == "" || c.DB.Name == "" || c.DB.Host == "" || c.DB.Port == "" {
		return "", fmt.Errorf("incomplete DB config")
	}
	return fmt.Sprintf(
		"postgres://%s@%s:%s/%s",
		url.UserPassword(c.DB.User, c.DB.Password).String(),
		c.DB.Host,
		c.DB.Port,
		c.DB.Name,
	), nil
}

func (c Config) AMQPDSN() (string, error) {
	if c.MQ.User == "" || c.MQ.Host == "" || c.MQ.AmqpPort == "" {
		return "", fmt.Errorf("invalid MQ config: user, host and amqp port are required")
	}

	return fmt.Sprintf(
		"%s://%s@%s:%s/%s",
		"amqp",
		url.UserPassword(c.MQ.User, c.MQ.Password).String(),
		c.MQ.Host,
		c.MQ.AmqpPort,
		url.PathEscape(c.MQ.Vhost),
	), nil
}
