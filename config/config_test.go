package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"SERVICE_PORT", "STORAGE_UPLOADS_DIR", "STORAGE_TMP_DIR", "STORAGE_CODE_TTL", "DB_DRIVER", "RABBITMQ_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8123", cfg.App.Port)
	assert.Equal(t, int64(4<<30), cfg.Storage.MaxUploadBytes)
	assert.Equal(t, int64(64<<20), cfg.Storage.DefaultQuota)
	assert.Equal(t, 16, cfg.Storage.DefaultMaxFiles)
	assert.Equal(t, 4, cfg.Storage.CodeLength)
	assert.Equal(t, 2*time.Minute, cfg.Storage.CodeTTL)
	assert.Equal(t, "root", cfg.Storage.RootPassword)
	assert.Equal(t, "./uploads/.tmp.uploads", cfg.Storage.TmpDir)
	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.False(t, cfg.MQ.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_UPLOADS_DIR", "/srv/files")
	t.Setenv("STORAGE_TMP_DIR", "")
	t.Setenv("STORAGE_CODE_TTL", "30s")
	t.Setenv("STORAGE_DEFAULT_QUOTA", "1000")
	t.Setenv("STORAGE_DEFAULT_MAX_FILES", "not-a-number")
	t.Setenv("RABBITMQ_ENABLED", "true")

	cfg := Load()
	assert.Equal(t, "/srv/files/.tmp.uploads", cfg.Storage.TmpDir)
	assert.Equal(t, 30*time.Second, cfg.Storage.CodeTTL)
	assert.Equal(t, int64(1000), cfg.Storage.DefaultQuota)
	assert.Equal(t, 16, cfg.Storage.DefaultMaxFiles, "unparsable values fall back to the default")
	assert.True(t, cfg.MQ.Enabled)
}

func validConfig() Config {
	return Config{
		App: APP{Port: "8123", JWTSecret: "s"},
		Storage: Storage{
			Backend:        StorageDisk,
			MaxUploadBytes: 1,
			CodeLength:     4,
			CodeTTL:        time.Minute,
		},
		DB: DB{Driver: DriverMemory},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.App.JWTSecret = "" }, wantErr: "SERVICE_JWT_SECRET"},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "ftp" }, wantErr: "STORAGE_BACKEND"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Storage.Backend = StorageS3 }, wantErr: "S3_BUCKET_UPLOADS"},
		{name: "postgres incomplete", mutate: func(c *Config) { c.DB.Driver = DriverPostgres }, wantErr: "incomplete DB config"},
		{name: "mq enabled incomplete", mutate: func(c *Config) { c.MQ.Enabled = true }, wantErr: "invalid MQ config"},
		{name: "zero ttl", mutate: func(c *Config) { c.Storage.CodeTTL = 0 }, wantErr: "upload code"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDSN(t *testing.T) {
	c := Config{
		DB: DB{User: "u", Password: "p@ss", Name: "files", Host: "db", Port: "5432"},
		MQ: MQ{User: "guest", Password: "guest", Host: "mq", AmqpPort: "5672", Vhost: "/"},
	}

	dsn, err := c.DBDSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p%40ss@db:5432/files", dsn)

	amqp, err := c.AMQPDSN()
	require.NoError(t, err)
	assert.Equal(t, "amqp://guest:guest@mq:5672/%2F", amqp)

	_, err = Config{}.DBDSN()
	assert.Error(t, err)
}
