package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, SourceFile, cfg.Dataset.Source)
	assert.Equal(t, "PRSA_Data_Wanliu_20130301-20170228.csv", cfg.Dataset.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("AQ_SERVER_PORT", "9090")
	t.Setenv("AQ_DATASET_PATH", "/data/wanliu.csv")
	t.Setenv("AQ_DATASET_SOURCE", "postgres")
	t.Setenv("AQ_LOG_LEVEL", "debug")
	t.Setenv("AQ_DB_SSL_MODE", "require")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/data/wanliu.csv", cfg.Dataset.Path)
	assert.Equal(t, SourcePostgres, cfg.Dataset.Source)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Contains(t, cfg.Database.DSN(), "sslmode=require")
}

func TestValidate(t *testing.T) {
	base := func(t *testing.T) *Config {
		chdir(t, t.TempDir())
		cfg, err := LoadConfig()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "unknown source", mutate: func(c *Config) { c.Dataset.Source = "s3" }, wantErr: true},
		{name: "file source without path", mutate: func(c *Config) { c.Dataset.Path = "" }, wantErr: true},
		{name: "postgres source without path", mutate: func(c *Config) {
			c.Dataset.Source = SourcePostgres
			c.Dataset.Path = ""
		}},
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
		{name: "idle exceeds open", mutate: func(c *Config) {
			c.Database.MaxOpenConns = 2
			c.Database.MaxIdleConns = 3
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDatabaseConfig_PoolConfig(t *testing.T) {
	d := DatabaseConfig{
		Host:            "db",
		Port:            5432,
		User:            "aq",
		Database:        "airquality",
		SSLMode:         "disable",
		MaxOpenConns:    8,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	}
	pool := d.PoolConfig()
	assert.Equal(t, 8, pool.MaxOpenConns)
	assert.Equal(t, 2, pool.MaxIdleConns)
	assert.Equal(t, time.Hour, pool.ConnMaxLifetime)
	assert.Equal(t, d.DSN(), pool.DSN())
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir on older toolchains).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
