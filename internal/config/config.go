package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"airquality-dashboard/pkg/database"
)

// EnvPrefix is the prefix of every environment variable read by LoadConfig.
const EnvPrefix = "AQ"

// Dataset sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config is the complete application configuration
type Config struct {
	Server   ServerConfig   `envconfig:"SERVER"`
	Dataset  DatasetConfig  `envconfig:"DATASET"`
	Database DatabaseConfig `envconfig:"DB"`
	Logging  LoggingConfig  `envconfig:"LOG"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `split_words:"true" default:"0.0.0.0"`
	Port            int           `split_words:"true" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `split_words:"true" default:"15s" validate:"gt=0"`
	WriteTimeout    time.Duration `split_words:"true" default:"60s" validate:"gt=0"`
	IdleTimeout     time.Duration `split_words:"true" default:"60s" validate:"gt=0"`
	ShutdownTimeout time.Duration `split_words:"true" default:"30s" validate:"gt=0"`
}

// DatasetConfig selects where the dashboard table is loaded from
type DatasetConfig struct {
	Source string `split_words:"true" default:"file" validate:"oneof=file postgres"`
	Path   string `split_words:"true" default:"PRSA_Data_Wanliu_20130301-20170228.csv" validate:"required_if=Source file"`
	// Sheet is only used for .xlsx datasets; empty means the first sheet.
	Sheet   string `split_words:"true"`
	Station string `split_words:"true"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `split_words:"true" default:"localhost"`
	Port            int           `split_words:"true" default:"5432" validate:"min=1,max=65535"`
	User            string        `split_words:"true" default:"postgres"`
	Password        string        `split_words:"true"`
	Database        string        `split_words:"true" default:"airquality"`
	SSLMode         string        `split_words:"true" default:"disable" validate:"oneof=disable require verify-ca verify-full"`
	MaxOpenConns    int           `split_words:"true" default:"10" validate:"min=1"`
	MaxIdleConns    int           `split_words:"true" default:"5" validate:"min=0"`
	ConnMaxLifetime time.Duration `split_words:"true" default:"30m"`
	ConnMaxIdleTime time.Duration `split_words:"true" default:"5m"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `split_words:"true" default:"info" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// LoadConfig reads an optional .env file and then the AQ_* environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for values the binaries cannot run with.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("invalid configuration: DB max idle conns (%d) exceeds max open conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	return nil
}

// Address returns the host:port the HTTP server listens on.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DSN builds the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return d.PoolConfig().DSN()
}

// PoolConfig maps the settings onto the connection pool configuration.
func (d DatabaseConfig) PoolConfig() *database.Config {
	return &database.Config{
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Database,
		SSLMode:         d.SSLMode,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
	}
}
