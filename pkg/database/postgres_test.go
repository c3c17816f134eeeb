package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{
		Host:     "db.internal",
		Port:     5433,
		User:     "dashboard",
		Password: "secret",
		Database: "airquality",
		SSLMode:  "require",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=dashboard password=secret dbname=airquality sslmode=require",
		cfg.DSN(),
	)
}
