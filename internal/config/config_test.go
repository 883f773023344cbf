package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "HTTP_PORT", "GRPC_PORT", "DB_DRIVER", "DATABASE_DSN", "DB_MAX_OPEN_CONNS", "SECRET", "TOKEN_TTL_HOURS", "CORS_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "shopkeep.db", cfg.DatabaseDSN)
	assert.Equal(t, 10, cfg.DBMaxOpenConns)
	assert.Equal(t, 24, cfg.TokenTTLHours)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsDevelopment())
	assert.Empty(t, cfg.GRPCPort)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("HTTP_PORT", "eighty")
	t.Setenv("GRPC_PORT", "nine")
	t.Setenv("TOKEN_TTL_HOURS", "-3")

	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Empty(t, cfg.GRPCPort)
	assert.Equal(t, 24, cfg.TokenTTLHours)
}

func TestLoad_PostgresDSNFromParts(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("HOST", "db")
	t.Setenv("USER", "shop")
	t.Setenv("PASSWORD", "pw")
	t.Setenv("PORT", "5433")
	t.Setenv("NAME", "inv")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "postgres://shop:pw@db:5433/inv?sslmode=disable", cfg.DatabaseDSN)
}

func TestLoad_CORSOriginsList(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")

	assert.Equal(t, []string{"http://a.test", "http://b.test"}, Load().CORSOrigins)
}
