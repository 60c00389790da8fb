package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Padroes(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/estoque?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "segredo")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, 300*time.Second, cfg.CacheTTL)
	assert.Equal(t, "authenticated", cfg.JWTAudience)
	assert.Equal(t, time.Hour, cfg.TokenExpiry)
	assert.Equal(t, 100, cfg.RateLimitMaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitPeriod)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestLoadConfig_ValoresDoAmbiente(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/estoque")
	t.Setenv("JWT_SECRET_KEY", "segredo")
	t.Setenv("DB_TIMEOUT_SEC", "2")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4318")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.DBTimeout)
	assert.Equal(t, "otel:4318", cfg.OTLPEndpoint)
}

func TestLoadConfig_AcumulaErros(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET_KEY", "  ")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "abc")
	t.Setenv("DB_TIMEOUT_SEC", "-1")

	cfg, err := LoadConfig()

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "DATABASE_URL deve ser definida")
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY deve ser definida")
	assert.Contains(t, err.Error(), `RATE_LIMIT_MAX_REQUESTS="abc"`)
	assert.Contains(t, err.Error(), `DB_TIMEOUT_SEC="-1"`)
}
