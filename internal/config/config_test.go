package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Ledger.TxTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LEDGER_TX_TIMEOUT", "2s")
	t.Setenv("DB_NAME", "repuestos_prod")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.local, http://b.local")
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Ledger.TxTimeout)
	assert.Equal(t, "repuestos_prod", cfg.Database.Name)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("LEDGER_TX_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Ledger.TxTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Tracing.Enabled = true
	cfg.Tracing.JaegerEndpoint = ""
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}
