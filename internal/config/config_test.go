package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.RunAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "strkeeper_session", cfg.AuthCookieName)
	assert.Equal(t, 10*time.Second, cfg.DBConnectionTimeout)
	assert.Equal(t, "migrations", cfg.MigrationsDir)
	assert.Empty(t, cfg.DatabaseDSN)
	assert.Empty(t, cfg.TrustedSubnet)
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":7000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_DSN", "postgres://localhost/strkeeper")
	t.Setenv("FLAG", "FLAG{test}")
	t.Setenv("TRUSTED_SUBNET", "10.0.0.0/8")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.RunAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres://localhost/strkeeper", cfg.DatabaseDSN)
	assert.Equal(t, "FLAG{test}", cfg.FlagValue)
	assert.Equal(t, "10.0.0.0/8", cfg.TrustedSubnet)
}

func TestConfigRejectsUnknownLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := New(WithDisableFlagsParsing(true))
	require.Error(t, err)
}

func TestConfigRejectsMalformedTrustedSubnet(t *testing.T) {
	t.Setenv("TRUSTED_SUBNET", "not-a-cidr")

	_, err := New(WithDisableFlagsParsing(true))
	require.Error(t, err)
}

func TestConfigRejectsNonBase64SigningKey(t *testing.T) {
	t.Setenv("AUTH_COOKIE_SIGNING_SECRET_KEY", "!!!not-base64!!!")

	_, err := New(WithDisableFlagsParsing(true))
	require.Error(t, err)
}
