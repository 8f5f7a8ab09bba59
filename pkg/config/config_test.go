package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvBackendPort, "3001")
	t.Setenv(EnvBackendURL, "http://127.0.0.1:3001")
	t.Setenv(EnvFrontendURL, "http://127.0.0.1:3000")
	t.Setenv(EnvClientID, "OC-TEST1234")
	t.Setenv(EnvClientSecret, "secret-value")
	t.Setenv(EnvEncryptionKey, "aGVsbG8td29ybGQtaGVsbG8td29ybGQtaGVsbG8hISE=")
	t.Setenv(EnvAPIBaseURL, "https://api.canva.com/rest")
	t.Setenv(EnvAuthBaseURL, "https://www.canva.com/api")
	t.Setenv(EnvEnvironment, "")
}

func TestLoad(t *testing.T) {
	setValidEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.BackendPort)
	assert.Equal(t, "OC-TEST1234", cfg.ClientID)
	assert.Equal(t, "http://127.0.0.1:3001/oauth/redirect", cfg.RedirectURI())
	assert.False(t, cfg.Production)
}

func TestLoadMissingVariable(t *testing.T) {
	setValidEnv(t)
	t.Setenv(EnvClientID, "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvClientID)
}

func TestLoadPlaceholderValue(t *testing.T) {
	setValidEnv(t)
	t.Setenv(EnvClientSecret, "<CANVA_CLIENT_SECRET>")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvClientSecret)
	assert.Contains(t, err.Error(), "placeholder")
}

func TestLoadTrimsTrailingSlashes(t *testing.T) {
	setValidEnv(t)
	t.Setenv(EnvBackendURL, "http://127.0.0.1:3001/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:3001", cfg.BackendURL)
}

func TestLoadProductionMode(t *testing.T) {
	setValidEnv(t)
	t.Setenv(EnvEnvironment, "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Production)
}
