package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STREAMIFY_SECURITY_SESSIONSECRET", "s3cret")
	t.Setenv("STREAMIFY_POSTGRES_DSN", "postgres://localhost:5432/streamify")
	t.Setenv("STREAMIFY_CHAT_APIKEY", "key")
	t.Setenv("STREAMIFY_CHAT_APISECRET", "secret")
}

func TestLoad_MissingRequiredCredentialsFails(t *testing.T) {
	t.Setenv("STREAMIFY_SECURITY_SESSIONSECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sessionsecret")
}

func TestLoad_EnvOverridesAndDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STREAMIFY_HTTP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Security.SessionSecret)
	assert.Equal(t, 9090, cfg.HTTP.Port)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 7*24*time.Hour, cfg.Security.SessionTTL)
	assert.Equal(t, "session", cfg.Security.CookieName)
	assert.Equal(t, 6, cfg.Security.MinPasswordLen)
	assert.Equal(t, "identity:sync", cfg.Sync.Stream)
	assert.Equal(t, time.Minute, cfg.Sync.ClaimInterval)
}

func TestLoad_CrossSiteCookieRequiresSecure(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STREAMIFY_SECURITY_COOKIECROSSSITE", "true")
	t.Setenv("STREAMIFY_SECURITY_COOKIESECURE", "false")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cookiesecure")
}

func TestLoad_CORSOriginsFromCommaList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STREAMIFY_ALLOWCORSORIGINS", "http://localhost:5173,https://app.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:5173", "https://app.example.com"}, cfg.AllowCORSOrigins)
}
