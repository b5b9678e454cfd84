package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/conversations")
	t.Setenv("AUTH_TRUST_HEADERS", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "conversation-api", cfg.ServiceName)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "conversation_api", cfg.SchemaName())
	assert.Equal(t, time.Hour, cfg.DBConnMaxLifetime)
	assert.True(t, cfg.ConversationSharingEnabled)
	assert.Equal(t, 10, cfg.PointerReconcileIntervalMinutes)
	assert.Same(t, cfg, GetGlobal())
	assert.False(t, GetEnvReloadedAt().IsZero())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing database url",
			env:  map[string]string{"AUTH_TRUST_HEADERS": "true"},
		},
		{
			name: "no auth source",
			env:  map[string]string{"DATABASE_URL": "postgres://localhost/db"},
		},
		{
			name: "bad jwks url",
			env: map[string]string{
				"DATABASE_URL":      "postgres://localhost/db",
				"KEYCLOAK_JWKS_URL": "not a url",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"DATABASE_URL", "AUTH_TRUST_HEADERS", "KEYCLOAK_JWKS_URL"} {
				t.Setenv(key, "")
				require.NoError(t, os.Unsetenv(key))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadTrimsShareBaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/conversations")
	t.Setenv("AUTH_TRUST_HEADERS", "true")
	t.Setenv("SHARE_BASE_URL", "https://chat.example.com/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", cfg.ShareBaseURL)
}
