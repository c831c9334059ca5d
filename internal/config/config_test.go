package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_DefaultValues(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.LogLevel)
	assert.Equal(t, 8000, cfg.HTTP.Port)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:3001"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "data/swipejobs.db", cfg.Database.Path)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "https://remoteok.com/api", cfg.Jobs.RemoteOKURL)
	assert.Equal(t, 30*time.Second, cfg.Jobs.Timeout)
	assert.Equal(t, 10, cfg.Jobs.Limit)
	assert.Equal(t, "uploaded_resumes", cfg.Resume.Dir)
	assert.Equal(t, int64(5*1024*1024), cfg.Resume.MaxBytes)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
	assert.Equal(t, time.Hour, cfg.Scheduler.GitHubSyncInterval)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.TokenSweepInterval)
	assert.Equal(t, time.Second, cfg.GitHub.SyncUserDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.GitHub.SweepUserDelay)

	assert.False(t, cfg.Gemini.Enabled())
	assert.False(t, cfg.GitHub.Enabled())
	assert.False(t, cfg.HTTP.TrustProxy)
	assert.Equal(t, 10, cfg.Auth.AccountBurst)

	assert.Equal(t, []string{"AUTH_CODE_SECRET", "AUTH_STATE_SECRET", "GITHUB_TOKEN_ENCRYPTION_KEY"}, cfg.InsecureDefaults())
}

func TestNewConfig_SecureCookiesRequireRealSecrets(t *testing.T) {
	t.Setenv("HTTP_SECURE_COOKIES", "true")
	t.Setenv("AUTH_CODE_SECRET", "a-real-login-code-secret")
	t.Setenv("AUTH_STATE_SECRET", "a-real-oauth-state-secret")

	_, err := NewConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_TOKEN_ENCRYPTION_KEY")
	assert.NotContains(t, err.Error(), "AUTH_CODE_SECRET")

	t.Setenv("GITHUB_TOKEN_ENCRYPTION_KEY", "a-real-token-key")
	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.InsecureDefaults())
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected func(*Config)
	}{
		{
			name: "log level override",
			envVars: map[string]string{
				"LOG_LEVEL": "-4",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, -4, cfg.LogLevel)
			},
		},
		{
			name: "github credentials enable the integration",
			envVars: map[string]string{
				"GITHUB_CLIENT_ID":            "client",
				"GITHUB_CLIENT_SECRET":        "secret",
				"GITHUB_REDIRECT_URI":         "https://jobs.example.com/github/callback",
				"GITHUB_TOKEN_ENCRYPTION_KEY": "k",
			},
			expected: func(cfg *Config) {
				assert.True(t, cfg.GitHub.Enabled())
				assert.Equal(t, "https://jobs.example.com/github/callback", cfg.GitHub.RedirectURI)
				assert.Equal(t, "k", cfg.GitHub.TokenEncryptionKey)
			},
		},
		{
			name: "gemini project enables AI",
			envVars: map[string]string{
				"GEMINI_PROJECT_ID": "proj",
				"GEMINI_LOCATION":   "europe-west4",
			},
			expected: func(cfg *Config) {
				assert.True(t, cfg.Gemini.Enabled())
				assert.Equal(t, "europe-west4", cfg.Gemini.Location)
			},
		},
		{
			name: "origins are comma separated",
			envVars: map[string]string{
				"HTTP_ALLOWED_ORIGINS": "https://a.example,https://b.example",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
			},
		},
		{
			name: "durations parse",
			envVars: map[string]string{
				"AUTH_SESSION_TTL":                 "2h",
				"SCHEDULER_SESSION_SWEEP_INTERVAL": "5m",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
				assert.Equal(t, 5*time.Minute, cfg.Scheduler.SessionSweepInterval)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := NewConfig()
			require.NoError(t, err)
			tt.expected(cfg)
		})
	}
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "port out of range", key: "HTTP_PORT", val: "70000"},
		{name: "non-numeric port", key: "HTTP_PORT", val: "abc"},
		{name: "zero session ttl", key: "AUTH_SESSION_TTL", val: "0s"},
		{name: "bad duration", key: "JOBS_TIMEOUT", val: "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}
