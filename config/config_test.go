package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8081",
			AllowedOrigins: []string{"https://skillswap.app"},
		},
		Database: DatabaseConfig{WorkOffline: true},
		Auth: AuthConfig{
			JWTSecret:        "secret",
			InternalAPIToken: "internal",
		},
		Exchange: ExchangeConfig{
			MinDurationMinutes: 15,
			MaxDurationMinutes: 240,
		},
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected bool
	}{
		{
			name:     "development environment",
			config:   &Config{Server: ServerConfig{AppEnv: "development"}},
			expected: true,
		},
		{
			name:     "debug gin mode",
			config:   &Config{Server: ServerConfig{GinMode: "debug"}},
			expected: true,
		},
		{
			name:     "release mode",
			config:   &Config{Server: ServerConfig{GinMode: "release", AppEnv: "production"}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.IsDevelopment())
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	assert.True(t, (&Config{Server: ServerConfig{AppEnv: "production"}}).IsProduction())
	assert.False(t, (&Config{Server: ServerConfig{AppEnv: "staging"}}).IsProduction())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{
			name:   "valid offline config",
			mutate: func(c *Config) {},
		},
		{
			name: "valid online config",
			mutate: func(c *Config) {
				c.Database.WorkOffline = false
				c.Database.URL = "postgres://localhost/skillswap"
			},
		},
		{
			name:     "missing database url",
			mutate:   func(c *Config) { c.Database.WorkOffline = false },
			errorMsg: "DATABASE_URL is required",
		},
		{
			name:     "missing jwt secret",
			mutate:   func(c *Config) { c.Auth.JWTSecret = "" },
			errorMsg: "JWT_SECRET is required",
		},
		{
			name:     "missing internal token",
			mutate:   func(c *Config) { c.Auth.InternalAPIToken = "" },
			errorMsg: "INTERNAL_API_TOKEN is required",
		},
		{
			name: "inverted duration range",
			mutate: func(c *Config) {
				c.Exchange.MinDurationMinutes = 60
				c.Exchange.MaxDurationMinutes = 30
			},
			errorMsg: "EXCHANGE_MIN_DURATION",
		},
		{
			name: "profiling without endpoint",
			mutate: func(c *Config) {
				c.Profiling.Enabled = true
			},
			errorMsg: "O11Y_PROFILING_ENDPOINT is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_WORK_OFFLINE", "true")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("INTERNAL_API_TOKEN", "internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, []string{"https://skillswap.app", "https://www.skillswap.app"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, 15, cfg.Exchange.MinDurationMinutes)
	assert.Equal(t, 240, cfg.Exchange.MaxDurationMinutes)
	assert.Equal(t, "https://meet.jit.si", cfg.Exchange.MeetingBaseURL)
	assert.False(t, cfg.Archive.Enabled())
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://db/skillswap")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("INTERNAL_API_TOKEN", "internal")
	t.Setenv("ALLOWED_CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("NOTIFY_WEBHOOK_URL", "https://hooks.example/notify")
	t.Setenv("ARCHIVE_S3_ACCESS_KEY_ID", "key")
	t.Setenv("ARCHIVE_S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("ARCHIVE_S3_BUCKET_NAME", "exchanges")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "postgres://db/skillswap", cfg.Database.URL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "https://hooks.example/notify", cfg.Notifications.WebhookURL)
	assert.True(t, cfg.Archive.Enabled())
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_WORK_OFFLINE", "false")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
