package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *ProductionConfig {
	return &ProductionConfig{
		Database: DatabaseConfig{Host: "db", Port: 5432, Name: "composer", User: "app", Password: "secret", SSLMode: "disable"},
		Server:   ServerConfig{Port: 8080, ReadTimeout: time.Second, WriteTimeout: time.Second, IdleTimeout: time.Second},
		Logging:  LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		Cache:    CacheConfig{Enabled: true, RedisURL: "redis://localhost:6379"},
		Tracking: TrackingConfig{Mode: TrackingModeUTM},
	}
}

func TestValidateProductionConfig(t *testing.T) {
	assert.NoError(t, ValidateProductionConfig(validConfig()))

	cfg := validConfig()
	cfg.Database.Password = ""
	cfg.Tracking.Mode = TrackingModeShortLink
	cfg.Archive.Enabled = true
	cfg.Logging.Level = "trace"
	err := ValidateProductionConfig(cfg)
	require.Error(t, err)
	for _, want := range []string{"DB_PASSWORD", "SHORT_LINK_DOMAIN", "ARCHIVE_S3_BUCKET", "LOG_LEVEL"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateRejectsRelativeResponseBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Tracking.ResponseBaseURL = "/respond"
	assert.ErrorContains(t, ValidateProductionConfig(cfg), "RESPONSE_BASE_URL")
}

func TestValidateGeneration(t *testing.T) {
	cfg := validConfig()
	cfg.Generation = GenerationConfig{Enabled: true, Provider: "gemini"}
	err := ValidateProductionConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GENERATION_PROVIDER")
	assert.Contains(t, err.Error(), "GENERATION_API_KEY")
}

func TestLoadProductionConfigFromEnv(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("TRACKING_MODE", "ShortLink")
	t.Setenv("SHORT_LINK_DOMAIN", "https://go.example.com")
	t.Setenv("CACHE_DEFAULT_TTL", "15m")
	t.Setenv("SERVER_TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2")

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)
	assert.Equal(t, TrackingModeShortLink, cfg.Tracking.Mode)
	assert.Equal(t, 15*time.Minute, cfg.Cache.DefaultTTL)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Server.TrustedProxies)
	assert.Equal(t, "#1a73e8", cfg.Rendering.PrimaryColor)
}

func TestDatabaseURLs(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5433, Name: "composer", User: "app", Password: "p@ss", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=app password=p@ss dbname=composer sslmode=disable", c.DSN())
	assert.Equal(t, "postgres://app:p%40ss@db:5433/composer?sslmode=disable", c.URL())
}
