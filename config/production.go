// Package config provides configuration management and environment variable handling for the application
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database   DatabaseConfig   `json:"database"`
	Server     ServerConfig     `json:"server"`
	Logging    LoggingConfig    `json:"logging"`
	Metrics    MetricsConfig    `json:"metrics"`
	Cache      CacheConfig      `json:"cache"`
	Tracking   TrackingConfig   `json:"tracking"`
	Archive    ArchiveConfig    `json:"archive"`
	Rendering  RenderingConfig  `json:"rendering"`
	Generation GenerationConfig `json:"generation"`
	Deployment DeploymentConfig `json:"deployment"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	SlowQueryLog    bool          `json:"slow_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
	RunMigrations   bool          `json:"run_migrations"`
}

// DSN is the gorm postgres connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// URL is the connection string golang-migrate expects
func (c DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

type ServerConfig struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	ReadTimeout       time.Duration `json:"read_timeout"`
	WriteTimeout      time.Duration `json:"write_timeout"`
	IdleTimeout       time.Duration `json:"idle_timeout"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout"`
	BodyLimit         int           `json:"body_limit"`
	TrustedProxies    []string      `json:"trusted_proxies"`
	ProxyHeader       string        `json:"proxy_header"`
	EnableCompression bool          `json:"enable_compression"`
	AllowOrigins      []string      `json:"allow_origins"`
	RateLimitPerMin   int           `json:"rate_limit_per_min"`
}

type LoggingConfig struct {
	Level            string `json:"level"`  // debug, info, warn, error
	Format           string `json:"format"` // json, console
	Output           string `json:"output"` // stdout, file, both
	FilePath         string `json:"file_path"`
	MaxSize          int    `json:"max_size"` // MB
	MaxBackups       int    `json:"max_backups"`
	MaxAge           int    `json:"max_age"` // days
	Compress         bool   `json:"compress"`
	EnableCaller     bool   `json:"enable_caller"`
	EnableStacktrace bool   `json:"enable_stacktrace"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	Enabled     bool          `json:"enabled"`
	RedisURL    string        `json:"redis_url"`
	RedisDB     int           `json:"redis_db"`
	RedisPrefix string        `json:"redis_prefix"`
	DefaultTTL  time.Duration `json:"default_ttl"`
	SendLockTTL time.Duration `json:"send_lock_ttl"`
}

// Tracking modes for outbound links in live issues
const (
	TrackingModeUTM       = "utm"
	TrackingModeShortLink = "shortlink"
	TrackingModeNone      = "none"
)

type TrackingConfig struct {
	Mode            string `json:"mode"` // utm, shortlink, none
	UTMSource       string `json:"utm_source"`
	UTMMedium       string `json:"utm_medium"`
	ShortLinkDomain string `json:"short_link_domain"`
	ResponseBaseURL string `json:"response_base_url"`
}

type ArchiveConfig struct {
	Enabled   bool   `json:"enabled"`
	Endpoint  string `json:"endpoint"`
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Prefix    string `json:"prefix"`
}

// RenderingConfig holds the styles used when a publication has none stored
type RenderingConfig struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	HeadingFont    string `json:"heading_font"`
	BodyFont       string `json:"body_font"`
}

// GenerationConfig configures the text generator behind generated text boxes
type GenerationConfig struct {
	Enabled   bool   `json:"enabled"`
	Provider  string `json:"provider"` // openai, anthropic
	APIKey    string `json:"api_key"`
	Endpoint  string `json:"endpoint"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
}

type DeploymentConfig struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
	CommitHash  string `json:"commit_hash"`
	BuildTime   string `json:"build_time"`
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	// Variables already set in the environment win over .env
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "postgres"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
			SlowQueryLog:    getEnvBool("DB_SLOW_QUERY_LOG", true),
			SlowQueryTime:   getEnvDuration("DB_SLOW_QUERY_TIME", 1*time.Second),
			RunMigrations:   getEnvBool("DB_RUN_MIGRATIONS", true),
		},
		Server: ServerConfig{
			Host:              getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:              getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:       getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout:   getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:         getEnvInt("SERVER_BODY_LIMIT", 4*1024*1024), // 4MB
			TrustedProxies:    getEnvStringSlice("SERVER_TRUSTED_PROXIES", []string{"127.0.0.1"}),
			ProxyHeader:       getEnvString("SERVER_PROXY_HEADER", "X-Real-IP"),
			EnableCompression: getEnvBool("SERVER_ENABLE_COMPRESSION", true),
			AllowOrigins:      getEnvStringSlice("SERVER_ALLOW_ORIGINS", []string{"*"}),
			RateLimitPerMin:   getEnvInt("SERVER_RATE_LIMIT_PER_MIN", 600),
		},
		Logging: LoggingConfig{
			Level:            getEnvString("LOG_LEVEL", "info"),
			Format:           getEnvString("LOG_FORMAT", "json"),
			Output:           getEnvString("LOG_OUTPUT", "stdout"),
			FilePath:         getEnvString("LOG_FILE_PATH", "/var/log/issue-composer/app.log"),
			MaxSize:          getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups:       getEnvInt("LOG_MAX_BACKUPS", 10),
			MaxAge:           getEnvInt("LOG_MAX_AGE", 30),
			Compress:         getEnvBool("LOG_COMPRESS", true),
			EnableCaller:     getEnvBool("LOG_ENABLE_CALLER", true),
			EnableStacktrace: getEnvBool("LOG_ENABLE_STACKTRACE", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			Enabled:     getEnvBool("CACHE_ENABLED", true),
			RedisURL:    getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:     getEnvInt("CACHE_REDIS_DB", 0),
			RedisPrefix: getEnvString("CACHE_REDIS_PREFIX", "issue-composer:"),
			DefaultTTL:  getEnvDuration("CACHE_DEFAULT_TTL", 1*time.Hour),
			SendLockTTL: getEnvDuration("CACHE_SEND_LOCK_TTL", 5*time.Minute),
		},
		Tracking: TrackingConfig{
			Mode:            strings.ToLower(getEnvString("TRACKING_MODE", TrackingModeUTM)),
			UTMSource:       getEnvString("TRACKING_UTM_SOURCE", "newsletter"),
			UTMMedium:       getEnvString("TRACKING_UTM_MEDIUM", "email"),
			ShortLinkDomain: getEnvString("SHORT_LINK_DOMAIN", ""),
			ResponseBaseURL: getEnvString("RESPONSE_BASE_URL", ""),
		},
		Archive: ArchiveConfig{
			Enabled:   getEnvBool("ARCHIVE_ENABLED", false),
			Endpoint:  getEnvString("ARCHIVE_S3_ENDPOINT", ""),
			Region:    getEnvString("ARCHIVE_S3_REGION", "us-east-1"),
			Bucket:    getEnvString("ARCHIVE_S3_BUCKET", ""),
			AccessKey: getEnvString("ARCHIVE_S3_ACCESS_KEY", ""),
			SecretKey: getEnvString("ARCHIVE_S3_SECRET_KEY", ""),
			Prefix:    getEnvString("ARCHIVE_S3_PREFIX", "issues"),
		},
		Rendering: RenderingConfig{
			PrimaryColor:   getEnvString("RENDER_PRIMARY_COLOR", "#1a73e8"),
			SecondaryColor: getEnvString("RENDER_SECONDARY_COLOR", "#5f6368"),
			HeadingFont:    getEnvString("RENDER_HEADING_FONT", "Georgia, serif"),
			BodyFont:       getEnvString("RENDER_BODY_FONT", "Helvetica, Arial, sans-serif"),
		},
		Generation: GenerationConfig{
			Enabled:   getEnvBool("GENERATION_ENABLED", false),
			Provider:  strings.ToLower(getEnvString("GENERATION_PROVIDER", "openai")),
			APIKey:    getEnvString("GENERATION_API_KEY", ""),
			Endpoint:  getEnvString("GENERATION_ENDPOINT", ""),
			Model:     getEnvString("GENERATION_MODEL", ""),
			MaxTokens: getEnvInt("GENERATION_MAX_TOKENS", 1024),
		},
		Deployment: DeploymentConfig{
			Environment: getEnvString("APP_ENV", "production"),
			Version:     getEnvString("VERSION", "1.0.0"),
			CommitHash:  getEnvString("COMMIT_HASH", "unknown"),
			BuildTime:   getEnvString("BUILD_TIME", "unknown"),
		},
	}

	// Validate the loaded configuration
	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errors []string

	// Validate database configuration
	if cfg.Database.Host == "" {
		errors = append(errors, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		errors = append(errors, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		errors = append(errors, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		errors = append(errors, "DB_USER is required")
	}
	if cfg.Database.Password == "" {
		errors = append(errors, "DB_PASSWORD is required")
	}

	// Validate server configuration
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 {
		errors = append(errors, "SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		errors = append(errors, "SERVER_WRITE_TIMEOUT must be positive")
	}
	if cfg.Server.IdleTimeout <= 0 {
		errors = append(errors, "SERVER_IDLE_TIMEOUT must be positive")
	}

	// Validate logging configuration
	if !oneOf(cfg.Logging.Level, "debug", "info", "warn", "error") {
		errors = append(errors, "LOG_LEVEL must be one of: debug, info, warn, error")
	}
	if !oneOf(cfg.Logging.Format, "json", "console") {
		errors = append(errors, "LOG_FORMAT must be one of: json, console")
	}
	if !oneOf(cfg.Logging.Output, "stdout", "file", "both") {
		errors = append(errors, "LOG_OUTPUT must be one of: stdout, file, both")
	}
	if cfg.Logging.Output != "stdout" && cfg.Logging.FilePath == "" {
		errors = append(errors, "LOG_FILE_PATH is required when logging to a file")
	}

	// Validate cache configuration if enabled
	if cfg.Cache.Enabled && cfg.Cache.RedisURL == "" {
		errors = append(errors, "CACHE_REDIS_URL is required when cache is enabled")
	}
	if cfg.Cache.DefaultTTL < 0 {
		errors = append(errors, "CACHE_DEFAULT_TTL must not be negative")
	}

	// Validate tracking configuration
	switch cfg.Tracking.Mode {
	case TrackingModeUTM, TrackingModeNone:
	case TrackingModeShortLink:
		if cfg.Tracking.ShortLinkDomain == "" {
			errors = append(errors, "SHORT_LINK_DOMAIN is required when TRACKING_MODE is shortlink")
		}
	default:
		errors = append(errors, "TRACKING_MODE must be one of: utm, shortlink, none")
	}
	if cfg.Tracking.ResponseBaseURL != "" {
		if u, err := url.Parse(cfg.Tracking.ResponseBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, "RESPONSE_BASE_URL must be an absolute URL")
		}
	}

	// Validate archive configuration if enabled
	if cfg.Archive.Enabled {
		if cfg.Archive.Bucket == "" {
			errors = append(errors, "ARCHIVE_S3_BUCKET is required when archive is enabled")
		}
		if cfg.Archive.AccessKey == "" || cfg.Archive.SecretKey == "" {
			errors = append(errors, "ARCHIVE_S3_ACCESS_KEY and ARCHIVE_S3_SECRET_KEY are required when archive is enabled")
		}
	}

	// Validate generation configuration if enabled
	if cfg.Generation.Enabled {
		if !oneOf(cfg.Generation.Provider, "openai", "anthropic") {
			errors = append(errors, "GENERATION_PROVIDER must be one of: openai, anthropic")
		}
		if cfg.Generation.APIKey == "" {
			errors = append(errors, "GENERATION_API_KEY is required when generation is enabled")
		}
	}

	// Return validation errors if any
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
