package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Store     StoreConfig
	GitHub    GitHubConfig
	Rebuild   RebuildConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Policy    PolicyConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// StoreConfig selects the blob backend and the collection layout
type StoreConfig struct {
	Backend      string // "github" in production, "memory" for local development
	StationsDir  string
	ManifestName string
}

// GitHubConfig holds the contents API settings
type GitHubConfig struct {
	Token   string
	Owner   string
	Repo    string
	Branch  string
	APIURL  string
	Timeout time.Duration
}

// RebuildConfig holds the static site build hook settings
type RebuildConfig struct {
	HookURL string // empty disables the trigger
	Timeout time.Duration
}

// DatabaseConfig holds Postgres connection settings for the change history
type DatabaseConfig struct {
	Enabled     bool
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds Redis settings for rate limiting and change notifications
type RedisConfig struct {
	Enabled            bool
	Host               string
	Port               int
	Password           string
	DB                 int
	RateLimitPerMinute int64
	ChangesChannel     string
}

// PolicyConfig points at optional extra station validation rules
type PolicyConfig struct {
	File string
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"), // Default to text for development
		},
		Store: StoreConfig{
			Backend:      getEnv("BLOB_BACKEND", "github"),
			StationsDir:  getEnv("STATIONS_DIR", "public/data/stations"),
			ManifestName: getEnv("MANIFEST_NAME", "index.json"),
		},
		GitHub: GitHubConfig{
			Token:   getEnv("GITHUB_TOKEN", ""),
			Owner:   getEnv("GITHUB_OWNER", "dmccolly"),
			Repo:    getEnv("GITHUB_REPO", "StationProfiles"),
			Branch:  getEnv("GITHUB_BRANCH", "main"),
			APIURL:  getEnv("GITHUB_API_URL", ""),
			Timeout: getEnvDuration("GITHUB_TIMEOUT", 15*time.Second),
		},
		Rebuild: RebuildConfig{
			HookURL: getEnv("NETLIFY_BUILD_HOOK", ""),
			Timeout: getEnvDuration("REBUILD_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Enabled:     getEnvBool("AUDIT_ENABLED", false),
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "stations"),
			User:        getEnv("POSTGRES_USER", "stations"),
			Password:    getEnv("POSTGRES_PASSWORD", "stations"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 10),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 1),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Enabled:            getEnvBool("REDIS_ENABLED", false),
			Host:               getEnv("REDIS_HOST", "localhost"),
			Port:               getEnvInt("REDIS_PORT", 6379),
			Password:           getEnv("REDIS_PASSWORD", ""),
			DB:                 getEnvInt("REDIS_DB", 0),
			RateLimitPerMinute: int64(getEnvInt("RATE_LIMIT_PER_MINUTE", 30)),
			ChangesChannel:     getEnv("CHANGES_CHANNEL", "stations.changed"),
		},
		Policy: PolicyConfig{
			File: getEnv("POLICY_FILE", ""),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", false),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	switch c.Store.Backend {
	case "github":
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
			return fmt.Errorf("github owner and repo are required")
		}
		if c.GitHub.Token == "" {
			return fmt.Errorf("GITHUB_TOKEN is required for the github backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown blob backend: %s", c.Store.Backend)
	}

	if strings.Trim(c.Store.StationsDir, "/") == "" {
		return fmt.Errorf("stations directory is required")
	}

	if !strings.HasSuffix(c.Store.ManifestName, ".json") || strings.Contains(c.Store.ManifestName, "/") {
		return fmt.Errorf("invalid manifest name: %q", c.Store.ManifestName)
	}

	if c.Database.Enabled && c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.Redis.Enabled && c.Redis.RateLimitPerMinute < 0 {
		return fmt.Errorf("invalid rate limit: %d", c.Redis.RateLimitPerMinute)
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns host:port for the Redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
