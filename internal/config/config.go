// Package config loads the catalog process's configuration: which store
// backend to run against, the tenant/resource/platform snapshot the read
// service serves from, and the ambient server/cache/log/rate-limit
// settings (spec §6, C6). Adapted from the teacher's viper-based
// Config/LoadConfig/setDefaults/Validate shape, with the alert-history
// domain sections (LLM, webhook, distributed lock) replaced by the
// catalog's own.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the catalog process's full configuration tree.
type Config struct {
	// Profile selects the store backend: "lite" (embedded sqlite,
	// single process) or "standard" (Postgres, multi-replica) — the
	// same two-profile split the teacher uses for its own storage
	// backend, applied here to internal/catalog/sqlite vs.
	// internal/catalog/postgres instead of filesystem vs. Postgres
	// alert storage.
	Profile          DeploymentProfile `mapstructure:"profile"`
	Storage          StorageConfig     `mapstructure:"storage"`
	Server           ServerConfig      `mapstructure:"server"`
	Database         DatabaseConfig    `mapstructure:"database"`
	Redis            RedisConfig       `mapstructure:"redis"`
	Cache            CacheConfig       `mapstructure:"cache"`
	Log              LogConfig         `mapstructure:"log"`
	PlatformSettings PlatformConfig    `mapstructure:"platform"`
	RateLimit        RateLimitConfig   `mapstructure:"rate_limit"`
	Metrics          MetricsConfig     `mapstructure:"metrics"`
	TenantList       []TenantConfig    `mapstructure:"tenants"`
	ResourceList     []ResourceConfig  `mapstructure:"resources"`
}

// DeploymentProfile is the deployment profile type.
type DeploymentProfile string

const (
	// ProfileLite runs the catalog store on embedded sqlite — no
	// external dependencies, single process (spec §6's "lite"
	// deployment shape).
	ProfileLite DeploymentProfile = "lite"

	// ProfileStandard runs the catalog store on Postgres, with an
	// optional Redis L2 tag cache, supporting multiple replicas.
	ProfileStandard DeploymentProfile = "standard"
)

// StorageConfig selects and configures the catalog store backend.
type StorageConfig struct {
	Backend        StorageBackend `mapstructure:"backend"`
	SQLitePath     string         `mapstructure:"sqlite_path"`
	MigrationsPath string         `mapstructure:"migrations_path"`
}

// StorageBackend is the catalog store implementation.
type StorageBackend string

const (
	StorageBackendSQLite   StorageBackend = "sqlite"
	StorageBackendPostgres StorageBackend = "postgres"
)

// ServerConfig holds the operational HTTP surface's settings (health,
// readiness, /metrics — spec §6's "not the wire API" surface).
type ServerConfig struct {
	Port                    int           `mapstructure:"port"`
	Host                    string        `mapstructure:"host"`
	ReadTimeout             time.Duration `mapstructure:"read_timeout"`
	WriteTimeout            time.Duration `mapstructure:"write_timeout"`
	IdleTimeout             time.Duration `mapstructure:"idle_timeout"`
	GracefulShutdownTimeout time.Duration `mapstructure:"graceful_shutdown_timeout"`
}

// DatabaseConfig configures the Postgres dialect (ProfileStandard only).
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	URL             string        `mapstructure:"url"`
}

// RedisConfig configures the TagCache's optional L2 tier
// (internal/catalog.RemoteCache).
type RedisConfig struct {
	Addr            string        `mapstructure:"addr"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

// CacheConfig configures internal/catalog.TagCache's L1 size and L2 TTL.
type CacheConfig struct {
	L1Size          int           `mapstructure:"l1_size"`
	L2TTL           time.Duration `mapstructure:"l2_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	EnableMetrics   bool          `mapstructure:"enable_metrics"`
}

// LogConfig configures the process logger (pkg/logger).
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// PlatformConfig answers the platformInfo method (spec §4.5/§6).
type PlatformConfig struct {
	Environment string `mapstructure:"environment"`
	Production  bool   `mapstructure:"production"`
}

// RateLimitConfig configures internal/read.TenantLimiter.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

// MetricsConfig configures the /metrics scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TenantConfig is one entry of the listTenants response (spec §6:
// "TenantConfig (list of {code, description})").
type TenantConfig struct {
	Code        string `mapstructure:"code"`
	Description string `mapstructure:"description"`
}

// ResourceConfig is one entry of the listResources/resourceInfo response
// (spec §6: "ResourceConfig ({name, type, protocol, publicProperties,
// properties, secretNames})"). Properties holds operational detail not
// meant for plugin consumption (e.g. internal routing hints);
// SecretNames names keys resolved through SecretStore at access time —
// neither Properties nor the resolved secret values are ever copied into
// a catalogapi.ResourceInfo.
type ResourceConfig struct {
	Name             string            `mapstructure:"name"`
	Type             string            `mapstructure:"type"`
	Protocol         string            `mapstructure:"protocol"`
	PublicProperties map[string]string `mapstructure:"public_properties"`
	Properties       map[string]string `mapstructure:"properties"`
	SecretNames      []string          `mapstructure:"secret_names"`
}

// LoadConfig loads configuration from configPath (if non-empty) layered
// under environment variables and defaults, then validates it.
func LoadConfig(configPath string) (*Config, error) {
	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		viper.SetConfigFile(configPath)
		viper.SetConfigType("yaml")

		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadConfigFromEnv loads configuration from environment variables and
// defaults only, skipping any config file.
func LoadConfigFromEnv() (*Config, error) {
	return LoadConfig("")
}

func setDefaults() {
	viper.SetDefault("profile", "lite")
	viper.SetDefault("storage.backend", "sqlite")
	viper.SetDefault("storage.sqlite_path", "/data/catalog.db")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.graceful_shutdown_timeout", "30s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.database", "catalog")
	viper.SetDefault("database.username", "dev")
	viper.SetDefault("database.password", "dev")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.min_connections", 5)
	viper.SetDefault("database.max_conn_lifetime", "1h")
	viper.SetDefault("database.max_conn_idle_time", "30m")
	viper.SetDefault("database.connect_timeout", "10s")
	viper.SetDefault("database.query_timeout", "30s")

	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 5)
	viper.SetDefault("redis.dial_timeout", "5s")
	viper.SetDefault("redis.read_timeout", "3s")
	viper.SetDefault("redis.write_timeout", "3s")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.min_retry_backoff", "100ms")
	viper.SetDefault("redis.max_retry_backoff", "500ms")

	viper.SetDefault("cache.l1_size", 10000)
	viper.SetDefault("cache.l2_ttl", "1h")
	viper.SetDefault("cache.cleanup_interval", "10m")
	viper.SetDefault("cache.enable_metrics", true)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("log.compress", true)

	viper.SetDefault("platform.environment", "development")
	viper.SetDefault("platform.production", false)

	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests_per_minute", 600)
	viper.SetDefault("rate_limit.burst", 50)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.validateProfile(); err != nil {
		return fmt.Errorf("profile validation failed: %w", err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Log.Level == "" {
		return fmt.Errorf("log level cannot be empty")
	}
	for _, t := range c.TenantList {
		if t.Code == "" {
			return fmt.Errorf("tenant entry missing code")
		}
	}
	for _, r := range c.ResourceList {
		if r.Name == "" {
			return fmt.Errorf("resource entry missing name")
		}
	}
	return nil
}

func (c *Config) validateProfile() error {
	if c.Profile != ProfileLite && c.Profile != ProfileStandard {
		return fmt.Errorf("invalid deployment profile: %s (must be 'lite' or 'standard')", c.Profile)
	}
	switch c.Profile {
	case ProfileLite:
		if c.Storage.Backend != StorageBackendSQLite {
			return fmt.Errorf("lite profile requires storage.backend='sqlite' (got '%s')", c.Storage.Backend)
		}
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("lite profile requires storage.sqlite_path")
		}
	case ProfileStandard:
		if c.Storage.Backend != StorageBackendPostgres {
			return fmt.Errorf("standard profile requires storage.backend='postgres' (got '%s')", c.Storage.Backend)
		}
		if c.Database.Host == "" || c.Database.Database == "" {
			return fmt.Errorf("standard profile requires database.host and database.database")
		}
	}
	return nil
}

// GetDatabaseURL constructs the Postgres DSN from configuration.
func (c *Config) GetDatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.Username, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database, sslMode)
}

// IsProduction reports whether the platform is configured as production.
func (c *Config) IsProduction() bool {
	return c.PlatformSettings.Production
}

// IsLiteProfile reports whether the catalog store runs on embedded sqlite.
func (c *Config) IsLiteProfile() bool {
	return c.Profile == ProfileLite
}

// IsStandardProfile reports whether the catalog store runs on Postgres.
func (c *Config) IsStandardProfile() bool {
	return c.Profile == ProfileStandard
}
