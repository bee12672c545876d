// Package postgres adapts the catalog's Dialect interface to PostgreSQL
// over pgx/v5, grounded on internal/database/postgres's connection pool.
package postgres

import (
	"fmt"
	"time"
)

// Config holds the connection parameters for a catalog postgres dialect,
// the same shape as internal/database/postgres.PostgresConfig generalized
// from one fixed database name to the catalog's own defaults.
type Config struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	Database string `yaml:"database" env:"DB_NAME"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`

	SSLMode string `yaml:"ssl_mode" env:"DB_SSL_MODE"`

	MaxConns int32 `yaml:"max_conns" env:"DB_MAX_CONNS"`
	MinConns int32 `yaml:"min_conns" env:"DB_MIN_CONNS"`

	MaxConnLifetime   time.Duration `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME"`
	MaxConnIdleTime   time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME"`
	HealthCheckPeriod time.Duration `yaml:"health_check_period" env:"DB_HEALTH_CHECK_PERIOD"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout" env:"DB_CONNECT_TIMEOUT"`
}

// DefaultConfig returns the catalog's default local-development settings.
func DefaultConfig() *Config {
	return &Config{
		Host:              "localhost",
		Port:              5432,
		Database:          "trac_catalog",
		User:              "trac_catalog",
		SSLMode:           "disable",
		MaxConns:          20,
		MinConns:          2,
		MaxConnLifetime:   1 * time.Hour,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
		ConnectTimeout:    30 * time.Second,
	}
}

// Validate checks the config is complete enough to dial.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("postgres: host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("postgres: invalid port %d", c.Port)
	}
	if c.Database == "" {
		return fmt.Errorf("postgres: database name is required")
	}
	if c.User == "" {
		return fmt.Errorf("postgres: user is required")
	}
	if c.MaxConns > 0 && c.MinConns > c.MaxConns {
		return fmt.Errorf("postgres: min_conns (%d) exceeds max_conns (%d)", c.MinConns, c.MaxConns)
	}
	return nil
}

// DSN renders the libpq connection string pgxpool.ParseConfig expects.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s connect_timeout=%d",
		c.Host, c.Port, c.Database, c.User, c.Password, c.SSLMode, int(c.ConnectTimeout.Seconds()))
}
