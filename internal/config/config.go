// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Fetcher FetcherConfig `mapstructure:"fetcher"`
	DB      DBConfig      `mapstructure:"db"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                   int `mapstructure:"port"`
	RequestTimeoutSeconds  int `mapstructure:"request_timeout_seconds"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// FetcherConfig configures the outbound document fetch. A PerHostRPS of 0
// disables per-host throttling.
type FetcherConfig struct {
	UserAgent      string  `mapstructure:"user_agent"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxBodyBytes   int     `mapstructure:"max_body_bytes"`
	PerHostRPS     float64 `mapstructure:"per_host_rps"`
	PerHostBurst   int     `mapstructure:"per_host_burst"`
}

// DBConfig controls access to the job store.
type DBConfig struct {
	Driver                 string `mapstructure:"driver"`
	DSN                    string `mapstructure:"dsn"`
	MaxConns               int32  `mapstructure:"max_conns"`
	MinConns               int32  `mapstructure:"min_conns"`
	MaxConnLifetimeSeconds int    `mapstructure:"max_conn_lifetime_seconds"`
	AutoMigrate            bool   `mapstructure:"auto_migrate"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WEBAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	// DATABASE_URL is honored for compatibility with existing deployments.
	if err := v.BindEnv("db.dsn", "WEBAUDIT_DB_DSN", "DATABASE_URL"); err != nil {
		return Config{}, fmt.Errorf("bind db.dsn env: %w", err)
	}
	if err := v.BindEnv("server.port", "WEBAUDIT_SERVER_PORT", "PORT"); err != nil {
		return Config{}, fmt.Errorf("bind server.port env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.DB = cfg.DB.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("fetcher.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
		"(KHTML, like Gecko) Chrome/115.0 Safari/537.36")
	v.SetDefault("fetcher.timeout_seconds", 15)
	v.SetDefault("fetcher.max_body_bytes", 10*1024*1024)
	v.SetDefault("fetcher.per_host_rps", 0)
	v.SetDefault("fetcher.per_host_burst", 1)
	v.SetDefault("db.driver", "")
	v.SetDefault("db.dsn", "sqlite:///./webaudit360.db")
	v.SetDefault("db.max_conns", 0)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("db.max_conn_lifetime_seconds", 0)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("logging.development", false)
	v.SetDefault("metrics.enabled", true)
}

// normalize infers the driver from the DSN when it is not set explicitly and
// strips the sqlite:// scheme down to a file path.
func (c DBConfig) normalize() DBConfig {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	dsn := strings.TrimSpace(c.DSN)
	if c.Driver == "" {
		switch {
		case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
			c.Driver = DriverPostgres
		case dsn == DriverMemory:
			c.Driver = DriverMemory
		default:
			c.Driver = DriverSQLite
		}
	}
	if c.Driver == DriverSQLite && strings.HasPrefix(dsn, "sqlite://") {
		// sqlite:///rel.db names rel.db, sqlite:////abs.db names /abs.db and a
		// bare sqlite:// is an in-memory database.
		dsn = strings.TrimPrefix(dsn, "sqlite://")
		switch {
		case dsn == "":
			dsn = ":memory:"
		case strings.HasPrefix(dsn, "/"):
			dsn = dsn[1:]
		}
	}
	c.DSN = dsn
	return c
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	if c.Fetcher.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetcher.timeout_seconds must be > 0")
	}
	// A handler budget at or below the fetch budget turns a slow upstream
	// into a handler timeout instead of a fetch failure.
	if c.Server.RequestTimeoutSeconds <= c.Fetcher.TimeoutSeconds {
		return fmt.Errorf("server.request_timeout_seconds (%d) must exceed fetcher.timeout_seconds (%d)",
			c.Server.RequestTimeoutSeconds, c.Fetcher.TimeoutSeconds)
	}
	if c.Fetcher.MaxBodyBytes < 0 {
		return fmt.Errorf("fetcher.max_body_bytes must be >= 0")
	}
	if c.Fetcher.PerHostRPS < 0 {
		return fmt.Errorf("fetcher.per_host_rps must be >= 0")
	}
	switch c.DB.Driver {
	case DriverPostgres, DriverSQLite:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for driver %q", c.DB.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("db.driver must be one of postgres, sqlite, memory; got %q", c.DB.Driver)
	}
	return nil
}

// FetchTimeout returns the fetch timeout as a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetcher.TimeoutSeconds) * time.Second
}

// RequestTimeout returns the per-request HTTP handler budget.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// MaxConnLifetime returns the pool connection lifetime; zero keeps the driver default.
func (c DBConfig) MaxConnLifetime() time.Duration {
	return time.Duration(c.MaxConnLifetimeSeconds) * time.Second
}
