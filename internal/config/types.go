// Package config loads the site configuration from defaults, an optional
// YAML file and SUMMIT_* environment variables, in that order of precedence.
package config

import (
	"time"

	"summit/internal/observability"
)

// ValueSource describes where a configuration value originated from.
type ValueSource string

const (
	SourceDefault ValueSource = "default"
	SourceFile    ValueSource = "file"
	SourceEnv     ValueSource = "environment"
)

// Backend drivers.
const (
	DriverREST     = "rest"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

const (
	DefaultAddr             = ":8080"
	DefaultPublicURL        = "http://localhost:8080"
	DefaultBackendTimeout   = 15 * time.Second
	DefaultMaxResponseBytes = 8 << 20
	DefaultStorageDir       = "~/.summit/storage"
	DefaultSQLitePath       = "~/.summit/summit.db"
	DefaultSiteName         = "Boardroom Summit"
	DefaultPlaceholder      = "/placeholder.svg"
)

// Config is the full runtime configuration.
type Config struct {
	Server  ServerConfig                `mapstructure:"server" yaml:"server"`
	Backend BackendConfig               `mapstructure:"backend" yaml:"backend"`
	Storage StorageConfig               `mapstructure:"storage" yaml:"storage"`
	Site    SiteConfig                  `mapstructure:"site" yaml:"site"`
	Admin   AdminConfig                 `mapstructure:"admin" yaml:"admin"`
	Log     LogConfig                   `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig               `mapstructure:"metrics" yaml:"metrics"`
	Tracing observability.TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr"`
	PublicURL      string        `mapstructure:"public_url" yaml:"public_url"`
	Debug          bool          `mapstructure:"debug" yaml:"debug"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// BackendConfig selects and configures the data backend.
type BackendConfig struct {
	Driver           string        `mapstructure:"driver" yaml:"driver"`
	URL              string        `mapstructure:"url" yaml:"url"`
	APIKey           string        `mapstructure:"api_key" yaml:"api_key"`
	DSN              string        `mapstructure:"dsn" yaml:"dsn"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimitRPS     float64       `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst   int           `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
	MaxResponseBytes int64         `mapstructure:"max_response_bytes" yaml:"max_response_bytes"`
}

// StorageConfig configures local blob storage for self-hosted drivers.
type StorageConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// SiteConfig holds presentation settings.
type SiteConfig struct {
	Name           string `mapstructure:"name" yaml:"name"`
	Placeholder    string `mapstructure:"placeholder" yaml:"placeholder"`
	StorageBaseURL string `mapstructure:"storage_base_url" yaml:"storage_base_url"`
}

// AdminConfig guards the admin surfaces. An empty token disables them.
type AdminConfig struct {
	Token string `mapstructure:"token" yaml:"token"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// StorageBaseURL is the host that bucket-relative logo paths resolve
// against. It falls back to the hosted backend URL for the rest driver and to
// the site's own public URL otherwise, since the site serves local storage.
func (c Config) StorageBaseURL() string {
	if c.Site.StorageBaseURL != "" {
		return c.Site.StorageBaseURL
	}
	if c.Backend.Driver == DriverREST {
		return c.Backend.URL
	}
	return c.Server.PublicURL
}

// AdminEnabled reports whether the admin surfaces are served.
func (c Config) AdminEnabled() bool {
	return c.Admin.Token != ""
}
