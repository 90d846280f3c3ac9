package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SUMMIT_BACKEND_URL.
const EnvPrefix = "SUMMIT"

// Metadata records how a configuration was assembled.
type Metadata struct {
	configFile string
	sources    map[string]ValueSource
}

// ConfigFile is the file that was read, empty when none was found.
func (m Metadata) ConfigFile() string {
	return m.configFile
}

// Source reports where key (e.g. "backend.url") came from.
func (m Metadata) Source(key string) ValueSource {
	if src, ok := m.sources[key]; ok {
		return src
	}
	return SourceDefault
}

type loadOptions struct {
	configFile  string
	searchPaths []string
}

// Option customises Load.
type Option func(*loadOptions)

// WithConfigFile reads path instead of searching for summit.yaml. A missing
// explicit file is an error.
func WithConfigFile(path string) Option {
	return func(o *loadOptions) { o.configFile = path }
}

// WithSearchPaths replaces the directories searched for summit.yaml.
func WithSearchPaths(paths ...string) Option {
	return func(o *loadOptions) { o.searchPaths = paths }
}

func defaultSearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".summit"))
	}
	return paths
}

// Load assembles the configuration.
func Load(opts ...Option) (Config, Metadata, error) {
	options := loadOptions{searchPaths: defaultSearchPaths()}
	for _, opt := range opts {
		opt(&options)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if options.configFile != "" {
		v.SetConfigFile(options.configFile)
	} else {
		v.SetConfigName("summit")
		v.SetConfigType("yaml")
		for _, p := range options.searchPaths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if options.configFile != "" || !errors.As(err, &notFound) {
			return Config{}, Metadata{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, Metadata{}, fmt.Errorf("decode config: %w", err)
	}
	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, Metadata{}, err
	}

	meta := Metadata{configFile: v.ConfigFileUsed(), sources: map[string]ValueSource{}}
	for _, key := range v.AllKeys() {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		switch {
		case os.Getenv(envKey) != "":
			meta.sources[key] = SourceEnv
		case v.InConfig(key):
			meta.sources[key] = SourceFile
		}
	}
	return cfg, meta, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.public_url", DefaultPublicURL)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("backend.driver", DriverREST)
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.dsn", "")
	v.SetDefault("backend.timeout", DefaultBackendTimeout.String())
	v.SetDefault("backend.rate_limit_rps", 0)
	v.SetDefault("backend.rate_limit_burst", 1)
	v.SetDefault("backend.max_response_bytes", DefaultMaxResponseBytes)

	v.SetDefault("storage.dir", DefaultStorageDir)

	v.SetDefault("site.name", DefaultSiteName)
	v.SetDefault("site.placeholder", DefaultPlaceholder)
	v.SetDefault("site.storage_base_url", "")

	v.SetDefault("admin.token", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "otlp")
	v.SetDefault("tracing.otlp_endpoint", "localhost:4318")
	v.SetDefault("tracing.zipkin_endpoint", "http://localhost:9411/api/v2/spans")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.service_name", "summit")
	v.SetDefault("tracing.service_version", "")
}

func normalize(cfg *Config) {
	cfg.Backend.Driver = strings.ToLower(strings.TrimSpace(cfg.Backend.Driver))
	cfg.Backend.URL = strings.TrimRight(strings.TrimSpace(cfg.Backend.URL), "/")
	cfg.Server.PublicURL = strings.TrimRight(strings.TrimSpace(cfg.Server.PublicURL), "/")
	cfg.Site.StorageBaseURL = strings.TrimRight(strings.TrimSpace(cfg.Site.StorageBaseURL), "/")
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	if cfg.Backend.Driver == DriverSQLite && cfg.Backend.DSN == "" {
		cfg.Backend.DSN = DefaultSQLitePath
	}
	if cfg.Backend.RateLimitBurst < 1 {
		cfg.Backend.RateLimitBurst = 1
	}
	if cfg.Site.Placeholder == "" {
		cfg.Site.Placeholder = DefaultPlaceholder
	}
}

// Validate reports settings the site cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend.Driver {
	case DriverREST:
		if c.Backend.URL == "" {
			errs = append(errs, errors.New("backend.url is required for the rest driver"))
		}
	case DriverPostgres:
		if c.Backend.DSN == "" {
			errs = append(errs, errors.New("backend.dsn is required for the postgres driver"))
		}
	case DriverSQLite, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown backend.driver %q", c.Backend.Driver))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	if c.Backend.Timeout < 0 {
		errs = append(errs, errors.New("backend.timeout must not be negative"))
	}
	return errors.Join(errs...)
}
