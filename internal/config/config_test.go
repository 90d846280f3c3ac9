package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "summit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWithMemoryDriver(t *testing.T) {
	t.Setenv("SUMMIT_BACKEND_DRIVER", "memory")

	cfg, meta, err := Load(WithSearchPaths(t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DefaultBackendTimeout, cfg.Backend.Timeout)
	assert.Equal(t, int64(DefaultMaxResponseBytes), cfg.Backend.MaxResponseBytes)
	assert.Equal(t, DefaultPlaceholder, cfg.Site.Placeholder)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.AdminEnabled())
	assert.Empty(t, meta.ConfigFile())
	assert.Equal(t, SourceEnv, meta.Source("backend.driver"))
	assert.Equal(t, SourceDefault, meta.Source("server.addr"))
}

func TestRestDriverRequiresURL(t *testing.T) {
	_, _, err := Load(WithSearchPaths(t.TempDir()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.url is required")
}

func TestFileThenEnvPrecedence(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
  public_url: "https://summit.example/"
backend:
  driver: rest
  url: "https://proj.example.co/"
  api_key: "anon-key-1234567890"
  timeout: 5s
admin:
  token: secret
`)
	t.Setenv("SUMMIT_SERVER_ADDR", ":9100")

	cfg, meta, err := Load(WithConfigFile(path))
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, "https://summit.example", cfg.Server.PublicURL)
	assert.Equal(t, "https://proj.example.co", cfg.Backend.URL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.True(t, cfg.AdminEnabled())
	assert.Equal(t, path, meta.ConfigFile())
	assert.Equal(t, SourceEnv, meta.Source("server.addr"))
	assert.Equal(t, SourceFile, meta.Source("backend.url"))
}

func TestMissingExplicitFileFails(t *testing.T) {
	_, _, err := Load(WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Error(t, err)
}

func TestUnknownDriverRejected(t *testing.T) {
	t.Setenv("SUMMIT_BACKEND_DRIVER", "mongo")
	_, _, err := Load(WithSearchPaths(t.TempDir()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown backend.driver "mongo"`)
}

func TestSQLiteDriverGetsDefaultPath(t *testing.T) {
	t.Setenv("SUMMIT_BACKEND_DRIVER", "sqlite")
	cfg, _, err := Load(WithSearchPaths(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, DefaultSQLitePath, cfg.Backend.DSN)
}

func TestStorageBaseURL(t *testing.T) {
	cfg := Config{
		Server:  ServerConfig{PublicURL: "https://summit.example"},
		Backend: BackendConfig{Driver: DriverREST, URL: "https://proj.example.co"},
	}
	assert.Equal(t, "https://proj.example.co", cfg.StorageBaseURL())

	cfg.Backend.Driver = DriverSQLite
	assert.Equal(t, "https://summit.example", cfg.StorageBaseURL())

	cfg.Site.StorageBaseURL = "https://cdn.example"
	assert.Equal(t, "https://cdn.example", cfg.StorageBaseURL())
}

func TestDumpYAMLMasksSecrets(t *testing.T) {
	cfg := Config{
		Backend: BackendConfig{
			Driver: DriverPostgres,
			APIKey: "service-role-key-abcdefgh",
			DSN:    "postgres://summit:hunter2@db:5432/summit",
		},
		Admin: AdminConfig{Token: "letmein"},
	}
	out, err := DumpYAML(cfg)
	require.NoError(t, err)

	text := string(out)
	assert.NotContains(t, text, "hunter2")
	assert.NotContains(t, text, "letmein")
	assert.NotContains(t, text, "service-role-key-abcdefgh")

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Contains(t, decoded, "backend")
	assert.Equal(t, "letmein", cfg.Admin.Token)
}
