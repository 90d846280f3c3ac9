package config

import (
	"net/url"

	"gopkg.in/yaml.v3"

	"summit/internal/observability"
)

// Redacted returns a copy of c with credentials masked.
func (c Config) Redacted() Config {
	out := c
	out.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	if c.Backend.APIKey != "" {
		out.Backend.APIKey = observability.SanitizeAPIKey(c.Backend.APIKey)
	}
	if c.Admin.Token != "" {
		out.Admin.Token = "***"
	}
	if c.Backend.DSN != "" {
		if u, err := url.Parse(c.Backend.DSN); err == nil && u.User != nil {
			out.Backend.DSN = u.Redacted()
		}
	}
	return out
}

// DumpYAML renders the redacted configuration.
func DumpYAML(c Config) ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}
