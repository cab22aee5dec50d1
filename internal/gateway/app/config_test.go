package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	for _, k := range []string{"PORT", "ENV", "LOG_LEVEL", "LOG_FORMAT", "GATEWAY_IDENTITY_URL", "GATEWAY_INTROSPECT_TIMEOUT"} {
		t.Setenv(k, "")
	}

	t.Run("defaults without a file", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())
		require.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("file overrides", func(t *testing.T) {
		path := writeConfig(t, `
port: 9000
apiPrefix: /api/v2
identity:
  url: http://identity:8080
  introspectTimeout: 750ms
publicEndpoints:
  - /api/v2/identity/auth/token
routes:
  - id: identity_service
    uri: http://identity:8080
    prefix: /identity
    stripPrefix: true
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		require.Equal(t, 9000, cfg.Port)
		require.Equal(t, "/api/v2", cfg.APIPrefix)
		require.Equal(t, "http://identity:8080", cfg.Identity.URL)
		require.Equal(t, 750*time.Millisecond, cfg.Identity.IntrospectTimeout)
		require.Equal(t, 5, cfg.Identity.BreakerMaxFailures, "unset keys keep defaults")
		require.Equal(t, []string{"/api/v2/identity/auth/token"}, cfg.PublicEndpoints)
		require.Len(t, cfg.Routes, 1)
		require.True(t, cfg.Routes[0].StripPrefix)
	})

	t.Run("environment beats file", func(t *testing.T) {
		path := writeConfig(t, "port: 9000\n")
		t.Setenv("PORT", "9100")
		t.Setenv("GATEWAY_IDENTITY_URL", "http://elsewhere:8080")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, 9100, cfg.Port)
		require.Equal(t, "http://elsewhere:8080", cfg.Identity.URL)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "routes: [\n"))
		require.ErrorContains(t, err, "failed to parse config file")
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Port = 0 }, "port"},
		{"identity url", func(c *Config) { c.Identity.URL = "" }, "identity.url"},
		{"timeout", func(c *Config) { c.Identity.IntrospectTimeout = 0 }, "introspectTimeout"},
		{"routes", func(c *Config) { c.Routes = nil }, "route"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
