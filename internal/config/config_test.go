package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.DBType)
	assert.Equal(t, 30*time.Second, cfg.Quotes.CacheTTL())
	assert.Equal(t, 5*time.Second, cfg.Quotes.Timeout())
	assert.Equal(t, []string{"NYQ", "NMS", "NGM", "BSE", "NSE"}, cfg.Quotes.AllowedExchanges)
}

func TestNewConfig_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
name: ledger-test
http:
  host: 127.0.0.1
  port: 9000
storage:
  db_type: sqlite
  db_path: /tmp/ledger.db
quotes:
  timeout_seconds: 2
  cache_ttl_seconds: 10
`)
	t.Setenv("API_TOKEN", "secret")
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ledger-test", cfg.Name)
	assert.Equal(t, "127.0.0.1:9100", cfg.HTTP.Address())
	assert.Equal(t, "secret", cfg.GRPC.APIToken)
	assert.Equal(t, 2*time.Second, cfg.Quotes.Timeout())
	assert.Equal(t, 10*time.Second, cfg.Quotes.CacheTTL())
	// untouched sections keep defaults
	assert.Equal(t, 4, cfg.Quotes.Concurrency)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "empty name", mutate: func(c *Config) { c.Name = "" }},
		{name: "bad port", mutate: func(c *Config) { c.HTTP.Port = 70000 }},
		{name: "unknown db", mutate: func(c *Config) { c.Storage.DBType = "mysql" }},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Storage.DBType = "postgres" }},
		{name: "zero timeout", mutate: func(c *Config) { c.Quotes.TimeoutSeconds = 0 }},
		{name: "zero ttl", mutate: func(c *Config) { c.Quotes.CacheTTLSeconds = 0 }},
		{name: "no exchanges", mutate: func(c *Config) { c.Quotes.AllowedExchanges = nil }},
		{name: "empty schedule", mutate: func(c *Config) { c.Refresher.Schedule = " " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestNewConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "name: [unterminated")
	_, err := NewConfig(path)
	assert.Error(t, err)
}
