package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		AI: AIConfig{Timeout: time.Minute},
		Server: ServerConfig{
			Port: "8080",
			TLS:  TLSConfig{Mode: "disabled"},
		},
		App: AppConfig{
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown", "csv"},
			AnalysisTimeout:  10 * time.Second,
		},
		Store: StoreConfig{Driver: "sqlite", DSN: ":memory:", MaxConns: 4, MinConns: 1},
		Cache: CacheConfig{Enabled: true, TTL: time.Second},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no AI key is allowed", func(c *Config) { c.AI.APIKey = "" }, ""},
		{"zero AI timeout", func(c *Config) { c.AI.Timeout = 0 }, "AI timeout"},
		{"zero analysis timeout", func(c *Config) { c.App.AnalysisTimeout = 0 }, "analysis timeout"},
		{"missing port", func(c *Config) { c.Server.Port = "" }, "server port"},
		{"unsupported format", func(c *Config) { c.App.DefaultFormat = "xml" }, "invalid default format"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }, "invalid store driver"},
		{"missing dsn", func(c *Config) { c.Store.DSN = "" }, "store DSN"},
		{"min over max conns", func(c *Config) { c.Store.MinConns = 8 }, "minConns"},
		{"cache without ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache TTL"},
		{"disabled cache ignores ttl", func(c *Config) { c.Cache = CacheConfig{} }, ""},
		{"tls without files", func(c *Config) { c.Server.TLS.Mode = "server" }, "TLS"},
		{"mutual tls not supported", func(c *Config) { c.Server.TLS.Mode = "mutual" }, "invalid TLS mode"},
		{"bad tls version", func(c *Config) {
			c.Server.TLS = TLSConfig{Mode: "server", CertFile: "c.pem", KeyFile: "k.pem", MinVersion: "1.1"}
		}, "minVersion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetAnalysisConfigInheritsGlobals(t *testing.T) {
	temp := float32(0.1)
	cfg := &Config{
		AI: AIConfig{
			Provider:      "gemini",
			Model:         "gemini-2.0-flash",
			Timeout:       time.Minute,
			APIKey:        "global-key",
			MaxRetries:    3,
			Temperature:   0.7,
			CustomPrompts: PromptConfig{SystemPrompt: "global system"},
			Analysis: OperationAIConfig{
				Model:         "gemini-2.5-flash",
				Temperature:   &temp,
				CustomPrompts: PromptConfig{UserPrompt: "analysis user"},
			},
		},
	}

	analysis := cfg.GetAnalysisConfig()

	assert.Equal(t, "gemini", analysis.Provider)
	assert.Equal(t, "gemini-2.5-flash", analysis.Model)
	assert.Equal(t, "global-key", analysis.APIKey)
	assert.Equal(t, time.Minute, *analysis.Timeout)
	assert.Equal(t, 3, *analysis.MaxRetries)
	assert.Equal(t, float32(0.1), *analysis.Temperature)
	assert.Equal(t, "global system", analysis.CustomPrompts.SystemPrompt)
	assert.Equal(t, "analysis user", analysis.CustomPrompts.UserPrompt)
	assert.True(t, cfg.AIEnabled())

	cfg.AI.APIKey = ""
	assert.False(t, cfg.AIEnabled())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  enforceEligibility: false
  analysisTimeout: 5s
store:
  driver: sqlite
  dsn: ":memory:"
ai:
  analysis:
    model: gemini-2.5-flash
cache:
  ttl: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))
	t.Setenv("PLACEMENT_SERVER_PORT", "9999")
	t.Setenv("PLACEMENT_SERVER_APIKEYS", " key-a, key-b ,")

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.False(t, cfg.App.EnforceEligibility)
	assert.Equal(t, 5*time.Second, cfg.App.AnalysisTimeout)
	assert.Equal(t, ":memory:", cfg.Store.DSN)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, []string{"key-a", "key-b"}, cfg.Server.APIKeys)
	assert.Equal(t, "gemini-2.5-flash", cfg.GetAnalysisConfig().Model)
	assert.Contains(t, cfg.App.SupportedFormats, "csv")
	assert.NotEmpty(t, cfg.Observability.ServiceInstance)
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://app:xxxxx@db:5432/placement", RedactDSN("postgres://app:secret@db:5432/placement"))
	assert.Equal(t, "placement.db", RedactDSN("placement.db"))
	assert.Equal(t, "file::memory:?cache=shared", RedactDSN("file::memory:?cache=shared"))
}
