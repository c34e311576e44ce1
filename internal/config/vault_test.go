package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"placement/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLogger() *errors.Logger {
	// Return a real logger for testing since the interface is complex
	logger, _ := errors.New("debug")
	return logger
}

func TestApplyGeminiKeyToConfig(t *testing.T) {
	config := &Config{}

	applyGeminiKeyToConfig(config, "test-gemini-key")

	assert.Equal(t, "test-gemini-key", config.AI.APIKey)
	assert.Equal(t, "test-gemini-key", config.AI.Analysis.APIKey)
}

func TestApplyGeminiKeyToConfigWithExistingKeys(t *testing.T) {
	config := &Config{
		AI: AIConfig{Analysis: OperationAIConfig{APIKey: "existing-analysis-key"}},
	}

	applyGeminiKeyToConfig(config, "test-gemini-key")

	assert.Equal(t, "test-gemini-key", config.AI.APIKey)
	assert.Equal(t, "existing-analysis-key", config.AI.Analysis.APIKey) // Should not overwrite existing
}

// Test resolveVaultToken function
func TestResolveVaultToken(t *testing.T) {
	logger := newMockLogger()

	t.Run("token from config", func(t *testing.T) {
		config := VaultConfig{
			Token: "direct-token",
		}

		token, err := resolveVaultToken(config, logger)
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file", func(t *testing.T) {
		// Create temporary token file
		tmpDir := t.TempDir()
		tokenFile := filepath.Join(tmpDir, "vault-token")
		err := os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600)
		require.NoError(t, err)

		config := VaultConfig{
			TokenFile: tokenFile,
		}

		token, err := resolveVaultToken(config, logger)
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token) // Should be trimmed
	})

	t.Run("missing token file", func(t *testing.T) {
		config := VaultConfig{
			TokenFile: "/nonexistent/token/file",
		}

		_, err := resolveVaultToken(config, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read vault token file")
	})

	t.Run("no token provided", func(t *testing.T) {
		config := VaultConfig{}

		_, err := resolveVaultToken(config, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})

	t.Run("empty token from file", func(t *testing.T) {
		// Create temporary empty token file
		tmpDir := t.TempDir()
		tokenFile := filepath.Join(tmpDir, "empty-token")
		err := os.WriteFile(tokenFile, []byte("   \n  \n"), 0600)
		require.NoError(t, err)

		config := VaultConfig{
			TokenFile: tokenFile,
		}

		_, err = resolveVaultToken(config, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})
}

// Test ApplyVaultSecrets function with disabled vault
func TestApplyVaultSecretsDisabled(t *testing.T) {
	logger := newMockLogger()

	config := &Config{
		Vault: VaultConfig{
			Enabled: false,
		},
	}

	err := ApplyVaultSecrets(config, logger)
	assert.NoError(t, err)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "AIza****wxyz", maskSecret("AIzaSyD-0123wxyz"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Empty(t, maskSecret(""))
}

func TestKVData(t *testing.T) {
	tests := []struct {
		name        string
		secret      *api.Secret
		path        string
		expectError bool
		expected    map[string]any
	}{
		{
			name: "valid KVv2 secret",
			secret: &api.Secret{
				Data: map[string]interface{}{
					"data": map[string]interface{}{
						"key1": "value1",
						"key2": "value2",
					},
				},
			},
			path:     "secret/test",
			expected: map[string]any{"key1": "value1", "key2": "value2"},
		},
		{
			name: "missing data field",
			secret: &api.Secret{
				Data: map[string]interface{}{
					"metadata": map[string]interface{}{},
				},
			},
			path:        "secret/test",
			expectError: true,
		},
		{
			name: "data field wrong type",
			secret: &api.Secret{
				Data: map[string]interface{}{
					"data": "not-a-map",
				},
			},
			path:        "secret/test",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := kvData(tt.secret, tt.path)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// fakeVault serves KVv2 reads and the health endpoint.
func fakeVault(t *testing.T, secrets map[string]map[string]any) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sys/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"initialized":  true,
			"sealed":       false,
			"version":      "1.15.0",
			"cluster_name": "test",
		})
	})
	mux.HandleFunc("/v1/", func(w http.ResponseWriter, r *http.Request) {
		data, ok := secrets[r.URL.Path[len("/v1/"):]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data":     data,
				"metadata": map[string]any{"version": 3},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestApplyVaultSecrets(t *testing.T) {
	srv := fakeVault(t, map[string]map[string]any{
		"secret/data/placement/gemini": {"api_key": "gemini-from-vault"},
		"secret/data/placement/api":    {"keys": "k1, k2"},
		"secret/data/placement/db":     {"dsn": "postgres://placement:pw@db:5432/placement"},
		"secret/data/placement/redis":  {"url": ""},
	})

	config := &Config{
		Store: StoreConfig{Driver: "sqlite", DSN: "placement.db"},
		Cache: CacheConfig{RedisURL: "redis://localhost:6379/0"},
		Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "root",
			Secrets: VaultSecrets{
				APIKeys:     "secret/data/placement/api",
				GeminiKey:   "secret/data/placement/gemini",
				DatabaseDSN: "secret/data/placement/db",
				RedisURL:    "secret/data/placement/redis",
			},
		},
	}

	require.NoError(t, ApplyVaultSecrets(config, newMockLogger()))

	assert.Equal(t, "gemini-from-vault", config.AI.APIKey)
	assert.Equal(t, []string{"k1", "k2"}, config.Server.APIKeys)
	assert.Equal(t, "postgres://placement:pw@db:5432/placement", config.Store.DSN)
	assert.Equal(t, "redis://localhost:6379/0", config.Cache.RedisURL, "empty secret keeps the configured value")
}

func TestApplyVaultSecretsMissingPath(t *testing.T) {
	srv := fakeVault(t, map[string]map[string]any{})

	config := &Config{
		Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "root",
			Secrets: VaultSecrets{DatabaseDSN: "secret/data/placement/db"},
		},
	}

	err := ApplyVaultSecrets(config, newMockLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database DSN")
}
