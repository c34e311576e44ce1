package config

import (
	"fmt"
	"os"
	"strings"

	"placement/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets holds KVv2 paths for the placement secrets. An empty path
// leaves the configured value alone.
type VaultSecrets struct {
	APIKeys     string `mapstructure:"apiKeys"`     // key "keys", comma-separated
	GeminiKey   string `mapstructure:"geminiKey"`   // key "api_key"
	DatabaseDSN string `mapstructure:"databaseDSN"` // key "dsn"
	RedisURL    string `mapstructure:"redisURL"`    // key "url"
}

// VaultClient reads string secrets from a KVv2 mount.
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// NewVaultClient connects to Vault and checks its health. It returns nil
// when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		return nil, nil
	}

	apiConfig := api.DefaultConfig()
	if config.Address != "" {
		apiConfig.Address = config.Address
	}
	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config, logger)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		logger.LogError(err, "Failed to connect to Vault", "address", config.Address)
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	logger.Info("Connected to Vault",
		"address", config.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken prefers the inline token over the token file.
func resolveVaultToken(config VaultConfig, logger *errors.Logger) (string, error) {
	token := config.Token
	if token == "" && config.TokenFile != "" {
		raw, err := os.ReadFile(config.TokenFile)
		if err != nil {
			logger.LogError(err, "Failed to read Vault token file", "file", config.TokenFile)
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// stringSecret reads key from the KVv2 secret at path.
func (vc *VaultClient) stringSecret(path, key string) (string, error) {
	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("secret not found at path: %s", path)
	}
	data, err := kvData(secret, path)
	if err != nil {
		return "", err
	}

	value, ok := data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	vc.logger.Debug("Secret read from Vault", "path", path, "key", key, "masked_value", maskSecret(s))
	return s, nil
}

func kvData(secret *api.Secret, path string) (map[string]any, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	return data, nil
}

func maskSecret(s string) string {
	switch {
	case len(s) > 8:
		return s[:4] + "****" + s[len(s)-4:]
	case s != "":
		return "****"
	}
	return ""
}

// ApplyVaultSecrets overwrites API keys, the Gemini key, the store DSN and
// the redis URL with the values found in Vault. Empty secrets are ignored.
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}

	paths := config.Vault.Secrets
	loads := []struct {
		path, key, description string
		apply                  func(string)
	}{
		{paths.APIKeys, "keys", "API keys", func(v string) { config.Server.APIKeys = splitList(v) }},
		{paths.GeminiKey, "api_key", "Gemini API key", func(v string) { applyGeminiKeyToConfig(config, v) }},
		{paths.DatabaseDSN, "dsn", "database DSN", func(v string) { config.Store.DSN = v }},
		{paths.RedisURL, "url", "redis URL", func(v string) { config.Cache.RedisURL = v }},
	}
	for _, l := range loads {
		if l.path == "" {
			continue
		}
		value, err := client.stringSecret(l.path, l.key)
		if err != nil {
			logger.LogError(err, "Failed to load "+l.description+" from Vault", "path", l.path)
			return fmt.Errorf("failed to load %s from vault: %w", l.description, err)
		}
		if strings.TrimSpace(value) == "" {
			logger.Warn("Empty "+l.description+" found in Vault", "path", l.path)
			continue
		}
		l.apply(value)
		logger.Info(l.description+" loaded from Vault", "path", l.path)
	}
	return nil
}

// applyGeminiKeyToConfig sets the shared key and fills the analysis key when
// it has none of its own.
func applyGeminiKeyToConfig(config *Config, geminiKey string) {
	config.AI.APIKey = geminiKey
	if config.AI.Analysis.APIKey == "" {
		config.AI.Analysis.APIKey = geminiKey
	}
}
