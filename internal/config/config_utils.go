package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyAIKeyFallback()

	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode == "server" {
		c.Server.TLS.MinVersion = "1.2"
	}

	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// applyServerAPIKeyFallbacks re-parses a comma-separated env key list, since
// viper splits env values without trimming
func (c *Config) applyServerAPIKeyFallbacks() {
	if apiKeysEnv := os.Getenv("PLACEMENT_SERVER_APIKEYS"); apiKeysEnv != "" {
		c.Server.APIKeys = splitList(apiKeysEnv)
	}
}

// applyAIKeyFallback honors the conventional GEMINI_API_KEY variable
func (c *Config) applyAIKeyFallback() {
	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// RedactDSN hides the password in URL-style DSNs
func RedactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"PLACEMENT_AI_APIKEY",
		"PLACEMENT_AI_MODEL",
		"PLACEMENT_SERVER_PORT",
		"PLACEMENT_SERVER_HOST",
		"PLACEMENT_APP_LOGLEVEL",
		"PLACEMENT_STORE_DRIVER",
		"PLACEMENT_STORE_DSN",
		"PLACEMENT_CACHE_REDISURL",
		"PLACEMENT_VAULT_ENABLED",
		"GEMINI_API_KEY",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			lower := strings.ToLower(envVar)
			if strings.Contains(lower, "key") || strings.Contains(lower, "dsn") || strings.Contains(lower, "redisurl") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s, Model: %s", c.AI.Provider, c.AI.Model)
	if c.AI.APIKey != "" {
		log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] AI API Key: ***NOT SET*** (analysis uses the fallback responder)")
	}
	log.Printf("[CONFIG] Server: %s:%s (TLS %s)", c.Server.Host, c.Server.Port, c.Server.TLS.Mode)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Enforce Eligibility: %t", c.App.EnforceEligibility)
	log.Printf("[CONFIG] Store: %s %s", c.Store.Driver, RedactDSN(c.Store.DSN))
	log.Printf("[CONFIG] Cache: enabled=%t ttl=%s redis=%t", c.Cache.Enabled, c.Cache.TTL, c.Cache.RedisURL != "")
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}
