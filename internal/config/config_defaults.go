package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.useSystemPrompts", true)

	// AI Configuration - Analysis operation defaults
	v.SetDefault("ai.analysis.provider", "gemini")
	v.SetDefault("ai.analysis.model", "")
	v.SetDefault("ai.analysis.timeout", 30*time.Second)
	v.SetDefault("ai.analysis.apiKey", "")
	v.SetDefault("ai.analysis.maxRetries", 1)
	v.SetDefault("ai.analysis.temperature", 0.2) // Low temperature for factual answers
	v.SetDefault("ai.analysis.useSystemPrompts", true)

	v.SetDefault("ai.analysis.circuitBreaker.enabled", true)
	v.SetDefault("ai.analysis.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.analysis.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.analysis.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.analysis.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.analysis.circuitBreaker.failureThreshold", 0.6)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 60*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown", "csv"})
	v.SetDefault("app.maxFileSize", 5*1024*1024) // 5MB, CSV imports can be large
	v.SetDefault("app.enforceEligibility", true)
	v.SetDefault("app.analysisTimeout", 10*time.Second)

	// Store Configuration
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "placement.db")
	v.SetDefault("store.maxConns", 10)
	v.SetDefault("store.minConns", 1)
	v.SetDefault("store.connMaxLifetime", 30*time.Minute)

	// Cache Configuration
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 30*time.Second)
	v.SetDefault("cache.maxEntries", 16)
	v.SetDefault("cache.redisURL", "")
	v.SetDefault("cache.keyPrefix", "placement:")

	// Importer Configuration
	v.SetDefault("importer.dir", "")
	v.SetDefault("importer.debounceDelay", time.Second)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.databaseDSN", "")
	v.SetDefault("vault.secrets.redisURL", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "placement")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
