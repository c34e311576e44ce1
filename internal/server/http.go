package server

import (
	"context"
	"time"

	"placement/internal/ai"
	"placement/internal/config"
	"placement/internal/errors"
	"placement/internal/observability"
	"placement/internal/service"
)

// ApplyRequest represents the request body for creating an application
type ApplyRequest struct {
	StudentID string `json:"studentId"`
	JobID     string `json:"jobId"`
}

// AnalysisRequest represents the request body for the analysis endpoint
type AnalysisRequest struct {
	Question string `json:"question"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ModelChecker reports the language model status for health checks.
// *ai.Service implements it.
type ModelChecker interface {
	GetModelInfo(ctx context.Context) *ai.ModelInfo
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// TLS Configuration
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// AnalysisTimeout is reported on /stats
	AnalysisTimeout time.Duration

	service *service.Service
	models  ModelChecker
	om      *observability.Manager

	// Logger
	Logger *errors.Logger
}

// Options holds the dependencies for creating a Server instance
type Options struct {
	Config        *config.Config
	Service       *service.Service
	Observability *observability.Manager
	// Models is optional; without it health reports AI as disabled.
	Models  ModelChecker
	Version string
	Logger  *errors.Logger
}

// NewServer creates a new Server instance
func NewServer(opts Options) *Server {
	cfg := opts.Config

	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.Server.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	rateLimit := cfg.Server.RateLimit
	var rateLimiter *RateLimiter
	if rateLimit.Enabled {
		rateLimiter = NewRateLimiter(rateLimit.RequestsPerMin, rateLimit.BurstCapacity, opts.Logger)
	}

	om := opts.Observability
	if om == nil {
		// A disabled manager hands out no-op tracers and middleware.
		om, _ = observability.NewManager(config.ObservabilityConfig{}, opts.Version, opts.Logger)
	}

	return &Server{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		Version:         opts.Version,
		TLSConfig:       cfg.Server.TLS,
		APIKeys:         apiKeyMap,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		MaxRequestSize:  cfg.App.MaxFileSize,
		RateLimit:       &rateLimit,
		RateLimiter:     rateLimiter,
		AnalysisTimeout: cfg.App.AnalysisTimeout,
		service:         opts.Service,
		models:          opts.Models,
		om:              om,
		Logger:          opts.Logger,
	}
}
