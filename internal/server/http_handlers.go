package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	appErrors "placement/internal/errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const healthCheckTimeout = 5 * time.Second

// healthHandler reports store and language model status. Only a store
// failure degrades the service; without a model the fallback responder
// still answers analysis questions.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	response := map[string]any{
		"status":  "healthy",
		"service": "placement",
		"version": s.Version,
	}

	storeStatus := map[string]any{"available": true}
	if err := s.service.Ping(ctx); err != nil {
		storeStatus["available"] = false
		storeStatus["error"] = err.Error()
		response["status"] = "degraded"
	}
	response["store"] = storeStatus
	response["ai"] = s.checkAIModelHealth(ctx)

	status := http.StatusOK
	if response["status"] != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func (s *Server) checkAIModelHealth(ctx context.Context) map[string]any {
	if s.models == nil || !s.service.AIEnabled() {
		return map[string]any{
			"enabled": false,
			"message": "AI analysis disabled, questions are answered by the fallback responder",
		}
	}
	info := s.models.GetModelInfo(ctx)
	return map[string]any{
		"enabled": true,
		"model":   info,
	}
}

// statsHandler provides server statistics including rate limiting and cache info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "placement",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"analysis_timeout":       s.AnalysisTimeout.String(),
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if stats, ok := s.service.CacheStats(); ok {
		response["cache"] = stats
	} else {
		response["cache"] = map[string]any{"enabled": false}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() { _ = r.Body.Close() }()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// statusForError maps an application error to its HTTP status.
func statusForError(err error) int {
	appErr, ok := appErrors.AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case appErrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case appErrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case appErrors.ErrorTypeConflict:
		return http.StatusConflict
	case appErrors.ErrorTypeAI:
		return http.StatusBadGateway
	case appErrors.ErrorTypeNetwork:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError records err on the span and writes it with its mapped status.
// Server-side failures are logged and their cause is not echoed to the client.
func (s *Server) writeServiceError(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	status := statusForError(err)

	resp := ErrorResponse{Error: "Internal server error"}
	if appErr, ok := appErrors.AsAppError(err); ok {
		span.SetAttributes(attribute.String("error.type", string(appErr.Type)))
		resp = ErrorResponse{Error: appErr.Message, Code: appErr.Code}
	}
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "status", status)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// Headers are already sent, so an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}
