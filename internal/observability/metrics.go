package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Analysis answer sources.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Metrics holds the placement instruments.
type Metrics struct {
	AnalysisRequests metric.Int64Counter
	AIProcessingTime metric.Float64Histogram
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	CacheLookups         metric.Int64Counter
	ApplicationsRejected metric.Int64Counter
	StudentsImported     metric.Int64Counter

	RateLimitHits metric.Int64Counter
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.AnalysisRequests, err = meter.Int64Counter(
		"placement_analysis_requests_total",
		metric.WithDescription("Analysis questions answered, by answer source"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analysis requests metric: %w", err)
	}

	if m.AIProcessingTime, err = meter.Float64Histogram(
		"placement_ai_processing_duration_seconds",
		metric.WithDescription("Time spent waiting for the AI provider"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	if m.AIErrorCount, err = meter.Int64Counter(
		"placement_ai_errors_total",
		metric.WithDescription("AI calls that failed or timed out"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	if m.AITokenUsage, err = meter.Int64Histogram(
		"placement_ai_token_usage",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("tokens"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	if m.CacheLookups, err = meter.Int64Counter(
		"placement_cache_lookups_total",
		metric.WithDescription("Snapshot cache lookups by result"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache lookups metric: %w", err)
	}

	if m.ApplicationsRejected, err = meter.Int64Counter(
		"placement_applications_rejected_total",
		metric.WithDescription("Applications refused by server-side checks"),
	); err != nil {
		return nil, fmt.Errorf("failed to create applications rejected metric: %w", err)
	}

	if m.StudentsImported, err = meter.Int64Counter(
		"placement_students_imported_total",
		metric.WithDescription("Students written by bulk import, by outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create students imported metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"placement_rate_limit_hits_total",
		metric.WithDescription("Requests rejected by the rate limiter"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return m, nil
}

// RecordAnalysis counts an answered question. reason is empty for AI answers.
func (m *Metrics) RecordAnalysis(ctx context.Context, source, reason string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("source", source)}
	if reason != "" {
		attrs = append(attrs, attribute.String("reason", reason))
	}
	m.AnalysisRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAICall records the duration, outcome and token usage of one AI call.
func (m *Metrics) RecordAICall(ctx context.Context, duration time.Duration, err error, inputTokens, outputTokens, totalTokens int64) {
	if m == nil {
		return
	}
	success := attribute.Bool("success", err == nil)
	m.AIProcessingTime.Record(ctx, duration.Seconds(), metric.WithAttributes(success))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1)
		return
	}
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", inputTokens},
		{"output", outputTokens},
		{"total", totalTokens},
	} {
		if tt.value > 0 {
			m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(attribute.String("token_type", tt.tokenType)))
		}
	}
}

// RecordCacheLookup counts a cache hit or miss.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordApplicationRejected counts an application refused with code.
func (m *Metrics) RecordApplicationRejected(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.ApplicationsRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

// RecordImport counts created, updated and skipped students.
func (m *Metrics) RecordImport(ctx context.Context, created, updated, skipped int) {
	if m == nil {
		return
	}
	m.StudentsImported.Add(ctx, int64(created), metric.WithAttributes(attribute.String("outcome", "created")))
	m.StudentsImported.Add(ctx, int64(updated), metric.WithAttributes(attribute.String("outcome", "updated")))
	m.StudentsImported.Add(ctx, int64(skipped), metric.WithAttributes(attribute.String("outcome", "skipped")))
}

// RecordRateLimitHit counts a rate-limited request.
func (m *Metrics) RecordRateLimitHit(ctx context.Context, key string) {
	if m == nil {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limit_key", key)))
}
