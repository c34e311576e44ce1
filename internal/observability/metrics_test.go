package observability

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"placement/internal/config"
	"placement/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += int64(dp.Count)
				}
			case metricdata.Histogram[int64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += int64(dp.Count)
				}
			}
		}
	}
	return sums
}

func TestMetricsRecording(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordAnalysis(ctx, SourceAI, "")
	m.RecordAnalysis(ctx, SourceFallback, "timeout")
	m.RecordAICall(ctx, 120*time.Millisecond, nil, 100, 20, 120)
	m.RecordAICall(ctx, time.Second, fmt.Errorf("boom"), 0, 0, 0)
	m.RecordCacheLookup(ctx, true)
	m.RecordCacheLookup(ctx, false)
	m.RecordApplicationRejected(ctx, "NOT_ELIGIBLE")
	m.RecordImport(ctx, 2, 1, 0)
	m.RecordRateLimitHit(ctx, "ip:127.0.0.1")

	sums := collect(t, reader)
	assert.Equal(t, int64(2), sums["placement_analysis_requests_total"])
	assert.Equal(t, int64(2), sums["placement_ai_processing_duration_seconds"])
	assert.Equal(t, int64(1), sums["placement_ai_errors_total"])
	assert.Equal(t, int64(3), sums["placement_ai_token_usage"])
	assert.Equal(t, int64(2), sums["placement_cache_lookups_total"])
	assert.Equal(t, int64(1), sums["placement_applications_rejected_total"])
	assert.Equal(t, int64(3), sums["placement_students_imported_total"])
	assert.Equal(t, int64(1), sums["placement_rate_limit_hits_total"])
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordAnalysis(ctx, SourceAI, "")
		m.RecordAICall(ctx, time.Second, nil, 1, 1, 2)
		m.RecordCacheLookup(ctx, true)
		m.RecordApplicationRejected(ctx, "JOB_CLOSED")
		m.RecordImport(ctx, 1, 0, 0)
		m.RecordRateLimitHit(ctx, "k")
	})
}

func TestDisabledManager(t *testing.T) {
	om, err := NewManager(config.ObservabilityConfig{Enabled: false}, "test", errors.NewLogger(slog.LevelError))
	require.NoError(t, err)
	assert.Nil(t, om.Metrics())
	assert.NotNil(t, om.Tracer("x"))
	assert.NoError(t, om.Shutdown(context.Background()))
}

func TestEnabledManagerWithoutExporters(t *testing.T) {
	cfg := config.ObservabilityConfig{
		Enabled:     true,
		ServiceName: "placement-test",
		SampleRate:  1,
		Metrics:     config.MetricsConfig{Enabled: true},
	}
	om, err := NewManager(cfg, "test", errors.NewLogger(slog.LevelError))
	require.NoError(t, err)
	t.Cleanup(func() { _ = om.Shutdown(context.Background()) })

	require.NotNil(t, om.Metrics())
	_, span := om.Tracer("test").Start(context.Background(), "op")
	span.End()
	assert.NotNil(t, om.HTTPMiddleware())
}
