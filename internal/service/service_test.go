package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"placement/internal/ai"
	"placement/internal/cache"
	"placement/internal/config"
	"placement/internal/errors"
	"placement/internal/placement"
	"placement/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLogger(slog.LevelError)

type fakeAnalyzer struct {
	text  string
	err   error
	delay time.Duration
	calls atomic.Int32
	last  atomic.Value
}

func (f *fakeAnalyzer) GenerateAnalysis(ctx context.Context, prompt string) (string, *ai.TokenUsage, error) {
	f.calls.Add(1)
	f.last.Store(prompt)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", nil, ctx.Err()
		}
	}
	return f.text, &ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, f.err
}

// countingStore counts snapshot reads on top of a real sqlite store.
type countingStore struct {
	*store.Store
	snapshots atomic.Int32
}

func (c *countingStore) Snapshot(ctx context.Context) (placement.Snapshot, error) {
	c.snapshots.Add(1)
	return c.Store.Snapshot(ctx)
}

type fixture struct {
	svc   *Service
	store *countingStore
	cache *cache.Cache
}

func newFixture(t *testing.T, analyzer Analyzer, enforce bool) fixture {
	t.Helper()
	st, err := store.Open(context.Background(), config.StoreConfig{Driver: store.DriverSQLite, DSN: ":memory:"}, testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	c := cache.New(config.CacheConfig{TTL: time.Minute, MaxEntries: 4}, testLogger)
	t.Cleanup(func() { _ = c.Close() })

	cs := &countingStore{Store: st}
	svc := New(Options{
		Store:              cs,
		Cache:              c,
		Analyzer:           analyzer,
		Model:              "test-model",
		Logger:             testLogger,
		EnforceEligibility: enforce,
		AnalysisTimeout:    200 * time.Millisecond,
	})
	return fixture{svc: svc, store: cs, cache: c}
}

func seed(t *testing.T, svc *Service) (student placement.Student, job placement.Job) {
	t.Helper()
	ctx := context.Background()

	student, err := svc.CreateStudent(ctx, placement.Student{
		Name: "Priya Sharma", Email: "priya@college.edu", RollNumber: "21CS042",
		Department: "cse", Course: "b.tech", Year: "2025", IsActive: true,
		GPA: placement.Float(7.0), Skills: []string{"React", "Node"},
	})
	require.NoError(t, err)

	acme, err := svc.CreateCompany(ctx, placement.Company{Name: "Acme"})
	require.NoError(t, err)

	job, err = svc.CreateJob(ctx, placement.Job{
		Title: "Full Stack Engineer", CompanyID: acme.ID,
		Skills: []string{"react", "node", "sql"}, Branches: []string{"CSE"},
		Description: "Minimum CGPA: 7.5",
	})
	require.NoError(t, err)
	return student, job
}

func TestSnapshotIsCachedAndInvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, true)
	seed(t, f.svc)

	before := f.store.snapshots.Load()
	_, err := f.svc.Statistics(ctx)
	require.NoError(t, err)
	_, err = f.svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, f.store.snapshots.Load(), "second read is served from cache")

	_, err = f.svc.CreateStudent(ctx, placement.Student{Name: "Rahul", Email: "rahul@college.edu", IsActive: true})
	require.NoError(t, err)

	stats, err := f.svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalStudents)
	assert.Equal(t, before+2, f.store.snapshots.Load())
}

func TestMatchJobs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, true)
	student, _ := seed(t, f.svc)

	results, err := f.svc.MatchJobs(ctx, student.ID, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	// 2 of 3 skills: round(53.33) = 53, +10 branch, no CGPA bonus at 7.0 < 7.5
	assert.Equal(t, 63, results[0].Score)
	assert.False(t, results[0].Eligible)
	assert.Equal(t, 7.5, results[0].MinCGPA)

	results, err = f.svc.MatchJobs(ctx, student.ID, true)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = f.svc.MatchJobs(ctx, "missing", false)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestApplyEligibilityGate(t *testing.T) {
	ctx := context.Background()

	t.Run("enforced", func(t *testing.T) {
		f := newFixture(t, nil, true)
		student, job := seed(t, f.svc)

		_, err := f.svc.Apply(ctx, student.ID, job.ID)
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeNotEligible, appErr.Code)
		assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)

		student.GPA = placement.Float(8.2)
		_, err = f.svc.UpdateStudent(ctx, student)
		require.NoError(t, err)

		app, err := f.svc.Apply(ctx, student.ID, job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, app.JobID)

		_, err = f.svc.Apply(ctx, student.ID, job.ID)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))
	})

	t.Run("advisory", func(t *testing.T) {
		f := newFixture(t, nil, false)
		student, job := seed(t, f.svc)

		_, err := f.svc.Apply(ctx, student.ID, job.ID)
		require.NoError(t, err)
	})

	t.Run("inactive student", func(t *testing.T) {
		f := newFixture(t, nil, false)
		student, job := seed(t, f.svc)
		require.NoError(t, f.svc.DeactivateStudent(ctx, student.ID))

		_, err := f.svc.Apply(ctx, student.ID, job.ID)
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeStudentInactive, appErr.Code)
	})

	t.Run("closed job", func(t *testing.T) {
		f := newFixture(t, nil, false)
		student, job := seed(t, f.svc)
		require.NoError(t, f.store.CloseJob(ctx, job.ID))

		_, err := f.svc.Apply(ctx, student.ID, job.ID)
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeJobClosed, appErr.Code)
	})
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		analyzer *fakeAnalyzer
		source   string
		reason   string
		model    string
	}{
		{"ai answer", &fakeAnalyzer{text: " **1** student is placed. "}, "ai", "", "test-model"},
		{"timeout", &fakeAnalyzer{text: "late", delay: 5 * time.Second}, "fallback", ReasonTimeout, placement.ModelEnhancedFallback},
		{"provider error", &fakeAnalyzer{err: fmt.Errorf("quota exceeded")}, "fallback", ReasonError, placement.ModelEnhancedFallback},
		{"empty answer", &fakeAnalyzer{text: "  "}, "fallback", ReasonEmpty, placement.ModelEnhancedFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.analyzer, true)
			seed(t, f.svc)

			start := time.Now()
			got, err := f.svc.Analyze(ctx, "What is the placement rate?")
			require.NoError(t, err)
			assert.Less(t, time.Since(start), 2*time.Second)
			assert.Equal(t, tt.source, got.Source)
			assert.Equal(t, tt.reason, got.FallbackReason)
			assert.Equal(t, tt.model, got.Model)
			assert.NotEmpty(t, got.Content)
			assert.Equal(t, int32(1), tt.analyzer.calls.Load())
			assert.Contains(t, tt.analyzer.last.Load().(string), "What is the placement rate?")
		})
	}

	f := newFixture(t, &fakeAnalyzer{text: "x"}, true)
	got, err := f.svc.Analyze(ctx, "What is the placement rate?")
	require.NoError(t, err)
	assert.Equal(t, TypeAIAnalysis, got.Type)
	assert.Equal(t, "x", got.Content)
}

func TestAnalyzeLabelsOnlyDeadlinesAsTimeout(t *testing.T) {
	t.Run("provider network error", func(t *testing.T) {
		analyzer := &fakeAnalyzer{err: errors.NewNetworkError(errors.ErrCodeAIServiceFailed, "connection refused", nil)}
		f := newFixture(t, analyzer, true)
		seed(t, f.svc)

		got, err := f.svc.Analyze(context.Background(), "What is the placement rate?")
		require.NoError(t, err)
		assert.Equal(t, "fallback", got.Source)
		assert.Equal(t, ReasonError, got.FallbackReason)
	})

	t.Run("caller cancelled", func(t *testing.T) {
		analyzer := &fakeAnalyzer{text: "late", delay: 5 * time.Second}
		f := newFixture(t, analyzer, true)
		seed(t, f.svc)
		_, err := f.svc.Snapshot(context.Background())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		time.AfterFunc(20*time.Millisecond, cancel)

		got, err := f.svc.Analyze(ctx, "What is the placement rate?")
		require.NoError(t, err)
		assert.Equal(t, "fallback", got.Source)
		assert.Equal(t, ReasonError, got.FallbackReason)
	})
}

func TestAnalyzeWithoutAI(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, true)
	seed(t, f.svc)
	assert.False(t, f.svc.AIEnabled())

	got, err := f.svc.Analyze(ctx, "tell me about priya sharma")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got.Source)
	assert.Equal(t, ReasonDisabled, got.FallbackReason)
	assert.Equal(t, placement.TypeStudentLookup, got.Type)
	assert.Contains(t, got.Content, "Priya Sharma")

	_, err = f.svc.Analyze(ctx, "   ")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestImportAndExportCSV(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, true)

	var buf bytes.Buffer
	require.NoError(t, placement.WriteCSV(&buf, placement.NormalizeAll([]placement.Student{
		{Name: "Anita Rao", Email: "anita@college.edu", Course: "MCA", Year: "2024", IsActive: true, GPA: placement.Float(8.4)},
		{Name: "Rahul Verma", Email: "rahul@college.edu", Course: "btech", Year: "2025", IsActive: true},
	})))

	result, err := f.svc.ImportCSV(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, store.ImportResult{Created: 2}, result)

	students, err := f.svc.ListStudents(ctx, StudentFilter{Course: "mca"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Anita Rao", students[0].Name)

	var out bytes.Buffer
	require.NoError(t, f.svc.ExportCSV(ctx, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, out.String(), `"anita@college.edu"`)

	_, err = f.svc.ImportCSV(ctx, strings.NewReader("foo,bar\n1,2\n"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestBreakdownAndReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, true)
	seed(t, f.svc)

	rows, err := f.svc.Breakdown(ctx, "branch")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Total)

	_, err = f.svc.Breakdown(ctx, "gender")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	report, err := f.svc.FullReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.TotalStudents)
	assert.Len(t, report.Breakdowns, 3)
}
