// Package service coordinates the store, the snapshot cache, the AI provider
// and the placement core. Handlers, CLI commands and MCP tools call it.
package service

import (
	"context"
	"io"
	"strings"
	"time"

	"placement/internal/ai"
	"placement/internal/cache"
	"placement/internal/errors"
	"placement/internal/observability"
	"placement/internal/placement"
	"placement/internal/store"
)

const snapshotKey = "snapshot"

// Store is the persistence the service needs.
type Store interface {
	Snapshot(ctx context.Context) (placement.Snapshot, error)

	CreateStudent(ctx context.Context, st placement.Student) (placement.Student, error)
	GetStudent(ctx context.Context, id string) (placement.Student, error)
	UpdateStudent(ctx context.Context, st placement.Student) (placement.Student, error)
	DeactivateStudent(ctx context.Context, id string) error
	ImportStudents(ctx context.Context, students []placement.Student) (store.ImportResult, error)

	CreateCompany(ctx context.Context, c placement.Company) (placement.Company, error)
	ListCompanies(ctx context.Context) ([]placement.Company, error)

	CreateJob(ctx context.Context, j placement.Job) (placement.Job, error)
	GetJob(ctx context.Context, id string) (placement.Job, error)
	ListJobs(ctx context.Context) ([]placement.Job, error)

	CreateApplication(ctx context.Context, studentID, jobID string) (placement.Application, error)
	ListApplications(ctx context.Context, filter store.ApplicationFilter) ([]placement.Application, error)

	Ping(ctx context.Context) error
}

// Analyzer answers a rendered analysis prompt. *ai.Service implements it.
type Analyzer interface {
	GenerateAnalysis(ctx context.Context, prompt string) (string, *ai.TokenUsage, error)
}

// Options configures a Service. Cache, Analyzer and Metrics are optional.
type Options struct {
	Store              Store
	Cache              *cache.Cache
	Analyzer           Analyzer
	Model              string
	Metrics            *observability.Metrics
	Logger             *errors.Logger
	EnforceEligibility bool
	AnalysisTimeout    time.Duration
}

// Service implements the placement operations.
type Service struct {
	store              Store
	cache              *cache.Cache
	analyzer           Analyzer
	model              string
	metrics            *observability.Metrics
	logger             *errors.Logger
	enforceEligibility bool
	analysisTimeout    time.Duration
	now                func() time.Time
}

// New creates a Service.
func New(opts Options) *Service {
	return &Service{
		store:              opts.Store,
		cache:              opts.Cache,
		analyzer:           opts.Analyzer,
		model:              opts.Model,
		metrics:            opts.Metrics,
		logger:             opts.Logger,
		enforceEligibility: opts.EnforceEligibility,
		analysisTimeout:    opts.AnalysisTimeout,
		now:                time.Now,
	}
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// AIEnabled reports whether analysis questions reach a language model.
func (s *Service) AIEnabled() bool {
	return s.analyzer != nil
}

// CacheStats reports snapshot cache counters. ok is false when caching is off.
func (s *Service) CacheStats() (stats cache.Stats, ok bool) {
	if s.cache == nil {
		return cache.Stats{}, false
	}
	return s.cache.Stats(), true
}

// Snapshot returns the database context, served from cache while fresh.
func (s *Service) Snapshot(ctx context.Context) (placement.Snapshot, error) {
	if s.cache != nil {
		var snap placement.Snapshot
		hit := s.cache.Get(ctx, snapshotKey, &snap)
		s.metrics.RecordCacheLookup(ctx, hit)
		if hit {
			return snap, nil
		}
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return placement.Snapshot{}, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, snapshotKey, snap)
	}
	return snap, nil
}

// invalidate drops the cached snapshot after a write.
func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, snapshotKey)
	}
}

// Statistics summarizes the whole database.
func (s *Service) Statistics(ctx context.Context) (placement.StatsSummary, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return placement.StatsSummary{}, err
	}
	return placement.ComputeStatistics(snap.Students, snap.Jobs, snap.Companies), nil
}

// Breakdown groups students by course, department or year.
func (s *Service) Breakdown(ctx context.Context, by string) ([]placement.Breakdown, error) {
	key, err := placement.ParseBreakdownKey(by)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), nil)
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return placement.BreakdownBy(snap.Students, key), nil
}

// Report is the statistics summary plus all breakdowns.
type Report struct {
	Summary     placement.StatsSummary                           `json:"summary"`
	Breakdowns  map[placement.BreakdownKey][]placement.Breakdown `json:"breakdowns"`
	GeneratedAt time.Time                                        `json:"generatedAt"`
}

// FullReport computes the summary and every breakdown from one snapshot.
func (s *Service) FullReport(ctx context.Context) (Report, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Report{}, err
	}
	r := Report{
		Summary:     placement.ComputeStatistics(snap.Students, snap.Jobs, snap.Companies),
		Breakdowns:  make(map[placement.BreakdownKey][]placement.Breakdown, len(placement.BreakdownKeys)),
		GeneratedAt: snap.TakenAt,
	}
	for _, key := range placement.BreakdownKeys {
		r.Breakdowns[key] = placement.BreakdownBy(snap.Students, key)
	}
	return r, nil
}

// ExportCSV writes the student report for every student.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := placement.WriteCSV(w, snap.Students); err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to write CSV report", err)
	}
	return nil
}

// ImportCSV reads a student CSV and upserts its rows by email.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (store.ImportResult, error) {
	students, err := placement.ReadStudentsCSV(r)
	if err != nil {
		return store.ImportResult{}, errors.NewValidationError(errors.ErrCodeInvalidFormat, "invalid student CSV", err)
	}
	result, err := s.store.ImportStudents(ctx, students)
	if err != nil {
		return store.ImportResult{}, err
	}
	s.invalidate(ctx)
	s.metrics.RecordImport(ctx, result.Created, result.Updated, result.Skipped)
	return result, nil
}

// StudentFilter narrows ListStudents. Values are compared after
// normalization, so "cse" and "Computer Science" select the same students.
type StudentFilter struct {
	Course     string
	Department string
	Year       string
	Placed     *bool
	ActiveOnly bool
}

func (f StudentFilter) matches(st placement.NormalizedStudent) bool {
	if f.Course != "" && st.Course != placement.NormalizeCourse(f.Course) {
		return false
	}
	if f.Department != "" && st.Department != placement.NormalizeDepartment(f.Department) {
		return false
	}
	if f.Year != "" && st.Year != strings.TrimSpace(f.Year) {
		return false
	}
	if f.Placed != nil && st.IsPlaced != *f.Placed {
		return false
	}
	if f.ActiveOnly && !st.IsActive {
		return false
	}
	return true
}

// ListStudents returns normalized students matching filter.
func (s *Service) ListStudents(ctx context.Context, filter StudentFilter) ([]placement.NormalizedStudent, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]placement.NormalizedStudent, 0, len(snap.Students))
	for _, st := range snap.Students {
		if filter.matches(st) {
			out = append(out, st)
		}
	}
	return out, nil
}

// GetStudent reads a student directly from the store.
func (s *Service) GetStudent(ctx context.Context, id string) (placement.Student, error) {
	return s.store.GetStudent(ctx, id)
}

// CreateStudent adds a student.
func (s *Service) CreateStudent(ctx context.Context, st placement.Student) (placement.Student, error) {
	created, err := s.store.CreateStudent(ctx, st)
	if err != nil {
		return placement.Student{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// UpdateStudent replaces a student's editable fields.
func (s *Service) UpdateStudent(ctx context.Context, st placement.Student) (placement.Student, error) {
	updated, err := s.store.UpdateStudent(ctx, st)
	if err != nil {
		return placement.Student{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// DeactivateStudent soft-deletes a student.
func (s *Service) DeactivateStudent(ctx context.Context, id string) error {
	if err := s.store.DeactivateStudent(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// ListCompanies returns all companies.
func (s *Service) ListCompanies(ctx context.Context) ([]placement.Company, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Companies, nil
}

// CreateCompany adds a company.
func (s *Service) CreateCompany(ctx context.Context, c placement.Company) (placement.Company, error) {
	created, err := s.store.CreateCompany(ctx, c)
	if err != nil {
		return placement.Company{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// ListJobs returns all jobs, or only those open now.
func (s *Service) ListJobs(ctx context.Context, openOnly bool) ([]placement.Job, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if !openOnly {
		return snap.Jobs, nil
	}
	return s.openJobs(snap.Jobs), nil
}

func (s *Service) openJobs(jobs []placement.Job) []placement.Job {
	now := s.now()
	out := make([]placement.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.IsOpen(now) {
			out = append(out, j)
		}
	}
	return out
}

// GetJob reads a job from the store.
func (s *Service) GetJob(ctx context.Context, id string) (placement.Job, error) {
	return s.store.GetJob(ctx, id)
}

// CreateJob adds a job posting.
func (s *Service) CreateJob(ctx context.Context, j placement.Job) (placement.Job, error) {
	created, err := s.store.CreateJob(ctx, j)
	if err != nil {
		return placement.Job{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// MatchJobs ranks the open jobs for a student.
func (s *Service) MatchJobs(ctx context.Context, studentID string, eligibleOnly bool) ([]placement.MatchResult, error) {
	st, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return placement.RankJobs(placement.Normalize(st), s.openJobs(snap.Jobs), eligibleOnly), nil
}
