package store

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"placement/internal/config"
	"placement/internal/errors"
	"placement/internal/placement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), config.StoreConfig{Driver: DriverSQLite, DSN: ":memory:"},
		errors.NewLogger(slog.LevelError))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "mysql", DSN: "x"}, errors.NewLogger(slog.LevelError))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestRebind(t *testing.T) {
	s := &Store{driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", s.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	s.driver = DriverSQLite
	assert.Equal(t, "a = ?", s.rebind("a = ?"))
}

func TestStudentLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateStudent(ctx, placement.Student{
		Name:       " Priya Sharma ",
		Email:      "Priya@College.edu",
		RollNumber: "21CS042",
		Department: "cse",
		Course:     "b.tech",
		Year:       "2025",
		IsActive:   true,
		GPA:        placement.Float(9.1),
		Skills:     []string{"go", "sql"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Priya Sharma", created.Name)
	assert.Equal(t, "priya@college.edu", created.Email)
	assert.Equal(t, placement.StatusActive, created.Status)
	assert.Equal(t, placement.Float(9.1), created.GPA)
	assert.False(t, created.Attendance.Valid)
	assert.False(t, created.Backlogs.Valid)
	assert.Equal(t, []string{"go", "sql"}, created.Skills)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = s.CreateStudent(ctx, placement.Student{Name: "Other", Email: "priya@college.edu"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))

	created.IsPlaced = true
	created.Placement.Company = "Acme"
	created.Backlogs = placement.Int(0)
	updated, err := s.UpdateStudent(ctx, created)
	require.NoError(t, err)
	assert.True(t, updated.IsPlaced)
	assert.Equal(t, "Acme", updated.Placement.Company)
	assert.Equal(t, placement.Int(0), updated.Backlogs)

	require.NoError(t, s.DeactivateStudent(ctx, created.ID))
	got, err := s.GetStudent(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, placement.StatusInactive, got.Status)

	_, err = s.GetStudent(ctx, "missing")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	assert.True(t, errors.IsType(s.DeactivateStudent(ctx, "missing"), errors.ErrorTypeNotFound))
}

func TestCreateStudentValidation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateStudent(context.Background(), placement.Student{Email: "a@b.c"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = s.CreateStudent(context.Background(), placement.Student{Name: "A", Email: "not-an-email"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestImportStudentsUpsertsByEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateStudent(ctx, placement.Student{Name: "Rahul Verma", Email: "rahul@college.edu", Year: "2024"})
	require.NoError(t, err)

	result, err := s.ImportStudents(ctx, []placement.Student{
		{Name: "Rahul Verma", Email: "RAHUL@college.edu", Year: "2025", IsActive: true},
		{Name: "Anita Rao", Email: "anita@college.edu", IsActive: true},
		{Name: "", Email: "blank@college.edu"},
	})
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Created: 1, Updated: 1, Skipped: 1}, result)

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Anita Rao", students[0].Name)
	assert.Equal(t, "2025", students[1].Year)
}

func TestCreateStudentDerivesActiveFromStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateStudent(ctx, placement.Student{Name: "Kiran Das", Email: "kiran@college.edu"})
	require.NoError(t, err)
	assert.Equal(t, placement.StatusActive, created.Status)
	assert.True(t, created.IsActive)

	got, err := s.GetStudent(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	blocked, err := s.CreateStudent(ctx, placement.Student{
		Name: "Meera Iyer", Email: "meera@college.edu", Status: "blocked", IsActive: true,
	})
	require.NoError(t, err)
	assert.False(t, blocked.IsActive)
}

func TestRollNumberIsUnique(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.CreateStudent(ctx, placement.Student{Name: "A One", Email: "a1@college.edu", RollNumber: "21CS001"})
	require.NoError(t, err)

	_, err = s.CreateStudent(ctx, placement.Student{Name: "A Two", Email: "a2@college.edu", RollNumber: " 21CS001 "})
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeDuplicate, appErr.Code)

	// Empty roll numbers never collide.
	_, err = s.CreateStudent(ctx, placement.Student{Name: "B One", Email: "b1@college.edu"})
	require.NoError(t, err)
	second, err := s.CreateStudent(ctx, placement.Student{Name: "B Two", Email: "b2@college.edu"})
	require.NoError(t, err)

	second.RollNumber = "21CS001"
	_, err = s.UpdateStudent(ctx, second)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))

	first.Year = "2025"
	_, err = s.UpdateStudent(ctx, first)
	require.NoError(t, err, "a student keeps its own roll number")

	result, err := s.ImportStudents(ctx, []placement.Student{
		{Name: "C One", Email: "c1@college.edu", RollNumber: "21CS001"},
		{Name: "A One", Email: "a1@college.edu", RollNumber: "21CS001", Year: "2026"},
	})
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Updated: 1, Skipped: 1}, result)
}

func TestJobsAndCompanies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	acme, err := s.CreateCompany(ctx, placement.Company{Name: "Acme", Industry: "Software"})
	require.NoError(t, err)
	_, err = s.CreateCompany(ctx, placement.Company{Name: "Acme"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))

	deadline := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	job, err := s.CreateJob(ctx, placement.Job{
		Title:     "Backend Engineer",
		CompanyID: acme.ID,
		Skills:    []string{"go"},
		MinCGPA:   placement.Float(7.5),
		FormData:  &placement.JobFormData{MinimumCGPA: placement.Float(8)},
		Branches:  []string{"CSE"},
		Deadline:  &deadline,
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", job.CompanyName)
	assert.Equal(t, "active", job.Status)
	assert.Equal(t, placement.Float(7.5), job.MinCGPA)
	assert.False(t, job.MinCgpa.Valid)
	require.NotNil(t, job.FormData)
	assert.Equal(t, placement.Float(8), job.FormData.MinimumCGPA)
	require.NotNil(t, job.Deadline)
	assert.True(t, deadline.Equal(*job.Deadline))
	assert.Equal(t, 7.5, placement.ResolveMinCGPA(job))

	_, err = s.CreateJob(ctx, placement.Job{Title: "Ghost", CompanyID: "missing"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	open, err := s.OpenJobs(ctx, time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, open, 1)

	require.NoError(t, s.CloseJob(ctx, job.ID))
	open, err = s.OpenJobs(ctx, time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestApplicationsAreUnique(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	app, err := s.CreateApplication(ctx, "s1", "j1")
	require.NoError(t, err)
	assert.Equal(t, "applied", app.Status)

	_, err = s.CreateApplication(ctx, "s1", "j1")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))

	_, err = s.CreateApplication(ctx, "s2", "j1")
	require.NoError(t, err)

	apps, err := s.ListApplications(ctx, ApplicationFilter{JobID: "j1"})
	require.NoError(t, err)
	assert.Len(t, apps, 2)

	apps, err = s.ListApplications(ctx, ApplicationFilter{StudentID: "s2"})
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "s2", apps[0].StudentID)
}

func TestSnapshotNormalizesStudents(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotNil(t, snap.Students)
	assert.Empty(t, snap.Students)

	_, err = s.CreateStudent(ctx, placement.Student{Name: "A", Email: "a@x.edu", Course: "b.tech", Branch: "Computer Science"})
	require.NoError(t, err)
	_, err = s.CreateCompany(ctx, placement.Company{Name: "Acme"})
	require.NoError(t, err)

	snap, err = s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Students, 1)
	assert.Equal(t, placement.NormalizeCourse("b.tech"), snap.Students[0].Course)
	assert.Equal(t, placement.NormalizeDepartment("Computer Science"), snap.Students[0].Department)
	assert.Len(t, snap.Companies, 1)
	assert.False(t, snap.TakenAt.IsZero())
}
