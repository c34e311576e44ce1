package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"placement/internal/errors"
	"placement/internal/placement"
)

const jobColumns = `id, title, company_id, company_name, description, skills, min_cgpa, min_cgpa_alt,
	minimum_cgpa, form_minimum_cgpa, branches, deadline, compensation, status, created_at`

func scanJob(row rowScanner) (placement.Job, error) {
	var (
		j                   placement.Job
		formMin             placement.NullFloat
		skills, branches    string
		deadline, createdAt string
	)
	err := row.Scan(&j.ID, &j.Title, &j.CompanyID, &j.CompanyName, &j.Description, &skills,
		&j.MinCgpa, &j.MinCGPA, &j.MinimumCGPA, &formMin, &branches, &deadline,
		&j.Compensation, &j.Status, &createdAt)
	if err != nil {
		return placement.Job{}, err
	}
	if formMin.Valid {
		j.FormData = &placement.JobFormData{MinimumCGPA: formMin}
	}
	j.Skills = decodeList(skills)
	j.Branches = decodeList(branches)
	if t := parseTime(deadline); !t.IsZero() {
		j.Deadline = &t
	}
	j.CreatedAt = parseTime(createdAt)
	return j, nil
}

// CreateJob inserts a job posting. When CompanyID names a stored company the
// company name is filled from it.
func (s *Store) CreateJob(ctx context.Context, j placement.Job) (placement.Job, error) {
	j.Title = strings.TrimSpace(j.Title)
	if j.Title == "" {
		return placement.Job{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "job title is required", nil)
	}
	if j.CompanyID != "" {
		c, err := s.GetCompany(ctx, j.CompanyID)
		if err != nil {
			return placement.Job{}, err
		}
		if j.CompanyName == "" {
			j.CompanyName = c.Name
		}
	}
	if j.Status == "" {
		j.Status = "active"
	}
	j.ID = newID()
	j.CreatedAt = s.now().UTC()

	var formMin placement.NullFloat
	if j.FormData != nil {
		formMin = j.FormData.MinimumCGPA
	}
	deadline := ""
	if j.Deadline != nil {
		deadline = formatTime(*j.Deadline)
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		j.ID, j.Title, j.CompanyID, j.CompanyName, j.Description, encodeList(j.Skills),
		j.MinCgpa, j.MinCGPA, j.MinimumCGPA, formMin, encodeList(j.Branches), deadline,
		j.Compensation, j.Status, formatTime(j.CreatedAt))
	if err != nil {
		return placement.Job{}, storeErr("failed to insert job", err)
	}
	return s.GetJob(ctx, j.ID)
}

// GetJob returns a job by id.
func (s *Store) GetJob(ctx context.Context, id string) (placement.Job, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`), id)
	j, err := scanJob(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return placement.Job{}, notFound("job", id)
	}
	if err != nil {
		return placement.Job{}, storeErr("failed to read job", err)
	}
	return j, nil
}

// ListJobs returns all jobs, newest first.
func (s *Store) ListJobs(ctx context.Context) ([]placement.Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, title`)
	if err != nil {
		return nil, storeErr("failed to list jobs", err)
	}
	defer rows.Close()

	jobs := []placement.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, storeErr("failed to scan job", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("failed to list jobs", err)
	}
	return jobs, nil
}

// CloseJob stops a job from accepting applications.
func (s *Store) CloseJob(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE jobs SET status = 'closed' WHERE id = ?`), id)
	if err != nil {
		return storeErr("failed to close job", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("job", id)
	}
	return nil
}

// OpenJobs returns jobs that accept applications at now.
func (s *Store) OpenJobs(ctx context.Context, now time.Time) ([]placement.Job, error) {
	jobs, err := s.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	open := jobs[:0]
	for _, j := range jobs {
		if j.IsOpen(now) {
			open = append(open, j)
		}
	}
	return open, nil
}
