package store

import (
	"context"
	"database/sql"
	stderrors "errors"

	"placement/internal/errors"
	"placement/internal/placement"
)

const applicationColumns = `id, student_id, job_id, status, created_at`

// ApplicationFilter narrows ListApplications. Empty fields match everything.
type ApplicationFilter struct {
	StudentID string
	JobID     string
}

func scanApplication(row rowScanner) (placement.Application, error) {
	var a placement.Application
	var createdAt string
	if err := row.Scan(&a.ID, &a.StudentID, &a.JobID, &a.Status, &createdAt); err != nil {
		return placement.Application{}, err
	}
	a.CreatedAt = parseTime(createdAt)
	return a, nil
}

// CreateApplication records a student's application. A student applies to a
// job at most once. Eligibility is checked by the caller.
func (s *Store) CreateApplication(ctx context.Context, studentID, jobID string) (placement.Application, error) {
	a := placement.Application{
		ID:        newID(),
		StudentID: studentID,
		JobID:     jobID,
		Status:    "applied",
		CreatedAt: s.now().UTC(),
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var existing string
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT id FROM applications WHERE student_id = ? AND job_id = ?`),
			studentID, jobID).Scan(&existing)
		switch {
		case err == nil:
			return errors.NewConflictError(errors.ErrCodeDuplicate, "student has already applied to this job", nil).
				WithContext("application_id", existing)
		case !stderrors.Is(err, sql.ErrNoRows):
			return storeErr("failed to look up application", err)
		}

		_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO applications (`+applicationColumns+`) VALUES (?, ?, ?, ?, ?)`),
			a.ID, a.StudentID, a.JobID, a.Status, formatTime(a.CreatedAt))
		if err != nil {
			return storeErr("failed to insert application", err)
		}
		return nil
	})
	if err != nil {
		return placement.Application{}, err
	}
	return a, nil
}

// ListApplications returns applications, newest first.
func (s *Store) ListApplications(ctx context.Context, filter ApplicationFilter) ([]placement.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE 1 = 1`
	var args []any
	if filter.StudentID != "" {
		query += ` AND student_id = ?`
		args = append(args, filter.StudentID)
	}
	if filter.JobID != "" {
		query += ` AND job_id = ?`
		args = append(args, filter.JobID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, storeErr("failed to list applications", err)
	}
	defer rows.Close()

	apps := []placement.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, storeErr("failed to scan application", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("failed to list applications", err)
	}
	return apps, nil
}
