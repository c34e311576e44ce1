package store

import (
	"context"

	"placement/internal/placement"
)

// Snapshot reads every student, job and company and normalizes the students.
func (s *Store) Snapshot(ctx context.Context) (placement.Snapshot, error) {
	students, err := s.ListStudents(ctx)
	if err != nil {
		return placement.Snapshot{}, err
	}
	jobs, err := s.ListJobs(ctx)
	if err != nil {
		return placement.Snapshot{}, err
	}
	companies, err := s.ListCompanies(ctx)
	if err != nil {
		return placement.Snapshot{}, err
	}

	return placement.Snapshot{
		Students:  placement.NormalizeAll(students),
		Jobs:      jobs,
		Companies: companies,
		TakenAt:   s.now().UTC(),
	}, nil
}
