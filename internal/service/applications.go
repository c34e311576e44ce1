package service

import (
	"context"
	"fmt"

	"placement/internal/errors"
	"placement/internal/placement"
	"placement/internal/store"
)

// Apply records a student's application to a job. Blocked or inactive
// students and closed jobs are always refused; the CGPA minimum is enforced
// when the eligibility gate is on.
func (s *Service) Apply(ctx context.Context, studentID, jobID string) (placement.Application, error) {
	st, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return placement.Application{}, err
	}
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return placement.Application{}, err
	}

	if err := s.checkApplication(placement.Normalize(st), job); err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			s.metrics.RecordApplicationRejected(ctx, appErr.Code)
		}
		s.logger.Info("Application refused",
			"student_id", studentID,
			"job_id", jobID,
			"reason", err.Error())
		return placement.Application{}, err
	}

	app, err := s.store.CreateApplication(ctx, studentID, jobID)
	if err != nil {
		return placement.Application{}, err
	}
	s.invalidate(ctx)
	return app, nil
}

func (s *Service) checkApplication(st placement.NormalizedStudent, job placement.Job) error {
	if !st.IsActive || st.IsBlocked() {
		return errors.NewValidationError(errors.ErrCodeStudentInactive,
			"student is not allowed to apply", nil).
			WithContext("student_id", st.ID)
	}
	if !job.IsOpen(s.now()) {
		return errors.NewValidationError(errors.ErrCodeJobClosed,
			"job is no longer accepting applications", nil).
			WithContext("job_id", job.ID)
	}
	if s.enforceEligibility && !placement.IsEligible(st, job) {
		return errors.NewValidationError(errors.ErrCodeNotEligible,
			fmt.Sprintf("student does not meet the minimum CGPA of %g", placement.ResolveMinCGPA(job)), nil).
			WithContext("student_id", st.ID).
			WithContext("job_id", job.ID)
	}
	return nil
}

// ListApplications returns applications matching filter.
func (s *Service) ListApplications(ctx context.Context, filter store.ApplicationFilter) ([]placement.Application, error) {
	return s.store.ListApplications(ctx, filter)
}
