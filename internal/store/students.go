package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"placement/internal/errors"
	"placement/internal/placement"
)

const studentColumns = `id, name, email, roll_number, branch, department, course, program_type,
	year, section, status, is_active, is_placed, gpa, attendance, backlogs, skills,
	placed_company, designation, ctc, work_location, joining_date, created_at, updated_at`

// ImportResult counts the outcome of a bulk student import.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

func scanStudent(row rowScanner) (placement.Student, error) {
	var (
		st                   placement.Student
		isActive, isPlaced   int64
		skills               string
		createdAt, updatedAt string
	)
	err := row.Scan(&st.ID, &st.Name, &st.Email, &st.RollNumber, &st.Branch, &st.Department,
		&st.Course, &st.ProgramType, &st.Year, &st.Section, &st.Status, &isActive, &isPlaced,
		&st.GPA, &st.Attendance, &st.Backlogs, &skills,
		&st.Placement.Company, &st.Placement.Designation, &st.Placement.CTC,
		&st.Placement.WorkLocation, &st.Placement.JoiningDate, &createdAt, &updatedAt)
	if err != nil {
		return placement.Student{}, err
	}
	st.IsActive = isActive != 0
	st.IsPlaced = isPlaced != 0
	st.Skills = decodeList(skills)
	st.CreatedAt = parseTime(createdAt)
	st.UpdatedAt = parseTime(updatedAt)
	return st, nil
}

func validateStudent(st placement.Student) error {
	if strings.TrimSpace(st.Name) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "student name is required", nil)
	}
	if !strings.Contains(st.Email, "@") {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "student email is invalid", nil).
			WithContext("email", st.Email)
	}
	return nil
}

func cleanStudent(st placement.Student) placement.Student {
	st.Name = strings.TrimSpace(st.Name)
	st.Email = strings.ToLower(strings.TrimSpace(st.Email))
	st.RollNumber = strings.TrimSpace(st.RollNumber)
	st.Status = strings.TrimSpace(st.Status)
	if st.Status == "" {
		st.Status = placement.StatusActive
	}
	// Status is authoritative, as in CSV import.
	st.IsActive = strings.EqualFold(st.Status, placement.StatusActive)
	return st
}

// checkUnique rejects an email or non-empty roll number owned by a student
// other than selfID.
func (s *Store) checkUnique(ctx context.Context, q queryer, st placement.Student, selfID string) error {
	owner, err := s.studentIDByEmail(ctx, q, st.Email)
	if err != nil {
		return err
	}
	if owner != "" && owner != selfID {
		return errors.NewConflictError(errors.ErrCodeDuplicate, "a student with this email already exists", nil).
			WithContext("email", st.Email)
	}
	if st.RollNumber == "" {
		return nil
	}
	owner, err = s.studentIDByRollNumber(ctx, q, st.RollNumber)
	if err != nil {
		return err
	}
	if owner != "" && owner != selfID {
		return errors.NewConflictError(errors.ErrCodeDuplicate, "a student with this roll number already exists", nil).
			WithContext("roll_number", st.RollNumber)
	}
	return nil
}

// CreateStudent inserts a new student. Emails are unique.
func (s *Store) CreateStudent(ctx context.Context, st placement.Student) (placement.Student, error) {
	st = cleanStudent(st)
	if err := validateStudent(st); err != nil {
		return placement.Student{}, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkUnique(ctx, tx, st, ""); err != nil {
			return err
		}
		st.ID = newID()
		st.CreatedAt = s.now().UTC()
		st.UpdatedAt = st.CreatedAt
		return s.insertStudent(ctx, tx, st)
	})
	if err != nil {
		return placement.Student{}, err
	}
	return s.GetStudent(ctx, st.ID)
}

func (s *Store) insertStudent(ctx context.Context, q queryer, st placement.Student) error {
	_, err := q.ExecContext(ctx, s.rebind(`INSERT INTO students (`+studentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		st.ID, st.Name, st.Email, st.RollNumber, st.Branch, st.Department, st.Course, st.ProgramType,
		st.Year, st.Section, st.Status, boolInt(st.IsActive), boolInt(st.IsPlaced),
		st.GPA, st.Attendance, st.Backlogs, encodeList(st.Skills),
		st.Placement.Company, st.Placement.Designation, st.Placement.CTC,
		st.Placement.WorkLocation, st.Placement.JoiningDate,
		formatTime(st.CreatedAt), formatTime(st.UpdatedAt))
	if err != nil {
		return storeErr("failed to insert student", err)
	}
	return nil
}

func (s *Store) updateStudent(ctx context.Context, q queryer, st placement.Student) (int64, error) {
	res, err := q.ExecContext(ctx, s.rebind(`UPDATE students SET
		name = ?, email = ?, roll_number = ?, branch = ?, department = ?, course = ?, program_type = ?,
		year = ?, section = ?, status = ?, is_active = ?, is_placed = ?, gpa = ?, attendance = ?,
		backlogs = ?, skills = ?, placed_company = ?, designation = ?, ctc = ?, work_location = ?,
		joining_date = ?, updated_at = ?
		WHERE id = ?`),
		st.Name, st.Email, st.RollNumber, st.Branch, st.Department, st.Course, st.ProgramType,
		st.Year, st.Section, st.Status, boolInt(st.IsActive), boolInt(st.IsPlaced), st.GPA, st.Attendance,
		st.Backlogs, encodeList(st.Skills), st.Placement.Company, st.Placement.Designation, st.Placement.CTC,
		st.Placement.WorkLocation, st.Placement.JoiningDate, formatTime(st.UpdatedAt),
		st.ID)
	if err != nil {
		return 0, storeErr("failed to update student", err)
	}
	return res.RowsAffected()
}

func (s *Store) studentIDByEmail(ctx context.Context, q queryer, email string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, s.rebind(`SELECT id FROM students WHERE email = ?`), email).Scan(&id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", storeErr("failed to look up student by email", err)
	}
	return id, nil
}

func (s *Store) studentIDByRollNumber(ctx context.Context, q queryer, roll string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, s.rebind(`SELECT id FROM students WHERE roll_number = ?`), roll).Scan(&id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", storeErr("failed to look up student by roll number", err)
	}
	return id, nil
}

// GetStudent returns a student by id.
func (s *Store) GetStudent(ctx context.Context, id string) (placement.Student, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+studentColumns+` FROM students WHERE id = ?`), id)
	st, err := scanStudent(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return placement.Student{}, notFound("student", id)
	}
	if err != nil {
		return placement.Student{}, storeErr("failed to read student", err)
	}
	return st, nil
}

// UpdateStudent replaces the editable fields of an existing student.
func (s *Store) UpdateStudent(ctx context.Context, st placement.Student) (placement.Student, error) {
	st = cleanStudent(st)
	if err := validateStudent(st); err != nil {
		return placement.Student{}, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkUnique(ctx, tx, st, st.ID); err != nil {
			return err
		}
		st.UpdatedAt = s.now().UTC()
		n, err := s.updateStudent(ctx, tx, st)
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound("student", st.ID)
		}
		return nil
	})
	if err != nil {
		return placement.Student{}, err
	}
	return s.GetStudent(ctx, st.ID)
}

// DeactivateStudent soft-deletes a student: the record stays for reporting.
func (s *Store) DeactivateStudent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE students SET is_active = 0, status = ?, updated_at = ? WHERE id = ?`),
		placement.StatusInactive, formatTime(s.now()), id)
	if err != nil {
		return storeErr("failed to deactivate student", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("student", id)
	}
	return nil
}

// ListStudents returns every student ordered by name.
func (s *Store) ListStudents(ctx context.Context) ([]placement.Student, error) {
	return s.listStudents(ctx, s.db)
}

func (s *Store) listStudents(ctx context.Context, q queryer) ([]placement.Student, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+studentColumns+` FROM students ORDER BY name, id`)
	if err != nil {
		return nil, storeErr("failed to list students", err)
	}
	defer rows.Close()

	students := []placement.Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, storeErr("failed to scan student", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("failed to list students", err)
	}
	return students, nil
}

// ImportStudents upserts students by email in one transaction. Records
// without a name or a valid email, or whose roll number belongs to another
// student, are skipped.
func (s *Store) ImportStudents(ctx context.Context, students []placement.Student) (ImportResult, error) {
	var result ImportResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := s.now().UTC()
		for _, st := range students {
			st = cleanStudent(st)
			if validateStudent(st) != nil {
				result.Skipped++
				continue
			}
			id, err := s.studentIDByEmail(ctx, tx, st.Email)
			if err != nil {
				return err
			}
			if err := s.checkUnique(ctx, tx, st, id); err != nil {
				if errors.IsType(err, errors.ErrorTypeConflict) {
					s.logger.Warn("Skipping student with duplicate roll number",
						"email", st.Email, "roll_number", st.RollNumber)
					result.Skipped++
					continue
				}
				return err
			}
			st.UpdatedAt = now
			if id == "" {
				st.ID = newID()
				st.CreatedAt = now
				if err := s.insertStudent(ctx, tx, st); err != nil {
					return err
				}
				result.Created++
				continue
			}
			st.ID = id
			if _, err := s.updateStudent(ctx, tx, st); err != nil {
				return err
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	s.logger.Info("Students imported",
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped)
	return result, nil
}
