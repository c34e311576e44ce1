package placement

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// NullFloat is a float64 that may be absent. It decodes from JSON numbers,
// numeric strings and null, and can be stored in a SQL column.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float returns a present NullFloat.
func Float(v float64) NullFloat {
	return NullFloat{Float64: v, Valid: true}
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(data []byte) error {
	*n = NullFloat{}
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		// Malformed numbers are treated as absent.
		return nil
	}
	n.Float64, n.Valid = v, true
	return nil
}

// Scan implements sql.Scanner.
func (n *NullFloat) Scan(value any) error {
	*n = NullFloat{}
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		n.Float64, n.Valid = v, true
	case float32:
		n.Float64, n.Valid = float64(v), true
	case int64:
		n.Float64, n.Valid = float64(v), true
	case []byte:
		return n.UnmarshalJSON(v)
	case string:
		return n.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into NullFloat", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (n NullFloat) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Float64, nil
}

func (n NullFloat) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Float64, 'f', -1, 64)
}

// NullInt is an int that may be absent.
type NullInt struct {
	Int   int
	Valid bool
}

// Int returns a present NullInt.
func Int(v int) NullInt {
	return NullInt{Int: v, Valid: true}
}

func (n NullInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Int)
}

func (n *NullInt) UnmarshalJSON(data []byte) error {
	var f NullFloat
	if err := f.UnmarshalJSON(data); err != nil {
		return err
	}
	*n = NullInt{Int: int(f.Float64), Valid: f.Valid}
	return nil
}

// Scan implements sql.Scanner.
func (n *NullInt) Scan(value any) error {
	var f NullFloat
	if err := f.Scan(value); err != nil {
		return err
	}
	*n = NullInt{Int: int(f.Float64), Valid: f.Valid}
	return nil
}

// Value implements driver.Valuer.
func (n NullInt) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return int64(n.Int), nil
}

func (n NullInt) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.Itoa(n.Int)
}

// PlacementDetails describes the offer a placed student accepted.
type PlacementDetails struct {
	Company      string `json:"company,omitempty"`
	Designation  string `json:"designation,omitempty"`
	CTC          string `json:"ctc,omitempty"`
	WorkLocation string `json:"workLocation,omitempty"`
	JoiningDate  string `json:"joiningDate,omitempty"`
}

// Student is a student record as stored. Classification fields are free text.
type Student struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	RollNumber  string           `json:"rollNumber"`
	Branch      string           `json:"branch"`
	Department  string           `json:"department"`
	Course      string           `json:"course"`
	ProgramType string           `json:"programType"`
	Year        string           `json:"year"`
	Section     string           `json:"section"`
	Status      string           `json:"status"`
	IsActive    bool             `json:"isActive"`
	IsPlaced    bool             `json:"isPlaced"`
	GPA         NullFloat        `json:"gpa"`
	Attendance  NullFloat        `json:"attendance"`
	Backlogs    NullInt          `json:"backlogs"`
	Skills      []string         `json:"skills"`
	Placement   PlacementDetails `json:"placement"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// IsBlocked reports whether the student has been blocked by a placement officer.
func (s Student) IsBlocked() bool {
	return strings.EqualFold(strings.TrimSpace(s.Status), StatusBlocked)
}

// Student status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusBlocked  = "blocked"
)

// NormalizedStudent is a Student whose Course, Department and ProgramType
// carry canonical labels. Only Normalize produces one.
type NormalizedStudent struct {
	Student
}

// JobFormData holds fields submitted through the company request form.
type JobFormData struct {
	MinimumCGPA NullFloat `json:"minimumCGPA"`
}

// Job is a job posting. The CGPA fields are legacy variants of the same
// requirement; read them only through ResolveMinCGPA.
type Job struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	CompanyID    string       `json:"companyId,omitempty"`
	CompanyName  string       `json:"company"`
	Description  string       `json:"description"`
	Skills       []string     `json:"skills"`
	MinCgpa      NullFloat    `json:"minCgpa"`
	MinCGPA      NullFloat    `json:"minCGPA"`
	MinimumCGPA  NullFloat    `json:"minimumCGPA"`
	FormData     *JobFormData `json:"formData,omitempty"`
	Branches     []string     `json:"branches"`
	Deadline     *time.Time   `json:"deadline,omitempty"`
	Compensation string       `json:"compensation"`
	Status       string       `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// IsOpen reports whether the job still accepts applications at now.
func (j Job) IsOpen(now time.Time) bool {
	switch strings.ToLower(strings.TrimSpace(j.Status)) {
	case "", "active", "open":
	default:
		return false
	}
	return j.Deadline == nil || !now.After(*j.Deadline)
}

// Company is a recruiting company.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Industry  string    `json:"industry"`
	Website   string    `json:"website"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Application is a student's application to a job.
type Application struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	JobID     string    `json:"jobId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot is an in-memory view of the database that reports, matching and
// the fallback responder operate on.
type Snapshot struct {
	Students  []NormalizedStudent `json:"students"`
	Jobs      []Job               `json:"jobs"`
	Companies []Company           `json:"companies"`
	TakenAt   time.Time           `json:"takenAt"`
}
