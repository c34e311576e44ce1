package placement

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Unspecified is the breakdown label for students without a value.
const Unspecified = "Unspecified"

// lowAttendance is the attendance percentage below which a student is flagged.
const lowAttendance = 75

// StatsSummary is the global statistics over a snapshot.
type StatsSummary struct {
	TotalStudents        int     `json:"totalStudents"`
	ActiveStudents       int     `json:"activeStudents"`
	PlacedStudents       int     `json:"placedStudents"`
	UnplacedStudents     int     `json:"unplacedStudents"`
	BlockedStudents      int     `json:"blockedStudents"`
	PlacementRate        int     `json:"placementRate"`
	ActiveRate           int     `json:"activeRate"`
	AverageGPA           float64 `json:"averageGpa"`
	AverageAttendance    float64 `json:"averageAttendance"`
	StudentsWithBacklogs int     `json:"studentsWithBacklogs"`
	BacklogRate          int     `json:"backlogRate"`
	LowAttendance        int     `json:"lowAttendance"`
	TotalJobs            int     `json:"totalJobs"`
	OpenJobs             int     `json:"openJobs"`
	TotalCompanies       int     `json:"totalCompanies"`
}

// BreakdownKey selects the field BreakdownBy groups on.
type BreakdownKey string

const (
	ByCourse     BreakdownKey = "course"
	ByDepartment BreakdownKey = "department"
	ByYear       BreakdownKey = "year"
)

// BreakdownKeys lists the supported breakdown dimensions.
var BreakdownKeys = []BreakdownKey{ByCourse, ByDepartment, ByYear}

// ParseBreakdownKey validates a user supplied breakdown dimension.
// "branch" is accepted as an alias for department.
func ParseBreakdownKey(s string) (BreakdownKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "course", "courses":
		return ByCourse, nil
	case "department", "departments", "branch", "branches":
		return ByDepartment, nil
	case "year", "years":
		return ByYear, nil
	}
	return "", fmt.Errorf("unsupported breakdown %q, expected one of %v", s, BreakdownKeys)
}

// Breakdown is one group of a breakdown by course, department or year.
type Breakdown struct {
	Label         string   `json:"label"`
	Total         int      `json:"total"`
	Active        int      `json:"active"`
	Placed        int      `json:"placed"`
	PlacementRate int      `json:"placementRate"`
	ActiveRate    int      `json:"activeRate"`
	AverageGPA    float64  `json:"averageGpa"`
	Courses       []string `json:"courses,omitempty"`
	Departments   []string `json:"departments,omitempty"`
}

// Rate returns part/total as a rounded integer percentage, 0 when total is 0.
func Rate(part, total int) int {
	if total <= 0 {
		return 0
	}
	r := int(math.Round(float64(part) / float64(total) * 100))
	return max(0, min(100, r))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// mean accumulates the average of present values only.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v NullFloat) {
	if v.Valid {
		m.sum += v.Float64
		m.n++
	}
}

func (m mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return round2(m.sum / float64(m.n))
}

// ComputeStatistics summarizes students, jobs and companies. Missing GPA and
// attendance values are excluded from the averages.
func ComputeStatistics(students []NormalizedStudent, jobs []Job, companies []Company) StatsSummary {
	return computeStatistics(students, jobs, companies, time.Now())
}

func computeStatistics(students []NormalizedStudent, jobs []Job, companies []Company, now time.Time) StatsSummary {
	var s StatsSummary
	var gpa, attendance mean

	for _, st := range students {
		s.TotalStudents++
		if st.IsActive {
			s.ActiveStudents++
		}
		if st.IsPlaced {
			s.PlacedStudents++
		}
		if st.IsBlocked() {
			s.BlockedStudents++
		}
		if st.Backlogs.Valid && st.Backlogs.Int > 0 {
			s.StudentsWithBacklogs++
		}
		if st.Attendance.Valid && st.Attendance.Float64 < lowAttendance {
			s.LowAttendance++
		}
		gpa.add(st.GPA)
		attendance.add(st.Attendance)
	}

	s.UnplacedStudents = s.TotalStudents - s.PlacedStudents
	s.PlacementRate = Rate(s.PlacedStudents, s.TotalStudents)
	s.ActiveRate = Rate(s.ActiveStudents, s.TotalStudents)
	s.BacklogRate = Rate(s.StudentsWithBacklogs, s.TotalStudents)
	s.AverageGPA = gpa.value()
	s.AverageAttendance = attendance.value()

	s.TotalJobs = len(jobs)
	for _, j := range jobs {
		if j.IsOpen(now) {
			s.OpenJobs++
		}
	}
	s.TotalCompanies = len(companies)
	return s
}

func groupLabel(st NormalizedStudent, key BreakdownKey) string {
	var v string
	switch key {
	case ByCourse:
		v = st.Course
	case ByDepartment:
		v = st.Department
	case ByYear:
		v = st.Year
	}
	v = strings.TrimSpace(v)
	if v == "" || v == Unknown {
		return Unspecified
	}
	return v
}

type group struct {
	row         Breakdown
	gpa         mean
	courses     map[string]struct{}
	departments map[string]struct{}
}

// BreakdownBy groups students by course, department or year. Students without
// a value land in the Unspecified row, which is always last. Course and
// department rows are ordered by total descending, year rows by label
// descending. An unknown key yields an empty result.
func BreakdownBy(students []NormalizedStudent, key BreakdownKey) []Breakdown {
	if !slices.Contains(BreakdownKeys, key) {
		return []Breakdown{}
	}
	groups := make(map[string]*group)
	for _, st := range students {
		label := groupLabel(st, key)
		g, ok := groups[label]
		if !ok {
			g = &group{
				row:         Breakdown{Label: label},
				courses:     make(map[string]struct{}),
				departments: make(map[string]struct{}),
			}
			groups[label] = g
		}
		g.row.Total++
		if st.IsActive {
			g.row.Active++
		}
		if st.IsPlaced {
			g.row.Placed++
		}
		g.gpa.add(st.GPA)
		if c := strings.TrimSpace(st.Course); c != "" && c != Unknown {
			g.courses[c] = struct{}{}
		}
		if d := strings.TrimSpace(st.Department); d != "" && d != Unknown {
			g.departments[d] = struct{}{}
		}
	}

	rows := make([]Breakdown, 0, len(groups))
	var unspecified *Breakdown
	for label, g := range groups {
		row := g.row
		row.PlacementRate = Rate(row.Placed, row.Total)
		row.ActiveRate = Rate(row.Active, row.Total)
		row.AverageGPA = g.gpa.value()
		switch key {
		case ByDepartment:
			row.Courses = sortedKeys(g.courses)
		case ByYear:
			row.Departments = sortedKeys(g.departments)
		}
		if label == Unspecified {
			unspecified = &row
			continue
		}
		rows = append(rows, row)
	}

	if key == ByYear {
		slices.SortFunc(rows, func(a, b Breakdown) int { return compareYears(b.Label, a.Label) })
	} else {
		slices.SortFunc(rows, func(a, b Breakdown) int {
			if a.Total != b.Total {
				return b.Total - a.Total
			}
			return strings.Compare(a.Label, b.Label)
		})
	}
	if unspecified != nil {
		rows = append(rows, *unspecified)
	}
	return rows
}

// compareYears orders numeric year labels numerically and everything else
// lexically after them.
func compareYears(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai - bi
	case aerr == nil:
		return 1
	case berr == nil:
		return -1
	}
	return strings.Compare(a, b)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
