package placement

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func student(name, course string, placed bool) Student {
	return Student{Name: name, Course: course, IsPlaced: placed, IsActive: true, Status: StatusActive}
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0, Rate(0, 0))
	assert.Equal(t, 0, Rate(5, 0))
	assert.Equal(t, 50, Rate(1, 2))
	assert.Equal(t, 33, Rate(1, 3))
	assert.Equal(t, 67, Rate(2, 3))
	assert.Equal(t, 100, Rate(3, 3))
	assert.Equal(t, 1, Rate(1, 200), "0.5 rounds up")
}

func TestRateBounds(t *testing.T) {
	for total := 0; total <= 40; total++ {
		for placed := 0; placed <= total; placed++ {
			students := make([]Student, 0, total)
			for i := range total {
				students = append(students, student(fmt.Sprintf("s%d", i), "MCA", i < placed))
			}
			stats := ComputeStatistics(NormalizeAll(students), nil, nil)
			assert.GreaterOrEqual(t, stats.PlacementRate, 0)
			assert.LessOrEqual(t, stats.PlacementRate, 100)
			if total == 0 {
				assert.Equal(t, 0, stats.PlacementRate)
			}
		}
	}
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil, nil, nil)

	assert.Equal(t, StatsSummary{}, stats)
}

func TestComputeStatistics(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	students := NormalizeAll([]Student{
		{Name: "A", IsActive: true, IsPlaced: true, GPA: Float(8), Attendance: Float(90), Backlogs: Int(0)},
		{Name: "B", IsActive: true, GPA: Float(6), Attendance: Float(70), Backlogs: Int(2)},
		{Name: "C", Status: "Blocked"},
		{Name: "D", IsActive: true, IsPlaced: true, GPA: Float(9)},
	})
	jobs := []Job{{Title: "open"}, {Title: "closed", Status: "closed"}, {Title: "expired", Deadline: &past}}
	companies := []Company{{Name: "Acme"}, {Name: "Globex"}}

	stats := ComputeStatistics(students, jobs, companies)

	assert.Equal(t, 4, stats.TotalStudents)
	assert.Equal(t, 3, stats.ActiveStudents)
	assert.Equal(t, 2, stats.PlacedStudents)
	assert.Equal(t, 2, stats.UnplacedStudents)
	assert.Equal(t, 1, stats.BlockedStudents)
	assert.Equal(t, 50, stats.PlacementRate)
	assert.Equal(t, 75, stats.ActiveRate)
	assert.InDelta(t, 7.67, stats.AverageGPA, 0.001, "missing GPA must be skipped, not counted as zero")
	assert.InDelta(t, 80.0, stats.AverageAttendance, 0.001)
	assert.Equal(t, 1, stats.StudentsWithBacklogs)
	assert.Equal(t, 25, stats.BacklogRate)
	assert.Equal(t, 1, stats.LowAttendance)
	assert.Equal(t, 3, stats.TotalJobs)
	assert.Equal(t, 1, stats.OpenJobs)
	assert.Equal(t, 2, stats.TotalCompanies)
}

func TestBreakdownByCourseScenario(t *testing.T) {
	students := NormalizeAll([]Student{
		{Course: "B.Tech", IsPlaced: true},
		{Course: "btech", IsPlaced: false},
		{Course: "MCA", IsPlaced: true},
	})

	rows := BreakdownBy(students, ByCourse)
	require.Len(t, rows, 2)

	assert.Equal(t, "BTech", rows[0].Label)
	assert.Equal(t, 2, rows[0].Total)
	assert.Equal(t, 1, rows[0].Placed)
	assert.Equal(t, 50, rows[0].PlacementRate)

	assert.Equal(t, "MCA", rows[1].Label)
	assert.Equal(t, 1, rows[1].Total)
	assert.Equal(t, 1, rows[1].Placed)
	assert.Equal(t, 100, rows[1].PlacementRate)
}

func TestBreakdownCompleteness(t *testing.T) {
	raw := []Student{
		{Course: "B.Tech", Department: "cse", Year: "2025"},
		{Course: "", Department: "", Year: ""},
		{Course: "MCA", Branch: "Computer Applications", Year: "2024"},
		{Course: "Fine Arts", Department: "Painting", Year: "3rd"},
		{Course: "b tech", Department: "it", Year: "2025"},
		{Course: "  ", Department: "ece"},
	}
	students := NormalizeAll(raw)

	for _, key := range BreakdownKeys {
		t.Run(string(key), func(t *testing.T) {
			total := 0
			for _, row := range BreakdownBy(students, key) {
				total += row.Total
			}
			assert.Equal(t, len(raw), total)
		})
	}
}

func TestBreakdownUnspecifiedIsLast(t *testing.T) {
	students := NormalizeAll([]Student{
		{Course: ""}, {Course: ""}, {Course: ""},
		{Course: "MCA"},
	})

	rows := BreakdownBy(students, ByCourse)
	require.Len(t, rows, 2)
	assert.Equal(t, "MCA", rows[0].Label)
	assert.Equal(t, Unspecified, rows[1].Label)
	assert.Equal(t, 3, rows[1].Total)
}

func TestBreakdownByYearOrdersDescending(t *testing.T) {
	students := NormalizeAll([]Student{
		{Year: "2023", Department: "cse"},
		{Year: "2025", Department: "it"},
		{Year: "2025", Department: "cse"},
		{Year: "2024"},
		{Year: ""},
	})

	rows := BreakdownBy(students, ByYear)
	require.Len(t, rows, 4)
	labels := []string{rows[0].Label, rows[1].Label, rows[2].Label, rows[3].Label}
	assert.Equal(t, []string{"2025", "2024", "2023", Unspecified}, labels)
	assert.Equal(t, []string{"CSE", "IT"}, rows[0].Departments)
}

func TestBreakdownByDepartmentListsCourses(t *testing.T) {
	students := NormalizeAll([]Student{
		{Department: "cse", Course: "btech", IsActive: true},
		{Department: "CSE", Course: "mtech"},
		{Department: "computer science", Course: "b.tech", IsActive: true},
	})

	rows := BreakdownBy(students, ByDepartment)
	require.Len(t, rows, 1)
	assert.Equal(t, "CSE", rows[0].Label)
	assert.Equal(t, 3, rows[0].Total)
	assert.Equal(t, 67, rows[0].ActiveRate)
	assert.Equal(t, []string{"BTech", "MTech"}, rows[0].Courses)
}

func TestBreakdownEmpty(t *testing.T) {
	for _, key := range BreakdownKeys {
		rows := BreakdownBy(nil, key)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	}
	assert.Empty(t, BreakdownBy(NormalizeAll([]Student{{Course: "MCA"}}), BreakdownKey("section")))
}

func TestParseBreakdownKey(t *testing.T) {
	key, err := ParseBreakdownKey("Branch")
	require.NoError(t, err)
	assert.Equal(t, ByDepartment, key)

	key, err = ParseBreakdownKey(" years ")
	require.NoError(t, err)
	assert.Equal(t, ByYear, key)

	_, err = ParseBreakdownKey("section")
	assert.Error(t, err)
}

func BenchmarkBreakdownBy(b *testing.B) {
	raw := make([]Student, 0, 5000)
	courses := []string{"b.tech", "MCA", "mtech", "BCA", ""}
	for i := range 5000 {
		raw = append(raw, Student{Course: courses[i%len(courses)], IsPlaced: i%3 == 0, GPA: Float(float64(i%10) + 0.5)})
	}
	students := NormalizeAll(raw)

	for b.Loop() {
		BreakdownBy(students, ByCourse)
	}
}
