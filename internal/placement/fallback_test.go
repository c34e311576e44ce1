package placement

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Students: NormalizeAll([]Student{
			{
				Name: "priya sharma", Email: "priya.sharma@college.edu", RollNumber: "21CS042",
				Department: "cse", Course: "b.tech", Year: "2025", IsActive: true, IsPlaced: true,
				GPA: Float(9.1), Attendance: Float(92), Backlogs: Int(0),
				Placement: PlacementDetails{Company: "Acme", Designation: "SDE", CTC: "12 LPA"},
			},
			{
				Name: "Rahul Verma", Email: "rahul.v@college.edu", RollNumber: "21IT007",
				Department: "Information Technology", Course: "btech", Year: "2025", IsActive: true,
				GPA: Float(7.2), Attendance: Float(70), Backlogs: Int(1),
			},
			{
				Name: "Anita Rao", Email: "anita@college.edu", RollNumber: "22CA101",
				Branch: "Computer Applications", Course: "MCA", Year: "2024", IsActive: true, IsPlaced: true,
				GPA: Float(8.4), Placement: PlacementDetails{Company: "Acme"},
			},
			{
				Name: "Rahul Nair", Email: "rnair@college.edu", RollNumber: "21ME019",
				Department: "mech", Course: "B.Tech", Year: "2024", Status: StatusBlocked,
			},
		}),
		Jobs: []Job{
			{Title: "Backend Engineer", CompanyName: "Acme", Skills: []string{"go", "sql"}, Description: "Minimum CGPA: 7.5"},
			{Title: "Analyst", CompanyName: "Globex", Status: "closed"},
		},
		Companies: []Company{{Name: "Acme"}, {Name: "Globex"}},
		TakenAt:   time.Now(),
	}
}

func TestRespondIntents(t *testing.T) {
	snap := testSnapshot()

	tests := []struct {
		query    string
		typ      string
		contains []string
	}{
		{"Tell me about Priya Sharma", TypeStudentLookup, []string{"Student Profile: Priya Sharma", "21CS042", "Acme"}},
		{"details of priya", TypeStudentLookup, []string{"Student Profile: Priya Sharma"}},
		{"who is rahul?", TypeStudentLookup, []string{"Rahul Verma", "Rahul Nair"}},
		{"show me 21IT007", TypeStudentLookup, []string{"Student Profile: Rahul Verma"}},
		{"anita@college.edu", TypeStudentLookup, []string{"Student Profile: Anita Rao"}},
		{"What is the placement rate?", TypePlacementStatistics, []string{"Placement Rate:** 50%", "Acme: 2 placed"}},
		{"placement stats for MCA", TypePlacementStatistics, []string{"Placement Statistics: MCA", "Placement Rate:** 100%"}},
		{"show BTech students", TypeCourse, []string{"BTech Students", "Total:** 3"}},
		{"list CSE students", TypeDepartment, []string{"CSE Students", "Priya Sharma"}},
		{"students of 2024", TypeYear, []string{"year 2024 Students", "Anita Rao"}},
		{"top students by cgpa", TypeAcademic, []string{"Top 3 by CGPA", "| 1 | Priya Sharma |"}},
		{"which companies are hiring?", TypeCompanies, []string{"Companies:** 2", "Backend Engineer", "7.5"}},
		{"help", TypeHelp, []string{"What you can ask"}},
		{"", TypeOverview, []string{"Placement Database Overview", "Total Students:** 4"}},
		{"zxqv wubba", TypeOverview, []string{"Placement Database Overview"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := Respond(tt.query, snap)
			require.Equal(t, tt.typ, resp.Type, resp.Content)
			for _, want := range tt.contains {
				assert.Contains(t, resp.Content, want)
			}
		})
	}
}

func TestRespondTags(t *testing.T) {
	snap := testSnapshot()

	resp := Respond("placement statistics", snap)
	assert.Equal(t, ConfidenceHigh, resp.Confidence)
	assert.Equal(t, ModelEnhancedFallback, resp.Model)

	resp = Respond("nothing recognizable here", snap)
	assert.Equal(t, ConfidenceMedium, resp.Confidence)
	assert.Equal(t, ModelFallback, resp.Model)
}

func TestRespondIsTotal(t *testing.T) {
	queries := []string{
		"",
		"   ",
		"\x00\xff\xfe random bytes \x80",
		strings.Repeat("a", 10000),
		"\"\"",
		"tell me about",
		"who is ???",
		"'s details",
		"2024 2025 first year final year",
		"|||",
	}
	snapshots := []Snapshot{{}, testSnapshot()}

	for _, snap := range snapshots {
		for _, q := range queries {
			assert.NotPanics(t, func() {
				resp := Respond(q, snap)
				assert.NotEmpty(t, resp.Type)
				assert.NotEmpty(t, resp.Content)
				assert.Contains(t, []string{ConfidenceHigh, ConfidenceMedium}, resp.Confidence)
				assert.Contains(t, []string{ModelEnhancedFallback, ModelFallback}, resp.Model)
			})
		}
	}
}

func TestRespondDoesNotMutateSnapshot(t *testing.T) {
	snap := testSnapshot()
	before := testSnapshot()
	before.TakenAt = snap.TakenAt

	for _, q := range []string{"top students by cgpa", "which companies are hiring", "placement", "priya"} {
		Respond(q, snap)
	}

	assert.Equal(t, before, snap)
}

func TestMatchByNameTiers(t *testing.T) {
	students := NormalizeAll([]Student{
		{Name: "Rahul Verma"},
		{Name: "Rahul"},
		{Name: "Kiran Rahul Das"},
	})

	exact := matchByName(students, []string{"rahul"})
	require.Len(t, exact, 1)
	assert.Equal(t, "Rahul", exact[0].Name)

	sub := matchByName(students, []string{"verma"})
	require.Len(t, sub, 1)
	assert.Equal(t, "Rahul Verma", sub[0].Name)

	subset := matchByName(students, []string{"das", "kiran"})
	require.Len(t, subset, 1)
	assert.Equal(t, "Kiran Rahul Das", subset[0].Name)

	overlap := matchByName(students, []string{"verma", "singh"})
	require.Len(t, overlap, 1)
	assert.Equal(t, "Rahul Verma", overlap[0].Name)

	assert.Empty(t, matchByName(students, []string{"zed"}))
}

func TestParseQueryFacets(t *testing.T) {
	q := parseQuery("How many IT students in 3rd year?")
	assert.Equal(t, "IT", q.department)
	assert.Equal(t, "3", q.year)
	assert.Empty(t, q.course)

	q = parseQuery("is it placed")
	assert.Empty(t, q.department, "lower-case 'it' is not a department")

	q = parseQuery("b.tech final year")
	assert.Equal(t, "BTech", q.course)
	assert.Equal(t, "4", q.year)
}

func TestYearKey(t *testing.T) {
	assert.Equal(t, "3", yearKey("3rd Year"))
	assert.Equal(t, "3", yearKey("third"))
	assert.Equal(t, "2025", yearKey("Batch 2025"))
	assert.Equal(t, "1", yearKey("1"))
	assert.Equal(t, "", yearKey(""))
}
