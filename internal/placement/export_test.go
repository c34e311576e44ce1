package placement

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	students := NormalizeAll([]Student{
		{
			Name: `Priya "PJ" Sharma`, Email: "priya@college.edu", RollNumber: "21CS042", Branch: "CSE",
			Course: "b.tech", Year: "2025", Section: "A", ProgramType: "ug", Status: StatusActive,
			IsPlaced: true, GPA: Float(9.1), Attendance: Float(92.5), Backlogs: Int(0),
			Placement: PlacementDetails{Company: "Acme, Inc.", Designation: "SDE", CTC: "12 LPA", WorkLocation: "Pune", JoiningDate: "2025-07-01"},
		},
		{Name: "Rahul", Department: "it"},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, students))

	lines := strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], `"Name","Email","Roll Number","Branch"`))
	assert.Equal(t, `"Rahul","","","IT","Unknown","","","Unknown","","No","","","","","","","",""`, lines[2])

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, CSVColumns, records[0])
	assert.Len(t, records[1], len(CSVColumns))
	assert.Equal(t, `Priya "PJ" Sharma`, records[1][0])
	assert.Equal(t, "BTech", records[1][4])
	assert.Equal(t, "Yes", records[1][9])
	assert.Equal(t, "9.1", records[1][10])
	assert.Equal(t, "0", records[1][12])
	assert.Equal(t, "Acme, Inc.", records[1][13])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestReadStudentsCSV(t *testing.T) {
	input := "\ufeffEmail,Name,Course,CGPA,Attendance,Backlogs,Placed,Status,Skills\n" +
		"PRIYA@college.edu,Priya Sharma,B.Tech,9.1,92%,0,yes,,go; sql ;\n" +
		",,,,,,,,\n" +
		"rahul@college.edu,Rahul,MCA,n/a,,,no,Blocked,\n"

	students, err := ReadStudentsCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, students, 2)

	p := students[0]
	assert.Equal(t, "priya@college.edu", p.Email)
	assert.Equal(t, "B.Tech", p.Course)
	assert.Equal(t, Float(9.1), p.GPA)
	assert.Equal(t, Float(92), p.Attendance)
	assert.Equal(t, Int(0), p.Backlogs)
	assert.True(t, p.IsPlaced)
	assert.True(t, p.IsActive)
	assert.Equal(t, StatusActive, p.Status)
	assert.Equal(t, []string{"go", "sql"}, p.Skills)

	r := students[1]
	assert.False(t, r.GPA.Valid)
	assert.False(t, r.Backlogs.Valid)
	assert.Equal(t, StatusBlocked, r.Status)
	assert.False(t, r.IsActive)
}

func TestReadStudentsCSVRoundTrip(t *testing.T) {
	in := NormalizeAll([]Student{
		{Name: "A", Email: "a@x.io", Course: "MCA", GPA: Float(8), Status: StatusActive, IsActive: true},
		{Name: "B", Email: "b@x.io", IsPlaced: true, Placement: PlacementDetails{Company: "Acme"}, Status: StatusInactive},
	})
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))

	out, err := ReadStudentsCSV(&buf)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "MCA", out[0].Course)
	assert.Equal(t, Float(8), out[0].GPA)
	assert.True(t, out[0].IsActive)
	assert.Equal(t, "Acme", out[1].Placement.Company)
	assert.False(t, out[1].IsActive)
}

func TestReadStudentsCSVMissingColumn(t *testing.T) {
	_, err := ReadStudentsCSV(strings.NewReader("Name,Course\nA,MCA\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	students, err := ReadStudentsCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestBuildAnalysisPrompt(t *testing.T) {
	prompt := BuildAnalysisPrompt("  Which course places best?  ", testSnapshot())

	assert.Contains(t, prompt, "Students: 4 total")
	assert.Contains(t, prompt, "By course:")
	assert.Contains(t, prompt, "- BTech: 3 students")
	assert.Contains(t, prompt, "Backend Engineer at Acme")
	assert.Contains(t, prompt, "min CGPA: 7.5")
	assert.True(t, strings.HasSuffix(prompt, "QUESTION\n\nWhich course places best?\n"))
}
