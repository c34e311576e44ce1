package placement

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// CSVColumns is the column set of the student report, in order.
var CSVColumns = []string{
	"Name", "Email", "Roll Number", "Branch", "Course", "Year", "Section",
	"Program Type", "Status", "Placed", "CGPA", "Attendance", "Backlogs",
	"Company", "Designation", "CTC", "Work Location", "Joining Date",
}

func csvRow(s NormalizedStudent) []string {
	branch := s.Branch
	if strings.TrimSpace(branch) == "" {
		branch = s.Department
	}
	return []string{
		s.Name, s.Email, s.RollNumber, branch, s.Course, s.Year, s.Section,
		s.ProgramType, s.Status, yesNo(s.IsPlaced), s.GPA.String(), s.Attendance.String(), s.Backlogs.String(),
		s.Placement.Company, s.Placement.Designation, s.Placement.CTC, s.Placement.WorkLocation, s.Placement.JoiningDate,
	}
}

// WriteCSV writes the student report with every field quoted. Absent values
// are written as empty strings.
func WriteCSV(w io.Writer, students []NormalizedStudent) error {
	bw := bufio.NewWriter(w)
	if err := writeQuotedRecord(bw, CSVColumns); err != nil {
		return err
	}
	for _, s := range students {
		if err := writeQuotedRecord(bw, csvRow(s)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeQuotedRecord(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}

// ErrMissingColumn is returned by ReadStudentsCSV when a required column is absent.
var ErrMissingColumn = errors.New("missing required column")

// ReadStudentsCSV parses a student report in the WriteCSV layout. Columns may
// appear in any order; only Name and Email are required. Imported students are
// active unless their status says otherwise.
func ReadStudentsCSV(r io.Reader) ([]Student, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []Student{}, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"name", "email"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	var students []Student
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		get := func(col string) string {
			if i, ok := index[strings.ToLower(col)]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		if get("Name") == "" && get("Email") == "" {
			continue
		}
		s := Student{
			Name:        get("Name"),
			Email:       strings.ToLower(get("Email")),
			RollNumber:  get("Roll Number"),
			Branch:      get("Branch"),
			Course:      get("Course"),
			Year:        get("Year"),
			Section:     get("Section"),
			ProgramType: get("Program Type"),
			Status:      strings.ToLower(get("Status")),
			IsPlaced:    parseYes(get("Placed")),
			Placement: PlacementDetails{
				Company:      get("Company"),
				Designation:  get("Designation"),
				CTC:          get("CTC"),
				WorkLocation: get("Work Location"),
				JoiningDate:  get("Joining Date"),
			},
		}
		if s.Status == "" {
			s.Status = StatusActive
		}
		s.IsActive = s.Status == StatusActive
		_ = s.GPA.UnmarshalJSON([]byte(strconv.Quote(get("CGPA"))))
		_ = s.Attendance.UnmarshalJSON([]byte(strconv.Quote(strings.TrimSuffix(get("Attendance"), "%"))))
		_ = s.Backlogs.UnmarshalJSON([]byte(strconv.Quote(get("Backlogs"))))
		if skills := get("Skills"); skills != "" {
			s.Skills = slices.DeleteFunc(strings.Split(skills, ";"), func(v string) bool { return strings.TrimSpace(v) == "" })
			for i := range s.Skills {
				s.Skills[i] = strings.TrimSpace(s.Skills[i])
			}
		}
		students = append(students, s)
	}
	if students == nil {
		students = []Student{}
	}
	return students, nil
}

func parseYes(s string) bool {
	switch strings.ToLower(s) {
	case "yes", "y", "true", "1", "placed":
		return true
	}
	return false
}
