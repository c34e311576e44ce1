package placement

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Response is an answer to a natural-language question about the placement data.
type Response struct {
	Type       string `json:"type"`
	Content    string `json:"content"`
	Confidence string `json:"confidence"`
	Model      string `json:"model"`
}

// Confidence and model tags.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"

	ModelEnhancedFallback = "enhanced_fallback"
	ModelFallback         = "fallback"
)

// Response types, one per intent.
const (
	TypeStudentLookup       = "student_lookup"
	TypePlacementStatistics = "placement_statistics"
	TypeCourse              = "course_students"
	TypeDepartment          = "department_students"
	TypeYear                = "year_students"
	TypeAcademic            = "academic_performance"
	TypeCompanies           = "companies_jobs"
	TypeHelp                = "help"
	TypeOverview            = "overview"
)

const (
	maxListedStudents = 15
	maxListedJobs     = 10
	topPerformers     = 5
)

// responder renders answers for a single query. It is not safe for
// concurrent use.
type responder struct {
	snap    Snapshot
	title   cases.Caser
	printer *message.Printer
	now     time.Time
}

type intentFunc func(r *responder, q query) (Response, bool)

// intents are tried in order; the first that accepts the query answers it.
var intents = []intentFunc{
	(*responder).studentLookup,
	(*responder).placementStatistics,
	(*responder).courseStudents,
	(*responder).departmentStudents,
	(*responder).yearStudents,
	(*responder).academicPerformance,
	(*responder).companiesAndJobs,
	(*responder).help,
}

// Respond answers a question from the snapshot alone, without a language
// model. Every input, including the empty string, yields a response.
func Respond(question string, snap Snapshot) Response {
	r := &responder{
		snap:    snap,
		title:   cases.Title(language.English),
		printer: message.NewPrinter(language.English),
		now:     time.Now(),
	}
	q := parseQuery(question)
	for _, intent := range intents {
		if resp, ok := intent(r, q); ok {
			return resp
		}
	}
	return r.overview()
}

func enhanced(typ, content string) Response {
	return Response{Type: typ, Content: content, Confidence: ConfidenceHigh, Model: ModelEnhancedFallback}
}

// studentLookup answers questions about a named student, or one identified by
// e-mail or roll number.
func (r *responder) studentLookup(q query) (Response, bool) {
	var matches []NormalizedStudent
	candidate := nameCandidate(q)
	if len(candidate) > 0 {
		matches = matchByName(r.snap.Students, candidate)
	}
	if len(matches) == 0 {
		terms := identifierTerms(q)
		if len(candidate) == 1 && len(candidate[0]) >= 3 {
			terms = append(terms, candidate[0])
		}
		matches = matchByIdentifier(r.snap.Students, terms)
	}
	if len(matches) == 0 {
		return Response{}, false
	}

	var b strings.Builder
	if len(matches) == 1 {
		r.writeProfile(&b, matches[0])
	} else {
		fmt.Fprintf(&b, "## Students matching \"%s\"\n\n", strings.Join(candidate, " "))
		r.writeStudentTable(&b, matches)
	}
	return enhanced(TypeStudentLookup, b.String()), true
}

// matchByName tries exact, substring, word-subset and token-overlap matching
// in turn and returns the first non-empty tier.
func matchByName(students []NormalizedStudent, words []string) []NormalizedStudent {
	phrase := strings.Join(words, " ")
	tiers := []func(name string, nameWords []string) bool{
		func(name string, _ []string) bool { return name == phrase },
		func(name string, _ []string) bool {
			return strings.Contains(name, phrase) || containsTerm(phrase, name)
		},
		func(_ string, nameWords []string) bool {
			for _, w := range words {
				if !slices.Contains(nameWords, w) {
					return false
				}
			}
			return true
		},
		func(_ string, nameWords []string) bool {
			for _, w := range words {
				if len(w) >= 3 && slices.Contains(nameWords, w) {
					return true
				}
			}
			return false
		},
	}
	for _, tier := range tiers {
		var out []NormalizedStudent
		for _, st := range students {
			name := strings.ToLower(strings.Join(strings.Fields(st.Name), " "))
			if name == "" {
				continue
			}
			if tier(name, strings.Fields(name)) {
				out = append(out, st)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func matchByIdentifier(students []NormalizedStudent, terms []string) []NormalizedStudent {
	var out []NormalizedStudent
	for _, st := range students {
		email := strings.ToLower(st.Email)
		roll := strings.ToLower(st.RollNumber)
		for _, t := range terms {
			if (email != "" && strings.Contains(email, t)) || (roll != "" && strings.Contains(roll, t)) {
				out = append(out, st)
				break
			}
		}
	}
	return out
}

func (r *responder) scoped(q query) ([]NormalizedStudent, string) {
	students := r.snap.Students
	var scope []string
	if q.course != "" {
		students = filterStudents(students, func(s NormalizedStudent) bool { return s.Course == q.course })
		scope = append(scope, q.course)
	}
	if q.department != "" {
		students = filterStudents(students, func(s NormalizedStudent) bool { return s.Department == q.department })
		scope = append(scope, q.department)
	}
	if q.year != "" {
		students = filterStudents(students, func(s NormalizedStudent) bool { return yearKey(s.Year) == q.year })
		scope = append(scope, "year "+q.year)
	}
	return students, strings.Join(scope, ", ")
}

func filterStudents(students []NormalizedStudent, keep func(NormalizedStudent) bool) []NormalizedStudent {
	out := make([]NormalizedStudent, 0, len(students))
	for _, s := range students {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func (r *responder) placementStatistics(q query) (Response, bool) {
	if !q.hasAny("placement", "placed", "statistic", "stats", "rate", "how many", "count") {
		return Response{}, false
	}
	students, scope := r.scoped(q)
	stats := computeStatistics(students, r.snap.Jobs, r.snap.Companies, r.now)

	var b strings.Builder
	if scope != "" {
		fmt.Fprintf(&b, "## Placement Statistics: %s\n\n", scope)
	} else {
		b.WriteString("## Placement Statistics\n\n")
	}
	r.writeSummary(&b, stats)

	if recruiters := topRecruiters(students, 5); len(recruiters) > 0 {
		b.WriteString("\n### Top Recruiters\n\n")
		for _, rc := range recruiters {
			fmt.Fprintf(&b, "- %s: %d placed\n", rc.name, rc.count)
		}
	}
	if q.course == "" {
		b.WriteString("\n### By Course\n\n")
		r.writeBreakdown(&b, BreakdownBy(students, ByCourse))
	}
	return enhanced(TypePlacementStatistics, b.String()), true
}

func (r *responder) courseStudents(q query) (Response, bool) {
	if q.course == "" {
		return Response{}, false
	}
	students, scope := r.scoped(q)
	return enhanced(TypeCourse, r.groupReport(scope, students, ByDepartment)), true
}

func (r *responder) departmentStudents(q query) (Response, bool) {
	if q.department == "" {
		return Response{}, false
	}
	students, scope := r.scoped(q)
	return enhanced(TypeDepartment, r.groupReport(scope, students, ByCourse)), true
}

func (r *responder) yearStudents(q query) (Response, bool) {
	if q.year == "" {
		return Response{}, false
	}
	students, scope := r.scoped(q)
	return enhanced(TypeYear, r.groupReport(scope, students, ByDepartment)), true
}

// groupReport lists the students in one course, department or year.
func (r *responder) groupReport(scope string, students []NormalizedStudent, sub BreakdownKey) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s Students\n\n", scope)
	if len(students) == 0 {
		fmt.Fprintf(&b, "No students found for %s.\n", scope)
		return b.String()
	}
	stats := computeStatistics(students, nil, nil, r.now)
	fmt.Fprintf(&b, "- **Total:** %s\n", r.printer.Sprintf("%d", stats.TotalStudents))
	fmt.Fprintf(&b, "- **Active:** %d\n", stats.ActiveStudents)
	fmt.Fprintf(&b, "- **Placed:** %d (%d%%)\n", stats.PlacedStudents, stats.PlacementRate)
	fmt.Fprintf(&b, "- **Average CGPA:** %.2f\n\n", stats.AverageGPA)

	if rows := BreakdownBy(students, sub); len(rows) > 1 {
		fmt.Fprintf(&b, "### By %s\n\n", r.title.String(string(sub)))
		r.writeBreakdown(&b, rows)
		b.WriteString("\n")
	}
	r.writeStudentTable(&b, students)
	return b.String()
}

func (r *responder) academicPerformance(q query) (Response, bool) {
	if !q.hasAny("cgpa", "gpa", "grade", "academic", "performance", "backlog", "attendance", "topper", "top ", "best") {
		return Response{}, false
	}
	students, scope := r.scoped(q)
	stats := computeStatistics(students, nil, nil, r.now)

	var b strings.Builder
	b.WriteString("## Academic Performance")
	if scope != "" {
		b.WriteString(": " + scope)
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "- **Average CGPA:** %.2f\n", stats.AverageGPA)
	fmt.Fprintf(&b, "- **Average Attendance:** %.2f%%\n", stats.AverageAttendance)
	fmt.Fprintf(&b, "- **Students with Backlogs:** %d (%d%%)\n", stats.StudentsWithBacklogs, stats.BacklogRate)
	fmt.Fprintf(&b, "- **Attendance below %d%%:** %d\n", lowAttendance, stats.LowAttendance)

	ranked := filterStudents(students, func(s NormalizedStudent) bool { return s.GPA.Valid })
	slices.SortStableFunc(ranked, func(a, b NormalizedStudent) int {
		switch {
		case a.GPA.Float64 > b.GPA.Float64:
			return -1
		case a.GPA.Float64 < b.GPA.Float64:
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	if len(ranked) > 0 {
		fmt.Fprintf(&b, "\n### Top %d by CGPA\n\n", min(topPerformers, len(ranked)))
		b.WriteString("| Rank | Name | Course | Department | CGPA |\n|---|---|---|---|---|\n")
		for i, s := range ranked[:min(topPerformers, len(ranked))] {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n", i+1, r.name(s.Name), s.Course, s.Department, s.GPA)
		}
	}
	return enhanced(TypeAcademic, b.String()), true
}

func (r *responder) companiesAndJobs(q query) (Response, bool) {
	if !q.hasAny("compan", "job", "recruit", "hiring", "opening", "vacanc", "drive", "ctc", "package", "salary", "role", "opportunit") {
		return Response{}, false
	}
	var b strings.Builder
	b.WriteString("## Companies and Jobs\n\n")
	open := 0
	for _, j := range r.snap.Jobs {
		if j.IsOpen(r.now) {
			open++
		}
	}
	fmt.Fprintf(&b, "- **Companies:** %d\n", len(r.snap.Companies))
	fmt.Fprintf(&b, "- **Jobs:** %d (%d open)\n", len(r.snap.Jobs), open)

	jobs := slices.Clone(r.snap.Jobs)
	slices.SortStableFunc(jobs, func(a, b Job) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if len(jobs) > 0 {
		b.WriteString("\n### Recent Jobs\n\n| Title | Company | Min CGPA | Skills | Compensation | Status |\n|---|---|---|---|---|---|\n")
		for _, j := range jobs[:min(maxListedJobs, len(jobs))] {
			minCGPA := "-"
			if m := ResolveMinCGPA(j); m > 0 {
				minCGPA = fmt.Sprintf("%.1f", m)
			}
			status := "closed"
			if j.IsOpen(r.now) {
				status = "open"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				cell(j.Title), cell(j.CompanyName), minCGPA, cell(strings.Join(j.Skills, ", ")), cell(j.Compensation), status)
		}
	}
	if recruiters := topRecruiters(r.snap.Students, 5); len(recruiters) > 0 {
		b.WriteString("\n### Top Recruiters\n\n")
		for _, rc := range recruiters {
			fmt.Fprintf(&b, "- %s: %d placed\n", rc.name, rc.count)
		}
	}
	return enhanced(TypeCompanies, b.String()), true
}

func (r *responder) help(q query) (Response, bool) {
	if !q.hasAny("help", "what can you", "how do i", "how to use", "command", "capabilit") {
		return Response{}, false
	}
	content := `## What you can ask

- **Student lookup:** "Tell me about Priya Sharma", "details of 21CS042"
- **Placement statistics:** "What is the placement rate?", "placement stats for MCA"
- **Course, department or year:** "Show BTech students", "CSE students", "2025 batch"
- **Academic performance:** "Top students by CGPA", "students with backlogs"
- **Companies and jobs:** "Which companies are hiring?", "open jobs"
`
	return Response{Type: TypeHelp, Content: content, Confidence: ConfidenceMedium, Model: ModelFallback}, true
}

// overview answers anything no other intent accepts.
func (r *responder) overview() Response {
	stats := computeStatistics(r.snap.Students, r.snap.Jobs, r.snap.Companies, r.now)
	var b strings.Builder
	b.WriteString("## Placement Database Overview\n\n")
	r.writeSummary(&b, stats)
	if rows := BreakdownBy(r.snap.Students, ByCourse); len(rows) > 0 {
		b.WriteString("\n### By Course\n\n")
		r.writeBreakdown(&b, rows)
	}
	b.WriteString("\nAsk for help to see the kinds of questions I can answer.\n")
	return Response{Type: TypeOverview, Content: b.String(), Confidence: ConfidenceMedium, Model: ModelFallback}
}

func (r *responder) writeSummary(b *strings.Builder, s StatsSummary) {
	fmt.Fprintf(b, "- **Total Students:** %s\n", r.printer.Sprintf("%d", s.TotalStudents))
	fmt.Fprintf(b, "- **Active Students:** %d (%d%%)\n", s.ActiveStudents, s.ActiveRate)
	fmt.Fprintf(b, "- **Placed Students:** %d\n", s.PlacedStudents)
	fmt.Fprintf(b, "- **Placement Rate:** %d%%\n", s.PlacementRate)
	fmt.Fprintf(b, "- **Blocked Students:** %d\n", s.BlockedStudents)
	fmt.Fprintf(b, "- **Average CGPA:** %.2f\n", s.AverageGPA)
	fmt.Fprintf(b, "- **Backlog Rate:** %d%%\n", s.BacklogRate)
	if s.TotalJobs > 0 || s.TotalCompanies > 0 {
		fmt.Fprintf(b, "- **Companies:** %d\n", s.TotalCompanies)
		fmt.Fprintf(b, "- **Jobs:** %d (%d open)\n", s.TotalJobs, s.OpenJobs)
	}
}

func (r *responder) writeBreakdown(b *strings.Builder, rows []Breakdown) {
	b.WriteString("| Group | Total | Active | Placed | Placement Rate |\n|---|---|---|---|---|\n")
	for _, row := range rows {
		fmt.Fprintf(b, "| %s | %d | %d | %d | %d%% |\n", cell(row.Label), row.Total, row.Active, row.Placed, row.PlacementRate)
	}
}

func (r *responder) writeStudentTable(b *strings.Builder, students []NormalizedStudent) {
	b.WriteString("| Name | Roll Number | Course | Department | Year | CGPA | Placed |\n|---|---|---|---|---|---|---|\n")
	for _, s := range students[:min(maxListedStudents, len(students))] {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			r.name(s.Name), cell(s.RollNumber), s.Course, s.Department, cell(s.Year), s.GPA, yesNo(s.IsPlaced))
	}
	if extra := len(students) - maxListedStudents; extra > 0 {
		fmt.Fprintf(b, "\n...and %d more.\n", extra)
	}
}

func (r *responder) writeProfile(b *strings.Builder, s NormalizedStudent) {
	fmt.Fprintf(b, "## Student Profile: %s\n\n| Field | Value |\n|---|---|\n", r.name(s.Name))
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(b, "| %s | %s |\n", k, cell(v))
		}
	}
	row("Email", s.Email)
	row("Roll Number", s.RollNumber)
	row("Course", s.Course)
	row("Department", s.Department)
	row("Program Type", s.ProgramType)
	row("Year", s.Year)
	row("Section", s.Section)
	row("Status", s.Status)
	row("CGPA", s.GPA.String())
	row("Attendance", s.Attendance.String())
	row("Backlogs", s.Backlogs.String())
	row("Skills", strings.Join(s.Skills, ", "))
	row("Placed", yesNo(s.IsPlaced))
	if s.IsPlaced {
		row("Company", s.Placement.Company)
		row("Designation", s.Placement.Designation)
		row("CTC", s.Placement.CTC)
		row("Work Location", s.Placement.WorkLocation)
		row("Joining Date", s.Placement.JoiningDate)
	}
}

func (r *responder) name(n string) string {
	return cell(r.title.String(strings.TrimSpace(n)))
}

type recruiter struct {
	name  string
	count int
}

func topRecruiters(students []NormalizedStudent, n int) []recruiter {
	counts := make(map[string]int)
	for _, s := range students {
		if c := strings.TrimSpace(s.Placement.Company); s.IsPlaced && c != "" {
			counts[c]++
		}
	}
	out := make([]recruiter, 0, len(counts))
	for name, count := range counts {
		out = append(out, recruiter{name: name, count: count})
	}
	slices.SortFunc(out, func(a, b recruiter) int {
		if a.count != b.count {
			return b.count - a.count
		}
		return strings.Compare(a.name, b.name)
	})
	return out[:min(n, len(out))]
}

// cell escapes a value for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
