// Package formatters renders command results as json, text, markdown or csv.
package formatters

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"placement/internal/placement"
	"placement/internal/service"
	"placement/internal/store"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Output formats.
const (
	FormatJSON     = "json"
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
)

// Formatter renders one kind of result.
type Formatter interface {
	Format(data any) (string, error)
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(data any) (string, error)

func (f FormatterFunc) Format(data any) (string, error) { return f(data) }

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry holds the default formatters.
var GlobalRegistry = NewFormatterRegistry()

var (
	printer = message.NewPrinter(language.English)
	title   = cases.Title(language.English)
)

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter(FormatJSON, "any", FormatterFunc(formatJSON))

	registry.RegisterFormatter(FormatText, "StatsSummary", FormatterFunc(statsText))
	registry.RegisterFormatter(FormatMarkdown, "StatsSummary", FormatterFunc(statsMarkdown))

	registry.RegisterFormatter(FormatText, "Breakdowns", FormatterFunc(breakdownText))
	registry.RegisterFormatter(FormatMarkdown, "Breakdowns", FormatterFunc(breakdownMarkdown))
	registry.RegisterFormatter(FormatCSV, "Breakdowns", FormatterFunc(breakdownCSV))

	registry.RegisterFormatter(FormatText, "Report", FormatterFunc(reportText))
	registry.RegisterFormatter(FormatMarkdown, "Report", FormatterFunc(reportMarkdown))

	registry.RegisterFormatter(FormatText, "Matches", FormatterFunc(matchText))
	registry.RegisterFormatter(FormatMarkdown, "Matches", FormatterFunc(matchMarkdown))
	registry.RegisterFormatter(FormatCSV, "Matches", FormatterFunc(matchCSV))

	registry.RegisterFormatter(FormatText, "Analysis", FormatterFunc(analysisText))
	registry.RegisterFormatter(FormatMarkdown, "Analysis", FormatterFunc(analysisMarkdown))

	registry.RegisterFormatter(FormatText, "ImportResult", FormatterFunc(importText))

	registry.RegisterFormatter(FormatCSV, "Students", FormatterFunc(studentsCSV))

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case placement.StatsSummary:
		return "StatsSummary"
	case []placement.Breakdown:
		return "Breakdowns"
	case service.Report:
		return "Report"
	case []placement.MatchResult:
		return "Matches"
	case service.Analysis:
		return "Analysis"
	case store.ImportResult:
		return "ImportResult"
	case []placement.NormalizedStudent:
		return "Students"
	default:
		return "any"
	}
}

func formatJSON(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func statsText(data any) (string, error) {
	s, ok := data.(placement.StatsSummary)
	if !ok {
		return "", fmt.Errorf("expected StatsSummary, got %T", data)
	}

	var out strings.Builder
	out.WriteString("=== PLACEMENT STATISTICS ===\n")
	printer.Fprintf(&out, "Students:          %d (%d active, %d blocked)\n", s.TotalStudents, s.ActiveStudents, s.BlockedStudents)
	printer.Fprintf(&out, "Placed:            %d (%d%%)\n", s.PlacedStudents, s.PlacementRate)
	printer.Fprintf(&out, "Unplaced:          %d\n", s.UnplacedStudents)
	printer.Fprintf(&out, "Average CGPA:      %.2f\n", s.AverageGPA)
	printer.Fprintf(&out, "Avg attendance:    %.2f%%\n", s.AverageAttendance)
	printer.Fprintf(&out, "With backlogs:     %d (%d%%)\n", s.StudentsWithBacklogs, s.BacklogRate)
	printer.Fprintf(&out, "Low attendance:    %d\n", s.LowAttendance)
	printer.Fprintf(&out, "Jobs:              %d (%d open)\n", s.TotalJobs, s.OpenJobs)
	printer.Fprintf(&out, "Companies:         %d\n", s.TotalCompanies)
	return out.String(), nil
}

func statsMarkdown(data any) (string, error) {
	s, ok := data.(placement.StatsSummary)
	if !ok {
		return "", fmt.Errorf("expected StatsSummary, got %T", data)
	}

	var out strings.Builder
	out.WriteString("# Placement Statistics\n\n")
	writeStatsTable(&out, s)
	return out.String(), nil
}

func writeStatsTable(out *strings.Builder, s placement.StatsSummary) {
	out.WriteString("| Metric | Value |\n|---|---|\n")
	printer.Fprintf(out, "| Total students | %d |\n", s.TotalStudents)
	printer.Fprintf(out, "| Active students | %d (%d%%) |\n", s.ActiveStudents, s.ActiveRate)
	printer.Fprintf(out, "| Placed students | %d (%d%%) |\n", s.PlacedStudents, s.PlacementRate)
	printer.Fprintf(out, "| Blocked students | %d |\n", s.BlockedStudents)
	printer.Fprintf(out, "| Average CGPA | %.2f |\n", s.AverageGPA)
	printer.Fprintf(out, "| Average attendance | %.2f%% |\n", s.AverageAttendance)
	printer.Fprintf(out, "| Students with backlogs | %d (%d%%) |\n", s.StudentsWithBacklogs, s.BacklogRate)
	printer.Fprintf(out, "| Low attendance | %d |\n", s.LowAttendance)
	printer.Fprintf(out, "| Open jobs | %d of %d |\n", s.OpenJobs, s.TotalJobs)
	printer.Fprintf(out, "| Companies | %d |\n", s.TotalCompanies)
}

func breakdownText(data any) (string, error) {
	rows, ok := data.([]placement.Breakdown)
	if !ok {
		return "", fmt.Errorf("expected []Breakdown, got %T", data)
	}

	var out strings.Builder
	for _, b := range rows {
		printer.Fprintf(&out, "%-40s total %5d  active %5d  placed %5d (%3d%%)  avg CGPA %.2f\n",
			b.Label, b.Total, b.Active, b.Placed, b.PlacementRate, b.AverageGPA)
	}
	if len(rows) == 0 {
		out.WriteString("No students found.\n")
	}
	return out.String(), nil
}

func breakdownMarkdown(data any) (string, error) {
	rows, ok := data.([]placement.Breakdown)
	if !ok {
		return "", fmt.Errorf("expected []Breakdown, got %T", data)
	}
	var out strings.Builder
	writeBreakdownTable(&out, rows)
	return out.String(), nil
}

func writeBreakdownTable(out *strings.Builder, rows []placement.Breakdown) {
	out.WriteString("| Group | Total | Active | Placed | Placement rate | Avg CGPA |\n")
	out.WriteString("|---|---|---|---|---|---|\n")
	for _, b := range rows {
		printer.Fprintf(out, "| %s | %d | %d | %d | %d%% | %.2f |\n",
			escapeCell(b.Label), b.Total, b.Active, b.Placed, b.PlacementRate, b.AverageGPA)
	}
}

func breakdownCSV(data any) (string, error) {
	rows, ok := data.([]placement.Breakdown)
	if !ok {
		return "", fmt.Errorf("expected []Breakdown, got %T", data)
	}
	records := [][]string{{"Group", "Total", "Active", "Placed", "Placement Rate", "Active Rate", "Average CGPA"}}
	for _, b := range rows {
		records = append(records, []string{
			b.Label,
			strconv.Itoa(b.Total),
			strconv.Itoa(b.Active),
			strconv.Itoa(b.Placed),
			strconv.Itoa(b.PlacementRate),
			strconv.Itoa(b.ActiveRate),
			strconv.FormatFloat(b.AverageGPA, 'f', 2, 64),
		})
	}
	return writeCSV(records)
}

func reportText(data any) (string, error) {
	r, ok := data.(service.Report)
	if !ok {
		return "", fmt.Errorf("expected Report, got %T", data)
	}
	summary, err := statsText(r.Summary)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString(summary)
	for _, key := range placement.BreakdownKeys {
		fmt.Fprintf(&out, "\n=== BY %s ===\n", strings.ToUpper(string(key)))
		rows, _ := breakdownText(r.Breakdowns[key])
		out.WriteString(rows)
	}
	return out.String(), nil
}

func reportMarkdown(data any) (string, error) {
	r, ok := data.(service.Report)
	if !ok {
		return "", fmt.Errorf("expected Report, got %T", data)
	}

	var out strings.Builder
	out.WriteString("# Placement Report\n\n")
	if !r.GeneratedAt.IsZero() {
		fmt.Fprintf(&out, "_Generated %s_\n\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"))
	}
	out.WriteString("## Summary\n\n")
	writeStatsTable(&out, r.Summary)
	for _, key := range placement.BreakdownKeys {
		fmt.Fprintf(&out, "\n## By %s\n\n", title.String(string(key)))
		writeBreakdownTable(&out, r.Breakdowns[key])
	}
	return out.String(), nil
}

func matchText(data any) (string, error) {
	results, ok := data.([]placement.MatchResult)
	if !ok {
		return "", fmt.Errorf("expected []MatchResult, got %T", data)
	}
	if len(results) == 0 {
		return "No open jobs match this student.\n", nil
	}

	var out strings.Builder
	for i, m := range results {
		fmt.Fprintf(&out, "%2d. [%3d] %s at %s (%s)\n",
			i+1, m.Score, m.Job.Title, companyLabel(m.Job), eligibilityLabel(m))
	}
	return out.String(), nil
}

func matchMarkdown(data any) (string, error) {
	results, ok := data.([]placement.MatchResult)
	if !ok {
		return "", fmt.Errorf("expected []MatchResult, got %T", data)
	}

	var out strings.Builder
	out.WriteString("| # | Score | Job | Company | Eligibility |\n|---|---|---|---|---|\n")
	for i, m := range results {
		fmt.Fprintf(&out, "| %d | %d | %s | %s | %s |\n",
			i+1, m.Score, escapeCell(m.Job.Title), escapeCell(companyLabel(m.Job)), eligibilityLabel(m))
	}
	return out.String(), nil
}

func matchCSV(data any) (string, error) {
	results, ok := data.([]placement.MatchResult)
	if !ok {
		return "", fmt.Errorf("expected []MatchResult, got %T", data)
	}
	records := [][]string{{"Job ID", "Title", "Company", "Score", "Eligible", "Minimum CGPA"}}
	for _, m := range results {
		records = append(records, []string{
			m.Job.ID,
			m.Job.Title,
			companyLabel(m.Job),
			strconv.Itoa(m.Score),
			strconv.FormatBool(m.Eligible),
			strconv.FormatFloat(m.MinCGPA, 'f', -1, 64),
		})
	}
	return writeCSV(records)
}

func companyLabel(j placement.Job) string {
	if j.CompanyName == "" {
		return "Unknown company"
	}
	return j.CompanyName
}

func eligibilityLabel(m placement.MatchResult) string {
	switch {
	case m.MinCGPA <= 0:
		return "no CGPA requirement"
	case m.Eligible:
		return fmt.Sprintf("eligible, min CGPA %g", m.MinCGPA)
	default:
		return fmt.Sprintf("below min CGPA %g", m.MinCGPA)
	}
}

func analysisText(data any) (string, error) {
	a, ok := data.(service.Analysis)
	if !ok {
		return "", fmt.Errorf("expected Analysis, got %T", data)
	}

	var out strings.Builder
	out.WriteString(strings.TrimSpace(a.Content))
	out.WriteString("\n\n")
	fmt.Fprintf(&out, "-- %s via %s (%s confidence, %dms)", a.Type, a.Model, a.Confidence, a.DurationMS)
	if a.FallbackReason != "" {
		fmt.Fprintf(&out, ", fallback: %s", a.FallbackReason)
	}
	out.WriteString("\n")
	return out.String(), nil
}

func analysisMarkdown(data any) (string, error) {
	a, ok := data.(service.Analysis)
	if !ok {
		return "", fmt.Errorf("expected Analysis, got %T", data)
	}
	var out strings.Builder
	out.WriteString(strings.TrimSpace(a.Content))
	fmt.Fprintf(&out, "\n\n---\n_%s · model `%s` · %s confidence_\n", a.Type, a.Model, a.Confidence)
	return out.String(), nil
}

func importText(data any) (string, error) {
	r, ok := data.(store.ImportResult)
	if !ok {
		return "", fmt.Errorf("expected ImportResult, got %T", data)
	}
	return printer.Sprintf("Imported students: %d created, %d updated, %d skipped\n", r.Created, r.Updated, r.Skipped), nil
}

func studentsCSV(data any) (string, error) {
	students, ok := data.([]placement.NormalizedStudent)
	if !ok {
		return "", fmt.Errorf("expected []NormalizedStudent, got %T", data)
	}
	var buf bytes.Buffer
	if err := placement.WriteCSV(&buf, students); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeCSV(records [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
