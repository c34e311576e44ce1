package placement

import (
	"fmt"
	"strings"
)

const promptSampleStudents = 25

// BuildAnalysisPrompt renders the question and a bounded summary of the
// snapshot as context for a language model.
func BuildAnalysisPrompt(question string, snap Snapshot) string {
	stats := ComputeStatistics(snap.Students, snap.Jobs, snap.Companies)

	var b strings.Builder
	b.WriteString("DATABASE CONTEXT\n\n")
	fmt.Fprintf(&b, "Students: %d total, %d active, %d placed (%d%% placement rate), %d blocked\n",
		stats.TotalStudents, stats.ActiveStudents, stats.PlacedStudents, stats.PlacementRate, stats.BlockedStudents)
	fmt.Fprintf(&b, "Average CGPA: %.2f, average attendance: %.2f%%, backlog rate: %d%%\n",
		stats.AverageGPA, stats.AverageAttendance, stats.BacklogRate)
	fmt.Fprintf(&b, "Companies: %d, jobs: %d (%d open)\n", stats.TotalCompanies, stats.TotalJobs, stats.OpenJobs)

	for _, key := range BreakdownKeys {
		rows := BreakdownBy(snap.Students, key)
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\nBy %s:\n", key)
		for _, row := range rows {
			fmt.Fprintf(&b, "- %s: %d students, %d active, %d placed (%d%%), avg CGPA %.2f\n",
				row.Label, row.Total, row.Active, row.Placed, row.PlacementRate, row.AverageGPA)
		}
	}

	if len(snap.Jobs) > 0 {
		b.WriteString("\nJobs:\n")
		for i, j := range snap.Jobs {
			if i == maxListedJobs {
				fmt.Fprintf(&b, "- ...and %d more\n", len(snap.Jobs)-i)
				break
			}
			fmt.Fprintf(&b, "- %s at %s; skills: %s; min CGPA: %.1f; branches: %s\n",
				j.Title, j.CompanyName, strings.Join(j.Skills, ", "), ResolveMinCGPA(j), branchList(j.Branches))
		}
	}

	if len(snap.Students) > 0 {
		b.WriteString("\nStudents (sample):\n")
		for i, s := range snap.Students {
			if i == promptSampleStudents {
				fmt.Fprintf(&b, "- ...and %d more\n", len(snap.Students)-i)
				break
			}
			fmt.Fprintf(&b, "- %s (%s), %s %s, year %s, CGPA %s, placed: %s\n",
				s.Name, s.RollNumber, s.Course, s.Department, s.Year, orDash(s.GPA.String()), yesNo(s.IsPlaced))
		}
	}

	b.WriteString("\nQUESTION\n\n")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n")
	return b.String()
}

func branchList(branches []string) string {
	if len(branches) == 0 {
		return "All"
	}
	return strings.Join(branches, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
