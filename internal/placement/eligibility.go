package placement

import (
	"math"
	"regexp"
	"strconv"
)

// cgpaPatterns extract a minimum CGPA from free-text job descriptions. They
// are tried in order and the first capture that parses wins.
var cgpaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)minimum\s+cgpa\s*(?:of|:|-|=)?\s*(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)min\.?\s*cgpa\s*(?:of|:|-|=)?\s*(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)cgpa\s*(?:>=|≥|:|-|of at least|at least|minimum of|of|above)?\s*(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*\+?\s*cgpa`),
}

func usable(n NullFloat) bool {
	return n.Valid && !math.IsNaN(n.Float64) && !math.IsInf(n.Float64, 0) && n.Float64 > 0
}

// ResolveMinCGPA returns the minimum CGPA a job requires, or 0 when it has
// none. Structured fields win over the description, in the order minCgpa,
// minCGPA, minimumCGPA, formData.minimumCGPA.
func ResolveMinCGPA(job Job) float64 {
	candidates := []NullFloat{job.MinCgpa, job.MinCGPA, job.MinimumCGPA}
	if job.FormData != nil {
		candidates = append(candidates, job.FormData.MinimumCGPA)
	}
	for _, c := range candidates {
		if usable(c) {
			return c.Float64
		}
	}
	return parseMinCGPA(job.Description)
}

func parseMinCGPA(description string) float64 {
	if description == "" {
		return 0
	}
	for _, re := range cgpaPatterns {
		m := re.FindStringSubmatch(description)
		if len(m) < 2 {
			continue
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

// IsEligible reports whether the student's GPA meets the job's minimum.
// A student without a GPA is only eligible for jobs without a minimum.
func IsEligible(student NormalizedStudent, job Job) bool {
	return meetsMinimum(student.GPA, ResolveMinCGPA(job))
}

func meetsMinimum(gpa NullFloat, minCGPA float64) bool {
	if minCGPA <= 0 {
		return true
	}
	return gpa.Valid && gpa.Float64 >= minCGPA
}
