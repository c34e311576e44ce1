package placement

import (
	"math"
	"slices"
	"strings"
)

// Match score weights.
const (
	skillWeight = 80
	branchBonus = 10
	cgpaBonus   = 10
	maxScore    = 100
	allBranches = "all"
)

// MatchResult pairs a job with a student's score against it.
type MatchResult struct {
	Job      Job     `json:"job"`
	Score    int     `json:"score"`
	Eligible bool    `json:"eligible"`
	MinCGPA  float64 `json:"minCgpa"`
}

func cleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// hasSkill reports whether the job skill want appears among the student's
// skills, either exactly or as a whole word ("react" in "react.js").
func hasSkill(have []string, want string) bool {
	return slices.ContainsFunc(have, func(h string) bool {
		return h == want || containsTerm(h, want)
	})
}

// branchAllowed reports whether the job is open to the student's branch.
func branchAllowed(student NormalizedStudent, branches []string) bool {
	restricted := false
	for _, b := range branches {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if strings.EqualFold(b, allBranches) {
			return true
		}
		restricted = true
		if NormalizeDepartment(b) == student.Department {
			return true
		}
	}
	return !restricted
}

// ComputeMatch scores a student against a job from 0 to 100: up to 80 for
// skill overlap, 10 when the branch is allowed and 10 when the GPA meets the
// minimum.
func ComputeMatch(student NormalizedStudent, job Job) int {
	return computeMatch(student, job, ResolveMinCGPA(job))
}

func computeMatch(student NormalizedStudent, job Job, minCGPA float64) int {
	jobSkills := cleanSkills(job.Skills)
	studentSkills := cleanSkills(student.Skills)

	matched := 0
	for _, js := range jobSkills {
		if hasSkill(studentSkills, js) {
			matched++
		}
	}
	denom := max(len(jobSkills), 1)
	score := int(math.Floor(float64(matched)/float64(denom)*skillWeight + 0.5))

	if branchAllowed(student, job.Branches) {
		score += branchBonus
	}
	if meetsMinimum(student.GPA, minCGPA) {
		score += cgpaBonus
	}
	return max(0, min(maxScore, score))
}

// RankJobs scores every job for the student and orders the results by score,
// then title. With eligibleOnly, jobs whose CGPA minimum the student misses
// are left out.
func RankJobs(student NormalizedStudent, jobs []Job, eligibleOnly bool) []MatchResult {
	out := make([]MatchResult, 0, len(jobs))
	for _, job := range jobs {
		minCGPA := ResolveMinCGPA(job)
		eligible := meetsMinimum(student.GPA, minCGPA)
		if eligibleOnly && !eligible {
			continue
		}
		out = append(out, MatchResult{
			Job:      job,
			Score:    computeMatch(student, job, minCGPA),
			Eligible: eligible,
			MinCGPA:  minCGPA,
		})
	}
	slices.SortStableFunc(out, func(a, b MatchResult) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return strings.Compare(a.Job.Title, b.Job.Title)
	})
	return out
}
