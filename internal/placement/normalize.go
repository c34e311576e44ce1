package placement

import "strings"

// Unknown is the label for empty classification fields.
const Unknown = "Unknown"

// rule maps a set of patterns to a canonical label. contains patterns match
// anywhere in the lower-cased input, exact patterns must equal it.
type rule struct {
	label    string
	contains []string
	exact    []string
}

// Rules are checked in order and the first match wins. Every label, once
// lower-cased, must match its own rule and no earlier one.
var courseRules = []rule{
	{label: "MCA", contains: []string{"mca", "master of computer application"}},
	{label: "BCA", contains: []string{"bca", "bachelor of computer application"}},
	{label: "MBA", contains: []string{"mba", "master of business administration"}},
	{label: "BBA", contains: []string{"bba", "bachelor of business administration"}},
	{label: "MTech", contains: []string{"mtech", "m.tech", "m tech", "m-tech", "master of technology"}},
	{label: "BTech", contains: []string{"btech", "b.tech", "b tech", "b-tech", "bachelor of technology"}},
	{label: "BE", contains: []string{"b.e.", "bachelor of engineering"}, exact: []string{"be", "b.e"}},
	{label: "MSc", contains: []string{"msc", "m.sc", "m sc", "master of science"}},
	{label: "BSc", contains: []string{"bsc", "b.sc", "b sc", "bachelor of science"}},
	{label: "BCom", contains: []string{"bcom", "b.com", "b com", "bachelor of commerce"}},
	{label: "PhD", contains: []string{"phd", "ph.d", "doctor"}},
	{label: "Diploma", contains: []string{"diploma", "polytechnic"}},
}

var departmentRules = []rule{
	{label: "Computer Applications", contains: []string{"computer application"}, exact: []string{"ca"}},
	{label: "AI & DS", contains: []string{"artificial intelligence", "data science", "ai & ds", "ai&ds", "aids", "ai-ds"}},
	{label: "CSE", contains: []string{"computer science", "computer engineering", "cse", "comp sci"}, exact: []string{"cs", "comp", "computer"}},
	{label: "IT", contains: []string{"information technology", "info tech"}, exact: []string{"it", "i.t", "i.t."}},
	{label: "EEE", contains: []string{"electrical and electronics", "electrical & electronics", "eee", "electrical"}, exact: []string{"ee"}},
	{label: "ECE", contains: []string{"electronics and communication", "electronics & communication", "ece", "e&c", "electronics"}},
	{label: "Mechanical", contains: []string{"mechanical", "mech"}, exact: []string{"me"}},
	{label: "Civil", contains: []string{"civil"}, exact: []string{"ce"}},
	{label: "Chemical", contains: []string{"chemical", "chem"}},
	{label: "Management", contains: []string{"management", "business"}},
}

var programTypeRules = []rule{
	{label: "PhD", contains: []string{"phd", "ph.d", "doctor"}},
	{label: "Integrated", contains: []string{"integrated", "dual degree"}},
	{label: "PG", contains: []string{"postgraduate", "post graduate", "post-graduate", "master"}, exact: []string{"pg", "p.g", "p.g."}},
	{label: "UG", contains: []string{"undergraduate", "under graduate", "under-graduate", "bachelor"}, exact: []string{"ug", "u.g", "u.g."}},
	{label: "Diploma", contains: []string{"diploma"}},
}

func normalize(raw string, rules []rule) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Unknown
	}
	lower := strings.ToLower(trimmed)
	for _, r := range rules {
		for _, e := range r.exact {
			if lower == e {
				return r.label
			}
		}
		for _, c := range r.contains {
			if strings.Contains(lower, c) {
				return r.label
			}
		}
	}
	return raw
}

// NormalizeCourse maps a free-text course name to its canonical label, e.g.
// "b.tech" to "BTech". Unrecognized input is returned unchanged.
func NormalizeCourse(raw string) string {
	return normalize(raw, courseRules)
}

// NormalizeDepartment maps a free-text branch or department to its canonical label.
func NormalizeDepartment(raw string) string {
	return normalize(raw, departmentRules)
}

// NormalizeProgramType maps a free-text program type to UG, PG and friends.
func NormalizeProgramType(raw string) string {
	return normalize(raw, programTypeRules)
}

// Normalize canonicalizes the classification fields of s. Department falls
// back to Branch when empty.
func Normalize(s Student) NormalizedStudent {
	dept := s.Department
	if strings.TrimSpace(dept) == "" {
		dept = s.Branch
	}
	s.Course = NormalizeCourse(s.Course)
	s.Department = NormalizeDepartment(dept)
	s.ProgramType = NormalizeProgramType(s.ProgramType)
	s.Year = strings.TrimSpace(s.Year)
	return NormalizedStudent{Student: s}
}

// NormalizeAll normalizes every student. The result is never nil.
func NormalizeAll(students []Student) []NormalizedStudent {
	out := make([]NormalizedStudent, 0, len(students))
	for _, s := range students {
		out = append(out, Normalize(s))
	}
	return out
}
