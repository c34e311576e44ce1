package placement

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// query is a natural-language question with the facets the responder looks for.
type query struct {
	raw        string
	lower      string
	tokens     []string
	course     string
	department string
	year       string
}

var (
	yearNumberRe  = regexp.MustCompile(`\b(20\d{2})\b`)
	yearOrdinalRe = regexp.MustCompile(`\b([1-5])(?:st|nd|rd|th)?\s+year\b`)
	yearWordRe    = regexp.MustCompile(`\b(first|second|third|fourth|fifth|final)\s+year\b`)
)

var yearWords = map[string]string{
	"first":  "1",
	"second": "2",
	"third":  "3",
	"fourth": "4",
	"fifth":  "5",
	"final":  "4",
}

func parseQuery(raw string) query {
	lower := strings.ToLower(strings.TrimSpace(raw))
	q := query{raw: raw, lower: lower, tokens: tokenize(lower)}
	q.course = detectLabel(raw, lower, courseRules)
	q.department = detectLabel(raw, lower, departmentRules)
	q.year = detectYear(lower)
	return q
}

// tokenize splits on anything that cannot appear in a name, e-mail or roll number.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '@' && r != '.' && r != '_' && r != '-' && r != '\''
	})
}

// containsTerm reports whether term occurs in s delimited by non-alphanumerics.
func containsTerm(s, term string) bool {
	if term == "" {
		return false
	}
	for i := 0; i+len(term) <= len(s); {
		idx := strings.Index(s[i:], term)
		if idx < 0 {
			return false
		}
		start, end := i+idx, i+idx+len(term)
		if boundaryBefore(s, start) && boundaryAfter(s, end) {
			return true
		}
		i = start + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func boundaryBefore(s string, i int) bool { return i == 0 || !isWordByte(s[i-1]) }
func boundaryAfter(s string, i int) bool  { return i >= len(s) || !isWordByte(s[i]) }

// detectLabel finds a canonical label mentioned in the query. Multi-letter
// patterns match case-insensitively; bare labels such as "IT" only match in
// their canonical case so ordinary words are not mistaken for them.
func detectLabel(raw, lower string, rules []rule) string {
	for _, r := range rules {
		for _, c := range r.contains {
			if containsTerm(lower, c) {
				return r.label
			}
		}
		if containsTerm(raw, r.label) || (len(r.label) > 3 && containsTerm(lower, strings.ToLower(r.label))) {
			return r.label
		}
	}
	return ""
}

func detectYear(lower string) string {
	if m := yearNumberRe.FindStringSubmatch(lower); m != nil {
		return m[1]
	}
	if m := yearOrdinalRe.FindStringSubmatch(lower); m != nil {
		return m[1]
	}
	if m := yearWordRe.FindStringSubmatch(lower); m != nil {
		return yearWords[m[1]]
	}
	return ""
}

// yearKey reduces a free-text year ("3rd Year", "Third", "2025") to the form
// detectYear produces.
func yearKey(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" {
		return ""
	}
	if m := yearNumberRe.FindStringSubmatch(lower); m != nil {
		return m[1]
	}
	if lower[0] >= '1' && lower[0] <= '5' && (len(lower) == 1 || !isWordByte(lower[1]) || strings.ContainsAny(lower[1:2], "snrt")) {
		return lower[:1]
	}
	for word, digit := range yearWords {
		if strings.HasPrefix(lower, word) {
			return digit
		}
	}
	return lower
}

func (q query) hasAny(keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(q.lower, k) {
			return true
		}
	}
	return false
}

// nameStopWords never identify a student on their own.
var nameStopWords = wordSet(`
	a about above academic active all an and any are available average backlog backlogs below
	best blocked branch branches by called can cgpa companies company count course courses ctc
	data database department departments detail details do drive drives eligible find for get
	give gpa grade grades have help high highest hiring how i in inactive info information is
	job jobs know list low lowest many me more my named need not number of offer offers on open
	opening openings overview package performance placed placement placements please profile
	program rate recent record recruiter recruiters report role roles salary section show skill
	skills stats statistics status student students summary tell than the top topper toppers total
	unplaced want what where which who whose with year years you your attendance
`)

func wordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}

// vocabulary holds every course and department pattern and label.
var vocabulary = func() map[string]struct{} {
	out := make(map[string]struct{})
	for _, rules := range [][]rule{courseRules, departmentRules, programTypeRules} {
		for _, r := range rules {
			out[strings.ToLower(r.label)] = struct{}{}
			for _, p := range append(slices.Clone(r.contains), r.exact...) {
				out[p] = struct{}{}
			}
		}
	}
	return out
}()

// isVocabulary reports whether t is a course, department or year term rather
// than part of a name.
func isVocabulary(t string) bool {
	if _, ok := vocabulary[t]; ok {
		return true
	}
	if _, ok := yearWords[t]; ok {
		return true
	}
	if yearOrdinalRe.MatchString(t + " year") {
		return true
	}
	return len(t) <= 4 && strings.Trim(t, "0123456789") == ""
}

var nameCandidatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`"([^"]+)"`),
	regexp.MustCompile(`\b(?:student|details?|information|info|profile|record|data)\s+(?:of|for|about|on)\s+(.+)`),
	regexp.MustCompile(`\b(?:tell me about|who is|search for|look up|lookup|find|show me|show|get)\s+(?:the\s+)?(?:student\s+)?(?:named\s+|called\s+)?(.+)`),
	regexp.MustCompile(`\b(?:student|named|called)\s+(.+)`),
	regexp.MustCompile(`^(.+?)'s\s+(?:details?|profile|record|cgpa|gpa|placement|info|status)`),
	regexp.MustCompile(`\babout\s+(.+)`),
}

// nameCandidate extracts the words of the query that probably name a student.
func nameCandidate(q query) []string {
	for _, re := range nameCandidatePatterns {
		m := re.FindStringSubmatch(q.lower)
		if m == nil {
			continue
		}
		words := significantWords(m[1])
		if len(words) > 0 {
			return words
		}
	}
	return nil
}

func significantWords(s string) []string {
	var out []string
	for _, t := range tokenize(s) {
		t = strings.Trim(t, ".-_'")
		t = strings.TrimSuffix(t, "'s")
		if t == "" {
			continue
		}
		if _, stop := nameStopWords[t]; stop || isVocabulary(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// identifierTerms returns tokens shaped like e-mails or roll numbers.
func identifierTerms(q query) []string {
	var out []string
	for _, t := range q.tokens {
		t = strings.Trim(t, ".-_'")
		if strings.Contains(t, "@") || looksLikeRollNumber(t) {
			out = append(out, t)
		}
	}
	return out
}

func looksLikeRollNumber(t string) bool {
	var letters, digits int
	for _, r := range t {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		}
	}
	return (digits > 0 && letters > 0 && len(t) >= 4) || (letters == 0 && digits >= 6)
}
