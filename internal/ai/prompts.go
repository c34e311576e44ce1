package ai

import "strings"

// DefaultSystemPrompt is the system instruction for placement analysis.
const DefaultSystemPrompt = `You are a placement cell assistant for a college. You answer questions from
placement officers and faculty about students, companies, job postings and
placement outcomes.

Rules:
- Use only the data given in the DATABASE CONTEXT section. Never invent students, companies or numbers.
- When the context does not contain the answer, say so plainly and suggest a more specific question.
- Keep answers short and factual. Prefer markdown tables for lists of students or jobs.
- Percentages are whole numbers. CGPA values keep their original precision.
- Do not reveal email addresses unless the question asks for contact details.`

// DefaultUserPrompt wraps the rendered database context and question.
// The single %s receives the output of placement.BuildAnalysisPrompt.
const DefaultUserPrompt = `Answer the QUESTION at the end using the placement data below.
Respond in markdown.

%s`

// formatUserPrompt fills a user prompt template. Templates without a
// placeholder get the context appended.
func formatUserPrompt(template, content string) string {
	if strings.Contains(template, "%s") {
		return strings.Replace(template, "%s", content, 1)
	}
	return strings.TrimRight(template, "\n") + "\n\n" + content
}

// resolvePrompt selects a prompt by priority:
// 1. A prompt loaded from a file.
// 2. A prompt defined directly in the configuration.
// 3. The built-in default.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
