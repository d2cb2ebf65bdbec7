package services

import (
	"fmt"
	"strings"

	"resumeats/analyzer/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// breakdownSchema renders the ats_score_breakdown object from the same
// category list the validator enforces, so the schema promised to the model
// and the schema checked on the way back cannot drift apart.
func breakdownSchema() string {
	parts := make([]string, 0, len(models.BreakdownCategories))
	for _, category := range models.BreakdownCategories {
		parts = append(parts, fmt.Sprintf("    %q: <integer 0-100>", category))
	}
	return "{\n" + strings.Join(parts, ",\n") + "\n  }"
}

const groundingRules = `STRICT RULES:
- Only use information from the evidence above
- Never hallucinate or assume information
- If something is not in the evidence, state "Not found in retrieved context"`

// BuildAnalysisPrompt creates the prompt for the analyze modes. evidence is
// either the full resume text or, in grounded mode, the retrieved chunks.
func (pb *PromptBuilder) BuildAnalysisPrompt(evidence string, grounded bool) string {
	strictness := ""
	if grounded {
		strictness = groundingRules + "\n\n"
	}

	return fmt.Sprintf(`You are an expert ATS (Applicant Tracking System) resume analyzer and career coach.

SCORING RUBRIC:
%s

RESUME EVIDENCE:
%s

%sAnalyze the resume against the rubric and return your response in the following JSON format:
{
  "ats_score": <integer 0-100>,
  "ats_score_breakdown": %s,
  "pros": [<exactly 5 strings, specific strengths>],
  "cons": [<exactly 5 strings, specific weaknesses>],
  "suggestions": [<5 to 7 strings, actionable improvements>],
  "top_skills": [<strings, strongest skills found>],
  "missing_keywords": [<strings, keywords the resume should add>],
  "industry_match": "<industry or role this resume best fits>",
  "candidate_level": "<Entry-Level/Junior/Mid-Level/Senior/Executive>",
  "summary": "<2-3 sentence overall assessment>"
}

Be specific, actionable, and honest. Return ONLY valid JSON, no markdown formatting.`,
		RubricText(), evidence, strictness, breakdownSchema())
}

// BuildComparisonPrompt creates the prompt for the compare modes.
func (pb *PromptBuilder) BuildComparisonPrompt(evidence, jobDescription string, grounded bool) string {
	strictness := ""
	if grounded {
		strictness = groundingRules + "\n\n"
	}

	return fmt.Sprintf(`You are an expert technical recruiter comparing a candidate's resume against a job description.

JOB DESCRIPTION:
%s

RESUME EVIDENCE:
%s

%sCompare the resume against the job description and return your response in the following JSON format:
{
  "overall_match_score": <integer 0-100>,
  "skill_match_percentage": <integer 0-100>,
  "matched_skills": [<strings, skills present in both resume and job description>],
  "missing_skills": [<strings, skills the job requires that the resume lacks>],
  "matched_keywords": [<strings>],
  "missing_keywords": [<strings>],
  "good_to_have_keywords": [<strings, nice-to-have keywords worth adding>],
  "strengths_for_role": [<strings>],
  "gaps_for_role": [<strings>],
  "recommendations": [<strings, concrete steps to close the gaps>],
  "experience_match": "<assessment of experience fit>",
  "education_match": "<assessment of education fit>",
  "ats_compatibility": "<assessment of how the resume will fare in an ATS for this role>",
  "role_fit_summary": "<2-3 sentence overall fit assessment>"
}

List a skill as missing only when the job description requires it and the resume shows no evidence of it. Return ONLY valid JSON, no markdown formatting.`,
		jobDescription, evidence, strictness)
}

// BuildRewritePrompt creates the prompt for rewrite suggestions.
func (pb *PromptBuilder) BuildRewritePrompt(resumeText string) string {
	return fmt.Sprintf(`You are an expert resume writer. Improve the resume below with concrete rewrites.

RESUME:
%s

Return your response in the following JSON format:
{
  "summary": "<2-3 sentence assessment of the writing quality>",
  "bullet_rewrites": [
    {"original": "<a weak bullet taken verbatim from the resume>", "improved": "<stronger rewrite with action verb and metric>"}
  ],
  "keyword_suggestions": [<strings, keywords to work into the resume>],
  "action_verb_suggestions": [<strings, stronger verbs to use>],
  "formatting_tips": [<strings, layout and structure improvements>]
}

Rewrite at least 3 bullets. Return ONLY valid JSON, no markdown formatting.`, resumeText)
}

// BuildConvertPrompt creates the prompt for format conversion.
func (pb *PromptBuilder) BuildConvertPrompt(resumeText string, format models.FormatType) string {
	return fmt.Sprintf(`You are an expert resume formatter. Rewrite the resume below in the %q style, keeping every fact truthful to the original.

RESUME:
%s

Return your response in the following JSON format:
{
  "format_type": %q,
  "converted_text": "<the full converted resume as plain text>",
  "change_notes": [<strings, what was changed and why>]
}

Do not invent experience, skills, or dates. Return ONLY valid JSON, no markdown formatting.`,
		format, resumeText, format)
}

// FormatEvidence renders retrieved chunks as the evidence block of a grounded
// prompt, highest score first.
func FormatEvidence(results models.RetrievalResult) string {
	if len(results) == 0 {
		return "No relevant context found."
	}

	var parts []string
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Evidence %d (section: %s, score: %.2f) ---\n%s",
			i+1, result.Chunk.Section, result.Score, strings.TrimSpace(result.Chunk.Text)))
	}

	return strings.Join(parts, "\n\n")
}
