package services

import (
	"fmt"
	"strings"
)

// RubricCategory is one weighted scoring category of the ATS rubric. The
// category keys line up with models.BreakdownCategories.
type RubricCategory struct {
	Key    string
	Title  string
	Weight int
	Rules  []string
}

// atsRubric is the fixed scoring rubric. In grounded analysis mode the
// category titles double as retrieval queries against the resume index.
var atsRubric = []RubricCategory{
	{
		Key:    "keywords",
		Title:  "Keyword Optimization",
		Weight: 30,
		Rules: []string{
			"Resume should contain 70%+ of job description keywords",
			"Keywords should appear in context, not just listed",
			"Use exact keyword matches from job description",
			"Include industry-specific terminology",
		},
	},
	{
		Key:    "formatting",
		Title:  "Formatting",
		Weight: 20,
		Rules: []string{
			"Use standard section headers (Experience, Education, Skills)",
			"Avoid tables, text boxes, headers/footers",
			"Use simple bullet points",
			"Consistent date formatting",
			"No images or graphics",
		},
	},
	{
		Key:    "content_quality",
		Title:  "Content Quality",
		Weight: 25,
		Rules: []string{
			"Quantify achievements with metrics",
			"Use action verbs to start bullet points",
			"Show impact and results",
			"Relevant experience highlighted",
			"No spelling or grammar errors",
		},
	},
	{
		Key:    "experience_relevance",
		Title:  "Experience Relevance",
		Weight: 15,
		Rules: []string{
			"Recent experience matches job requirements",
			"Progressive career growth shown",
			"Relevant projects and achievements",
			"Industry experience alignment",
		},
	},
	{
		Key:    "skills_match",
		Title:  "Skills Match",
		Weight: 10,
		Rules: []string{
			"Technical skills match job requirements",
			"Certifications relevant to role",
			"Tools and technologies listed",
			"Soft skills demonstrated through achievements",
		},
	},
}

// RubricText renders the full rubric for inclusion in a prompt.
func RubricText() string {
	var b strings.Builder
	for _, category := range atsRubric {
		fmt.Fprintf(&b, "%s (weight %d%%):\n", category.Title, category.Weight)
		for _, rule := range category.Rules {
			fmt.Fprintf(&b, "- %s\n", rule)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// RubricQueries returns one retrieval query per rubric category, used to pull
// rubric-relevant resume evidence in grounded analysis mode.
func RubricQueries() []string {
	queries := make([]string, 0, len(atsRubric))
	for _, category := range atsRubric {
		queries = append(queries, fmt.Sprintf("%s: %s", category.Title, strings.Join(category.Rules, " ")))
	}
	return queries
}
