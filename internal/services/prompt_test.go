package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"resumeats/analyzer/internal/models"
)

func TestAnalysisPromptCarriesRubricAndSchema(t *testing.T) {
	pb := NewPromptBuilder()

	prompt := pb.BuildAnalysisPrompt("resume text here", false)

	assert.Contains(t, prompt, "resume text here")
	for _, category := range models.BreakdownCategories {
		assert.Contains(t, prompt, `"`+category+`"`)
	}
	for _, category := range atsRubric {
		assert.Contains(t, prompt, category.Title)
	}
}

func TestGroundingRulesOnlyInGroundedPrompts(t *testing.T) {
	pb := NewPromptBuilder()

	tests := []struct {
		name   string
		prompt string
		want   bool
	}{
		{"analysis grounded", pb.BuildAnalysisPrompt("evidence", true), true},
		{"analysis ungrounded", pb.BuildAnalysisPrompt("evidence", false), false},
		{"comparison grounded", pb.BuildComparisonPrompt("evidence", "job", true), true},
		{"comparison ungrounded", pb.BuildComparisonPrompt("evidence", "job", false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Contains(tt.prompt, "Only use information from the evidence")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComparisonPromptCarriesJobDescription(t *testing.T) {
	pb := NewPromptBuilder()

	prompt := pb.BuildComparisonPrompt("evidence block", "Senior Go engineer, Kubernetes required", true)
	assert.Contains(t, prompt, "Senior Go engineer, Kubernetes required")
	assert.Contains(t, prompt, "evidence block")
	assert.Contains(t, prompt, "missing_skills")
}

func TestConvertPromptCarriesFormatType(t *testing.T) {
	pb := NewPromptBuilder()

	prompt := pb.BuildConvertPrompt("resume text", models.FormatHRFriendly)
	assert.Contains(t, prompt, `"hr-friendly"`)
	assert.Contains(t, prompt, "resume text")
}

func TestFormatEvidence(t *testing.T) {
	t.Run("empty results", func(t *testing.T) {
		assert.Equal(t, "No relevant context found.", FormatEvidence(nil))
	})

	t.Run("ordered blocks", func(t *testing.T) {
		results := models.RetrievalResult{
			{Chunk: models.Chunk{ID: 2, Text: "led the platform team", Section: "experience"}, Score: 0.91},
			{Chunk: models.Chunk{ID: 0, Text: "go and postgres", Section: "skills"}, Score: 0.74},
		}

		out := FormatEvidence(results)
		assert.Contains(t, out, "--- Evidence 1 (section: experience, score: 0.91) ---")
		assert.Contains(t, out, "--- Evidence 2 (section: skills, score: 0.74) ---")
		assert.Less(t, strings.Index(out, "led the platform team"), strings.Index(out, "go and postgres"))
	})
}

func TestRubricWeightsSumToOneHundred(t *testing.T) {
	total := 0
	for _, category := range atsRubric {
		total += category.Weight
	}
	assert.Equal(t, 100, total)

	queries := RubricQueries()
	assert.Len(t, queries, len(models.BreakdownCategories))
}
