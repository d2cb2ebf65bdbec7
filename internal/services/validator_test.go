package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeats/analyzer/pkg/logger"
)

// mutateJSON decodes raw, applies fn to the payload and re-encodes it.
func mutateJSON(t *testing.T, raw string, fn func(payload map[string]any)) string {
	t.Helper()

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	fn(payload)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(data)
}

func requireValidationError(t *testing.T, err error) {
	t.Helper()

	require.Error(t, err)
	var pe *PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StageValidating, pe.Stage)
	assert.Equal(t, KindValidation, pe.Kind)
}

func TestValidateAnalysisAcceptsCleanResponse(t *testing.T) {
	v := NewResponseValidator("clamp", logger.Nop())

	result, report, err := v.ValidateAnalysis(validAnalysisJSON)
	require.NoError(t, err)

	assert.Equal(t, 78, result.ATSScore)
	assert.Len(t, result.ATSScoreBreakdown, 5)
	assert.Equal(t, 80, result.ATSScoreBreakdown["keywords"])
	assert.Len(t, result.Suggestions, 6)
	assert.Equal(t, "Mid-Level", result.CandidateLevel)

	assert.False(t, report.Clamped())
	assert.False(t, report.StrippedProse)
	assert.Empty(t, report.CoercedFields)
	assert.Empty(t, report.DroppedFields)
}

func TestValidateAnalysisRepairsProseWrappedJSON(t *testing.T) {
	v := NewResponseValidator("clamp", logger.Nop())

	raw := "Here is the analysis you asked for:\n```json\n" + validAnalysisJSON + "\n```\nLet me know if you need anything else."
	result, report, err := v.ValidateAnalysis(raw)
	require.NoError(t, err)

	assert.Equal(t, 78, result.ATSScore)
	assert.True(t, report.StrippedProse)
}

func TestValidateAnalysisRejectsNonJSON(t *testing.T) {
	v := NewResponseValidator("clamp", logger.Nop())

	_, _, err := v.ValidateAnalysis("I could not process this resume, sorry.")
	requireValidationError(t, err)
}

func TestValidateAnalysisClampsOutOfRangeScores(t *testing.T) {
	v := NewResponseValidator("clamp", logger.Nop())

	raw := mutateJSON(t, validAnalysisJSON, func(payload map[string]any) {
		payload["ats_score"] = 130
		payload["ats_score_breakdown"].(map[string]any)["formatting"] = -10
	})

	result, report, err := v.ValidateAnalysis(raw)
	require.NoError(t, err)

	assert.Equal(t, 100, result.ATSScore)
	assert.Equal(t, 0, result.ATSScoreBreakdown["formatting"])

	assert.True(t, report.Clamped())
	assert.Contains(t, report.ClampedFields, "ats_score")
	assert.Contains(t, report.ClampedFields, "ats_score_breakdown.formatting")
}

func TestValidateAnalysisRejectPolicyFailsOutOfRange(t *testing.T) {
	v := NewResponseValidator("reject", logger.Nop())

	raw := mutateJSON(t, validAnalysisJSON, func(payload map[string]any) {
		payload["ats_score"] = 130
	})

	_, _, err := v.ValidateAnalysis(raw)
	requireValidationError(t, err)
}

func TestValidateAnalysisCoercesNumericStrings(t *testing.T) {
	v := NewResponseValidator("clamp", logger.Nop())

	raw := mutateJSON(t, validAnalysisJSON, func(payload map[string]any) {
		payload["ats_score"] = "82"
		payload["ats_score_breakdown"].(map[string]any)["keywords"] = "75"
	})

	result, report, err := v.ValidateAnalysis(raw)
	require.NoError(t, err)

	assert.Equal(t, 82, result.ATSScore)
	assert.Equal(t, 75, result.ATSScoreBreakdown["keywords"])
	assert.Contains(t, report.CoercedFields, "ats_score")
	assert.Contains(t, report.CoercedFields, "ats_score_breakdown.keywords")
}

func TestValidateAnalysisMissingFieldsAreNeverDefaulted(t *testing.T) {
	tests := []struct {
		name  string
		field string
	}{
		{"missing score", "ats_score"},
		{"missing breakdown", "ats_score_breakdown"},
		{"missing summary", "summary"},
		{"missing suggestions", "suggestions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewResponseValidator("clamp", logger.Nop())

			raw := mutateJSON(t, validAnalysisJSON, func(payload map[string]any) {
				delete(payload, tt.field)
			})

			_, _, err := v.ValidateAnalysis(raw)
			requireValidationError(t, err)
		})
	}
}

func TestValidateAnalysisEnforcesBreakdownCategorySet(t *testing.T) {
	t.Run("unknown category dropped and reported", func(t *testing.T) {
		v := NewResponseValidator("clamp", logger.Nop())

		raw := mutateJSON(t, validAnalysisJSON, func(payload map[string]any) {
			payload["ats_score_breakdown"].(map[string]any)["vibes"] = 99
		})

		result, report, err := v.ValidateAnalysis(raw)
		require.NoError(t, err)

		assert.Len(t, result.ATSScoreBreakdown, 5)
		assert.NotContains(t, result.ATSScoreBreakdown, "vibes")
		assert.Contains(t, report.DroppedFields, "ats_score_breakdown.vibes")
	})

	t.Run("missing category fails", func(t *testing.T) {
		v := NewResponseValidator("clamp", logger.Nop())

		raw := mutateJSON(t, validAnalysisJSON, func(payload map[string]any) {
			delete(payload["ats_score_breakdown"].(map[string]any), "skills_match")
		})

		_, _, err := v.ValidateAnalysis(raw)
		requireValidationError(t, err)
	})
}

func TestValidateAnalysisEnforcesSuggestionCardinality(t *testing.T) {
	v := NewResponseValidator("clamp", logger.Nop())

	raw := mutateJSON(t, validAnalysisJSON, func(payload map[string]any) {
		payload["suggestions"] = []any{"Add a summary", "List certifications"}
	})

	_, _, err := v.ValidateAnalysis(raw)
	requireValidationError(t, err)
}

func TestValidateComparison(t *testing.T) {
	t.Run("clean response", func(t *testing.T) {
		v := NewResponseValidator("clamp", logger.Nop())

		result, report, err := v.ValidateComparison(validComparisonJSON)
		require.NoError(t, err)

		assert.Equal(t, 64, result.OverallMatchScore)
		assert.Contains(t, result.MissingSkills, "Kubernetes")
		assert.False(t, report.Clamped())
	})

	t.Run("both scores normalized", func(t *testing.T) {
		v := NewResponseValidator("clamp", logger.Nop())

		raw := mutateJSON(t, validComparisonJSON, func(payload map[string]any) {
			payload["overall_match_score"] = 104
			payload["skill_match_percentage"] = "61"
		})

		result, report, err := v.ValidateComparison(raw)
		require.NoError(t, err)

		assert.Equal(t, 100, result.OverallMatchScore)
		assert.Equal(t, 61, result.SkillMatchPercentage)
		assert.Contains(t, report.ClampedFields, "overall_match_score")
		assert.Contains(t, report.CoercedFields, "skill_match_percentage")
	})
}

func TestValidateRewrite(t *testing.T) {
	const raw = `{
	  "summary": "Bullets lean on duties instead of outcomes.",
	  "bullet_rewrites": [
	    {"original": "Responsible for the API", "improved": "Designed and shipped a REST API serving 2M requests per day"}
	  ],
	  "keyword_suggestions": ["observability", "gRPC"],
	  "action_verb_suggestions": ["Led", "Shipped"],
	  "formatting_tips": ["Keep bullets to one line"]
	}`

	v := NewResponseValidator("clamp", logger.Nop())

	result, _, err := v.ValidateRewrite(raw)
	require.NoError(t, err)
	require.Len(t, result.BulletRewrites, 1)
	assert.Equal(t, "Responsible for the API", result.BulletRewrites[0].Original)

	_, _, err = v.ValidateRewrite(mutateJSON(t, raw, func(payload map[string]any) {
		delete(payload, "bullet_rewrites")
	}))
	requireValidationError(t, err)
}

func TestValidateConvert(t *testing.T) {
	const raw = `{
	  "format_type": "ats-optimized",
	  "converted_text": "JANE DOE\nSoftware Engineer\n...",
	  "change_notes": ["Removed the two-column layout", "Expanded abbreviations"]
	}`

	v := NewResponseValidator("clamp", logger.Nop())

	result, _, err := v.ValidateConvert(raw)
	require.NoError(t, err)
	assert.Equal(t, "ats-optimized", result.FormatType)
	assert.Len(t, result.ChangeNotes, 2)

	_, _, err = v.ValidateConvert(mutateJSON(t, raw, func(payload map[string]any) {
		payload["change_notes"] = []any{}
	}))
	requireValidationError(t, err)
}
