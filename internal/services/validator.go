package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"resumeats/analyzer/internal/config"
	"resumeats/analyzer/internal/models"
)

// NormalizationReport records every repair the validator applied to a model
// response. Clamping and coercion are deliberate leniency, not silent data
// loss: each event is listed here and logged at warn level.
type NormalizationReport struct {
	ClampedFields []string `json:"clamped_fields,omitempty"`
	CoercedFields []string `json:"coerced_fields,omitempty"`
	DroppedFields []string `json:"dropped_fields,omitempty"`
	StrippedProse bool     `json:"stripped_prose,omitempty"`
}

func (r *NormalizationReport) Clamped() bool {
	return len(r.ClampedFields) > 0
}

type ResponseValidator struct {
	validate    *validator.Validate
	scorePolicy string
	logger      *zap.Logger
}

func NewResponseValidator(scorePolicy string, logger *zap.Logger) *ResponseValidator {
	return &ResponseValidator{
		validate:    validator.New(),
		scorePolicy: scorePolicy,
		logger:      logger,
	}
}

// ValidateAnalysis parses raw model output into an AnalysisResult, applying
// the bounded repair pass first.
func (v *ResponseValidator) ValidateAnalysis(raw string) (*models.AnalysisResult, *NormalizationReport, error) {
	payload, report, err := v.decodePayload(raw, models.AnalysisRequiredFields)
	if err != nil {
		return nil, nil, err
	}

	if err := v.normalizeScore(payload, "ats_score", report); err != nil {
		return nil, nil, err
	}
	if err := v.normalizeBreakdown(payload, report); err != nil {
		return nil, nil, err
	}

	var result models.AnalysisResult
	if err := v.decodeInto(payload, &result); err != nil {
		return nil, nil, err
	}

	v.logReport("analysis", report)
	return &result, report, nil
}

// ValidateComparison parses raw model output into a ComparisonResult.
func (v *ResponseValidator) ValidateComparison(raw string) (*models.ComparisonResult, *NormalizationReport, error) {
	payload, report, err := v.decodePayload(raw, models.ComparisonRequiredFields)
	if err != nil {
		return nil, nil, err
	}

	for _, field := range []string{"overall_match_score", "skill_match_percentage"} {
		if err := v.normalizeScore(payload, field, report); err != nil {
			return nil, nil, err
		}
	}

	var result models.ComparisonResult
	if err := v.decodeInto(payload, &result); err != nil {
		return nil, nil, err
	}

	v.logReport("comparison", report)
	return &result, report, nil
}

// ValidateRewrite parses raw model output into a RewriteResult.
func (v *ResponseValidator) ValidateRewrite(raw string) (*models.RewriteResult, *NormalizationReport, error) {
	payload, report, err := v.decodePayload(raw, models.RewriteRequiredFields)
	if err != nil {
		return nil, nil, err
	}

	var result models.RewriteResult
	if err := v.decodeInto(payload, &result); err != nil {
		return nil, nil, err
	}

	v.logReport("rewrite", report)
	return &result, report, nil
}

// ValidateConvert parses raw model output into a ConvertedResume.
func (v *ResponseValidator) ValidateConvert(raw string) (*models.ConvertedResume, *NormalizationReport, error) {
	payload, report, err := v.decodePayload(raw, models.ConvertRequiredFields)
	if err != nil {
		return nil, nil, err
	}

	var result models.ConvertedResume
	if err := v.decodeInto(payload, &result); err != nil {
		return nil, nil, err
	}

	v.logReport("convert", report)
	return &result, report, nil
}

// decodePayload runs the strict parse, then the repair pass: strip markdown
// fences and prose wrapping, decode, and check that every required field is
// present. Missing required fields are a hard failure, never defaulted.
func (v *ResponseValidator) decodePayload(raw string, requiredFields []string) (map[string]any, *NormalizationReport, error) {
	report := &NormalizationReport{}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		repaired := extractJSON(raw)
		if repaired == raw {
			return nil, nil, newPipelineError(StageValidating, KindValidation, "response is not valid JSON", err)
		}

		if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
			return nil, nil, newPipelineError(StageValidating, KindValidation, "response is not valid JSON after repair", err)
		}
		report.StrippedProse = true
	}

	var missing []string
	for _, field := range requiredFields {
		if _, ok := payload[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, nil, newPipelineError(StageValidating, KindValidation,
			fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")), nil)
	}

	return payload, report, nil
}

// normalizeScore coerces the named field to an integer and brings it into
// [0,100] according to the score policy.
func (v *ResponseValidator) normalizeScore(payload map[string]any, field string, report *NormalizationReport) error {
	value, coerced, ok := coerceInt(payload[field])
	if !ok {
		return newPipelineError(StageValidating, KindValidation,
			fmt.Sprintf("field %q is not a number", field), nil)
	}
	if coerced {
		report.CoercedFields = append(report.CoercedFields, field)
	}

	if value < 0 || value > 100 {
		if v.scorePolicy == config.ScorePolicyReject {
			return newPipelineError(StageValidating, KindValidation,
				fmt.Sprintf("field %q out of range: %d", field, value), nil)
		}
		report.ClampedFields = append(report.ClampedFields, field)
		value = clamp(value, 0, 100)
	}

	payload[field] = value
	return nil
}

// normalizeBreakdown enforces the exact category set of ats_score_breakdown
// and normalizes each category score. Unknown categories are dropped and
// recorded; missing ones fail validation.
func (v *ResponseValidator) normalizeBreakdown(payload map[string]any, report *NormalizationReport) error {
	rawBreakdown, ok := payload["ats_score_breakdown"].(map[string]any)
	if !ok {
		return newPipelineError(StageValidating, KindValidation, "ats_score_breakdown is not an object", nil)
	}

	known := make(map[string]bool, len(models.BreakdownCategories))
	normalized := make(map[string]any, len(models.BreakdownCategories))

	for _, category := range models.BreakdownCategories {
		known[category] = true
		if _, present := rawBreakdown[category]; !present {
			return newPipelineError(StageValidating, KindValidation,
				fmt.Sprintf("ats_score_breakdown missing category %q", category), nil)
		}
		normalized[category] = rawBreakdown[category]
	}

	for category := range rawBreakdown {
		if !known[category] {
			report.DroppedFields = append(report.DroppedFields, "ats_score_breakdown."+category)
		}
	}

	payload["ats_score_breakdown"] = normalized

	for _, category := range models.BreakdownCategories {
		if err := v.normalizeScoreIn(normalized, category, "ats_score_breakdown."+category, report); err != nil {
			return err
		}
	}

	return nil
}

func (v *ResponseValidator) normalizeScoreIn(obj map[string]any, key, label string, report *NormalizationReport) error {
	value, coerced, ok := coerceInt(obj[key])
	if !ok {
		return newPipelineError(StageValidating, KindValidation,
			fmt.Sprintf("field %q is not a number", label), nil)
	}
	if coerced {
		report.CoercedFields = append(report.CoercedFields, label)
	}

	if value < 0 || value > 100 {
		if v.scorePolicy == config.ScorePolicyReject {
			return newPipelineError(StageValidating, KindValidation,
				fmt.Sprintf("field %q out of range: %d", label, value), nil)
		}
		report.ClampedFields = append(report.ClampedFields, label)
		value = clamp(value, 0, 100)
	}

	obj[key] = value
	return nil
}

// decodeInto marshals the normalized payload into the typed result and runs
// the struct-tag constraints over it.
func (v *ResponseValidator) decodeInto(payload map[string]any, target any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return newPipelineError(StageValidating, KindValidation, "failed to re-encode payload", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return newPipelineError(StageValidating, KindValidation, "response shape does not match result schema", err)
	}

	if err := v.validate.Struct(target); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return newPipelineError(StageValidating, KindValidation,
				fmt.Sprintf("field %q failed constraint %q", first.Field(), first.Tag()), err)
		}
		return newPipelineError(StageValidating, KindValidation, "result failed constraint checks", err)
	}

	return nil
}

func (v *ResponseValidator) logReport(kind string, report *NormalizationReport) {
	if report.Clamped() {
		v.logger.Warn("clamped out-of-range scores in model response",
			zap.String("result_kind", kind),
			zap.Strings("clamped_fields", report.ClampedFields),
		)
	}
	if len(report.CoercedFields) > 0 || len(report.DroppedFields) > 0 || report.StrippedProse {
		v.logger.Info("repaired model response",
			zap.String("result_kind", kind),
			zap.Strings("coerced_fields", report.CoercedFields),
			zap.Strings("dropped_fields", report.DroppedFields),
			zap.Bool("stripped_prose", report.StrippedProse),
		)
	}
}

// coerceInt accepts JSON numbers and numeric strings. The second return
// reports whether a coercion happened.
func coerceInt(value any) (int, bool, bool) {
	switch n := value.(type) {
	case float64:
		if n == float64(int(n)) {
			return int(n), false, true
		}
		return int(n + 0.5), true, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false, false
		}
		return int(parsed + 0.5), true, true
	case int:
		return n, false, true
	default:
		return 0, false, false
	}
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// extractJSON strips markdown fences and prose wrapping around a JSON
// payload. The model sometimes leads with a sentence before the object.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	endObj := strings.LastIndex(text, "}")
	if startObj != -1 && endObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	}

	startArr := strings.Index(text, "[")
	endArr := strings.LastIndex(text, "]")
	if startArr != -1 && endArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}

	return text
}
