package models

// BreakdownCategories is the fixed category set of the ATS score breakdown.
// The prompt schema and the response validator both build from this slice, so
// the instruction sent upstream and the constraint enforced downstream cannot
// drift apart.
var BreakdownCategories = []string{
	"keywords",
	"formatting",
	"content_quality",
	"experience_relevance",
	"skills_match",
}

// AnalysisResult is the validated output of the analyze modes. Struct tags
// carry the cardinality and range constraints; the validator enforces them
// after the repair pass.
type AnalysisResult struct {
	ATSScore          int            `json:"ats_score" validate:"min=0,max=100"`
	ATSScoreBreakdown map[string]int `json:"ats_score_breakdown" validate:"len=5,dive,min=0,max=100"`
	Pros              []string       `json:"pros" validate:"len=5,dive,required"`
	Cons              []string       `json:"cons" validate:"len=5,dive,required"`
	Suggestions       []string       `json:"suggestions" validate:"min=5,max=7,dive,required"`
	TopSkills         []string       `json:"top_skills"`
	MissingKeywords   []string       `json:"missing_keywords"`
	IndustryMatch     string         `json:"industry_match" validate:"required"`
	CandidateLevel    string         `json:"candidate_level" validate:"required"`
	Summary           string         `json:"summary" validate:"required"`
}

// AnalysisRequiredFields lists the JSON keys that must be present in the raw
// model output before an AnalysisResult is accepted. Absence is a validation
// failure, never a fabricated default.
var AnalysisRequiredFields = []string{
	"ats_score",
	"ats_score_breakdown",
	"pros",
	"cons",
	"suggestions",
	"top_skills",
	"missing_keywords",
	"industry_match",
	"candidate_level",
	"summary",
}

// ComparisonResult is the validated output of the compare modes.
type ComparisonResult struct {
	OverallMatchScore    int      `json:"overall_match_score" validate:"min=0,max=100"`
	SkillMatchPercentage int      `json:"skill_match_percentage" validate:"min=0,max=100"`
	MatchedSkills        []string `json:"matched_skills"`
	MissingSkills        []string `json:"missing_skills"`
	MatchedKeywords      []string `json:"matched_keywords"`
	MissingKeywords      []string `json:"missing_keywords"`
	GoodToHaveKeywords   []string `json:"good_to_have_keywords"`
	StrengthsForRole     []string `json:"strengths_for_role"`
	GapsForRole          []string `json:"gaps_for_role"`
	Recommendations      []string `json:"recommendations"`
	ExperienceMatch      string   `json:"experience_match" validate:"required"`
	EducationMatch       string   `json:"education_match" validate:"required"`
	ATSCompatibility     string   `json:"ats_compatibility" validate:"required"`
	RoleFitSummary       string   `json:"role_fit_summary" validate:"required"`
}

var ComparisonRequiredFields = []string{
	"overall_match_score",
	"skill_match_percentage",
	"matched_skills",
	"missing_skills",
	"matched_keywords",
	"missing_keywords",
	"strengths_for_role",
	"gaps_for_role",
	"recommendations",
	"experience_match",
	"education_match",
	"ats_compatibility",
	"role_fit_summary",
}

// BulletRewrite pairs an original resume bullet with its improved version.
type BulletRewrite struct {
	Original string `json:"original" validate:"required"`
	Improved string `json:"improved" validate:"required"`
}

// RewriteResult is the validated output of the rewrite mode.
type RewriteResult struct {
	Summary               string          `json:"summary" validate:"required"`
	BulletRewrites        []BulletRewrite `json:"bullet_rewrites" validate:"min=1,dive"`
	KeywordSuggestions    []string        `json:"keyword_suggestions" validate:"min=1,dive,required"`
	ActionVerbSuggestions []string        `json:"action_verb_suggestions" validate:"min=1,dive,required"`
	FormattingTips        []string        `json:"formatting_tips" validate:"min=1,dive,required"`
}

var RewriteRequiredFields = []string{
	"summary",
	"bullet_rewrites",
	"keyword_suggestions",
	"action_verb_suggestions",
	"formatting_tips",
}

// ConvertedResume is the validated output of the convert mode.
type ConvertedResume struct {
	FormatType    string   `json:"format_type" validate:"required"`
	ConvertedText string   `json:"converted_text" validate:"required"`
	ChangeNotes   []string `json:"change_notes" validate:"min=1,dive,required"`
}

var ConvertRequiredFields = []string{
	"format_type",
	"converted_text",
	"change_notes",
}
