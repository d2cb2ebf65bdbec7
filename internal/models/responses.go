package models

// AnalyzeResponse is the HTTP body for every successful pipeline call. Result
// holds one of AnalysisResult, ComparisonResult, RewriteResult or
// ConvertedResume depending on the mode.
type AnalyzeResponse struct {
	RequestID    string       `json:"request_id"`
	Mode         Mode         `json:"mode"`
	Filename     string       `json:"filename"`
	BasicMetrics BasicMetrics `json:"basic_metrics"`
	TextPreview  string       `json:"text_preview"`
	Result       any          `json:"result"`
}

// ResultResponse is the HTTP body for looking up a stored analysis record.
type ResultResponse struct {
	ID           string         `json:"id"`
	Mode         Mode           `json:"mode"`
	Status       AnalysisStatus `json:"status"`
	Result       any            `json:"result,omitempty"`
	FailedStage  string         `json:"failed_stage,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}
