package models

import (
	"time"

	"github.com/google/uuid"
)

// Mode selects which branches of the pipeline a request executes.
type Mode string

const (
	ModeAnalyze    Mode = "analyze"
	ModeAnalyzeRAG Mode = "analyze_rag"
	ModeCompare    Mode = "compare"
	ModeCompareRAG Mode = "compare_rag"
	ModeRewrite    Mode = "rewrite"
	ModeConvert    Mode = "convert"
)

// Grounded reports whether the mode runs the chunk/index/retrieve branch.
func (m Mode) Grounded() bool {
	return m == ModeAnalyzeRAG || m == ModeCompareRAG
}

// NeedsJobDescription reports whether the mode requires job description text.
func (m Mode) NeedsJobDescription() bool {
	return m == ModeCompare || m == ModeCompareRAG
}

// FormatType is a target resume format for conversion.
type FormatType string

const (
	FormatATSOptimized     FormatType = "ats-optimized"
	FormatHRFriendly       FormatType = "hr-friendly"
	FormatSoftwareEngineer FormatType = "software-engineer"
	FormatDataAnalyst      FormatType = "data-analyst"
	FormatProductManager   FormatType = "product-manager"
	FormatMarketing        FormatType = "marketing"
)

var FormatTypes = []FormatType{
	FormatATSOptimized,
	FormatHRFriendly,
	FormatSoftwareEngineer,
	FormatDataAnalyst,
	FormatProductManager,
	FormatMarketing,
}

func (f FormatType) Valid() bool {
	for _, known := range FormatTypes {
		if f == known {
			return true
		}
	}
	return false
}

// RequestContext identifies one analysis request. It is attached to every log
// line and error produced while the request is in flight and discarded with
// the response.
type RequestContext struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Mode      Mode      `json:"mode"`
}

func NewRequestContext(mode Mode) RequestContext {
	return RequestContext{
		RequestID: uuid.New().String(),
		Timestamp: time.Now(),
		Mode:      mode,
	}
}
