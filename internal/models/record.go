package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AnalysisStatus string

const (
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

// AnalysisRecord tracks the outcome of one pipeline request. Only the result
// is stored; uploaded resume content never leaves the request lifetime.
type AnalysisRecord struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Mode         Mode           `gorm:"type:text;not null" json:"mode"`
	Status       AnalysisStatus `gorm:"not null;default:'processing'" json:"status"`
	Filename     string         `gorm:"type:text" json:"filename"`
	Pages        int            `json:"pages"`
	WordCount    int            `json:"word_count"`
	Result       datatypes.JSON `gorm:"type:jsonb" json:"result,omitempty"`
	FailedStage  string         `gorm:"type:text" json:"failed_stage,omitempty"`
	ErrorMessage string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AnalysisRecord) TableName() string {
	return "analysis_records"
}
