package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumeats/analyzer/internal/models"
)

type AnalysisRepository interface {
	Create(record *models.AnalysisRecord) error
	FindByID(id uuid.UUID) (*models.AnalysisRecord, error)
	UpdateResult(id uuid.UUID, result datatypes.JSON, pages, wordCount int) error
	UpdateError(id uuid.UUID, stage, errorMsg string) error
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

// Create implements AnalysisRepository.
func (r *analysisRepository) Create(record *models.AnalysisRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create analysis record: %w", err)
	}
	return nil
}

// FindByID implements AnalysisRepository.
func (r *analysisRepository) FindByID(id uuid.UUID) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord
	if err := r.db.Where("id = ?", id).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("analysis record not found")
		}
		return nil, fmt.Errorf("failed to find analysis record: %w", err)
	}
	return &record, nil
}

// UpdateResult implements AnalysisRepository.
func (r *analysisRepository) UpdateResult(id uuid.UUID, result datatypes.JSON, pages, wordCount int) error {
	res := r.db.Model(&models.AnalysisRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.StatusCompleted,
			"result":     result,
			"pages":      pages,
			"word_count": wordCount,
			"updated_at": time.Now(),
		})

	if res.Error != nil {
		return fmt.Errorf("failed to update result: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("analysis record not found")
	}
	return nil
}

// UpdateError implements AnalysisRepository.
func (r *analysisRepository) UpdateError(id uuid.UUID, stage, errorMsg string) error {
	res := r.db.Model(&models.AnalysisRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.StatusFailed,
			"failed_stage":  stage,
			"error_message": errorMsg,
			"updated_at":    time.Now(),
		})

	if res.Error != nil {
		return fmt.Errorf("failed to update error: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("analysis record not found")
	}
	return nil
}

// DeleteOlderThan implements AnalysisRepository.
func (r *analysisRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res := r.db.Where("created_at < ?", cutoff).Delete(&models.AnalysisRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete old records: %w", res.Error)
	}
	return res.RowsAffected, nil
}
