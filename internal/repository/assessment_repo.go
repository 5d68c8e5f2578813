package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ieltsgenai/prep-api/internal/models"
)

// AssessmentRepository persists scored submissions.
type AssessmentRepository interface {
	Create(ctx context.Context, record *models.AssessmentRecord) error
	FindByID(ctx context.Context, id string) (models.AssessmentRecord, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.AssessmentRecord, error)
}

type assessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository constructs a repository backed by GORM.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) Create(ctx context.Context, record *models.AssessmentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *assessmentRepository) FindByID(ctx context.Context, id string) (models.AssessmentRecord, error) {
	var record models.AssessmentRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return models.AssessmentRecord{}, err
	}
	return record, nil
}

func (r *assessmentRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.AssessmentRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var records []models.AssessmentRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).
		Error
	return records, err
}
