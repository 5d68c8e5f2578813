package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ieltsgenai/prep-api/internal/models"
)

// SafetyAuditRepository stores safety check events for compliance review.
type SafetyAuditRepository interface {
	Create(ctx context.Context, event *models.SafetyAuditEvent) error
	CountByCategory(ctx context.Context, since time.Time) (map[models.SafetyCategory]int64, error)
}

type safetyAuditRepository struct {
	db *gorm.DB
}

// NewSafetyAuditRepository constructs a repository backed by GORM.
func NewSafetyAuditRepository(db *gorm.DB) SafetyAuditRepository {
	return &safetyAuditRepository{db: db}
}

func (r *safetyAuditRepository) Create(ctx context.Context, event *models.SafetyAuditEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *safetyAuditRepository) CountByCategory(ctx context.Context, since time.Time) (map[models.SafetyCategory]int64, error) {
	var rows []struct {
		Category models.SafetyCategory
		Total    int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.SafetyAuditEvent{}).
		Select("category, COUNT(*) AS total").
		Where("created_at >= ?", since).
		Group("category").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.SafetyCategory]int64, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Total
	}
	return counts, nil
}
