package service

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"github.com/ieltsgenai/prep-api/internal/dto"
	"github.com/ieltsgenai/prep-api/internal/models"
	"github.com/ieltsgenai/prep-api/internal/repository"
	"github.com/ieltsgenai/prep-api/internal/safety"
)

// SafetyAuditRecorder persists safety audit events through the audit repository.
type SafetyAuditRecorder struct {
	repo repository.SafetyAuditRepository
}

// NewSafetyAuditRecorder builds a safety.AuditSink backed by the database.
func NewSafetyAuditRecorder(repo repository.SafetyAuditRepository) *SafetyAuditRecorder {
	return &SafetyAuditRecorder{repo: repo}
}

func (r *SafetyAuditRecorder) Record(ctx context.Context, event safety.AuditEvent) error {
	// Audit rows are written even when the request context is cancelled.
	ctx = context.WithoutCancel(ctx)

	signals := make([]interface{}, 0, len(event.Signals))
	for _, signal := range event.Signals {
		signals = append(signals, signal)
	}
	return r.repo.Create(ctx, &models.SafetyAuditEvent{
		CorrelationID: event.CorrelationID,
		Stage:         event.Stage,
		Context:       event.Context,
		Category:      event.Category,
		Outcome:       event.Outcome,
		Confidence:    event.Confidence,
		Excerpt:       event.Excerpt,
		Metadata:      datatypes.JSONMap{"signals": signals},
		CreatedAt:     event.Timestamp,
	})
}

// SafetySummary reports safety outcomes per category.
type SafetySummary interface {
	Summary(ctx context.Context, window time.Duration) (dto.SafetySummaryResponse, error)
}

type safetySummaryService struct {
	repo repository.SafetyAuditRepository
	now  func() time.Time
}

// NewSafetySummaryService returns nil when persistence is disabled.
func NewSafetySummaryService(repo repository.SafetyAuditRepository) SafetySummary {
	if repo == nil {
		return nil
	}
	return &safetySummaryService{repo: repo, now: time.Now}
}

func (s *safetySummaryService) Summary(ctx context.Context, window time.Duration) (dto.SafetySummaryResponse, error) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	since := s.now().Add(-window).UTC()
	counts, err := s.repo.CountByCategory(ctx, since)
	if err != nil {
		return dto.SafetySummaryResponse{}, err
	}
	return dto.SafetySummaryResponse{Since: since, Counts: counts}, nil
}
