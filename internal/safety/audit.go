package safety

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ieltsgenai/prep-api/internal/models"
)

// Outcome of one safety check.
const (
	OutcomePassed    = "passed"
	OutcomeSanitized = "sanitized"
	OutcomeRejected  = "rejected"
)

const excerptLimit = 200

// AuditEvent is the PII-scrubbed record of a safety check.
type AuditEvent struct {
	Timestamp     time.Time
	CorrelationID string
	Stage         models.SafetyStage
	Context       models.AssessmentContext
	Category      models.SafetyCategory
	Outcome       string
	Confidence    float64
	Excerpt       string
	Signals       []string
}

// AuditSink is a write-only append target for safety events.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent) error
}

type correlationKey struct{}

// WithCorrelationID stores the request correlation id for audit records.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation id stored by WithCorrelationID.
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// LogSink writes audit events as structured log lines.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink builds a LogSink on the given logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "safety_audit").Logger()}
}

func (s *LogSink) Record(_ context.Context, event AuditEvent) error {
	entry := s.logger.Info()
	if event.Outcome == OutcomeRejected {
		entry = s.logger.Warn()
	}
	entry.
		Time("checked_at", event.Timestamp).
		Str("correlation_id", event.CorrelationID).
		Str("stage", string(event.Stage)).
		Str("assessment_context", string(event.Context)).
		Str("category", string(event.Category)).
		Str("outcome", event.Outcome).
		Float64("confidence", event.Confidence).
		Strs("signals", event.Signals).
		Str("excerpt", event.Excerpt).
		Msg("safety check recorded")
	return nil
}

// MultiSink fans an event out to several sinks and joins their errors.
type MultiSink []AuditSink

func (m MultiSink) Record(ctx context.Context, event AuditEvent) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Record(context.Context, AuditEvent) error { return nil }
