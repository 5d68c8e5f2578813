package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/ieltsgenai/prep-api/internal/models"
)

// Event topics appended to the configured subject base.
const (
	TopicAssessmentScored = "assessments.scored"
	TopicContentRejected  = "safety.rejected"
)

// AssessmentScoredEvent announces a completed assessment. It carries no submission text.
type AssessmentScoredEvent struct {
	Source         string                `json:"source"`
	AssessmentID   string                `json:"assessment_id"`
	UserID         uint                  `json:"user_id,omitempty"`
	AssessmentType models.AssessmentType `json:"assessment_type"`
	TaskNumber     int                   `json:"task_number"`
	OverallBand    float64               `json:"overall_band"`
	ModelUsed      string                `json:"model_used"`
	ParseDegraded  bool                  `json:"parse_degraded"`
	ScoredAt       time.Time             `json:"scored_at"`
}

// ContentRejectedEvent announces a safety rejection.
type ContentRejectedEvent struct {
	Source        string                   `json:"source"`
	CorrelationID string                   `json:"correlation_id,omitempty"`
	Stage         models.SafetyStage       `json:"stage"`
	Context       models.AssessmentContext `json:"assessment_context"`
	Category      models.SafetyCategory    `json:"matched_category"`
	Confidence    float64                  `json:"confidence"`
	RejectedAt    time.Time                `json:"rejected_at"`
}

// EventPublisher fans domain events out to subscribers. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event any)
}

type natsEventPublisher struct {
	conn   *nats.Conn
	base   string
	logger zerolog.Logger
}

// NewNATSEventPublisher publishes JSON events on "<base>.<topic>". A nil connection yields a no-op publisher.
func NewNATSEventPublisher(conn *nats.Conn, subjectBase string, logger zerolog.Logger) EventPublisher {
	if conn == nil {
		return nopPublisher{}
	}
	base := strings.Trim(strings.ReplaceAll(strings.TrimSpace(subjectBase), ":", "."), ".")
	if base == "" {
		base = "ielts"
	}
	return &natsEventPublisher{
		conn:   conn,
		base:   base,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

// Subject returns the full subject for a topic.
func (p *natsEventPublisher) Subject(topic string) string {
	return p.base + "." + topic
}

func (p *natsEventPublisher) Publish(_ context.Context, topic string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("topic", topic).Msg("failed to encode event")
		return
	}
	msg := nats.NewMsg(p.Subject(topic))
	msg.Data = payload
	msg.Header.Set("Nats-Msg-Id", uuid.NewString())
	if err := p.conn.PublishMsg(msg); err != nil {
		p.logger.Warn().Err(err).Str("topic", topic).Msg("failed to publish event")
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) {}
