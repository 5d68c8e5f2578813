package models

import (
	"time"

	"gorm.io/datatypes"
)

// AssessmentRecord persists a scored submission for later retrieval.
// The submission text itself is not stored, only its digest.
type AssessmentRecord struct {
	ID               string         `gorm:"primaryKey;size:36" json:"id"`
	UserID           uint           `gorm:"index" json:"user_id"`
	AssessmentType   AssessmentType `gorm:"size:32;index;not null" json:"assessment_type"`
	TaskNumber       int            `json:"task_number"`
	WordCount        int            `json:"word_count"`
	TextDigest       string         `gorm:"size:64;index" json:"text_digest"`
	OverallBand      float64        `gorm:"not null" json:"overall_band"`
	OverallDeclared  bool           `json:"overall_declared"`
	Criteria         datatypes.JSON `json:"criteria"`
	DetailedFeedback string         `gorm:"type:text" json:"detailed_feedback"`
	ModelUsed        string         `gorm:"size:128" json:"model_used"`
	ParseDegraded    bool           `json:"parse_degraded"`
	CreatedAt        time.Time      `json:"created_at"`
}

// SafetyAuditEvent records one safety check for compliance review.
type SafetyAuditEvent struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	CorrelationID string            `gorm:"size:64;index" json:"correlation_id"`
	Stage         SafetyStage       `gorm:"size:16;not null" json:"stage"`
	Context       AssessmentContext `gorm:"size:32;not null" json:"assessment_context"`
	Category      SafetyCategory    `gorm:"size:48;index;not null" json:"category"`
	Outcome       string            `gorm:"size:16;not null" json:"outcome"`
	Confidence    float64           `json:"confidence"`
	Excerpt       string            `gorm:"type:text" json:"excerpt"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt     time.Time         `gorm:"index" json:"created_at"`
}
