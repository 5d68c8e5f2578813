package dto

import (
	"time"

	"github.com/ieltsgenai/prep-api/internal/models"
)

// AssessmentRequest is the payload for scoring one writing task or speaking transcript.
type AssessmentRequest struct {
	AssessmentType string `json:"assessment_type" validate:"required,oneof=academic_writing general_writing academic_speaking general_speaking"`
	TaskNumber     int    `json:"task_number" validate:"gte=0,lte=3"`
	Text           string `json:"text" validate:"required"`
	UserID         uint   `json:"-"`
}

// WritingTasksRequest scores both tasks of one writing test.
type WritingTasksRequest struct {
	AssessmentType string `json:"assessment_type" validate:"required,oneof=academic_writing general_writing"`
	Task1Text      string `json:"task1_text" validate:"required"`
	Task2Text      string `json:"task2_text" validate:"required"`
	UserID         uint   `json:"-"`
}

// CriterionScoreResponse is one criterion band with its feedback.
type CriterionScoreResponse struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Band     float64 `json:"band"`
	Feedback string  `json:"feedback,omitempty"`
}

// AssessmentResponse is returned for every scored submission.
type AssessmentResponse struct {
	ID                string                   `json:"id"`
	AssessmentType    models.AssessmentType    `json:"assessment_type"`
	TaskNumber        int                      `json:"task_number"`
	WordCount         int                      `json:"word_count"`
	OverallBand       float64                  `json:"overall_band"`
	OverallDeclared   bool                     `json:"overall_declared"`
	Criteria          []CriterionScoreResponse `json:"criteria"`
	DetailedFeedback  string                   `json:"detailed_feedback"`
	ModelUsed         string                   `json:"model_used"`
	ParseDegraded     bool                     `json:"parse_degraded"`
	InputSanitized    bool                     `json:"input_sanitized"`
	FeedbackSanitized bool                     `json:"feedback_sanitized"`
	CacheHit          bool                     `json:"cache_hit"`
	CreatedAt         time.Time                `json:"created_at"`
}

// WritingTasksResponse combines both writing tasks with Task 2 double weighted.
type WritingTasksResponse struct {
	Task1       AssessmentResponse `json:"task1"`
	Task2       AssessmentResponse `json:"task2"`
	OverallBand float64            `json:"overall_band"`
}

// SafetyCheckRequest runs the content safety validator on demand.
type SafetyCheckRequest struct {
	Text    string `json:"text" validate:"required"`
	Context string `json:"context" validate:"required"`
	Stage   string `json:"stage" validate:"omitempty,oneof=input output"`
}

// SafetyCheckResponse mirrors the validator report.
type SafetyCheckResponse struct {
	IsSafe        bool                     `json:"is_safe"`
	SanitizedText string                   `json:"sanitized_text"`
	Category      models.SafetyCategory    `json:"matched_category"`
	Confidence    float64                  `json:"confidence"`
	Stage         models.SafetyStage       `json:"stage"`
	Context       models.AssessmentContext `json:"assessment_context"`
	Sanitized     bool                     `json:"sanitized"`
	Signals       []string                 `json:"signals"`
}

// SafetySummaryResponse counts safety outcomes per category over a window.
type SafetySummaryResponse struct {
	Since  time.Time                       `json:"since"`
	Counts map[models.SafetyCategory]int64 `json:"counts"`
}

// ContentRejectedDetails is attached to 422 responses.
type ContentRejectedDetails struct {
	Category   models.SafetyCategory `json:"matched_category"`
	Stage      models.SafetyStage    `json:"stage"`
	Confidence float64               `json:"confidence"`
}

// RubricCriterionResponse describes one rubric criterion.
type RubricCriterionResponse struct {
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	Weight      float64        `json:"weight"`
	Descriptors map[int]string `json:"descriptors,omitempty"`
}

// RubricResponse describes a rubric without its system prompt.
type RubricResponse struct {
	AssessmentType models.AssessmentType     `json:"assessment_type"`
	Version        string                    `json:"version"`
	Name           string                    `json:"name"`
	Criteria       []RubricCriterionResponse `json:"criteria"`
}
