package models

import "math"

// CriterionScore is the band awarded for one rubric criterion.
type CriterionScore struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Band     float64 `json:"band"`
	Feedback string  `json:"feedback,omitempty"`
}

// ScoreResult is the structured outcome of scoring one submission.
type ScoreResult struct {
	AssessmentType   AssessmentType   `json:"assessment_type"`
	TaskNumber       int              `json:"task_number,omitempty"`
	Criteria         []CriterionScore `json:"criteria"`
	OverallBand      float64          `json:"overall_band"`
	OverallDeclared  bool             `json:"overall_declared"`
	DetailedFeedback string           `json:"detailed_feedback"`
	ModelUsed        string           `json:"model_used"`
	ParseDegraded    bool             `json:"parse_degraded"`
}

// Band returns the band for a criterion key and whether it exists.
func (r ScoreResult) Band(key string) (float64, bool) {
	for _, criterion := range r.Criteria {
		if criterion.Key == key {
			return criterion.Band, true
		}
	}
	return 0, false
}

// Valid reports whether every band lies in [0, 9] on a half-band step.
func (r ScoreResult) Valid() bool {
	if !IsHalfBand(r.OverallBand) {
		return false
	}
	for _, criterion := range r.Criteria {
		if !IsHalfBand(criterion.Band) {
			return false
		}
	}
	return true
}

// IsHalfBand reports whether v is a legal IELTS band.
func IsHalfBand(v float64) bool {
	if v < MinBand || v > MaxBand {
		return false
	}
	return v*2 == math.Trunc(v*2)
}
