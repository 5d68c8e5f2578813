package models

// SafetyCategory names the class of problem a safety check detected.
type SafetyCategory string

const (
	CategoryNone                       SafetyCategory = "none"
	CategoryInappropriateContent       SafetyCategory = "inappropriate_content"
	CategoryAssessmentManipulation     SafetyCategory = "assessment_manipulation"
	CategorySystemManipulation         SafetyCategory = "system_manipulation"
	CategoryEducationalAppropriateness SafetyCategory = "educational_appropriateness"
	CategoryLengthExceeded             SafetyCategory = "length_exceeded"
)

// Severity orders categories when several checks fire on the same text.
func (c SafetyCategory) Severity() int {
	switch c {
	case CategoryLengthExceeded:
		return 5
	case CategorySystemManipulation:
		return 4
	case CategoryAssessmentManipulation:
		return 3
	case CategoryInappropriateContent:
		return 2
	case CategoryEducationalAppropriateness:
		return 1
	default:
		return 0
	}
}

// SafetyStage tells whether text was checked on its way in or out.
type SafetyStage string

const (
	StageInput  SafetyStage = "input"
	StageOutput SafetyStage = "output"
)

// SafetyReport is the immutable result of one validation call.
type SafetyReport struct {
	IsSafe        bool              `json:"is_safe"`
	SanitizedText string            `json:"sanitized_text"`
	Category      SafetyCategory    `json:"matched_category"`
	Confidence    float64           `json:"confidence"`
	Stage         SafetyStage       `json:"stage"`
	Context       AssessmentContext `json:"assessment_context"`
	Sanitized     bool              `json:"sanitized"`
	Signals       []string          `json:"signals,omitempty"`
}
