package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AssessmentType identifies one of the four IELTS assessment modules.
type AssessmentType string

const (
	AcademicWriting  AssessmentType = "academic_writing"
	GeneralWriting   AssessmentType = "general_writing"
	AcademicSpeaking AssessmentType = "academic_speaking"
	GeneralSpeaking  AssessmentType = "general_speaking"
)

// Skill groups assessment types by the paper they belong to.
type Skill string

const (
	SkillWriting  Skill = "writing"
	SkillSpeaking Skill = "speaking"
)

// AssessmentTypes lists every supported assessment type in display order.
var AssessmentTypes = []AssessmentType{AcademicWriting, GeneralWriting, AcademicSpeaking, GeneralSpeaking}

// ParseAssessmentType normalises user input into an AssessmentType.
func ParseAssessmentType(value string) (AssessmentType, bool) {
	normalized := AssessmentType(strings.ToLower(strings.TrimSpace(value)))
	for _, t := range AssessmentTypes {
		if t == normalized {
			return t, true
		}
	}
	return "", false
}

// Skill reports whether the assessment is a writing or speaking paper.
func (t AssessmentType) Skill() Skill {
	if strings.HasSuffix(string(t), "_speaking") {
		return SkillSpeaking
	}
	return SkillWriting
}

// Module returns "academic" or "general".
func (t AssessmentType) Module() string {
	module, _, _ := strings.Cut(string(t), "_")
	return module
}

// AssessmentContext scopes safety checks. It is either an assessment type or
// the free-form examiner conversation used in speaking practice.
type AssessmentContext string

// ContextExaminerConversation is the speaking examiner chat context.
const ContextExaminerConversation AssessmentContext = "examiner_conversation"

// ParseAssessmentContext accepts any assessment type or the examiner conversation context.
func ParseAssessmentContext(value string) (AssessmentContext, bool) {
	if t, ok := ParseAssessmentType(value); ok {
		return AssessmentContext(t), true
	}
	if AssessmentContext(strings.ToLower(strings.TrimSpace(value))) == ContextExaminerConversation {
		return ContextExaminerConversation, true
	}
	return "", false
}

// Speaking reports whether the context concerns spoken language.
func (c AssessmentContext) Speaking() bool {
	return c == ContextExaminerConversation || AssessmentType(c).Skill() == SkillSpeaking
}

// Submission is a single essay or transcript handed to the scorer.
type Submission struct {
	ID         string         `json:"submission_id"`
	Type       AssessmentType `json:"assessment_type"`
	TaskNumber int            `json:"task_number,omitempty"`
	Text       string         `json:"-"`
	WordCount  int            `json:"word_count"`
}

// NewSubmission builds a submission with a fresh identifier and word count.
func NewSubmission(t AssessmentType, taskNumber int, text string) (Submission, error) {
	if err := ValidateTaskNumber(t, taskNumber); err != nil {
		return Submission{}, err
	}
	return Submission{
		ID:         uuid.NewString(),
		Type:       t,
		TaskNumber: taskNumber,
		Text:       text,
		WordCount:  CountWords(text),
	}, nil
}

// ValidateTaskNumber enforces task 1 or 2 for writing and parts 0-3 for speaking,
// where 0 means a full speaking test.
func ValidateTaskNumber(t AssessmentType, taskNumber int) error {
	switch t.Skill() {
	case SkillWriting:
		if taskNumber != 1 && taskNumber != 2 {
			return fmt.Errorf("writing task number must be 1 or 2, got %d", taskNumber)
		}
	case SkillSpeaking:
		if taskNumber < 0 || taskNumber > 3 {
			return fmt.Errorf("speaking part must be between 0 and 3, got %d", taskNumber)
		}
	}
	return nil
}

// MinimumWords returns the IELTS minimum word count for a writing task.
func MinimumWords(t AssessmentType, taskNumber int) int {
	if t.Skill() != SkillWriting {
		return 0
	}
	if taskNumber == 1 {
		return 150
	}
	return 250
}

// CountWords counts whitespace separated tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
