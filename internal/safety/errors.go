package safety

import (
	"errors"
	"fmt"

	"github.com/ieltsgenai/prep-api/internal/models"
)

// ErrContentRejected indicates the validator flagged text as unsafe.
var ErrContentRejected = errors.New("content rejected")

// RejectedError carries the report behind a rejection so callers can surface the category.
type RejectedError struct {
	Report models.SafetyReport
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("content rejected at %s stage: %s", e.Report.Stage, e.Report.Category)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrContentRejected
}

// Reject wraps an unsafe report into an error.
func Reject(report models.SafetyReport) error {
	return &RejectedError{Report: report}
}

// RejectedReport extracts the report from a rejection error.
func RejectedReport(err error) (models.SafetyReport, bool) {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Report, true
	}
	return models.SafetyReport{}, false
}
