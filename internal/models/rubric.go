package models

import (
	"fmt"
	"math"
	"strings"
)

// Band bounds.
const (
	MinBand = 0
	MaxBand = 9
)

// Criterion is one graded dimension of a rubric.
type Criterion struct {
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	Weight      float64        `json:"weight"`
	Descriptors map[int]string `json:"descriptors"`
}

// Rubric holds the criteria and prompt template for one assessment type.
// Rubrics are built once at start-up and never mutated.
type Rubric struct {
	Type               AssessmentType `json:"assessment_type"`
	Version            string         `json:"version"`
	Name               string         `json:"name"`
	Criteria           []Criterion    `json:"criteria"`
	SystemPrompt       string         `json:"system_prompt"`
	DefaultExpectation float64        `json:"default_expectation"`
}

// Validate checks the structural invariants of a rubric.
func (r Rubric) Validate() error {
	if _, ok := ParseAssessmentType(string(r.Type)); !ok {
		return fmt.Errorf("rubric has unknown assessment type %q", r.Type)
	}
	if len(r.Criteria) == 0 {
		return fmt.Errorf("rubric %s has no criteria", r.Type)
	}
	if strings.TrimSpace(r.SystemPrompt) == "" {
		return fmt.Errorf("rubric %s has no system prompt", r.Type)
	}
	if r.DefaultExpectation < MinBand || r.DefaultExpectation > MaxBand {
		return fmt.Errorf("rubric %s default expectation %.1f out of range", r.Type, r.DefaultExpectation)
	}

	seen := make(map[string]struct{}, len(r.Criteria))
	total := 0.0
	for _, criterion := range r.Criteria {
		key := strings.TrimSpace(criterion.Key)
		if key == "" {
			return fmt.Errorf("rubric %s has a criterion without key", r.Type)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("rubric %s repeats criterion %s", r.Type, key)
		}
		seen[key] = struct{}{}

		if criterion.Weight <= 0 {
			return fmt.Errorf("rubric %s criterion %s has non-positive weight", r.Type, key)
		}
		total += criterion.Weight

		for band := MinBand; band <= MaxBand; band++ {
			if strings.TrimSpace(criterion.Descriptors[band]) == "" {
				return fmt.Errorf("rubric %s criterion %s is missing band %d descriptor", r.Type, key, band)
			}
		}
	}

	if math.Abs(total-1) > 1e-6 {
		return fmt.Errorf("rubric %s weights sum to %.4f, want 1", r.Type, total)
	}
	return nil
}

// CriterionKeys returns the criterion labels in rubric order.
func (r Rubric) CriterionKeys() []string {
	keys := make([]string, len(r.Criteria))
	for i, criterion := range r.Criteria {
		keys[i] = criterion.Key
	}
	return keys
}
