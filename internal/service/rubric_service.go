package service

import (
	"fmt"

	"github.com/ieltsgenai/prep-api/internal/dto"
	"github.com/ieltsgenai/prep-api/internal/models"
	"github.com/ieltsgenai/prep-api/internal/rubric"
	"github.com/ieltsgenai/prep-api/internal/scoring"
)

// RubricService exposes the rubric table without the model prompts.
type RubricService interface {
	List() []dto.RubricResponse
	Get(assessmentType string) (dto.RubricResponse, error)
}

type rubricService struct {
	source rubric.Source
}

// NewRubricService wraps a rubric source.
func NewRubricService(source rubric.Source) RubricService {
	return &rubricService{source: source}
}

func (s *rubricService) List() []dto.RubricResponse {
	types := s.source.Types()
	responses := make([]dto.RubricResponse, 0, len(types))
	for _, t := range types {
		r, err := s.source.Lookup(t)
		if err != nil {
			continue
		}
		responses = append(responses, toRubricResponse(r, false))
	}
	return responses
}

func (s *rubricService) Get(assessmentType string) (dto.RubricResponse, error) {
	t, ok := models.ParseAssessmentType(assessmentType)
	if !ok {
		return dto.RubricResponse{}, fmt.Errorf("%w: %q", scoring.ErrInvalidRubric, assessmentType)
	}
	r, err := s.source.Lookup(t)
	if err != nil {
		return dto.RubricResponse{}, fmt.Errorf("%w: %v", scoring.ErrInvalidRubric, err)
	}
	return toRubricResponse(r, true), nil
}

func toRubricResponse(r models.Rubric, withDescriptors bool) dto.RubricResponse {
	criteria := make([]dto.RubricCriterionResponse, 0, len(r.Criteria))
	for _, criterion := range r.Criteria {
		item := dto.RubricCriterionResponse{Key: criterion.Key, Name: criterion.Name, Weight: criterion.Weight}
		if withDescriptors {
			item.Descriptors = criterion.Descriptors
		}
		criteria = append(criteria, item)
	}
	return dto.RubricResponse{
		AssessmentType: r.Type,
		Version:        r.Version,
		Name:           r.Name,
		Criteria:       criteria,
	}
}
