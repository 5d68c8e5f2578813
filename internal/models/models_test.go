package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAssessmentType(t *testing.T) {
	got, ok := ParseAssessmentType("  Academic_Writing ")
	require.True(t, ok)
	require.Equal(t, AcademicWriting, got)
	require.Equal(t, SkillWriting, got.Skill())
	require.Equal(t, "academic", got.Module())

	_, ok = ParseAssessmentType("academic_reading")
	require.False(t, ok)
}

func TestParseAssessmentContext(t *testing.T) {
	ctx, ok := ParseAssessmentContext("examiner_conversation")
	require.True(t, ok)
	require.True(t, ctx.Speaking())

	ctx, ok = ParseAssessmentContext("general_writing")
	require.True(t, ok)
	require.False(t, ctx.Speaking())
}

func TestNewSubmissionValidatesTaskNumber(t *testing.T) {
	_, err := NewSubmission(AcademicWriting, 3, "text")
	require.Error(t, err)

	sub, err := NewSubmission(GeneralSpeaking, 0, "well I think that")
	require.NoError(t, err)
	require.Equal(t, 4, sub.WordCount)
	require.NotEmpty(t, sub.ID)
}

func TestIsHalfBand(t *testing.T) {
	require.True(t, IsHalfBand(0))
	require.True(t, IsHalfBand(6.5))
	require.True(t, IsHalfBand(9))
	require.False(t, IsHalfBand(6.25))
	require.False(t, IsHalfBand(9.5))
	require.False(t, IsHalfBand(-0.5))
}

func TestRubricValidateWeights(t *testing.T) {
	descriptors := map[int]string{}
	for band := MinBand; band <= MaxBand; band++ {
		descriptors[band] = "descriptor"
	}
	rubric := Rubric{
		Type:               AcademicWriting,
		SystemPrompt:       "prompt",
		DefaultExpectation: 6.5,
		Criteria: []Criterion{
			{Key: "A", Weight: 0.5, Descriptors: descriptors},
			{Key: "B", Weight: 0.4, Descriptors: descriptors},
		},
	}
	require.ErrorContains(t, rubric.Validate(), "weights sum")

	rubric.Criteria[1].Weight = 0.5
	require.NoError(t, rubric.Validate())

	delete(descriptors, 4)
	require.ErrorContains(t, rubric.Validate(), "band 4")
}
