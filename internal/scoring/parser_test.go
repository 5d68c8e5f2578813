package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ieltsgenai/prep-api/internal/models"
	"github.com/ieltsgenai/prep-api/internal/rubric"
)

func writingRubric(t *testing.T) models.Rubric {
	t.Helper()
	r, err := rubric.NewStaticSource().Lookup(models.AcademicWriting)
	require.NoError(t, err)
	return r
}

func TestParseResponseFullResponse(t *testing.T) {
	text := `OVERALL_SCORE: 7
TASK_ACHIEVEMENT: 7 - Clear position developed throughout.
COHERENCE_COHESION: 6.5 - Paragraphing is logical but linking is mechanical.
LEXICAL_RESOURCE: 7 - Good range of less common vocabulary.
GRAMMATICAL_RANGE: 6.5 - Complex sentences with occasional errors.
DETAILED_FEEDBACK: A strong essay overall.
Focus on varying your cohesive devices.`

	result, err := ParseResponse(text, writingRubric(t))
	require.NoError(t, err)
	require.False(t, result.ParseDegraded)
	require.True(t, result.OverallDeclared)
	require.Equal(t, 7.0, result.OverallBand)
	require.Len(t, result.Criteria, 4)

	band, ok := result.Band(rubric.KeyCoherenceCohesion)
	require.True(t, ok)
	require.Equal(t, 6.5, band)
	require.Equal(t, "Clear position developed throughout.", result.Criteria[0].Feedback)
	require.Equal(t, "Task Achievement / Task Response", result.Criteria[0].Name)
	require.Equal(t, "A strong essay overall.\nFocus on varying your cohesive devices.", result.DetailedFeedback)
	require.True(t, result.Valid())
}

func TestParseResponseMissingCriterionDefaultsToZero(t *testing.T) {
	text := `TASK_ACHIEVEMENT: 6
COHERENCE_COHESION: 6
GRAMMATICAL_RANGE: 6
DETAILED_FEEDBACK: Work on vocabulary.`

	result, err := ParseResponse(text, writingRubric(t))
	require.NoError(t, err)
	require.True(t, result.ParseDegraded)

	band, ok := result.Band(rubric.KeyLexicalResource)
	require.True(t, ok)
	require.Equal(t, 0.0, band)
	require.False(t, result.OverallDeclared)
	require.Equal(t, 4.5, result.OverallBand)
}

func TestParseResponseUnparseable(t *testing.T) {
	result, err := ParseResponse("I'm sorry, I cannot help with that request.", writingRubric(t))

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	require.True(t, result.ParseDegraded)
	require.Len(t, result.Criteria, 4)
	for _, criterion := range result.Criteria {
		require.Equal(t, 0.0, criterion.Band)
	}
	require.Equal(t, 0.0, result.OverallBand)
	require.Empty(t, result.DetailedFeedback)
}

func TestParseResponseToleratesMarkdown(t *testing.T) {
	text := `## Assessment
**Overall Band**: 6.5
- **Task Response**: 6/9 - Addresses the prompt partially.
- **Coherence & Cohesion:** 7
* Lexical Resource: Band 6.3
* Grammatical Range and Accuracy: 11`

	result, err := ParseResponse(text, writingRubric(t))
	require.NoError(t, err)
	require.False(t, result.ParseDegraded)
	require.Equal(t, 6.5, result.OverallBand)

	expected := map[string]float64{
		rubric.KeyTaskAchievement:   6,
		rubric.KeyCoherenceCohesion: 7,
		rubric.KeyLexicalResource:   6.5,
		rubric.KeyGrammaticalRange:  9,
	}
	for key, want := range expected {
		got, ok := result.Band(key)
		require.True(t, ok)
		require.Equal(t, want, got, key)
	}
	require.Equal(t, "Addresses the prompt partially.", result.Criteria[0].Feedback)
}

func TestParseResponseFirstLabelWins(t *testing.T) {
	text := `TASK_ACHIEVEMENT: 5
COHERENCE_COHESION: 5
LEXICAL_RESOURCE: 5
GRAMMATICAL_RANGE: 5
DETAILED_FEEDBACK: Keep practising.
Grammar: your tenses drift between past and present.
TASK_ACHIEVEMENT: 9`

	result, err := ParseResponse(text, writingRubric(t))
	require.NoError(t, err)

	band, _ := result.Band(rubric.KeyTaskAchievement)
	require.Equal(t, 5.0, band)
	require.Equal(t, 5.0, result.OverallBand)
	require.Contains(t, result.DetailedFeedback, "Grammar: your tenses drift")
}

func TestParseResponseFeedbackProseDoesNotScoreMissingCriterion(t *testing.T) {
	text := `OVERALL_SCORE: 7
TASK_ACHIEVEMENT: 7
COHERENCE_COHESION: 6.5
GRAMMATICAL_RANGE: 6.5
DETAILED_FEEDBACK: Good essay.
Lexical resource: try 2 or 3 less common collocations.`

	result, err := ParseResponse(text, writingRubric(t))
	require.NoError(t, err)
	require.True(t, result.ParseDegraded)

	band, ok := result.Band(rubric.KeyLexicalResource)
	require.True(t, ok)
	require.Zero(t, band)
	require.Equal(t, "Good essay.\nLexical resource: try 2 or 3 less common collocations.", result.DetailedFeedback)
}

func TestParseResponseCanonicalLabelAfterFeedbackStillScores(t *testing.T) {
	text := `TASK_ACHIEVEMENT: 6
DETAILED_FEEDBACK: Organise ideas into clear paragraphs.
COHERENCE_COHESION: 6
LEXICAL_RESOURCE: 6
GRAMMATICAL_RANGE: 6`

	result, err := ParseResponse(text, writingRubric(t))
	require.NoError(t, err)
	require.False(t, result.ParseDegraded)
	require.Equal(t, 6.0, result.OverallBand)
	require.Equal(t, "Organise ideas into clear paragraphs.", result.DetailedFeedback)
}

func TestParseResponseSpeakingRubric(t *testing.T) {
	r, err := rubric.NewStaticSource().Lookup(models.AcademicSpeaking)
	require.NoError(t, err)

	text := `FLUENCY_COHERENCE: 6
LEXICAL_RESOURCE: 6.5
GRAMMATICAL_RANGE: 6
PRONUNCIATION: 7`

	result, err := ParseResponse(text, r)
	require.NoError(t, err)
	require.False(t, result.ParseDegraded)
	require.Equal(t, 6.5, result.OverallBand)
	require.Equal(t, models.AcademicSpeaking, result.AssessmentType)
}

func TestParseResponseIsDeterministic(t *testing.T) {
	r := writingRubric(t)
	text := "TASK_ACHIEVEMENT: 6\nLEXICAL_RESOURCE: 7\nDETAILED_FEEDBACK: ok"

	first, err1 := ParseResponse(text, r)
	second, err2 := ParseResponse(text, r)
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.Equal(t, first, second)
}
