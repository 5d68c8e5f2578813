package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ieltsgenai/prep-api/internal/models"
	"github.com/ieltsgenai/prep-api/internal/observability"
	"github.com/ieltsgenai/prep-api/internal/rubric"
	"github.com/ieltsgenai/prep-api/pkg/ai"
)

// ErrInvalidRubric indicates an unknown assessment type or a rubric that cannot be rendered.
var ErrInvalidRubric = errors.New("invalid rubric")

// Options tune model requests.
type Options struct {
	MaxTokens   int
	Temperature float64
	BandWindow  int
}

// DefaultOptions keeps scoring near-deterministic with a bounded output budget.
func DefaultOptions() Options {
	return Options{MaxTokens: 1024, Temperature: 0.1, BandWindow: DefaultBandWindow}
}

// ChainSet holds one fallback chain per skill.
type ChainSet struct {
	Writing  Chain
	Speaking Chain
}

func (c ChainSet) forSkill(skill models.Skill) Chain {
	if skill == models.SkillSpeaking {
		return c.Speaking
	}
	return c.Writing
}

// Scorer produces ScoreResults from submissions.
type Scorer struct {
	rubrics rubric.Source
	chains  ChainSet
	opts    Options
	logger  zerolog.Logger
}

// NewScorer wires a scorer. Zero option fields fall back to DefaultOptions.
func NewScorer(rubrics rubric.Source, chains ChainSet, opts Options, logger zerolog.Logger) *Scorer {
	defaults := DefaultOptions()
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaults.MaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = defaults.Temperature
	}
	if opts.BandWindow <= 0 {
		opts.BandWindow = defaults.BandWindow
	}
	return &Scorer{
		rubrics: rubrics,
		chains:  chains,
		opts:    opts,
		logger:  logger.With().Str("component", "assessment_scorer").Logger(),
	}
}

// Models lists the model ids tried, in order, when scoring the given assessment type.
func (s *Scorer) Models(t models.AssessmentType) []string {
	return s.chains.forSkill(t.Skill()).Models()
}

// Rubric resolves the rubric for an assessment type.
func (s *Scorer) Rubric(t models.AssessmentType) (models.Rubric, error) {
	r, err := s.rubrics.Lookup(t)
	if err != nil {
		if errors.Is(err, rubric.ErrUnknownType) {
			return models.Rubric{}, fmt.Errorf("%w: %v", ErrInvalidRubric, err)
		}
		return models.Rubric{}, err
	}
	return r, nil
}

// Score builds the prompt, walks the fallback chain and parses the winning
// completion. An unparseable completion yields a zero-filled degraded result
// instead of an error.
func (s *Scorer) Score(ctx context.Context, submission models.Submission, r models.Rubric) (models.ScoreResult, error) {
	if r.Type != submission.Type {
		return models.ScoreResult{}, fmt.Errorf("%w: rubric %s does not match submission %s", ErrInvalidRubric, r.Type, submission.Type)
	}
	if err := r.Validate(); err != nil {
		return models.ScoreResult{}, fmt.Errorf("%w: %v", ErrInvalidRubric, err)
	}

	prompt, err := BuildPrompt(r, submission, s.opts.BandWindow)
	if err != nil {
		return models.ScoreResult{}, err
	}

	logger := s.logger.With().
		Str("submission_id", submission.ID).
		Str("assessment_type", string(submission.Type)).
		Int("task_number", submission.TaskNumber).
		Logger()

	outcome, err := s.chains.forSkill(submission.Type.Skill()).Run(ctx, ai.Request{
		SystemPrompt: prompt.System,
		UserContent:  prompt.User,
		MaxTokens:    s.opts.MaxTokens,
		Temperature:  s.opts.Temperature,
	}, logger)
	if err != nil {
		observability.ScoringResults().WithLabelValues(string(submission.Type), "unavailable").Inc()
		logger.Error().Err(err).Int("attempts", len(outcome.Attempts)).Msg("fallback chain exhausted")
		return models.ScoreResult{}, err
	}

	result, parseErr := ParseResponse(outcome.Response.Text, r)
	result.TaskNumber = submission.TaskNumber
	result.ModelUsed = outcome.Model

	label := "scored"
	if result.ParseDegraded {
		label = "degraded"
	}
	observability.ScoringResults().WithLabelValues(string(submission.Type), label).Inc()

	event := logger.Info()
	if parseErr != nil || result.ParseDegraded {
		event = logger.Warn().AnErr("parse_error", parseErr)
	}
	event.
		Str("model_used", result.ModelUsed).
		Str("state", outcome.State.String()).
		Float64("overall_band", result.OverallBand).
		Bool("parse_degraded", result.ParseDegraded).
		Msg("submission scored")

	return result, nil
}
