package safety

import (
	"context"
	"html"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/ieltsgenai/prep-api/internal/models"
	"github.com/ieltsgenai/prep-api/internal/observability"
)

// Config bounds the text accepted at each stage.
type Config struct {
	MaxInputChars  int
	MaxOutputChars int
}

// DefaultConfig returns limits that comfortably fit a full writing test or speaking transcript.
func DefaultConfig() Config {
	return Config{MaxInputChars: 20000, MaxOutputChars: 8000}
}

const (
	sanitizedConfidence = 0.8
	paddingMinWords     = 20
	paddingShare        = 0.5
	offTopicMinWords    = 30
)

// Validator gates text crossing the user/model trust boundary.
// Checks are pure pattern evaluations; the only side effect is the audit record.
type Validator struct {
	cfg    Config
	sink   AuditSink
	markup *bluemonday.Policy
	logger zerolog.Logger
	now    func() time.Time
}

// NewValidator builds a validator. A nil sink discards audit events.
func NewValidator(cfg Config, sink AuditSink, logger zerolog.Logger) *Validator {
	defaults := DefaultConfig()
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = defaults.MaxInputChars
	}
	if cfg.MaxOutputChars <= 0 {
		cfg.MaxOutputChars = defaults.MaxOutputChars
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &Validator{
		cfg:    cfg,
		sink:   sink,
		markup: bluemonday.StrictPolicy(),
		logger: logger.With().Str("component", "safety_validator").Logger(),
		now:    time.Now,
	}
}

type finding struct {
	signal   string
	category models.SafetyCategory
	weight   float64
}

type evaluation struct {
	text      string
	sanitized bool
	blocked   []finding
	signals   []string
}

func (e *evaluation) block(f finding) {
	e.blocked = append(e.blocked, f)
	e.signals = append(e.signals, f.signal)
}

func (e *evaluation) rewrite(text, signal string) {
	if text == e.text {
		return
	}
	e.text = text
	e.sanitized = true
	e.signals = append(e.signals, signal)
}

func (e *evaluation) apply(rules []rule) {
	for _, r := range rules {
		if !r.pattern.MatchString(e.text) {
			continue
		}
		switch r.action {
		case actionBlock:
			e.block(finding{signal: r.signal, category: r.category, weight: r.weight})
		case actionRedact:
			e.rewrite(r.pattern.ReplaceAllString(e.text, redaction), r.signal)
		}
	}
}

// ValidateUserInput screens an essay or transcript before it reaches a model.
func (v *Validator) ValidateUserInput(ctx context.Context, text string, assessmentContext models.AssessmentContext) (bool, string, models.SafetyReport) {
	if utf8.RuneCountInString(text) > v.cfg.MaxInputChars {
		return v.finish(ctx, text, models.StageInput, assessmentContext, lengthExceeded(text))
	}

	eval := &evaluation{text: text}
	v.stripMarkup(eval)
	v.applyContentChecks(eval, assessmentContext)

	return v.finish(ctx, text, models.StageInput, assessmentContext, eval)
}

// ValidateModelOutput screens generated feedback before it reaches the candidate.
// It runs every input check, after removing echoed prompt lines, plus off-topic detection.
func (v *Validator) ValidateModelOutput(ctx context.Context, text string, assessmentContext models.AssessmentContext) (bool, string, models.SafetyReport) {
	if utf8.RuneCountInString(text) > v.cfg.MaxOutputChars {
		return v.finish(ctx, text, models.StageOutput, assessmentContext, lengthExceeded(text))
	}

	eval := &evaluation{text: text}
	v.stripMarkup(eval)
	checkPromptLeak(eval)
	v.applyContentChecks(eval, assessmentContext)
	checkOffTopic(eval)

	return v.finish(ctx, text, models.StageOutput, assessmentContext, eval)
}

func (v *Validator) applyContentChecks(eval *evaluation, assessmentContext models.AssessmentContext) {
	eval.apply(inappropriateRules)
	eval.apply(assessmentRules)
	eval.apply(systemRules)
	v.checkEducational(eval, assessmentContext)
}

func lengthExceeded(text string) *evaluation {
	eval := &evaluation{text: text}
	eval.block(finding{signal: "length_exceeded", category: models.CategoryLengthExceeded, weight: 1})
	return eval
}

func (v *Validator) stripMarkup(eval *evaluation) {
	if !strings.Contains(eval.text, "<") {
		return
	}
	cleaned := html.UnescapeString(v.markup.Sanitize(eval.text))
	eval.rewrite(cleaned, "markup_stripped")
}

func (v *Validator) checkEducational(eval *evaluation, assessmentContext models.AssessmentContext) {
	eval.apply([]rule{urlRule})

	if strings.TrimSpace(eval.text) != "" && !containsLetter(eval.text) {
		eval.block(finding{signal: "no_language_content", category: models.CategoryEducationalAppropriateness, weight: 0.9})
	}
	if isPadded(eval.text) {
		eval.block(finding{signal: "repetitive_padding", category: models.CategoryEducationalAppropriateness, weight: 0.7})
	}
	if !assessmentContext.Speaking() && codeFencePattern.MatchString(eval.text) {
		eval.block(finding{signal: "code_block", category: models.CategoryEducationalAppropriateness, weight: 0.6})
	}
}

func checkPromptLeak(eval *evaluation) {
	if !promptLeakPattern.MatchString(eval.text) {
		return
	}
	lines := strings.Split(eval.text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !promptLeakPattern.MatchString(line) {
			kept = append(kept, line)
		}
	}
	eval.rewrite(strings.Join(kept, "\n"), "prompt_leak_redacted")
	if strings.TrimSpace(eval.text) == "" {
		eval.block(finding{signal: "prompt_leak", category: models.CategorySystemManipulation, weight: 0.9})
	}
}

func checkOffTopic(eval *evaluation) {
	if len(strings.Fields(eval.text)) < offTopicMinWords {
		return
	}
	if !assessmentVocabulary.MatchString(eval.text) {
		eval.block(finding{signal: "off_topic_feedback", category: models.CategoryEducationalAppropriateness, weight: 0.6})
	}
}

func containsLetter(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// isPadded reports whether a single word makes up most of a longer text.
func isPadded(text string) bool {
	words := strings.Fields(strings.ToLower(text))
	if len(words) < paddingMinWords {
		return false
	}
	counts := make(map[string]int, len(words))
	for _, word := range words {
		word = strings.TrimFunc(word, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if word == "" {
			continue
		}
		counts[word]++
		if float64(counts[word]) > float64(len(words))*paddingShare {
			return true
		}
	}
	return false
}

func (v *Validator) finish(ctx context.Context, original string, stage models.SafetyStage, assessmentContext models.AssessmentContext, eval *evaluation) (bool, string, models.SafetyReport) {
	report := models.SafetyReport{
		IsSafe:        len(eval.blocked) == 0,
		SanitizedText: eval.text,
		Category:      models.CategoryNone,
		Confidence:    1,
		Stage:         stage,
		Context:       assessmentContext,
		Sanitized:     eval.sanitized,
		Signals:       eval.signals,
	}

	outcome := OutcomePassed
	switch {
	case !report.IsSafe:
		worst := mostSevere(eval.blocked)
		report.Category = worst.category
		report.Confidence = worst.weight
		report.SanitizedText = ""
		outcome = OutcomeRejected
	case eval.sanitized:
		report.Confidence = sanitizedConfidence
		outcome = OutcomeSanitized
	}

	observability.SafetyChecks().WithLabelValues(string(stage), string(report.Category), outcome).Inc()

	event := AuditEvent{
		Timestamp:     v.now().UTC(),
		CorrelationID: CorrelationID(ctx),
		Stage:         stage,
		Context:       assessmentContext,
		Category:      report.Category,
		Outcome:       outcome,
		Confidence:    report.Confidence,
		Excerpt:       Excerpt(ScrubPII(original), excerptLimit),
		Signals:       eval.signals,
	}
	if err := v.sink.Record(ctx, event); err != nil {
		v.logger.Error().Err(err).Str("stage", string(stage)).Msg("failed to record safety audit event")
	}

	return report.IsSafe, report.SanitizedText, report
}

// mostSevere picks the highest-severity finding, preferring the higher weight on ties.
func mostSevere(findings []finding) finding {
	worst := findings[0]
	for _, f := range findings[1:] {
		switch {
		case f.category.Severity() > worst.category.Severity():
			worst = f
		case f.category == worst.category && f.weight > worst.weight:
			worst = f
		}
	}
	return worst
}
