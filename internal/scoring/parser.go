package scoring

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ieltsgenai/prep-api/internal/models"
)

const (
	labelOverall  = "OVERALL_SCORE"
	labelFeedback = "DETAILED_FEEDBACK"
)

// ParseError reports a model response with no recognisable labeled lines.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "unparseable model response: " + e.Reason
}

var (
	numberPattern   = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	labelSeparators = strings.NewReplacer(" ", "_", "-", "_", "&", "AND")
	outOfNine       = regexp.MustCompile(`^\s*(/\s*9(\.0)?|out of 9)`)
)

var labelAliases = map[string]string{
	"OVERALL":                         labelOverall,
	"OVERALL_BAND":                    labelOverall,
	"OVERALL_BAND_SCORE":              labelOverall,
	"FEEDBACK":                        labelFeedback,
	"TASK_RESPONSE":                   "TASK_ACHIEVEMENT",
	"COHERENCE_AND_COHESION":          "COHERENCE_COHESION",
	"GRAMMATICAL_RANGE_AND_ACCURACY":  "GRAMMATICAL_RANGE",
	"FLUENCY_AND_COHERENCE":           "FLUENCY_COHERENCE",
	"LEXICAL":                         "LEXICAL_RESOURCE",
	"GRAMMAR":                         "GRAMMATICAL_RANGE",
}

type labeledLine struct {
	label string
	value string
	// canonical is set when the line spells the label exactly, e.g. LEXICAL_RESOURCE.
	canonical bool
}

// ParseResponse turns labeled model output into a ScoreResult. A missing
// criterion scores 0 and marks the result degraded. When no label is
// recognised the zero-filled degraded result is returned with a *ParseError.
func ParseResponse(text string, rubric models.Rubric) (models.ScoreResult, error) {
	known := knownLabels(rubric)

	bands := make(map[string]float64, len(rubric.Criteria))
	feedback := make(map[string]string, len(rubric.Criteria))
	var (
		overall         float64
		overallDeclared bool
		detailed        []string
		inDetailed      bool
		recognised      int
	)

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line, ok := splitLabel(raw, known)
		// Inside the feedback block only canonically spelled labels start a new section.
		if ok && inDetailed && !line.canonical {
			ok = false
		}
		handled := false
		if ok {
			switch line.label {
			case labelFeedback:
				if len(detailed) == 0 {
					detailed = append(detailed, stripDecoration(line.value))
					handled = true
				}
			case labelOverall:
				if value, _, found := firstNumber(line.value); found && !overallDeclared {
					overall = RoundHalfBand(value)
					overallDeclared = true
					handled = true
				}
			default:
				if _, seen := bands[line.label]; !seen {
					if value, rest, found := firstNumber(line.value); found {
						bands[line.label] = RoundHalfBand(value)
						feedback[line.label] = cleanFeedback(rest)
						handled = true
					}
				}
			}
		}

		if handled {
			recognised++
			inDetailed = line.label == labelFeedback
			continue
		}
		if inDetailed {
			detailed = append(detailed, strings.TrimSpace(raw))
		}
	}

	result := models.ScoreResult{
		AssessmentType:   rubric.Type,
		Criteria:         make([]models.CriterionScore, 0, len(rubric.Criteria)),
		DetailedFeedback: strings.TrimSpace(strings.Join(detailed, "\n")),
	}
	for _, criterion := range rubric.Criteria {
		band, ok := bands[criterion.Key]
		if !ok {
			result.ParseDegraded = true
		}
		result.Criteria = append(result.Criteria, models.CriterionScore{
			Key:      criterion.Key,
			Name:     criterion.Name,
			Band:     band,
			Feedback: feedback[criterion.Key],
		})
	}

	if recognised == 0 {
		result.ParseDegraded = true
		result.DetailedFeedback = ""
		return result, &ParseError{Reason: fmt.Sprintf("no labeled lines among %d characters", len(text))}
	}

	if overallDeclared {
		result.OverallBand = overall
		result.OverallDeclared = true
	} else {
		result.OverallBand = WeightedOverall(rubric, result.Criteria)
	}
	return result, nil
}

func knownLabels(rubric models.Rubric) map[string]string {
	known := map[string]string{
		labelOverall:  labelOverall,
		labelFeedback: labelFeedback,
	}
	criteria := make(map[string]struct{}, len(rubric.Criteria))
	for _, criterion := range rubric.Criteria {
		criteria[criterion.Key] = struct{}{}
		known[normalizeLabel(criterion.Key)] = criterion.Key
		if criterion.Name != "" {
			known[normalizeLabel(criterion.Name)] = criterion.Key
		}
	}
	for alias, target := range labelAliases {
		if _, isCriterion := criteria[target]; isCriterion || target == labelOverall || target == labelFeedback {
			if _, taken := known[alias]; !taken {
				known[alias] = target
			}
		}
	}
	return known
}

// splitLabel recognises "LABEL: value" lines, tolerating markdown bullets and emphasis.
func splitLabel(raw string, known map[string]string) (labeledLine, bool) {
	trimmed := strings.TrimLeft(strings.TrimSpace(raw), "*#->•` ")
	label, value, found := strings.Cut(trimmed, ":")
	if !found {
		return labeledLine{}, false
	}
	key, ok := known[normalizeLabel(label)]
	if !ok {
		return labeledLine{}, false
	}
	spelled := strings.Trim(strings.TrimSpace(label), "*` ")
	return labeledLine{label: key, value: value, canonical: spelled == key}, true
}

func normalizeLabel(label string) string {
	label = strings.Trim(strings.TrimSpace(label), "*_` ")
	label = strings.ToUpper(label)
	label = strings.Join(strings.Fields(label), " ")
	label = strings.ReplaceAll(label, " / ", "/")
	return labelSeparators.Replace(label)
}

func firstNumber(value string) (float64, string, bool) {
	loc := numberPattern.FindStringIndex(value)
	if loc == nil {
		return 0, "", false
	}
	parsed, err := strconv.ParseFloat(value[loc[0]:loc[1]], 64)
	if err != nil {
		return 0, "", false
	}
	return parsed, value[loc[1]:], true
}

func cleanFeedback(rest string) string {
	rest = outOfNine.ReplaceAllString(rest, "")
	return strings.TrimSpace(strings.TrimLeft(stripDecoration(rest), "-–—:|.) "))
}

func stripDecoration(value string) string {
	return strings.Trim(strings.TrimSpace(value), "*_`")
}
