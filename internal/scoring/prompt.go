package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"text/template"

	"github.com/ieltsgenai/prep-api/internal/models"
)

// DefaultBandWindow is the number of descriptor bands embedded per criterion.
const DefaultBandWindow = 3

// Prompt is the system/user pair sent to a model.
type Prompt struct {
	System string
	User   string
}

type promptData struct {
	TaskNumber   int
	MinimumWords int
	Module       string
	Criteria     []string
}

// NearestBands returns the window bands closest to expectation in ascending
// order. Ties favour the higher band.
func NearestBands(expectation float64, window int) []int {
	if window <= 0 {
		window = DefaultBandWindow
	}
	if window > models.MaxBand+1 {
		window = models.MaxBand + 1
	}

	bands := make([]int, 0, models.MaxBand+1)
	for band := models.MinBand; band <= models.MaxBand; band++ {
		bands = append(bands, band)
	}
	sort.SliceStable(bands, func(i, j int) bool {
		di := math.Abs(float64(bands[i]) - expectation)
		dj := math.Abs(float64(bands[j]) - expectation)
		if di != dj {
			return di < dj
		}
		return bands[i] > bands[j]
	})

	nearest := append([]int(nil), bands[:window]...)
	sort.Ints(nearest)
	return nearest
}

// BuildPrompt renders the rubric's system template, appends the band
// descriptors nearest the rubric's default expectation and frames the
// submission as user content.
func BuildPrompt(rubric models.Rubric, submission models.Submission, window int) (Prompt, error) {
	tmpl, err := template.New(string(rubric.Type)).Parse(rubric.SystemPrompt)
	if err != nil {
		return Prompt{}, fmt.Errorf("%w: parse system prompt: %v", ErrInvalidRubric, err)
	}

	var system strings.Builder
	data := promptData{
		TaskNumber:   submission.TaskNumber,
		MinimumWords: models.MinimumWords(submission.Type, submission.TaskNumber),
		Module:       rubric.Type.Module(),
		Criteria:     rubric.CriterionKeys(),
	}
	if err := tmpl.Execute(&system, data); err != nil {
		return Prompt{}, fmt.Errorf("%w: render system prompt: %v", ErrInvalidRubric, err)
	}

	bands := NearestBands(rubric.DefaultExpectation, window)
	system.WriteString("\n\nBand descriptors (reference bands")
	for i, band := range bands {
		if i > 0 {
			system.WriteString(",")
		}
		fmt.Fprintf(&system, " %d", band)
	}
	system.WriteString("):\n")
	for _, criterion := range rubric.Criteria {
		fmt.Fprintf(&system, "%s (%s, weight %.0f%%):\n", criterion.Key, criterion.Name, criterion.Weight*100)
		for _, band := range bands {
			fmt.Fprintf(&system, "  Band %d: %s\n", band, criterion.Descriptors[band])
		}
	}

	var user strings.Builder
	switch submission.Type.Skill() {
	case models.SkillWriting:
		fmt.Fprintf(&user, "Writing Task %d response (%d words):\n", submission.TaskNumber, submission.WordCount)
	default:
		if submission.TaskNumber > 0 {
			fmt.Fprintf(&user, "Speaking Part %d transcript (%d words):\n", submission.TaskNumber, submission.WordCount)
		} else {
			fmt.Fprintf(&user, "Speaking test transcript (%d words):\n", submission.WordCount)
		}
	}
	user.WriteString("<<<\n")
	user.WriteString(strings.TrimSpace(submission.Text))
	user.WriteString("\n>>>")

	return Prompt{System: strings.TrimSpace(system.String()), User: user.String()}, nil
}
