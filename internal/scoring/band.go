package scoring

import (
	"math"

	"github.com/ieltsgenai/prep-api/internal/models"
)

// Absorbs float error from weights such as 0.3 so exact quarter marks still round up.
const roundingEpsilon = 1e-9

// ClampBand limits v to the IELTS band range.
func ClampBand(v float64) float64 {
	if math.IsNaN(v) {
		return models.MinBand
	}
	return math.Max(models.MinBand, math.Min(models.MaxBand, v))
}

// RoundHalfBand clamps v and rounds it to the nearest half band. Quarter marks
// round up (6.25 -> 6.5, 6.75 -> 7), matching the published IELTS convention.
func RoundHalfBand(v float64) float64 {
	return math.Floor(ClampBand(v)*2+0.5+roundingEpsilon) / 2
}

// WeightedOverall is the rubric-weighted mean of the criterion bands rounded to a half band.
// Criteria missing from scores count as 0.
func WeightedOverall(rubric models.Rubric, scores []models.CriterionScore) float64 {
	bands := make(map[string]float64, len(scores))
	for _, score := range scores {
		bands[score.Key] = score.Band
	}

	total := 0.0
	weights := 0.0
	for _, criterion := range rubric.Criteria {
		total += criterion.Weight * bands[criterion.Key]
		weights += criterion.Weight
	}
	if weights == 0 {
		return 0
	}
	return RoundHalfBand(total / weights)
}

// CombineWritingTasks weights Task 2 double relative to Task 1.
func CombineWritingTasks(task1, task2 float64) float64 {
	return RoundHalfBand((task1 + 2*task2) / 3)
}
