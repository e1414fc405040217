package scoring

import "math"

// Performance classifies a signed score difference.
type Performance string

const (
	AbovePar Performance = "AbovePar"
	AtPar    Performance = "AtPar"
	BelowPar Performance = "BelowPar"
)

// DefaultAtParThreshold is the absolute difference under which two scores count as equal.
const DefaultAtParThreshold = 0.01

// Classify labels difference. Differences strictly below threshold in magnitude are AtPar.
func Classify(difference, threshold float64) Performance {
	switch {
	case math.Abs(difference) < threshold:
		return AtPar
	case difference > 0:
		return AbovePar
	default:
		return BelowPar
	}
}

// PercentageDifference expresses difference relative to base, or 0 when base is 0.
func PercentageDifference(difference, base float64) float64 {
	if base == 0 {
		return 0
	}
	return difference / base * 100
}

// QuestionComparison contrasts one question between two summaries.
type QuestionComparison struct {
	QuestionID  string  `json:"question_id"`
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	FirstScore  float64 `json:"first_score"`
	SecondScore float64 `json:"second_score"`
	Difference  float64 `json:"difference"`
}

// Comparison contrasts two overall scores; percentages are relative to the second.
type Comparison struct {
	FirstScore           float64              `json:"first_score"`
	SecondScore          float64              `json:"second_score"`
	Difference           float64              `json:"difference"`
	PercentageDifference float64              `json:"percentage_difference"`
	Questions            []QuestionComparison `json:"questions"`
}

// Compare contrasts first against second. The per-question breakdown only covers questions
// answered on both sides and follows the order of first.
func Compare(first, second ScoreSummary) Comparison {
	diff := first.OverallScore - second.OverallScore
	c := Comparison{
		FirstScore:           first.OverallScore,
		SecondScore:          second.OverallScore,
		Difference:           diff,
		PercentageDifference: PercentageDifference(diff, second.OverallScore),
		Questions:            make([]QuestionComparison, 0, len(first.Questions)),
	}

	for _, fq := range first.Questions {
		sq, ok := second.Question(fq.QuestionID)
		if !ok {
			continue
		}
		c.Questions = append(c.Questions, QuestionComparison{
			QuestionID:  fq.QuestionID,
			Name:        fq.Name,
			Title:       fq.Title,
			FirstScore:  fq.Score,
			SecondScore: sq.Score,
			Difference:  fq.Score - sq.Score,
		})
	}
	return c
}
