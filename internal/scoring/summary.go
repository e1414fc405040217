// Package scoring turns raw survey answers into 0-100 ordinal scores, averages them across
// respondents and compares the resulting summaries.
package scoring

import "math"

// Response maps a question id to the submitted answer value.
type Response map[string]any

// QuestionScore is the score of one question, for a single response or averaged over a group.
type QuestionScore struct {
	QuestionID  string  `json:"question_id"`
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	Score       float64 `json:"score"`
	Rank        float64 `json:"rank"`
	OptionCount int     `json:"option_count"`
	// SelectedOption is only set when scoring a single response.
	SelectedOption string `json:"selected_option,omitempty"`
	ResponseCount  int    `json:"response_count"`
}

// ScoreSummary aggregates question scores. TotalQuestions counts what the schema declares,
// AnsweredQuestions what was actually scored.
type ScoreSummary struct {
	OverallScore      float64         `json:"overall_score"`
	TotalQuestions    int             `json:"total_questions"`
	AnsweredQuestions int             `json:"answered_questions"`
	Questions         []QuestionScore `json:"questions"`
}

// Question returns the score for the given question id.
func (s ScoreSummary) Question(id string) (QuestionScore, bool) {
	for _, q := range s.Questions {
		if q.QuestionID == id {
			return q, true
		}
	}
	return QuestionScore{}, false
}

func emptySummary(total int) ScoreSummary {
	return ScoreSummary{
		TotalQuestions: total,
		Questions:      make([]QuestionScore, 0),
	}
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
