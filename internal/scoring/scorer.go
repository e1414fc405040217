package scoring

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/godilite/feedback-analytics/internal/survey"
	"go.uber.org/zap"
)

// Scorer computes ordinal scores. It holds no state besides its logger and is safe for
// concurrent use.
type Scorer struct {
	logger *zap.Logger
}

// NewScorer creates a Scorer. A nil logger disables logging.
func NewScorer(logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{logger: logger.Named("scorer")}
}

// ScoreResponse scores a single response against the declared questions.
// Missing, empty and unmatched answers are left out rather than scored as zero.
func (s *Scorer) ScoreResponse(resp Response, questions *survey.QuestionSet) ScoreSummary {
	summary := emptySummary(questions.Len())
	if resp == nil {
		return summary
	}

	var scores []float64
	for _, q := range questions.Questions() {
		raw, ok := resp[q.ID]
		if !ok {
			continue
		}
		answer, ok := answerText(raw)
		if !ok {
			continue
		}
		rank, ok := q.Rank(answer)
		if !ok {
			s.logger.Debug("answer does not match any option",
				zap.String("question_id", q.ID),
				zap.String("answer", answer),
				zap.Int("options", len(q.Options)))
			continue
		}

		score := OrdinalScore(rank, len(q.Options))
		summary.Questions = append(summary.Questions, QuestionScore{
			QuestionID:     q.ID,
			Name:           q.Name,
			Title:          q.Title,
			Score:          score,
			Rank:           float64(rank),
			OptionCount:    len(q.Options),
			SelectedOption: answer,
			ResponseCount:  1,
		})
		scores = append(scores, score)
	}

	summary.AnsweredQuestions = len(scores)
	summary.OverallScore = Mean(scores)
	return summary
}

// OrdinalScore maps a zero-based rank onto 0-100. Single-option scales always score 0.
func OrdinalScore(rank, optionCount int) float64 {
	if optionCount <= 1 {
		return 0
	}
	return Round2(float64(rank) / float64(optionCount-1) * 100)
}

// answerText coerces an answer value to the label it should match. Empty answers report false.
func answerText(v any) (string, bool) {
	var s string
	switch a := v.(type) {
	case nil:
		return "", false
	case string:
		s = a
	case float64:
		s = strconv.FormatFloat(a, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(a), 'f', -1, 32)
	case int:
		s = strconv.Itoa(a)
	case int64:
		s = strconv.FormatInt(a, 10)
	case int32:
		s = strconv.FormatInt(int64(a), 10)
	case json.Number:
		s = a.String()
	default:
		s = fmt.Sprint(a)
	}
	return s, s != ""
}
