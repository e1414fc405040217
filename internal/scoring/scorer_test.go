package scoring

import (
	"encoding/json"
	"testing"

	"github.com/godilite/feedback-analytics/internal/survey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func frequencyQuestion() survey.RatingQuestion {
	return survey.RatingQuestion{ID: "freq", Name: "freq", Title: "How often?", Options: []string{"Never", "Sometimes", "Always"}}
}

func numericQuestion(id string) survey.RatingQuestion {
	return survey.RatingQuestion{ID: id, Name: id, Options: []string{"1", "2", "3", "4", "5"}}
}

func TestOrdinalScore(t *testing.T) {
	for n := 2; n <= 11; n++ {
		assert.Equal(t, 0.0, OrdinalScore(0, n), "first option of %d", n)
		assert.Equal(t, 100.0, OrdinalScore(n-1, n), "last option of %d", n)
	}

	assert.Equal(t, 0.0, OrdinalScore(0, 1), "single option scale")
	assert.Equal(t, 33.33, OrdinalScore(1, 4))
	assert.Equal(t, 66.67, OrdinalScore(2, 4))
}

func TestScoreResponse(t *testing.T) {
	scorer := NewScorer(zap.NewNop())

	t.Run("labeled scale", func(t *testing.T) {
		qs := survey.NewQuestionSet(frequencyQuestion())

		summary := scorer.ScoreResponse(Response{"freq": "Sometimes"}, qs)

		assert.Equal(t, 50.0, summary.OverallScore)
		assert.Equal(t, 1, summary.TotalQuestions)
		assert.Equal(t, 1, summary.AnsweredQuestions)
		require.Len(t, summary.Questions, 1)
		q := summary.Questions[0]
		assert.Equal(t, "freq", q.QuestionID)
		assert.Equal(t, "How often?", q.Title)
		assert.Equal(t, 50.0, q.Score)
		assert.Equal(t, 1.0, q.Rank)
		assert.Equal(t, 3, q.OptionCount)
		assert.Equal(t, "Sometimes", q.SelectedOption)
	})

	t.Run("numeric scale", func(t *testing.T) {
		qs := survey.NewQuestionSet(numericQuestion("q"))

		cases := map[string]float64{"5": 100, "1": 0, "3": 50}
		for answer, expected := range cases {
			summary := scorer.ScoreResponse(Response{"q": answer}, qs)
			assert.Equal(t, expected, summary.OverallScore, "answer %s", answer)
		}
	})

	t.Run("overall score keeps full precision", func(t *testing.T) {
		seven := func(id string) survey.RatingQuestion {
			return survey.RatingQuestion{ID: id, Options: []string{"1", "2", "3", "4", "5", "6", "7"}}
		}
		qs := survey.NewQuestionSet(seven("a"), seven("b"))

		summary := scorer.ScoreResponse(Response{"a": "2", "b": "1"}, qs)

		assert.Equal(t, 16.67, summary.Questions[0].Score)
		assert.InDelta(t, 8.335, summary.OverallScore, 1e-9)
	})

	t.Run("numeric answers are coerced", func(t *testing.T) {
		qs := survey.NewQuestionSet(numericQuestion("a"), numericQuestion("b"), numericQuestion("c"), numericQuestion("d"))

		summary := scorer.ScoreResponse(Response{
			"a": float64(5),
			"b": 3,
			"c": json.Number("1"),
			"d": int64(2),
		}, qs)

		assert.Equal(t, 4, summary.AnsweredQuestions)
		assert.Equal(t, []float64{100, 50, 0, 25}, scoresOf(summary))
	})

	t.Run("unanswered and unmatched are excluded", func(t *testing.T) {
		qs := survey.NewQuestionSet(
			numericQuestion("answered"),
			numericQuestion("missing"),
			numericQuestion("empty"),
			numericQuestion("unmatched"),
			numericQuestion("null"),
			frequencyQuestion(),
		)

		summary := scorer.ScoreResponse(Response{
			"answered":  "5",
			"empty":     "",
			"unmatched": "7",
			"null":      nil,
			"freq":      "always",
		}, qs)

		assert.Equal(t, 6, summary.TotalQuestions)
		assert.Equal(t, 1, summary.AnsweredQuestions)
		assert.Equal(t, 100.0, summary.OverallScore, "excluded questions must not drag the mean down")
	})

	t.Run("nil response", func(t *testing.T) {
		qs := survey.NewQuestionSet(numericQuestion("q"))

		summary := scorer.ScoreResponse(nil, qs)

		assert.Equal(t, 0.0, summary.OverallScore)
		assert.Equal(t, 1, summary.TotalQuestions)
		assert.Equal(t, 0, summary.AnsweredQuestions)
		assert.NotNil(t, summary.Questions)
		assert.Empty(t, summary.Questions)
	})

	t.Run("single option scale scores zero", func(t *testing.T) {
		qs := survey.NewQuestionSet(survey.RatingQuestion{ID: "only", Options: []string{"Yes"}})

		summary := scorer.ScoreResponse(Response{"only": "Yes"}, qs)

		assert.Equal(t, 1, summary.AnsweredQuestions)
		assert.Equal(t, 0.0, summary.OverallScore)
	})

	t.Run("output follows schema order", func(t *testing.T) {
		qs := survey.NewQuestionSet(numericQuestion("z"), numericQuestion("a"), numericQuestion("m"))

		summary := scorer.ScoreResponse(Response{"m": "1", "a": "2", "z": "3"}, qs)

		var order []string
		for _, q := range summary.Questions {
			order = append(order, q.QuestionID)
		}
		assert.Equal(t, []string{"z", "a", "m"}, order)
	})

	t.Run("nil question set", func(t *testing.T) {
		summary := NewScorer(nil).ScoreResponse(Response{"q": "1"}, nil)

		assert.Equal(t, 0, summary.TotalQuestions)
		assert.Equal(t, 0, summary.AnsweredQuestions)
	})
}

func TestAnswerText(t *testing.T) {
	cases := []struct {
		in       any
		expected string
		ok       bool
	}{
		{"Always", "Always", true},
		{"", "", false},
		{nil, "", false},
		{float64(4), "4", true},
		{2.5, "2.5", true},
		{float32(1.5), "1.5", true},
		{7, "7", true},
		{int32(3), "3", true},
		{true, "true", true},
	}

	for _, tc := range cases {
		got, ok := answerText(tc.in)
		assert.Equal(t, tc.expected, got)
		assert.Equal(t, tc.ok, ok)
	}
}

func scoresOf(s ScoreSummary) []float64 {
	out := make([]float64, 0, len(s.Questions))
	for _, q := range s.Questions {
		out = append(out, q.Score)
	}
	return out
}
