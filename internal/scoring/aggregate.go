package scoring

import "github.com/godilite/feedback-analytics/internal/survey"

// AverageScores scores every response and averages per question across the responses that
// answered it. The overall score is the mean of the per-question averages, so respondents
// who answered more questions do not weigh more. Responses with no scored answer are ignored.
func (s *Scorer) AverageScores(responses []Response, questions *survey.QuestionSet) ScoreSummary {
	summary := emptySummary(questions.Len())

	individual := make([]ScoreSummary, 0, len(responses))
	for _, resp := range responses {
		scored := s.ScoreResponse(resp, questions)
		if scored.AnsweredQuestions == 0 {
			continue
		}
		individual = append(individual, scored)
	}
	if len(individual) == 0 {
		return summary
	}

	var averages []float64
	for _, q := range questions.Questions() {
		var scores, ranks []float64
		for _, ind := range individual {
			qs, ok := ind.Question(q.ID)
			if !ok {
				continue
			}
			scores = append(scores, qs.Score)
			ranks = append(ranks, qs.Rank)
		}
		if len(scores) == 0 {
			continue
		}

		avg := Mean(scores)
		summary.Questions = append(summary.Questions, QuestionScore{
			QuestionID:    q.ID,
			Name:          q.Name,
			Title:         q.Title,
			Score:         avg,
			Rank:          Mean(ranks),
			OptionCount:   len(q.Options),
			ResponseCount: len(scores),
		})
		averages = append(averages, avg)
	}

	summary.AnsweredQuestions = len(averages)
	summary.OverallScore = Mean(averages)
	return summary
}
