// Package survey discovers scorable rating questions in dynamically authored survey schemas.
package survey

// RatingQuestion is a scorable question together with its ordered answer labels.
// The first option ranks lowest and the last ranks highest.
type RatingQuestion struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	Options []string `json:"options"`
}

// Rank returns the zero-based position of answer among the options.
// Matching is exact and case-sensitive.
func (q RatingQuestion) Rank(answer string) (int, bool) {
	for i, opt := range q.Options {
		if opt == answer {
			return i, true
		}
	}
	return 0, false
}

// QuestionSet is an insertion-ordered mapping of question id to definition.
// The zero value is an empty set ready to use.
type QuestionSet struct {
	items []RatingQuestion
	index map[string]int
}

// NewQuestionSet builds a set from questions in the given order.
func NewQuestionSet(questions ...RatingQuestion) *QuestionSet {
	qs := &QuestionSet{}
	for _, q := range questions {
		qs.put(q)
	}
	return qs
}

// put stores q, replacing an earlier definition with the same id in place.
func (qs *QuestionSet) put(q RatingQuestion) {
	if qs.index == nil {
		qs.index = make(map[string]int)
	}
	if i, ok := qs.index[q.ID]; ok {
		qs.items[i] = q
		return
	}
	qs.index[q.ID] = len(qs.items)
	qs.items = append(qs.items, q)
}

// Len reports the number of declared questions.
func (qs *QuestionSet) Len() int {
	if qs == nil {
		return 0
	}
	return len(qs.items)
}

// Lookup returns the question with the given id.
func (qs *QuestionSet) Lookup(id string) (RatingQuestion, bool) {
	if qs == nil {
		return RatingQuestion{}, false
	}
	i, ok := qs.index[id]
	if !ok {
		return RatingQuestion{}, false
	}
	return qs.items[i], true
}

// Questions returns the definitions in schema order.
func (qs *QuestionSet) Questions() []RatingQuestion {
	if qs == nil {
		return nil
	}
	out := make([]RatingQuestion, len(qs.items))
	copy(out, qs.items)
	return out
}
