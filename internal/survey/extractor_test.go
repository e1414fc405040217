package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ids(qs *QuestionSet) []string {
	var out []string
	for _, q := range qs.Questions() {
		out = append(out, q.ID)
	}
	return out
}

func TestExtractRatingQuestions_Shapes(t *testing.T) {
	ex := NewExtractor(zap.NewNop())

	t.Run("pages with questions", func(t *testing.T) {
		schema := `{"pages":[
			{"questions":[
				{"type":"rating","name":"q1","title":"Communication","config":{"ratingOptions":[{"text":"Never"},{"text":"Sometimes"},{"text":"Always"}]}},
				{"type":"text","name":"comment"}
			]},
			{"questions":[{"type":"rating","id":"q2","title":"Teamwork"}]}
		]}`

		qs := ex.ExtractRatingQuestions([]byte(schema))

		require.Equal(t, 2, qs.Len())
		assert.Equal(t, []string{"q1", "q2"}, ids(qs))

		q1, ok := qs.Lookup("q1")
		require.True(t, ok)
		assert.Equal(t, "Communication", q1.Title)
		assert.Equal(t, []string{"Never", "Sometimes", "Always"}, q1.Options)

		q2, ok := qs.Lookup("q2")
		require.True(t, ok)
		assert.Equal(t, []string{"1", "2", "3", "4", "5"}, q2.Options)
	})

	t.Run("pages with elements", func(t *testing.T) {
		schema := `{"pages":[{"name":"p1","elements":[
			{"type":"rating","name":"lead","title":"Leadership","rateMin":0,"rateMax":10,"rateStep":5}
		]}]}`

		qs := ex.ExtractRatingQuestions([]byte(schema))

		require.Equal(t, 1, qs.Len())
		q, _ := qs.Lookup("lead")
		assert.Equal(t, []string{"0", "5", "10"}, q.Options)
	})

	t.Run("flat root elements", func(t *testing.T) {
		schema := `{"elements":[{"type":"rating","name":"q","title":{"default":"Ownership","de":"Verantwortung"}}]}`

		qs := ex.ExtractRatingQuestions([]byte(schema))

		require.Equal(t, 1, qs.Len())
		q, _ := qs.Lookup("q")
		assert.Equal(t, "Ownership", q.Title)
	})

	t.Run("first matching shape wins", func(t *testing.T) {
		schema := `{
			"pages":[{"questions":[{"type":"rating","name":"from_questions"}],
			          "elements":[{"type":"rating","name":"from_elements"}]}],
			"elements":[{"type":"rating","name":"from_root"}]
		}`

		qs := ex.ExtractRatingQuestions([]byte(schema))

		assert.Equal(t, []string{"from_questions"}, ids(qs))
	})

	t.Run("pages without either array fall through to root elements", func(t *testing.T) {
		schema := `{"pages":[{"title":"intro"}],"elements":[{"type":"rating","name":"root"}]}`

		qs := ex.ExtractRatingQuestions([]byte(schema))

		assert.Equal(t, []string{"root"}, ids(qs))
	})
}

func TestExtractRatingQuestions_Options(t *testing.T) {
	ex := NewExtractor(zap.NewNop())

	cases := []struct {
		name     string
		item     string
		expected []string
	}{
		{"defaults", `{"type":"rating","name":"q"}`, []string{"1", "2", "3", "4", "5"}},
		{"config bounds", `{"type":"rating","name":"q","config":{"ratingMin":1,"ratingMax":3}}`, []string{"1", "2", "3"}},
		{"config overrides item", `{"type":"rating","name":"q","ratingMax":9,"config":{"ratingMax":2}}`, []string{"1", "2"}},
		{"legacy aliases on item", `{"type":"rating","name":"q","rateMin":2,"rateMax":4}`, []string{"2", "3", "4"}},
		{"numeric strings", `{"type":"rating","name":"q","config":{"ratingMin":"0","ratingMax":"2"}}`, []string{"0", "1", "2"}},
		{"fractional step", `{"type":"rating","name":"q","ratingMin":1,"ratingMax":2,"ratingStep":0.5}`, []string{"1", "1.5", "2"}},
		{"step overshoots max", `{"type":"rating","name":"q","ratingMin":1,"ratingMax":6,"ratingStep":2}`, []string{"1", "3", "5"}},
		{"single option", `{"type":"rating","name":"q","ratingMin":3,"ratingMax":3}`, []string{"3"}},
		{"empty labels fall back to numeric", `{"type":"rating","name":"q","config":{"ratingOptions":[{"value":1}],"ratingMax":2}}`, []string{"1", "2"}},
		{"labels skip entries without text", `{"type":"rating","name":"q","config":{"ratingOptions":[{"text":"Low"},{"value":2},{"text":"High"}]}}`, []string{"Low", "High"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			qs := ex.ExtractRatingQuestions([]byte(`{"elements":[` + tc.item + `]}`))

			q, ok := qs.Lookup("q")
			require.True(t, ok)
			assert.Equal(t, tc.expected, q.Options)
		})
	}
}

func TestExtractRatingQuestions_Dropped(t *testing.T) {
	ex := NewExtractor(zap.NewNop())

	cases := []struct {
		name string
		item string
	}{
		{"not a rating", `{"type":"checkbox","name":"q"}`},
		{"type not a string", `{"type":5,"name":"q"}`},
		{"no identifier", `{"type":"rating","title":"orphan"}`},
		{"empty identifier", `{"type":"rating","name":""}`},
		{"min above max", `{"type":"rating","name":"q","ratingMin":5,"ratingMax":1}`},
		{"zero step", `{"type":"rating","name":"q","ratingStep":0}`},
		{"negative step", `{"type":"rating","name":"q","ratingStep":-1}`},
		{"too many options", `{"type":"rating","name":"q","ratingMin":0,"ratingMax":100000}`},
		{"item is not an object", `"rating"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			qs := ex.ExtractRatingQuestions([]byte(`{"elements":[` + tc.item + `]}`))
			assert.Equal(t, 0, qs.Len())
		})
	}
}

func TestExtractRatingQuestions_Malformed(t *testing.T) {
	ex := NewExtractor(nil)

	inputs := map[string]string{
		"empty":             ``,
		"invalid json":      `{"pages": [`,
		"array root":        `[{"type":"rating","name":"q"}]`,
		"string root":       `"survey"`,
		"pages not array":   `{"pages":{"questions":[]}}`,
		"elements not list": `{"elements":"nope"}`,
		"unknown layout":    `{"title":"Quarterly review"}`,
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			var qs *QuestionSet
			assert.NotPanics(t, func() {
				qs = ex.ExtractRatingQuestions([]byte(in))
			})
			require.NotNil(t, qs)
			assert.Equal(t, 0, qs.Len())
		})
	}

	t.Run("bad items are skipped and good ones kept", func(t *testing.T) {
		schema := `{"elements":[null, 7, {"type":"rating","name":"ok"}, {"type":"rating"}]}`

		qs := ex.ExtractRatingQuestions([]byte(schema))

		assert.Equal(t, []string{"ok"}, ids(qs))
	})

	t.Run("non numeric bound falls back to default", func(t *testing.T) {
		schema := `{"elements":[{"type":"rating","name":"q","ratingMax":"many"}]}`

		qs := ex.ExtractRatingQuestions([]byte(schema))

		q, ok := qs.Lookup("q")
		require.True(t, ok)
		assert.Len(t, q.Options, 5)
	})
}

func TestExtractRatingQuestions_DuplicateIDsKeepFirstPosition(t *testing.T) {
	ex := NewExtractor(zap.NewNop())
	schema := `{"elements":[
		{"type":"rating","name":"a","title":"first"},
		{"type":"rating","name":"b"},
		{"type":"rating","name":"a","title":"second","ratingMax":3}
	]}`

	qs := ex.ExtractRatingQuestions([]byte(schema))

	assert.Equal(t, []string{"a", "b"}, ids(qs))
	a, _ := qs.Lookup("a")
	assert.Equal(t, "second", a.Title)
	assert.Equal(t, []string{"1", "2", "3"}, a.Options)
}

func TestExtractRatingQuestions_NumericName(t *testing.T) {
	ex := NewExtractor(zap.NewNop())

	qs := ex.ExtractRatingQuestions([]byte(`{"elements":[{"type":"rating","id":42}]}`))

	_, ok := qs.Lookup("42")
	assert.True(t, ok)
}

func TestRatingQuestionRank(t *testing.T) {
	q := RatingQuestion{ID: "q", Options: []string{"Never", "Sometimes", "Always"}}

	rank, ok := q.Rank("Sometimes")
	assert.True(t, ok)
	assert.Equal(t, 1, rank)

	_, ok = q.Rank("sometimes")
	assert.False(t, ok, "matching is case-sensitive")
}

func TestQuestionSetNilSafe(t *testing.T) {
	var qs *QuestionSet

	assert.Equal(t, 0, qs.Len())
	_, ok := qs.Lookup("x")
	assert.False(t, ok)
	assert.Nil(t, qs.Questions())
}
