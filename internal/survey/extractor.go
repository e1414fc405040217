package survey

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	ratingType = "rating"

	defaultRatingMin  = 1.0
	defaultRatingMax  = 5.0
	defaultRatingStep = 1.0

	// maxSynthesizedOptions bounds numeric scales so a bad step cannot explode the option list.
	maxSynthesizedOptions = 1000
)

// shape is one recognised layout of a survey schema. collect reports false when the
// layout does not apply to the document.
type shape struct {
	name    string
	collect func(root gjson.Result) ([]gjson.Result, bool)
}

// shapes are tried in order; the first that applies wins.
var shapes = []shape{
	{name: "pages.questions", collect: pageItems("questions")},
	{name: "pages.elements", collect: pageItems("elements")},
	{name: "elements", collect: rootElements},
}

func pageItems(field string) func(gjson.Result) ([]gjson.Result, bool) {
	return func(root gjson.Result) ([]gjson.Result, bool) {
		pages := root.Get("pages")
		if !pages.IsArray() {
			return nil, false
		}
		var (
			items []gjson.Result
			found bool
		)
		for _, page := range pages.Array() {
			arr := page.Get(field)
			if !arr.IsArray() {
				continue
			}
			found = true
			items = append(items, arr.Array()...)
		}
		return items, found
	}
}

func rootElements(root gjson.Result) ([]gjson.Result, bool) {
	elements := root.Get("elements")
	if !elements.IsArray() {
		return nil, false
	}
	return elements.Array(), true
}

// Extractor walks survey schemas and returns their rating questions.
// It keeps no state between calls.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates an Extractor. A nil logger disables logging.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger.Named("survey-extractor")}
}

// ExtractRatingQuestions returns the rating questions of schema keyed by question id in
// schema order. Malformed input never fails: offending parts are logged and skipped.
func (e *Extractor) ExtractRatingQuestions(schema []byte) *QuestionSet {
	qs := &QuestionSet{}

	if len(schema) == 0 {
		e.logger.Warn("empty survey schema")
		return qs
	}
	if !gjson.ValidBytes(schema) {
		e.logger.Warn("survey schema is not valid JSON", zap.Int("bytes", len(schema)))
		return qs
	}

	root := gjson.ParseBytes(schema)
	if !root.IsObject() {
		e.logger.Warn("survey schema root is not an object", zap.String("type", root.Type.String()))
		return qs
	}

	for _, sh := range shapes {
		items, ok := sh.collect(root)
		if !ok {
			continue
		}
		for i, item := range items {
			q, ok := e.ratingQuestion(i, item)
			if !ok {
				continue
			}
			qs.put(q)
		}
		e.logger.Debug("extracted rating questions",
			zap.String("shape", sh.name),
			zap.Int("items", len(items)),
			zap.Int("questions", qs.Len()))
		return qs
	}

	e.logger.Warn("survey schema matches no known layout")
	return qs
}

func (e *Extractor) ratingQuestion(pos int, item gjson.Result) (RatingQuestion, bool) {
	if !item.IsObject() {
		e.logger.Warn("skipping non-object schema item", zap.Int("index", pos))
		return RatingQuestion{}, false
	}
	if t := item.Get("type"); t.Type != gjson.String || t.Str != ratingType {
		return RatingQuestion{}, false
	}

	id, ok := scalarText(item.Get("name"))
	if !ok {
		id, ok = scalarText(item.Get("id"))
	}
	if !ok {
		e.logger.Warn("skipping rating question without name or id", zap.Int("index", pos))
		return RatingQuestion{}, false
	}

	options := e.resolveOptions(id, item)
	if len(options) == 0 {
		e.logger.Warn("skipping rating question without options", zap.String("question_id", id))
		return RatingQuestion{}, false
	}

	return RatingQuestion{
		ID:      id,
		Name:    id,
		Title:   titleText(item.Get("title")),
		Options: options,
	}, true
}

func (e *Extractor) resolveOptions(id string, item gjson.Result) []string {
	cfg := item.Get("config")

	if labeled := cfg.Get("ratingOptions"); cfg.IsObject() && labeled.IsArray() {
		var opts []string
		for _, o := range labeled.Array() {
			if !o.IsObject() {
				continue
			}
			if text, ok := scalarText(o.Get("text")); ok {
				opts = append(opts, text)
			}
		}
		if len(opts) > 0 {
			return opts
		}
		e.logger.Debug("rating options carry no text, falling back to numeric scale",
			zap.String("question_id", id))
	}

	lo := e.bound(id, defaultRatingMin, cfg, item, "ratingMin", "rateMin")
	hi := e.bound(id, defaultRatingMax, cfg, item, "ratingMax", "rateMax")
	step := e.bound(id, defaultRatingStep, cfg, item, "ratingStep", "rateStep")

	opts, err := synthesizeOptions(lo, hi, step)
	if err != nil {
		e.logger.Warn("cannot build numeric scale",
			zap.String("question_id", id),
			zap.Float64("min", lo),
			zap.Float64("max", hi),
			zap.Float64("step", step),
			zap.Error(err))
		return nil
	}
	return opts
}

// bound reads the first numeric value among keys, looking in config before the item itself.
func (e *Extractor) bound(id string, fallback float64, cfg, item gjson.Result, keys ...string) float64 {
	for _, src := range []gjson.Result{cfg, item} {
		if !src.IsObject() {
			continue
		}
		for _, key := range keys {
			v := src.Get(key)
			if !v.Exists() || v.Type == gjson.Null {
				continue
			}
			if n, ok := number(v); ok {
				return n
			}
			e.logger.Warn("ignoring non-numeric scale bound",
				zap.String("question_id", id),
				zap.String("key", key),
				zap.String("raw", v.Raw))
		}
	}
	return fallback
}

type scaleError string

func (e scaleError) Error() string { return string(e) }

const (
	errBadStep   scaleError = "step must be positive"
	errBadRange  scaleError = "min exceeds max"
	errTooLarge  scaleError = "scale has too many options"
	errNotFinite scaleError = "bounds must be finite"
)

// synthesizeOptions expands min..max by step, both ends inclusive.
func synthesizeOptions(lo, hi, step float64) ([]string, error) {
	for _, v := range []float64{lo, hi, step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errNotFinite
		}
	}
	if step <= 0 {
		return nil, errBadStep
	}
	if lo > hi {
		return nil, errBadRange
	}

	count := int(math.Floor((hi-lo)/step+1e-9)) + 1
	if count > maxSynthesizedOptions {
		return nil, errTooLarge
	}

	opts := make([]string, 0, count)
	for i := 0; i < count; i++ {
		v := lo + float64(i)*step
		v = math.Round(v*1e6) / 1e6
		opts = append(opts, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return opts, nil
}

func number(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Num, true
	case gjson.String:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// scalarText returns a non-empty string or number field as text.
func scalarText(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String:
		return v.Str, v.Str != ""
	case gjson.Number:
		return v.Raw, true
	}
	return "", false
}

// titleText accepts plain titles and localized title objects keyed by "default".
func titleText(v gjson.Result) string {
	switch {
	case v.Type == gjson.String:
		return v.Str
	case v.IsObject():
		if d := v.Get("default"); d.Type == gjson.String {
			return d.Str
		}
	}
	return ""
}
