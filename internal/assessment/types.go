// Package assessment holds the question catalog, answer validation, the step
// sequencer, the score engine and history aggregation of an assessment.
package assessment

import (
	"strings"
	"time"
)

// QuestionType identifies how an answer is captured and normalized.
type QuestionType string

const (
	QuestionSingleSelect QuestionType = "single_select"
	QuestionMultiSelect  QuestionType = "multi_select"
	QuestionNumericRange QuestionType = "numeric_range"
	QuestionFreeText     QuestionType = "free_text"
	QuestionTagList      QuestionType = "tag_list"
	QuestionScale        QuestionType = "scale"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingleSelect, QuestionMultiSelect, QuestionNumericRange,
		QuestionFreeText, QuestionTagList, QuestionScale:
		return true
	}
	return false
}

const (
	ScaleMin     = 1
	ScaleMax     = 5
	ScaleDefault = 3

	DefaultMaxLength = 250
	DefaultMaxTags   = 10
)

// Option is a selectable choice for single/multi-select questions.
type Option struct {
	ID        string            `json:"id" yaml:"id"`
	LabelI18n map[string]string `json:"label_i18n,omitempty" yaml:"label_i18n,omitempty"`
}

// QuestionConfig carries the type-specific bounds of a question.
type QuestionConfig struct {
	Min         float64        `json:"min,omitempty" yaml:"min,omitempty"`
	Max         float64        `json:"max,omitempty" yaml:"max,omitempty"`
	Step        float64        `json:"step,omitempty" yaml:"step,omitempty"`
	Default     *float64       `json:"default,omitempty" yaml:"default,omitempty"`
	Integer     bool           `json:"integer,omitempty" yaml:"integer,omitempty"`
	Options     []Option       `json:"options,omitempty" yaml:"options,omitempty"`
	MaxLength   int            `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	MaxTags     int            `json:"max_tags,omitempty" yaml:"max_tags,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	Labels      map[int]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Predicate decides whether a question is visible given the answers of
// earlier visible questions.
type Predicate func(Answers) bool

// Question is one step of the assessment. A question with a nil DependsOn is always visible. Condition is the
// declarative form used by catalog files; NewCatalog compiles it into DependsOn.
type Question struct {
	ID         string            `json:"id"`
	Type       QuestionType      `json:"type"`
	PromptI18n map[string]string `json:"prompt_i18n"`
	Config     QuestionConfig    `json:"config"`
	Condition  *Condition        `json:"condition,omitempty"`
	DependsOn  Predicate         `json:"-"`
}

// Prompt returns the prompt for locale, falling back to English and then the id.
func (q Question) Prompt(locale string) string {
	if v := q.PromptI18n[locale]; v != "" {
		return v
	}
	if v := q.PromptI18n["en"]; v != "" {
		return v
	}
	return q.ID
}

// Label returns the description attached to a scale point, if any.
func (q Question) Label(point int) string {
	return q.Config.Labels[point]
}

// OptionLabel returns the label of option id for locale.
func (q Question) OptionLabel(id, locale string) string {
	for _, o := range q.Config.Options {
		if o.ID != id {
			continue
		}
		if v := o.LabelI18n[locale]; v != "" {
			return v
		}
		if v := o.LabelI18n["en"]; v != "" {
			return v
		}
		return o.ID
	}
	return id
}

// ValueKind tags the shape held by a Value.
type ValueKind string

const (
	KindNumber ValueKind = "number"
	KindText   ValueKind = "text"
	KindList   ValueKind = "list"
)

// Value is a normalized answer value. Exactly one of Number, Text or List is
// meaningful, selected by Kind.
type Value struct {
	Kind   ValueKind `json:"kind"`
	Number float64   `json:"number,omitempty"`
	Text   string    `json:"text,omitempty"`
	List   []string  `json:"list,omitempty"`
}

func NumberValue(n float64) Value { return Value{Kind: KindNumber, Number: n} }
func TextValue(s string) Value    { return Value{Kind: KindText, Text: s} }

// ListValue copies l so the caller's slice is never aliased.
func ListValue(l []string) Value {
	return Value{Kind: KindList, List: append([]string{}, l...)}
}

// Equal reports whether two values hold the same answer.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Number == o.Number
	case KindText:
		return v.Text == o.Text
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if v.List[i] != o.List[i] {
				return false
			}
		}
		return true
	}
	return true
}

// String renders the value for exports and logs.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return formatNumber(v.Number)
	case KindText:
		return v.Text
	case KindList:
		return strings.Join(v.List, "|")
	}
	return ""
}

// Answers maps question id to its current normalized value.
type Answers map[string]Value

// Number returns the numeric answer for id.
func (a Answers) Number(id string) (float64, bool) {
	v, ok := a[id]
	if !ok || v.Kind != KindNumber {
		return 0, false
	}
	return v.Number, true
}

// Text returns the text (or selected option id) answer for id.
func (a Answers) Text(id string) (string, bool) {
	v, ok := a[id]
	if !ok || v.Kind != KindText {
		return "", false
	}
	return v.Text, true
}

// List returns the list answer for id.
func (a Answers) List(id string) ([]string, bool) {
	v, ok := a[id]
	if !ok || v.Kind != KindList {
		return nil, false
	}
	return v.List, true
}

// Clone returns a deep copy.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		if v.Kind == KindList {
			v = ListValue(v.List)
		}
		out[k] = v
	}
	return out
}

// Category is the qualitative classification of a composite score.
type Category string

const (
	CategoryHealthy  Category = "healthy"
	CategoryUnstable Category = "unstable"
	CategoryCritical Category = "critical"
)

// BreakdownItem is the score of one dimension.
type BreakdownItem struct {
	Dimension string `json:"dimension"`
	Label     string `json:"label"`
	Score     int    `json:"score"`
}

// SolaceScore is the outcome of a completed assessment.
type SolaceScore struct {
	Value           int             `json:"value"`
	Category        Category        `json:"category"`
	Breakdown       []BreakdownItem `json:"breakdown"`
	Recommendations []string        `json:"recommendations"`
}

// HistoryEntry is one stored assessment result.
type HistoryEntry struct {
	ID        string      `json:"id"`
	SubjectID string      `json:"subject_id,omitempty"`
	Date      time.Time   `json:"date"`
	Score     SolaceScore `json:"score"`
	MoodLabel string      `json:"mood_label,omitempty"`
}

// ChartBucket aggregates the entries of one period.
type ChartBucket struct {
	PeriodStart time.Time `json:"period_start"`
	PositiveSum float64   `json:"positive_sum"`
	NegativeSum float64   `json:"negative_sum"`
	Entries     int       `json:"entries"`
}
