package assessment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCatalog is returned when a catalog definition is rejected.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Condition is a declarative visibility rule: the question is shown when the
// answer to Question equals Equals, or is one of In. List answers match when
// they contain any wanted value. Comparison is case-insensitive.
type Condition struct {
	Question string   `json:"question" yaml:"question"`
	Equals   string   `json:"equals,omitempty" yaml:"equals,omitempty"`
	In       []string `json:"in,omitempty" yaml:"in,omitempty"`
}

// Predicate compiles the condition.
func (c Condition) Predicate() Predicate {
	wanted := make([]string, 0, len(c.In)+1)
	if c.Equals != "" {
		wanted = append(wanted, strings.ToLower(strings.TrimSpace(c.Equals)))
	}
	for _, w := range c.In {
		wanted = append(wanted, strings.ToLower(strings.TrimSpace(w)))
	}
	match := func(s string) bool {
		s = strings.ToLower(strings.TrimSpace(s))
		for _, w := range wanted {
			if s == w {
				return true
			}
		}
		return false
	}
	return func(a Answers) bool {
		v, ok := a[c.Question]
		if !ok {
			return false
		}
		switch v.Kind {
		case KindText:
			return match(v.Text)
		case KindNumber:
			return match(formatNumber(v.Number))
		case KindList:
			for _, item := range v.List {
				if match(item) {
					return true
				}
			}
		}
		return false
	}
}

// Catalog is an immutable, ordered list of questions.
type Catalog struct {
	questions []Question
	index     map[string]int
}

// NewCatalog validates questions and builds a catalog. Predicates may only
// reference questions that appear earlier in the list.
func NewCatalog(questions []Question) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalidCatalog)
	}
	c := &Catalog{
		questions: make([]Question, 0, len(questions)),
		index:     make(map[string]int, len(questions)),
	}
	for i, q := range questions {
		if strings.TrimSpace(q.ID) == "" {
			return nil, fmt.Errorf("%w: question %d has no id", ErrInvalidCatalog, i+1)
		}
		if _, dup := c.index[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %q", ErrInvalidCatalog, q.ID)
		}
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("%w: question %q: %v", ErrInvalidCatalog, q.ID, err)
		}
		if q.Condition != nil {
			if _, ok := c.index[q.Condition.Question]; !ok {
				return nil, fmt.Errorf("%w: question %q depends on unknown or later question %q", ErrInvalidCatalog, q.ID, q.Condition.Question)
			}
			if q.DependsOn == nil {
				q.DependsOn = q.Condition.Predicate()
			}
		}
		q.Config = withDefaults(q.Type, q.Config)
		c.index[q.ID] = len(c.questions)
		c.questions = append(c.questions, q)
	}
	return c, nil
}

func validateQuestion(q Question) error {
	if !q.Type.Valid() {
		return fmt.Errorf("unknown type %q", q.Type)
	}
	cfg := q.Config
	switch q.Type {
	case QuestionNumericRange:
		if cfg.Min > cfg.Max {
			return fmt.Errorf("min %s greater than max %s", formatNumber(cfg.Min), formatNumber(cfg.Max))
		}
		if cfg.Step < 0 {
			return errors.New("negative step")
		}
	case QuestionSingleSelect, QuestionMultiSelect:
		if len(cfg.Options) == 0 {
			return errors.New("select question without options")
		}
		seen := map[string]struct{}{}
		for _, o := range cfg.Options {
			key := strings.ToLower(strings.TrimSpace(o.ID))
			if key == "" {
				return errors.New("option without id")
			}
			if _, dup := seen[key]; dup {
				return fmt.Errorf("duplicate option %q", o.ID)
			}
			seen[key] = struct{}{}
		}
	case QuestionFreeText:
		if cfg.MaxLength < 0 {
			return errors.New("negative max_length")
		}
	case QuestionTagList:
		if cfg.MaxTags < 0 {
			return errors.New("negative max_tags")
		}
	}
	return nil
}

func withDefaults(t QuestionType, cfg QuestionConfig) QuestionConfig {
	switch t {
	case QuestionScale:
		cfg.Min, cfg.Max, cfg.Step, cfg.Integer = ScaleMin, ScaleMax, 1, true
		if cfg.Default == nil {
			d := float64(ScaleDefault)
			cfg.Default = &d
		}
	case QuestionNumericRange:
		if cfg.Step == 0 {
			cfg.Step = 1
		}
	case QuestionFreeText:
		if cfg.MaxLength == 0 {
			cfg.MaxLength = DefaultMaxLength
		}
	case QuestionTagList:
		if cfg.MaxTags == 0 {
			cfg.MaxTags = DefaultMaxTags
		}
	}
	return cfg
}

// Len returns the number of questions in the catalog, visible or not.
func (c *Catalog) Len() int { return len(c.questions) }

// Questions returns the full ordered catalog.
func (c *Catalog) Questions() []Question {
	return append([]Question(nil), c.questions...)
}

// Question looks up a question by id.
func (c *Catalog) Question(id string) (Question, bool) {
	i, ok := c.index[id]
	if !ok {
		return Question{}, false
	}
	return c.questions[i], true
}

// VisibleSteps returns the questions whose predicates hold, in catalog order.
// Each predicate only sees answers given to earlier visible questions, so
// hidden answers never leak into later branching decisions.
func (c *Catalog) VisibleSteps(answers Answers) []Question {
	seen := make(Answers, len(answers))
	out := make([]Question, 0, len(c.questions))
	for _, q := range c.questions {
		if q.DependsOn != nil && !q.DependsOn(seen) {
			continue
		}
		out = append(out, q)
		if v, ok := answers[q.ID]; ok {
			seen[q.ID] = v
		}
	}
	return out
}

// VisibleAnswers drops answers to questions that are currently hidden.
func (c *Catalog) VisibleAnswers(answers Answers) Answers {
	out := make(Answers, len(answers))
	for _, q := range c.VisibleSteps(answers) {
		if v, ok := answers[q.ID]; ok {
			out[q.ID] = v
		}
	}
	return out
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
