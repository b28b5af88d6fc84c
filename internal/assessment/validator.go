package assessment

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Normalize validates raw input for q. It returns the normalized value and
// whether the input was accepted. Rejected input yields prev unchanged.
func Normalize(q Question, prev Value, hasPrev bool, raw any) (Value, bool) {
	switch q.Type {
	case QuestionNumericRange:
		return NormalizeNumeric(prev, hasPrev, raw, q.Config)
	case QuestionScale:
		return NormalizeScale(prev, hasPrev, raw)
	case QuestionFreeText:
		return NormalizeFreeText(prev, hasPrev, raw, q.Config)
	case QuestionTagList:
		return NormalizeTags(prev, hasPrev, raw, q.Config)
	case QuestionSingleSelect:
		return NormalizeSingleSelect(prev, hasPrev, raw, q.Config)
	case QuestionMultiSelect:
		return NormalizeMultiSelect(prev, hasPrev, raw, q.Config)
	}
	return prev, false
}

// CurrentValue returns the stored answer for q, or its default when unset.
func CurrentValue(q Question, answers Answers) (Value, bool) {
	if v, ok := answers[q.ID]; ok {
		return v, true
	}
	cfg := q.Config
	if q.Type == QuestionScale {
		cfg = scaleConfig(cfg)
	}
	if (q.Type == QuestionNumericRange || q.Type == QuestionScale) && cfg.Default != nil {
		return NumberValue(clampNumber(*cfg.Default, cfg)), true
	}
	return Value{}, false
}

// NormalizeNumeric clamps numeric input into [Min, Max]. Non-numeric input
// keeps the previous value.
func NormalizeNumeric(prev Value, hasPrev bool, raw any, cfg QuestionConfig) (Value, bool) {
	n, ok := toNumber(raw)
	if !ok {
		return prev, false
	}
	return NumberValue(clampNumber(n, cfg)), true
}

// NormalizeScale is NormalizeNumeric over the fixed 1..5 scale.
func NormalizeScale(prev Value, hasPrev bool, raw any) (Value, bool) {
	return NormalizeNumeric(prev, hasPrev, raw, scaleConfig(QuestionConfig{}))
}

// Nudge applies steps stepper increments (negative to decrement) starting from
// prev, or from the default (then Min) when nothing is stored yet.
func Nudge(prev Value, hasPrev bool, steps int, cfg QuestionConfig) Value {
	base := cfg.Min
	if cfg.Default != nil {
		base = *cfg.Default
	}
	if hasPrev && prev.Kind == KindNumber {
		base = prev.Number
	}
	step := cfg.Step
	if step == 0 {
		step = 1
	}
	return NumberValue(clampNumber(base+float64(steps)*step, cfg))
}

// NormalizeFreeText truncates text to MaxLength runes. The empty string is a
// legal answer and marks a voluntary skip.
func NormalizeFreeText(prev Value, hasPrev bool, raw any, cfg QuestionConfig) (Value, bool) {
	s, ok := raw.(string)
	if !ok {
		return prev, false
	}
	limit := cfg.MaxLength
	if limit <= 0 {
		limit = DefaultMaxLength
	}
	if utf8.RuneCountInString(s) > limit {
		s = string([]rune(s)[:limit])
	}
	return TextValue(s), true
}

// NormalizeTags adds a single tag when raw is a string and replaces the list
// when raw is a list. Tags are trimmed, blanks dropped and duplicates removed
// case-insensitively; insertions beyond MaxTags are ignored.
func NormalizeTags(prev Value, hasPrev bool, raw any, cfg QuestionConfig) (Value, bool) {
	if s, ok := raw.(string); ok {
		var existing []string
		if hasPrev && prev.Kind == KindList {
			existing = prev.List
		}
		v, added := AddTag(existing, s, cfg)
		if !added {
			return prev, false
		}
		return v, true
	}
	list, ok := toStringList(raw)
	if !ok {
		return prev, false
	}
	out := make([]string, 0, len(list))
	for _, t := range list {
		if v, added := AddTag(out, t, cfg); added {
			out = v.List
		}
	}
	return ListValue(out), true
}

// AddTag appends tag to existing unless it is blank, already present
// (case-insensitively) or the list is full. Tags that match a suggestion take
// the suggestion's spelling.
func AddTag(existing []string, tag string, cfg QuestionConfig) (Value, bool) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ListValue(existing), false
	}
	for _, s := range cfg.Suggestions {
		if strings.EqualFold(s, tag) {
			tag = s
			break
		}
	}
	for _, t := range existing {
		if strings.EqualFold(t, tag) {
			return ListValue(existing), false
		}
	}
	limit := cfg.MaxTags
	if limit <= 0 {
		limit = DefaultMaxTags
	}
	if len(existing) >= limit {
		return ListValue(existing), false
	}
	return ListValue(append(append([]string{}, existing...), tag)), true
}

// NormalizeSingleSelect accepts one declared option id.
func NormalizeSingleSelect(prev Value, hasPrev bool, raw any, cfg QuestionConfig) (Value, bool) {
	s, ok := raw.(string)
	if !ok {
		return prev, false
	}
	id, ok := matchOption(s, cfg.Options)
	if !ok {
		return prev, false
	}
	return TextValue(id), true
}

// NormalizeMultiSelect toggles one option when raw is a string and replaces
// the selection when raw is a list. Unknown ids are dropped; the result is in
// catalog option order without duplicates.
func NormalizeMultiSelect(prev Value, hasPrev bool, raw any, cfg QuestionConfig) (Value, bool) {
	selected := map[string]bool{}
	if s, ok := raw.(string); ok {
		id, ok := matchOption(s, cfg.Options)
		if !ok {
			return prev, false
		}
		if hasPrev && prev.Kind == KindList {
			for _, p := range prev.List {
				selected[p] = true
			}
		}
		selected[id] = !selected[id]
	} else {
		list, ok := toStringList(raw)
		if !ok {
			return prev, false
		}
		for _, s := range list {
			if id, ok := matchOption(s, cfg.Options); ok {
				selected[id] = true
			}
		}
	}
	out := make([]string, 0, len(selected))
	for _, o := range cfg.Options {
		if selected[o.ID] {
			out = append(out, o.ID)
		}
	}
	return ListValue(out), true
}

func matchOption(s string, options []Option) (string, bool) {
	s = strings.TrimSpace(s)
	for _, o := range options {
		if strings.EqualFold(o.ID, s) {
			return o.ID, true
		}
	}
	return "", false
}

func scaleConfig(cfg QuestionConfig) QuestionConfig {
	cfg.Min, cfg.Max, cfg.Step, cfg.Integer = ScaleMin, ScaleMax, 1, true
	if cfg.Default == nil {
		d := float64(ScaleDefault)
		cfg.Default = &d
	}
	return cfg
}

func clampNumber(n float64, cfg QuestionConfig) float64 {
	if cfg.Integer {
		n = math.Round(n)
	}
	if n < cfg.Min {
		n = cfg.Min
	}
	if n > cfg.Max {
		n = cfg.Max
	}
	return n
}

func toNumber(raw any) (float64, bool) {
	var n float64
	switch v := raw.(type) {
	case int:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint:
		n = float64(v)
	case float32:
		n = float64(v)
	case float64:
		n = v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func toStringList(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
