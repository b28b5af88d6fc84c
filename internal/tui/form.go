package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/services"
)

// FormAsker asks each question with a huh form.
type FormAsker struct {
	// Accessible switches huh to plain line prompts, for screen readers
	// and non-TTY use.
	Accessible bool
}

func (a FormAsker) Ask(q *services.QuestionView, header string) (any, error) {
	fields, result, err := Fields(q)
	if err != nil {
		return nil, err
	}
	form := huh.NewForm(huh.NewGroup(fields...).Title(header)).WithAccessible(a.Accessible)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, ErrAborted
		}
		return nil, fmt.Errorf("prompt failed: %w", err)
	}
	return result(), nil
}

// Fields builds the huh fields for q and a func returning the raw answer
// once the form has run.
func Fields(q *services.QuestionView) ([]huh.Field, func() any, error) {
	switch q.Type {
	case assessment.QuestionScale:
		v := assessment.ScaleDefault
		if q.Value != nil {
			v = int(q.Value.Number)
		}
		var options []huh.Option[int]
		for p := assessment.ScaleMin; p <= assessment.ScaleMax; p++ {
			label := strconv.Itoa(p)
			if l := q.Config.Labels[p]; l != "" {
				label += "  " + l
			}
			options = append(options, huh.NewOption(label, p))
		}
		f := huh.NewSelect[int]().Title(q.Prompt).Options(options...).Value(&v)
		return []huh.Field{f}, func() any { return v }, nil

	case assessment.QuestionNumericRange:
		s := ""
		if q.Value != nil {
			s = strconv.FormatFloat(q.Value.Number, 'f', -1, 64)
		}
		f := huh.NewInput().
			Title(q.Prompt).
			Description(fmt.Sprintf("%g to %g", q.Config.Min, q.Config.Max)).
			Value(&s).
			Validate(func(in string) error {
				if _, err := strconv.ParseFloat(strings.TrimSpace(in), 64); err != nil {
					return errors.New("enter a number")
				}
				return nil
			})
		return []huh.Field{f}, func() any { return s }, nil

	case assessment.QuestionFreeText:
		s := ""
		if q.Value != nil {
			s = q.Value.Text
		}
		f := huh.NewText().Title(q.Prompt).CharLimit(q.Config.MaxLength).Value(&s)
		return []huh.Field{f}, func() any { return s }, nil

	case assessment.QuestionTagList:
		var picked []string
		current := map[string]bool{}
		if q.Value != nil {
			for _, t := range q.Value.List {
				current[t] = true
			}
		}
		var options []huh.Option[string]
		for _, s := range q.Config.Suggestions {
			options = append(options, huh.NewOption(s, s).Selected(current[s]))
		}
		other := ""
		fields := []huh.Field{}
		if len(options) > 0 {
			fields = append(fields, huh.NewMultiSelect[string]().Title(q.Prompt).Options(options...).Limit(q.Config.MaxTags).Value(&picked))
		}
		fields = append(fields, huh.NewInput().Title("Other").Description("comma separated").Value(&other))
		return fields, func() any { return append(picked, splitTags(other)...) }, nil

	case assessment.QuestionSingleSelect:
		var s string
		switch {
		case q.Value != nil:
			s = q.Value.Text
		case len(q.Options) > 0:
			// huh highlights the first option when nothing matches
			s = q.Options[0].ID
		}
		f := huh.NewSelect[string]().Title(q.Prompt).Options(optionList(q.Options)...).Value(&s)
		return []huh.Field{f}, func() any { return s }, nil

	case assessment.QuestionMultiSelect:
		var picked []string
		if q.Value != nil {
			picked = append(picked, q.Value.List...)
		}
		f := huh.NewMultiSelect[string]().Title(q.Prompt).Options(optionList(q.Options)...).Value(&picked)
		return []huh.Field{f}, func() any { return picked }, nil
	}
	return nil, nil, fmt.Errorf("unsupported question type: %s", q.Type)
}

func optionList(opts []services.OptionView) []huh.Option[string] {
	out := make([]huh.Option[string], 0, len(opts))
	for _, o := range opts {
		out = append(out, huh.NewOption(o.Label, o.ID))
	}
	return out
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
