package assessment

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Category thresholds. Together they partition [0,100].
const (
	HealthyMin  = 70
	UnstableMin = 40

	// NeutralScore is used for a dimension whose answers are missing.
	NeutralScore = 50

	maxRecommendedDimensions = 2
	maxRecommendations       = 3
)

// Affirmation is the single recommendation returned when every dimension is healthy.
const Affirmation = "You are doing well. Keep up the routines that support you."

// Dimension is one scored facet of wellbeing. Score reports false when the
// answers it needs are missing, in which case Default is used.
type Dimension struct {
	ID      string
	Label   string
	Weight  float64
	Default float64
	Score   func(Answers) (float64, bool)
	Advice  []string
}

// Engine turns a completed answer set into a SolaceScore.
type Engine struct {
	dimensions []Dimension
}

// NewEngine validates dimensions: ids are unique, weights are positive and sum to 1.
func NewEngine(dimensions []Dimension) (*Engine, error) {
	if len(dimensions) == 0 {
		return nil, errors.New("score engine: no dimensions")
	}
	seen := map[string]struct{}{}
	var sum float64
	for _, d := range dimensions {
		if d.ID == "" || d.Score == nil {
			return nil, fmt.Errorf("score engine: dimension %q incomplete", d.ID)
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("score engine: duplicate dimension %q", d.ID)
		}
		seen[d.ID] = struct{}{}
		if d.Weight <= 0 {
			return nil, fmt.Errorf("score engine: dimension %q has non-positive weight", d.ID)
		}
		sum += d.Weight
	}
	if math.Abs(sum-1) > 1e-9 {
		return nil, fmt.Errorf("score engine: weights sum to %v, want 1", sum)
	}
	return &Engine{dimensions: append([]Dimension(nil), dimensions...)}, nil
}

// DefaultEngine returns an engine over DefaultDimensions.
func DefaultEngine() *Engine {
	e, err := NewEngine(DefaultDimensions())
	if err != nil {
		panic(err)
	}
	return e
}

// Dimensions returns the configured dimensions in scoring order.
func (e *Engine) Dimensions() []Dimension {
	return append([]Dimension(nil), e.dimensions...)
}

// Compute scores answers. It never fails: missing answers fall back to the
// dimension default.
func (e *Engine) Compute(answers Answers) SolaceScore {
	breakdown := make([]BreakdownItem, 0, len(e.dimensions))
	var total float64
	for _, d := range e.dimensions {
		s, ok := d.Score(answers)
		if !ok {
			s = d.Default
		}
		s = clamp(s, 0, 100)
		total += d.Weight * s
		breakdown = append(breakdown, BreakdownItem{
			Dimension: d.ID,
			Label:     d.Label,
			Score:     int(math.Round(s)),
		})
	}
	value := int(clamp(math.Round(total), 0, 100))
	return SolaceScore{
		Value:           value,
		Category:        Classify(value),
		Breakdown:       breakdown,
		Recommendations: e.recommend(breakdown),
	}
}

// Classify maps a composite value to its category. Values outside [0,100]
// are clamped first.
func Classify(value int) Category {
	switch {
	case value >= HealthyMin:
		return CategoryHealthy
	case value >= UnstableMin:
		return CategoryUnstable
	default:
		return CategoryCritical
	}
}

func (e *Engine) recommend(breakdown []BreakdownItem) []string {
	type low struct {
		pos   int
		score int
	}
	var lows []low
	for i, b := range breakdown {
		if b.Score < HealthyMin {
			lows = append(lows, low{pos: i, score: b.Score})
		}
	}
	if len(lows) == 0 {
		return []string{Affirmation}
	}
	sort.SliceStable(lows, func(i, j int) bool { return lows[i].score < lows[j].score })
	if len(lows) > maxRecommendedDimensions {
		lows = lows[:maxRecommendedDimensions]
	}
	out := make([]string, 0, maxRecommendations)
	for _, l := range lows {
		for _, advice := range e.dimensions[l.pos].Advice {
			if len(out) == maxRecommendations {
				return out
			}
			out = append(out, advice)
		}
	}
	return out
}

// ReverseScore maps a raw Likert value to its reverse-scored value given the
// number of points in the scale. Out-of-range values are clamped.
func ReverseScore(raw, points int) int {
	if points < 2 {
		return raw
	}
	if raw < 1 {
		raw = 1
	}
	if raw > points {
		raw = points
	}
	return (points + 1) - raw
}

// DefaultDimensions is the dimension set used by the app.
func DefaultDimensions() []Dimension {
	return []Dimension{
		{
			ID: "stress", Label: "Stress", Weight: 0.30, Default: NeutralScore,
			Score: func(a Answers) (float64, bool) {
				s, ok := a.Number(QStressLevel)
				if !ok {
					return 0, false
				}
				return scalePercent(ReverseScore(int(s), ScaleMax)), true
			},
			Advice: []string{
				"Try a five-minute breathing exercise when stress builds up.",
				"Schedule short breaks away from screens during the day.",
			},
		},
		{
			ID: "mood", Label: "Mood", Weight: 0.30, Default: NeutralScore,
			Score: func(a Answers) (float64, bool) {
				m, ok := a.Number(QMood)
				if !ok {
					return 0, false
				}
				return scalePercent(int(m)), true
			},
			Advice: []string{
				"Write a short journal entry about what affected your mood today.",
				"Reach out to someone you trust and share how you feel.",
			},
		},
		{
			ID: "sleep", Label: "Sleep Quality", Weight: 0.20, Default: NeutralScore,
			Score: func(a Answers) (float64, bool) {
				q, ok := a.Number(QSleepQuality)
				if !ok {
					return 0, false
				}
				return scalePercent(int(q)), true
			},
			Advice: []string{
				"Keep a consistent bedtime and avoid screens an hour before sleep.",
			},
		},
		{
			ID: "anxiety", Label: "Anxiety", Weight: 0.20, Default: NeutralScore,
			Score: func(a Answers) (float64, bool) {
				symptoms, hasSymptoms := a.List(QSymptoms)
				distress, hasDistress := a.Text(QPhysicalDistress)
				if !hasSymptoms && !hasDistress {
					return 0, false
				}
				score := 100.0 - 15*float64(len(symptoms))
				if distress == "yes" {
					score -= 20
				}
				return score, true
			},
			Advice: []string{
				"Practice a grounding exercise: name five things you can see around you.",
				"Consider talking with a mental health professional about your symptoms.",
			},
		},
	}
}

// scalePercent maps a 1..5 point to 0..100.
func scalePercent(point int) float64 {
	if point < ScaleMin {
		point = ScaleMin
	}
	if point > ScaleMax {
		point = ScaleMax
	}
	return float64(point-ScaleMin) / float64(ScaleMax-ScaleMin) * 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
