package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adviceOf(t *testing.T, id string) []string {
	t.Helper()
	for _, d := range DefaultDimensions() {
		if d.ID == id {
			return d.Advice
		}
	}
	t.Fatalf("no dimension %q", id)
	return nil
}

func TestComputeWithNoAnswersIsNeutral(t *testing.T) {
	score := DefaultEngine().Compute(Answers{})
	assert.Equal(t, 50, score.Value)
	assert.Equal(t, CategoryUnstable, score.Category)
	require.Len(t, score.Breakdown, 4)
	for _, b := range score.Breakdown {
		assert.Equal(t, NeutralScore, b.Score, b.Dimension)
	}
	stress, mood := adviceOf(t, "stress"), adviceOf(t, "mood")
	assert.Equal(t, []string{stress[0], stress[1], mood[0]}, score.Recommendations)
}

func TestComputeHealthyReturnsAffirmation(t *testing.T) {
	score := DefaultEngine().Compute(Answers{
		QStressLevel:      NumberValue(1),
		QMood:             NumberValue(5),
		QSleepQuality:     NumberValue(5),
		QSymptoms:         ListValue(nil),
		QPhysicalDistress: TextValue("no"),
	})
	assert.Equal(t, 100, score.Value)
	assert.Equal(t, CategoryHealthy, score.Category)
	assert.Equal(t, []string{Affirmation}, score.Recommendations)
}

func TestComputeClampsDimensions(t *testing.T) {
	score := DefaultEngine().Compute(Answers{
		QStressLevel:      NumberValue(5),
		QMood:             NumberValue(1),
		QSleepQuality:     NumberValue(1),
		QSymptoms:         ListValue(SymptomSuggestions),
		QPhysicalDistress: TextValue("yes"),
	})
	assert.Equal(t, 0, score.Value)
	assert.Equal(t, CategoryCritical, score.Category)
	for _, b := range score.Breakdown {
		assert.GreaterOrEqual(t, b.Score, 0)
		assert.LessOrEqual(t, b.Score, 100)
	}
}

func TestComputeWeightedMean(t *testing.T) {
	score := DefaultEngine().Compute(Answers{
		QStressLevel:      NumberValue(4),
		QMood:             NumberValue(4),
		QSleepQuality:     NumberValue(3),
		QSymptoms:         ListValue([]string{"Anxious"}),
		QPhysicalDistress: TextValue("no"),
	})
	want := map[string]int{"stress": 25, "mood": 75, "sleep": 50, "anxiety": 85}
	for _, b := range score.Breakdown {
		assert.Equal(t, want[b.Dimension], b.Score, b.Dimension)
	}
	assert.Equal(t, 57, score.Value)
	assert.Equal(t, CategoryUnstable, score.Category)
	stress, sleep := adviceOf(t, "stress"), adviceOf(t, "sleep")
	assert.Equal(t, []string{stress[0], stress[1], sleep[0]}, score.Recommendations)
}

func TestComputeIsDeterministic(t *testing.T) {
	answers := Answers{
		QStressLevel: NumberValue(2),
		QMood:        NumberValue(3),
		QSymptoms:    ListValue([]string{"Lonely", "Angry"}),
	}
	e := DefaultEngine()
	first := e.Compute(answers)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, e.Compute(answers.Clone()))
	}
}

func TestClassifyPartitionsDomain(t *testing.T) {
	for v := 0; v <= 100; v++ {
		matches := 0
		for _, c := range []Category{CategoryHealthy, CategoryUnstable, CategoryCritical} {
			if Classify(v) == c {
				matches++
			}
		}
		require.Equal(t, 1, matches, "value %d", v)
	}
	assert.Equal(t, CategoryCritical, Classify(39))
	assert.Equal(t, CategoryUnstable, Classify(40))
	assert.Equal(t, CategoryUnstable, Classify(69))
	assert.Equal(t, CategoryHealthy, Classify(70))
}

func TestNewEngineValidatesWeights(t *testing.T) {
	score := func(Answers) (float64, bool) { return 0, false }
	_, err := NewEngine([]Dimension{{ID: "a", Weight: 0.5, Score: score}})
	assert.Error(t, err)
	_, err = NewEngine([]Dimension{{ID: "a", Weight: 0.5, Score: score}, {ID: "a", Weight: 0.5, Score: score}})
	assert.Error(t, err)
	_, err = NewEngine([]Dimension{{ID: "a", Weight: 1}})
	assert.Error(t, err)
	_, err = NewEngine([]Dimension{{ID: "a", Weight: 0.25, Score: score}, {ID: "b", Weight: 0.75, Score: score}})
	assert.NoError(t, err)
}

func TestReverseScore(t *testing.T) {
	cases := []struct {
		raw, points, want int
	}{
		{1, 5, 5},
		{2, 5, 4},
		{3, 5, 3},
		{5, 5, 1},
		{0, 5, 5},
		{6, 5, 1},
		{1, 7, 7},
		{4, 1, 4},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ReverseScore(c.raw, c.points), "ReverseScore(%d,%d)", c.raw, c.points)
	}
}
