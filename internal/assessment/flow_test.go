package assessment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, c *Catalog) *Controller {
	t.Helper()
	fixed := time.Date(2025, 9, 18, 8, 0, 0, 0, time.UTC)
	return newController(c, DefaultEngine(), func() time.Time { return fixed })
}

func singleQuestionCatalog(t *testing.T, q Question) *Catalog {
	t.Helper()
	c, err := NewCatalog([]Question{q})
	require.NoError(t, err)
	return c
}

func TestAgeStepperScenario(t *testing.T) {
	q, _ := DefaultCatalog().Question(QAge)
	ctl := newTestController(t, singleQuestionCatalog(t, q))

	v, ok := ctl.Value(QAge)
	require.True(t, ok)
	assert.Equal(t, float64(InitialAge), v.Number)

	require.NoError(t, ctl.Nudge(QAge, 1))
	require.NoError(t, ctl.Nudge(QAge, 1))
	score, err := ctl.Advance()
	require.NoError(t, err)
	require.NotNil(t, score)

	age, ok := ctl.Answers().Number(QAge)
	require.True(t, ok)
	assert.Equal(t, float64(20), age)
}

func TestAgeClampScenario(t *testing.T) {
	q, _ := DefaultCatalog().Question(QAge)
	ctl := newTestController(t, singleQuestionCatalog(t, q))

	require.NoError(t, ctl.Answer(QAge, 500))
	age, _ := ctl.Answers().Number(QAge)
	assert.Equal(t, float64(100), age)

	require.NoError(t, ctl.Answer(QAge, -5))
	age, _ = ctl.Answers().Number(QAge)
	assert.Equal(t, float64(13), age)

	require.NoError(t, ctl.Answer(QAge, "not a number"))
	age, _ = ctl.Answers().Number(QAge)
	assert.Equal(t, float64(13), age)
}

func TestStressLevelScenario(t *testing.T) {
	q, _ := DefaultCatalog().Question(QStressLevel)
	ctl := newTestController(t, singleQuestionCatalog(t, q))

	v, ok := ctl.Value(QStressLevel)
	require.True(t, ok)
	assert.Equal(t, float64(3), v.Number)
	assert.Equal(t, "Moderately Stressed", q.Label(int(v.Number)))

	require.NoError(t, ctl.Answer(QStressLevel, 5))
	_, err := ctl.Advance()
	require.NoError(t, err)

	level, ok := ctl.Answers().Number(QStressLevel)
	require.True(t, ok)
	assert.Equal(t, float64(5), level)
	assert.Equal(t, "Extremely Stressed Out.", q.Label(int(level)))
}

func TestSymptomTagScenario(t *testing.T) {
	q, _ := DefaultCatalog().Question(QSymptoms)
	ctl := newTestController(t, singleQuestionCatalog(t, q))

	for _, tag := range []string{"Depressed", "Anxious", "Anxious", "depressed"} {
		require.NoError(t, ctl.Answer(QSymptoms, tag))
	}
	_, err := ctl.Advance()
	require.NoError(t, err)

	tags, ok := ctl.Answers().List(QSymptoms)
	require.True(t, ok)
	assert.Equal(t, []string{"Depressed", "Anxious"}, tags)
	for _, tag := range tags {
		assert.Contains(t, SymptomSuggestions, tag)
	}
}

func TestBranchingShrinksDenominator(t *testing.T) {
	c := DefaultCatalog()
	ctl := newTestController(t, c)

	require.NoError(t, ctl.Answer(QSoughtHelp, "Yes"))
	assert.Len(t, ctl.VisibleSteps(), 14)
	assert.InDelta(t, 1.0/14, ctl.Progress(), 1e-12)

	require.NoError(t, ctl.Answer(QSoughtHelp, "No"))
	assert.Len(t, ctl.VisibleSteps(), 13)
	assert.NotContains(t, ids(ctl.VisibleSteps()), QHelpType)
	assert.InDelta(t, 1.0/13, ctl.Progress(), 1e-12)
}

func TestBranchingRemovingStepsAheadJumpsProgress(t *testing.T) {
	c, err := NewCatalog([]Question{
		{ID: "q1", Type: QuestionScale},
		{ID: "q2", Type: QuestionSingleSelect, Config: QuestionConfig{Options: yesNo()}},
		{ID: "q3", Type: QuestionFreeText, Condition: &Condition{Question: "q2", Equals: "yes"}},
		{ID: "q4", Type: QuestionFreeText, Condition: &Condition{Question: "q2", Equals: "yes"}},
		{ID: "q5", Type: QuestionScale},
	})
	require.NoError(t, err)
	ctl := newTestController(t, c)

	require.NoError(t, ctl.Answer("q2", "yes"))
	_, err = ctl.Advance()
	require.NoError(t, err)
	assert.InDelta(t, 2.0/5, ctl.Progress(), 1e-12)

	require.NoError(t, ctl.Answer("q2", "no"))
	current, ok := ctl.CurrentQuestion()
	require.True(t, ok)
	assert.Equal(t, "q2", current.ID)
	assert.InDelta(t, 2.0/3, ctl.Progress(), 1e-12)
}

func TestHiddenAnswersLeaveTheAnswerSet(t *testing.T) {
	ctl := newTestController(t, DefaultCatalog())
	require.NoError(t, ctl.Answer(QSoughtHelp, "yes"))
	require.NoError(t, ctl.Answer(QHelpType, "therapist"))
	assert.Contains(t, ctl.Answers(), QHelpType)

	require.NoError(t, ctl.Answer(QSoughtHelp, "no"))
	assert.NotContains(t, ctl.Answers(), QHelpType)

	err := ctl.Answer(QHelpType, "counselor")
	assert.ErrorIs(t, err, ErrQuestionNotVisible)
}

func TestSubmitReportsAcceptance(t *testing.T) {
	ctl := newTestController(t, DefaultCatalog())

	accepted, err := ctl.Submit(QSoughtHelp, "maybe")
	require.NoError(t, err)
	assert.False(t, accepted)

	accepted, err = ctl.Submit(QSoughtHelp, "yes")
	require.NoError(t, err)
	assert.True(t, accepted)

	_, err = ctl.Submit(QSoughtHelp, "no")
	require.NoError(t, err)
	accepted, err = ctl.Submit(QHelpType, 7)
	assert.ErrorIs(t, err, ErrQuestionNotVisible)
	assert.False(t, accepted)
}

func TestCurrentIndexClampsWhenCurrentStepDisappears(t *testing.T) {
	c, err := NewCatalog([]Question{
		{ID: "gate", Type: QuestionSingleSelect, Config: QuestionConfig{Options: yesNo()}},
		{ID: "a", Type: QuestionScale},
		{ID: "tail", Type: QuestionFreeText, Condition: &Condition{Question: "gate", Equals: "yes"}},
	})
	require.NoError(t, err)
	ctl := newTestController(t, c)
	require.NoError(t, ctl.Answer("gate", "yes"))
	_, _ = ctl.Advance()
	_, _ = ctl.Advance()
	current, _ := ctl.CurrentQuestion()
	require.Equal(t, "tail", current.ID)

	require.NoError(t, ctl.Answer("gate", "no"))
	current, ok := ctl.CurrentQuestion()
	require.True(t, ok)
	assert.Equal(t, "a", current.ID)
	assert.Equal(t, 1, ctl.Index())
}

func TestProgressBounds(t *testing.T) {
	ctl := newTestController(t, DefaultCatalog())
	for ctl.State() == StateInProgress {
		p := ctl.Progress()
		require.Greater(t, p, 0.0)
		require.LessOrEqual(t, p, 1.0)
		_, err := ctl.Advance()
		require.NoError(t, err)
	}
	assert.Equal(t, StateCompleted, ctl.State())
	assert.Equal(t, 1.0, ctl.Progress())
	assert.True(t, ctl.IsComplete())
}

func TestRetreat(t *testing.T) {
	ctl := newTestController(t, DefaultCatalog())
	require.NoError(t, ctl.Retreat())
	assert.Equal(t, 0, ctl.Index())

	_, _ = ctl.Advance()
	_, _ = ctl.Advance()
	require.NoError(t, ctl.Retreat())
	assert.Equal(t, 1, ctl.Index())
}

func TestAdvanceComputesScoreOnce(t *testing.T) {
	q, _ := DefaultCatalog().Question(QMood)
	ctl := newTestController(t, singleQuestionCatalog(t, q))
	require.NoError(t, ctl.Answer(QMood, 5))

	score, err := ctl.Advance()
	require.NoError(t, err)
	require.NotNil(t, score)
	result, ok := ctl.Result()
	require.True(t, ok)
	assert.Equal(t, *score, result)

	_, err = ctl.Advance()
	assert.ErrorIs(t, err, ErrFlowFinished)
	assert.ErrorIs(t, ctl.Answer(QMood, 1), ErrFlowFinished)
	assert.ErrorIs(t, ctl.Retreat(), ErrFlowFinished)
	assert.ErrorIs(t, ctl.Abandon(), ErrFlowFinished)
}

func TestAbandonSkipsScoring(t *testing.T) {
	ctl := newTestController(t, DefaultCatalog())
	require.NoError(t, ctl.Answer(QMood, 2))
	require.NoError(t, ctl.Abandon())
	assert.Equal(t, StateAbandoned, ctl.State())
	_, ok := ctl.Result()
	assert.False(t, ok)
	_, err := ctl.Advance()
	assert.ErrorIs(t, err, ErrFlowFinished)
	_, ok = ctl.CurrentQuestion()
	assert.False(t, ok)
}

func TestAnswerUnknownQuestion(t *testing.T) {
	ctl := newTestController(t, DefaultCatalog())
	assert.ErrorIs(t, ctl.Answer("nope", 1), ErrUnknownQuestion)
}

func TestSnapshot(t *testing.T) {
	ctl := newTestController(t, DefaultCatalog())
	require.NoError(t, ctl.Answer(QHealthGoal, "reduce_stress"))
	s := ctl.Snapshot()
	assert.Len(t, s.Steps, 13)
	assert.Equal(t, TextValue("reduce_stress"), s.Answers[QHealthGoal])
	assert.Equal(t, time.Date(2025, 9, 18, 8, 0, 0, 0, time.UTC), s.StartedAt)
}

func TestAdvanceKeepsDisplayedDefaults(t *testing.T) {
	base := DefaultCatalog()
	age, _ := base.Question(QAge)
	stress, _ := base.Question(QStressLevel)
	c, err := NewCatalog([]Question{age, stress})
	require.NoError(t, err)
	ctl := newTestController(t, c)

	assert.Empty(t, ctl.Answers())
	_, err = ctl.Advance()
	require.NoError(t, err)
	score, err := ctl.Advance()
	require.NoError(t, err)
	require.NotNil(t, score)

	answers := ctl.Answers()
	assert.Equal(t, NumberValue(InitialAge), answers[QAge])
	assert.Equal(t, NumberValue(ScaleDefault), answers[QStressLevel])
}

func TestAdvanceDoesNotOverwriteAnswers(t *testing.T) {
	q, _ := DefaultCatalog().Question(QStressLevel)
	ctl := newTestController(t, singleQuestionCatalog(t, q))
	require.NoError(t, ctl.Answer(QStressLevel, 5))
	_, err := ctl.Advance()
	require.NoError(t, err)
	assert.Equal(t, NumberValue(5), ctl.Answers()[QStressLevel])
}
