package assessment

import (
	"errors"
	"fmt"
	"time"
)

// State is the lifecycle state of an assessment flow.
type State string

const (
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateAbandoned  State = "abandoned"
)

// Structural misuse. These indicate a caller bug, never bad user input.
var (
	ErrFlowFinished       = errors.New("assessment flow already finished")
	ErrUnknownQuestion    = errors.New("unknown question")
	ErrQuestionNotVisible = errors.New("question is not part of the visible flow")
)

// Session is a snapshot of the controller state.
type Session struct {
	Steps     []string  `json:"steps"`
	Index     int       `json:"index"`
	Answers   Answers   `json:"answers"`
	StartedAt time.Time `json:"started_at"`
}

// Controller sequences one assessment. It is not safe for concurrent use;
// independent sessions need independent controllers.
type Controller struct {
	catalog *Catalog
	engine  *Engine
	now     func() time.Time

	state     State
	steps     []Question
	index     int
	answers   Answers
	startedAt time.Time
	result    *SolaceScore
}

// NewController starts a flow over catalog at the first visible step.
func NewController(catalog *Catalog, engine *Engine) *Controller {
	return newController(catalog, engine, func() time.Time { return time.Now().UTC() })
}

// NewControllerAt is NewController with the start time taken from now.
func NewControllerAt(catalog *Catalog, engine *Engine, now func() time.Time) *Controller {
	if now == nil {
		return NewController(catalog, engine)
	}
	return newController(catalog, engine, now)
}

func newController(catalog *Catalog, engine *Engine, now func() time.Time) *Controller {
	c := &Controller{
		catalog: catalog,
		engine:  engine,
		now:     now,
		state:   StateInProgress,
		answers: Answers{},
	}
	c.startedAt = c.now()
	c.steps = catalog.VisibleSteps(c.answers)
	return c
}

// State returns the lifecycle state.
func (c *Controller) State() State { return c.state }

// IsComplete reports whether the flow reached the end.
func (c *Controller) IsComplete() bool { return c.state == StateCompleted }

// StartedAt returns when the flow was created.
func (c *Controller) StartedAt() time.Time { return c.startedAt }

// CurrentQuestion returns the question at the current visible step.
func (c *Controller) CurrentQuestion() (Question, bool) {
	if c.state != StateInProgress || len(c.steps) == 0 {
		return Question{}, false
	}
	return c.steps[c.index], true
}

// VisibleSteps returns the currently visible questions.
func (c *Controller) VisibleSteps() []Question {
	return append([]Question(nil), c.steps...)
}

// Index returns the position of the current step within the visible steps.
func (c *Controller) Index() int { return c.index }

// Progress is (index+1)/len(visible) while in progress and 1 once completed.
// The denominator always reflects the current visible set.
func (c *Controller) Progress() float64 {
	if c.state == StateCompleted || len(c.steps) == 0 {
		return 1
	}
	return float64(c.index+1) / float64(len(c.steps))
}

// Answers returns the answers given to currently visible questions.
func (c *Controller) Answers() Answers {
	return c.catalog.VisibleAnswers(c.answers)
}

// Value returns the stored answer for id, or the question default.
func (c *Controller) Value(id string) (Value, bool) {
	q, ok := c.catalog.Question(id)
	if !ok {
		return Value{}, false
	}
	return CurrentValue(q, c.answers)
}

// Answer normalizes raw for the question and stores it. Invalid input is
// absorbed and the previous value kept; an error is only returned when the
// flow is finished or the question is not currently visible.
func (c *Controller) Answer(questionID string, raw any) error {
	_, err := c.Submit(questionID, raw)
	return err
}

// Submit is Answer that also reports whether raw was accepted. The report is
// only meaningful when err is nil.
func (c *Controller) Submit(questionID string, raw any) (bool, error) {
	if c.state != StateInProgress {
		return false, fmt.Errorf("answer %q: %w", questionID, ErrFlowFinished)
	}
	q, ok := c.catalog.Question(questionID)
	if !ok {
		return false, fmt.Errorf("answer %q: %w", questionID, ErrUnknownQuestion)
	}
	if c.position(questionID) < 0 {
		return false, fmt.Errorf("answer %q: %w", questionID, ErrQuestionNotVisible)
	}
	prev, hasPrev := c.answers[questionID]
	v, accepted := Normalize(q, prev, hasPrev, raw)
	if !accepted {
		return false, nil
	}
	c.answers[questionID] = v
	c.refresh()
	return true, nil
}

// Nudge moves a numeric or scale answer by steps increments.
func (c *Controller) Nudge(questionID string, steps int) error {
	if c.state != StateInProgress {
		return fmt.Errorf("nudge %q: %w", questionID, ErrFlowFinished)
	}
	q, ok := c.catalog.Question(questionID)
	if !ok {
		return fmt.Errorf("nudge %q: %w", questionID, ErrUnknownQuestion)
	}
	if c.position(questionID) < 0 {
		return fmt.Errorf("nudge %q: %w", questionID, ErrQuestionNotVisible)
	}
	if q.Type != QuestionNumericRange && q.Type != QuestionScale {
		return nil
	}
	prev, hasPrev := c.answers[questionID]
	c.answers[questionID] = Nudge(prev, hasPrev, steps, q.Config)
	c.refresh()
	return nil
}

// Advance moves to the next visible step. Past the last step the flow
// completes and the score is computed once and returned.
func (c *Controller) Advance() (*SolaceScore, error) {
	if c.state != StateInProgress {
		return nil, fmt.Errorf("advance: %w", ErrFlowFinished)
	}
	c.keepDefault()
	if c.index+1 < len(c.steps) {
		c.index++
		return nil, nil
	}
	c.state = StateCompleted
	score := c.engine.Compute(c.Answers())
	c.result = &score
	return c.result, nil
}

// Retreat moves to the previous visible step. It is a no-op at the first step.
func (c *Controller) Retreat() error {
	if c.state != StateInProgress {
		return fmt.Errorf("retreat: %w", ErrFlowFinished)
	}
	if c.index > 0 {
		c.index--
	}
	return nil
}

// Abandon discards the flow without scoring it.
func (c *Controller) Abandon() error {
	if c.state != StateInProgress {
		return fmt.Errorf("abandon: %w", ErrFlowFinished)
	}
	c.state = StateAbandoned
	return nil
}

// Result returns the computed score once the flow has completed.
func (c *Controller) Result() (SolaceScore, bool) {
	if c.result == nil {
		return SolaceScore{}, false
	}
	return *c.result, true
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() Session {
	ids := make([]string, len(c.steps))
	for i, q := range c.steps {
		ids[i] = q.ID
	}
	return Session{Steps: ids, Index: c.index, Answers: c.Answers(), StartedAt: c.startedAt}
}

// keepDefault stores the displayed default of the current numeric or scale
// question when the user moves on without changing it.
func (c *Controller) keepDefault() {
	q, ok := c.CurrentQuestion()
	if !ok || (q.Type != QuestionNumericRange && q.Type != QuestionScale) {
		return
	}
	if _, answered := c.answers[q.ID]; answered {
		return
	}
	if v, ok := CurrentValue(q, c.answers); ok {
		c.answers[q.ID] = v
		c.refresh()
	}
}

// refresh recomputes the visible steps, keeping the current question selected
// when it is still visible and clamping the index otherwise.
func (c *Controller) refresh() {
	var currentID string
	if c.index < len(c.steps) {
		currentID = c.steps[c.index].ID
	}
	c.steps = c.catalog.VisibleSteps(c.answers)
	if i := c.position(currentID); i >= 0 {
		c.index = i
		return
	}
	if c.index >= len(c.steps) {
		c.index = len(c.steps) - 1
	}
	if c.index < 0 {
		c.index = 0
	}
}

func (c *Controller) position(id string) int {
	for i, q := range c.steps {
		if q.ID == id {
			return i
		}
	}
	return -1
}
