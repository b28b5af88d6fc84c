package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/Solace/internal/api"
	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/log"
	"github.com/soaringjerry/Solace/internal/services"
)

type scriptedAsker struct {
	answers []any
	asked   []string
	headers []string
	failAt  int
}

func (s *scriptedAsker) Ask(q *services.QuestionView, header string) (any, error) {
	s.asked = append(s.asked, q.ID)
	s.headers = append(s.headers, header)
	if s.failAt > 0 && len(s.asked) == s.failAt {
		return nil, ErrAborted
	}
	if len(s.answers) == 0 {
		return nil, nil
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func newService(t *testing.T) (*services.AssessmentService, *api.MemoryStore) {
	t.Helper()
	mood, _ := assessment.DefaultCatalog().Question(assessment.QMood)
	catalog, err := assessment.NewCatalog([]assessment.Question{
		mood,
		{ID: "distress", Type: assessment.QuestionSingleSelect, Config: assessment.QuestionConfig{
			Options: []assessment.Option{{ID: "yes"}, {ID: "no"}},
		}},
		{ID: "details", Type: assessment.QuestionFreeText, Condition: &assessment.Condition{Question: "distress", Equals: "yes"}},
	})
	require.NoError(t, err)
	store := api.NewMemoryStore()
	return services.NewAssessmentService(catalog, assessment.DefaultEngine(), store, services.WithLogger(log.Discard())), store
}

func TestRunnerCompletesAndRetriesRejectedInput(t *testing.T) {
	svc, store := newService(t)
	asker := &scriptedAsker{answers: []any{"great", 4, "yes", "tight chest"}}
	var out bytes.Buffer

	v, err := NewRunner(svc, asker, &out).Run(context.Background(), services.StartRequest{SubjectID: "cli"})
	require.NoError(t, err)

	assert.Equal(t, []string{assessment.QMood, assessment.QMood, "distress", "details"}, asker.asked)
	assert.Contains(t, out.String(), "not accepted")
	assert.Contains(t, asker.headers[0], "1/2")
	assert.Contains(t, asker.headers[3], "3/3")
	require.Equal(t, assessment.StateCompleted, v.State)
	require.NotNil(t, v.Result)

	entries, err := store.ListEntries("cli")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	text, _ := entries[0].Answers.Text("details")
	assert.Equal(t, "tight chest", text)
}

func TestRunnerAbortAbandonsSession(t *testing.T) {
	svc, store := newService(t)
	asker := &scriptedAsker{answers: []any{3}, failAt: 2}

	_, err := NewRunner(svc, asker, &bytes.Buffer{}).Run(context.Background(), services.StartRequest{SubjectID: "cli"})
	require.True(t, errors.Is(err, ErrAborted))

	n, _ := store.CountEntries()
	assert.Zero(t, n)
	audit, _ := store.ListAudit(1)
	require.Len(t, audit, 1)
	assert.Equal(t, "session.abandoned", audit[0].Action)
}

func TestRunnerStopsOnCancelledContext(t *testing.T) {
	svc, _ := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(svc, &scriptedAsker{}, &bytes.Buffer{}).Run(ctx, services.StartRequest{SubjectID: "cli"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFieldsDefaults(t *testing.T) {
	four := assessment.NumberValue(4)
	no := assessment.TextValue("no")
	yesNo := []services.OptionView{{ID: "yes", Label: "Yes"}, {ID: "no", Label: "No"}}
	cases := []struct {
		name   string
		q      services.QuestionView
		fields int
		want   any
	}{
		{"scale keeps value", services.QuestionView{Type: assessment.QuestionScale, Value: &four}, 1, 4},
		{"scale default", services.QuestionView{Type: assessment.QuestionScale}, 1, assessment.ScaleDefault},
		{"numeric", services.QuestionView{Type: assessment.QuestionNumericRange, Value: &four}, 1, "4"},
		{"single preselects first option", services.QuestionView{Type: assessment.QuestionSingleSelect, Options: yesNo}, 1, "yes"},
		{"single keeps value", services.QuestionView{Type: assessment.QuestionSingleSelect, Options: yesNo, Value: &no}, 1, "no"},
		{"tags with suggestions", services.QuestionView{Type: assessment.QuestionTagList, Config: assessment.QuestionConfig{Suggestions: []string{"Anxious"}}}, 2, []string(nil)},
		{"tags without suggestions", services.QuestionView{Type: assessment.QuestionTagList}, 1, []string(nil)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields, result, err := Fields(&tc.q)
			require.NoError(t, err)
			assert.Len(t, fields, tc.fields)
			assert.Equal(t, tc.want, result())
		})
	}

	_, _, err := Fields(&services.QuestionView{Type: "slider"})
	assert.Error(t, err)
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"work", "money"}, splitTags(" work, ,money ,"))
	assert.Nil(t, splitTags(""))
}

func TestRender(t *testing.T) {
	res := assessment.DefaultEngine().Compute(assessment.Answers{})
	card := RenderResult(&services.SessionView{Result: &res, CategoryLabel: "Unstable"})
	assert.Contains(t, card, "50")
	assert.Contains(t, card, "Unstable")
	assert.Contains(t, card, res.Recommendations[0])
	assert.Contains(t, RenderResult(nil), "No result")

	now := time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)
	entries := []assessment.HistoryEntry{
		{ID: "e1", Date: now.AddDate(0, 0, -2), Score: assessment.SolaceScore{Value: 80, Category: assessment.CategoryHealthy}, MoodLabel: "Happy"},
		{ID: "e2", Date: now.Add(-time.Hour), Score: assessment.SolaceScore{Value: 30, Category: assessment.CategoryCritical}},
	}
	list := RenderHistory(entries, now)
	assert.Contains(t, list, "2 days ago")
	assert.Contains(t, list, "Happy")
	assert.Less(t, strings.Index(list, "e2"), strings.Index(list, "e1"))
	assert.Contains(t, RenderHistory(nil, now), "No assessments")

	summary := RenderSummary(&services.HistorySummary{
		Total: 2, MeanScore: 55, Streak: 3, Coverage: 0.1, Alpha: 0.8, N: 4,
		Buckets: []assessment.ChartBucket{{PeriodStart: now, Entries: 1}, {PeriodStart: now.AddDate(0, 0, 7), Entries: 2}},
	})
	assert.Contains(t, summary, "3 days")
	assert.Contains(t, summary, "1 entry\n")
	assert.Contains(t, summary, "2 entries")
	assert.Contains(t, summary, "0.80")
}

