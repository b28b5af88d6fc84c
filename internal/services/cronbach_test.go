package services

import (
	"math"
	"testing"

	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/models"
)

func TestCronbachAlpha_ScaleAnswers(t *testing.T) {
	// mood and sleep move together across four check-ins
	consistent := [][]float64{{1, 2}, {2, 3}, {3, 4}, {4, 5}}
	if got := CronbachAlpha(consistent); math.Abs(got-1) > 1e-9 {
		t.Fatalf("alpha = %f, want 1", got)
	}
	// item variances 2/3 each, total variance 2: alpha = 2 * (1 - (4/3)/2)
	mixed := [][]float64{{1, 1}, {2, 3}, {3, 2}}
	if got := CronbachAlpha(mixed); math.Abs(got-2.0/3) > 1e-9 {
		t.Fatalf("alpha = %f, want 0.667", got)
	}
	opposed := [][]float64{{1, 5}, {3, 3}, {5, 1}}
	if got := CronbachAlpha(opposed); got != 0 {
		t.Fatalf("negative alpha should clamp to 0, got %f", got)
	}
}

func TestCronbachAlpha_Degenerate(t *testing.T) {
	cases := map[string][][]float64{
		"empty":         nil,
		"single item":   {{1}, {2}},
		"ragged":        {{1, 2}, {3}},
		"zero variance": {{3, 3}, {3, 3}},
	}
	for name, rows := range cases {
		if got := CronbachAlpha(rows); got != 0 {
			t.Errorf("%s: alpha = %f, want 0", name, got)
		}
	}
}

func TestBuildAlphaMatrix(t *testing.T) {
	c := assessment.DefaultCatalog()
	mood, _ := c.Question(assessment.QMood)
	stress, _ := c.Question(assessment.QStressLevel)
	questions := []assessment.Question{mood, stress}

	entries := []*models.Entry{
		{Answers: assessment.Answers{
			assessment.QMood:        assessment.NumberValue(4),
			assessment.QStressLevel: assessment.NumberValue(5),
		}},
		{Answers: assessment.Answers{assessment.QMood: assessment.NumberValue(2)}},
	}
	rows := buildAlphaMatrix(questions, entries)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want only the complete entry", len(rows))
	}
	if rows[0][0] != 4 || rows[0][1] != 1 {
		t.Fatalf("row = %v, want [4 1] with stress reverse keyed", rows[0])
	}
	if got := buildAlphaMatrix(questions[:1], entries); got != nil {
		t.Fatalf("single question should give no matrix, got %v", got)
	}
}
