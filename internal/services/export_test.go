package services

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/models"
)

func readCSV(b []byte) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(string(b)))
	return r.ReadAll()
}

func exportFixture() []*models.Entry {
	date := time.Date(2025, 9, 18, 8, 0, 0, 0, time.UTC)
	return []*models.Entry{{
		HistoryEntry: assessment.HistoryEntry{
			ID: "E1", SubjectID: "S1", Date: date, MoodLabel: "Happy",
			Score: assessment.SolaceScore{Value: 72, Category: assessment.CategoryHealthy, Breakdown: []assessment.BreakdownItem{
				{Dimension: "stress", Score: 75},
				{Dimension: "mood", Score: 69},
			}},
		},
		Answers: assessment.Answers{
			assessment.QSymptoms:   assessment.ListValue([]string{"Anxious", "Lonely"}),
			assessment.QMood:       assessment.NumberValue(4),
			"retired_question":     assessment.TextValue("kept"),
			assessment.QExpression: assessment.TextValue("a, b"),
		},
	}}
}

func TestExportAnswersCSV(t *testing.T) {
	rows := AnswerRows(assessment.DefaultCatalog(), exportFixture())
	b, err := ExportAnswersCSV(rows)
	if err != nil {
		t.Fatalf("export answers: %v", err)
	}
	recs, err := readCSV(b)
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if got := strings.Join(recs[0], ","); got != "entry_id,subject_id,question_id,kind,value,completed_at" {
		t.Fatalf("bad header: %s", got)
	}
	var order []string
	for _, r := range recs[1:] {
		order = append(order, r[2])
	}
	if got := strings.Join(order, ","); got != "mood,symptoms,expression,retired_question" {
		t.Fatalf("question order = %s", got)
	}
	if recs[2][4] != "Anxious|Lonely" || recs[3][4] != "a, b" {
		t.Fatalf("values = %v / %v", recs[2], recs[3])
	}
	if recs[1][5] != "2025-09-18T08:00:00Z" {
		t.Fatalf("timestamp = %s", recs[1][5])
	}
}

func TestExportHistoryCSV(t *testing.T) {
	b, err := ExportHistoryCSV(models.HistoryEntries(exportFixture()))
	if err != nil {
		t.Fatalf("export history: %v", err)
	}
	recs, err := readCSV(b)
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if strings.Join(recs[0], ",") != "entry_id,date,score,category,mood_label,stress,mood" {
		t.Fatalf("header mismatch: %v", recs[0])
	}
	if strings.Join(recs[1], ",") != "E1,2025-09-18T08:00:00Z,72,healthy,Happy,75,69" {
		t.Fatalf("row mismatch: %v", recs[1])
	}
}

func TestExportHistoryXLSX(t *testing.T) {
	b, err := ExportHistoryXLSX(models.HistoryEntries(exportFixture()))
	if err != nil {
		t.Fatalf("export xlsx: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(historySheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	if rows[0][2] != "score" || rows[1][2] != "72" || rows[1][5] != "75" {
		t.Fatalf("unexpected sheet content: %v", rows)
	}
}

func TestExportServiceFormats(t *testing.T) {
	store := &stubHistoryStore{entries: exportFixture()}
	svc := NewExportService(store, assessment.DefaultCatalog())
	svc.now = func() time.Time { return time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC) }

	cases := map[string]string{
		"":                "solace_history_20250920.csv",
		FormatAnswersCSV:  "solace_answers_20250920.csv",
		FormatHistoryXLSX: "solace_history_20250920.xlsx",
	}
	for format, filename := range cases {
		res, err := svc.Export(ExportParams{SubjectID: "S1", Format: format})
		if err != nil {
			t.Fatalf("format %q: %v", format, err)
		}
		if res.Filename != filename || len(res.Data) == 0 {
			t.Fatalf("format %q: got %s (%d bytes)", format, res.Filename, len(res.Data))
		}
	}
	if _, err := svc.Export(ExportParams{SubjectID: "S1", Format: "pdf"}); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	if _, err := svc.Export(ExportParams{Format: "csv"}); err == nil {
		t.Fatalf("expected missing subject error")
	}
}
