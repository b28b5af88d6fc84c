package services

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/models"
)

const historySheet = "History"

// AnswerRow is one answer of one stored result, the long export format.
type AnswerRow struct {
	EntryID     string
	SubjectID   string
	QuestionID  string
	Kind        assessment.ValueKind
	Value       string
	CompletedAt time.Time
}

// AnswerRows flattens entries into long rows, ordered by entry then question
// position in catalog. Answers to questions the catalog no longer has sort last by id.
func AnswerRows(catalog *assessment.Catalog, entries []*models.Entry) []AnswerRow {
	pos := map[string]int{}
	for i, q := range catalog.Questions() {
		pos[q.ID] = i
	}
	var rows []AnswerRow
	for _, e := range entries {
		ids := make([]string, 0, len(e.Answers))
		for id := range e.Answers {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			pi, iok := pos[ids[i]]
			pj, jok := pos[ids[j]]
			if iok != jok {
				return iok
			}
			if iok && pi != pj {
				return pi < pj
			}
			return ids[i] < ids[j]
		})
		for _, id := range ids {
			v := e.Answers[id]
			rows = append(rows, AnswerRow{
				EntryID:     e.ID,
				SubjectID:   e.SubjectID,
				QuestionID:  id,
				Kind:        v.Kind,
				Value:       v.String(),
				CompletedAt: e.Date,
			})
		}
	}
	return rows
}

// ExportAnswersCSV renders rows into a long-format CSV.
func ExportAnswersCSV(rows []AnswerRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"entry_id", "subject_id", "question_id", "kind", "value", "completed_at"})
	for _, r := range rows {
		rec := []string{r.EntryID, r.SubjectID, r.QuestionID, string(r.Kind), r.Value, r.CompletedAt.UTC().Format(time.RFC3339)}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// historyHeader lists the fixed columns followed by one column per dimension.
func historyHeader(dims []string) []string {
	return append([]string{"entry_id", "date", "score", "category", "mood_label"}, dims...)
}

func historyRecord(e assessment.HistoryEntry, dims []string) []string {
	scores := map[string]int{}
	for _, b := range e.Score.Breakdown {
		scores[b.Dimension] = b.Score
	}
	rec := []string{
		e.ID,
		e.Date.UTC().Format(time.RFC3339),
		strconv.Itoa(e.Score.Value),
		string(e.Score.Category),
		e.MoodLabel,
	}
	for _, d := range dims {
		if v, ok := scores[d]; ok {
			rec = append(rec, strconv.Itoa(v))
		} else {
			rec = append(rec, "")
		}
	}
	return rec
}

// dimensionColumns collects breakdown dimensions in first-seen order.
func dimensionColumns(entries []assessment.HistoryEntry) []string {
	seen := map[string]bool{}
	var dims []string
	for _, e := range entries {
		for _, b := range e.Score.Breakdown {
			if !seen[b.Dimension] {
				seen[b.Dimension] = true
				dims = append(dims, b.Dimension)
			}
		}
	}
	return dims
}

// ExportHistoryCSV renders one row per history entry with the breakdown spread into columns.
func ExportHistoryCSV(entries []assessment.HistoryEntry) ([]byte, error) {
	dims := dimensionColumns(entries)
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write(historyHeader(dims))
	for _, e := range entries {
		if err := w.Write(historyRecord(e, dims)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportHistoryXLSX renders the same table as ExportHistoryCSV into a workbook.
// Score columns are written as numbers.
func ExportHistoryXLSX(entries []assessment.HistoryEntry) ([]byte, error) {
	dims := dimensionColumns(entries)
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return nil, err
	}
	header := historyHeader(dims)
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(historySheet, "A1", &headerRow); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(historySheet, 1, 1, bold); err != nil {
		return nil, err
	}
	for i, e := range entries {
		rec := historyRecord(e, dims)
		row := make([]interface{}, len(rec))
		for j, v := range rec {
			row[j] = v
			if j == 2 || j >= 5 {
				if n, err := strconv.Atoi(v); err == nil {
					row[j] = n
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(historySheet, "A", "B", 38); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
