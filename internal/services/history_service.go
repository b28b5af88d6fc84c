package services

import (
	"time"

	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/models"
)

const coverageWindowDays = 30

// reversedScales are scale questions where a higher point is worse.
var reversedScales = map[string]bool{assessment.QStressLevel: true}

type HistoryService struct {
	store   HistoryStore
	catalog *assessment.Catalog
	agg     *assessment.Aggregator
	now     func() time.Time
}

type ScaleItem struct {
	ID        string            `json:"id"`
	Prompt    map[string]string `json:"prompt_i18n,omitempty"`
	Reverse   bool              `json:"reverse_scored"`
	Histogram []int             `json:"histogram"`
	Total     int               `json:"total"`
}

type HistorySummary struct {
	SubjectID  string                      `json:"subject_id"`
	Period     assessment.Period           `json:"period"`
	Total      int                         `json:"total"`
	Latest     *assessment.HistoryEntry    `json:"latest,omitempty"`
	MeanScore  float64                     `json:"mean_score"`
	Streak     int                         `json:"streak"`
	Coverage   float64                     `json:"coverage_30d"`
	Categories map[assessment.Category]int `json:"categories"`
	Buckets    []assessment.ChartBucket    `json:"buckets"`
	Scales     []ScaleItem                 `json:"scales"`
	Alpha      float64                     `json:"alpha"`
	N          int                         `json:"n"`
}

func NewHistoryService(store HistoryStore, catalog *assessment.Catalog, loc *time.Location) *HistoryService {
	return &HistoryService{
		store:   store,
		catalog: catalog,
		agg:     assessment.NewAggregator(loc),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Entries returns the subject's stored results, oldest first.
func (s *HistoryService) Entries(subjectID string) ([]*models.Entry, error) {
	if subjectID == "" {
		return nil, NewInvalidError("subject_id is required")
	}
	return s.store.ListEntries(subjectID)
}

// Entry returns one stored result owned by subjectID.
func (s *HistoryService) Entry(subjectID, id string) (*models.Entry, error) {
	e, err := s.store.GetEntry(id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, NewNotFoundError("entry not found")
	}
	if e.SubjectID != subjectID {
		return nil, NewForbiddenError("forbidden")
	}
	return e, nil
}

func (s *HistoryService) Summary(subjectID, period string) (*HistorySummary, error) {
	p := assessment.PeriodWeek
	if period != "" {
		var err error
		if p, err = assessment.ParsePeriod(period); err != nil {
			return nil, NewInvalidError(err.Error())
		}
	}
	stored, err := s.Entries(subjectID)
	if err != nil {
		return nil, err
	}
	entries := models.HistoryEntries(stored)
	now := s.now()
	summary := &HistorySummary{
		SubjectID:  subjectID,
		Period:     p,
		Total:      len(entries),
		Categories: map[assessment.Category]int{},
		Buckets:    s.agg.Bucket(entries, p),
		Streak:     s.agg.Streak(entries, now),
		Coverage:   s.agg.Coverage(entries, now.AddDate(0, 0, -(coverageWindowDays-1)), now),
	}
	var sum int
	for i := range entries {
		e := entries[i]
		sum += e.Score.Value
		summary.Categories[e.Score.Category]++
		if summary.Latest == nil || e.Date.After(summary.Latest.Date) {
			summary.Latest = &e
		}
	}
	if len(entries) > 0 {
		summary.MeanScore = float64(sum) / float64(len(entries))
	}
	scales := s.scaleQuestions()
	summary.Scales = buildScaleItems(scales, stored)
	rows := buildAlphaMatrix(scales, stored)
	summary.Alpha, summary.N = CronbachAlpha(rows), len(rows)
	return summary, nil
}

func (s *HistoryService) scaleQuestions() []assessment.Question {
	var out []assessment.Question
	for _, q := range s.catalog.Questions() {
		if q.Type == assessment.QuestionScale {
			out = append(out, q)
		}
	}
	return out
}

func buildScaleItems(questions []assessment.Question, entries []*models.Entry) []ScaleItem {
	items := make([]ScaleItem, 0, len(questions))
	for _, q := range questions {
		item := ScaleItem{
			ID:        q.ID,
			Prompt:    q.PromptI18n,
			Reverse:   reversedScales[q.ID],
			Histogram: make([]int, assessment.ScaleMax),
		}
		for _, e := range entries {
			if v, ok := e.Answers.Number(q.ID); ok && v >= assessment.ScaleMin && v <= assessment.ScaleMax {
				item.Histogram[int(v)-1]++
				item.Total++
			}
		}
		items = append(items, item)
	}
	return items
}

// buildAlphaMatrix keeps only entries that answered every scale question.
// Reverse-keyed items are flipped so all columns point the same way.
func buildAlphaMatrix(questions []assessment.Question, entries []*models.Entry) [][]float64 {
	if len(questions) < 2 {
		return nil
	}
	rows := make([][]float64, 0, len(entries))
	for _, e := range entries {
		row := make([]float64, 0, len(questions))
		for _, q := range questions {
			v, ok := e.Answers.Number(q.ID)
			if !ok {
				break
			}
			if reversedScales[q.ID] {
				v = float64(assessment.ReverseScore(int(v), assessment.ScaleMax))
			}
			row = append(row, v)
		}
		if len(row) == len(questions) {
			rows = append(rows, row)
		}
	}
	return rows
}
