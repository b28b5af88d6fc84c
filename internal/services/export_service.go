package services

import (
	"fmt"
	"time"

	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/models"
)

const (
	FormatAnswersCSV  = "answers"
	FormatHistoryCSV  = "history"
	FormatHistoryXLSX = "xlsx"

	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ExportStore interface {
	ListEntries(subjectID string) ([]*models.Entry, error)
}

type ExportParams struct {
	SubjectID string
	Format    string
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store   ExportStore
	catalog *assessment.Catalog
	now     func() time.Time
}

func NewExportService(store ExportStore, catalog *assessment.Catalog) *ExportService {
	return &ExportService{store: store, catalog: catalog, now: func() time.Time { return time.Now().UTC() }}
}

func (s *ExportService) Export(params ExportParams) (*ExportResult, error) {
	if params.SubjectID == "" {
		return nil, NewInvalidError("subject_id required")
	}
	format := params.Format
	if format == "" {
		format = FormatHistoryCSV
	}
	entries, err := s.store.ListEntries(params.SubjectID)
	if err != nil {
		return nil, err
	}
	stamp := s.now().Format("20060102")
	switch format {
	case FormatAnswersCSV:
		data, err := ExportAnswersCSV(AnswerRows(s.catalog, entries))
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: fmt.Sprintf("solace_answers_%s.csv", stamp), ContentType: contentTypeCSV, Data: data}, nil
	case FormatHistoryCSV:
		data, err := ExportHistoryCSV(models.HistoryEntries(entries))
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: fmt.Sprintf("solace_history_%s.csv", stamp), ContentType: contentTypeCSV, Data: data}, nil
	case FormatHistoryXLSX:
		data, err := ExportHistoryXLSX(models.HistoryEntries(entries))
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: fmt.Sprintf("solace_history_%s.xlsx", stamp), ContentType: contentTypeXLSX, Data: data}, nil
	default:
		return nil, NewInvalidError("unsupported format")
	}
}
