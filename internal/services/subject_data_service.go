package services

import (
	"strconv"
	"time"

	"github.com/soaringjerry/Solace/internal/log"
	"github.com/soaringjerry/Solace/internal/metrics"
	"github.com/soaringjerry/Solace/internal/models"
)

type SubjectStore interface {
	ListEntries(subjectID string) ([]*models.Entry, error)
	DeleteEntries(subjectID string) (int, error)
	AddAudit(e models.AuditEntry) error
}

// SubjectDataService lets a subject take out or erase everything stored about them.
type SubjectDataService struct {
	store   SubjectStore
	logger  *log.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewSubjectDataService uses log.Default when logger is nil; m may be nil.
func NewSubjectDataService(store SubjectStore, logger *log.Logger, m *metrics.Metrics) *SubjectDataService {
	if logger == nil {
		logger = log.Default()
	}
	return &SubjectDataService{store: store, logger: logger, metrics: m, now: func() time.Time { return time.Now().UTC() }}
}

type SubjectExport struct {
	SubjectID  string          `json:"subject_id"`
	ExportedAt time.Time       `json:"exported_at"`
	Entries    []*models.Entry `json:"entries"`
}

func (s *SubjectDataService) Export(subjectID string) (*SubjectExport, error) {
	if subjectID == "" {
		return nil, NewInvalidError("subject_id required")
	}
	entries, err := s.store.ListEntries(subjectID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	s.audit(models.AuditEntry{Time: now, Actor: subjectID, Action: "subject.export", Target: subjectID})
	return &SubjectExport{SubjectID: subjectID, ExportedAt: now, Entries: entries}, nil
}

// Delete removes every stored result of subjectID. Audit records stay.
func (s *SubjectDataService) Delete(subjectID string) (int, error) {
	if subjectID == "" {
		return 0, NewInvalidError("subject_id required")
	}
	n, err := s.store.DeleteEntries(subjectID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, NewNotFoundError("no stored results")
	}
	s.audit(models.AuditEntry{Time: s.now(), Actor: subjectID, Action: "subject.delete", Target: subjectID, Note: strconv.Itoa(n)})
	return n, nil
}

// audit failures do not undo the export or deletion they describe.
func (s *SubjectDataService) audit(e models.AuditEntry) {
	if err := s.store.AddAudit(e); err != nil {
		if s.metrics != nil {
			s.metrics.PersistenceErrors.WithLabelValues("add_audit").Inc()
		}
		s.logger.WithError(err).Warn("audit write failed", "action", e.Action, "subject_id", e.Target)
	}
}
