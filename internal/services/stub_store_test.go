package services

import (
	"sort"

	"github.com/soaringjerry/Solace/internal/models"
)

type stubHistoryStore struct {
	entries  []*models.Entry
	audit    []models.AuditEntry
	addErr   error
	auditErr error
}

func (s *stubHistoryStore) AddEntry(e *models.Entry) error {
	if s.addErr != nil {
		return s.addErr
	}
	copy := *e
	s.entries = append(s.entries, &copy)
	return nil
}

func (s *stubHistoryStore) ListEntries(subjectID string) ([]*models.Entry, error) {
	out := []*models.Entry{}
	for _, e := range s.entries {
		if e.SubjectID == subjectID {
			copy := *e
			out = append(out, &copy)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *stubHistoryStore) GetEntry(id string) (*models.Entry, error) {
	for _, e := range s.entries {
		if e.ID == id {
			copy := *e
			return &copy, nil
		}
	}
	return nil, nil
}

func (s *stubHistoryStore) AddAudit(e models.AuditEntry) error {
	if s.auditErr != nil {
		return s.auditErr
	}
	s.audit = append(s.audit, e)
	return nil
}

func (s *stubHistoryStore) actions() []string {
	out := make([]string, 0, len(s.audit))
	for _, a := range s.audit {
		out = append(out, a.Action)
	}
	return out
}

func (s *stubHistoryStore) DeleteEntries(subjectID string) (int, error) {
	kept := s.entries[:0]
	n := 0
	for _, e := range s.entries {
		if e.SubjectID == subjectID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return n, nil
}
