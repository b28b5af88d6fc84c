package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/models"
	"github.com/soaringjerry/Solace/internal/services"
)

// Snapshot is the on-disk form of a MemoryStore.
type Snapshot struct {
	Entries []*models.Entry     `json:"entries"`
	Audit   []models.AuditEntry `json:"audit"`
}

// MemoryStore keeps history in process. When created with a path, every
// write is flushed to a JSON snapshot so results survive a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]*models.Entry
	bySubject map[string][]string
	audit     []models.AuditEntry
	path      string
}

var (
	_ services.HistoryStore = (*MemoryStore)(nil)
	_ services.SubjectStore = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:   map[string]*models.Entry{},
		bySubject: map[string][]string{},
	}
}

// NewMemoryStoreFromPath loads the snapshot at path if it exists and keeps
// writing to it. An empty path gives a purely in-memory store.
func NewMemoryStoreFromPath(path string) (*MemoryStore, error) {
	s := NewMemoryStore()
	if path == "" {
		return s, nil
	}
	s.path = path
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	for _, e := range snap.Entries {
		if e != nil && e.ID != "" {
			s.put(e)
		}
	}
	s.audit = append(s.audit, snap.Audit...)
	return s, nil
}

func (s *MemoryStore) put(e *models.Entry) {
	if _, ok := s.entries[e.ID]; !ok {
		s.bySubject[e.SubjectID] = append(s.bySubject[e.SubjectID], e.ID)
	}
	s.entries[e.ID] = e
}

func (s *MemoryStore) AddEntry(e *models.Entry) error {
	if e == nil || e.ID == "" {
		return errors.New("entry id required")
	}
	cp := cloneEntry(e)
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.entries[cp.ID]
	s.put(cp)
	if err := s.flushLocked(); err != nil {
		// keep memory identical to what is on disk
		if existed {
			s.entries[cp.ID] = prev
		} else {
			delete(s.entries, cp.ID)
			ids := s.bySubject[cp.SubjectID]
			if ids = ids[:len(ids)-1]; len(ids) == 0 {
				delete(s.bySubject, cp.SubjectID)
			} else {
				s.bySubject[cp.SubjectID] = ids
			}
		}
		return err
	}
	return nil
}

// ListEntries returns copies ordered by date, oldest first.
func (s *MemoryStore) ListEntries(subjectID string) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.bySubject[subjectID]
	out := make([]*models.Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneEntry(s.entries[id]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *MemoryStore) GetEntry(id string) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	return cloneEntry(e), nil
}

func (s *MemoryStore) DeleteEntries(subjectID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.bySubject[subjectID]
	if len(ids) == 0 {
		return 0, nil
	}
	removed := make([]*models.Entry, 0, len(ids))
	for _, id := range ids {
		removed = append(removed, s.entries[id])
		delete(s.entries, id)
	}
	delete(s.bySubject, subjectID)
	if err := s.flushLocked(); err != nil {
		for _, e := range removed {
			s.entries[e.ID] = e
		}
		s.bySubject[subjectID] = ids
		return 0, err
	}
	return len(ids), nil
}

func (s *MemoryStore) AddAudit(e models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, e)
	if err := s.flushLocked(); err != nil {
		s.audit = s.audit[:len(s.audit)-1]
		return err
	}
	return nil
}

// ListAudit returns the newest limit records, newest first. limit <= 0 means all.
func (s *MemoryStore) ListAudit(limit int) ([]models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.audit)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]models.AuditEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.audit[i])
	}
	return out, nil
}

func (s *MemoryStore) CountEntries() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Snapshot returns a copy of everything held, entries ordered by date.
func (s *MemoryStore) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *MemoryStore) snapshotLocked() *Snapshot {
	snap := &Snapshot{Entries: make([]*models.Entry, 0, len(s.entries))}
	for _, e := range s.entries {
		snap.Entries = append(snap.Entries, cloneEntry(e))
	}
	sort.SliceStable(snap.Entries, func(i, j int) bool {
		if snap.Entries[i].Date.Equal(snap.Entries[j].Date) {
			return snap.Entries[i].ID < snap.Entries[j].ID
		}
		return snap.Entries[i].Date.Before(snap.Entries[j].Date)
	})
	snap.Audit = append([]models.AuditEntry(nil), s.audit...)
	return snap
}

// flushLocked writes the snapshot through a temp file and rename.
func (s *MemoryStore) flushLocked() error {
	if s.path == "" {
		return nil
	}
	b, err := json.Marshal(s.snapshotLocked())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func cloneEntry(e *models.Entry) *models.Entry {
	cp := *e
	cp.Answers = e.Answers.Clone()
	cp.Score.Breakdown = append([]assessment.BreakdownItem(nil), e.Score.Breakdown...)
	cp.Score.Recommendations = append([]string(nil), e.Score.Recommendations...)
	return &cp
}
