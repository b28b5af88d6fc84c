package models

import (
	"time"

	"github.com/soaringjerry/Solace/internal/assessment"
)

// Entry is a persisted assessment result: the history entry shown in charts
// plus the visible answers it was computed from.
type Entry struct {
	assessment.HistoryEntry
	Locale    string             `json:"locale,omitempty"`
	StartedAt time.Time          `json:"started_at"`
	Answers   assessment.Answers `json:"answers,omitempty"`
}

// HistoryEntries strips the stored answers.
func HistoryEntries(entries []*Entry) []assessment.HistoryEntry {
	out := make([]assessment.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.HistoryEntry)
	}
	return out
}

// AuditEntry records a session lifecycle event. No answer content is stored here.
type AuditEntry struct {
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Target string    `json:"target"`
	Note   string    `json:"note,omitempty"`
}
