package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/soaringjerry/Solace/internal/api"
	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/log"
	"github.com/soaringjerry/Solace/internal/models"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SOLACE_ADDR", " :9090 ")
	t.Setenv("SOLACE_SESSION_TTL", "45m")
	t.Setenv("SOLACE_CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SOLACE_TIMEZONE", "Asia/Shanghai")
	cfg := ConfigFromEnv()
	if cfg.Addr != ":9090" || cfg.SessionTTL != 45*time.Minute {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("origins = %v", cfg.CORSOrigins)
	}
	if _, err := cfg.Location(); err != nil {
		t.Fatalf("location: %v", err)
	}
	cfg.Timezone = "Mars/Olympus"
	if _, err := cfg.Location(); err == nil {
		t.Fatalf("bad timezone should fail")
	}
}

func TestAppServesHealthAndMetrics(t *testing.T) {
	cfg := Config{Timezone: "UTC", ShareSecret: "0123456789abcdef-secret", Commit: "abc123"}
	app, err := New(cfg, log.Discard())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer app.Close()
	srv := httptest.NewServer(app.Handler)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/health?lang=zh")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if res.StatusCode != http.StatusOK || !strings.Contains(string(body), `"commit":"abc123"`) {
		t.Fatalf("health = %d %s", res.StatusCode, body)
	}
	if res.Header.Get("X-Frame-Options") != "DENY" || res.Header.Get("Cache-Control") == "" {
		t.Fatalf("middleware headers missing: %v", res.Header)
	}

	res, err = http.Post(srv.URL+"/api/sessions", "application/json", strings.NewReader(`{"subject_id":"probe"}`))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("start status = %d", res.StatusCode)
	}

	res, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ = io.ReadAll(res.Body)
	res.Body.Close()
	for _, want := range []string{"solace_sessions_started_total 1", `route="/api/sessions"`} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}

func TestImportLegacyIntoSQLite(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "legacy.json")
	legacy, err := api.NewMemoryStoreFromPath(snapshot)
	if err != nil {
		t.Fatal(err)
	}
	for i, id := range []string{"e1", "e2"} {
		_ = legacy.AddEntry(&models.Entry{
			HistoryEntry: assessment.HistoryEntry{
				ID:        id,
				SubjectID: "s1",
				Date:      time.Date(2025, 9, i+1, 8, 0, 0, 0, time.UTC),
				Score:     assessment.SolaceScore{Value: 64, Category: assessment.CategoryUnstable},
			},
			Answers: assessment.Answers{assessment.QMood: assessment.NumberValue(3)},
		})
	}
	_ = legacy.AddAudit(models.AuditEntry{Action: "session.completed", Target: "e1"})

	cfg := Config{SQLitePath: filepath.Join(dir, "solace.db"), LegacyExport: snapshot, SealKey: "a-long-enough-seal-key"}
	store, conn, err := OpenStore(cfg, log.Discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if n, _ := store.CountEntries(); n != 2 {
		t.Fatalf("imported %d entries", n)
	}
	if n, err := ImportLegacy(snapshot, store, log.Discard()); err != nil || n != 0 {
		t.Fatalf("second import = %d, %v", n, err)
	}
	entries, _ := store.ListEntries("s1")
	if len(entries) != 2 || entries[0].ID != "e1" {
		t.Fatalf("entries = %+v", entries)
	}
	if v, ok := entries[0].Answers.Number(assessment.QMood); !ok || v != 3 {
		t.Fatalf("answers not imported: %v", entries[0].Answers)
	}
	conn.Close()
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog("")
	if err != nil || c.Len() != assessment.DefaultCatalog().Len() {
		t.Fatalf("default catalog: %v", err)
	}
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing catalog file should fail")
	}
}
