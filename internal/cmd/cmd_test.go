package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/soaringjerry/Solace/internal/api"
	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := ExecuteContext(context.Background())
	return out.String(), err
}

func TestSubcommandsRegistered(t *testing.T) {
	want := map[string]bool{"take": false, "catalog": false, "history": false, "serve": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestCatalogDumpValidateRoundTrip(t *testing.T) {
	out, err := run(t, "catalog", "dump", "--catalog", "")
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(out, assessment.QStressLevel) {
		t.Fatalf("dump output missing questions:\n%s", out)
	}
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "catalog", "validate", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "14 questions") {
		t.Fatalf("validate output = %q", out)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(bad, []byte("questions:\n  - id: x\n    type: slider\n"), 0o600)
	if _, err := run(t, "catalog", "validate", bad); err == nil {
		t.Fatalf("invalid catalog should fail validation")
	}
}

func TestHistoryCommand(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "history.json")
	out, err := run(t, "history", "--sqlite", "", "--snapshot", snapshot, "--subject", "s1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No assessments yet") {
		t.Fatalf("empty history output = %q", out)
	}

	store, err := api.NewMemoryStoreFromPath(snapshot)
	if err != nil {
		t.Fatal(err)
	}
	_ = store.AddEntry(&models.Entry{HistoryEntry: assessment.HistoryEntry{
		ID:        "e1",
		SubjectID: "s1",
		Date:      time.Now().Add(-time.Hour),
		Score:     assessment.SolaceScore{Value: 82, Category: assessment.CategoryHealthy},
	}})

	out, err = run(t, "history", "--sqlite", "", "--snapshot", snapshot, "--subject", "s1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "1 hour ago") || !strings.Contains(out, "Summary") {
		t.Fatalf("history output = %q", out)
	}

	out, err = run(t, "history", "--sqlite", "", "--snapshot", snapshot, "--subject", "s1", "--json")
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var summary struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal([]byte(out), &summary); err != nil || summary.Total != 1 {
		t.Fatalf("json summary = %q (%v)", out, err)
	}
	historyJSON = false
}
