package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

type codedErr struct{}

func (codedErr) Error() string     { return "boom" }
func (codedErr) ErrorCode() string { return "invalid" }

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if got := ParseFormat("console"); got != FormatText {
		t.Fatalf("ParseFormat(console) = %v, want text", got)
	}
	if got := ParseFormat(""); got != FormatJSON {
		t.Fatalf("ParseFormat(\"\") = %v, want json", got)
	}
}

func TestJSONOutputCarriesServiceAndError(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Output: &buf, Service: "solace"})
	l.WithError(codedErr{}).Info("session failed", "session_id", "abc")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, buf.String())
	}
	if rec["service"] != "solace" || rec["error_code"] != "invalid" || rec["session_id"] != "abc" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Format: FormatText, Output: &buf})
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestWithErrorNil(t *testing.T) {
	l := Discard()
	if l.WithError(nil) != l {
		t.Fatal("WithError(nil) should return the receiver")
	}
	_ = l.WithError(errors.New("plain"))
}
