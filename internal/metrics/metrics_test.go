package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	_, m := NewRegistry()
	m.SessionsStarted.Inc()
	m.SessionsStarted.Inc()
	m.SessionsFinished.WithLabelValues("completed").Inc()

	if got := testutil.ToFloat64(m.SessionsStarted); got != 2 {
		t.Fatalf("sessions started = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SessionsFinished.WithLabelValues("completed")); got != 1 {
		t.Fatalf("sessions completed = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg, m := NewRegistry()
	m.Scores.Observe(72)
	m.Categories.WithLabelValues("healthy").Inc()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"solace_score_bucket", `solace_score_category_total{category="healthy"} 1`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
