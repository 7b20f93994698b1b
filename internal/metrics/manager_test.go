package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestDomainCounters verifies the workout counters by label.
func TestDomainCounters(t *testing.T) {
	m := NewTestManager()
	m.SetLogged("strength")
	m.SetLogged("strength")
	m.SetLogged("cardio")
	m.PRAlert("max_weight")
	m.SessionFinished("target_met")
	m.SessionsImported("alpha", 4)

	if got := testutil.ToFloat64(m.CounterSetsLogged.WithLabelValues("strength")); got != 2 {
		t.Errorf("strength sets = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CounterSetsLogged.WithLabelValues("cardio")); got != 1 {
		t.Errorf("cardio sets = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CounterPRAlerts.WithLabelValues("max_weight")); got != 1 {
		t.Errorf("pr alerts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CounterSessionsFinished.WithLabelValues("target_met")); got != 1 {
		t.Errorf("finished = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CounterImportedSessions.WithLabelValues("alpha")); got != 4 {
		t.Errorf("imported = %v, want 4", got)
	}
}

// TestHandlerExposesRegistry verifies the scrape output contains our series.
func TestHandlerExposesRegistry(t *testing.T) {
	m := NewTestManager()
	m.PRAlert("volume")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `liftlog_test_pr_alerts_total{kind="volume"} 1`) {
		t.Errorf("scrape output missing pr alert series:\n%s", body)
	}
}
