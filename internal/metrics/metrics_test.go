package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pairkeep/internal/metrics"
	"pairkeep/internal/organize"
)

func scrape(t *testing.T, recorder *metrics.Recorder) string {
	t.Helper()
	server := httptest.NewServer(recorder.Handler())
	t.Cleanup(server.Close)
	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read scrape body: %v", err)
	}
	return string(body)
}

func TestObserveRunCounters(t *testing.T) {
	recorder := metrics.NewRecorder()
	result := &organize.Result{
		CreatedGroupings: map[string]string{"Trip": "g-1"},
		SuccessCount:     3,
		Failures: []organize.Failure{
			{ItemID: "i1", Reason: organize.ReasonUnresolvedDestination},
			{ItemID: "i2", Reason: "not-found"},
		},
	}
	recorder.ObserveRun("applied", result, 2*time.Second)

	body := scrape(t, recorder)
	for _, want := range []string{
		`pairkeep_runs_total{status="applied"} 1`,
		`pairkeep_items_organized_total 3`,
		`pairkeep_groupings_created_total 1`,
		`pairkeep_item_failures_total{reason="not-found"} 1`,
		`pairkeep_item_failures_total{reason="unresolved-destination"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("scrape missing %q in:\n%s", want, body)
		}
	}
}

func TestObserveRunNilResult(t *testing.T) {
	recorder := metrics.NewRecorder()
	recorder.ObserveRun("failed", nil, time.Second)

	body := scrape(t, recorder)
	if !strings.Contains(body, `pairkeep_runs_total{status="failed"} 1`) {
		t.Fatalf("scrape missing failed run counter:\n%s", body)
	}
}
