package daemon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"pairkeep/internal/backend"
	"pairkeep/internal/config"
	"pairkeep/internal/daemon"
	"pairkeep/internal/logging"
	"pairkeep/internal/metrics"
	"pairkeep/internal/notifications"
	"pairkeep/internal/organize"
	"pairkeep/internal/store"
	"pairkeep/internal/testsupport"
	"pairkeep/internal/workflow"
)

type stubPlanner struct{}

func (stubPlanner) ProposePlan(ctx context.Context, items []backend.Item, existing []organize.Grouping) (*organize.Plan, error) {
	return &organize.Plan{}, nil
}

func newBackendServer(t *testing.T, items []backend.Item) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/groupings"):
			_ = json.NewEncoder(w).Encode([]organize.Grouping{})
		case strings.HasSuffix(r.URL.Path, "/items"):
			_ = json.NewEncoder(w).Encode(items)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestDaemon(t *testing.T, cfg *config.Config, items []backend.Item) (*daemon.Daemon, *store.Store) {
	t.Helper()
	server := newBackendServer(t, items)
	st := testsupport.MustOpenStore(t, cfg)
	client := backend.NewClientWithOptions(server.URL, cfg.Backend.APIToken, cfg.Workspace.ID, logging.NewNop())
	wf := workflow.NewManagerWithDependencies(cfg, st, client, stubPlanner{},
		notifications.NewService(cfg), metrics.NewRecorder(), logging.NewNop())
	d, err := daemon.New(cfg, st, client, wf, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return d, st
}

func TestOrganizeQueuesRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, st := newTestDaemon(t, cfg, nil)

	ctx := context.Background()
	run, err := d.Organize(ctx, "")
	if err != nil {
		t.Fatalf("Organize failed: %v", err)
	}
	if run.Trigger != "manual" || run.Status != store.StatusPending {
		t.Fatalf("unexpected run %+v", run)
	}

	stored, err := st.GetByID(ctx, run.ID)
	if err != nil || stored == nil {
		t.Fatalf("queued run not stored: %v", err)
	}

	status := d.Status(ctx)
	if status.Running {
		t.Fatal("daemon should not report running before Start")
	}
	if status.RunHealth.Pending != 1 {
		t.Fatalf("expected 1 pending run, got %+v", status.RunHealth)
	}
	if status.Workspace != cfg.Workspace.ID {
		t.Fatalf("unexpected workspace %q", status.Workspace)
	}
}

func TestStartEnforcesSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, _ := newTestDaemon(t, cfg, nil)
	second, _ := newTestDaemon(t, cfg, nil)

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	defer first.Stop()

	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("second Start should fail while lock is held")
	}

	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("Start after lock release failed: %v", err)
	}
	second.Stop()
}

func TestStopSettlesInFlightRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.RunPollInterval = 60
	d, st := newTestDaemon(t, cfg, nil)

	ctx := context.Background()
	if _, err := st.NewRun(ctx, "manual"); err != nil {
		t.Fatalf("NewRun failed: %v", err)
	}
	claimed, err := st.NextPending(ctx)
	if err != nil || claimed == nil {
		t.Fatalf("claim failed: %v", err)
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	d.Stop()

	run, err := st.GetByID(ctx, claimed.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if run.Status != store.StatusFailed || run.ErrorMessage != store.DaemonStopReason {
		t.Fatalf("in-flight run not settled: %+v", run)
	}
}

func TestExportCalendar(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	due := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	items := []backend.Item{
		{ID: "i1", Title: "renew passports", DueAt: &due},
		{ID: "i2", Title: "no due date"},
	}
	d, _ := newTestDaemon(t, cfg, items)

	path, count, err := d.ExportCalendar(context.Background())
	if err != nil {
		t.Fatalf("ExportCalendar failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 event, got %d", count)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "renew passports") {
		t.Fatalf("export missing event summary:\n%s", data)
	}
}

func TestTestNotificationRequiresTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newTestDaemon(t, cfg, nil)

	ok, detail, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification errored: %v", err)
	}
	if ok || !strings.Contains(detail, "not configured") {
		t.Fatalf("unexpected result ok=%v detail=%q", ok, detail)
	}
}

func TestRunHistoryDelegates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, st := newTestDaemon(t, cfg, nil)

	ctx := context.Background()
	run, err := st.NewRun(ctx, "scheduled")
	if err != nil {
		t.Fatalf("NewRun failed: %v", err)
	}
	run.SetFailed("backend unreachable")
	if err := st.Update(ctx, run); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	runs, err := d.ListRuns(ctx, []store.Status{store.StatusFailed})
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns: %v %d", err, len(runs))
	}

	retried, err := d.RetryFailed(ctx, nil)
	if err != nil || retried != 1 {
		t.Fatalf("RetryFailed: %v %d", err, retried)
	}
	refreshed, err := d.GetRun(ctx, run.ID)
	if err != nil || refreshed.Status != store.StatusPending {
		t.Fatalf("retry did not reset run: %v %+v", err, refreshed)
	}

	cleared, err := d.ClearAll(ctx)
	if err != nil || cleared != 1 {
		t.Fatalf("ClearAll: %v %d", err, cleared)
	}
}
