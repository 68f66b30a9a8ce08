package ipc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pairkeep/internal/backend"
	"pairkeep/internal/daemon"
	"pairkeep/internal/ipc"
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

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.RunPollInterval = 60
	st := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/groupings"):
			_ = json.NewEncoder(w).Encode([]organize.Grouping{{ID: "g-1", Name: "Household", CreatedBy: "pairkeep-ai"}})
		case strings.HasSuffix(r.URL.Path, "/items"):
			_ = json.NewEncoder(w).Encode([]backend.Item{})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(backendSrv.Close)

	client := backend.NewClientWithOptions(backendSrv.URL, cfg.Backend.APIToken, cfg.Workspace.ID, logger)
	mgr := workflow.NewManagerWithDependencies(cfg, st, client, stubPlanner{},
		notifications.NewService(cfg), metrics.NewRecorder(), logger)
	d, err := daemon.New(cfg, st, client, mgr, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := filepath.Join(cfg.Paths.LogDir, "pairkeepd.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	time.Sleep(50 * time.Millisecond)

	rpcClient, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		_ = rpcClient.Close()
	})

	status, err := rpcClient.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status.Running {
		t.Fatal("daemon should not be running yet")
	}
	if status.Workspace != cfg.Workspace.ID {
		t.Fatalf("unexpected workspace %q", status.Workspace)
	}

	orgResp, err := rpcClient.Organize("manual")
	if err != nil {
		t.Fatalf("Organize RPC failed: %v", err)
	}
	if orgResp.Run.Status != string(store.StatusPending) {
		t.Fatalf("expected pending run, got %s", orgResp.Run.Status)
	}

	listResp, err := rpcClient.RunsList([]string{"pending"})
	if err != nil {
		t.Fatalf("RunsList RPC failed: %v", err)
	}
	if len(listResp.Runs) != 1 || listResp.Runs[0].ID != orgResp.Run.ID {
		t.Fatalf("unexpected run listing %+v", listResp.Runs)
	}

	describeResp, err := rpcClient.RunDescribe(orgResp.Run.ID)
	if err != nil {
		t.Fatalf("RunDescribe RPC failed: %v", err)
	}
	if describeResp.Run.ID != orgResp.Run.ID {
		t.Fatalf("unexpected run detail %+v", describeResp.Run)
	}
	if _, err := rpcClient.RunDescribe(9999); err == nil {
		t.Fatal("expected error for unknown run id")
	}

	groupingsResp, err := rpcClient.GroupingsList()
	if err != nil {
		t.Fatalf("GroupingsList RPC failed: %v", err)
	}
	if len(groupingsResp.Groupings) != 1 || groupingsResp.Groupings[0].Name != "Household" {
		t.Fatalf("unexpected groupings %+v", groupingsResp.Groupings)
	}

	notifyResp, err := rpcClient.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification RPC failed: %v", err)
	}
	if notifyResp.Sent {
		t.Fatal("test notification should report unconfigured topic")
	}

	clearResp, err := rpcClient.RunsClearAll()
	if err != nil {
		t.Fatalf("RunsClearAll RPC failed: %v", err)
	}
	if clearResp.Removed != 1 {
		t.Fatalf("expected 1 removed run, got %d", clearResp.Removed)
	}

	startResp, err := rpcClient.Start()
	if err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}
	if !startResp.Started {
		t.Fatalf("expected Started=true, message=%s", startResp.Message)
	}

	running, err := rpcClient.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !running.Running {
		t.Fatal("expected daemon to be running")
	}

	stopResp, err := rpcClient.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected Stopped=true")
	}
}
