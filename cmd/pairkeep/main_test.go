package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"pairkeep/internal/backend"
	"pairkeep/internal/config"
	"pairkeep/internal/daemon"
	"pairkeep/internal/ipc"
	"pairkeep/internal/logging"
	"pairkeep/internal/metrics"
	"pairkeep/internal/notifications"
	"pairkeep/internal/organize"
	"pairkeep/internal/store"
	"pairkeep/internal/workflow"
)

type stubPlanner struct{}

func (stubPlanner) ProposePlan(ctx context.Context, items []backend.Item, existing []organize.Grouping) (*organize.Plan, error) {
	return &organize.Plan{}, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	daemon     *daemon.Daemon
	socketPath string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	due := time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/llm"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": `{"ok": true}`}},
				},
			})
		case strings.HasSuffix(r.URL.Path, "/groupings"):
			_ = json.NewEncoder(w).Encode([]organize.Grouping{{ID: "g-1", Name: "Household", CreatedBy: "pairkeep-ai"}})
		case strings.HasSuffix(r.URL.Path, "/items"):
			_ = json.NewEncoder(w).Encode([]backend.Item{
				{ID: "i1", Title: "book flights", DueAt: &due},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ExportDir = filepath.Join(base, "export")
	cfgVal.Workspace.ID = "ws-test"
	cfgVal.Workspace.Member = "tester"
	cfgVal.Backend.BaseURL = server.URL
	cfgVal.Backend.APIToken = "test-token"
	cfgVal.LLM.APIKey = "test-key"
	cfgVal.LLM.BaseURL = server.URL + "/llm"
	cfgVal.Workflow.RunPollInterval = 60
	cfg := &cfgVal

	configPath := filepath.Join(base, "config.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	logger := logging.NewNop()
	client := backend.NewClient(cfg, logger)
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

	socketPath := filepath.Join(base, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	time.Sleep(50 * time.Millisecond)

	return &cliTestEnv{
		cfg:        cfg,
		store:      st,
		daemon:     d,
		socketPath: socketPath,
		configPath: configPath,
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()

	full := append([]string{}, args...)
	if socket != "" {
		full = append(full, "--socket", socket)
	}
	if configPath != "" {
		full = append(full, "--config", configPath)
	}

	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(full)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestCLIOrganizeAndRuns(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"organize"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	requireContains(t, out, "Queued organization run 1")

	out, _, err = runCLI(t, []string{"runs", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, "pending")

	out, _, err = runCLI(t, []string{"runs", "show", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, out, "Run 1 (pending)")

	out, _, err = runCLI(t, []string{"runs", "retry"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("runs retry: %v", err)
	}
	requireContains(t, out, "Retried 0 failed runs")

	out, _, err = runCLI(t, []string{"runs", "clear", "--all"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("runs clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 runs")
}

func TestCLIGroupingsAndExport(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"groupings"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("groupings: %v", err)
	}
	requireContains(t, out, "Household")

	out, _, err = runCLI(t, []string{"export-calendar"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("export-calendar: %v", err)
	}
	requireContains(t, out, "Exported 1 events to")
}

func TestCLITestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "ntfy topic not configured")
}

func TestCLIStatusOffline(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Pairkeep")
	requireContains(t, out, "Not running")
	requireContains(t, out, "Run Status")
}

func TestCLIConfigShowRedactsSecrets(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, "", env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "ws-test")
	requireContains(t, out, "<redacted>")
	if strings.Contains(out, "test-token") || strings.Contains(out, "test-key") {
		t.Fatalf("expected secrets redacted, got:\n%s", out)
	}
}

func TestCLILogs(t *testing.T) {
	env := setupCLITestEnv(t)

	logPath := filepath.Join(env.cfg.Paths.LogDir, "pairkeep.log")
	if err := os.WriteFile(logPath, []byte("line one\nline two\n"), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "line two")
	if strings.Contains(out, "line one") {
		t.Fatalf("expected only the last line, got:\n%s", out)
	}
}

func TestCLIRejectsInvalidRunID(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"runs", "show", "zero"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "invalid run id") {
		t.Fatalf("expected invalid run id error, got %v", err)
	}
}
