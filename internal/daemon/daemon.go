package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"pairkeep/internal/backend"
	"pairkeep/internal/calendar"
	"pairkeep/internal/config"
	"pairkeep/internal/logging"
	"pairkeep/internal/logs"
	"pairkeep/internal/metrics"
	"pairkeep/internal/notifications"
	"pairkeep/internal/organize"
	"pairkeep/internal/store"
	"pairkeep/internal/workflow"
)

// Daemon coordinates the background services and enforces single-instance
// execution through a file lock.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	backend  *backend.Client
	workflow *workflow.Manager
	metrics  *metrics.Server
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Workspace    string
	RunDBPath    string
	LockFilePath string
	RunHealth    store.HealthSummary
	LastRun      *store.Run
	LastError    string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, client *backend.Client, wf *workflow.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || client == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, backend client, and workflow manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		backend:  client,
		workflow: wf,
		logPath:  filepath.Join(cfg.Paths.LogDir, "pairkeep.log"),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	if cfg.Metrics.Enabled {
		d.metrics = metrics.NewServer(wf.Recorder(), cfg.Metrics.Bind, logger)
	}
	return d, nil
}

// Start launches the workflow manager and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another pairkeep daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}
	if d.metrics != nil {
		if err := d.metrics.Start(); err != nil {
			d.logger.Warn("metrics endpoint unavailable", logging.Error(err))
		}
	}

	d.running.Store(true)
	d.logger.Info("pairkeep daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock. In-flight
// runs are failed so they don't stay stuck in a processing status.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if d.metrics != nil {
		if err := d.metrics.Stop(context.Background()); err != nil {
			d.logger.Warn("metrics shutdown failed", logging.Error(err))
		}
	}
	if n, err := d.store.FailProcessing(context.Background(), store.DaemonStopReason); err != nil {
		d.logger.Warn("failed to settle in-flight runs", logging.Error(err))
	} else if n > 0 {
		d.logger.Info("settled interrupted runs", logging.Int64("count", n))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("pairkeep daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Organize enqueues a new organization run.
func (d *Daemon) Organize(ctx context.Context, trigger string) (*store.Run, error) {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		trigger = "manual"
	}
	run, err := d.workflow.EnqueueRun(ctx, trigger)
	if err != nil {
		return nil, fmt.Errorf("enqueue run: %w", err)
	}
	d.logger.Info("organization run queued",
		logging.Int64(logging.FieldRunID, run.ID),
		logging.String("trigger", trigger))
	return run, nil
}

// ListRuns returns runs filtered by optional statuses.
func (d *Daemon) ListRuns(ctx context.Context, statuses []store.Status) ([]*store.Run, error) {
	if len(statuses) == 0 {
		return d.store.List(ctx)
	}
	return d.store.List(ctx, statuses...)
}

// GetRun returns one run by id, or nil when it doesn't exist.
func (d *Daemon) GetRun(ctx context.Context, id int64) (*store.Run, error) {
	return d.store.GetByID(ctx, id)
}

// RetryFailed resets failed runs (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	return d.store.RetryFailed(ctx, ids...)
}

// ClearCompleted removes applied runs from history.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	return d.store.ClearCompleted(ctx)
}

// ClearAll removes every run from history.
func (d *Daemon) ClearAll(ctx context.Context) (int64, error) {
	return d.store.ClearAll(ctx)
}

// RunHealth returns aggregate run diagnostics.
func (d *Daemon) RunHealth(ctx context.Context) (store.HealthSummary, error) {
	return d.store.Health(ctx)
}

// ListGroupings returns the workspace's groupings from the backend.
func (d *Daemon) ListGroupings(ctx context.Context) ([]organize.Grouping, error) {
	return d.backend.ListGroupings(ctx)
}

// ExportCalendar writes due-dated items to an ICS file in the export
// directory and returns the path and event count.
func (d *Daemon) ExportCalendar(ctx context.Context) (string, int, error) {
	items, err := d.backend.ListItems(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("list items: %w", err)
	}
	path, count, err := calendar.Export(items, d.cfg.Calendar.Name, d.cfg.Paths.ExportDir)
	if err != nil {
		return "", 0, err
	}
	d.logger.Info("calendar exported",
		logging.String("path", path),
		logging.Int("events", count))
	return path, count, nil
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// LogTail reads recent log lines. A negative offset reads the last limit
// lines; otherwise reading resumes from the given byte offset.
func (d *Daemon) LogTail(offset int64, limit int) (logs.TailResult, error) {
	return logs.Tail(d.logPath, logs.TailOptions{Offset: offset, Limit: limit})
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		Workspace:    d.cfg.Workspace.ID,
		RunDBPath:    d.store.Path(),
		LockFilePath: d.lockPath,
		LastRun:      d.workflow.LastRun(),
	}
	if health, err := d.store.Health(ctx); err == nil {
		status.RunHealth = health
	}
	if err := d.workflow.LastError(); err != nil {
		status.LastError = err.Error()
	}
	return status
}
