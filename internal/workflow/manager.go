package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pairkeep/internal/backend"
	"pairkeep/internal/config"
	"pairkeep/internal/logging"
	"pairkeep/internal/metrics"
	"pairkeep/internal/notifications"
	"pairkeep/internal/organize"
	"pairkeep/internal/store"
)

// Workspace is the backend surface the workflow needs: the engine's store
// contracts plus the read operations that feed analysis.
type Workspace interface {
	organize.GroupingCreator
	organize.ItemRelocator
	organize.Refresher
	ListUngroupedItems(ctx context.Context) ([]backend.Item, error)
	ListGroupings(ctx context.Context) ([]organize.Grouping, error)
}

// Planner proposes an organization plan for ungrouped items.
type Planner interface {
	ProposePlan(ctx context.Context, items []backend.Item, existing []organize.Grouping) (*organize.Plan, error)
}

// Manager drives organization runs: it claims pending runs from the store,
// gathers workspace state, asks the planner for a plan, and applies it
// through the engine.
type Manager struct {
	cfg       *config.Config
	store     *store.Store
	workspace Workspace
	planner   Planner
	notifier  notifications.Service
	recorder  *metrics.Recorder
	logger    *slog.Logger

	pollInterval  time.Duration
	errorInterval time.Duration

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastRun *store.Run
}

// NewManager constructs a workflow manager with production dependencies.
func NewManager(cfg *config.Config, st *store.Store, workspace Workspace, planner Planner, logger *slog.Logger) *Manager {
	return NewManagerWithDependencies(cfg, st, workspace, planner, notifications.NewService(cfg), metrics.NewRecorder(), logger)
}

// NewManagerWithDependencies constructs a workflow manager with explicit
// collaborators (used in tests).
func NewManagerWithDependencies(
	cfg *config.Config,
	st *store.Store,
	workspace Workspace,
	planner Planner,
	notifier notifications.Service,
	recorder *metrics.Recorder,
	logger *slog.Logger,
) *Manager {
	poll := time.Duration(cfg.Workflow.RunPollInterval) * time.Second
	if poll <= 0 {
		poll = 5 * time.Second
	}
	retry := time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second
	if retry <= 0 {
		retry = 10 * time.Second
	}
	return &Manager{
		cfg:           cfg,
		store:         st,
		workspace:     workspace,
		planner:       planner,
		notifier:      notifier,
		recorder:      recorder,
		logger:        logging.NewComponentLogger(logger, "workflow"),
		pollInterval:  poll,
		errorInterval: retry,
	}
}

// Recorder exposes the metrics recorder so the daemon can serve it.
func (m *Manager) Recorder() *metrics.Recorder {
	return m.recorder
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.runLoop(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the background loop is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// EnqueueRun records a new pending run for the loop to pick up.
func (m *Manager) EnqueueRun(ctx context.Context, trigger string) (*store.Run, error) {
	return m.store.NewRun(ctx, trigger)
}

func (m *Manager) runLoop(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		run, err := m.store.NextPending(ctx)
		if err != nil {
			m.setLastError(err)
			m.logger.Error("failed to claim next run", logging.Error(err))
			if !m.sleep(ctx, m.errorInterval) {
				return
			}
			continue
		}
		if run == nil {
			if !m.sleep(ctx, m.pollInterval) {
				return
			}
			continue
		}

		if err := m.processRun(ctx, run); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
		}
	}
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = err
}

// LastError returns the most recent loop error, if any.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// LastRun returns a copy of the most recently finished run.
func (m *Manager) LastRun() *store.Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastRun == nil {
		return nil
	}
	cp := *m.lastRun
	return &cp
}

func (m *Manager) setLastRun(run *store.Run) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	m.lastRun = &cp
}
