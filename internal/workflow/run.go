package workflow

import (
	"context"
	"fmt"
	"time"

	"pairkeep/internal/logging"
	"pairkeep/internal/organize"
	"pairkeep/internal/services"
	"pairkeep/internal/store"
)

// processRun executes one organization run end to end. The run is already in
// StatusAnalyzing when it arrives here; every exit path settles it to applied
// or failed and persists the outcome.
func (m *Manager) processRun(ctx context.Context, run *store.Run) error {
	started := time.Now()
	runCtx := services.WithRunID(ctx, run.ID)
	logger := logging.WithContext(runCtx, m.logger)
	logger.Info("run started", logging.String("trigger", run.Trigger))

	result, err := m.executeRun(runCtx, run)
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown: leave the run for FailProcessing to settle.
			return ctx.Err()
		}
		run.SetFailed(err.Error())
		if storeErr := m.store.Update(runCtx, run); storeErr != nil {
			logger.Error("failed to persist run failure", logging.Error(storeErr))
		}
		m.recorder.ObserveRun(string(store.StatusFailed), nil, time.Since(started))
		m.setLastRun(run)
		if notifyErr := m.notifier.NotifyError(runCtx, err, fmt.Sprintf("run %d", run.ID)); notifyErr != nil {
			logger.Warn("error notification failed", logging.Error(notifyErr))
		}
		logger.Error("run failed", logging.Error(err))
		return err
	}

	if err := run.SetResult(result); err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	if err := m.store.Update(runCtx, run); err != nil {
		return fmt.Errorf("persist run result: %w", err)
	}
	m.recorder.ObserveRun(string(store.StatusApplied), result, time.Since(started))
	m.setLastRun(run)

	if err := m.notifier.NotifyOrganizationCompleted(runCtx, result); err != nil {
		logger.Warn("completion notification failed", logging.Error(err))
	}
	logger.Info("run completed",
		logging.Int("organized", result.SuccessCount),
		logging.Int("failed", len(result.Failures)))
	return nil
}

func (m *Manager) executeRun(ctx context.Context, run *store.Run) (*organize.Result, error) {
	logger := logging.WithContext(ctx, m.logger)

	items, err := m.workspace.ListUngroupedItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ungrouped items: %w", err)
	}
	run.ItemCount = len(items)
	if len(items) == 0 {
		logger.Info("nothing to organize")
		return &organize.Result{CreatedGroupings: map[string]string{}}, nil
	}

	if err := m.notifier.NotifyRunStarted(ctx, len(items)); err != nil {
		logger.Warn("start notification failed", logging.Error(err))
	}

	existing, err := m.workspace.ListGroupings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groupings: %w", err)
	}

	engine := organize.NewEngine(m.cfg.Workspace.ID, m.workspace, m.workspace, m.workspace, m.logger)
	if err := engine.StartAnalysis(); err != nil {
		return nil, err
	}
	seed := make(map[string]string, len(existing))
	for _, grouping := range existing {
		seed[grouping.Name] = grouping.ID
	}
	engine.SeedGroupings(seed)

	plan, err := m.planner.ProposePlan(ctx, items, existing)
	if err != nil {
		if markErr := engine.MarkFailed(); markErr != nil {
			logger.Warn("engine state not settled", logging.Error(markErr))
		}
		return nil, fmt.Errorf("propose plan: %w", err)
	}
	if err := run.SetPlan(plan); err != nil {
		return nil, err
	}
	if err := m.store.Update(ctx, run); err != nil {
		return nil, fmt.Errorf("persist plan: %w", err)
	}
	if err := engine.PlanReady(); err != nil {
		return nil, err
	}
	if err := m.notifier.NotifyPlanProposed(ctx, len(plan.NewGroupings), len(plan.Relocations)); err != nil {
		logger.Warn("plan notification failed", logging.Error(err))
	}

	run.Status = store.StatusApplying
	if err := m.store.Update(ctx, run); err != nil {
		return nil, fmt.Errorf("persist applying status: %w", err)
	}

	result, err := engine.Apply(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("apply plan: %w", err)
	}
	return result, nil
}
