package organize

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"pairkeep/internal/logging"
	"pairkeep/internal/services"
)

// ErrApplyInProgress is returned when Apply is called while another plan is
// already applying on the same engine. Callers serialize application attempts
// per workspace; the engine only guards against overlap.
var ErrApplyInProgress = errors.New("plan application already in progress")

const refreshTimeout = 5 * time.Second

// GroupingCreator creates named groupings in the workspace.
type GroupingCreator interface {
	CreateGrouping(ctx context.Context, name string) (Grouping, error)
}

// ItemRelocator updates the grouping membership of a single item. Updates are
// set-operations: writing the same grouping twice succeeds silently.
type ItemRelocator interface {
	UpdateItemGrouping(ctx context.Context, itemID, groupingID string) error
}

// Refresher signals listeners (UI, caches) to re-read groupings. The call is
// best-effort and must never influence the apply outcome.
type Refresher interface {
	RefreshGroupings(ctx context.Context)
}

// Engine applies organization plans against the injected stores.
type Engine struct {
	workspace string
	creator   GroupingCreator
	relocator ItemRelocator
	refresher Refresher
	logger    *slog.Logger

	mu    sync.Mutex
	state State
	known map[string]string
}

// NewEngine constructs a plan application engine for one workspace.
func NewEngine(workspace string, creator GroupingCreator, relocator ItemRelocator, refresher Refresher, logger *slog.Logger) *Engine {
	return &Engine{
		workspace: strings.TrimSpace(workspace),
		creator:   creator,
		relocator: relocator,
		refresher: refresher,
		logger:    logging.NewComponentLogger(logger, "engine"),
		state:     StateIdle,
		known:     map[string]string{},
	}
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// StartAnalysis moves the machine into StateAnalyzing for a new plan.
func (e *Engine) StartAnalysis() error {
	return e.transition(StateAnalyzing)
}

// PlanReady marks analysis complete and the plan ready for application.
func (e *Engine) PlanReady() error {
	return e.transition(StatePlanned)
}

// MarkFailed records a failed analysis or application.
func (e *Engine) MarkFailed() error {
	return e.transition(StateFailed)
}

// SeedGroupings records groupings already present in the workspace so that
// relocations can resolve them by name and repeat applications do not create
// duplicates.
func (e *Engine) SeedGroupings(existing map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.known = make(map[string]string, len(existing))
	for name, id := range existing {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" || strings.TrimSpace(id) == "" {
			continue
		}
		e.known[trimmed] = id
	}
}

func (e *Engine) transition(next State) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateApplying && next != StateApplied && next != StateFailed {
		return ErrApplyInProgress
	}
	if !e.state.CanTransition(next) {
		return services.Wrap(services.ErrValidation, "organizing", "transition state",
			"illegal state transition "+string(e.state)+" -> "+string(next), nil)
	}
	e.state = next
	return nil
}

// Apply orchestrates a full plan application: deduplicate grouping names,
// create missing groupings, resolve and execute relocations, assemble the
// result, and signal a refresh. Only structural errors (missing plan, missing
// workspace identity, overlapping application) are returned; every
// per-grouping and per-item failure is captured inside the Result.
func (e *Engine) Apply(ctx context.Context, plan *Plan) (*Result, error) {
	if plan == nil {
		return nil, services.Wrap(services.ErrValidation, "organizing", "validate plan", "no plan provided", nil)
	}
	if e.workspace == "" {
		return nil, services.Wrap(services.ErrConfiguration, "organizing", "validate workspace",
			"workspace identity required for grouping creation", nil)
	}
	if err := e.beginApply(); err != nil {
		return nil, err
	}

	logger := logging.WithContext(ctx, e.logger)
	logger.Info("applying organization plan",
		logging.Int("new_groupings", len(plan.NewGroupings)),
		logging.Int("relocations", len(plan.Relocations)))

	result := &Result{CreatedGroupings: map[string]string{}}

	e.createMissingGroupings(ctx, dedupeNames(plan.NewGroupings), result)
	e.applyRelocations(ctx, plan.Relocations, result)

	e.settle(StateApplied)

	logger.Info("organization plan applied",
		logging.Int("succeeded", result.SuccessCount),
		logging.Int("failed", len(result.Failures)),
		logging.Int("groupings_created", len(result.CreatedGroupings)))

	e.signalRefresh(ctx)

	return result, nil
}

func (e *Engine) beginApply() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateApplying {
		return ErrApplyInProgress
	}
	if !e.state.CanTransition(StateApplying) {
		return services.Wrap(services.ErrValidation, "organizing", "begin apply",
			"cannot apply from state "+string(e.state), nil)
	}
	e.state = StateApplying
	return nil
}

func (e *Engine) settle(next State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateApplying {
		e.state = next
	}
}

// createMissingGroupings creates each deduplicated name sequentially in input
// order. A failed creation is logged and skipped so a broken name cannot
// stall the rest of the reorganization; relocations that depend on it become
// unresolvable instead.
func (e *Engine) createMissingGroupings(ctx context.Context, names []string, result *Result) {
	logger := logging.WithContext(ctx, e.logger)
	for _, name := range names {
		if id, ok := e.knownID(name); ok {
			logger.Debug("grouping already exists", logging.String(logging.FieldGrouping, name))
			result.CreatedGroupings[name] = id
			continue
		}
		grouping, err := e.creator.CreateGrouping(ctx, name)
		if err != nil {
			logger.Warn("grouping creation failed; skipping",
				logging.String(logging.FieldGrouping, name),
				logging.Error(err))
			continue
		}
		logger.Debug("grouping created",
			logging.String(logging.FieldGrouping, name),
			logging.String("grouping_id", grouping.ID))
		result.CreatedGroupings[name] = grouping.ID
	}
}

// applyRelocations replays the relocations in input order as an ordered fold
// with independent per-item outcomes. Duplicate item IDs within one plan are
// last-applied-wins: later writes overwrite earlier ones at the store.
func (e *Engine) applyRelocations(ctx context.Context, relocations []Relocation, result *Result) {
	logger := logging.WithContext(ctx, e.logger)
	for _, relocation := range relocations {
		destination, ok := e.resolveDestination(relocation, result.CreatedGroupings)
		if !ok {
			logger.Warn("relocation destination unresolved",
				logging.String(logging.FieldItemID, relocation.ItemID),
				logging.String(logging.FieldGrouping, relocation.GroupingName))
			result.Failures = append(result.Failures, Failure{
				ItemID: relocation.ItemID,
				Reason: ReasonUnresolvedDestination,
			})
			continue
		}
		if err := e.relocator.UpdateItemGrouping(ctx, relocation.ItemID, destination); err != nil {
			logger.Warn("relocation failed",
				logging.String(logging.FieldItemID, relocation.ItemID),
				logging.String("grouping_id", destination),
				logging.Error(err))
			result.Failures = append(result.Failures, Failure{
				ItemID: relocation.ItemID,
				Reason: services.Reason(err),
			})
			continue
		}
		result.SuccessCount++
	}
}

// resolveDestination picks the concrete grouping identifier for a relocation.
// An explicit identifier wins; otherwise the name is looked up among the
// groupings created by this application and the seeded pre-existing ones.
func (e *Engine) resolveDestination(relocation Relocation, created map[string]string) (string, bool) {
	if id := strings.TrimSpace(relocation.GroupingID); id != "" {
		return id, true
	}
	name := strings.TrimSpace(relocation.GroupingName)
	if name == "" {
		return "", false
	}
	if id, ok := created[name]; ok {
		return id, true
	}
	return e.knownID(name)
}

func (e *Engine) knownID(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.known[name]
	return id, ok
}

// signalRefresh fires the best-effort refresh signal. Errors are the
// refresher's to swallow; a bounded timeout keeps the signal from outliving
// the apply call.
func (e *Engine) signalRefresh(ctx context.Context) {
	if e.refresher == nil {
		return
	}
	refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
	defer cancel()
	e.refresher.RefreshGroupings(refreshCtx)
}
