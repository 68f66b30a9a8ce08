package organize_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"pairkeep/internal/logging"
	"pairkeep/internal/organize"
	"pairkeep/internal/services"
)

type fakeGroupings struct {
	mu        sync.Mutex
	nextID    int
	failNames map[string]error
	createdBy []string
	calls     int
}

func (f *fakeGroupings) CreateGrouping(_ context.Context, name string) (organize.Grouping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.failNames[name]; ok {
		return organize.Grouping{}, err
	}
	f.nextID++
	grouping := organize.Grouping{ID: fmt.Sprintf("g-%d", f.nextID), Name: name, CreatedBy: "pairkeep-ai"}
	f.createdBy = append(f.createdBy, name)
	return grouping, nil
}

type fakeItems struct {
	mu       sync.Mutex
	members  map[string]string
	missing  map[string]struct{}
	errs     map[string]error
	calls    []string
	block    chan struct{}
	started  chan struct{}
	onceOpen sync.Once
}

func (f *fakeItems) UpdateItemGrouping(_ context.Context, itemID, groupingID string) error {
	if f.started != nil {
		f.onceOpen.Do(func() { close(f.started) })
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, itemID)
	if _, ok := f.missing[itemID]; ok {
		return services.Wrap(services.ErrNotFound, "backend", "update item", "item "+itemID+" not found", nil)
	}
	if err, ok := f.errs[itemID]; ok {
		return err
	}
	if f.members == nil {
		f.members = map[string]string{}
	}
	f.members[itemID] = groupingID
	return nil
}

type fakeRefresher struct {
	mu    sync.Mutex
	count int
}

func (f *fakeRefresher) RefreshGroupings(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
}

func (f *fakeRefresher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func newTestEngine(groupings *fakeGroupings, items *fakeItems, refresher *fakeRefresher) *organize.Engine {
	var r organize.Refresher
	if refresher != nil {
		r = refresher
	}
	return organize.NewEngine("ws-test", groupings, items, r, logging.NewNop())
}

func TestApplyEndToEnd(t *testing.T) {
	groupings := &fakeGroupings{}
	items := &fakeItems{}
	refresher := &fakeRefresher{}
	engine := newTestEngine(groupings, items, refresher)

	plan := &organize.Plan{
		NewGroupings: []string{"Trip"},
		Relocations: []organize.Relocation{
			{ItemID: "i1", GroupingName: "Trip"},
			{ItemID: "i2", GroupingID: "g-existing"},
		},
	}

	result, err := engine.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result.SuccessCount != 2 {
		t.Fatalf("expected 2 successes, got %d", result.SuccessCount)
	}
	if len(result.Failures) != 0 {
		t.Fatalf("expected no failures, got %+v", result.Failures)
	}
	tripID, ok := result.CreatedGroupings["Trip"]
	if !ok || tripID == "" {
		t.Fatalf("expected Trip in created groupings, got %+v", result.CreatedGroupings)
	}
	if items.members["i1"] != tripID {
		t.Fatalf("expected i1 in %q, got %q", tripID, items.members["i1"])
	}
	if items.members["i2"] != "g-existing" {
		t.Fatalf("expected i2 in g-existing, got %q", items.members["i2"])
	}
	if refresher.calls() != 1 {
		t.Fatalf("expected one refresh signal, got %d", refresher.calls())
	}
	if engine.State() != organize.StateApplied {
		t.Fatalf("expected applied state, got %s", engine.State())
	}
}

func TestApplyDeduplicatesGroupingNames(t *testing.T) {
	groupings := &fakeGroupings{}
	engine := newTestEngine(groupings, &fakeItems{}, nil)

	plan := &organize.Plan{NewGroupings: []string{"Groceries", "Groceries", "  Groceries "}}
	result, err := engine.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if groupings.calls != 1 {
		t.Fatalf("expected exactly one create call, got %d", groupings.calls)
	}
	if len(result.CreatedGroupings) != 1 {
		t.Fatalf("expected one created grouping, got %+v", result.CreatedGroupings)
	}
}

func TestApplyUnresolvedDestination(t *testing.T) {
	items := &fakeItems{}
	engine := newTestEngine(&fakeGroupings{}, items, nil)

	plan := &organize.Plan{
		Relocations: []organize.Relocation{
			{ItemID: "i1", GroupingName: "Nowhere"},
			{ItemID: "i2"},
		},
	}
	result, err := engine.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result.SuccessCount != 0 {
		t.Fatalf("expected no successes, got %d", result.SuccessCount)
	}
	if len(result.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %+v", result.Failures)
	}
	for _, failure := range result.Failures {
		if failure.Reason != organize.ReasonUnresolvedDestination {
			t.Fatalf("expected unresolved-destination reason, got %q", failure.Reason)
		}
	}
	if len(items.calls) != 0 {
		t.Fatalf("expected no item store calls, got %v", items.calls)
	}
}

func TestApplyGroupingCreationFailureSkips(t *testing.T) {
	groupings := &fakeGroupings{failNames: map[string]error{"X": errors.New("backend rejected name")}}
	items := &fakeItems{}
	engine := newTestEngine(groupings, items, nil)

	plan := &organize.Plan{
		NewGroupings: []string{"X", "Y"},
		Relocations: []organize.Relocation{
			{ItemID: "i1", GroupingName: "X"},
			{ItemID: "i2", GroupingName: "Y"},
		},
	}
	result, err := engine.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(groupings.createdBy) != 1 || groupings.createdBy[0] != "Y" {
		t.Fatalf("expected only Y created, got %v", groupings.createdBy)
	}
	if result.SuccessCount != 1 {
		t.Fatalf("expected 1 success, got %d", result.SuccessCount)
	}
	if len(result.Failures) != 1 || result.Failures[0].ItemID != "i1" || result.Failures[0].Reason != organize.ReasonUnresolvedDestination {
		t.Fatalf("expected i1 unresolved, got %+v", result.Failures)
	}
	if _, ok := result.CreatedGroupings["X"]; ok {
		t.Fatal("expected X absent from created groupings")
	}
}

func TestApplyItemStoreFailureIsIndependent(t *testing.T) {
	items := &fakeItems{missing: map[string]struct{}{"gone": {}}}
	engine := newTestEngine(&fakeGroupings{}, items, nil)

	plan := &organize.Plan{
		Relocations: []organize.Relocation{
			{ItemID: "gone", GroupingID: "g-1"},
			{ItemID: "kept", GroupingID: "g-1"},
		},
	}
	result, err := engine.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result.SuccessCount != 1 {
		t.Fatalf("expected 1 success, got %d", result.SuccessCount)
	}
	if len(result.Failures) != 1 || result.Failures[0].ItemID != "gone" {
		t.Fatalf("expected failure for gone, got %+v", result.Failures)
	}
	if result.Failures[0].Reason != "not-found" {
		t.Fatalf("expected store reason recorded, got %q", result.Failures[0].Reason)
	}
	if items.members["kept"] != "g-1" {
		t.Fatalf("expected kept relocated, got %q", items.members["kept"])
	}
}

func TestApplyIdempotentReapply(t *testing.T) {
	groupings := &fakeGroupings{}
	items := &fakeItems{}
	engine := newTestEngine(groupings, items, nil)

	plan := &organize.Plan{
		NewGroupings: []string{"Trip"},
		Relocations: []organize.Relocation{
			{ItemID: "i1", GroupingName: "Trip"},
			{ItemID: "i2", GroupingName: "Missing"},
		},
	}

	first, err := engine.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("first Apply failed: %v", err)
	}
	if first.SuccessCount != 1 {
		t.Fatalf("expected 1 success, got %d", first.SuccessCount)
	}

	// Second application of the same plan with the grouping now existing in
	// the workspace: no duplicate grouping, same resolvable outcome.
	engine.SeedGroupings(map[string]string{"Trip": first.CreatedGroupings["Trip"]})
	second, err := engine.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}
	if groupings.calls != 1 {
		t.Fatalf("expected no second create call, got %d", groupings.calls)
	}
	if second.SuccessCount != 1 {
		t.Fatalf("expected 1 success on re-apply, got %d", second.SuccessCount)
	}
	if len(second.Failures) != 1 || second.Failures[0].ItemID != "i2" {
		t.Fatalf("expected only genuinely unresolvable failure, got %+v", second.Failures)
	}
	if items.members["i1"] != first.CreatedGroupings["Trip"] {
		t.Fatalf("expected i1 to stay in Trip, got %q", items.members["i1"])
	}
}

func TestApplyDuplicateItemLastWriteWins(t *testing.T) {
	items := &fakeItems{}
	engine := newTestEngine(&fakeGroupings{}, items, nil)

	plan := &organize.Plan{
		Relocations: []organize.Relocation{
			{ItemID: "i1", GroupingID: "g-first"},
			{ItemID: "i1", GroupingID: "g-second"},
		},
	}
	result, err := engine.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result.SuccessCount != 2 {
		t.Fatalf("expected both writes counted, got %d", result.SuccessCount)
	}
	if items.members["i1"] != "g-second" {
		t.Fatalf("expected last write to win, got %q", items.members["i1"])
	}
}

func TestApplyResolvesSeededGroupingByName(t *testing.T) {
	items := &fakeItems{}
	engine := newTestEngine(&fakeGroupings{}, items, nil)
	engine.SeedGroupings(map[string]string{"Chores": "g-chores"})

	plan := &organize.Plan{
		Relocations: []organize.Relocation{{ItemID: "i1", GroupingName: "Chores"}},
	}
	result, err := engine.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result.SuccessCount != 1 || items.members["i1"] != "g-chores" {
		t.Fatalf("expected relocation into seeded grouping, got %+v members=%v", result, items.members)
	}
}

func TestApplyRejectsNilPlan(t *testing.T) {
	engine := newTestEngine(&fakeGroupings{}, &fakeItems{}, nil)
	if _, err := engine.Apply(context.Background(), nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApplyRequiresWorkspace(t *testing.T) {
	engine := organize.NewEngine("", &fakeGroupings{}, &fakeItems{}, nil, logging.NewNop())
	if _, err := engine.Apply(context.Background(), &organize.Plan{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestApplyRejectsOverlappingApplication(t *testing.T) {
	items := &fakeItems{
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	engine := newTestEngine(&fakeGroupings{}, items, nil)

	plan := &organize.Plan{
		Relocations: []organize.Relocation{{ItemID: "i1", GroupingID: "g-1"}},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := engine.Apply(context.Background(), plan); err != nil {
			t.Errorf("blocked Apply failed: %v", err)
		}
	}()

	<-items.started
	if _, err := engine.Apply(context.Background(), plan); !errors.Is(err, organize.ErrApplyInProgress) {
		t.Fatalf("expected ErrApplyInProgress, got %v", err)
	}
	close(items.block)
	<-done

	if engine.State() != organize.StateApplied {
		t.Fatalf("expected applied state after unblock, got %s", engine.State())
	}
}

func TestApplyRefreshFiresDespiteFailures(t *testing.T) {
	refresher := &fakeRefresher{}
	items := &fakeItems{missing: map[string]struct{}{"i1": {}}}
	engine := newTestEngine(&fakeGroupings{}, items, refresher)

	plan := &organize.Plan{
		Relocations: []organize.Relocation{{ItemID: "i1", GroupingID: "g-1"}},
	}
	if _, err := engine.Apply(context.Background(), plan); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if refresher.calls() != 1 {
		t.Fatalf("expected refresh despite failures, got %d", refresher.calls())
	}
}
