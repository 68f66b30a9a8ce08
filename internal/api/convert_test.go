package api_test

import (
	"testing"
	"time"

	"pairkeep/internal/api"
	"pairkeep/internal/organize"
	"pairkeep/internal/store"
)

func TestFromRun(t *testing.T) {
	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	run := &store.Run{
		ID:           7,
		Status:       store.StatusApplied,
		Trigger:      "manual",
		ItemCount:    4,
		SuccessCount: 3,
		FailureCount: 1,
		NeedsReview:  true,
		ReviewReason: "organized 3 items, 1 failed",
		CreatedAt:    created,
	}

	view := api.FromRun(run)
	if view.ID != 7 || view.Status != "applied" || view.SuccessCount != 3 {
		t.Fatalf("unexpected view %+v", view)
	}
	if !view.NeedsReview || view.CreatedAt != created {
		t.Fatalf("unexpected view %+v", view)
	}

	if got := api.FromRun(nil); got.ID != 0 {
		t.Fatalf("nil run should produce zero view, got %+v", got)
	}
}

func TestFromRunDetail(t *testing.T) {
	run := &store.Run{ID: 9, Status: store.StatusApplied}
	if err := run.SetPlan(&organize.Plan{
		NewGroupings: []string{"Trip"},
		Relocations:  []organize.Relocation{{ItemID: "i1", GroupingName: "Trip"}},
	}); err != nil {
		t.Fatalf("SetPlan failed: %v", err)
	}
	if err := run.SetResult(&organize.Result{
		CreatedGroupings: map[string]string{"Trip": "g-1"},
		SuccessCount:     1,
		Failures:         []organize.Failure{{ItemID: "i2", Reason: "not-found"}},
	}); err != nil {
		t.Fatalf("SetResult failed: %v", err)
	}

	detail := api.FromRunDetail(run)
	if len(detail.NewGroupings) != 1 || detail.Relocations != 1 {
		t.Fatalf("unexpected plan projection %+v", detail)
	}
	if detail.CreatedGroupings["Trip"] != "g-1" {
		t.Fatalf("unexpected created groupings %+v", detail.CreatedGroupings)
	}
	if len(detail.Failures) != 1 || detail.Failures[0].Reason != "not-found" {
		t.Fatalf("unexpected failures %+v", detail.Failures)
	}
}

func TestFromRunDetailToleratesCorruptPayloads(t *testing.T) {
	run := &store.Run{ID: 3, Status: store.StatusApplied, PlanJSON: "{not json", ResultJSON: "also not"}
	detail := api.FromRunDetail(run)
	if detail.ID != 3 || detail.Relocations != 0 || len(detail.Failures) != 0 {
		t.Fatalf("unexpected detail %+v", detail)
	}
}
