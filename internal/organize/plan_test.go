package organize_test

import (
	"testing"

	"pairkeep/internal/organize"
)

func TestResultSummary(t *testing.T) {
	cases := []struct {
		name   string
		result *organize.Result
		want   string
	}{
		{"nil", nil, "nothing organized"},
		{"clean", &organize.Result{SuccessCount: 4}, "organized 4 items"},
		{"partial", &organize.Result{SuccessCount: 2, Failures: []organize.Failure{{ItemID: "i1", Reason: "not-found"}}}, "organized 2 items, 1 failed"},
	}
	for _, tc := range cases {
		if got := tc.result.Summary(); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestPlanIsEmpty(t *testing.T) {
	var nilPlan *organize.Plan
	if !nilPlan.IsEmpty() {
		t.Fatal("nil plan should be empty")
	}
	if !(&organize.Plan{}).IsEmpty() {
		t.Fatal("zero plan should be empty")
	}
	if (&organize.Plan{NewGroupings: []string{"Trip"}}).IsEmpty() {
		t.Fatal("plan with groupings should not be empty")
	}
}
