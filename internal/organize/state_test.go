package organize

import "testing"

func TestStateTransitions(t *testing.T) {
	cases := []struct {
		from  State
		to    State
		legal bool
	}{
		{StateIdle, StateAnalyzing, true},
		{StateIdle, StateApplying, true},
		{StateAnalyzing, StatePlanned, true},
		{StateAnalyzing, StateApplying, false},
		{StatePlanned, StateApplying, true},
		{StateApplying, StateApplied, true},
		{StateApplying, StateFailed, true},
		{StateApplying, StateAnalyzing, false},
		{StateApplied, StateAnalyzing, true},
		{StateFailed, StateApplying, true},
		{StateApplied, StatePlanned, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.legal {
			t.Fatalf("%s -> %s: expected legal=%v, got %v", tc.from, tc.to, tc.legal, got)
		}
	}
}

func TestStateTerminal(t *testing.T) {
	for _, state := range []State{StateIdle, StateAnalyzing, StatePlanned, StateApplying} {
		if state.Terminal() {
			t.Fatalf("%s should not be terminal", state)
		}
	}
	for _, state := range []State{StateApplied, StateFailed} {
		if !state.Terminal() {
			t.Fatalf("%s should be terminal", state)
		}
	}
}

func TestDedupeNamesPreservesFirstSeenOrder(t *testing.T) {
	got := dedupeNames([]string{" Trip ", "Groceries", "Trip", "", "Chores", "Groceries"})
	want := []string{"Trip", "Groceries", "Chores"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
