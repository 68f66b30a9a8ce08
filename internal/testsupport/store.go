package testsupport

import (
	"context"
	"testing"

	"pairkeep/internal/config"
	"pairkeep/internal/store"
)

// MustOpenStore opens a run store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewRun creates a pending run for tests using the provided store.
func NewRun(t testing.TB, st *store.Store, trigger string) *store.Run {
	t.Helper()

	run, err := st.NewRun(context.Background(), trigger)
	if err != nil {
		t.Fatalf("store.NewRun: %v", err)
	}
	return run
}
