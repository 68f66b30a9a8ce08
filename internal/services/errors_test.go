package services_test

import (
	"errors"
	"testing"

	"pairkeep/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrValidation, "applying", "validate plan", "plan missing", base)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "applying", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not found", services.Wrap(services.ErrNotFound, "applying", "update item", "missing", nil), "not-found"},
		{"permission", services.Wrap(services.ErrPermission, "applying", "update item", "denied", nil), "permission-denied"},
		{"plain", errors.New("backend exploded"), "backend exploded"},
	}
	for _, tc := range cases {
		if got := services.Reason(tc.err); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
