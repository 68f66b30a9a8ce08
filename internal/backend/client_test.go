package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"pairkeep/internal/backend"
	"pairkeep/internal/logging"
	"pairkeep/internal/services"
)

func newTestClient(t *testing.T, handler http.Handler) (*backend.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := backend.NewClientWithOptions(server.URL, "token-1", "ws-1", logging.NewNop())
	return client, server
}

func TestCreateGrouping(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/workspaces/ws-1/groupings" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("unexpected auth header %q", got)
		}
		var body struct {
			Name      string `json:"name"`
			CreatedBy string `json:"created_by"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Name != "Trip" || body.CreatedBy != "pairkeep-ai" {
			t.Errorf("unexpected body %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "g-new", "name": "Trip", "created_by": "pairkeep-ai"})
	}))

	grouping, err := client.CreateGrouping(context.Background(), "Trip")
	if err != nil {
		t.Fatalf("CreateGrouping failed: %v", err)
	}
	if grouping.ID != "g-new" || grouping.Name != "Trip" {
		t.Fatalf("unexpected grouping %+v", grouping)
	}
}

func TestCreateGroupingRequiresName(t *testing.T) {
	client := backend.NewClientWithOptions("http://127.0.0.1:0", "", "ws-1", logging.NewNop())
	if _, err := client.CreateGrouping(context.Background(), "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateItemGroupingStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		marker error
	}{
		{"not found", http.StatusNotFound, services.ErrNotFound},
		{"forbidden", http.StatusForbidden, services.ErrPermission},
		{"unauthorized", http.StatusUnauthorized, services.ErrPermission},
		{"unprocessable", http.StatusUnprocessableEntity, services.ErrValidation},
		{"server error", http.StatusInternalServerError, services.ErrTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "item i1 rejected"})
			}))
			err := client.UpdateItemGrouping(context.Background(), "i1", "g-1")
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v marker, got %v", tc.marker, err)
			}
		})
	}
}

func TestUpdateItemGroupingSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/workspaces/ws-1/items/i1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	if err := client.UpdateItemGrouping(context.Background(), "i1", "g-1"); err != nil {
		t.Fatalf("UpdateItemGrouping failed: %v", err)
	}
}

func TestListUngroupedItems(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/workspaces/ws-1/items" || r.URL.Query().Get("ungrouped") != "true" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"i1","title":"buy milk"},{"id":"i2","title":"call plumber"}]`))
	}))

	items, err := client.ListUngroupedItems(context.Background())
	if err != nil {
		t.Fatalf("ListUngroupedItems failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != "i1" || !items[0].Ungrouped() {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestRefreshGroupingsSwallowsErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	// Must not panic or surface the failure.
	client.RefreshGroupings(context.Background())
	if calls.Load() != 1 {
		t.Fatalf("expected one refresh call, got %d", calls.Load())
	}
}
