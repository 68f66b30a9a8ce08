package main

import (
	"fmt"
	"testing"
	"time"

	"pairkeep/internal/ipc"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Pairkeep", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Pairkeep:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestBuildRunStatusRows(t *testing.T) {
	rows := buildRunStatusRows(map[string]int{
		"pending": 2,
		"applied": 5,
		"failed":  0,
	})
	if len(rows) != 2 {
		t.Fatalf("expected zero-count statuses dropped, got %v", rows)
	}
	if rows[0][0] != "applied" || rows[0][1] != "5" {
		t.Fatalf("expected sorted rows, got %v", rows)
	}
	if rows[1][0] != "pending" || rows[1][1] != "2" {
		t.Fatalf("expected sorted rows, got %v", rows)
	}
}

func TestBuildRunListRows(t *testing.T) {
	created := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	rows := buildRunListRows([]ipc.RunView{
		{ID: 3, Status: "applied", ItemCount: 4, SuccessCount: 3, FailureCount: 1, NeedsReview: true, CreatedAt: created},
	})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row[0] != "3" || row[1] != "applied" || row[2] != "4" || row[3] != "3" || row[4] != "1" || row[5] != "yes" {
		t.Fatalf("unexpected row %v", row)
	}
}
