package calendar_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"pairkeep/internal/backend"
	"pairkeep/internal/calendar"
)

func TestExportWritesDueItems(t *testing.T) {
	due := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	items := []backend.Item{
		{ID: "i1", Title: "renew passport", DueAt: &due},
		{ID: "i2", Title: "no due date"},
		{ID: "i3", Title: "dentist; bring card", Note: "ask about\nnight guard", DueAt: &due},
	}

	dir := t.TempDir()
	path, count, err := calendar.Export(items, "Shared Plans", dir)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 events, got %d", count)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read calendar: %v", err)
	}
	body := string(raw)
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"X-WR-CALNAME:Shared Plans",
		"DTSTART;VALUE=DATE:20260912",
		"SUMMARY:renew passport",
		"SUMMARY:dentist\\; bring card",
		"DESCRIPTION:ask about\\nnight guard",
		"END:VCALENDAR",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("calendar missing %q in:\n%s", want, body)
		}
	}
	if strings.Contains(body, "no due date") {
		t.Fatal("item without due date should be skipped")
	}
}

func TestExportStableUIDs(t *testing.T) {
	due := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	items := []backend.Item{{ID: "i1", Title: "renew passport", DueAt: &due}}

	dir := t.TempDir()
	path, _, err := calendar.Export(items, "Plans", dir)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	first, _ := os.ReadFile(path)
	if _, _, err := calendar.Export(items, "Plans", dir); err != nil {
		t.Fatalf("re-export failed: %v", err)
	}
	second, _ := os.ReadFile(path)

	uid := func(body []byte) string {
		for _, line := range strings.Split(string(body), "\r\n") {
			if strings.HasPrefix(line, "UID:") {
				return line
			}
		}
		return ""
	}
	if uid(first) == "" || uid(first) != uid(second) {
		t.Fatalf("expected stable UID, got %q then %q", uid(first), uid(second))
	}
}

func TestExportRequiresDirectory(t *testing.T) {
	if _, _, err := calendar.Export(nil, "Plans", " "); err == nil {
		t.Fatal("expected error for missing export directory")
	}
}
