package calendar

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"pairkeep/internal/backend"
	"pairkeep/internal/services"
	"pairkeep/internal/textutil"
)

const (
	icsTimeLayout = "20060102T150405Z"
	icsDateLayout = "20060102"
)

// Export renders due-dated items as an iCalendar file and writes it into
// exportDir. Items without a due date are skipped. Returns the written path
// and the number of events it contains.
func Export(items []backend.Item, calendarName, exportDir string) (string, int, error) {
	if strings.TrimSpace(exportDir) == "" {
		return "", 0, services.Wrap(services.ErrConfiguration, "calendar", "export", "export directory required", nil)
	}
	if strings.TrimSpace(calendarName) == "" {
		calendarName = "Pairkeep"
	}

	due := make([]backend.Item, 0, len(items))
	for _, item := range items {
		if item.DueAt != nil {
			due = append(due, item)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].DueAt.Before(*due[j].DueAt)
	})

	body := render(due, calendarName)

	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create export dir: %w", err)
	}
	fileName := textutil.SanitizeFileName(calendarName)
	if fileName == "" {
		fileName = "pairkeep"
	}
	path := filepath.Join(exportDir, fileName+".ics")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", 0, fmt.Errorf("write calendar: %w", err)
	}
	return path, len(due), nil
}

func render(items []backend.Item, calendarName string) string {
	var b strings.Builder
	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:-//pairkeep//pairkeep-go//EN")
	writeLine(&b, "CALSCALE:GREGORIAN")
	writeLine(&b, "X-WR-CALNAME:"+escapeText(calendarName))

	now := time.Now().UTC().Format(icsTimeLayout)
	for _, item := range items {
		writeLine(&b, "BEGIN:VEVENT")
		writeLine(&b, "UID:"+eventUID(item))
		writeLine(&b, "DTSTAMP:"+now)
		writeLine(&b, "DTSTART;VALUE=DATE:"+item.DueAt.UTC().Format(icsDateLayout))
		writeLine(&b, "SUMMARY:"+escapeText(item.Title))
		if note := strings.TrimSpace(item.Note); note != "" {
			writeLine(&b, "DESCRIPTION:"+escapeText(note))
		}
		writeLine(&b, "END:VEVENT")
	}

	writeLine(&b, "END:VCALENDAR")
	return b.String()
}

// eventUID derives a stable UID from the item id so re-exports update events
// instead of duplicating them in subscribing calendar apps.
func eventUID(item backend.Item) string {
	id := strings.TrimSpace(item.ID)
	if id == "" {
		id = uuid.NewString()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("pairkeep:item:"+id)).String() + "@pairkeep"
}

// escapeText applies RFC 5545 text escaping.
func escapeText(value string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
	)
	return replacer.Replace(value)
}

// writeLine appends a content line with RFC 5545 folding at 75 octets.
func writeLine(b *strings.Builder, line string) {
	const limit = 75
	for len(line) > limit {
		cut := limit
		for cut > 0 && !isUTF8Boundary(line, cut) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

func isUTF8Boundary(s string, i int) bool {
	return i == 0 || i >= len(s) || (s[i]&0xC0) != 0x80
}
