package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseEntry(t *testing.T) {
	line := `{"time":"2026-03-01T10:00:00.5Z","level":"WARN","msg":"skipping malformed commit","command":"log","queue":"builds","commit":"3f2a9c1","error":"missing queue name"}`

	e, err := ParseEntry(line)
	if err != nil {
		t.Fatalf("ParseEntry() error: %v", err)
	}

	want := time.Date(2026, 3, 1, 10, 0, 0, 500_000_000, time.UTC)
	if !e.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", e.Time, want)
	}
	if e.Level != LevelWarn || e.Message != "skipping malformed commit" {
		t.Errorf("Level/Message = %q/%q", e.Level, e.Message)
	}
	if e.Command != "log" || e.Queue != "builds" || e.Commit != "3f2a9c1" {
		t.Errorf("context fields = %q %q %q", e.Command, e.Queue, e.Commit)
	}
	if len(e.Attrs) != 1 || e.Attrs["error"] != "missing queue name" {
		t.Errorf("Attrs = %v", e.Attrs)
	}
}

func TestParseEntry_Invalid(t *testing.T) {
	for _, line := range []string{"not json", `["array"]`, `{"level":`} {
		if _, err := ParseEntry(line); err == nil {
			t.Errorf("ParseEntry(%q) should fail", line)
		}
	}
}

func TestReadEntries(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	logger.WithQueue("builds").Info("queue commit created", "kind", "new-job")
	logger.Debug("history loaded", "commits", 3)
	_ = logger.Close()

	// Garbage lines are skipped.
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("panic: not a log line\n\n")
	_ = f.Close()

	entries, err := ReadEntries(dir)
	if err != nil {
		t.Fatalf("ReadEntries() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Queue != "builds" || entries[0].Attrs["kind"] != "new-job" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Attrs["commits"] != float64(3) {
		t.Errorf("entries[1].Attrs = %v", entries[1].Attrs)
	}
}

func TestReadEntries_IncludesBackups(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, FileName)
	older := `{"time":"2026-03-01T09:00:00Z","level":"INFO","msg":"older"}` + "\n"
	newer := `{"time":"2026-03-01T10:00:00Z","level":"INFO","msg":"newer"}` + "\n"

	if err := os.WriteFile(live+".1", []byte(older), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(live, []byte(newer), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadEntries(dir)
	if err != nil {
		t.Fatalf("ReadEntries() error: %v", err)
	}
	if len(entries) != 2 || entries[0].Message != "older" || entries[1].Message != "newer" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestReadEntries_Missing(t *testing.T) {
	if _, err := ReadEntries(t.TempDir()); err == nil {
		t.Error("ReadEntries() on an empty dir should fail")
	}
}

func TestFilter(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []Entry{
		{Time: base, Level: LevelDebug, Message: "history loaded"},
		{Time: base.Add(time.Minute), Level: LevelInfo, Message: "queue commit created", Queue: "builds"},
		{Time: base.Add(2 * time.Minute), Level: LevelWarn, Message: "skipping malformed commit", Queue: "builds",
			Attrs: map[string]any{"error": "missing queue name"}},
		{Time: base.Add(3 * time.Minute), Level: LevelError, Message: "commit failed", Queue: "deploys"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty filter", Filter{}, []string{"history loaded", "queue commit created", "skipping malformed commit", "commit failed"}},
		{"min level", Filter{MinLevel: "warn"}, []string{"skipping malformed commit", "commit failed"}},
		{"since", Filter{Since: base.Add(2 * time.Minute)}, []string{"skipping malformed commit", "commit failed"}},
		{"queue", Filter{Queue: "builds"}, []string{"queue commit created", "skipping malformed commit"}},
		{"contains message", Filter{Contains: "commit"}, []string{"queue commit created", "skipping malformed commit", "commit failed"}},
		{"contains attr", Filter{Contains: "queue name"}, []string{"skipping malformed commit"}},
		{"combined", Filter{MinLevel: "info", Queue: "builds", Contains: "created"}, []string{"queue commit created"}},
		{"no match", Filter{Queue: "nope"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterEntries(entries, tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Message != tt.want[i] {
					t.Errorf("entry %d = %q, want %q", i, got[i].Message, tt.want[i])
				}
			}
		})
	}
}
