package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTranscriptRoundTrip(t *testing.T) {
	dir := t.TempDir()

	lines := []string{
		"[Thu Feb 20, 2025 11:00:00 GMT] <bob> first",
		"[Thu Feb 20, 2025 12:00:00 GMT] <al> second",
	}
	if err := SaveTranscript(dir, "#Chan", lines); err != nil {
		t.Fatalf("SaveTranscript failed: %v", err)
	}

	loaded, err := LoadTranscript(dir, "#CHAN")
	if err != nil {
		t.Fatalf("LoadTranscript failed: %v", err)
	}
	if len(loaded) != len(lines) {
		t.Fatalf("Expected %d lines, got %d", len(lines), len(loaded))
	}
	for i := range lines {
		if loaded[i] != lines[i] {
			t.Errorf("Line %d mismatch: expected %q, got %q", i, lines[i], loaded[i])
		}
	}
}

func TestLoadTranscriptMissing(t *testing.T) {
	lines, err := LoadTranscript(t.TempDir(), "#nowhere")
	if err != nil {
		t.Fatalf("LoadTranscript should not fail for missing file: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Expected empty transcript, got %q", lines)
	}
}

func TestSaveTranscriptTrims(t *testing.T) {
	dir := t.TempDir()
	lines := make([]string, maxEntries+20)
	for i := range lines {
		lines[i] = "entry"
	}
	lines[len(lines)-1] = "newest"

	if err := SaveTranscript(dir, "bob", lines); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadTranscript(dir, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != maxEntries {
		t.Errorf("Expected %d lines, got %d", maxEntries, len(loaded))
	}
	if loaded[len(loaded)-1] != "newest" {
		t.Errorf("Newest line should be last, got %q", loaded[len(loaded)-1])
	}
}

func TestAddLineMaxEntries(t *testing.T) {
	lines := make([]string, maxEntries)
	for i := range lines {
		lines[i] = "entry"
	}
	lines[0] = "oldest"

	lines = AddLine(lines, "new")
	if len(lines) != maxEntries {
		t.Errorf("Expected %d lines (max), got %d", maxEntries, len(lines))
	}
	if lines[len(lines)-1] != "new" {
		t.Errorf("New line should be last")
	}
	if lines[0] == "oldest" {
		t.Errorf("Oldest line should have been dropped")
	}
}

func TestTranscriptPath(t *testing.T) {
	a := TranscriptPath("data", "#Chan[1]")
	b := TranscriptPath("data", "#chan{1}")
	if a != b {
		t.Errorf("case folded targets use different files: %q, %q", a, b)
	}
	if p := TranscriptPath("data", "../evil"); strings.Contains(filepath.Base(p), "/") || filepath.Dir(p) != filepath.Join("data", "transcripts") {
		t.Errorf("path escapes transcript dir: %q", p)
	}
}

func TestTranscriptsRecord(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2025, 2, 20, 12, 0, 0, 0, time.UTC)

	tr := NewTranscripts(dir)
	if err := tr.Record("#chan", FormatLine(at, "bob", "hello")); err != nil {
		t.Fatal(err)
	}
	if err := tr.Record("#CHAN", FormatLine(at, "al", "hi bob")); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(TranscriptPath(dir, "#chan"))
	if err != nil {
		t.Fatal(err)
	}
	expected := "[Thu Feb 20, 2025 12:00:00 GMT] <bob> hello\n[Thu Feb 20, 2025 12:00:00 GMT] <al> hi bob\n"
	if string(data) != expected {
		t.Errorf("Transcript file format wrong: got %q", string(data))
	}

	// a fresh store picks up where the last left off
	lines, err := NewTranscripts(dir).Lines("#chan")
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Errorf("Expected 2 lines, got %d", len(lines))
	}
}

func TestRecordKeepsEntryOnOneLine(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2025, 2, 20, 12, 0, 0, 0, time.UTC)

	entry := FormatLine(at, "bob", "one\ntwo\r\nthree\rfour")
	if want := "[Thu Feb 20, 2025 12:00:00 GMT] <bob> one two three four"; entry != want {
		t.Errorf("FormatLine() = %q, want %q", entry, want)
	}

	tr := NewTranscripts(dir)
	if err := tr.Record("#chan", FormatLine(at, "bob", "first\nsecond")); err != nil {
		t.Fatal(err)
	}
	if err := tr.Record("#chan", "raw\nentry"); err != nil {
		t.Fatal(err)
	}

	lines, err := LoadTranscript(dir, "#chan")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"[Thu Feb 20, 2025 12:00:00 GMT] <bob> first second", "raw entry"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
