package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dalnet/ircutils/internal/protocol"
)

const maxEntries = 500

// TimeFormat is the timestamp layout used in transcript lines.
const TimeFormat = "Mon Jan 02, 2006 15:04:05 GMT"

// Line breaks would split one entry across several transcript lines.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// FormatLine renders one transcript entry on a single line.
func FormatLine(at time.Time, nick, text string) string {
	return fmt.Sprintf("[%s] <%s> %s", at.UTC().Format(TimeFormat), nick, lineBreaks.Replace(text))
}

// TranscriptPath returns the file holding target's transcript. Targets
// that differ only in case share a file.
func TranscriptPath(dataDir, target string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, protocol.Fold(target))
	return filepath.Join(dataDir, "transcripts", name+".log")
}

// LoadTranscript reads target's transcript, oldest line first. A missing
// file is an empty transcript.
func LoadTranscript(dataDir, target string) ([]string, error) {
	lines, err := readLines(TranscriptPath(dataDir, target))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	return lines, nil
}

// SaveTranscript writes the newest maxEntries lines of target's transcript.
func SaveTranscript(dataDir, target string, lines []string) error {
	path := TranscriptPath(dataDir, target)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create transcript dir: %w", err)
	}
	if len(lines) > maxEntries {
		lines = lines[len(lines)-maxEntries:]
	}
	if err := writeLines(path, lines); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// AddLine appends an entry, dropping the oldest past maxEntries.
// Line breaks in entry are replaced with spaces.
func AddLine(lines []string, entry string) []string {
	lines = append(lines, lineBreaks.Replace(entry))
	if len(lines) > maxEntries {
		lines = lines[len(lines)-maxEntries:]
	}
	return lines
}

// Transcripts keeps per target transcripts in memory and writes each change
// through to disk. It is safe for concurrent use.
type Transcripts struct {
	dataDir string

	mu     sync.Mutex
	loaded map[string][]string
}

// NewTranscripts returns a store rooted at dataDir.
func NewTranscripts(dataDir string) *Transcripts {
	return &Transcripts{dataDir: dataDir, loaded: make(map[string][]string)}
}

// Record appends entry to target's transcript and saves it.
func (t *Transcripts) Record(target, entry string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := protocol.Fold(target)
	lines, ok := t.loaded[key]
	if !ok {
		var err error
		lines, err = LoadTranscript(t.dataDir, target)
		if err != nil {
			return err
		}
	}
	lines = AddLine(lines, entry)
	t.loaded[key] = lines
	return SaveTranscript(t.dataDir, target, lines)
}

// Lines returns a copy of target's transcript.
func (t *Transcripts) Lines(target string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if lines, ok := t.loaded[protocol.Fold(target)]; ok {
		return append([]string(nil), lines...), nil
	}
	return LoadTranscript(t.dataDir, target)
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func writeLines(path string, lines []string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return w.Flush()
}
