package protocol

import (
	"bufio"
	"bytes"
	"io"
)

// MaxLineLength is the default limit for a single framed line.
const MaxLineLength = 64 * 1024

var crlf = []byte("\r\n")

// Framer splits a byte stream into lines terminated by CR LF. A lone CR or
// LF is part of the line. Data left over when the stream ends without a
// terminator is dropped.
type Framer struct {
	scanner *bufio.Scanner
}

// NewFramer returns a Framer reading from r.
func NewFramer(r io.Reader) *Framer {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), MaxLineLength)
	s.Split(ScanCRLF)
	return &Framer{scanner: s}
}

// Buffer sets the initial buffer and the maximum line length. It must be
// called before the first Scan.
func (f *Framer) Buffer(buf []byte, max int) {
	f.scanner.Buffer(buf, max)
}

// Scan advances to the next line.
func (f *Framer) Scan() bool { return f.scanner.Scan() }

// Text returns the current line without its terminator.
func (f *Framer) Text() string { return f.scanner.Text() }

// Bytes returns the current line. The slice is only valid until the next Scan.
func (f *Framer) Bytes() []byte { return f.scanner.Bytes() }

// Err returns the first read error. A clean end of stream, even one in the
// middle of a line, is not an error.
func (f *Framer) Err() error { return f.scanner.Err() }

// ScanCRLF is a bufio.SplitFunc for CR LF terminated lines.
func ScanCRLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, crlf); i >= 0 {
		return i + 2, data[:i], nil
	}
	if atEOF && len(data) > 0 {
		// partial line, drop it
		return len(data), nil, nil
	}
	return 0, nil, nil
}
