package ctcp

import "strings"

const (
	// Delim marks the start and end of a tagged payload.
	Delim = '\x01'
	// MQuote is the low level escape byte.
	MQuote = '\x10'
	// XQuote is the CTCP level escape byte.
	XQuote = '\\'
)

var (
	lowQuoter = strings.NewReplacer(
		"\x10", "\x10\x10",
		"\x00", "\x100",
		"\n", "\x10n",
		"\r", "\x10r",
	)
	lowDequoter = strings.NewReplacer(
		"\x10\x10", "\x10",
		"\x100", "\x00",
		"\x10n", "\n",
		"\x10r", "\r",
	)
	quoter = strings.NewReplacer(
		"\\", "\\\\",
		"\x01", "\\a",
	)
	dequoter = strings.NewReplacer(
		"\\\\", "\\",
		"\\a", "\x01",
	)
)

// LowLevelQuote escapes the bytes that could break line framing. It is
// applied to a whole message body before it is sent.
func LowLevelQuote(s string) string {
	return lowQuoter.Replace(s)
}

// LowLevelDequote reverses LowLevelQuote. An escape byte followed by
// anything else is left alone.
func LowLevelDequote(s string) string {
	if strings.IndexByte(s, MQuote) < 0 {
		return s
	}
	return lowDequoter.Replace(s)
}

// Quote escapes the delimiter inside a tagged payload.
func Quote(s string) string {
	return quoter.Replace(s)
}

// Dequote reverses Quote.
func Dequote(s string) string {
	if strings.IndexByte(s, XQuote) < 0 {
		return s
	}
	return dequoter.Replace(s)
}
