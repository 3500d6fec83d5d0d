package protocol

import (
	"strings"

	"github.com/ergochat/irc-go/ircutils"
)

// MaxWireLength is the largest line a server must accept, CR LF included.
const MaxWireLength = 512

// Render formats an outbound line. The command is upper cased, empty
// parameters are left out and trailing, when not nil, is sent last after a
// colon. Lines longer than MaxWireLength are cut on a UTF-8 boundary.
func Render(command string, params []string, trailing *string) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(command))
	for _, p := range params {
		if p == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(p)
	}
	if trailing != nil {
		b.WriteString(" :")
		b.WriteString(*trailing)
	}
	line := b.String()
	if len(line)+2 > MaxWireLength {
		line = ircutils.TruncateUTF8Safe(line, MaxWireLength-2)
	}
	return line + "\r\n"
}

// IsChannel reports whether name is a valid channel name.
func IsChannel(name string) bool {
	var body string
	switch {
	case name == "":
		return false
	case name[0] == '#' || name[0] == '&' || name[0] == '+':
		body = name[1:]
	case name[0] == '!':
		// !12345name, the id is five alphanumerics
		if len(name) < 6 {
			return false
		}
		for i := 1; i < 6; i++ {
			if !isAlnum(name[i]) {
				return false
			}
		}
		body = name[6:]
	default:
		return false
	}
	if body == "" {
		return false
	}
	return !strings.ContainsAny(body, "\x00\x07\r\n ,:")
}

const nickSpecial = "-[]\\`^{}_|"

func isAlpha(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }

func isAlnum(c byte) bool { return isAlpha(c) || isDigit(c) }

func isNickChar(c byte) bool { return isAlnum(c) || strings.IndexByte(nickSpecial, c) >= 0 }

// IsNick reports whether nick is a valid nickname: a letter or special
// character followed by letters, digits or special characters.
func IsNick(nick string) bool {
	if nick == "" || isDigit(nick[0]) {
		return false
	}
	for i := 0; i < len(nick); i++ {
		if !isNickChar(nick[i]) {
			return false
		}
	}
	return true
}

// FilterNick drops every character that may not appear in a nickname and
// pads the result to three characters with underscores. It returns "" when
// nothing usable is left.
func FilterNick(nick string) string {
	var b strings.Builder
	for i := 0; i < len(nick); i++ {
		if isNickChar(nick[i]) {
			b.WriteByte(nick[i])
		}
	}
	if b.Len() == 0 {
		return ""
	}
	for b.Len() < 3 {
		b.WriteByte('_')
	}
	out := b.String()
	if isDigit(out[0]) {
		out = "_" + out
	}
	return out
}
