package protocol

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyLine is returned for a line that holds nothing but whitespace.
	ErrEmptyLine = errors.New("empty line")
	// ErrMissingCommand is returned for a line with a prefix and no command.
	ErrMissingCommand = errors.New("missing command")
)

// Message is a single parsed protocol line.
type Message struct {
	Tags    map[string]string
	Prefix  string
	Command string
	Params  []string
}

// Source parses the message prefix.
func (m Message) Source() Prefix {
	return ParsePrefix(m.Prefix)
}

// Param returns the i'th parameter, or "" when there are not that many.
func (m Message) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// Trailing returns the last parameter.
func (m Message) Trailing() string {
	if len(m.Params) == 0 {
		return ""
	}
	return m.Params[len(m.Params)-1]
}

// ParseLine parses a line with its terminator already removed. The command
// is upper cased and numeric replies are replaced by their symbolic name.
func ParseLine(line string) (Message, error) {
	var msg Message

	rest := strings.TrimLeft(line, " ")
	if rest == "" {
		return msg, ErrEmptyLine
	}

	if rest[0] == '@' {
		var tags string
		tags, rest = cut(rest[1:])
		msg.Tags = parseTags(tags)
	}

	if rest != "" && rest[0] == ':' {
		msg.Prefix, rest = cut(rest[1:])
	}

	var trailing string
	hasTrailing := false
	if strings.HasPrefix(rest, ":") {
		// a bare trailing section is still a missing command
		return msg, ErrMissingCommand
	}
	if i := strings.Index(rest, " :"); i >= 0 {
		rest, trailing = rest[:i], rest[i+2:]
		hasTrailing = true
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return msg, ErrMissingCommand
	}

	msg.Command = CommandName(strings.ToUpper(fields[0]))
	msg.Params = fields[1:]
	if hasTrailing {
		msg.Params = append(msg.Params, trailing)
	}
	if len(msg.Params) == 0 {
		msg.Params = nil
	}

	return msg, nil
}

// cut splits s at the first space and skips any spaces after it.
func cut(s string) (head, tail string) {
	i := strings.IndexByte(s, ' ')
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i+1:], " ")
}

func parseTags(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	tags := make(map[string]string)
	for _, tag := range strings.Split(raw, ";") {
		if tag == "" {
			continue
		}
		k, v, _ := strings.Cut(tag, "=")
		tags[k] = v
	}
	return tags
}
