// Package ctcp implements the client-to-client protocol carried inside
// PRIVMSG and NOTICE bodies.
package ctcp

import "strings"

// Well known request names.
const (
	Action     = "ACTION"
	Version    = "VERSION"
	UserInfo   = "USERINFO"
	ClientInfo = "CLIENTINFO"
	ErrMsg     = "ERRMSG"
	Ping       = "PING"
	Time       = "TIME"
	Finger     = "FINGER"
	Source     = "SOURCE"
)

// Commands lists the requests this package knows by name.
var Commands = []string{Action, Version, UserInfo, ClientInfo, ErrMsg, Ping, Time, Finger, Source}

// Request is one parsed payload.
type Request struct {
	Command string
	Params  []string
}

// Tag wraps payload in delimiters.
func Tag(payload string) string {
	return string(Delim) + payload + string(Delim)
}

// Split separates the plain text of message from its tagged payloads. An
// unterminated final tag still yields a payload.
func Split(message string) (text string, payloads []string) {
	var b strings.Builder
	inTag := false
	for i := 0; i < len(message); i++ {
		j := strings.IndexByte(message[i:], Delim)
		if j < 0 {
			j = len(message)
		} else {
			j += i
		}
		if inTag {
			payloads = append(payloads, message[i:j])
		} else {
			b.WriteString(message[i:j])
		}
		inTag = !inTag
		i = j
	}
	return b.String(), payloads
}

// Extract splits message and parses every payload after CTCP level
// dequoting. Empty payloads are returned with an empty command.
func Extract(message string) (text string, requests []Request) {
	text, payloads := Split(message)
	for _, p := range payloads {
		requests = append(requests, ParseRequest(Dequote(p)))
	}
	return text, requests
}

// ParseRequest splits a payload at its first run of whitespace. The command
// is everything before it and the single parameter everything after.
func ParseRequest(payload string) Request {
	i := strings.IndexAny(payload, " \t")
	if i < 0 {
		return Request{Command: payload}
	}
	req := Request{Command: payload[:i]}
	if rest := strings.TrimLeft(payload[i:], " \t"); rest != "" {
		req.Params = []string{rest}
	}
	return req
}

// Encode builds a tagged request ready to be placed in a message body.
func Encode(command string, params ...string) string {
	payload := strings.ToUpper(command)
	if len(params) > 0 {
		payload += " " + strings.Join(params, " ")
	}
	return Tag(Quote(payload))
}

// Text returns the parameters joined back together.
func (r Request) Text() string {
	return strings.Join(r.Params, " ")
}
