package irc

import (
	"strings"

	"github.com/dalnet/ircutils/internal/ctcp"
	"github.com/dalnet/ircutils/internal/protocol"
)

const ctcpPrefix = "CTCP_"

// Commands whose first parameter is not a target.
var targetless = map[string]bool{
	"QUIT":  true,
	"PING":  true,
	"SQUIT": true,
}

// Classify turns a parsed line into events. Most lines give exactly one
// StandardEvent. A PRIVMSG or NOTICE gives a MessageEvent when any text is
// left after its CTCP payloads are removed, plus one CTCPEvent per payload,
// so it may give none at all. filter, when not nil, is applied to message
// text before the emptiness check.
func Classify(msg protocol.Message, filter func(string) string) []Event {
	ev := newStandardEvent(msg)
	if ev.Command != "PRIVMSG" && ev.Command != "NOTICE" {
		return []Event{ev}
	}

	text, requests := ctcp.Extract(ctcp.LowLevelDequote(ev.Trailing()))
	if filter != nil {
		text = filter(text)
	}

	var events []Event
	if strings.TrimSpace(text) != "" {
		events = append(events, &MessageEvent{StandardEvent: *ev, Text: text})
	}
	for _, req := range requests {
		if req.Command == "" {
			continue
		}
		events = append(events, &CTCPEvent{
			Command: ctcpPrefix + strings.ToUpper(req.Command),
			Params:  req.Params,
			Source:  ev.Source,
			User:    ev.User,
			Host:    ev.Host,
			Target:  ev.Target,
			Reply:   ev.Command == "NOTICE",
		})
	}
	return events
}

func newStandardEvent(msg protocol.Message) *StandardEvent {
	src := msg.Source()
	ev := &StandardEvent{
		Command: msg.Command,
		Source:  src.Name,
		User:    src.User,
		Host:    src.Host,
		Tags:    msg.Tags,
		Raw:     msg,
	}
	switch {
	case targetless[msg.Command]:
		ev.Params = msg.Params
	case len(msg.Params) > 0:
		ev.Target = msg.Params[0]
		ev.Params = msg.Params[1:]
	}
	return ev
}
