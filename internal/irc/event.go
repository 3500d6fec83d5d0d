package irc

import (
	"github.com/dalnet/ircutils/internal/protocol"
	"github.com/ergochat/irc-go/ircmsg"
)

// Event is anything delivered through the dispatcher.
type Event interface {
	// Kind is the command the event was built from, or the composite
	// name for aggregated replies.
	Kind() string
}

// Kinds of events that do not come from a single protocol line.
const (
	KindConnect    = "CONNECT"
	KindDisconnect = "DISCONNECT"
	KindNameReply  = "NAME_REPLY"
	KindWhoReply   = "WHO_REPLY"
	KindWhoisReply = "WHOIS_REPLY"
	KindListReply  = "LIST_REPLY"
	KindLinksReply = "LINKS_REPLY"
)

// StandardEvent is built from one parsed line.
type StandardEvent struct {
	Command string
	Source  string
	User    string
	Host    string
	// Target is the first parameter. It is empty for QUIT, PING and SQUIT,
	// which have no target.
	Target string
	Params []string
	Tags   map[string]string
	Raw    protocol.Message
}

func (e *StandardEvent) Kind() string { return e.Command }

// Hostmask returns nick!user@host for the source.
func (e *StandardEvent) Hostmask() string {
	nuh := ircmsg.NUH{Name: e.Source, User: e.User, Host: e.Host}
	return nuh.Canonical()
}

// Param returns Params[i] or "".
func (e *StandardEvent) Param(i int) string {
	if i < 0 || i >= len(e.Params) {
		return ""
	}
	return e.Params[i]
}

// Trailing returns the last parameter after the target.
func (e *StandardEvent) Trailing() string {
	if len(e.Params) == 0 {
		return ""
	}
	return e.Params[len(e.Params)-1]
}

// MessageEvent is a PRIVMSG or NOTICE with its CTCP payloads removed.
type MessageEvent struct {
	StandardEvent
	Text string
}

// InChannel reports whether the message was sent to a channel.
func (e *MessageEvent) InChannel() bool {
	return protocol.IsChannel(e.Target)
}

// CTCPEvent is one request or reply found in a message body. Command is the
// CTCP command prefixed with CTCP_.
type CTCPEvent struct {
	Command string
	Params  []string
	Source  string
	User    string
	Host    string
	Target  string
	// Reply is set when the payload came in a NOTICE.
	Reply bool
}

func (e *CTCPEvent) Kind() string { return e.Command }

// Name returns the CTCP command without its prefix.
func (e *CTCPEvent) Name() string {
	return e.Command[len(ctcpPrefix):]
}

// ConnectionEvent marks the start and end of a connection.
type ConnectionEvent struct {
	Command string
	// Err is why the connection ended, nil for a clean close.
	Err error
}

func (e *ConnectionEvent) Kind() string { return e.Command }

// NameReplyEvent is a completed NAMES reply.
type NameReplyEvent struct {
	Channel string
	Names   []string
}

func (e *NameReplyEvent) Kind() string { return KindNameReply }

// WhoisReplyEvent is a completed WHOIS reply.
type WhoisReplyEvent struct {
	Nick       string
	User       string
	Host       string
	RealName   string
	Channels   []string
	Server     string
	ServerInfo string
	IsOperator bool
	Idle       int
	SignOn     int64
	Account    string
	Away       string
}

func (e *WhoisReplyEvent) Kind() string { return KindWhoisReply }

// WhoEntry is one RPL_WHOREPLY line.
type WhoEntry struct {
	Nick     string
	User     string
	Host     string
	Server   string
	Flags    string
	Hops     int
	RealName string
	Away     bool
	Operator bool
}

// WhoReplyEvent is a completed WHO reply for a channel or mask.
type WhoReplyEvent struct {
	Channel string
	Users   []WhoEntry
}

func (e *WhoReplyEvent) Kind() string { return KindWhoReply }

// ListEntry is one RPL_LIST line.
type ListEntry struct {
	Channel string
	Users   int
	Topic   string
}

// ListReplyEvent is a completed LIST reply.
type ListReplyEvent struct {
	Channels []ListEntry
}

func (e *ListReplyEvent) Kind() string { return KindListReply }

// LinksReplyEvent is a completed LINKS reply.
type LinksReplyEvent struct {
	Mask string
	Tree *LinkTree
}

func (e *LinksReplyEvent) Kind() string { return KindLinksReply }
