package irc

import (
	"strconv"
	"strings"

	"github.com/dalnet/ircutils/internal/protocol"
)

// Aggregator collects the lines of a multi-line reply and returns one
// composite event when the terminating line arrives. Entries are keyed by
// case folded channel or nickname. An entry whose terminator never comes
// stays until Reset.
type Aggregator interface {
	// Feed consumes a line and returns the finished composite, or nil.
	Feed(ev *StandardEvent) Event
	// Rename moves an in-progress entry to a new key.
	Rename(from, to string)
	// Forget drops the in-progress entry for key.
	Forget(key string)
	// Pending returns the number of unfinished entries.
	Pending() int
	// Reset drops every unfinished entry.
	Reset()
}

// pendingMap holds in-progress composites by folded key.
type pendingMap[T any] struct {
	entries  map[string]*T
	onRename func(entry *T, to string)
}

func newPendingMap[T any]() *pendingMap[T] {
	return &pendingMap[T]{entries: make(map[string]*T)}
}

func (p *pendingMap[T]) get(key string, create func() *T) *T {
	k := protocol.Fold(key)
	entry, ok := p.entries[k]
	if !ok {
		entry = create()
		p.entries[k] = entry
	}
	return entry
}

func (p *pendingMap[T]) lookup(key string) (*T, bool) {
	entry, ok := p.entries[protocol.Fold(key)]
	return entry, ok
}

func (p *pendingMap[T]) take(key string) (*T, bool) {
	k := protocol.Fold(key)
	entry, ok := p.entries[k]
	if ok {
		delete(p.entries, k)
	}
	return entry, ok
}

func (p *pendingMap[T]) Rename(from, to string) {
	entry, ok := p.take(from)
	if !ok {
		return
	}
	if p.onRename != nil {
		p.onRename(entry, to)
	}
	p.entries[protocol.Fold(to)] = entry
}

func (p *pendingMap[T]) Forget(key string) { delete(p.entries, protocol.Fold(key)) }

func (p *pendingMap[T]) Pending() int { return len(p.entries) }

func (p *pendingMap[T]) Reset() { p.entries = make(map[string]*T) }

// Membership prefixes shown in NAMES replies.
const nameSymbols = "~&@%+"

// stripName removes membership prefixes and any user@host suffix.
func stripName(name string) string {
	name = strings.TrimLeft(name, nameSymbols)
	if i := strings.IndexByte(name, '!'); i >= 0 {
		name = name[:i]
	}
	return name
}

// NamesAggregator builds NameReplyEvents from RPL_NAMREPLY and
// RPL_ENDOFNAMES.
type NamesAggregator struct {
	*pendingMap[NameReplyEvent]
}

// NewNamesAggregator returns an empty NamesAggregator.
func NewNamesAggregator() *NamesAggregator {
	return &NamesAggregator{newPendingMap[NameReplyEvent]()}
}

// Feed collects names per channel. RPL_ENDOFNAMES always yields an event,
// empty when no names came.
func (a *NamesAggregator) Feed(ev *StandardEvent) Event {
	switch ev.Command {
	case "RPL_NAMREPLY":
		// [symbol] channel :names
		if len(ev.Params) < 2 {
			return nil
		}
		channel := ev.Params[len(ev.Params)-2]
		entry := a.get(channel, func() *NameReplyEvent {
			return &NameReplyEvent{Channel: channel}
		})
		for _, name := range strings.Fields(ev.Trailing()) {
			if name = stripName(name); name != "" {
				entry.Names = append(entry.Names, name)
			}
		}
	case "RPL_ENDOFNAMES":
		channel := ev.Param(0)
		if entry, ok := a.take(channel); ok {
			return entry
		}
		return &NameReplyEvent{Channel: channel}
	}
	return nil
}

// WhoAggregator builds WhoReplyEvents from RPL_WHOREPLY and RPL_ENDOFWHO.
// Channel is set to the mask named by RPL_ENDOFWHO.
type WhoAggregator struct {
	*pendingMap[WhoReplyEvent]
}

// Only one WHO can be in flight.
const whoKey = "*"

// NewWhoAggregator returns an empty WhoAggregator.
func NewWhoAggregator() *WhoAggregator {
	return &WhoAggregator{newPendingMap[WhoReplyEvent]()}
}

// Feed collects WHO lines until RPL_ENDOFWHO.
func (a *WhoAggregator) Feed(ev *StandardEvent) Event {
	switch ev.Command {
	case "RPL_WHOREPLY":
		// channel user host server nick flags :hops realname
		if len(ev.Params) < 7 {
			return nil
		}
		// Lines carry the channel of each user, not the queried mask.
		entry := a.get(whoKey, func() *WhoReplyEvent { return &WhoReplyEvent{} })
		who := WhoEntry{
			User:   ev.Params[1],
			Host:   ev.Params[2],
			Server: ev.Params[3],
			Nick:   ev.Params[4],
			Flags:  ev.Params[5],
		}
		hops, real, _ := strings.Cut(ev.Params[6], " ")
		who.Hops, _ = strconv.Atoi(hops)
		who.RealName = real
		who.Away = strings.HasPrefix(who.Flags, "G")
		who.Operator = strings.Contains(who.Flags, "*")
		entry.Users = append(entry.Users, who)
	case "RPL_ENDOFWHO":
		entry, ok := a.take(whoKey)
		if !ok {
			entry = &WhoReplyEvent{}
		}
		entry.Channel = ev.Param(0)
		return entry
	}
	return nil
}

// WhoisAggregator builds WhoisReplyEvents keyed by nickname.
type WhoisAggregator struct {
	*pendingMap[WhoisReplyEvent]
}

// NewWhoisAggregator returns an empty WhoisAggregator. Renames carry over
// to the entry's Nick.
func NewWhoisAggregator() *WhoisAggregator {
	p := newPendingMap[WhoisReplyEvent]()
	p.onRename = func(entry *WhoisReplyEvent, to string) { entry.Nick = to }
	return &WhoisAggregator{p}
}

func (a *WhoisAggregator) entry(nick string) *WhoisReplyEvent {
	return a.get(nick, func() *WhoisReplyEvent {
		return &WhoisReplyEvent{Nick: nick}
	})
}

// Feed collects WHOIS lines per nickname. RPL_AWAY only counts while a
// WHOIS for that nickname is in progress.
func (a *WhoisAggregator) Feed(ev *StandardEvent) Event {
	nick := ev.Param(0)
	if nick == "" {
		return nil
	}
	switch ev.Command {
	case "RPL_WHOISUSER":
		// nick user host * :realname
		if len(ev.Params) < 5 {
			return nil
		}
		w := a.entry(nick)
		w.User = ev.Params[1]
		w.Host = ev.Params[2]
		w.RealName = ev.Params[4]
	case "RPL_WHOISSERVER":
		w := a.entry(nick)
		w.Server = ev.Param(1)
		w.ServerInfo = ev.Param(2)
	case "RPL_WHOISOPERATOR":
		a.entry(nick).IsOperator = true
	case "RPL_WHOISIDLE":
		// nick idle signon :seconds idle, signon time
		w := a.entry(nick)
		w.Idle, _ = strconv.Atoi(ev.Param(1))
		if len(ev.Params) > 3 {
			w.SignOn, _ = strconv.ParseInt(ev.Param(2), 10, 64)
		}
	case "RPL_WHOISCHANNELS":
		w := a.entry(nick)
		w.Channels = append(w.Channels, strings.Fields(ev.Trailing())...)
	case "RPL_WHOISACCOUNT":
		a.entry(nick).Account = ev.Param(1)
	case "RPL_AWAY":
		// also sent when messaging an away user, only record it mid-WHOIS
		if w, ok := a.lookup(nick); ok {
			w.Away = ev.Trailing()
		}
	case "RPL_ENDOFWHOIS":
		if w, ok := a.take(nick); ok {
			return w
		}
	}
	return nil
}

// ListAggregator builds a ListReplyEvent from RPL_LIST and RPL_LISTEND.
type ListAggregator struct {
	*pendingMap[ListReplyEvent]
}

// Only one LIST can be in flight.
const listKey = "*"

// NewListAggregator returns an empty ListAggregator.
func NewListAggregator() *ListAggregator {
	return &ListAggregator{newPendingMap[ListReplyEvent]()}
}

// Feed collects RPL_LIST lines until RPL_LISTEND.
func (a *ListAggregator) Feed(ev *StandardEvent) Event {
	switch ev.Command {
	case "RPL_LIST":
		// channel users :topic
		if len(ev.Params) < 2 {
			return nil
		}
		entry := a.get(listKey, func() *ListReplyEvent { return &ListReplyEvent{} })
		users, _ := strconv.Atoi(ev.Params[1])
		item := ListEntry{Channel: ev.Params[0], Users: users}
		if len(ev.Params) > 2 {
			item.Topic = ev.Trailing()
		}
		entry.Channels = append(entry.Channels, item)
	case "RPL_LISTEND":
		if entry, ok := a.take(listKey); ok {
			return entry
		}
		return &ListReplyEvent{}
	}
	return nil
}

// LinksAggregator builds a LinksReplyEvent from RPL_LINKS and
// RPL_ENDOFLINKS.
type LinksAggregator struct {
	*pendingMap[LinksReplyEvent]
}

// Only one LINKS can be in flight.
const linksKey = "*"

// NewLinksAggregator returns an empty LinksAggregator.
func NewLinksAggregator() *LinksAggregator {
	return &LinksAggregator{newPendingMap[LinksReplyEvent]()}
}

// Feed adds RPL_LINKS lines to a LinkTree until RPL_ENDOFLINKS.
func (a *LinksAggregator) Feed(ev *StandardEvent) Event {
	switch ev.Command {
	case "RPL_LINKS":
		// server hub :hops description
		if len(ev.Params) < 3 {
			return nil
		}
		entry := a.get(linksKey, func() *LinksReplyEvent {
			return &LinksReplyEvent{Tree: NewLinkTree()}
		})
		hops, desc, _ := strings.Cut(ev.Params[2], " ")
		n, _ := strconv.Atoi(hops)
		entry.Tree.Add(ev.Params[0], ev.Params[1], n, desc)
	case "RPL_ENDOFLINKS":
		entry, ok := a.take(linksKey)
		if !ok {
			entry = &LinksReplyEvent{Tree: NewLinkTree()}
		}
		entry.Mask = ev.Param(0)
		return entry
	}
	return nil
}
