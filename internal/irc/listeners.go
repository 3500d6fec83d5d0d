package irc

import (
	"strings"

	"github.com/dalnet/ircutils/internal/protocol"
)

func isCommand(commands ...string) func(Event) bool {
	return func(ev Event) bool {
		se, ok := ev.(*StandardEvent)
		if !ok {
			return false
		}
		for _, cmd := range commands {
			if se.Command == cmd {
				return true
			}
		}
		return false
	}
}

// isMessage matches MessageEvents for any of commands. channel selects
// channel targets, private the rest; both true matches either.
func isMessage(channel, private bool, commands ...string) func(Event) bool {
	return func(ev Event) bool {
		me, ok := ev.(*MessageEvent)
		if !ok {
			return false
		}
		matched := false
		for _, cmd := range commands {
			if me.Command == cmd {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
		if me.InChannel() {
			return channel
		}
		return private
	}
}

func isCTCP(commands ...string) func(Event) bool {
	return func(ev Event) bool {
		ce, ok := ev.(*CTCPEvent)
		if !ok {
			return false
		}
		if len(commands) == 0 {
			return true
		}
		for _, cmd := range commands {
			if ce.Command == ctcpPrefix+cmd {
				return true
			}
		}
		return false
	}
}

func isConnection(command string) func(Event) bool {
	return func(ev Event) bool {
		ce, ok := ev.(*ConnectionEvent)
		return ok && ce.Command == command
	}
}

func hasPrefix(prefix string) func(Event) bool {
	return func(ev Event) bool {
		se, ok := ev.(*StandardEvent)
		return ok && strings.HasPrefix(se.Command, prefix)
	}
}

// isUnknown matches numerics missing from the reply table.
func isUnknown(ev Event) bool {
	se, ok := ev.(*StandardEvent)
	return ok && protocol.IsNumeric(se.Command)
}

// defaultListeners registers the standard listener set on d. Each client
// builds its own set so no listener state is shared.
func defaultListeners(d *Dispatcher) {
	d.Register("any", NewListener(func(Event) bool { return true }))
	d.Register("welcome", NewListener(isCommand("RPL_WELCOME")))

	d.Register("message", NewListener(isMessage(true, true, "PRIVMSG", "NOTICE")))
	d.Register("channel_message", NewListener(isMessage(true, false, "PRIVMSG")))
	d.Register("private_message", NewListener(isMessage(false, true, "PRIVMSG")))
	d.Register("notice", NewListener(isMessage(true, true, "NOTICE")))
	d.Register("channel_notice", NewListener(isMessage(true, false, "NOTICE")))
	d.Register("private_notice", NewListener(isMessage(false, true, "NOTICE")))

	d.Register("nick_change", NewListener(isCommand("NICK")))
	d.Register("ping", NewListener(isCommand("PING")))
	d.Register("invite", NewListener(isCommand("INVITE")))
	d.Register("kick", NewListener(isCommand("KICK")))
	d.Register("join", NewListener(isCommand("JOIN")))
	d.Register("quit", NewListener(isCommand("QUIT")))
	d.Register("part", NewListener(isCommand("PART")))
	d.Register("mode", NewListener(isCommand("MODE")))
	d.Register("topic", NewListener(isCommand("TOPIC")))
	d.Register("error", NewListener(isCommand("ERROR")))
	d.Register("unknown", NewListener(isUnknown))

	d.Register("connect", NewListener(isConnection(KindConnect)))
	d.Register("disconnect", NewListener(isConnection(KindDisconnect)))

	d.Register("ctcp", NewListener(isCTCP()))
	d.Register("ctcp_action", NewListener(isCTCP("ACTION")))
	d.Register("ctcp_userinfo", NewListener(isCTCP("USERINFO")))
	d.Register("ctcp_clientinfo", NewListener(isCTCP("CLIENTINFO")))
	d.Register("ctcp_version", NewListener(isCTCP("VERSION")))
	d.Register("ctcp_ping", NewListener(isCTCP("PING")))
	d.Register("ctcp_error", NewListener(isCTCP("ERRMSG", "ERROR")))
	d.Register("ctcp_time", NewListener(isCTCP("TIME")))

	d.Register("reply", NewListener(hasPrefix("RPL_")))
	d.Register("error_reply", NewListener(hasPrefix("ERR_")))
	d.Register("name_reply", NewAggregatingListener(NewNamesAggregator()))
	d.Register("who_reply", NewAggregatingListener(NewWhoAggregator()))
	d.Register("whois_reply", NewAggregatingListener(NewWhoisAggregator()))
	d.Register("list_reply", NewAggregatingListener(NewListAggregator()))
	d.Register("links_reply", NewAggregatingListener(NewLinksAggregator()))
}
