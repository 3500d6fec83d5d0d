package irc

import (
	"strings"
	"time"

	"github.com/dalnet/ircutils/internal/ctcp"
	"github.com/dalnet/ircutils/internal/protocol"
)

// Replies that mean a channel could not be joined or no longer exists.
var channelErrors = map[string]bool{
	"ERR_CHANNELISFULL":   true,
	"ERR_BANNEDFROMCHAN":  true,
	"ERR_INVITEONLYCHAN":  true,
	"ERR_BADCHANNELKEY":   true,
	"ERR_TOOMANYCHANNELS": true,
	"ERR_NOSUCHCHANNEL":   true,
	"ERR_BADCHANMASK":     true,
	"ERR_UNAVAILRESOURCE": true,
}

// CTCP requests answered by the client.
var clientInfo = []string{ctcp.Action, ctcp.ClientInfo, ctcp.Ping, ctcp.Source, ctcp.Time, ctcp.Version}

// registerHandlers installs the engine's own handlers. They run at high
// priority so application handlers see the updated state.
func (c *Client) registerHandlers() {
	d := c.dispatcher
	d.Listener("any").AddHandler(handleState, PriorityHigh)
	d.Listener("any").AddHandler(handleNick, PriorityHigh)
	d.Listener("name_reply").AddHandler(handleNames, PriorityHigh)
	d.Listener("ping").AddHandler(handlePing, PriorityHigh)
	d.Listener("ctcp").AddHandler(handleCTCP, PriorityHigh)
}

// handleState keeps the channel store and nick keyed aggregators in step
// with membership changes.
func handleState(c *Client, ev Event) (Result, error) {
	se, ok := ev.(*StandardEvent)
	if !ok {
		return Continue, nil
	}
	s := c.state

	switch se.Command {
	case "JOIN":
		if se.Target == "0" && c.IsSelf(se.Source) {
			s.clear()
			break
		}
		s.join(se.Target, se.Source)
	case "PART":
		for _, name := range strings.Split(se.Target, ",") {
			s.part(name, se.Source, c.IsSelf(se.Source))
		}
	case "KICK":
		victim := se.Param(0)
		s.part(se.Target, victim, c.IsSelf(victim))
	case "QUIT":
		if c.IsSelf(se.Source) {
			s.clear()
		} else {
			s.quit(se.Source)
		}
		for _, agg := range c.dispatcher.aggregators() {
			agg.Forget(se.Source)
		}
	case "NICK":
		s.rename(se.Source, se.Target)
		for _, agg := range c.dispatcher.aggregators() {
			agg.Rename(se.Source, se.Target)
		}
	case "TOPIC":
		s.setTopic(se.Target, se.Trailing())
	case "RPL_TOPIC":
		s.setTopic(se.Param(0), se.Trailing())
	case "MODE":
		if protocol.IsChannel(se.Target) {
			s.setMode(se.Target, strings.Join(se.Params, " "))
		}
	case "RPL_CHANNELMODEIS":
		if len(se.Params) > 1 {
			s.setMode(se.Params[0], strings.Join(se.Params[1:], " "))
		}
	default:
		if channelErrors[se.Command] && protocol.IsChannel(se.Param(0)) {
			s.remove(se.Param(0))
		}
	}
	return Continue, nil
}

// handleNick tracks the client's own nickname. A requested nickname is
// only adopted once the server confirms it, so a refused change needs no
// rollback.
func handleNick(c *Client, ev Event) (Result, error) {
	se, ok := ev.(*StandardEvent)
	if !ok {
		return Continue, nil
	}

	switch se.Command {
	case "RPL_WELCOME":
		c.mu.Lock()
		c.nick = se.Target
		c.pending = ""
		c.registered = true
		c.mu.Unlock()
		c.log.Info("registered", "nick", se.Target)
	case "NICK":
		if !c.IsSelf(se.Source) {
			break
		}
		c.mu.Lock()
		c.nick = se.Target
		if protocol.EqualFold(c.pending, se.Target) {
			c.pending = ""
		}
		c.mu.Unlock()
	case "ERR_NICKNAMEINUSE", "ERR_NICKCOLLISION", "ERR_ERRONEUSNICKNAME", "ERR_UNAVAILRESOURCE":
		attempted := se.Param(0)
		if protocol.IsChannel(attempted) {
			break
		}
		c.mu.Lock()
		c.pending = ""
		registered := c.registered
		c.mu.Unlock()
		c.log.Warn("nickname refused", "nick", attempted, "reason", se.Command)
		if !registered {
			c.logSendError(c.retryNick(se.Command, attempted))
		}
	}
	return Continue, nil
}

// retryNick picks another nickname while registering. There is no other
// way to finish registration, so a refused nickname is never left alone.
func (c *Client) retryNick(reason, attempted string) error {
	var next string
	switch {
	case c.opts.AltNick != "" && !protocol.EqualFold(attempted, c.opts.AltNick):
		next = c.opts.AltNick
	case reason == "ERR_ERRONEUSNICKNAME":
		next = protocol.FilterNick(attempted)
		if next == "" || next == attempted {
			c.log.Error("no usable nickname left", "nick", attempted)
			return nil
		}
	default:
		next = attempted + "_"
	}
	return c.SetNickname(next)
}

func handleNames(c *Client, ev Event) (Result, error) {
	if nr, ok := ev.(*NameReplyEvent); ok {
		c.state.setNames(nr.Channel, nr.Names, c.Nickname())
	}
	return Continue, nil
}

func handlePing(c *Client, ev Event) (Result, error) {
	if !c.opts.AutoPong {
		return Continue, nil
	}
	se := ev.(*StandardEvent)
	if len(se.Params) == 0 {
		c.logSendError(c.Execute("PONG"))
	} else {
		c.logSendError(c.ExecuteTrailing("PONG", se.Trailing()))
	}
	return Continue, nil
}

// handleCTCP answers the standard requests. Replies are never answered.
func handleCTCP(c *Client, ev Event) (Result, error) {
	ce, ok := ev.(*CTCPEvent)
	if !ok || ce.Reply || ce.Source == "" {
		return Continue, nil
	}

	var err error
	switch ce.Name() {
	case ctcp.Version:
		if c.opts.Version != "" {
			err = c.SendCTCPReply(ce.Source, ctcp.Version, c.opts.Version)
		}
	case ctcp.Source:
		if c.opts.Source != "" {
			err = c.SendCTCPReply(ce.Source, ctcp.Source, c.opts.Source)
		}
	case ctcp.Ping:
		err = c.SendCTCPReply(ce.Source, ctcp.Ping, ce.Params...)
	case ctcp.Time:
		err = c.SendCTCPReply(ce.Source, ctcp.Time, time.Now().Format(time.RFC1123Z))
	case ctcp.ClientInfo:
		err = c.SendCTCPReply(ce.Source, ctcp.ClientInfo, strings.Join(clientInfo, " "))
	}
	c.logSendError(err)
	return Continue, nil
}

// logSendError logs a failed write from an engine handler. Engine handlers
// never return errors since that would remove them.
func (c *Client) logSendError(err error) {
	if err != nil {
		c.log.Error("write failed", "err", err)
	}
}
