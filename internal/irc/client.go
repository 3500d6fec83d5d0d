package irc

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dalnet/ircutils/internal/ctcp"
	"github.com/dalnet/ircutils/internal/protocol"
	"github.com/ergochat/irc-go/ircfmt"
	"github.com/inconshreveable/log15"
)

// LineWriter sends complete protocol lines, terminator included. It must be
// safe for concurrent use.
type LineWriter interface {
	WriteLine(line string) error
}

// Options configures a Client.
type Options struct {
	Nick     string
	AltNick  string // tried first when Nick is taken during registration
	Ident    string
	RealName string
	Mode     string // USER mode parameter, "0" when empty
	Password string // server password

	// FilterFormatting strips colour and formatting codes from message text.
	FilterFormatting bool
	// AutoPong answers server PINGs.
	AutoPong bool

	// Version and Source answer CTCP VERSION and SOURCE when set.
	Version string
	Source  string

	Logger log15.Logger
}

// Client turns inbound lines into dispatched events and offers the
// outbound commands. One Client serves one connection.
type Client struct {
	opts       Options
	w          LineWriter
	log        log15.Logger
	dispatcher *Dispatcher
	state      *State
	filter     func(string) string

	mu         sync.RWMutex
	nick       string // confirmed by the server
	pending    string // requested, not yet confirmed
	registered bool
}

// NewClient returns a client writing to w.
func NewClient(opts Options, w LineWriter) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = log15.New("module", "irc")
	}
	if opts.Ident == "" {
		opts.Ident = opts.Nick
	}
	if opts.RealName == "" {
		opts.RealName = opts.Nick
	}
	if opts.Mode == "" {
		opts.Mode = "0"
	}

	c := &Client{
		opts:       opts,
		w:          w,
		log:        logger,
		dispatcher: NewDispatcher(logger),
		state:      NewState(),
	}
	if opts.FilterFormatting {
		c.filter = ircfmt.Strip
	}

	defaultListeners(c.dispatcher)
	c.registerHandlers()
	return c
}

// Nickname returns the nickname confirmed by the server, or the one
// requested when none is confirmed yet.
func (c *Client) Nickname() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.nick != "" {
		return c.nick
	}
	return c.pending
}

// Registered reports whether RPL_WELCOME has been received.
func (c *Client) Registered() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registered
}

// IsSelf reports whether nick is the client's nickname.
func (c *Client) IsSelf(nick string) bool {
	return nick != "" && protocol.EqualFold(nick, c.Nickname())
}

// State returns the channel state store.
func (c *Client) State() *State { return c.state }

// Dispatcher returns the client's dispatcher.
func (c *Client) Dispatcher() *Dispatcher { return c.dispatcher }

// Handle adds h to the named listener at normal priority.
func (c *Client) Handle(name string, h Handler) error {
	return c.dispatcher.Bind(map[string]Handler{name: h})
}

// HandleLine parses, classifies and dispatches one line.
func (c *Client) HandleLine(line string) error {
	msg, err := protocol.ParseLine(line)
	if err != nil {
		return fmt.Errorf("failed to parse line %q: %w", line, err)
	}
	c.log.Debug("recv", "line", line)
	for _, ev := range Classify(msg, c.filter) {
		c.dispatcher.Dispatch(c, ev)
	}
	return nil
}

// Run reads lines from r until it ends or ctx is cancelled. CONNECT is
// dispatched before the first line and DISCONNECT after the last. Malformed
// lines are logged and skipped. Cancelling ctx does not unblock a pending
// read; close the underlying connection for that.
func (c *Client) Run(ctx context.Context, r io.Reader) error {
	c.dispatcher.Dispatch(c, &ConnectionEvent{Command: KindConnect})

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		f := protocol.NewFramer(r)
		for f.Scan() {
			select {
			case lines <- f.Text():
			case <-ctx.Done():
				scanErr <- ctx.Err()
				return
			}
		}
		scanErr <- f.Err()
	}()

	var err error
loop:
	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break loop
		case line, ok := <-lines:
			if !ok {
				err = <-scanErr
				break loop
			}
			if herr := c.HandleLine(line); herr != nil {
				c.log.Warn("skipping malformed line", "err", herr)
			}
		}
	}

	c.teardown()
	c.dispatcher.Dispatch(c, &ConnectionEvent{Command: KindDisconnect, Err: err})
	return err
}

// teardown drops unfinished replies and channel state.
func (c *Client) teardown() {
	for _, name := range c.dispatcher.Names() {
		agg := c.dispatcher.Listener(name).Aggregator()
		if agg == nil {
			continue
		}
		if n := agg.Pending(); n > 0 {
			c.log.Debug("discarding unfinished replies", "listener", name, "pending", n)
		}
		agg.Reset()
	}
	c.state.clear()

	c.mu.Lock()
	c.registered = false
	c.mu.Unlock()
}

func (c *Client) send(command string, params []string, trailing *string) error {
	line := protocol.Render(command, params, trailing)
	c.log.Debug("send", "line", strings.TrimSuffix(line, "\r\n"))
	if err := c.w.WriteLine(line); err != nil {
		return fmt.Errorf("failed to send %s: %w", strings.ToUpper(command), err)
	}
	return nil
}

// Execute sends a command with plain parameters.
func (c *Client) Execute(command string, params ...string) error {
	return c.send(command, params, nil)
}

// ExecuteTrailing sends a command whose last parameter may contain spaces.
func (c *Client) ExecuteTrailing(command, trailing string, params ...string) error {
	return c.send(command, params, &trailing)
}

// Register sends PASS, USER and NICK.
func (c *Client) Register() error {
	if c.opts.Password != "" {
		if err := c.Execute("PASS", c.opts.Password); err != nil {
			return err
		}
	}
	if err := c.ExecuteTrailing("USER", c.opts.RealName, c.opts.Ident, c.opts.Mode, "*"); err != nil {
		return err
	}
	return c.SetNickname(c.opts.Nick)
}

// SetNickname asks for a new nickname. The change is only recorded once the
// server confirms it.
func (c *Client) SetNickname(nick string) error {
	c.mu.Lock()
	c.pending = nick
	c.mu.Unlock()
	return c.Execute("NICK", nick)
}

// Join joins channel, using key when it is not empty.
func (c *Client) Join(channel, key string) error {
	return c.Execute("JOIN", channel, key)
}

// Part leaves channel with an optional message.
func (c *Client) Part(channel, message string) error {
	if message == "" {
		return c.Execute("PART", channel)
	}
	return c.ExecuteTrailing("PART", message, channel)
}

// PrivMsg sends text to a nick or channel.
func (c *Client) PrivMsg(target, text string) error {
	return c.ExecuteTrailing("PRIVMSG", ctcp.LowLevelQuote(text), target)
}

// Notice sends text as a NOTICE.
func (c *Client) Notice(target, text string) error {
	return c.ExecuteTrailing("NOTICE", ctcp.LowLevelQuote(text), target)
}

// SendCTCP sends a CTCP request in a PRIVMSG.
func (c *Client) SendCTCP(target, command string, params ...string) error {
	return c.PrivMsg(target, ctcp.Encode(command, params...))
}

// SendCTCPReply sends a CTCP reply in a NOTICE.
func (c *Client) SendCTCPReply(target, command string, params ...string) error {
	return c.Notice(target, ctcp.Encode(command, params...))
}

// Action sends a CTCP ACTION.
func (c *Client) Action(target, text string) error {
	return c.SendCTCP(target, ctcp.Action, text)
}

// Identify sends the password to NickServ.
func (c *Client) Identify(password string) error {
	return c.PrivMsg("NickServ", "IDENTIFY "+password)
}

// Quit closes the session with an optional message.
func (c *Client) Quit(message string) error {
	if message == "" {
		return c.Execute("QUIT")
	}
	return c.ExecuteTrailing("QUIT", message)
}

// Who queries users matching mask.
func (c *Client) Who(mask string) error {
	return c.Execute("WHO", mask)
}

// Whois queries information about nick.
func (c *Client) Whois(nick string) error {
	return c.Execute("WHOIS", nick)
}

// Names asks for the members of channels, or of every visible channel.
func (c *Client) Names(channels ...string) error {
	return c.Execute("NAMES", strings.Join(channels, ","))
}

// List asks for channel topics and user counts.
func (c *Client) List(channels ...string) error {
	return c.Execute("LIST", strings.Join(channels, ","))
}

// Links asks for the server links, optionally limited to mask.
func (c *Client) Links(mask string) error {
	return c.Execute("LINKS", mask)
}

// SetTopic changes the topic of channel.
func (c *Client) SetTopic(channel, topic string) error {
	return c.ExecuteTrailing("TOPIC", topic, channel)
}

// Kick removes nick from channel with an optional reason.
func (c *Client) Kick(channel, nick, reason string) error {
	if reason == "" {
		return c.Execute("KICK", channel, nick)
	}
	return c.ExecuteTrailing("KICK", reason, channel, nick)
}

// Invite invites nick to channel.
func (c *Client) Invite(nick, channel string) error {
	return c.Execute("INVITE", nick, channel)
}

// Mode sets or queries modes on a channel or user.
func (c *Client) Mode(target string, modes ...string) error {
	return c.Execute("MODE", append([]string{target}, modes...)...)
}
