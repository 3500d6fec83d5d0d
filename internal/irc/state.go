package irc

import (
	"sort"
	"sync"

	"github.com/dalnet/ircutils/internal/protocol"
)

// ChannelInfo is a snapshot of one joined channel.
type ChannelInfo struct {
	Name    string
	Topic   string
	Mode    string
	Members []string
}

type channel struct {
	name    string
	topic   string
	mode    string
	members map[string]string // folded nick -> nick as last seen
}

// State tracks the channels the client is in and who is in them. It is
// only changed by the client's own handlers; the read methods may be used
// from any goroutine.
type State struct {
	mu       sync.RWMutex
	channels map[string]*channel
}

// NewState returns an empty store.
func NewState() *State {
	return &State{channels: make(map[string]*channel)}
}

func (s *State) ensure(name string) *channel {
	key := protocol.Fold(name)
	ch, ok := s.channels[key]
	if !ok {
		ch = &channel{name: name, members: make(map[string]string)}
		s.channels[key] = ch
	}
	return ch
}

func (s *State) lookup(name string) (*channel, bool) {
	ch, ok := s.channels[protocol.Fold(name)]
	return ch, ok
}

func (s *State) join(name, nick string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(name).members[protocol.Fold(nick)] = nick
}

func (s *State) part(name, nick string, self bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if self {
		delete(s.channels, protocol.Fold(name))
		return
	}
	if ch, ok := s.lookup(name); ok {
		delete(ch.members, protocol.Fold(nick))
	}
}

func (s *State) quit(nick string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := protocol.Fold(nick)
	for _, ch := range s.channels {
		delete(ch.members, key)
	}
}

func (s *State) rename(from, to string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	oldKey, newKey := protocol.Fold(from), protocol.Fold(to)
	for _, ch := range s.channels {
		if _, ok := ch.members[oldKey]; ok {
			delete(ch.members, oldKey)
			ch.members[newKey] = to
		}
	}
}

// setNames replaces the membership of a channel. A channel that is not
// tracked is only created when self is among the names.
func (s *State) setNames(name string, names []string, self string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make(map[string]string, len(names))
	for _, n := range names {
		members[protocol.Fold(n)] = n
	}
	ch, ok := s.lookup(name)
	if !ok {
		if _, in := members[protocol.Fold(self)]; !in {
			return
		}
		ch = s.ensure(name)
	}
	ch.members = members
}

func (s *State) remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.channels, protocol.Fold(name))
}

func (s *State) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = make(map[string]*channel)
}

func (s *State) setTopic(name, topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.lookup(name); ok {
		ch.topic = topic
	}
}

func (s *State) setMode(name, mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.lookup(name); ok {
		ch.mode = mode
	}
}

// Channel returns a snapshot of the named channel.
func (s *State) Channel(name string) (ChannelInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.lookup(name)
	if !ok {
		return ChannelInfo{}, false
	}
	return ChannelInfo{
		Name:    ch.name,
		Topic:   ch.topic,
		Mode:    ch.mode,
		Members: ch.memberList(),
	}, true
}

// Channels returns the names of all tracked channels, sorted.
func (s *State) Channels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.channels))
	for _, ch := range s.channels {
		names = append(names, ch.name)
	}
	sort.Strings(names)
	return names
}

// Members returns the nicknames in a channel, sorted.
func (s *State) Members(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ch, ok := s.lookup(name); ok {
		return ch.memberList()
	}
	return nil
}

// IsMember reports whether nick is in the channel.
func (s *State) IsMember(name, nick string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.lookup(name)
	if !ok {
		return false
	}
	_, ok = ch.members[protocol.Fold(nick)]
	return ok
}

// ChannelsOf returns the tracked channels nick is in, sorted.
func (s *State) ChannelsOf(nick string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := protocol.Fold(nick)
	var names []string
	for _, ch := range s.channels {
		if _, ok := ch.members[key]; ok {
			names = append(names, ch.name)
		}
	}
	sort.Strings(names)
	return names
}

func (ch *channel) memberList() []string {
	out := make([]string, 0, len(ch.members))
	for _, nick := range ch.members {
		out = append(out, nick)
	}
	sort.Strings(out)
	return out
}
