package protocol

import "strings"

// Prefix is the source of a message: a server name, or a nickname with an
// optional user and host. Missing parts are empty.
type Prefix struct {
	Name string
	User string
	Host string
}

// ParsePrefix splits a raw prefix of the form nick!user@host. The host is
// split off at the first '@', then the user at the first '!'.
func ParsePrefix(raw string) Prefix {
	var p Prefix
	if raw == "" {
		return p
	}
	if i := strings.IndexByte(raw, '@'); i >= 0 {
		raw, p.Host = raw[:i], raw[i+1:]
	}
	if i := strings.IndexByte(raw, '!'); i >= 0 {
		raw, p.User = raw[:i], raw[i+1:]
	}
	p.Name = raw
	return p
}

// String reassembles the prefix.
func (p Prefix) String() string {
	s := p.Name
	if p.User != "" {
		s += "!" + p.User
	}
	if p.Host != "" {
		s += "@" + p.Host
	}
	return s
}
