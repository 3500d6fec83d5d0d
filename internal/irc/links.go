package irc

import (
	"fmt"
	"sort"
	"strings"
)

// LinkEntry is one RPL_LINKS line.
type LinkEntry struct {
	Server      string
	Hub         string // server this one is linked to
	Hops        int
	Description string
}

// LinkTree holds the servers reported by a LINKS reply.
type LinkTree struct {
	entries map[string]*LinkEntry
	order   []string
}

// NewLinkTree returns an empty tree.
func NewLinkTree() *LinkTree {
	return &LinkTree{entries: make(map[string]*LinkEntry)}
}

// Add records a server. A server reported twice keeps its first position.
func (t *LinkTree) Add(server, hub string, hops int, description string) {
	key := strings.ToLower(server)
	if _, ok := t.entries[key]; !ok {
		t.order = append(t.order, key)
	}
	t.entries[key] = &LinkEntry{
		Server:      server,
		Hub:         hub,
		Hops:        hops,
		Description: description,
	}
}

// Len returns the number of servers.
func (t *LinkTree) Len() int { return len(t.order) }

// Entries returns the servers in the order they were reported.
func (t *LinkTree) Entries() []LinkEntry {
	out := make([]LinkEntry, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, *t.entries[key])
	}
	return out
}

// ShortNames returns each server name up to its first dot.
func (t *LinkTree) ShortNames() []string {
	names := make([]string, 0, len(t.order))
	for _, key := range t.order {
		server := t.entries[key].Server
		if i := strings.IndexByte(server, '.'); i > 0 {
			server = server[:i]
		}
		names = append(names, server)
	}
	return names
}

// Root returns the server with zero hops, the one the reply came from.
func (t *LinkTree) Root() (LinkEntry, bool) {
	for _, key := range t.order {
		if e := t.entries[key]; e.Hops == 0 {
			return *e, true
		}
	}
	return LinkEntry{}, false
}

// Build renders the tree depth first, children sorted by name:
//
//	hub.example.net (0) Hub
//	|_ a.example.net (1) Leaf
//	|  |_ c.example.net (2) Leaf
//	|_ b.example.net (1) Leaf
func (t *LinkTree) Build() []string {
	root, ok := t.Root()
	if !ok {
		return nil
	}

	var ordered []*LinkEntry
	seen := make(map[string]bool)
	var walk func(e *LinkEntry)
	walk = func(e *LinkEntry) {
		key := strings.ToLower(e.Server)
		if seen[key] {
			return
		}
		seen[key] = true
		ordered = append(ordered, e)
		for _, child := range t.children(e.Server) {
			walk(child)
		}
	}
	walk(t.entries[strings.ToLower(root.Server)])

	lines := make([]string, 0, len(ordered))
	for i, e := range ordered {
		lines = append(lines, formatLink(e, ordered[i+1:]))
	}
	return lines
}

func (t *LinkTree) children(parent string) []*LinkEntry {
	var children []*LinkEntry
	for _, key := range t.order {
		e := t.entries[key]
		if strings.EqualFold(e.Hub, parent) && !strings.EqualFold(e.Server, parent) {
			children = append(children, e)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		return children[i].Server < children[j].Server
	})
	return children
}

func formatLink(e *LinkEntry, rest []*LinkEntry) string {
	if e.Hops == 0 {
		return fmt.Sprintf("%s (%d) %s", e.Server, e.Hops, e.Description)
	}
	var prefix strings.Builder
	for level := 1; level < e.Hops; level++ {
		if moreAtLevel(level, rest) {
			prefix.WriteString("|  ")
		} else {
			prefix.WriteString("   ")
		}
	}
	prefix.WriteString("|_ ")
	return fmt.Sprintf("%s%s (%d) %s", prefix.String(), e.Server, e.Hops, e.Description)
}

// moreAtLevel reports whether another server at level follows before the
// current branch closes.
func moreAtLevel(level int, rest []*LinkEntry) bool {
	for _, e := range rest {
		if e.Hops < level {
			return false
		}
		if e.Hops == level {
			return true
		}
	}
	return false
}
