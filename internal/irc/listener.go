package irc

import (
	"fmt"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/inconshreveable/log15"
)

// Result tells a listener whether to keep running handlers for an event.
type Result int

const (
	// Continue runs the next handler.
	Continue Result = iota
	// Halt skips the remaining handlers of the listener for this event.
	Halt
)

// Handler priorities. Lower values run first.
const (
	PriorityHigh   = -10
	PriorityNormal = 0
	PriorityLow    = 10
)

// Handler reacts to an event. A handler that returns an error or panics is
// removed from its listener for good.
type Handler func(c *Client, ev Event) (Result, error)

// HandlerID identifies a handler within its listener.
type HandlerID uint64

// PanicError wraps a value recovered from a handler.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}

type handlerEntry struct {
	id       HandlerID
	priority int
	fn       Handler
}

// Listener holds the handlers for one kind of event. It either matches
// events with a predicate or feeds them to an Aggregator and runs its
// handlers on the composite events that come out.
type Listener struct {
	name  string
	match func(Event) bool
	agg   Aggregator

	mu       sync.Mutex
	handlers []handlerEntry
	nextID   HandlerID
}

// NewListener returns a listener that activates on events match accepts.
func NewListener(match func(Event) bool) *Listener {
	return &Listener{match: match}
}

// NewAggregatingListener returns a listener whose handlers receive the
// composite events produced by agg.
func NewAggregatingListener(agg Aggregator) *Listener {
	return &Listener{agg: agg}
}

// Name returns the name the listener was registered under.
func (l *Listener) Name() string { return l.name }

// Aggregator returns the listener's aggregator, or nil.
func (l *Listener) Aggregator() Aggregator { return l.agg }

// AddHandler inserts h after every handler with the same or a lower
// priority.
func (l *Listener) AddHandler(h Handler, priority int) HandlerID {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	entry := handlerEntry{id: l.nextID, priority: priority, fn: h}
	i := sort.Search(len(l.handlers), func(i int) bool {
		return l.handlers[i].priority > priority
	})
	l.handlers = append(l.handlers, handlerEntry{})
	copy(l.handlers[i+1:], l.handlers[i:])
	l.handlers[i] = entry
	return entry.id
}

// RemoveHandler removes the handler with the given id.
func (l *Listener) RemoveHandler(id HandlerID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, h := range l.handlers {
		if h.id == id {
			l.handlers = append(l.handlers[:i], l.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of handlers.
func (l *Listener) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.handlers)
}

func (l *Listener) notify(c *Client, ev Event, logger log15.Logger) {
	if l.agg != nil {
		se, ok := ev.(*StandardEvent)
		if !ok {
			return
		}
		composite := l.agg.Feed(se)
		if composite == nil {
			return
		}
		ev = composite
	} else if !l.match(ev) {
		return
	}
	l.activate(c, ev, logger)
}

func (l *Listener) activate(c *Client, ev Event, logger log15.Logger) {
	// Handlers added while running only see later events.
	l.mu.Lock()
	handlers := make([]handlerEntry, len(l.handlers))
	copy(handlers, l.handlers)
	l.mu.Unlock()

	for _, h := range handlers {
		res, err := call(h.fn, c, ev)
		if err != nil {
			ctx := []interface{}{"listener", l.name, "kind", ev.Kind(), "priority", h.priority, "err", err}
			if p, ok := err.(*PanicError); ok {
				ctx = append(ctx, "stack", string(p.Stack))
			}
			logger.Error("removing failed handler", ctx...)
			l.RemoveHandler(h.id)
			continue
		}
		if res == Halt {
			return
		}
	}
}

func call(fn Handler, c *Client, ev Event) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(c, ev)
}
