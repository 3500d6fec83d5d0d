package irc

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/inconshreveable/log15"
)

// ErrUnknownListener is returned when binding a handler to a name that has
// no listener.
var ErrUnknownListener = errors.New("unknown listener")

// Dispatcher delivers events to named listeners in registration order.
// Listeners and handlers may be added from any goroutine, including from
// inside a handler.
type Dispatcher struct {
	log       log15.Logger
	mu        sync.RWMutex
	names     []string
	listeners map[string]*Listener
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher(logger log15.Logger) *Dispatcher {
	if logger == nil {
		logger = log15.Root()
	}
	return &Dispatcher{
		log:       logger,
		listeners: make(map[string]*Listener),
	}
}

// Register adds l under name. A listener already registered under the same
// name is replaced and keeps its position.
func (d *Dispatcher) Register(name string, l *Listener) {
	l.name = name
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.listeners[name]; !ok {
		d.names = append(d.names, name)
	}
	d.listeners[name] = l
}

// Listener returns the listener registered under name, or nil.
func (d *Dispatcher) Listener(name string) *Listener {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.listeners[name]
}

// Names returns the listener names in registration order.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, len(d.names))
	copy(names, d.names)
	return names
}

// Dispatch hands ev to every listener that has at least one handler.
func (d *Dispatcher) Dispatch(c *Client, ev Event) {
	for _, l := range d.snapshot() {
		if l.Len() == 0 {
			continue
		}
		l.notify(c, ev, d.log)
	}
}

// snapshot returns the listeners in registration order.
func (d *Dispatcher) snapshot() []*Listener {
	d.mu.RLock()
	defer d.mu.RUnlock()
	listeners := make([]*Listener, len(d.names))
	for i, name := range d.names {
		listeners[i] = d.listeners[name]
	}
	return listeners
}

// Bind adds each handler in table to the listener of the same name at
// normal priority. Nothing is bound if any name is unknown.
func (d *Dispatcher) Bind(table map[string]Handler) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var unknown []string
	for name := range table {
		if _, ok := d.listeners[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("failed to bind handlers: %w: %s", ErrUnknownListener, strings.Join(unknown, ", "))
	}
	for name, h := range table {
		d.listeners[name].AddHandler(h, PriorityNormal)
	}
	return nil
}

// aggregators returns every registered aggregator.
func (d *Dispatcher) aggregators() []Aggregator {
	var aggs []Aggregator
	for _, l := range d.snapshot() {
		if agg := l.Aggregator(); agg != nil {
			aggs = append(aggs, agg)
		}
	}
	return aggs
}
