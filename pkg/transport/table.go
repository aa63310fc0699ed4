package transport

import (
	"encoding/json"
	"sort"
	"sync"

	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
)

// Handler consumes a message posted to a Table channel.
type Handler func(message json.RawMessage) error

// Table is an in-process transport backed by a map of channel handlers.
// It stands in for an embedded host, and handlers may deliver back into the
// bridge client synchronously from inside Send.
type Table struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewTable creates an empty channel table.
func NewTable() *Table {
	return &Table{handlers: make(map[string]Handler)}
}

// Handle registers (or replaces) the handler for channel.
func (t *Table) Handle(channel string, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[channel] = h
}

// Remove makes channel unreachable.
func (t *Table) Remove(channel string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, channel)
}

// Has implements Transport.
func (t *Table) Has(channel string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.handlers[channel]
	return ok
}

// Send implements Transport. The handler runs on the caller's goroutine
// without the table lock held.
func (t *Table) Send(channel string, message json.RawMessage) error {
	t.mu.RLock()
	h, ok := t.handlers[channel]
	t.mu.RUnlock()
	if !ok {
		return bridgeerrors.NewTransportUnavailableError(channel)
	}
	return h(message)
}

// Channels implements ChannelLister.
func (t *Table) Channels() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.handlers))
	for name := range t.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
