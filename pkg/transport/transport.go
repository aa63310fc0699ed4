// Package transport carries bridge envelopes between the UI side and the host.
//
// A Transport only knows how to check for and post to named host channels.
// Messages flowing back from the host are handed to an Inbound, normally a
// *bridge.Client.
package transport

import (
	"encoding/json"
	"errors"
)

// Transport posts one-way messages to named host channels.
type Transport interface {
	// Has reports whether the named channel is currently reachable.
	Has(channel string) bool
	// Send posts message to channel. It must not wait for a reply.
	Send(channel string, message json.RawMessage) error
}

// Inbound receives host-originated callback messages.
type Inbound interface {
	DeliverRequestResult(callbackID string, result, errPayload json.RawMessage)
	DeliverObserverData(observerID string, data json.RawMessage)
}

// ChannelLister is implemented by transports that can enumerate their channels.
type ChannelLister interface {
	Channels() []string
}

var (
	// ErrClosed is returned by Send after the transport was closed.
	ErrClosed = errors.New("transport: closed")

	// ErrHandshake is returned when the host does not announce its channels.
	ErrHandshake = errors.New("transport: handshake failed")
)
