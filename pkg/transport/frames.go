package transport

import (
	"encoding/json"
	"fmt"
)

// Frame types exchanged over the websocket link.
const (
	FrameChannels = "channels" // host -> UI: reachable channel manifest
	FramePost     = "post"     // UI -> host: one-way message to a channel
	FrameCallback = "callback" // host -> UI: request settlement
	FrameObserver = "observer" // host -> UI: observer data
)

// Frame is the JSON text frame carried by the websocket transport.
// Only the fields relevant to Type are populated.
type Frame struct {
	Type string `json:"type"`

	Channels []string `json:"channels,omitempty"`

	Channel string          `json:"channel,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`

	CallbackID string          `json:"callbackId,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      json.RawMessage `json:"error,omitempty"`

	ObserverID string          `json:"observerId,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// DecodeFrame parses a single text frame.
func DecodeFrame(b []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("decode frame: missing type")
	}
	return &f, nil
}

// Dispatch hands a callback or observer frame to in. It reports whether the
// frame type was one it knows how to deliver.
func (f *Frame) Dispatch(in Inbound) bool {
	switch f.Type {
	case FrameCallback:
		in.DeliverRequestResult(f.CallbackID, f.Result, f.Error)
	case FrameObserver:
		in.DeliverObserverData(f.ObserverID, f.Data)
	default:
		return false
	}
	return true
}
