package bridge

import (
	"encoding/json"
	"fmt"

	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
)

// Correlation keys merged into outgoing payloads.
const (
	CallbackKey = "callbackId"
	ObserverKey = "observerId"
)

// Payload is the optional object merged with a correlation id.
type Payload map[string]any

// Envelope is an outgoing message tagged with a correlation id.
type Envelope struct {
	Key           string
	CorrelationID string
	Payload       Payload
}

// Validate rejects payloads that would overwrite the correlation key.
func (e Envelope) Validate() error {
	return checkReservedKey(e.Payload, e.Key)
}

// MarshalJSON encodes {<Key>: <CorrelationID>, ...Payload}.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	obj := make(map[string]any, len(e.Payload)+1)
	for k, v := range e.Payload {
		obj[k] = v
	}
	obj[e.Key] = e.CorrelationID
	return json.Marshal(obj)
}

func checkReservedKey(p Payload, key string) error {
	if _, ok := p[key]; ok {
		return bridgeerrors.NewInvalidArgumentError("payload",
			fmt.Sprintf("must not contain reserved key %q", key))
	}
	return nil
}

// requestMessage builds the wire message for a request. A nil payload sends
// the bare id as a JSON string; any non-nil payload, even an empty one,
// produces an object.
func requestMessage(id string, p Payload) (json.RawMessage, error) {
	if p == nil {
		return json.Marshal(id)
	}
	return json.Marshal(Envelope{Key: CallbackKey, CorrelationID: id, Payload: p})
}

// observerMessage builds the wire message for an observer registration.
func observerMessage(id string, p Payload) (json.RawMessage, error) {
	return json.Marshal(Envelope{Key: ObserverKey, CorrelationID: id, Payload: p})
}
