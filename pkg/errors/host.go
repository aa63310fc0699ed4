package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Fallback type and code for host error payloads that cannot be decoded.
const (
	HostTypeUnknown      = "unknown"
	HostCodeUnknownError = "UNKNOWN_ERROR"
)

// HostError is a failure the host explicitly reported for a request.
// Type and Code are host-defined; Message defaults to "<type>: <code>".
type HostError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// NewHostError creates a host error, filling in the default message.
func NewHostError(typ, code, message string) *HostError {
	if message == "" {
		message = fmt.Sprintf("%s: %s", typ, code)
	}
	return &HostError{Type: typ, Code: code, Message: message}
}

// Error implements the error interface.
func (e *HostError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Code)
	}
	return e.Message
}

// IsMalformed reports whether the error was synthesized from an undecodable payload.
func (e *HostError) IsMalformed() bool {
	return e.Type == HostTypeUnknown && e.Code == HostCodeUnknownError
}

// AsHostError extracts a *HostError from an error chain.
func AsHostError(err error) (*HostError, bool) {
	var hostErr *HostError
	if errors.As(err, &hostErr) {
		return hostErr, true
	}
	return nil, false
}

// HostErrorPresent reports whether an error field on a callback frame carries
// a failure. Missing, null, empty-string, false and zero values mean success.
func HostErrorPresent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", `""`, "false", "0":
		return false
	}
	return true
}

// ParseHostError normalizes a host error payload into a HostError.
//
// The payload may be a structured object, a JSON string holding encoded
// object text, or raw text. Non-string type, code or message values are
// rendered as text. Anything that does not decode to an object becomes
// {type: "unknown", code: "UNKNOWN_ERROR", message: <raw text>}. It never
// fails.
func ParseHostError(raw json.RawMessage) *HostError {
	trimmed := bytes.TrimSpace(raw)
	text := string(trimmed)

	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '{':
			if hostErr, ok := decodeHostError(trimmed); ok {
				return hostErr
			}
		case '"':
			var s string
			if err := json.Unmarshal(trimmed, &s); err == nil {
				text = s
			}
		}
	}

	if hostErr, ok := decodeHostError([]byte(text)); ok {
		return hostErr
	}
	return NewHostError(HostTypeUnknown, HostCodeUnknownError, text)
}

func decodeHostError(b []byte) (*HostError, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var wire map[string]any
	if err := dec.Decode(&wire); err != nil {
		return nil, false
	}
	return NewHostError(hostField(wire["type"]), hostField(wire["code"]), hostField(wire["message"])), true
}

// hostField renders a decoded field as text. Non-string scalars are printed
// and nested values are re-encoded as JSON.
func hostField(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number, bool:
		return fmt.Sprint(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
