package errors

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestParseHostError(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected HostError
	}{
		{
			name:     "encoded text",
			raw:      `"{\"type\":\"t\",\"code\":\"C\",\"message\":\"m\"}"`,
			expected: HostError{Type: "t", Code: "C", Message: "m"},
		},
		{
			name:     "structured object",
			raw:      `{"type":"permission","code":"DENIED","message":"no access"}`,
			expected: HostError{Type: "permission", Code: "DENIED", Message: "no access"},
		},
		{
			name:     "missing message defaults",
			raw:      `{"type":"calendar","code":"NOT_AUTHORIZED"}`,
			expected: HostError{Type: "calendar", Code: "NOT_AUTHORIZED", Message: "calendar: NOT_AUTHORIZED"},
		},
		{
			name:     "undecodable text",
			raw:      `"not json"`,
			expected: HostError{Type: "unknown", Code: "UNKNOWN_ERROR", Message: "not json"},
		},
		{
			name:     "raw bytes that are not JSON",
			raw:      `oops`,
			expected: HostError{Type: "unknown", Code: "UNKNOWN_ERROR", Message: "oops"},
		},
		{
			name:     "encoded non-object",
			raw:      `"123"`,
			expected: HostError{Type: "unknown", Code: "UNKNOWN_ERROR", Message: "123"},
		},
		{
			name:     "object with mistyped fields",
			raw:      `{"type":1,"code":2}`,
			expected: HostError{Type: "1", Code: "2", Message: "1: 2"},
		},
		{
			name:     "numeric type keeps string code",
			raw:      `{"type":1,"code":"C","message":"m"}`,
			expected: HostError{Type: "1", Code: "C", Message: "m"},
		},
		{
			name:     "nested and boolean fields",
			raw:      `"{\"type\":true,\"code\":{\"n\":2.5},\"message\":null}"`,
			expected: HostError{Type: "true", Code: `{"n":2.5}`, Message: `true: {"n":2.5}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseHostError(json.RawMessage(tt.raw))
			if *got != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, *got)
			}
		})
	}
}

func TestHostErrorMessage(t *testing.T) {
	err := NewHostError("t", "C", "")
	if err.Error() != "t: C" {
		t.Errorf("Expected default message, got %q", err.Error())
	}
	if err.IsMalformed() {
		t.Error("Expected well-formed host error")
	}
	if !ParseHostError(json.RawMessage(`"x"`)).IsMalformed() {
		t.Error("Expected malformed host error")
	}
}

func TestAsHostError(t *testing.T) {
	wrapped := fmt.Errorf("getCalendars: %w", NewHostError("t", "C", "m"))
	hostErr, ok := AsHostError(wrapped)
	if !ok {
		t.Fatal("Expected host error in chain")
	}
	if hostErr.Code != "C" {
		t.Errorf("Expected code C, got %q", hostErr.Code)
	}
	if _, ok := AsHostError(fmt.Errorf("plain")); ok {
		t.Error("Expected no host error")
	}
}

func TestHostErrorPresent(t *testing.T) {
	tests := []struct {
		raw      string
		expected bool
	}{
		{"", false},
		{"null", false},
		{`""`, false},
		{"false", false},
		{"0", false},
		{" null ", false},
		{`"not json"`, true},
		{`{"type":"t","code":"C"}`, true},
		{"true", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := HostErrorPresent(json.RawMessage(tt.raw)); got != tt.expected {
				t.Errorf("HostErrorPresent(%q) = %v, want %v", tt.raw, got, tt.expected)
			}
		})
	}
}
