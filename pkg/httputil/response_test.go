package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		data       any
		wantStatus int
		wantBody   string
	}{
		{
			name:       "simple map",
			code:       http.StatusOK,
			data:       map[string]any{"key": "value"},
			wantStatus: http.StatusOK,
			wantBody:   `{"key":"value"}`,
		},
		{
			name:       "array",
			code:       http.StatusCreated,
			data:       []string{"a", "b", "c"},
			wantStatus: http.StatusCreated,
			wantBody:   `["a","b","c"]`,
		},
		{
			name:       "raw json passthrough",
			code:       http.StatusOK,
			data:       json.RawMessage(`{"calendars":[]}`),
			wantStatus: http.StatusOK,
			wantBody:   `{"calendars":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteJSON(w, tt.code, tt.data)

			if w.Code != tt.wantStatus {
				t.Errorf("WriteJSON() status = %v, want %v", w.Code, tt.wantStatus)
			}

			if contentType := w.Header().Get("Content-Type"); contentType != "application/json" {
				t.Errorf("WriteJSON() Content-Type = %v, want application/json", contentType)
			}

			var got, want any
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if err := json.Unmarshal([]byte(tt.wantBody), &want); err != nil {
				t.Fatalf("failed to unmarshal expected: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("WriteJSON() body = %v, want %v", got, want)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusBadRequest, "channel is required")

	if w.Code != http.StatusBadRequest {
		t.Errorf("WriteError() status = %v, want %v", w.Code, http.StatusBadRequest)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body["error"] != "channel is required" {
		t.Errorf("WriteError() error = %v", body["error"])
	}
}

func TestWriteSuccessWithData(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessWithData(w, map[string]any{"pending": 2})

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["pending"] != float64(2) {
		t.Errorf("pending = %v, want 2", body["pending"])
	}
}
