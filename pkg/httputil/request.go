package httputil

import (
	"encoding/json"
	"net/http"
)

// DecodeJSONStrict decodes at most maxBytes of the request body as JSON.
// It disallows unknown fields and returns an error if any are present.
func DecodeJSONStrict(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
