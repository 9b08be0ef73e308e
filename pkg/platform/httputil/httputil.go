// Package httputil centralizes the JSON envelopes handlers write, so error
// translation stays consistent across endpoints.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "fedgate/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope.
// Internal errors deliberately omit the description so infrastructure
// details never reach clients; client errors (4xx) include it.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	status := dErrors.ToHTTPStatus(code)

	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		if msg := dErrors.Message(err); msg != "" {
			body["error_description"] = msg
		}
	}
	WriteJSON(w, status, body)
}
