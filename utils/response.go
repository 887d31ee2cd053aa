package utils

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ErrorEnvelope is the standard error body: a stable machine code derived
// from the HTTP status, a human message and the request id when one is set.
type ErrorEnvelope struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// WriteError writes a standard error envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorEnvelope{
		Code:      codeForStatus(status),
		Message:   message,
		RequestID: w.Header().Get("X-Request-ID"),
	})
}

func codeForStatus(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "error"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}
