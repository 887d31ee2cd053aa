package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"hello": "world"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["hello"] != "world" {
		t.Errorf("body = %v", body)
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-123")
	WriteError(rec, http.StatusBadGateway, "Failed to fetch devices from cloud")

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Code != "bad_gateway" {
		t.Errorf("code = %q, want bad_gateway", envelope.Code)
	}
	if envelope.Message != "Failed to fetch devices from cloud" {
		t.Errorf("message = %q", envelope.Message)
	}
	if envelope.RequestID != "req-123" {
		t.Errorf("request_id = %q, want req-123", envelope.RequestID)
	}
}

func TestWriteErrorWithoutRequestID(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusNotFound, "no such device")

	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Code != "not_found" {
		t.Errorf("code = %q, want not_found", envelope.Code)
	}
	if envelope.RequestID != "" {
		t.Errorf("request_id = %q, want empty", envelope.RequestID)
	}
}

func TestCodeForStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, "bad_request"},
		{http.StatusTooManyRequests, "too_many_requests"},
		{http.StatusInternalServerError, "internal_server_error"},
		{999, "error"},
	}
	for _, tt := range tests {
		if got := codeForStatus(tt.status); got != tt.want {
			t.Errorf("codeForStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
