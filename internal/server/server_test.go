package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticStatus string

func (s staticStatus) Status() string { return string(s) }

func TestHandleHealth(t *testing.T) {
	srv := New(staticStatus("running"))
	handler := srv.NewHTTPHandler()

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
	if body["bot_status"] != "running" {
		t.Errorf("bot_status field = %q, want running", body["bot_status"])
	}
}

func TestHandleHealthReflectsStatusChanges(t *testing.T) {
	status := staticStatus("initializing")
	handler := New(status).NewHTTPHandler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["bot_status"] != "initializing" {
		t.Errorf("bot_status field = %q, want initializing", body["bot_status"])
	}
}

func TestHandleHealthRejectsOtherMethods(t *testing.T) {
	handler := New(staticStatus("running")).NewHTTPHandler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/health", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
