package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/michaelbrown/codemaster/internal/storage"
)

func TestSessionLifecycleOverHTTP(t *testing.T) {
	srv := testServer(t)

	// Create
	rec := postJSON(t, srv, "/api/sessions", map[string]any{
		"title":       "quicksort question",
		"temperature": 0.3,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var sess storage.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatal(err)
	}
	if sess.ID == "" {
		t.Fatal("session ID not assigned")
	}
	if sess.Provider != "groq" || sess.Model != "llama-3.1-8b-instant" {
		t.Errorf("defaults not applied: %+v", sess)
	}

	// Get
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID, nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	// List
	req = httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	var list []storage.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Title != "quicksort question" {
		t.Errorf("list = %+v", list)
	}

	// Messages start empty
	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/messages", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() == "" {
		t.Fatalf("messages status = %d", rec.Code)
	}

	// Delete
	req = httptest.NewRequest(http.MethodDelete, "/api/sessions/"+sess.ID, nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID, nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestGetUnknownSession(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/deadbeef", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCreateSessionUnknownProvider(t *testing.T) {
	srv := testServer(t)

	rec := postJSON(t, srv, "/api/sessions", map[string]any{
		"provider": "unset-provider",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSendMessageRequiresContent(t *testing.T) {
	srv := testServer(t)

	rec := postJSON(t, srv, "/api/sessions", map[string]any{})
	var sess storage.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatal(err)
	}

	rec = postJSON(t, srv, "/api/sessions/"+sess.ID+"/messages", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListProviders(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var providers []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &providers); err != nil {
		t.Fatal(err)
	}
	if len(providers) != 1 || providers[0]["name"] != "groq" {
		t.Errorf("providers = %v", providers)
	}
}
