package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"

	"github.com/michaelbrown/codemaster/internal/config"
	"github.com/michaelbrown/codemaster/internal/runner"
	"github.com/michaelbrown/codemaster/internal/storage/sqlite"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("opening memory db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		DefaultProvider: "groq",
		Providers: map[string]config.ProviderConfig{
			"groq": {
				BaseURL: "https://api.groq.com/openai/v1",
				Models:  map[string]string{"default": "llama-3.1-8b-instant"},
			},
		},
	}

	svc := runner.NewService(runner.Options{WorkspaceRoot: t.TempDir()})
	return New(cfg, store, svc)
}

func postJSON(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestExecuteEndpoint(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not found in PATH")
	}
	srv := testServer(t)

	rec := postJSON(t, srv, "/api/execute", map[string]any{
		"language": "python",
		"source":   `print("hello")`,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Stdout     string `json:"stdout"`
		ExitCode   *int   `json:"exit_code"`
		TimedOut   bool   `json:"timed_out"`
		DurationMs int64  `json:"duration_ms"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Stdout != "hello\n" {
		t.Errorf("stdout = %q", resp.Stdout)
	}
	if resp.ExitCode == nil || *resp.ExitCode != 0 {
		t.Errorf("exit_code = %v", resp.ExitCode)
	}
	if resp.TimedOut {
		t.Error("timed_out should be false")
	}
}

func TestExecuteEndpointTimeout(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not found in PATH")
	}
	srv := testServer(t)

	rec := postJSON(t, srv, "/api/execute", map[string]any{
		"language":        "python",
		"source":          "import time\ntime.sleep(30)",
		"timeout_seconds": 1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ExitCode *int `json:"exit_code"`
		TimedOut bool `json:"timed_out"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.TimedOut {
		t.Error("timed_out should be true")
	}
	if resp.ExitCode != nil {
		t.Errorf("exit_code = %v, want null", *resp.ExitCode)
	}
}

func TestExecuteEndpointUnsupportedLanguage(t *testing.T) {
	srv := testServer(t)

	rec := postJSON(t, srv, "/api/execute", map[string]any{
		"language": "cobol",
		"source":   "DISPLAY 'hello'.",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestExecuteEndpointValidation(t *testing.T) {
	srv := testServer(t)

	cases := []map[string]any{
		{"language": "python"},                           // missing source
		{"source": "print(1)"},                           // missing language
		{"language": "python", "source": "print(1)", "timeout_seconds": 999}, // over max
	}
	for _, body := range cases {
		rec := postJSON(t, srv, "/api/execute", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %v: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestListLanguages(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/languages", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var langs []string
	if err := json.Unmarshal(rec.Body.Bytes(), &langs); err != nil {
		t.Fatal(err)
	}
	if len(langs) != 2 {
		t.Errorf("languages = %v", langs)
	}
}
