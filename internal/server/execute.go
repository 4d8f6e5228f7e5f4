package server

import (
	"errors"
	"net/http"

	"github.com/michaelbrown/codemaster/internal/runner"
)

type executeRequest struct {
	Language       string `json:"language"`
	Source         string `json:"source"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type executeResponse struct {
	Stdout          string `json:"stdout"`
	Stderr          string `json:"stderr"`
	StdoutTruncated bool   `json:"stdout_truncated"`
	StderrTruncated bool   `json:"stderr_truncated"`
	ExitCode        *int   `json:"exit_code"` // null when the run timed out
	TimedOut        bool   `json:"timed_out"`
	DurationMs      int64  `json:"duration_ms"`
}

// handleExecute is the HTTP face of the snippet execution service.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Language == "" || req.Source == "" {
		writeError(w, http.StatusBadRequest, "language and source are required")
		return
	}
	if req.TimeoutSeconds < 0 || req.TimeoutSeconds > runner.MaxTimeoutSeconds {
		writeError(w, http.StatusBadRequest, "timeout_seconds out of range")
		return
	}

	res, err := s.runner.Execute(r.Context(), runner.Request{
		Language:       runner.Language(req.Language),
		Source:         req.Source,
		TimeoutSeconds: req.TimeoutSeconds,
	})
	if err != nil {
		var unsupported *runner.UnsupportedLanguageError
		if errors.As(err, &unsupported) {
			writeError(w, http.StatusBadRequest, unsupported.Error())
			return
		}
		// ResourceError and RunnerUnavailableError are environment problems.
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, executeResponse{
		Stdout:          res.Stdout,
		Stderr:          res.Stderr,
		StdoutTruncated: res.StdoutTruncated,
		StderrTruncated: res.StderrTruncated,
		ExitCode:        res.ExitCode,
		TimedOut:        res.TimedOut,
		DurationMs:      res.Duration.Milliseconds(),
	})
}

func (s *Server) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.runner.Languages())
}
