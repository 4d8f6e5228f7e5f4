// Package runner executes untrusted source snippets in isolated, throwaway
// workspaces. Each execution materializes the snippet into its own temporary
// directory, runs the matching interpreter under a wall-clock timeout with
// size-capped output capture, and removes the directory on every exit path.
package runner

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultTimeoutSeconds is applied when a request leaves the timeout unset.
	DefaultTimeoutSeconds = 10
	// MaxTimeoutSeconds is the upper bound accepted for any request.
	MaxTimeoutSeconds = 60
)

// Request describes one snippet execution. It is consumed by value and never
// retained after Execute returns.
type Request struct {
	Language       Language
	Source         string
	TimeoutSeconds int // 0 means DefaultTimeoutSeconds
}

// Result is the captured outcome of a snippet execution. A non-zero exit
// code is a faithful report of the child process, not a service failure.
type Result struct {
	Stdout          string
	Stderr          string
	StdoutTruncated bool
	StderrTruncated bool
	ExitCode        *int // nil when the run was killed by the timeout
	TimedOut        bool
	Duration        time.Duration
}

// Options configures a Service. The zero value uses the system temp
// directory, default interpreters, and a 1 MiB per-stream output cap.
type Options struct {
	WorkspaceRoot  string
	MaxOutputBytes int
	Interpreters   map[Language]string // interpreter binary overrides per language
}

// Service is the execution coordinator and the sole entry point for callers.
// It is safe for concurrent use: the registry is immutable after
// construction and every execution owns its workspace and child process.
type Service struct {
	workspaces *Manager
	registry   *Registry
	executor   *Executor
}

// NewService builds a Service from the given options.
func NewService(opts Options) *Service {
	return &Service{
		workspaces: NewManager(opts.WorkspaceRoot),
		registry:   NewRegistry(opts.Interpreters),
		executor:   NewExecutor(opts.MaxOutputBytes),
	}
}

// Languages returns the identifiers this service can execute.
func (s *Service) Languages() []Language {
	return s.registry.Languages()
}

// Execute runs one snippet to completion or timeout and returns its captured
// output. The workspace is released before Execute returns, on every path.
func (s *Service) Execute(ctx context.Context, req Request) (*Result, error) {
	timeout := req.TimeoutSeconds
	if timeout == 0 {
		timeout = DefaultTimeoutSeconds
	}
	if timeout < 0 || timeout > MaxTimeoutSeconds {
		return nil, fmt.Errorf("timeout %ds out of range (1-%d)", req.TimeoutSeconds, MaxTimeoutSeconds)
	}

	// Resolve before touching the filesystem: an unsupported language must
	// leave no side effects behind.
	spec, err := s.registry.Resolve(req.Language)
	if err != nil {
		return nil, err
	}

	ws, err := s.workspaces.Acquire()
	if err != nil {
		return nil, err
	}
	defer s.workspaces.Release(ws)

	return s.executor.Run(ctx, ws, spec, req.Source, time.Duration(timeout)*time.Second)
}
