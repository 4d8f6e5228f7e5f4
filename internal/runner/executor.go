package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

// DefaultMaxOutputBytes caps each captured stream at 1 MiB.
const DefaultMaxOutputBytes = 1 << 20

// Executor spawns an interpreter against a materialized snippet file and
// enforces the wall-clock timeout. The child is untrusted, so cancellation
// is "kill the process group", never a cooperative signal.
type Executor struct {
	maxOutputBytes int
}

// NewExecutor creates an executor with the given per-stream output cap.
// A cap <= 0 uses DefaultMaxOutputBytes.
func NewExecutor(maxOutputBytes int) *Executor {
	if maxOutputBytes <= 0 {
		maxOutputBytes = DefaultMaxOutputBytes
	}
	return &Executor{maxOutputBytes: maxOutputBytes}
}

// Run materializes source into the workspace and executes it under spec.
// It returns a Result for normal exits, non-zero exits, and timeouts;
// an error only for launch failures and filesystem problems.
func (e *Executor) Run(ctx context.Context, ws *Workspace, spec Spec, source string, timeout time.Duration) (*Result, error) {
	snippetPath := filepath.Join(ws.Path, "snippet"+spec.Extension)
	if err := os.WriteFile(snippetPath, []byte(source), 0o644); err != nil {
		return nil, &ResourceError{Op: "writing snippet", Err: err}
	}

	bin, args := spec.CommandLine(snippetPath)
	if _, err := exec.LookPath(bin); err != nil {
		return nil, &RunnerUnavailableError{Interpreter: bin, Err: err}
	}

	cmd := exec.Command(bin, args...)
	cmd.Dir = ws.Path
	// Own process group, so a timeout kill also reaches anything the
	// snippet spawned.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout := &capWriter{max: e.maxOutputBytes}
	stderr := &capWriter{max: e.maxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrPermission) {
			return nil, &RunnerUnavailableError{Interpreter: bin, Err: err}
		}
		return nil, fmt.Errorf("starting %s: %w", bin, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	res := &Result{}
	select {
	case err := <-done:
		code := 0
		if err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				return nil, fmt.Errorf("waiting for %s: %w", bin, err)
			}
			code = exitErr.ExitCode()
		}
		res.ExitCode = &code
	case <-timer.C:
		killGroup(cmd)
		<-done // workspace release must not race an in-flight child
		res.TimedOut = true
	case <-ctx.Done():
		killGroup(cmd)
		<-done
		return nil, ctx.Err()
	}

	res.Duration = time.Since(start)
	res.Stdout, res.StdoutTruncated = stdout.contents()
	res.Stderr, res.StderrTruncated = stderr.contents()
	return res, nil
}

// killGroup terminates the child's process group, falling back to the child
// alone if the group kill fails.
func killGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		cmd.Process.Kill()
	}
}

// capWriter buffers up to max bytes and discards the rest, so a runaway
// producer cannot grow memory without bound. Write never returns an error:
// the child keeps draining into the void past the cap.
type capWriter struct {
	buf       bytes.Buffer
	max       int
	truncated bool
}

func (w *capWriter) Write(p []byte) (int, error) {
	n := len(p)
	if remaining := w.max - w.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			p = p[:remaining]
			w.truncated = true
		}
		w.buf.Write(p)
	} else if n > 0 {
		w.truncated = true
	}
	return n, nil
}

func (w *capWriter) contents() (string, bool) {
	return w.buf.String(), w.truncated
}
