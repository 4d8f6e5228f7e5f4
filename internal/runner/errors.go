package runner

import "fmt"

// UnsupportedLanguageError is returned when a request names a language the
// registry has no entry for. No workspace or process is created on this path.
type UnsupportedLanguageError struct {
	Language string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language %q", e.Language)
}

// ResourceError reports a filesystem failure (workspace allocation, snippet
// materialization). It is fatal for the request and never retried.
type ResourceError struct {
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// RunnerUnavailableError means the interpreter binary for a registered
// language is missing or not executable. Fix the environment, don't retry.
type RunnerUnavailableError struct {
	Interpreter string
	Err         error
}

func (e *RunnerUnavailableError) Error() string {
	return fmt.Sprintf("interpreter %q unavailable (install it or set an override in config): %v", e.Interpreter, e.Err)
}

func (e *RunnerUnavailableError) Unwrap() error { return e.Err }
