package runner

import (
	"log"
	"os"
	"sync/atomic"
	"time"
)

// Workspace is the isolated directory owned by exactly one in-flight
// execution. It is never shared across concurrent requests.
type Workspace struct {
	Path      string
	CreatedAt time.Time

	released atomic.Bool
}

// Manager allocates and destroys per-execution workspaces under a common
// root directory ("" means the system temp directory).
type Manager struct {
	root string
}

// NewManager creates a workspace manager rooted at root.
func NewManager(root string) *Manager {
	return &Manager{root: root}
}

// Acquire creates a fresh, collision-free workspace directory.
func (m *Manager) Acquire() (*Workspace, error) {
	if m.root != "" {
		// Lazily create the root; if this fails MkdirTemp fails too and
		// carries the real error.
		os.MkdirAll(m.root, 0o755)
	}
	dir, err := os.MkdirTemp(m.root, "codemaster-run-*")
	if err != nil {
		return nil, &ResourceError{Op: "creating workspace", Err: err}
	}
	return &Workspace{Path: dir, CreatedAt: time.Now()}, nil
}

// Release recursively removes the workspace. It is idempotent and never
// fails the request: a deletion error is logged and swallowed.
func (m *Manager) Release(ws *Workspace) {
	if ws == nil || !ws.released.CompareAndSwap(false, true) {
		return
	}
	if err := os.RemoveAll(ws.Path); err != nil {
		log.Printf("workspace %s not fully removed: %v", ws.Path, err)
	}
}
