package runner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireRelease(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root)

	ws, err := m.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !strings.HasPrefix(ws.Path, root) {
		t.Errorf("workspace %s not under root %s", ws.Path, root)
	}
	if info, err := os.Stat(ws.Path); err != nil || !info.IsDir() {
		t.Fatalf("workspace dir missing: %v", err)
	}
	if ws.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	// Release removes the directory and its contents.
	if err := os.WriteFile(filepath.Join(ws.Path, "junk"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	m.Release(ws)
	if _, err := os.Stat(ws.Path); !os.IsNotExist(err) {
		t.Errorf("workspace still exists after Release: %v", err)
	}
}

func TestAcquireCollisionFree(t *testing.T) {
	m := NewManager(t.TempDir())

	a, err := m.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer m.Release(a)
	b, err := m.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer m.Release(b)

	if a.Path == b.Path {
		t.Errorf("two workspaces share path %s", a.Path)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	m := NewManager(t.TempDir())

	ws, err := m.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	// None of these may panic or resurrect anything.
	m.Release(ws)
	m.Release(ws)
	m.Release(nil)
}

func TestAcquireCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "workspaces")
	m := NewManager(root)

	ws, err := m.Acquire()
	if err != nil {
		t.Fatalf("Acquire with missing root: %v", err)
	}
	m.Release(ws)
}

func TestAcquireUnwritableRoot(t *testing.T) {
	// A regular file as root makes MkdirTemp fail.
	root := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(root, []byte("not a dir"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewManager(root)

	_, err := m.Acquire()
	if err == nil {
		t.Fatal("Acquire should fail when root is not a directory")
	}
	var resErr *ResourceError
	if !errors.As(err, &resErr) {
		t.Fatalf("error = %T, want *ResourceError", err)
	}
}
