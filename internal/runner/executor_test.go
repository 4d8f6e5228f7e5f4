package runner

import (
	"strings"
	"testing"
)

func TestCapWriterUnderCap(t *testing.T) {
	w := &capWriter{max: 16}

	n, err := w.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write = (%d, %v)", n, err)
	}

	got, truncated := w.contents()
	if got != "hello" || truncated {
		t.Errorf("contents = (%q, %v), want (hello, false)", got, truncated)
	}
}

func TestCapWriterOverCap(t *testing.T) {
	w := &capWriter{max: 8}

	// Writes past the cap still report full length so the pipe drains.
	n, err := w.Write([]byte("0123456789"))
	if err != nil || n != 10 {
		t.Fatalf("Write = (%d, %v)", n, err)
	}
	if n, _ := w.Write([]byte("more")); n != 4 {
		t.Fatalf("Write past cap = %d, want 4", n)
	}

	got, truncated := w.contents()
	if got != "01234567" {
		t.Errorf("contents = %q, want first 8 bytes", got)
	}
	if !truncated {
		t.Error("truncated flag should be set")
	}
}

func TestCapWriterExactCap(t *testing.T) {
	w := &capWriter{max: 4}

	w.Write([]byte("abcd"))
	got, truncated := w.contents()
	if got != "abcd" || truncated {
		t.Errorf("contents = (%q, %v), want (abcd, false)", got, truncated)
	}

	// An empty write after filling the cap is not truncation.
	w.Write(nil)
	if _, truncated := w.contents(); truncated {
		t.Error("empty write must not set truncated")
	}
}

func TestCapWriterAccumulates(t *testing.T) {
	w := &capWriter{max: 64}

	for range 4 {
		w.Write([]byte("chunk "))
	}
	got, truncated := w.contents()
	if got != strings.Repeat("chunk ", 4) || truncated {
		t.Errorf("contents = (%q, %v)", got, truncated)
	}
}
