package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// requireGrep skips tests on systems without the external tool.
func requireGrep(t *testing.T) {
	t.Helper()
	if !Available() {
		t.Skip("grep binary not available")
	}
}

// writeFile creates a test file with the given content.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

// TestSearch covers matching, non-matching, and option pass-through.
func TestSearch(t *testing.T) {
	t.Parallel()
	requireGrep(t)

	t.Run("match returns output", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, t.TempDir(), "a.txt", "alpha\nneedle here\nomega\n")
		s := New("needle", nil)

		out, err := s.Search(context.Background(), path)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if out != "needle here\n" {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("no match returns empty output without error", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, t.TempDir(), "a.txt", "nothing to see\n")
		s := New("needle", nil)

		out, err := s.Search(context.Background(), path)
		if err != nil {
			t.Fatalf("expected no error for zero matches, got %v", err)
		}
		if out != "" {
			t.Errorf("expected empty output, got %q", out)
		}
	})

	t.Run("case-insensitive option is forwarded", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, t.TempDir(), "a.txt", "NEEDLE\n")
		s := New("needle", []string{"-i"})

		out, err := s.Search(context.Background(), path)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if out != "NEEDLE\n" {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("pattern starting with dash is not an option", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, t.TempDir(), "a.txt", "-v is a flag\n")
		s := New("-v", nil)

		out, err := s.Search(context.Background(), path)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if out == "" {
			t.Error("expected dash-prefixed pattern to match literally")
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		t.Parallel()

		s := New("needle", nil)
		if _, err := s.Search(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
