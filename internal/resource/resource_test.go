package resource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNewRemotePaths verifies storage path computation for network URLs.
func TestNewRemotePaths(t *testing.T) {
	t.Parallel()

	t.Run("path mirrors host and url path", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()

		r, err := NewRemote("http://example.com/assets/app.js", nil, root)
		if err != nil {
			t.Fatalf("NewRemote failed: %v", err)
		}

		if r.RelPath != "example.com/assets/app.js" {
			t.Errorf("unexpected relative path %q", r.RelPath)
		}
		if r.AbsPath != filepath.Join(root, "example.com", "assets", "app.js") {
			t.Errorf("unexpected absolute path %q", r.AbsPath)
		}
		if r.Origin != "http://example.com" {
			t.Errorf("unexpected origin %q", r.Origin)
		}
	})

	t.Run("missing basename defaults to index document", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()

		for _, rawURL := range []string{"http://example.com", "http://example.com/", "http://example.com/docs/"} {
			r, err := NewRemote(rawURL, nil, root)
			if err != nil {
				t.Fatalf("NewRemote(%q) failed: %v", rawURL, err)
			}
			if filepath.Base(r.RelPath) != IndexFileName {
				t.Errorf("NewRemote(%q): expected basename %q, got %q", rawURL, IndexFileName, r.RelPath)
			}
		}
	})

	t.Run("directories are created eagerly", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()

		r, err := NewRemote("http://example.com/a/b/c/d.css", nil, root)
		if err != nil {
			t.Fatalf("NewRemote failed: %v", err)
		}

		if _, err := os.Stat(filepath.Dir(r.AbsPath)); err != nil {
			t.Errorf("expected parent directory to exist: %v", err)
		}
	})

	t.Run("relative URL is rejected", func(t *testing.T) {
		t.Parallel()

		if _, err := NewRemote("/just/a/path", nil, t.TempDir()); err == nil {
			t.Error("expected error for non-absolute URL")
		}
	})
}

// TestPathDeterminism verifies that identical construction inputs always
// yield identical paths. This property is what makes the cache valid
// across runs.
func TestPathDeterminism(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	a, err := NewRemote("http://example.com/img/logo.png", nil, root)
	if err != nil {
		t.Fatalf("NewRemote failed: %v", err)
	}
	b, err := NewRemote("http://example.com/img/logo.png", nil, root)
	if err != nil {
		t.Fatalf("NewRemote failed: %v", err)
	}

	if a.RelPath != b.RelPath || a.AbsPath != b.AbsPath {
		t.Errorf("identical inputs produced different paths: %q vs %q", a.RelPath, b.RelPath)
	}
}

// TestSameOrigin verifies origin comparison against the parent.
func TestSameOrigin(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	parent, err := NewRemote("http://example.com/", nil, root)
	if err != nil {
		t.Fatalf("NewRemote failed: %v", err)
	}

	same, err := NewRemote("http://example.com/app.js", parent, root)
	if err != nil {
		t.Fatalf("NewRemote failed: %v", err)
	}
	if !same.SameOrigin {
		t.Error("expected same-host child to be same-origin")
	}
	if same.Primary {
		t.Error("expected non-root child to be non-primary")
	}

	cross, err := NewRemote("http://cdn.example.net/app.js", parent, root)
	if err != nil {
		t.Fatalf("NewRemote failed: %v", err)
	}
	if cross.SameOrigin {
		t.Error("expected cross-host child to not be same-origin")
	}

	httpsSwitch, err := NewRemote("https://example.com/app.js", parent, root)
	if err != nil {
		t.Fatalf("NewRemote failed: %v", err)
	}
	if httpsSwitch.SameOrigin {
		t.Error("expected scheme change to break same-origin")
	}
}

// TestNewEmbedded verifies embedded-resource construction from data
// descriptors: naming, decoding, immediate persistence, and failure
// handling.
func TestNewEmbedded(t *testing.T) {
	t.Parallel()

	t.Run("decoded payload is written at construction", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()

		parent, err := NewRemote("http://example.com/", nil, root)
		if err != nil {
			t.Fatalf("NewRemote failed: %v", err)
		}

		r, status := NewEmbedded("data:image/png;base64,aGVsbG8=", parent)
		if status != DecodeOK {
			t.Fatalf("expected DecodeOK, got %v", status)
		}

		wantRel := parent.RelPath + "_image-000.png"
		if r.RelPath != wantRel {
			t.Errorf("expected relative path %q, got %q", wantRel, r.RelPath)
		}
		if r.Type != TypeImage {
			t.Errorf("expected type image, got %q", r.Type)
		}
		if !r.Primary {
			t.Error("expected data-scheme embedded resource to be primary")
		}
		if !r.SameOrigin || !r.Embedded {
			t.Error("expected embedded resource to be same-origin and embedded")
		}
		if !r.Loaded() {
			t.Fatal("expected embedded resource to be loaded at construction")
		}

		b, err := os.ReadFile(r.AbsPath)
		if err != nil {
			t.Fatalf("expected decoded bytes on disk: %v", err)
		}
		if string(b) != "hello" {
			t.Errorf("expected decoded content on disk, got %q", b)
		}
	})

	t.Run("trivial payload is left unloaded", func(t *testing.T) {
		t.Parallel()

		parent, err := NewRemote("http://example.com/", nil, t.TempDir())
		if err != nil {
			t.Fatalf("NewRemote failed: %v", err)
		}

		r, status := NewEmbedded("data:image/gif;base64,,", parent)
		if status != DecodeOK {
			t.Fatalf("expected DecodeOK, got %v", status)
		}
		if r.Loaded() {
			t.Error("expected placeholder payload to leave resource unloaded")
		}
		if r.Errored {
			t.Error("expected placeholder payload to not error the resource")
		}
	})

	t.Run("bad encoding errors the resource", func(t *testing.T) {
		t.Parallel()

		parent, err := NewRemote("http://example.com/", nil, t.TempDir())
		if err != nil {
			t.Fatalf("NewRemote failed: %v", err)
		}

		r, status := NewEmbedded("data:image/png;uuencode,abcd", parent)
		if status != DecodeBadEncoding {
			t.Fatalf("expected DecodeBadEncoding, got %v", status)
		}
		if !r.Errored {
			t.Error("expected bad encoding to error the resource")
		}
		if r.Type != TypeFailure {
			t.Errorf("expected type failure, got %q", r.Type)
		}
	})
}

// TestEmbeddedSequencing verifies that sequence numbers increment once
// per embedded child with no gaps skipped or reused, even when a middle
// child fails to decode.
func TestEmbeddedSequencing(t *testing.T) {
	t.Parallel()

	parent, err := NewRemote("http://example.com/", nil, t.TempDir())
	if err != nil {
		t.Fatalf("NewRemote failed: %v", err)
	}

	first, status := NewEmbedded("data:image/png;base64,aGVsbG8=", parent)
	if status != DecodeOK {
		t.Fatalf("first child: expected DecodeOK, got %v", status)
	}
	middle, status := NewEmbedded("data:image/png;uuencode,bad", parent)
	if status != DecodeBadEncoding {
		t.Fatalf("middle child: expected DecodeBadEncoding, got %v", status)
	}
	last, status := NewEmbedded("data:image/gif;base64,aGVsbG8=", parent)
	if status != DecodeOK {
		t.Fatalf("last child: expected DecodeOK, got %v", status)
	}

	for i, r := range []*Resource{first, middle, last} {
		want := fmt.Sprintf("-%03d.", i)
		if !strings.Contains(r.RelPath, want) {
			t.Errorf("child %d: expected sequence %q in path %q", i, want, r.RelPath)
		}
	}
}

// TestNewChild verifies inline/derived child construction and persistence.
func TestNewChild(t *testing.T) {
	t.Parallel()

	parent, err := NewRemote("http://example.com/page.html", nil, t.TempDir())
	if err != nil {
		t.Fatalf("NewRemote failed: %v", err)
	}

	child := NewChild(parent, TypeDerived, "exif", "txt", []byte{})
	if child.Type != TypeDerived {
		t.Errorf("expected derived type, got %q", child.Type)
	}
	wantRel := parent.RelPath + "_exif-000.txt"
	if child.RelPath != wantRel {
		t.Errorf("expected relative path %q, got %q", wantRel, child.RelPath)
	}

	// Empty output is meaningful and persists as an empty file.
	if err := child.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	info, err := os.Stat(child.AbsPath)
	if err != nil {
		t.Fatalf("expected persisted file: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("expected empty file, got %d bytes", info.Size())
	}
}
