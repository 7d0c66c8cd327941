package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/webgrep/internal/cache"
)

// TestBuildGrepConfig verifies flag-to-config translation.
func TestBuildGrepConfig(t *testing.T) {
	t.Parallel()

	t.Run("pattern and targets from positional args", func(t *testing.T) {
		t.Parallel()

		cmd := NewGrepCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}

		cfg, err := buildGrepConfig(cmd, []string{"needle", "http://a.example/", "http://b.example/"})
		if err != nil {
			t.Fatalf("buildGrepConfig failed: %v", err)
		}

		if cfg.Pattern != "needle" {
			t.Errorf("expected pattern 'needle', got %q", cfg.Pattern)
		}
		if len(cfg.Targets) != 2 {
			t.Errorf("expected 2 targets, got %v", cfg.Targets)
		}
		if !cfg.IncludeSameOrigin {
			t.Error("expected same-origin inclusion by default")
		}
		if cfg.IncludeAllOrigins {
			t.Error("expected all-origins off by default")
		}
	})

	t.Run("header flags", func(t *testing.T) {
		t.Parallel()

		cmd := NewGrepCmd()
		if err := cmd.ParseFlags([]string{
			"--header", "X-Token: secret",
			"--header", "X-Other:value",
			"--cookie", "session=1",
			"--timeout", "5s",
		}); err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}

		cfg, err := buildGrepConfig(cmd, []string{"p", "http://a.example/"})
		if err != nil {
			t.Fatalf("buildGrepConfig failed: %v", err)
		}

		if cfg.Headers["X-Token"] != "secret" || cfg.Headers["X-Other"] != "value" {
			t.Errorf("unexpected headers %v", cfg.Headers)
		}
		if cfg.Cookie != "session=1" {
			t.Errorf("expected cookie, got %q", cfg.Cookie)
		}
		if cfg.Timeout != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v", cfg.Timeout)
		}
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		t.Parallel()

		cmd := NewGrepCmd()
		if err := cmd.ParseFlags([]string{"--header", "no-colon-here"}); err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}

		if _, err := buildGrepConfig(cmd, []string{"p", "http://a.example/"}); err == nil {
			t.Error("expected error for malformed header")
		}
	})

	t.Run("grep passthrough flags", func(t *testing.T) {
		t.Parallel()

		cmd := NewGrepCmd()
		if err := cmd.ParseFlags([]string{"-i", "-E", "--line-number"}); err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}

		cfg, err := buildGrepConfig(cmd, []string{"p", "http://a.example/"})
		if err != nil {
			t.Fatalf("buildGrepConfig failed: %v", err)
		}

		got := strings.Join(cfg.GrepOptions, " ")
		if got != "-i -E -n" {
			t.Errorf("expected grep options '-i -E -n', got %q", got)
		}
	})

	t.Run("explicit missing config file rejected", func(t *testing.T) {
		t.Parallel()

		cmd := NewGrepCmd()
		if err := cmd.ParseFlags([]string{"--config", "/nonexistent/.webgrep"}); err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}

		if _, err := buildGrepConfig(cmd, []string{"p", "http://a.example/"}); err == nil {
			t.Error("expected error for missing explicit config file")
		}
	})
}

// TestGrepCommandEndToEnd runs the grep command against a local server
// with a pinned storage directory and verifies the persisted artifacts.
func TestGrepCommandEndToEnd(t *testing.T) {
	if _, err := exec.LookPath("grep"); err != nil {
		t.Skip("grep not installed")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><img src="data:image/png;base64,AAAA">plain text</body></html>`))
	}))
	defer srv.Close()

	storageDir := t.TempDir()
	historyDir := t.TempDir()

	cmd := NewRootCmd()
	cmd.SetArgs([]string{
		"grep",
		"--dir", storageDir,
		"--history-dir", historyDir,
		"--quiet",
		"zz-no-such-pattern-zz",
		srv.URL,
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("grep command failed: %v", err)
	}

	// The root page was mirrored under host/index.html.
	var foundIndex bool
	err := filepath.Walk(storageDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && info.Name() == "index.html" {
			foundIndex = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	if !foundIndex {
		t.Error("expected mirrored index.html under storage dir")
	}

	// --dir implies cache persistence.
	cachePath := filepath.Join(storageDir, cache.FileName)
	if _, err := os.Stat(cachePath); err != nil {
		t.Errorf("expected persisted cache at %q: %v", cachePath, err)
	}
	store := cache.Load(cachePath)
	if store.Len() == 0 {
		t.Error("expected cache entries after the run")
	}

	// History database was created.
	if _, err := os.Stat(filepath.Join(historyDir, "webgrep.db")); err != nil {
		t.Errorf("expected history database: %v", err)
	}
}
