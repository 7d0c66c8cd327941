package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// binaryName is the external line-matching tool.
const binaryName = "grep"

// Searcher invokes the external grep tool against resource files.
type Searcher struct {
	// pattern is the search pattern passed to every invocation.
	pattern string

	// options are pass-through grep flags (-i, -v, -E, ...).
	options []string
}

// New creates a Searcher for the given pattern and pass-through flags.
func New(pattern string, options []string) *Searcher {
	return &Searcher{
		pattern: pattern,
		options: options,
	}
}

// Available reports whether the grep binary can be found on PATH.
func Available() bool {
	_, err := exec.LookPath(binaryName)
	return err == nil
}

// Search runs grep over the file at path and returns its textual
// output. No matches is a normal outcome and returns empty output, not
// an error; grep signals it with exit status 1.
func (s *Searcher) Search(ctx context.Context, path string) (string, error) {
	args := make([]string, 0, len(s.options)+2)
	args = append(args, s.options...)
	args = append(args, "--", s.pattern, path)

	cmd := exec.CommandContext(ctx, binaryName, args...) //nolint:gosec // Pattern and path are the tool's purpose
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", fmt.Errorf("grep failed on %q: %w: %s", path, err, stderr.String())
	}

	return stdout.String(), nil
}
