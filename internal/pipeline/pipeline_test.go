package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/nao1215/webgrep/internal/resource"
)

// fakeStep is a controllable step for registry tests.
type fakeStep struct {
	name      string
	types     []resource.Type
	available bool
	probes    int
	output    []byte
	transform func([]byte) []byte
}

func (s *fakeStep) Name() string { return s.name }

func (s *fakeStep) Types() []resource.Type { return s.types }

func (s *fakeStep) Probe() Availability {
	s.probes++
	return Availability{OK: s.available, Message: "missing " + s.name}
}

func (s *fakeStep) Run(_ context.Context, res *resource.Resource) ([]byte, error) {
	if !guard(res, s.types) {
		return nil, nil
	}
	if s.transform != nil {
		return s.transform(res.Content), nil
	}
	return s.output, nil
}

// emptyRegistry builds a registry without the default steps.
func emptyRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		pre:    make(map[resource.Type][]Step),
		der:    make(map[resource.Type][]Step),
		avail:  make(map[string]Availability),
		logger: logger,
	}
}

func testResource(t *testing.T, typ resource.Type, content string) *resource.Resource {
	t.Helper()
	res, err := resource.NewRemote("http://example.com/x", nil, t.TempDir())
	if err != nil {
		t.Fatalf("NewRemote failed: %v", err)
	}
	res.Type = typ
	res.Content = []byte(content)
	return res
}

// TestPreprocessChaining verifies steps feed forward in registration
// order.
func TestPreprocessChaining(t *testing.T) {
	t.Parallel()

	r := emptyRegistry(slog.Default())
	r.RegisterPreprocessor(&fakeStep{
		name:      "first",
		types:     []resource.Type{resource.TypeScript},
		available: true,
		transform: func(b []byte) []byte { return append(b, 'A') },
	})
	r.RegisterPreprocessor(&fakeStep{
		name:      "second",
		types:     []resource.Type{resource.TypeScript},
		available: true,
		transform: func(b []byte) []byte { return append(b, 'B') },
	})

	res := testResource(t, resource.TypeScript, "x")
	r.Preprocess(context.Background(), res)

	if string(res.Content) != "xAB" {
		t.Errorf("expected chained output xAB, got %q", res.Content)
	}
}

// TestPreprocessSkipsUnavailable verifies gating by probe result.
func TestPreprocessSkipsUnavailable(t *testing.T) {
	t.Parallel()

	r := emptyRegistry(slog.Default())
	r.RegisterPreprocessor(&fakeStep{
		name:      "gone",
		types:     []resource.Type{resource.TypeScript},
		available: false,
		transform: func(b []byte) []byte { return []byte("clobbered") },
	})

	res := testResource(t, resource.TypeScript, "original")
	r.Preprocess(context.Background(), res)

	if string(res.Content) != "original" {
		t.Errorf("unavailable step ran: %q", res.Content)
	}
}

// TestProbeOncePerStep verifies the probe cache: registering one step
// into several tables probes it a single time.
func TestProbeOncePerStep(t *testing.T) {
	t.Parallel()

	step := &fakeStep{
		name:      "shared",
		types:     []resource.Type{resource.TypeScript, resource.TypeStyle},
		available: true,
	}

	r := emptyRegistry(slog.Default())
	r.RegisterPreprocessor(step)
	r.RegisterDeriver(step)

	if step.probes != 1 {
		t.Errorf("expected exactly one probe, got %d", step.probes)
	}
}

// TestUnavailableWarningLoggedOnce verifies the one-time warning.
func TestUnavailableWarningLoggedOnce(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	step := &fakeStep{name: "gone", types: []resource.Type{resource.TypeImage}}
	r := emptyRegistry(logger)
	r.RegisterDeriver(step)
	r.RegisterDeriver(step) // re-registration must not re-warn

	if got := strings.Count(buf.String(), "missing gone"); got != 1 {
		t.Errorf("expected exactly one warning, got %d: %s", got, buf.String())
	}
}

// TestTypeGuardNoOp verifies a generic step no-ops outside its types.
func TestTypeGuardNoOp(t *testing.T) {
	t.Parallel()

	step := &fakeStep{
		name:      "scripts-only",
		types:     []resource.Type{resource.TypeScript},
		available: true,
		output:    []byte("replaced"),
	}

	res := testResource(t, resource.TypeStyle, "style body")
	out, err := step.Run(context.Background(), res)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != nil {
		t.Errorf("expected nil output for non-matching type, got %q", out)
	}
}

// TestDeriversFiltersAvailability verifies the deriver listing.
func TestDeriversFiltersAvailability(t *testing.T) {
	t.Parallel()

	r := emptyRegistry(slog.Default())
	r.RegisterDeriver(&fakeStep{name: "up", types: []resource.Type{resource.TypeImage}, available: true})
	r.RegisterDeriver(&fakeStep{name: "down", types: []resource.Type{resource.TypeImage}})

	steps := r.Derivers(resource.TypeImage)
	if len(steps) != 1 || steps[0].Name() != "up" {
		t.Errorf("expected only the available deriver, got %d steps", len(steps))
	}

	if got := r.Derivers(resource.TypePage); len(got) != 0 {
		t.Errorf("expected no derivers for pages, got %d", len(got))
	}
}

// TestDefaultRegistry sanity-checks the default step wiring.
func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry(WithQuietProbes(true))

	infos := r.Steps()
	names := make(map[string]string)
	for _, info := range infos {
		names[info.Name] = info.Kind
	}

	for _, want := range []string{"js-beautify", "css-unminify"} {
		if names[want] != "preprocessor" {
			t.Errorf("expected %s to be a registered preprocessor", want)
		}
	}
	for _, want := range []string{"exif", "strings", "ocr", "steghide"} {
		if names[want] != "deriver" {
			t.Errorf("expected %s to be a registered deriver", want)
		}
	}

	// The in-process EXIF step is always available.
	if !r.Available("exif").OK {
		t.Error("expected exif step to be available")
	}
}

// TestExifStepEmptyForNonExifImage verifies the meaningful-empty
// contract: an image without EXIF yields empty, non-nil output.
func TestExifStepEmptyForNonExifImage(t *testing.T) {
	t.Parallel()

	res := testResource(t, resource.TypeImage, "\x89PNG\r\n\x1a\nnot a jpeg")
	out, err := NewExifStep().Run(context.Background(), res)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out == nil {
		t.Fatal("expected non-nil output for EXIF-less image")
	}
	if len(out) != 0 {
		t.Errorf("expected empty output, got %q", out)
	}
}
