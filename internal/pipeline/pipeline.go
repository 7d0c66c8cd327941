package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/webgrep/internal/resource"
)

// Availability is the cached result of a step's capability probe.
type Availability struct {
	// OK reports whether the step can run in this process.
	OK bool

	// Message is an optional human-readable note shown once when the
	// step is unavailable (e.g. which binary to install).
	Message string
}

// Step is a single content-pipeline step.
//
// Preprocessors return replacement content for the resource itself; a
// nil result means "leave the content unchanged", which lets a generic
// step register for several types and no-op where its own guard does
// not match. Derivers return the content of a new derived child; an
// empty non-nil result is meaningful and is persisted as an empty file.
type Step interface {
	// Name identifies the step in logs and in the tools listing.
	Name() string

	// Types returns the resource types the step registers for.
	Types() []resource.Type

	// Probe checks whether the step can run. Called once per registry;
	// the result is cached.
	Probe() Availability

	// Run executes the step against the resource's current content.
	Run(ctx context.Context, res *resource.Resource) ([]byte, error)
}

// Registry holds the ordered, type-keyed preprocessor and deriver
// tables together with the cached probe results.
type Registry struct {
	// pre maps resource type to its ordered preprocessor list.
	pre map[resource.Type][]Step

	// der maps resource type to its ordered deriver list.
	der map[resource.Type][]Step

	// preOrder and derOrder keep registration order for the tools
	// listing, which map iteration would scramble.
	preOrder []Step
	derOrder []Step

	// avail caches probe results by step name.
	avail map[string]Availability

	// quiet suppresses the one-time unavailability warnings.
	quiet bool

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithQuietProbes suppresses the startup warnings for unavailable steps.
func WithQuietProbes(quiet bool) Option {
	return func(r *Registry) {
		r.quiet = quiet
	}
}

// NewRegistry creates a Registry with the default steps registered and
// probed. Probing happens here, once, so no fetch ever pays for a
// capability check.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		pre:   make(map[resource.Type][]Step),
		der:   make(map[resource.Type][]Step),
		avail: make(map[string]Availability),
	}

	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	r.RegisterPreprocessor(NewJSBeautifyStep())
	r.RegisterPreprocessor(NewCSSUnminifyStep())
	r.RegisterDeriver(NewExifStep())
	r.RegisterDeriver(NewStringsStep())
	r.RegisterDeriver(NewOCRStep())
	r.RegisterDeriver(NewSteghideStep())

	return r
}

// RegisterPreprocessor appends a step to the preprocessor table for
// each of its types, probing it if not yet probed.
func (r *Registry) RegisterPreprocessor(s Step) {
	r.probe(s)
	r.preOrder = append(r.preOrder, s)
	for _, typ := range s.Types() {
		r.pre[typ] = append(r.pre[typ], s)
	}
}

// RegisterDeriver appends a step to the deriver table for each of its
// types, probing it if not yet probed.
func (r *Registry) RegisterDeriver(s Step) {
	r.probe(s)
	r.derOrder = append(r.derOrder, s)
	for _, typ := range s.Types() {
		r.der[typ] = append(r.der[typ], s)
	}
}

// probe evaluates and caches the step's availability, warning once for
// unavailable steps.
func (r *Registry) probe(s Step) {
	if _, done := r.avail[s.Name()]; done {
		return
	}

	a := s.Probe()
	r.avail[s.Name()] = a

	if !a.OK && !r.quiet {
		r.logger.Warn("pipeline step unavailable, skipping for this run",
			"step", s.Name(),
			"reason", a.Message,
		)
	}
}

// Available returns the cached probe result for a step name.
func (r *Registry) Available(name string) Availability {
	return r.avail[name]
}

// Preprocess runs the preprocessor chain for the resource's type.
// Steps feed forward: each step's replacement output becomes the next
// step's input. A failing or unavailable step is skipped; preprocessing
// never fails a resource.
func (r *Registry) Preprocess(ctx context.Context, res *resource.Resource) {
	for _, step := range r.pre[res.Type] {
		if !r.avail[step.Name()].OK {
			continue
		}

		out, err := step.Run(ctx, res)
		if err != nil {
			r.logger.Warn("preprocessor failed, keeping original content",
				"step", step.Name(),
				"resource", res.RelPath,
				"error", err,
			)
			continue
		}
		if out != nil {
			res.Content = out
		}
	}
}

// Derivers returns the available derivers registered for typ, in
// registration order.
func (r *Registry) Derivers(typ resource.Type) []Step {
	steps := make([]Step, 0, len(r.der[typ]))
	for _, step := range r.der[typ] {
		if r.avail[step.Name()].OK {
			steps = append(steps, step)
		}
	}
	return steps
}

// Steps returns every registered step with its availability, for the
// tools listing. Preprocessors come first, then derivers, each in
// registration order.
func (r *Registry) Steps() []StepInfo {
	infos := make([]StepInfo, 0, len(r.preOrder)+len(r.derOrder))

	for _, s := range r.preOrder {
		infos = append(infos, StepInfo{
			Name:         s.Name(),
			Kind:         "preprocessor",
			Types:        s.Types(),
			Availability: r.avail[s.Name()],
		})
	}
	for _, s := range r.derOrder {
		infos = append(infos, StepInfo{
			Name:         s.Name(),
			Kind:         "deriver",
			Types:        s.Types(),
			Availability: r.avail[s.Name()],
		})
	}
	return infos
}

// StepInfo describes a registered step for display purposes.
type StepInfo struct {
	// Name is the step name.
	Name string

	// Kind is "preprocessor" or "deriver".
	Kind string

	// Types are the resource types the step applies to.
	Types []resource.Type

	// Availability is the cached probe result.
	Availability Availability
}
