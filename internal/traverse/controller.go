package traverse

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/nao1215/webgrep/internal/cache"
	"github.com/nao1215/webgrep/internal/config"
	"github.com/nao1215/webgrep/internal/fetch"
	"github.com/nao1215/webgrep/internal/history"
	"github.com/nao1215/webgrep/internal/pipeline"
	"github.com/nao1215/webgrep/internal/report"
	"github.com/nao1215/webgrep/internal/resource"
	"github.com/nao1215/webgrep/internal/search"
)

// Controller walks one root URL's resource tree. It owns no long-lived
// state of its own beyond the per-run visited set; the cache store is
// the only state shared across roots.
type Controller struct {
	// cfg is the immutable run configuration.
	cfg *config.Config

	// storageRoot is the directory resources are persisted under.
	storageRoot string

	// client performs the network fetches.
	client *fetch.Client

	// store is the process-wide cache of materialized paths.
	store *cache.Store

	// registry holds the preprocessor and deriver tables.
	registry *pipeline.Registry

	// searcher invokes the external grep collaborator.
	searcher *search.Searcher

	// policy gates fetch and recursion per resource.
	policy Policy

	// history records fetches when configured. Nil disables recording.
	history *history.DB

	// output receives search results as each node completes.
	output io.Writer

	// logger for structured logging.
	logger *slog.Logger

	// rootURL keys cache entries for the traversal in progress.
	rootURL string

	// visited guards against revisiting a storage path within one root,
	// which also breaks reference cycles between pages and stylesheets.
	visited map[string]bool

	// stats accumulates the per-root run summary.
	stats *report.RootSummary
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithOutput redirects search output away from stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Controller) { c.output = w }
}

// WithHistory enables fetch-history recording.
func WithHistory(db *history.DB) Option {
	return func(c *Controller) { c.history = db }
}

// New creates a Controller over the given collaborators.
func New(cfg *config.Config, storageRoot string, client *fetch.Client,
	store *cache.Store, registry *pipeline.Registry, searcher *search.Searcher,
	opts ...Option,
) *Controller {
	c := &Controller{
		cfg:         cfg,
		storageRoot: storageRoot,
		client:      client,
		store:       store,
		registry:    registry,
		searcher:    searcher,
		policy: Policy{
			IncludeAllOrigins: cfg.IncludeAllOrigins,
			IncludeSameOrigin: cfg.IncludeSameOrigin,
		},
		output: os.Stdout,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run traverses the tree rooted at rootURL, accumulating results into
// stats. Per-resource failures are logged and absorbed; only a root URL
// that cannot even be resolved into a storage identity is an error.
func (c *Controller) Run(ctx context.Context, rootURL string, stats *report.RootSummary) error {
	c.rootURL = rootURL
	c.visited = make(map[string]bool)
	c.stats = stats

	root, err := resource.NewRemote(rootURL, nil, c.storageRoot)
	if err != nil {
		return fmt.Errorf("cannot resolve root URL: %w", err)
	}

	c.visit(ctx, root)
	return nil
}

// loadResult carries what the load phase learned about a resource.
type loadResult struct {
	// header holds the response headers of a network fetch, nil for
	// embedded resources, cache hits, and transport failures.
	header http.Header

	// status is the HTTP status code, zero when no response arrived.
	status int

	// persisted is true once the resource's content is on disk.
	persisted bool

	// cacheHit is true when the content came from a previous run.
	cacheHit bool
}

// visit processes one resource and, depth-first, its children.
func (c *Controller) visit(ctx context.Context, res *resource.Resource) {
	if ctx.Err() != nil {
		return
	}

	if !c.policy.Allowed(res) {
		c.logger.Debug("resource out of scope", "path", res.RelPath, "url", res.URL)
		return
	}
	if c.visited[res.RelPath] {
		return
	}
	c.visited[res.RelPath] = true

	lr := c.load(ctx, res)

	// Only the root is ever a page. A nested HTML response is treated
	// as a plain document, so a page never spawns another page.
	if res.Type == resource.TypePage && res.Parent != nil {
		res.Type = resource.TypeOther
	}

	if res.Type.Valid() {
		c.stats.Count(res.Type)
	}
	if res.Errored {
		c.stats.Failures = append(c.stats.Failures, res.RelPath)
	}
	if lr.persisted && !res.Errored {
		c.store.Register(c.rootURL, res.RelPath, res.Type)
	}
	c.record(ctx, res, lr)

	if res.Errored || res.Type == resource.TypeUndefined || !(lr.persisted || lr.cacheHit) {
		return
	}

	if searchable(res.Type) {
		c.search(ctx, res)
	}

	if c.cfg.IncludeHeaders && lr.header != nil {
		c.visitHeaders(ctx, res, lr.header)
	}

	c.derive(ctx, res)

	switch res.Type {
	case resource.TypePage:
		c.expandPage(ctx, res)
	case resource.TypeStyle:
		c.expandStyle(ctx, res)
	}

	res.Release()
}

// load brings the resource's content into existence: embedded payloads
// are already decoded at construction, cached paths are read back from
// disk, everything else is fetched.
func (c *Controller) load(ctx context.Context, res *resource.Resource) loadResult {
	if res.Errored {
		return loadResult{}
	}

	if res.Embedded {
		return loadResult{persisted: res.Loaded()}
	}

	if typ, ok := c.store.Lookup(c.rootURL, res.RelPath); ok {
		if err := res.LoadFromDisk(); err == nil {
			res.Type = typ
			c.stats.CacheHits++
			c.logger.Debug("cache hit", "path", res.RelPath, "type", typ)
			return loadResult{cacheHit: true}
		}
		c.logger.Warn("cached file unreadable, refetching", "path", res.RelPath)
	}

	return c.fetch(ctx, res)
}

// fetch performs the network round trip, classification, preprocessing,
// and persistence for one resource.
func (c *Controller) fetch(ctx context.Context, res *resource.Resource) loadResult {
	resp, err := c.client.Get(ctx, res.URL)
	if err != nil {
		res.Errored = true
		res.Type = resource.TypeFailure
		c.logger.Error("fetch failed", "url", res.URL, "error", err)
		return loadResult{}
	}

	lr := loadResult{header: resp.Header, status: resp.StatusCode}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		res.Errored = true
		res.Type = resource.TypeFailure
		c.logger.Error("fetch returned error status", "url", res.URL, "status", resp.StatusCode)
		return lr
	}

	res.Type = resource.Classify(false, resp.ContentType, urlPathOf(res.URL))

	// Images stream straight to disk; text types are buffered so
	// preprocessors can rewrite them first.
	if res.Type == resource.TypeImage {
		if err := streamToFile(resp.Body, res.AbsPath); err != nil {
			res.Errored = true
			res.Type = resource.TypeFailure
			c.logger.Error("failed to persist image", "path", res.RelPath, "error", err)
			return lr
		}
		lr.persisted = true
		return lr
	}

	body, err := resp.ReadBody(c.cfg.MaxBodySize)
	if err != nil {
		res.Errored = true
		res.Type = resource.TypeFailure
		c.logger.Error("failed to read response body", "url", res.URL, "error", err)
		return lr
	}
	res.Content = fetch.DecodeText(body, resp.ContentType)

	c.registry.Preprocess(ctx, res)

	if err := res.Persist(); err != nil {
		res.Errored = true
		res.Type = resource.TypeFailure
		c.logger.Error("failed to persist resource", "path", res.RelPath, "error", err)
		return lr
	}
	lr.persisted = true
	return lr
}

// search runs the external grep collaborator against the persisted file
// and emits any output as the node completes.
func (c *Controller) search(ctx context.Context, res *resource.Resource) {
	out, err := c.searcher.Search(ctx, res.AbsPath)
	if err != nil {
		c.logger.Warn("search failed", "path", res.RelPath, "error", err)
		return
	}
	if out == "" {
		return
	}

	c.stats.Matched++
	fmt.Fprintf(c.output, "%s:\n%s", res.RelPath, out)
}

// visitHeaders synthesizes the response headers as a searched child.
// The child takes no children of its own.
func (c *Controller) visitHeaders(ctx context.Context, parent *resource.Resource, header http.Header) {
	child := resource.NewChild(parent, resource.TypeOther, "headers", "txt", formatHeader(header))
	if err := child.Persist(); err != nil {
		c.logger.Warn("failed to persist response headers", "path", child.RelPath, "error", err)
		return
	}

	c.store.Register(c.rootURL, child.RelPath, child.Type)
	c.stats.Count(child.Type)
	c.search(ctx, child)
	child.Release()
}

// derive runs every available deriver for the resource's type. Each
// produces exactly one derived leaf child, searched but never expanded.
func (c *Controller) derive(ctx context.Context, res *resource.Resource) {
	steps := c.registry.Derivers(res.Type)
	if len(steps) == 0 {
		return
	}

	// Streamed images carry no content in memory; in-process derivers
	// need the bytes back.
	if !res.Loaded() {
		if err := res.LoadFromDisk(); err != nil {
			c.logger.Warn("cannot reload content for derivation", "path", res.RelPath, "error", err)
			return
		}
	}

	for _, step := range steps {
		out, err := step.Run(ctx, res)
		if err != nil {
			c.logger.Warn("deriver failed", "step", step.Name(), "path", res.RelPath, "error", err)
			continue
		}
		if out == nil {
			continue
		}

		child := resource.NewChild(res, resource.TypeDerived, step.Name(), "txt", out)
		if err := child.Persist(); err != nil {
			c.logger.Warn("failed to persist derived content", "path", child.RelPath, "error", err)
			continue
		}

		c.store.Register(c.rootURL, child.RelPath, child.Type)
		c.stats.Count(resource.TypeDerived)
		c.search(ctx, child)
		child.Release()
	}
}

// record writes the fetch outcome to the history database, if one is
// configured. Embedded resources and cache hits involve no fetch and
// are not recorded.
func (c *Controller) record(ctx context.Context, res *resource.Resource, lr loadResult) {
	if c.history == nil || res.Embedded || lr.cacheHit {
		return
	}

	contentType := ""
	if lr.header != nil {
		contentType = lr.header.Get("Content-Type")
	}

	rec := &history.Record{
		RootURL:     c.rootURL,
		URL:         res.URL,
		RelPath:     res.RelPath,
		Type:        res.Type,
		StatusCode:  lr.status,
		ContentType: contentType,
	}
	if err := c.history.Insert(ctx, rec); err != nil {
		c.logger.Warn("failed to record fetch history", "path", res.RelPath, "error", err)
	}
}

// searchable reports whether a type participates in the text search.
// Images are searched only through their derived children; failures and
// undefined resources are inert.
func searchable(typ resource.Type) bool {
	switch typ {
	case resource.TypeImage, resource.TypeFailure, resource.TypeUndefined:
		return false
	}
	return true
}

// streamToFile copies the response body to path chunk-by-chunk, so
// large binaries never sit whole in memory.
func streamToFile(body io.ReadCloser, path string) error {
	defer body.Close() //nolint:errcheck // Close outcome no longer matters after the copy

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640) //nolint:gosec // Path derives from our own storage layout
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", path, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stream body to %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", path, err)
	}
	return nil
}

// urlPathOf extracts the path component for classification's extension
// check.
func urlPathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}

// formatHeader serializes response headers as "Key: value" lines with
// keys sorted, so the synthesized child is stable across runs.
func formatHeader(h http.Header) []byte {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		for _, v := range h[k] {
			sb.WriteString(k)
			sb.WriteString(": ")
			sb.WriteString(v)
			sb.WriteString("\n")
		}
	}
	return []byte(sb.String())
}
