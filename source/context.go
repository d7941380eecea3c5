// Package source owns the per-documentation-source lifecycle: fetch the
// documents, extract option records, build an index generation, and swap it
// in atomically while queries keep being served. A context is constructed
// cold, loads in the background, and never blocks a query on a load.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/optnix/optnix"
	"github.com/optnix/optnix/index"
	"github.com/optnix/optnix/search"
)

// fetchConcurrency bounds parallel document fetches within one load.
const fetchConcurrency = 4

// Ensure Context implements optnix.SourceContext at compile time.
var _ optnix.SourceContext = (*Context)(nil)

// Document is one fetchable documentation payload and the extractor that
// understands its markup. A source may span several documents (Home Manager
// publishes generic, NixOS-module and Darwin-module variants); their option
// records are concatenated before indexing.
type Document struct {
	URL       string
	Extractor optnix.Extractor
}

// Context drives fetch → extract → index for one documentation source and
// answers queries against the current index generation.
//
// States: Uninitialized → Loading → Ready, with Degraded reachable whenever
// stale or partial data is all that could be loaded. Readers always observe
// either the previous or the new generation in full, never a mix.
type Context struct {
	source  optnix.Source
	fetcher optnix.Fetcher
	docs    []Document
	logger  *slog.Logger

	gen atomic.Pointer[index.Generation]

	mu       sync.Mutex
	state    optnix.State
	loading  bool
	lastErr  error
	builtAt  time.Time
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// New creates a cold context. No I/O happens until Start or Load.
func New(src optnix.Source, fetcher optnix.Fetcher, docs []Document, opts ...Option) *Context {
	c := &Context{
		source:  src,
		fetcher: fetcher,
		docs:    docs,
		state:   optnix.StateUninitialized,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Start launches the initial load in the background and returns
// immediately. Queries issued before the load completes return ENOTREADY.
func (c *Context) Start(ctx context.Context) {
	if !c.beginLoad() {
		return
	}
	go func() {
		c.finishLoad(c.load(ctx))
	}()
}

// Load drives the context to Ready (or Degraded) synchronously. Used by the
// precache entry point and by tests.
func (c *Context) Load(ctx context.Context) error {
	if !c.beginLoad() {
		return nil // a load is already in flight
	}
	err := c.load(ctx)
	c.finishLoad(err)
	return err
}

// Refresh rebuilds the index off the current goroutine. The previous
// generation keeps serving queries until the replacement is swapped in.
// Concurrent refreshes collapse into one.
func (c *Context) Refresh(ctx context.Context) {
	c.Start(ctx)
}

// beginLoad transitions into Loading unless a load is already running.
func (c *Context) beginLoad() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return false
	}
	c.loading = true
	c.state = optnix.StateLoading
	return true
}

// load fetches and extracts every document and swaps in a new generation.
// It returns an error only when no generation could be produced at all.
func (c *Context) load(ctx context.Context) error {
	type docResult struct {
		options []optnix.Option
		skipped int
		stale   bool
		err     error
	}

	results := make([]docResult, len(c.docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, doc := range c.docs {
		g.Go(func() error {
			res, err := c.fetcher.Fetch(gctx, doc.URL)
			if err != nil {
				results[i] = docResult{err: err}
				return nil // a failed document does not cancel its siblings
			}
			extracted, err := doc.Extractor.Extract(res.Body)
			if err != nil {
				results[i] = docResult{err: err}
				return nil
			}
			results[i] = docResult{
				options: extracted.Options,
				skipped: extracted.Skipped,
				stale:   res.Stale,
			}
			return nil
		})
	}
	_ = g.Wait()

	var (
		options  []optnix.Option
		skipped  int
		failed   int
		stale    bool
		firstErr error
	)
	for i, res := range results {
		if res.err != nil {
			failed++
			if firstErr == nil {
				firstErr = res.err
			}
			c.logger.Warn("document load failed",
				"source", c.source,
				"url", c.docs[i].URL,
				"error", res.err,
			)
			continue
		}
		options = append(options, res.options...)
		skipped += res.skipped
		stale = stale || res.stale
	}

	if skipped > 0 {
		c.logger.Warn("extraction skipped records",
			"source", c.source,
			"skipped", skipped,
		)
	}

	if failed == len(c.docs) {
		return fmt.Errorf("loading source %s: %w", c.source, firstErr)
	}

	gen := index.Build(c.source, options)
	c.gen.Store(gen)

	c.mu.Lock()
	c.builtAt = gen.BuiltAt
	c.mu.Unlock()

	c.logger.Info("index generation built",
		"source", c.source,
		"options", gen.Len(),
		"skipped", skipped,
		"stale", stale,
		"failedDocs", failed,
	)

	if stale || failed > 0 {
		return degradedError(firstErr)
	}
	return nil
}

// finishLoad records the load outcome and settles the state.
func (c *Context) finishLoad(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	switch {
	case err == nil:
		c.state = optnix.StateReady
		c.lastErr = nil
	case IsDegraded(err):
		c.state = optnix.StateDegraded
		c.lastErr = unwrapDegraded(err)
	case c.gen.Load() != nil:
		// A previous generation still serves queries.
		c.state = optnix.StateDegraded
		c.lastErr = err
	default:
		c.state = optnix.StateUninitialized
		c.lastErr = err
	}
}

// Search evaluates a query against the current generation.
func (c *Context) Search(_ context.Context, q optnix.Query) (*optnix.Result, error) {
	return search.Search(c.gen.Load(), q)
}

// Lookup returns the option with exactly this path plus its siblings.
func (c *Context) Lookup(_ context.Context, path string) (*optnix.Option, []optnix.Option, error) {
	return search.Lookup(c.gen.Load(), path)
}

// ByPrefix returns every option beneath a dot-separated path prefix.
func (c *Context) ByPrefix(_ context.Context, prefix string, limit int) ([]optnix.Option, error) {
	return search.ByPrefix(c.gen.Load(), prefix, limit)
}

// Categories returns per-top-level-group option counts.
func (c *Context) Categories(_ context.Context) ([]optnix.CategoryStat, error) {
	return search.Categories(c.gen.Load())
}

// Status reports a snapshot of the context's lifecycle state.
func (c *Context) Status() optnix.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := optnix.Status{
		Source:  c.source,
		State:   c.state,
		BuiltAt: c.builtAt,
	}
	if gen := c.gen.Load(); gen != nil {
		st.Options = gen.Len()
	}
	if c.lastErr != nil {
		st.LastErr = c.lastErr.Error()
	}
	return st
}

// degraded wraps an error to mark a load that produced a usable but
// degraded generation (stale payloads or partial document failure).
type degraded struct {
	err error
}

func (d *degraded) Error() string {
	if d.err == nil {
		return "degraded load"
	}
	return "degraded load: " + d.err.Error()
}

func (d *degraded) Unwrap() error { return d.err }

func degradedError(err error) error { return &degraded{err: err} }

// IsDegraded reports whether a Load error means the context still came up
// with usable (stale or partial) data.
func IsDegraded(err error) bool {
	var d *degraded
	return errors.As(err, &d)
}

func unwrapDegraded(err error) error {
	var d *degraded
	if errors.As(err, &d) {
		return d.err
	}
	return err
}
