// Package elastic is the thin client for the public search.nixos.org
// Elasticsearch API, exposed as a source context whose "index" is remote
// rather than built locally. Only the response cache and the lifecycle
// shape are shared with the local sources; the in-memory search engine is
// not involved.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/optnix/optnix"
)

// Public read-only credentials published by the NixOS search frontend.
const (
	DefaultBaseURL = "https://search.nixos.org/backend"
	DefaultIndex   = "latest-43-nixos-unstable"

	defaultUsername = "aWVSALXpZv"
	defaultPassword = "X8gPHnzL52wFEekuxsfQ9cSh"
)

// defaultRPS bounds requests against the public API.
const defaultRPS = 5

// Ensure Source implements optnix.SourceContext at compile time.
var _ optnix.SourceContext = (*Source)(nil)

// Source queries NixOS options through the remote search API. Responses
// are cached with a short TTL (remote data changes often relative to
// static documentation) and requests are rate limited.
type Source struct {
	baseURL  string
	index    string
	username string
	password string
	client   *http.Client
	cache    optnix.Cache
	ttl      time.Duration
	limiter  *rate.Limiter

	mu      sync.Mutex
	state   optnix.State
	lastErr error
}

// Option configures a Source.
type Option func(*Source)

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(u string) Option {
	return func(s *Source) {
		s.baseURL = u
	}
}

// WithIndex selects the Elasticsearch index (the NixOS channel).
func WithIndex(index string) Option {
	return func(s *Source) {
		s.index = index
	}
}

// WithCredentials overrides the read-only API credentials.
func WithCredentials(username, password string) Option {
	return func(s *Source) {
		s.username = username
		s.password = password
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) {
		s.client = c
	}
}

// WithTTL overrides the response cache TTL. Defaults to the short TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Source) {
		s.ttl = ttl
	}
}

// NewSource creates a remote source backed by cache.
func NewSource(cache optnix.Cache, opts ...Option) *Source {
	s := &Source{
		baseURL:  DefaultBaseURL,
		index:    DefaultIndex,
		username: defaultUsername,
		password: defaultPassword,
		client:   &http.Client{Timeout: 30 * time.Second},
		cache:    cache,
		ttl:      optnix.ShortTTL,
		limiter:  rate.NewLimiter(rate.Limit(defaultRPS), 1),
		// The remote index always exists; there is nothing to load.
		state: optnix.StateReady,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search evaluates a query against the remote index.
func (s *Source) Search(ctx context.Context, q optnix.Query) (*optnix.Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	limit := q.EffectiveLimit()
	var dsl map[string]any
	switch q.Kind {
	case optnix.QueryTerm:
		dsl = termDSL(q.Raw, limit)
	case optnix.QueryPrefix, optnix.QueryHierarchical:
		dsl = prefixDSL(q.Raw, limit)
	}

	hits, total, err := s.search(ctx, dsl)
	if err != nil {
		return nil, err
	}

	result := &optnix.Result{Total: total}
	for _, o := range hits {
		result.Options = append(result.Options, optnix.RankedOption{Option: o})
	}
	return result, nil
}

// Lookup finds the option with exactly this path. Sibling options under
// the same parent are fetched with a follow-up prefix query.
func (s *Source) Lookup(ctx context.Context, path string) (*optnix.Option, []optnix.Option, error) {
	if path == "" {
		return nil, nil, optnix.Errorf(optnix.EINVALID, "option path required")
	}

	hits, _, err := s.search(ctx, exactDSL(path))
	if err != nil {
		return nil, nil, err
	}
	if len(hits) == 0 {
		return nil, nil, optnix.Errorf(optnix.ENOTFOUND, "option %q not found", path)
	}
	found := hits[0]

	var related []optnix.Option
	if i := strings.LastIndex(path, "."); i > 0 {
		if sibs, _, err := s.search(ctx, prefixDSL(path[:i], optnix.DefaultQueryLimit)); err == nil {
			for _, o := range sibs {
				if o.Path != path {
					related = append(related, o)
				}
			}
		}
	}
	return &found, related, nil
}

// ByPrefix returns options beneath a dot-separated path prefix.
func (s *Source) ByPrefix(ctx context.Context, prefix string, limit int) ([]optnix.Option, error) {
	if prefix == "" {
		return nil, optnix.Errorf(optnix.EINVALID, "prefix required")
	}
	if limit <= 0 {
		limit = optnix.DefaultQueryLimit
	}
	hits, _, err := s.search(ctx, prefixDSL(prefix, limit))
	return hits, err
}

// Categories approximates per-top-level-group counts with a terms
// aggregation over the first path segment.
func (s *Source) Categories(ctx context.Context) ([]optnix.CategoryStat, error) {
	raw, err := s.request(ctx, aggregationDSL())
	if err != nil {
		return nil, err
	}

	var resp struct {
		Aggregations struct {
			Groups struct {
				Buckets []struct {
					Key      string `json:"key"`
					DocCount int    `json:"doc_count"`
				} `json:"buckets"`
			} `json:"groups"`
		} `json:"aggregations"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode aggregation response: %w", err)
	}

	stats := make([]optnix.CategoryStat, 0, len(resp.Aggregations.Groups.Buckets))
	for _, b := range resp.Aggregations.Groups.Buckets {
		stats = append(stats, optnix.CategoryStat{Name: b.Key, Count: b.DocCount})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats, nil
}

// Status reports the remote source's health.
func (s *Source) Status() optnix.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := optnix.Status{
		Source: optnix.SourceNixOS,
		State:  s.state,
	}
	if s.lastErr != nil {
		st.LastErr = s.lastErr.Error()
	}
	return st
}

// search runs a query DSL and decodes option hits.
func (s *Source) search(ctx context.Context, dsl map[string]any) ([]optnix.Option, int, error) {
	raw, err := s.request(ctx, dsl)
	if err != nil {
		return nil, 0, err
	}

	var resp struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					Name        string `json:"option_name"`
					Type        string `json:"option_type"`
					Description string `json:"option_description"`
					Default     string `json:"option_default"`
					Example     string `json:"option_example"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}

	options := make([]optnix.Option, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		if h.Source.Name == "" {
			continue
		}
		options = append(options, optnix.Option{
			Path:        h.Source.Name,
			Type:        h.Source.Type,
			Description: stripTags(h.Source.Description),
			Default:     h.Source.Default,
			Example:     h.Source.Example,
			Source:      optnix.SourceNixOS,
		})
	}
	return options, resp.Hits.Total.Value, nil
}

// request POSTs a query DSL, serving and populating the response cache.
func (s *Source) request(ctx context.Context, dsl map[string]any) ([]byte, error) {
	body, err := json.Marshal(dsl)
	if err != nil {
		return nil, fmt.Errorf("marshal query DSL: %w", err)
	}

	url := fmt.Sprintf("%s/%s/_search", s.baseURL, s.index)
	key := url + "\x00" + string(body)

	if raw, ok := s.cache.Get(ctx, key); ok {
		return raw, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.username, s.password)

	resp, err := s.client.Do(req)
	if err != nil {
		return s.fail(ctx, key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return s.fail(ctx, key, fmt.Errorf("HTTP %d from search API", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return s.fail(ctx, key, err)
	}

	_ = s.cache.Put(ctx, key, raw, s.ttl)
	s.ok()
	return raw, nil
}

// fail records a remote failure. An expired cached response, when present,
// is served in place of the live one (availability over freshness).
func (s *Source) fail(ctx context.Context, key string, err error) ([]byte, error) {
	s.mu.Lock()
	s.state = optnix.StateDegraded
	s.lastErr = err
	s.mu.Unlock()

	if raw, ok := s.cache.GetStale(ctx, key); ok {
		return raw, nil
	}
	return nil, optnix.Errorf(optnix.EUNAVAILABLE, "search API unavailable: %v", err)
}

func (s *Source) ok() {
	s.mu.Lock()
	s.state = optnix.StateReady
	s.lastErr = nil
	s.mu.Unlock()
}

func termDSL(raw string, limit int) map[string]any {
	return map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{typeFilter()},
				"must": []any{map[string]any{
					"multi_match": map[string]any{
						"query":  raw,
						"type":   "cross_fields",
						"fields": []string{"option_name^6", "option_description^1"},
					},
				}},
			},
		},
	}
}

func prefixDSL(prefix string, limit int) map[string]any {
	return map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{typeFilter()},
				"must": []any{map[string]any{
					"prefix": map[string]any{
						"option_name": prefix,
					},
				}},
			},
		},
	}
}

func exactDSL(path string) map[string]any {
	return map[string]any{
		"size": 1,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{typeFilter()},
				"must": []any{map[string]any{
					"term": map[string]any{
						"option_name": path,
					},
				}},
			},
		},
	}
}

func aggregationDSL() map[string]any {
	return map[string]any{
		"size":  0,
		"query": map[string]any{"bool": map[string]any{"filter": []any{typeFilter()}}},
		"aggs": map[string]any{
			"groups": map[string]any{
				"terms": map[string]any{
					"field": "option_name.raw",
					"size":  50,
				},
			},
		},
	}
}

func typeFilter() map[string]any {
	return map[string]any{
		"term": map[string]any{"type": "option"},
	}
}

// stripTags flattens the HTML fragments the API embeds in descriptions.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
