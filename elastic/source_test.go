package elastic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optnix/optnix"
	"github.com/optnix/optnix/cache"
	"github.com/optnix/optnix/elastic"
)

var _ optnix.SourceContext = (*elastic.Source)(nil)

const searchResponse = `{
  "hits": {
    "total": {"value": 1},
    "hits": [
      {"_source": {
        "option_name": "services.nginx.enable",
        "option_type": "boolean",
        "option_description": "<rendered-html><p>Whether to enable Nginx Web Server.</p></rendered-html>",
        "option_default": "false"
      }}
    ]
  }
}`

func newServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		user, _, ok := r.BasicAuth()
		require.True(t, ok, "requests must carry basic auth")
		require.NotEmpty(t, user)

		var dsl map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&dsl))
		require.Contains(t, dsl, "query")

		_, _ = w.Write([]byte(searchResponse))
	}))
}

func newCache(t *testing.T) optnix.Cache {
	t.Helper()
	fs, err := cache.NewFilesystem(t.TempDir())
	require.NoError(t, err)
	return cache.NewTwoTier(cache.NewMemory(), fs)
}

func TestSource_Search(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var calls atomic.Int64
	srv := newServer(t, &calls)
	defer srv.Close()

	s := elastic.NewSource(newCache(t), elastic.WithBaseURL(srv.URL))

	res, err := s.Search(ctx, optnix.Query{Raw: "nginx", Kind: optnix.QueryTerm})
	require.NoError(t, err)
	require.Len(t, res.Options, 1)

	o := res.Options[0].Option
	assert.Equal(t, "services.nginx.enable", o.Path)
	assert.Equal(t, "boolean", o.Type)
	assert.Equal(t, "Whether to enable Nginx Web Server.", o.Description, "markup must be stripped")
	assert.Equal(t, optnix.SourceNixOS, o.Source)
	assert.Equal(t, 1, res.Total)
}

func TestSource_CachesResponses(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var calls atomic.Int64
	srv := newServer(t, &calls)
	defer srv.Close()

	s := elastic.NewSource(newCache(t), elastic.WithBaseURL(srv.URL))

	q := optnix.Query{Raw: "nginx", Kind: optnix.QueryTerm}
	_, err := s.Search(ctx, q)
	require.NoError(t, err)
	_, err = s.Search(ctx, q)
	require.NoError(t, err)

	assert.EqualValues(t, 1, calls.Load(), "identical queries must be served from cache")

	// A different query misses the cache.
	_, err = s.Search(ctx, optnix.Query{Raw: "postgresql", Kind: optnix.QueryTerm})
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestSource_ServesStaleOnFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var calls atomic.Int64
	srv := newServer(t, &calls)

	c := newCache(t)
	s := elastic.NewSource(c, elastic.WithBaseURL(srv.URL), elastic.WithTTL(time.Nanosecond))

	q := optnix.Query{Raw: "nginx", Kind: optnix.QueryTerm}
	_, err := s.Search(ctx, q)
	require.NoError(t, err)

	// The backend goes away and the cached entry expires.
	srv.Close()
	time.Sleep(time.Millisecond)

	res, err := s.Search(ctx, q)
	require.NoError(t, err, "expired cached response must still be served")
	assert.Len(t, res.Options, 1)
	assert.Equal(t, optnix.StateDegraded, s.Status().State)
}

func TestSource_UnavailableWithoutCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := elastic.NewSource(newCache(t), elastic.WithBaseURL(srv.URL))

	_, err := s.Search(ctx, optnix.Query{Raw: "nginx", Kind: optnix.QueryTerm})
	require.Error(t, err)
	assert.Equal(t, optnix.EUNAVAILABLE, optnix.ErrorCode(err))
	assert.Equal(t, optnix.StateDegraded, s.Status().State)
}

func TestSource_Lookup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var calls atomic.Int64
	srv := newServer(t, &calls)
	defer srv.Close()

	s := elastic.NewSource(newCache(t), elastic.WithBaseURL(srv.URL))

	o, _, err := s.Lookup(ctx, "services.nginx.enable")
	require.NoError(t, err)
	assert.Equal(t, "services.nginx.enable", o.Path)
}

func TestSource_Categories(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
  "aggregations": {"groups": {"buckets": [
    {"key": "services", "doc_count": 12000},
    {"key": "programs", "doc_count": 3000}
  ]}}
}`))
	}))
	defer srv.Close()

	s := elastic.NewSource(newCache(t), elastic.WithBaseURL(srv.URL))

	stats, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []optnix.CategoryStat{
		{Name: "programs", Count: 3000},
		{Name: "services", Count: 12000},
	}, stats)
}

func TestSource_StartsReady(t *testing.T) {
	t.Parallel()

	s := elastic.NewSource(newCache(t))
	assert.Equal(t, optnix.StateReady, s.Status().State)
	assert.Equal(t, optnix.SourceNixOS, s.Status().Source)
}
