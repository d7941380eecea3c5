package slog_test

import (
	"bytes"
	"context"
	"errors"
	stdslog "log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optnix/optnix"
	"github.com/optnix/optnix/mock"
	optslog "github.com/optnix/optnix/slog"
)

func newLogger() (*stdslog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return stdslog.New(stdslog.NewTextHandler(&buf, nil)), &buf
}

func TestFetcher_LogsSuccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	next := &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*optnix.FetchResult, error) {
			return &optnix.FetchResult{Body: []byte("<dl></dl>"), FromCache: true}, nil
		},
	}
	logger, buf := newLogger()

	f := optslog.NewFetcher(next, logger)
	res, err := f.Fetch(ctx, "https://example.com/options.xhtml")
	require.NoError(t, err)
	assert.True(t, res.FromCache)

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "url=https://example.com/options.xhtml")
	assert.Contains(t, out, "cached=true")
}

func TestFetcher_LogsFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	next := &mock.Fetcher{
		FetchFn: func(context.Context, string) (*optnix.FetchResult, error) {
			return nil, errors.New("connection refused")
		},
	}
	logger, buf := newLogger()

	f := optslog.NewFetcher(next, logger)
	_, err := f.Fetch(ctx, "https://example.com/options.xhtml")
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "connection refused")
}
