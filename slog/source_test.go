package slog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optnix/optnix"
	"github.com/optnix/optnix/mock"
	optslog "github.com/optnix/optnix/slog"
)

func newMockSource() *mock.SourceContext {
	return &mock.SourceContext{
		SearchFn: func(_ context.Context, q optnix.Query) (*optnix.Result, error) {
			return &optnix.Result{
				Options: []optnix.RankedOption{{Option: optnix.Option{Path: "programs.git.enable"}}},
				Total:   1,
			}, nil
		},
		LookupFn: func(_ context.Context, path string) (*optnix.Option, []optnix.Option, error) {
			return &optnix.Option{Path: path}, nil, nil
		},
		ByPrefixFn: func(_ context.Context, prefix string, limit int) ([]optnix.Option, error) {
			return []optnix.Option{{Path: prefix + ".enable"}}, nil
		},
		CategoriesFn: func(context.Context) ([]optnix.CategoryStat, error) {
			return []optnix.CategoryStat{{Name: "programs", Count: 1}}, nil
		},
		StatusFn: func() optnix.Status {
			return optnix.Status{Source: optnix.SourceHomeManager, State: optnix.StateReady}
		},
	}
}

func TestSource_LogsSearch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	logger, buf := newLogger()
	s := optslog.NewSource(newMockSource(), logger)

	res, err := s.Search(ctx, optnix.Query{Raw: "git", Kind: optnix.QueryTerm})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "query=git")
	assert.Contains(t, out, "source=home-manager")
}

func TestSource_LogsNotReady(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	next := newMockSource()
	next.SearchFn = func(context.Context, optnix.Query) (*optnix.Result, error) {
		return nil, optnix.Errorf(optnix.ENOTREADY, "index not built yet")
	}

	logger, buf := newLogger()
	s := optslog.NewSource(next, logger)

	_, err := s.Search(ctx, optnix.Query{Raw: "git", Kind: optnix.QueryTerm})
	require.Error(t, err)
	assert.Equal(t, optnix.ENOTREADY, optnix.ErrorCode(err))
	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestSource_Delegates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	logger, _ := newLogger()
	s := optslog.NewSource(newMockSource(), logger)

	o, _, err := s.Lookup(ctx, "programs.git.enable")
	require.NoError(t, err)
	assert.Equal(t, "programs.git.enable", o.Path)

	options, err := s.ByPrefix(ctx, "programs.git", 10)
	require.NoError(t, err)
	assert.Len(t, options, 1)

	stats, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, stats, 1)

	assert.Equal(t, optnix.StateReady, s.Status().State)
}
