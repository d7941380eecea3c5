package mock

import (
	"context"

	"github.com/optnix/optnix"
)

var _ optnix.SourceContext = (*SourceContext)(nil)

// SourceContext is a mock implementation of optnix.SourceContext.
type SourceContext struct {
	SearchFn     func(ctx context.Context, q optnix.Query) (*optnix.Result, error)
	LookupFn     func(ctx context.Context, path string) (*optnix.Option, []optnix.Option, error)
	ByPrefixFn   func(ctx context.Context, prefix string, limit int) ([]optnix.Option, error)
	CategoriesFn func(ctx context.Context) ([]optnix.CategoryStat, error)
	StatusFn     func() optnix.Status
}

func (s *SourceContext) Search(ctx context.Context, q optnix.Query) (*optnix.Result, error) {
	return s.SearchFn(ctx, q)
}

func (s *SourceContext) Lookup(ctx context.Context, path string) (*optnix.Option, []optnix.Option, error) {
	return s.LookupFn(ctx, path)
}

func (s *SourceContext) ByPrefix(ctx context.Context, prefix string, limit int) ([]optnix.Option, error) {
	return s.ByPrefixFn(ctx, prefix, limit)
}

func (s *SourceContext) Categories(ctx context.Context) ([]optnix.CategoryStat, error) {
	return s.CategoriesFn(ctx)
}

func (s *SourceContext) Status() optnix.Status {
	return s.StatusFn()
}
