package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/optnix/optnix"
)

// Ensure Source implements optnix.SourceContext.
var _ optnix.SourceContext = (*Source)(nil)

// Source wraps a SourceContext with query logging.
type Source struct {
	next   optnix.SourceContext
	logger *slog.Logger
}

// NewSource creates a new logging Source.
func NewSource(next optnix.SourceContext, logger *slog.Logger) *Source {
	return &Source{next: next, logger: logger}
}

// Search delegates to the wrapped context and logs query shape and outcome.
func (s *Source) Search(ctx context.Context, q optnix.Query) (*optnix.Result, error) {
	begin := time.Now()
	res, err := s.next.Search(ctx, q)
	if err != nil {
		s.logger.Error("search failed",
			"source", s.next.Status().Source,
			"query", q.Raw,
			"kind", q.Kind,
			"error", err,
		)
		return nil, err
	}
	s.logger.Info("search",
		"source", s.next.Status().Source,
		"query", q.Raw,
		"kind", q.Kind,
		"results", len(res.Options),
		"total", res.Total,
		"fallback", res.Fallback,
		"duration", time.Since(begin),
	)
	return res, nil
}

// Lookup delegates to the wrapped context.
func (s *Source) Lookup(ctx context.Context, path string) (*optnix.Option, []optnix.Option, error) {
	begin := time.Now()
	o, related, err := s.next.Lookup(ctx, path)
	if err != nil {
		s.logger.Error("lookup failed",
			"source", s.next.Status().Source,
			"path", path,
			"error", err,
		)
		return nil, nil, err
	}
	s.logger.Info("lookup",
		"source", s.next.Status().Source,
		"path", path,
		"related", len(related),
		"duration", time.Since(begin),
	)
	return o, related, nil
}

// ByPrefix delegates to the wrapped context.
func (s *Source) ByPrefix(ctx context.Context, prefix string, limit int) ([]optnix.Option, error) {
	begin := time.Now()
	options, err := s.next.ByPrefix(ctx, prefix, limit)
	if err != nil {
		s.logger.Error("prefix listing failed",
			"source", s.next.Status().Source,
			"prefix", prefix,
			"error", err,
		)
		return nil, err
	}
	s.logger.Info("prefix listing",
		"source", s.next.Status().Source,
		"prefix", prefix,
		"results", len(options),
		"duration", time.Since(begin),
	)
	return options, nil
}

// Categories delegates to the wrapped context.
func (s *Source) Categories(ctx context.Context) ([]optnix.CategoryStat, error) {
	return s.next.Categories(ctx)
}

// Status delegates to the wrapped context.
func (s *Source) Status() optnix.Status {
	return s.next.Status()
}
