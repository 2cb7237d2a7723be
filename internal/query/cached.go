package query

import (
	"context"

	"salesync/pkg/model"
)

// RowSource produces the complete, unsorted row set for a view. The cached
// source uses it to fill cache misses.
type RowSource interface {
	FullRows(ctx context.Context, spec *ViewSpec) ([]model.Row, error)
}

// CachedSource answers view queries cache-aside: the full aggregated row set
// is looked up in the view cache, recomputed from the row source on a miss,
// then sorted and paginated per request. Cached rows have passed through a
// JSON round trip, so numeric values arrive as float64 and timestamps as
// RFC 3339 strings; the sort comparators accept both shapes.
type CachedSource struct {
	name   string
	cache  *ViewCache
	source RowSource
}

// NewCachedSource builds a source serving store name from cache over src.
func NewCachedSource(name string, cache *ViewCache, src RowSource) *CachedSource {
	return &CachedSource{name: name, cache: cache, source: src}
}

func (s *CachedSource) Name() string { return s.name }

// Query implements Source.
func (s *CachedSource) Query(ctx context.Context, spec *ViewSpec, opts Options) (*model.Result, error) {
	rows, fromCache, err := s.cache.GetOrCompute(ctx, cacheKey(spec), func(ctx context.Context) ([]model.Row, error) {
		return s.source.FullRows(ctx, spec)
	})
	if err != nil {
		return nil, err
	}

	SortRows(rows, spec, opts.SortField, opts.SortOrder)
	page := Paginate(rows, opts.PageNumber, opts.PageSize)

	return &model.Result{
		Rows:        page,
		CurrentPage: opts.PageNumber,
		TotalPages:  TotalPages(len(rows), opts.PageSize),
		PageSize:    opts.PageSize,
		FromCache:   fromCache,
	}, nil
}

func cacheKey(spec *ViewSpec) string {
	return spec.Name + ":Data"
}
