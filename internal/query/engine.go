package query

import (
	"context"
	"log/slog"
	"sort"

	"salesync/pkg/model"
)

// Source is one store's realization of the aggregate views. Each source
// receives options that have already been validated against the view spec
// and must honor the engine's sort and pagination semantics.
type Source interface {
	// Name identifies the backing store ("postgres", "mongo", "redis").
	Name() string

	// Query returns one page of the view's grouped result set.
	Query(ctx context.Context, spec *ViewSpec, opts Options) (*model.Result, error)
}

// Engine dispatches aggregate view queries to a named store source. All
// sources answer the same five views with the same output contract, so which
// store serves a query is purely the caller's choice.
type Engine struct {
	sources map[string]Source
	logger  *slog.Logger
}

// NewEngine registers the given sources under their store names.
func NewEngine(logger *slog.Logger, sources ...Source) *Engine {
	e := &Engine{
		sources: make(map[string]Source, len(sources)),
		logger:  logger.With("component", "query-engine"),
	}
	for _, s := range sources {
		e.sources[s.Name()] = s
	}
	return e
}

// Query serves one page of a view from the named store.
func (e *Engine) Query(ctx context.Context, store, view string, opts Options) (*model.Result, error) {
	spec, err := View(view)
	if err != nil {
		return nil, err
	}
	if err := opts.normalize(spec); err != nil {
		return nil, err
	}
	source, ok := e.sources[store]
	if !ok {
		return nil, &UnknownStoreError{Store: store}
	}

	res, err := source.Query(ctx, spec, opts)
	if err != nil {
		e.logger.Error("view query failed",
			"store", store, "view", view, "error", err)
		return nil, err
	}

	e.logger.Debug("view query served",
		"store", store,
		"view", view,
		"rows", len(res.Rows),
		"page", res.CurrentPage,
		"totalPages", res.TotalPages,
		"fromCache", res.FromCache)
	return res, nil
}

// Stores lists the registered store names, sorted.
func (e *Engine) Stores() []string {
	names := make([]string, 0, len(e.sources))
	for name := range e.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
