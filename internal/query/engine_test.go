package query

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesync/pkg/model"
)

type fakeSource struct {
	name     string
	lastSpec *ViewSpec
	lastOpts Options
	result   *model.Result
	err      error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Query(_ context.Context, spec *ViewSpec, opts Options) (*model.Result, error) {
	f.lastSpec = spec
	f.lastOpts = opts
	return f.result, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEngineDispatchesToNamedSource(t *testing.T) {
	pg := &fakeSource{name: "postgres", result: &model.Result{CurrentPage: 1}}
	mg := &fakeSource{name: "mongo", result: &model.Result{CurrentPage: 1}}
	engine := NewEngine(testLogger(), pg, mg)

	res, err := engine.Query(context.Background(), "mongo", ViewSalesByCountry, Options{
		PageNumber: 1,
		PageSize:   10,
	})
	require.NoError(t, err)
	assert.Same(t, mg.result, res)
	assert.Nil(t, pg.lastSpec)
	assert.Equal(t, ViewSalesByCountry, mg.lastSpec.Name)
}

func TestEngineAppliesDefaultSort(t *testing.T) {
	pg := &fakeSource{name: "postgres", result: &model.Result{}}
	engine := NewEngine(testLogger(), pg)

	_, err := engine.Query(context.Background(), "postgres", ViewCustomerValue, Options{
		PageNumber: 1,
		PageSize:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, "CustomerID", pg.lastOpts.SortField)
	assert.Equal(t, OrderAsc, pg.lastOpts.SortOrder)
}

func TestEngineRejectsUnknownView(t *testing.T) {
	engine := NewEngine(testLogger(), &fakeSource{name: "postgres"})

	_, err := engine.Query(context.Background(), "postgres", "sales-by-moon-phase", Options{
		PageNumber: 1,
		PageSize:   10,
	})
	var unknownView *UnknownViewError
	require.ErrorAs(t, err, &unknownView)
	assert.Equal(t, "sales-by-moon-phase", unknownView.View)
}

func TestEngineRejectsUnknownStore(t *testing.T) {
	engine := NewEngine(testLogger(), &fakeSource{name: "postgres"})

	_, err := engine.Query(context.Background(), "sqlite", ViewSalesByCountry, Options{
		PageNumber: 1,
		PageSize:   10,
	})
	var unknownStore *UnknownStoreError
	require.ErrorAs(t, err, &unknownStore)
	assert.Equal(t, "sqlite", unknownStore.Store)
}

func TestEngineRejectsUnknownSortField(t *testing.T) {
	engine := NewEngine(testLogger(), &fakeSource{name: "postgres"})

	_, err := engine.Query(context.Background(), "postgres", ViewSalesByCountry, Options{
		SortField:  "Continent",
		PageNumber: 1,
		PageSize:   10,
	})
	var unknownField *UnknownSortFieldError
	require.ErrorAs(t, err, &unknownField)
	assert.Equal(t, ViewSalesByCountry, unknownField.View)
	assert.Equal(t, "Continent", unknownField.Field)
}

func TestEngineRejectsBadOptions(t *testing.T) {
	engine := NewEngine(testLogger(), &fakeSource{name: "postgres"})

	_, err := engine.Query(context.Background(), "postgres", ViewSalesByCountry, Options{
		SortOrder:  "sideways",
		PageNumber: 1,
		PageSize:   10,
	})
	assert.ErrorIs(t, err, ErrInvalidSortOrder)

	_, err = engine.Query(context.Background(), "postgres", ViewSalesByCountry, Options{
		PageNumber: 0,
		PageSize:   10,
	})
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestEnginePropagatesSourceError(t *testing.T) {
	boom := errors.New("connection reset")
	engine := NewEngine(testLogger(), &fakeSource{name: "postgres", err: boom})

	_, err := engine.Query(context.Background(), "postgres", ViewSalesByCountry, Options{
		PageNumber: 1,
		PageSize:   10,
	})
	assert.ErrorIs(t, err, boom)
}

func TestEngineStores(t *testing.T) {
	engine := NewEngine(testLogger(),
		&fakeSource{name: "redis"},
		&fakeSource{name: "postgres"},
		&fakeSource{name: "mongo"},
	)
	assert.Equal(t, []string{"mongo", "postgres", "redis"}, engine.Stores())
}
