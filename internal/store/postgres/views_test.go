package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesync/internal/query"
)

func TestOrderClauseAppendsGroupKeyTieBreak(t *testing.T) {
	spec, err := query.View(query.ViewSalesByProduct)
	require.NoError(t, err)
	gv := groupedViews[query.ViewSalesByProduct]

	clause := orderClause(spec, gv.columns, query.Options{
		SortField: "TotalPrice",
		SortOrder: query.OrderDesc,
	})
	assert.Equal(t, "total_price DESC, stock_code ASC", clause)
}

func TestOrderClauseSkipsGroupKeyWhenPrimary(t *testing.T) {
	spec, err := query.View(query.ViewSalesByProduct)
	require.NoError(t, err)
	gv := groupedViews[query.ViewSalesByProduct]

	clause := orderClause(spec, gv.columns, query.Options{
		SortField: "StockCode",
		SortOrder: query.OrderAsc,
	})
	assert.Equal(t, "stock_code ASC", clause)
}

func TestOrderClauseCompositeGroupKey(t *testing.T) {
	spec, err := query.View(query.ViewSalesTrend)
	require.NoError(t, err)
	gv := groupedViews[query.ViewSalesTrend]

	clause := orderClause(spec, gv.columns, query.Options{
		SortField: "TotalSales",
		SortOrder: query.OrderAsc,
	})
	assert.Equal(t, "total_sales ASC, year ASC, month ASC", clause)
}

func TestGroupedViewColumnsCoverSpecFields(t *testing.T) {
	for name, gv := range groupedViews {
		spec, err := query.View(name)
		require.NoError(t, err)
		for _, f := range spec.Fields {
			assert.Contains(t, gv.columns, f.Name, "view %s", name)
		}
	}
}
