package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesync/pkg/model"
)

func TestSortRowsNumericCoercion(t *testing.T) {
	spec, err := View(ViewSalesTrend)
	require.NoError(t, err)

	// Native adapters emit int64 counters; JSON-round-tripped cache rows
	// come back as float64. Both must land in the same order.
	rows := []model.Row{
		{"Year": float64(2025), "Month": float64(1), "TotalSales": 5.0},
		{"Year": int64(2023), "Month": int64(12), "TotalSales": 1.0},
		{"Year": int64(2024), "Month": int64(6), "TotalSales": 3.0},
	}

	SortRows(rows, spec, "Year", OrderAsc)
	assert.Equal(t, int64(2023), rows[0]["Year"])
	assert.Equal(t, int64(2024), rows[1]["Year"])
	assert.Equal(t, float64(2025), rows[2]["Year"])

	SortRows(rows, spec, "Year", OrderDesc)
	assert.Equal(t, float64(2025), rows[0]["Year"])
}

func TestSortRowsTimeCoercion(t *testing.T) {
	spec, err := View(ViewInvoiceSummary)
	require.NoError(t, err)

	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []model.Row{
		{"InvoiceNo": "B", "InvoiceDate": "2024-06-01T00:00:00Z"},
		{"InvoiceNo": "A", "InvoiceDate": early},
	}

	SortRows(rows, spec, "InvoiceDate", OrderAsc)
	assert.Equal(t, "A", rows[0]["InvoiceNo"])
	assert.Equal(t, "B", rows[1]["InvoiceNo"])
}

func TestSortRowsGroupKeyTieBreak(t *testing.T) {
	spec, err := View(ViewSalesByCountry)
	require.NoError(t, err)

	rows := []model.Row{
		{"Country": "UK", "TotalSales": 10.0},
		{"Country": "France", "TotalSales": 10.0},
		{"Country": "Austria", "TotalSales": 10.0},
	}

	SortRows(rows, spec, "TotalSales", OrderDesc)
	assert.Equal(t, "Austria", rows[0]["Country"])
	assert.Equal(t, "France", rows[1]["Country"])
	assert.Equal(t, "UK", rows[2]["Country"])
}

func TestPaginate(t *testing.T) {
	rows := make([]model.Row, 0, 5)
	for _, c := range []string{"a", "b", "c", "d", "e"} {
		rows = append(rows, model.Row{"Country": c})
	}

	first := Paginate(rows, 1, 2)
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0]["Country"])

	last := Paginate(rows, 3, 2)
	require.Len(t, last, 1)
	assert.Equal(t, "e", last[0]["Country"])

	assert.Empty(t, Paginate(rows, 4, 2))
}

func TestPaginateConcatenationCoversAllRows(t *testing.T) {
	spec, err := View(ViewSalesByCountry)
	require.NoError(t, err)

	rows := make([]model.Row, 0, 7)
	for _, c := range []string{"g", "c", "a", "f", "b", "e", "d"} {
		rows = append(rows, model.Row{"Country": c, "TotalSales": 1.0})
	}
	SortRows(rows, spec, "Country", OrderAsc)

	var collected []model.Row
	size := 3
	for page := 1; page <= TotalPages(len(rows), size); page++ {
		collected = append(collected, Paginate(rows, page, size)...)
	}
	assert.Equal(t, rows, collected)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 4, TotalPages(7, 2))
}
