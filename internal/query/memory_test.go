package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesync/pkg/model"
)

func rec(invoiceNo, stockCode string, qty int64, price float64, customer, country string, date time.Time) model.SaleRecord {
	return model.SaleRecord{
		Sale: model.Sale{
			InvoiceNo:  invoiceNo,
			StockCode:  stockCode,
			Quantity:   qty,
			UnitPrice:  price,
			CustomerID: customer,
		},
		CountryName: country,
		InvoiceDate: date,
	}
}

func rowByKey(t *testing.T, rows []model.Row, key string, want any) model.Row {
	t.Helper()
	for _, r := range rows {
		if r[key] == want {
			return r
		}
	}
	t.Fatalf("no row with %s=%v in %v", key, want, rows)
	return nil
}

func TestAggregateCustomerValue(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	recs := []model.SaleRecord{
		rec("A1", "P1", 2, 5.0, "C1", "UK", jan),
		rec("A2", "P2", 1, 10.0, "C1", "UK", jan),
		rec("A3", "P1", 4, 2.5, "C1", "UK", jan),
		rec("B1", "P1", 1, 7.0, "C2", "France", jan),
	}

	spec, err := View(ViewCustomerValue)
	require.NoError(t, err)
	rows := Aggregate(spec, recs)
	require.Len(t, rows, 2)

	c1 := rowByKey(t, rows, "CustomerID", "C1")
	assert.InDelta(t, 30.0, c1["LifetimeValue"], 1e-9)

	c2 := rowByKey(t, rows, "CustomerID", "C2")
	assert.InDelta(t, 7.0, c2["LifetimeValue"], 1e-9)
}

func TestAggregateByCountry(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	recs := []model.SaleRecord{
		rec("A1", "P1", 2, 5.0, "C1", "UK", jan),
		rec("A2", "P2", 3, 1.0, "C2", "UK", jan),
		rec("B1", "P1", 1, 7.0, "C3", "France", jan),
	}

	spec, err := View(ViewSalesByCountry)
	require.NoError(t, err)
	rows := Aggregate(spec, recs)
	require.Len(t, rows, 2)

	uk := rowByKey(t, rows, "Country", "UK")
	assert.InDelta(t, 13.0, uk["TotalSales"], 1e-9)

	fr := rowByKey(t, rows, "Country", "France")
	assert.InDelta(t, 7.0, fr["TotalSales"], 1e-9)
}

func TestAggregateByProductKeepsMinimumUnitPrice(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	recs := []model.SaleRecord{
		rec("A1", "P1", 2, 5.0, "C1", "UK", jan),
		rec("A2", "P1", 3, 4.0, "C2", "UK", jan),
		rec("A3", "P1", 1, 6.0, "C3", "UK", jan),
	}

	spec, err := View(ViewSalesByProduct)
	require.NoError(t, err)
	rows := Aggregate(spec, recs)
	require.Len(t, rows, 1)

	p1 := rows[0]
	assert.Equal(t, "P1", p1["StockCode"])
	assert.Equal(t, int64(6), p1["Quantity"])
	assert.InDelta(t, 4.0, p1["UnitPrice"], 1e-9)
	assert.InDelta(t, 28.0, p1["TotalPrice"], 1e-9)
}

func TestAggregateInvoicesNonAdditiveFields(t *testing.T) {
	early := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	late := time.Date(2024, 1, 10, 17, 0, 0, 0, time.UTC)
	recs := []model.SaleRecord{
		rec("INV-1", "P1", 2, 5.0, "C2", "UK", late),
		rec("INV-1", "P2", 1, 3.0, "C1", "France", early),
	}

	spec, err := View(ViewInvoiceSummary)
	require.NoError(t, err)
	rows := Aggregate(spec, recs)
	require.Len(t, rows, 1)

	inv := rows[0]
	assert.Equal(t, "INV-1", inv["InvoiceNo"])
	assert.InDelta(t, 13.0, inv["TotalAmount"], 1e-9)
	assert.Equal(t, "C1", inv["CustomerName"])
	assert.Equal(t, "France", inv["CountryName"])
	assert.Equal(t, early, inv["InvoiceDate"])
}

func TestAggregateInvoicesOrderIndependent(t *testing.T) {
	early := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	late := time.Date(2024, 1, 10, 17, 0, 0, 0, time.UTC)
	forward := []model.SaleRecord{
		rec("INV-1", "P1", 2, 5.0, "C2", "UK", late),
		rec("INV-1", "P2", 1, 3.0, "C1", "France", early),
	}
	reversed := []model.SaleRecord{forward[1], forward[0]}

	spec, err := View(ViewInvoiceSummary)
	require.NoError(t, err)
	assert.Equal(t, Aggregate(spec, forward), Aggregate(spec, reversed))
}

func TestAggregateTrend(t *testing.T) {
	recs := []model.SaleRecord{
		rec("A1", "P1", 2, 5.0, "C1", "UK", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)),
		rec("A2", "P2", 5, 2.5, "C2", "UK", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)),
		rec("B1", "P1", 1, 4.0, "C1", "UK", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
	}

	spec, err := View(ViewSalesTrend)
	require.NoError(t, err)
	rows := Aggregate(spec, recs)
	require.Len(t, rows, 2)

	jan := rowByKey(t, rows, "Month", int64(1))
	assert.Equal(t, int64(2024), jan["Year"])
	assert.InDelta(t, 22.5, jan["TotalSales"], 1e-9)

	feb := rowByKey(t, rows, "Month", int64(2))
	assert.InDelta(t, 4.0, feb["TotalSales"], 1e-9)
}
