package query

import (
	"time"

	"salesync/pkg/model"
)

// Aggregate derives a view's full, unsorted result set from raw fact records
// in memory. It is the reference realization of the view specs: the
// relational adapter uses it for views whose grouping needs resolved
// dimension fields, and tests use it to pin the semantics the other adapters
// must reproduce.
//
// Where a group carries a non-additive field (a product's unit price, an
// invoice's customer, country and date), the minimum value observed in the
// group is kept. Taking the minimum rather than "first seen" keeps the result
// independent of store iteration order.
func Aggregate(spec *ViewSpec, recs []model.SaleRecord) []model.Row {
	switch spec.Name {
	case ViewSalesByCountry:
		return aggregateByCountry(recs)
	case ViewSalesByProduct:
		return aggregateByProduct(recs)
	case ViewInvoiceSummary:
		return aggregateInvoices(recs)
	case ViewCustomerValue:
		return aggregateCustomerValue(recs)
	case ViewSalesTrend:
		return aggregateTrend(recs)
	}
	return nil
}

func aggregateByCountry(recs []model.SaleRecord) []model.Row {
	totals := make(map[string]float64)
	for _, r := range recs {
		totals[r.CountryName] += r.TotalPrice()
	}

	rows := make([]model.Row, 0, len(totals))
	for country, total := range totals {
		rows = append(rows, model.Row{
			"Country":    country,
			"TotalSales": total,
		})
	}
	return rows
}

func aggregateByProduct(recs []model.SaleRecord) []model.Row {
	type productAgg struct {
		quantity   int64
		unitPrice  float64
		totalPrice float64
	}
	groups := make(map[string]*productAgg)
	for _, r := range recs {
		g, ok := groups[r.StockCode]
		if !ok {
			g = &productAgg{unitPrice: r.UnitPrice}
			groups[r.StockCode] = g
		}
		g.quantity += r.Quantity
		if r.UnitPrice < g.unitPrice {
			g.unitPrice = r.UnitPrice
		}
		g.totalPrice += r.TotalPrice()
	}

	rows := make([]model.Row, 0, len(groups))
	for code, g := range groups {
		rows = append(rows, model.Row{
			"StockCode":  code,
			"Quantity":   g.quantity,
			"UnitPrice":  g.unitPrice,
			"TotalPrice": g.totalPrice,
		})
	}
	return rows
}

func aggregateInvoices(recs []model.SaleRecord) []model.Row {
	type invoiceAgg struct {
		total    float64
		customer string
		country  string
		date     time.Time
	}
	groups := make(map[string]*invoiceAgg)
	for _, r := range recs {
		g, ok := groups[r.InvoiceNo]
		if !ok {
			g = &invoiceAgg{customer: r.CustomerID, country: r.CountryName, date: r.InvoiceDate}
			groups[r.InvoiceNo] = g
		}
		g.total += r.TotalPrice()
		if r.CustomerID < g.customer {
			g.customer = r.CustomerID
		}
		if r.CountryName < g.country {
			g.country = r.CountryName
		}
		if r.InvoiceDate.Before(g.date) {
			g.date = r.InvoiceDate
		}
	}

	rows := make([]model.Row, 0, len(groups))
	for invoiceNo, g := range groups {
		rows = append(rows, model.Row{
			"InvoiceNo":    invoiceNo,
			"TotalAmount":  g.total,
			"CustomerName": g.customer,
			"CountryName":  g.country,
			"InvoiceDate":  g.date,
		})
	}
	return rows
}

func aggregateCustomerValue(recs []model.SaleRecord) []model.Row {
	totals := make(map[string]float64)
	for _, r := range recs {
		totals[r.CustomerID] += r.TotalPrice()
	}

	rows := make([]model.Row, 0, len(totals))
	for customer, total := range totals {
		rows = append(rows, model.Row{
			"CustomerID":    customer,
			"LifetimeValue": total,
		})
	}
	return rows
}

func aggregateTrend(recs []model.SaleRecord) []model.Row {
	type yearMonth struct {
		year  int
		month int
	}
	totals := make(map[yearMonth]float64)
	for _, r := range recs {
		key := yearMonth{year: r.InvoiceDate.Year(), month: int(r.InvoiceDate.Month())}
		totals[key] += r.TotalPrice()
	}

	rows := make([]model.Row, 0, len(totals))
	for key, total := range totals {
		rows = append(rows, model.Row{
			"Year":       int64(key.year),
			"Month":      int64(key.month),
			"TotalSales": total,
		})
	}
	return rows
}
