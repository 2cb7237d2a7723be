package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salesync/internal/query"
	"salesync/pkg/model"
)

// SourceName is the store name this adapter serves queries under.
const SourceName = "postgres"

// ViewSource answers the aggregate views from the relational store. Views
// whose grouping stays inside the star join are grouped server-side;
// SalesByCountry and CustomerLifetimeValue materialize the facts and reuse
// the shared in-memory aggregation.
type ViewSource struct {
	store *Store
}

// NewViewSource builds the relational query adapter.
func NewViewSource(store *Store) *ViewSource {
	return &ViewSource{store: store}
}

func (v *ViewSource) Name() string { return SourceName }

// groupedView describes one server-side grouped view: the aggregate subquery
// and the mapping from declared row fields to its output columns.
type groupedView struct {
	selectSQL string
	columns   map[string]string
	scan      func(scanner interface{ Scan(...any) error }) (model.Row, error)
}

var groupedViews = map[string]groupedView{
	query.ViewSalesByProduct: {
		// MIN(unit_price) keeps the non-additive field deterministic under
		// any scan order.
		selectSQL: `
			SELECT s.stock_code AS stock_code,
			       SUM(s.quantity) AS quantity,
			       MIN(s.unit_price) AS unit_price,
			       SUM(s.quantity * s.unit_price) AS total_price
			FROM sales s
			GROUP BY s.stock_code`,
		columns: map[string]string{
			"StockCode":  "stock_code",
			"Quantity":   "quantity",
			"UnitPrice":  "unit_price",
			"TotalPrice": "total_price",
		},
		scan: func(sc interface{ Scan(...any) error }) (model.Row, error) {
			var (
				stockCode             string
				quantity              int64
				unitPrice, totalPrice float64
			)
			if err := sc.Scan(&stockCode, &quantity, &unitPrice, &totalPrice); err != nil {
				return nil, err
			}
			return model.Row{
				"StockCode":  stockCode,
				"Quantity":   quantity,
				"UnitPrice":  unitPrice,
				"TotalPrice": totalPrice,
			}, nil
		},
	},
	query.ViewInvoiceSummary: {
		selectSQL: `
			SELECT s.invoice_no AS invoice_no,
			       SUM(s.quantity * s.unit_price) AS total_amount,
			       MIN(s.customer_id) AS customer_name,
			       MIN(c.country_name) AS country_name,
			       MIN(d.invoice_date) AS invoice_date
			FROM sales s
			JOIN countries c ON c.country_id = s.country_id
			JOIN invoice_dates d ON d.date_id = s.invoice_date_id
			GROUP BY s.invoice_no`,
		columns: map[string]string{
			"InvoiceNo":    "invoice_no",
			"TotalAmount":  "total_amount",
			"CustomerName": "customer_name",
			"CountryName":  "country_name",
			"InvoiceDate":  "invoice_date",
		},
		scan: func(sc interface{ Scan(...any) error }) (model.Row, error) {
			var (
				invoiceNo, customer, country string
				totalAmount                  float64
				invoiceDate                  time.Time
			)
			if err := sc.Scan(&invoiceNo, &totalAmount, &customer, &country, &invoiceDate); err != nil {
				return nil, err
			}
			return model.Row{
				"InvoiceNo":    invoiceNo,
				"TotalAmount":  totalAmount,
				"CustomerName": customer,
				"CountryName":  country,
				"InvoiceDate":  invoiceDate,
			}, nil
		},
	},
	query.ViewSalesTrend: {
		selectSQL: `
			SELECT d.year AS year,
			       d.month AS month,
			       SUM(s.quantity * s.unit_price) AS total_sales
			FROM sales s
			JOIN invoice_dates d ON d.date_id = s.invoice_date_id
			GROUP BY d.year, d.month`,
		columns: map[string]string{
			"Year":       "year",
			"Month":      "month",
			"TotalSales": "total_sales",
		},
		scan: func(sc interface{ Scan(...any) error }) (model.Row, error) {
			var (
				year, month int64
				totalSales  float64
			)
			if err := sc.Scan(&year, &month, &totalSales); err != nil {
				return nil, err
			}
			return model.Row{
				"Year":       year,
				"Month":      month,
				"TotalSales": totalSales,
			}, nil
		},
	},
}

// Query implements query.Source.
func (v *ViewSource) Query(ctx context.Context, spec *query.ViewSpec, opts query.Options) (*model.Result, error) {
	if gv, ok := groupedViews[spec.Name]; ok {
		return v.queryGrouped(ctx, spec, gv, opts)
	}
	return v.queryMaterialized(ctx, spec, opts)
}

func (v *ViewSource) queryGrouped(ctx context.Context, spec *query.ViewSpec, gv groupedView, opts query.Options) (*model.Result, error) {
	var total int
	countSQL := fmt.Sprintf(`SELECT COUNT(*) FROM (%s) g`, gv.selectSQL)
	if err := v.store.db.QueryRowContext(ctx, countSQL).Scan(&total); err != nil {
		return nil, fmt.Errorf("count %s groups: %w", spec.Name, err)
	}

	pageSQL := fmt.Sprintf(`SELECT * FROM (%s) g ORDER BY %s LIMIT $1 OFFSET $2`,
		gv.selectSQL, orderClause(spec, gv.columns, opts))
	rows, err := v.store.db.QueryContext(ctx, pageSQL, opts.PageSize, opts.Offset())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", spec.Name, err)
	}
	defer rows.Close()

	out := make([]model.Row, 0, opts.PageSize)
	for rows.Next() {
		row, err := gv.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", spec.Name, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", spec.Name, err)
	}

	return &model.Result{
		Rows:        out,
		CurrentPage: opts.PageNumber,
		TotalPages:  query.TotalPages(total, opts.PageSize),
		PageSize:    opts.PageSize,
	}, nil
}

func (v *ViewSource) queryMaterialized(ctx context.Context, spec *query.ViewSpec, opts query.Options) (*model.Result, error) {
	recs, err := v.store.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	rows := query.Aggregate(spec, recs)
	query.SortRows(rows, spec, opts.SortField, opts.SortOrder)

	return &model.Result{
		Rows:        query.Paginate(rows, opts.PageNumber, opts.PageSize),
		CurrentPage: opts.PageNumber,
		TotalPages:  query.TotalPages(len(rows), opts.PageSize),
		PageSize:    opts.PageSize,
	}, nil
}

// orderClause renders the deterministic total order: the requested field in
// the requested direction, then the view's group-key fields ascending. Field
// names are validated upstream and mapped through the adapter's own column
// table, never interpolated from caller input.
func orderClause(spec *query.ViewSpec, columns map[string]string, opts query.Options) string {
	dir := "ASC"
	if opts.SortOrder == query.OrderDesc {
		dir = "DESC"
	}
	parts := []string{columns[opts.SortField] + " " + dir}
	for _, key := range spec.GroupKey {
		if key == opts.SortField {
			continue
		}
		parts = append(parts, columns[key]+" ASC")
	}
	return strings.Join(parts, ", ")
}
