package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"salesync/pkg/model"
)

// InsertSale records a submitted sale, creating any dimension rows it
// references on first sight. The returned record carries the assigned
// surrogate keys and the resolved dimensions.
func (s *Store) InsertSale(ctx context.Context, in model.NewSale) (model.SaleRecord, error) {
	var rec model.SaleRecord

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rec, fmt.Errorf("begin insert sale: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO customers (customer_id) VALUES ($1)
		ON CONFLICT (customer_id) DO NOTHING
	`, in.CustomerID); err != nil {
		return rec, fmt.Errorf("ensure customer: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO products (stock_code, description, unit_price) VALUES ($1, $2, $3)
		ON CONFLICT (stock_code) DO NOTHING
	`, in.StockCode, in.Description, in.UnitPrice); err != nil {
		return rec, fmt.Errorf("ensure product: %w", err)
	}

	countryID, err := ensureCountry(ctx, tx, in.CountryName)
	if err != nil {
		return rec, err
	}

	dateID, err := ensureInvoiceDate(ctx, tx, in)
	if err != nil {
		return rec, err
	}

	var salesID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO sales (invoice_no, stock_code, quantity, unit_price, customer_id, country_id, invoice_date_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING sales_id
	`, in.InvoiceNo, in.StockCode, in.Quantity, in.UnitPrice, in.CustomerID, countryID, dateID).Scan(&salesID)
	if err != nil {
		return rec, fmt.Errorf("insert sale: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return rec, fmt.Errorf("commit insert sale: %w", err)
	}

	rec = model.SaleRecord{
		Sale: model.Sale{
			SalesID:       salesID,
			InvoiceNo:     in.InvoiceNo,
			StockCode:     in.StockCode,
			Description:   in.Description,
			Quantity:      in.Quantity,
			UnitPrice:     in.UnitPrice,
			CustomerID:    in.CustomerID,
			CountryID:     countryID,
			InvoiceDateID: dateID,
		},
		CountryName: in.CountryName,
		InvoiceDate: in.InvoiceDate,
	}
	s.logger.Info("sale recorded",
		"salesId", salesID, "invoiceNo", in.InvoiceNo, "stockCode", in.StockCode)
	return rec, nil
}

func ensureCountry(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT country_id FROM countries WHERE country_name = $1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("lookup country: %w", err)
	}

	id = uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO countries (country_id, country_name) VALUES ($1, $2)
	`, id, name); err != nil {
		return "", fmt.Errorf("insert country: %w", err)
	}
	return id, nil
}

func ensureInvoiceDate(ctx context.Context, tx *sql.Tx, in model.NewSale) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT date_id FROM invoice_dates WHERE invoice_date = $1`, in.InvoiceDate).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("lookup invoice date: %w", err)
	}

	dim := model.NewInvoiceDate(uuid.NewString(), in.InvoiceDate)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO invoice_dates (date_id, invoice_date, year, month, day)
		VALUES ($1, $2, $3, $4, $5)
	`, dim.DateID, dim.Date, dim.Year, dim.Month, dim.Day); err != nil {
		return "", fmt.Errorf("insert invoice date: %w", err)
	}
	return dim.DateID, nil
}

const saleRecordQuery = `
	SELECT s.sales_id, s.invoice_no, s.stock_code, p.description,
	       s.quantity, s.unit_price, s.customer_id,
	       s.country_id, c.country_name,
	       s.invoice_date_id, d.invoice_date
	FROM sales s
	JOIN products p ON p.stock_code = s.stock_code
	JOIN countries c ON c.country_id = s.country_id
	JOIN invoice_dates d ON d.date_id = s.invoice_date_id
`

// ListSales returns every sale fact with its dimensions resolved, ordered by
// surrogate key. The reconciler and the in-memory view aggregation both
// consume this.
func (s *Store) ListSales(ctx context.Context) ([]model.SaleRecord, error) {
	rows, err := s.db.QueryContext(ctx, saleRecordQuery+` ORDER BY s.sales_id`)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var recs []model.SaleRecord
	for rows.Next() {
		var r model.SaleRecord
		if err := rows.Scan(
			&r.SalesID, &r.InvoiceNo, &r.StockCode, &r.Description,
			&r.Quantity, &r.UnitPrice, &r.CustomerID,
			&r.CountryID, &r.CountryName,
			&r.InvoiceDateID, &r.InvoiceDate,
		); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return recs, nil
}

// GetSale returns one sale fact by surrogate key.
func (s *Store) GetSale(ctx context.Context, salesID int64) (model.SaleRecord, error) {
	var r model.SaleRecord
	err := s.db.QueryRowContext(ctx, saleRecordQuery+` WHERE s.sales_id = $1`, salesID).Scan(
		&r.SalesID, &r.InvoiceNo, &r.StockCode, &r.Description,
		&r.Quantity, &r.UnitPrice, &r.CustomerID,
		&r.CountryID, &r.CountryName,
		&r.InvoiceDateID, &r.InvoiceDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return r, model.ErrSaleNotFound
	}
	if err != nil {
		return r, fmt.Errorf("get sale %d: %w", salesID, err)
	}
	return r, nil
}

// CountryName resolves a country dimension key.
func (s *Store) CountryName(ctx context.Context, countryID string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT country_name FROM countries WHERE country_id = $1`, countryID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("unknown country %q", countryID)
	}
	if err != nil {
		return "", fmt.Errorf("resolve country %q: %w", countryID, err)
	}
	return name, nil
}

// InvoiceDate resolves a date dimension key to its timestamp.
func (s *Store) InvoiceDate(ctx context.Context, dateID string) (model.InvoiceDate, error) {
	var d model.InvoiceDate
	err := s.db.QueryRowContext(ctx, `
		SELECT date_id, invoice_date, year, month, day
		FROM invoice_dates WHERE date_id = $1
	`, dateID).Scan(&d.DateID, &d.Date, &d.Year, &d.Month, &d.Day)
	if errors.Is(err, sql.ErrNoRows) {
		return d, fmt.Errorf("unknown invoice date %q", dateID)
	}
	if err != nil {
		return d, fmt.Errorf("resolve invoice date %q: %w", dateID, err)
	}
	return d, nil
}
