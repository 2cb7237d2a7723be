// Package postgres implements the relational store of record for sale facts.
// Sales are normalized across a fact table and four dimension tables; the
// aggregate views are served with SQL GROUP BY where the grouping stays
// inside one table join, and via the in-memory reference aggregation where
// it does not.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"salesync/internal/config"
)

// Store wraps the relational connection pool.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to Postgres with the configured pool limits and verifies the
// connection with a ping.
func Open(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With("component", "postgres-store"),
	}, nil
}

// EnsureSchema creates the fact and dimension tables if they don't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS customers (
    customer_id   VARCHAR(64) PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS products (
    stock_code    VARCHAR(64) PRIMARY KEY,
    description   TEXT NOT NULL DEFAULT '',
    unit_price    DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS countries (
    country_id    VARCHAR(64) PRIMARY KEY,
    country_name  VARCHAR(255) NOT NULL
);

CREATE TABLE IF NOT EXISTS invoice_dates (
    date_id       VARCHAR(64) PRIMARY KEY,
    invoice_date  TIMESTAMPTZ NOT NULL,
    year          INTEGER NOT NULL,
    month         INTEGER NOT NULL,
    day           INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sales (
    sales_id        BIGSERIAL PRIMARY KEY,
    invoice_no      VARCHAR(64) NOT NULL,
    stock_code      VARCHAR(64) NOT NULL REFERENCES products(stock_code),
    quantity        BIGINT NOT NULL,
    unit_price      DOUBLE PRECISION NOT NULL,
    customer_id     VARCHAR(64) NOT NULL REFERENCES customers(customer_id),
    country_id      VARCHAR(64) NOT NULL REFERENCES countries(country_id),
    invoice_date_id VARCHAR(64) NOT NULL REFERENCES invoice_dates(date_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_countries_name ON countries(country_name);
CREATE INDEX IF NOT EXISTS idx_sales_invoice_no ON sales(invoice_no);
CREATE INDEX IF NOT EXISTS idx_sales_customer_id ON sales(customer_id);
CREATE INDEX IF NOT EXISTS idx_sales_stock_code ON sales(stock_code);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// DB exposes the underlying pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Probe checks connectivity for the health monitor.
func (s *Store) Probe(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
