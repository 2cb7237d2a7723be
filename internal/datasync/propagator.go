// Package datasync keeps the document and cache stores in agreement with the
// relational store of record: synchronous write propagation after each fact
// commit, and a periodic reconciler that re-derives the secondary stores and
// heals drift.
package datasync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"salesync/pkg/model"
)

// FactSource is the relational store's read side consumed by the reconciler.
type FactSource interface {
	ListSales(ctx context.Context) ([]model.SaleRecord, error)
}

// DocumentStore is the denormalized copy's write and lookup surface.
type DocumentStore interface {
	UpsertSale(ctx context.Context, rec model.SaleRecord) error
	FindSaleByInvoice(ctx context.Context, invoiceNo string) (model.DocumentSale, error)
}

// AuditStore holds the per-fact blobs in the cache store.
type AuditStore interface {
	PutAuditSale(ctx context.Context, a model.AuditSale) error
	GetAuditSale(ctx context.Context, saleID string) (*model.AuditSale, error)
}

// Propagator copies a committed fact into the document and cache stores.
// The two writes are independent failure domains: either, both or neither
// may succeed, and a failure never rolls back the fact. Missed propagation
// is healed by the reconciler.
type Propagator struct {
	docs      DocumentStore
	audit     AuditStore
	opTimeout time.Duration
	logger    *slog.Logger
}

// NewPropagator wires the propagator. Each store call is bounded by
// opTimeout.
func NewPropagator(docs DocumentStore, audit AuditStore, opTimeout time.Duration, logger *slog.Logger) *Propagator {
	return &Propagator{
		docs:      docs,
		audit:     audit,
		opTimeout: opTimeout,
		logger:    logger.With("component", "propagator"),
	}
}

// Propagate upserts the denormalized copy by invoice number and appends a
// fresh synthetic-keyed audit blob. Per-store failures are logged and joined
// into the returned error; callers are free to ignore it, the fact store
// write stands either way.
func (p *Propagator) Propagate(ctx context.Context, rec model.SaleRecord) error {
	var errs []error

	if err := p.upsertDocument(ctx, rec); err != nil {
		p.logger.Error("document propagation failed",
			"invoiceNo", rec.InvoiceNo, "error", err)
		errs = append(errs, fmt.Errorf("document store: %w", err))
	}

	// Append-only: every propagation of the same logical sale lands under a
	// new sale:<uuid> key instead of overwriting the previous blob.
	if err := p.appendAudit(ctx, uuid.NewString(), rec.Sale); err != nil {
		p.logger.Error("cache propagation failed",
			"invoiceNo", rec.InvoiceNo, "error", err)
		errs = append(errs, fmt.Errorf("cache store: %w", err))
	}

	return errors.Join(errs...)
}

func (p *Propagator) upsertDocument(ctx context.Context, rec model.SaleRecord) error {
	ctx, cancel := context.WithTimeout(ctx, p.opTimeout)
	defer cancel()
	return p.docs.UpsertSale(ctx, rec)
}

func (p *Propagator) appendAudit(ctx context.Context, saleID string, s model.Sale) error {
	ctx, cancel := context.WithTimeout(ctx, p.opTimeout)
	defer cancel()
	return p.audit.PutAuditSale(ctx, model.NewAuditSale(saleID, s))
}
