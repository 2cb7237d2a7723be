package datasync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"salesync/internal/config"
	"salesync/pkg/model"
)

// Reconciler periodically re-derives the document and cache stores from the
// fact store and rewrites any record that is missing or divergent. It is the
// only correctness backstop against lost propagation, and is safe to run
// concurrently with live propagation since every write is an idempotent
// upsert.
type Reconciler struct {
	facts  FactSource
	docs   DocumentStore
	audit  AuditStore
	cfg    config.SyncConfig
	logger *slog.Logger

	mu          sync.RWMutex
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	lastRunTime time.Time
}

// NewReconciler wires the reconciler with the configured cadence.
func NewReconciler(facts FactSource, docs DocumentStore, audit AuditStore, cfg config.SyncConfig, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		facts:  facts,
		docs:   docs,
		audit:  audit,
		cfg:    cfg,
		logger: logger.With("component", "reconciler"),
	}
}

// Start launches the reconciliation loop. The first tick runs after the
// configured initial delay, not immediately.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.runLoop(loopCtx)

	r.logger.Info("reconciler started",
		"initialDelay", r.cfg.InitialDelay,
		"interval", r.cfg.Interval)
	return nil
}

// Stop cancels the loop and waits for an in-flight tick to finish.
func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}

	if r.cancel != nil {
		r.cancel()
	}
	r.running = false
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("reconciler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active.
func (r *Reconciler) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// LastRunTime is the start time of the most recent tick.
func (r *Reconciler) LastRunTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastRunTime
}

func (r *Reconciler) runLoop(ctx context.Context) {
	defer r.wg.Done()

	delay := time.NewTimer(r.cfg.InitialDelay)
	defer delay.Stop()
	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}
	r.ReconcileOnce(ctx)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.ReconcileOnce(ctx)
		}
	}
}

// ReconcileOnce runs a single reconciliation tick: load every fact, heal the
// document copy, refresh the audit blob. Per-record failures are logged and
// never abort the tick.
func (r *Reconciler) ReconcileOnce(ctx context.Context) {
	r.mu.Lock()
	r.lastRunTime = time.Now()
	r.mu.Unlock()

	start := time.Now()
	recs, err := r.listFacts(ctx)
	if err != nil {
		r.logger.Error("reconciliation skipped, fact load failed", "error", err)
		return
	}

	var docsUpserted, docsSkipped, blobsWritten, blobsSkipped, failed int
	for _, rec := range recs {
		if ctx.Err() != nil {
			return
		}

		switch healed, err := r.reconcileDocument(ctx, rec); {
		case err != nil:
			r.logger.Error("document reconciliation failed",
				"invoiceNo", rec.InvoiceNo, "error", err)
			failed++
		case healed:
			docsUpserted++
		default:
			docsSkipped++
		}

		switch written, err := r.reconcileAudit(ctx, rec); {
		case err != nil:
			r.logger.Error("cache reconciliation failed",
				"salesId", rec.SalesID, "error", err)
			failed++
		case written:
			blobsWritten++
		default:
			blobsSkipped++
		}
	}

	r.logger.Info("reconciliation tick finished",
		"facts", len(recs),
		"docsUpserted", docsUpserted,
		"docsSkipped", docsSkipped,
		"blobsWritten", blobsWritten,
		"blobsSkipped", blobsSkipped,
		"failed", failed,
		"elapsed", time.Since(start))
}

func (r *Reconciler) listFacts(ctx context.Context) ([]model.SaleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.OpTimeout)
	defer cancel()
	return r.facts.ListSales(ctx)
}

// reconcileDocument upserts the denormalized copy when it is missing or
// disagrees with the fact on any healed field.
func (r *Reconciler) reconcileDocument(ctx context.Context, rec model.SaleRecord) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.OpTimeout)
	defer cancel()

	doc, err := r.docs.FindSaleByInvoice(ctx, rec.InvoiceNo)
	if err != nil && !errors.Is(err, model.ErrSaleNotFound) {
		return false, err
	}
	if err == nil && doc.Matches(rec) {
		return false, nil
	}

	if err := r.docs.UpsertSale(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}

// reconcileAudit mirrors the propagator's append-only behavior: a fresh
// synthetic key per tick. The lookup under the fresh key can never find an
// earlier blob, so the comparison never suppresses a write in practice; it
// is kept because the write is skipped if a matching blob somehow exists.
func (r *Reconciler) reconcileAudit(ctx context.Context, rec model.SaleRecord) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.OpTimeout)
	defer cancel()

	saleID := uuid.NewString()
	existing, err := r.audit.GetAuditSale(ctx, saleID)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.Matches(rec.Sale) {
		return false, nil
	}

	if err := r.audit.PutAuditSale(ctx, model.NewAuditSale(saleID, rec.Sale)); err != nil {
		return false, err
	}
	return true, nil
}
