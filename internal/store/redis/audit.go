package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"salesync/pkg/model"
)

// auditKey is the per-fact blob key namespace.
func auditKey(saleID string) string {
	return "sale:" + saleID
}

// PutAuditSale appends a fact snapshot under its synthetic blob identifier.
// Audit blobs never expire.
func (s *Store) PutAuditSale(ctx context.Context, a model.AuditSale) error {
	blob, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode audit sale %s: %w", a.SaleID, err)
	}
	if err := s.SetBlob(ctx, auditKey(a.SaleID), blob, 0); err != nil {
		return fmt.Errorf("put audit sale %s: %w", a.SaleID, err)
	}
	return nil
}

// GetAuditSale reads a fact snapshot by blob identifier. An absent or
// undecodable blob returns nil without error; callers treat both as "no
// usable snapshot" and rewrite.
func (s *Store) GetAuditSale(ctx context.Context, saleID string) (*model.AuditSale, error) {
	blob, found, err := s.GetBlob(ctx, auditKey(saleID))
	if err != nil {
		return nil, fmt.Errorf("get audit sale %s: %w", saleID, err)
	}
	if !found {
		return nil, nil
	}
	var a model.AuditSale
	if err := json.Unmarshal(blob, &a); err != nil {
		s.logger.Warn("discarding undecodable audit blob", "saleId", saleID, "error", err)
		return nil, nil
	}
	return &a, nil
}
