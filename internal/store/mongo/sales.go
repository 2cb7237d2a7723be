package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"salesync/pkg/model"
)

// EnsureIndexes creates the secondary indexes on the sales collection's
// natural key and the fields the views group on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "invoiceNo", Value: 1}}},
		{Keys: bson.D{{Key: "customerId", Value: 1}}},
		{Keys: bson.D{{Key: "stockCode", Value: 1}}},
		{Keys: bson.D{{Key: "countryName", Value: 1}}},
		{Keys: bson.D{{Key: "invoiceDate", Value: 1}}},
	}
	if _, err := s.sales.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("ensure sales indexes: %w", err)
	}
	return nil
}

// UpsertSale writes the denormalized copy of a sale, keyed by invoice
// number. Repeated writes for the same invoice are idempotent last-write-wins
// updates.
func (s *Store) UpsertSale(ctx context.Context, rec model.SaleRecord) error {
	filter := bson.M{"invoiceNo": rec.InvoiceNo}
	update := bson.M{
		"$set": bson.M{
			"invoiceNo":   rec.InvoiceNo,
			"stockCode":   rec.StockCode,
			"quantity":    rec.Quantity,
			"unitPrice":   rec.UnitPrice,
			"customerId":  rec.CustomerID,
			"countryName": rec.CountryName,
			"invoiceDate": rec.InvoiceDate,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.sales.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("upsert sale %s: %w", rec.InvoiceNo, err)
	}
	return nil
}

// FindSaleByInvoice returns the denormalized record for an invoice number,
// or model.ErrSaleNotFound.
func (s *Store) FindSaleByInvoice(ctx context.Context, invoiceNo string) (model.DocumentSale, error) {
	var doc model.DocumentSale
	err := s.sales.FindOne(ctx, bson.M{"invoiceNo": invoiceNo}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, model.ErrSaleNotFound
	}
	if err != nil {
		return doc, fmt.Errorf("find sale %s: %w", invoiceNo, err)
	}
	return doc, nil
}
