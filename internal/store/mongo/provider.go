// Package mongo implements the denormalized document store: one sales
// collection keyed by invoice number with the country name resolved at write
// time, and native aggregation pipelines for the five views.
package mongo

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"salesync/internal/config"
)

// Store wraps the document database connection and the sales collection.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	sales  *mongo.Collection
	logger *slog.Logger
}

// Open connects to the document store and verifies the connection with a
// ping.
func Open(ctx context.Context, cfg config.MongoConfig, logger *slog.Logger) (*Store, error) {
	clientOpts := options.Client().ApplyURI(cfg.URI)
	if clientOpts.ConnectTimeout == nil {
		timeout := 10 * time.Second
		clientOpts.SetConnectTimeout(timeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	db := client.Database(cfg.Database)
	return &Store{
		client: client,
		db:     db,
		sales:  db.Collection(cfg.SalesCollection),
		logger: logger.With("component", "mongo-store"),
	}, nil
}

// Probe checks liveness for the health monitor by listing collection names.
func (s *Store) Probe(ctx context.Context) error {
	_, err := s.db.ListCollectionNames(ctx, bson.M{})
	return err
}

// Close disconnects from the document store.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
