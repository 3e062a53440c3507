// Package mongo persists element documents into a MongoDB collection.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/couchcryptid/osm-berlin-etl/internal/config"
	"github.com/couchcryptid/osm-berlin-etl/internal/domain"
)

// Store upserts documents into the configured collection.
// It implements pipeline.BatchLoader.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
	logger     *slog.Logger
}

// Connect opens a client, verifies the server is reachable and ensures the
// collection indexes exist.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetTimeout(cfg.MongoTimeout).
		SetAppName("osm-berlin-etl")

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	s := &Store{
		client:     client,
		collection: client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection),
		timeout:    cfg.MongoTimeout,
		logger:     logger,
	}

	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

// EnsureIndexes creates the query indexes. Creating an index that already
// exists with the same definition is a no-op.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	names, err := s.collection.Indexes().CreateMany(ctx, IndexModels())
	if err != nil {
		return fmt.Errorf("create indexes on %s: %w", s.collection.Name(), err)
	}
	s.logger.Info("mongo indexes ready", "collection", s.collection.Name(), "indexes", names)
	return nil
}

// LoadBatch upserts the documents by _id in one unordered bulk write. Each
// document replaces the stored one whole, so fields a re-import no longer
// carries are removed rather than merged.
func (s *Store) LoadBatch(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	res, err := s.collection.BulkWrite(ctx, upsertModels(docs), options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("bulk upsert %d documents: %w", len(docs), err)
	}
	s.logger.Debug("batch upserted",
		"collection", s.collection.Name(),
		"upserted", res.UpsertedCount,
		"modified", res.ModifiedCount,
		"matched", res.MatchedCount,
	)
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// IndexModels lists the secondary indexes of the element collection.
func IndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "_id.type", Value: 1}},
			Options: options.Index().SetName("element_type"),
		},
		{
			Keys:    bson.D{{Key: "user.name", Value: 1}},
			Options: options.Index().SetName("user_name"),
		},
		{
			Keys:    bson.D{{Key: "user.id", Value: 1}},
			Options: options.Index().SetName("user_id"),
		},
		{
			Keys:    bson.D{{Key: "t", Value: 1}},
			Options: options.Index().SetName("timestamp"),
		},
		{
			Keys:    bson.D{{Key: "tag_keys", Value: "text"}, {Key: "tag_values", Value: "text"}},
			Options: options.Index().SetName("tags_text"),
		},
		{
			Keys: bson.D{{Key: "loc", Value: "2dsphere"}},
			Options: options.Index().
				SetName("node_location").
				SetPartialFilterExpression(bson.D{{Key: "_id.type", Value: string(domain.TypeNode)}}),
		},
	}
}

func upsertModels(docs []domain.Document) []mongo.WriteModel {
	models := make([]mongo.WriteModel, len(docs))
	for i := range docs {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: docs[i].ID}}).
			SetReplacement(docs[i]).
			SetUpsert(true)
	}
	return models
}
