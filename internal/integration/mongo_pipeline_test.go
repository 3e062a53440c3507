//go:build integration

package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/osm-berlin-etl/internal/adapter/mongo"
	"github.com/couchcryptid/osm-berlin-etl/internal/adapter/osmfile"
	"github.com/couchcryptid/osm-berlin-etl/internal/config"
	"github.com/couchcryptid/osm-berlin-etl/internal/domain"
	"github.com/couchcryptid/osm-berlin-etl/internal/observability"
	"github.com/couchcryptid/osm-berlin-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func runImport(ctx context.Context, t *testing.T, cfg *config.Config, store *mongo.Store) {
	t.Helper()
	source, err := osmfile.Open(ctx, sampleExtract)
	require.NoError(t, err)
	defer source.Close()

	metrics := observability.NewMetricsForTesting()
	transformer := pipeline.NewTransformer(streetAuditors(), metrics, discardLogger())
	p := pipeline.New(source, transformer, store, discardLogger(), metrics, cfg.BatchSize)
	require.NoError(t, p.Run(ctx))
}

// TestPipelineToMongo imports the sample extract twice and checks that the
// second run upserts instead of duplicating.
func TestPipelineToMongo(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg := &config.Config{
		MongoURI:        startMongo(ctx, t),
		MongoDatabase:   "dand",
		MongoCollection: "osm_berlin",
		MongoTimeout:    10 * time.Second,
		BatchSize:       3,
	}

	store, err := mongo.Connect(ctx, cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	client, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	coll := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)

	wayID := bson.D{{Key: "_id", Value: domain.DocumentID{Type: domain.TypeWay, ID: 4711}}}

	runImport(ctx, t, cfg, store)
	_, err = coll.UpdateOne(ctx, wayID, bson.D{{Key: "$set", Value: bson.D{{Key: "stale", Value: true}}}})
	require.NoError(t, err)
	runImport(ctx, t, cfg, store)

	// The second import replaces documents whole.
	stale, err := coll.CountDocuments(ctx, bson.D{{Key: "stale", Value: bson.D{{Key: "$exists", Value: true}}}})
	require.NoError(t, err)
	assert.Zero(t, stale)

	total, err := coll.CountDocuments(ctx, bson.D{})
	require.NoError(t, err)
	assert.Equal(t, int64(8), total)

	nodes, err := coll.CountDocuments(ctx, bson.D{{Key: "_id.type", Value: "node"}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), nodes)

	var way domain.Document
	require.NoError(t, coll.FindOne(ctx, wayID).Decode(&way))
	assert.Equal(t, "Alma-Straße", way.Tags[domain.StreetKey])
	assert.Equal(t, []int64{26576015, 26576016, 26576017}, way.Nodes)

	// The text index covers corrected tag values.
	found, err := coll.CountDocuments(ctx, bson.D{{Key: "$text", Value: bson.D{{Key: "$search", Value: "Musterstraße"}}}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), found)

	// The partial 2dsphere index answers proximity queries over nodes.
	near := bson.D{{Key: "loc", Value: bson.D{{Key: "$nearSphere", Value: bson.D{
		{Key: "$geometry", Value: bson.D{{Key: "type", Value: "Point"}, {Key: "coordinates", Value: bson.A{13.3777, 52.5163}}}},
		{Key: "$maxDistance", Value: 100},
	}}}}, {Key: "_id.type", Value: "node"}}
	cur, err := coll.Find(ctx, near)
	require.NoError(t, err)
	var nearby []domain.Document
	require.NoError(t, cur.All(ctx, &nearby))
	require.Len(t, nearby, 1)
	assert.Equal(t, int64(26576015), nearby[0].ID.ID)

	indexes, err := coll.Indexes().ListSpecifications(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(indexes))
	for _, spec := range indexes {
		names = append(names, spec.Name)
	}
	assert.ElementsMatch(t, []string{"_id_", "element_type", "user_name", "user_id", "timestamp", "tags_text", "node_location"}, names)
}
