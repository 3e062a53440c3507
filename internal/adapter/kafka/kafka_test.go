package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/osm-berlin-etl/internal/config"
	"github.com/couchcryptid/osm-berlin-etl/internal/domain"
	"github.com/paulmach/orb"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC)
	doc := domain.Document{
		ID:         domain.DocumentID{Type: domain.TypeNode, ID: 26576015},
		Time:       time.Date(2015, 11, 15, 9, 51, 47, 0, time.UTC),
		User:       domain.DocumentUser{Name: "mapper", ID: "4711"},
		Loc:        &domain.GeoPoint{Type: "Point", Coordinates: orb.Point{13.3777, 52.5163}},
		Tags:       map[string]string{"addr:street": "Unter den Linden"},
		TagKeys:    []string{"addr:street"},
		TagValues:  "Unter den Linden",
		ImportedAt: now,
	}

	msg, err := serializeToMessage(&doc)
	require.NoError(t, err)

	assert.Equal(t, []byte("node/26576015"), msg.Key)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "element_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("node"), msg.Headers[0].Value)
	assert.Equal(t, "imported_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, map[string]any{"type": "node", "id": float64(26576015)}, body["_id"])
	assert.Equal(t, map[string]any{"type": "Point", "coordinates": []any{13.3777, 52.5163}}, body["loc"])
	assert.Equal(t, "Unter den Linden", body["tag_values"])
	assert.NotContains(t, body, "nodes")
	assert.NotContains(t, body, "members")
}

func TestSerializeToMessage_Way(t *testing.T) {
	doc := domain.Document{
		ID:    domain.DocumentID{Type: domain.TypeWay, ID: 4711},
		Nodes: []int64{1, 2, 3},
	}

	msg, err := serializeToMessage(&doc)
	require.NoError(t, err)
	assert.Equal(t, []byte("way/4711"), msg.Key)
	assert.Equal(t, []byte("way"), msg.Headers[0].Value)
	assert.Contains(t, string(msg.Value), `"nodes":[1,2,3]`)
	assert.NotContains(t, string(msg.Value), `"loc"`)
}

func TestNewWriter(t *testing.T) {
	cfg := &config.Config{
		KafkaBrokers:   []string{"broker1:9092", "broker2:9092"},
		KafkaSinkTopic: "osm-berlin-elements",
		BatchSize:      250,
	}
	w := NewWriter(cfg, slog.Default())
	t.Cleanup(func() { w.Close() })

	assert.Equal(t, "osm-berlin-elements", w.writer.Topic)
	assert.Equal(t, 250, w.writer.BatchSize)
	assert.IsType(t, &kafkago.Hash{}, w.writer.Balancer)
	assert.Equal(t, kafkago.RequireAll, w.writer.RequiredAcks)
}

func TestLoadBatch_Empty(t *testing.T) {
	w := NewWriter(&config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaSinkTopic: "t"}, slog.Default())
	t.Cleanup(func() { w.Close() })

	require.NoError(t, w.LoadBatch(context.Background(), nil))
}
