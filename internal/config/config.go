package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/osm-berlin-etl/internal/domain"
)

// Sink selects where audited documents are written.
type Sink string

const (
	SinkMongo Sink = "mongo"
	SinkKafka Sink = "kafka"
)

const (
	minBatchSize = 1
	maxBatchSize = 5000
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	OSMFile      string
	ShowProgress bool

	Sink Sink

	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	MongoTimeout    time.Duration

	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	BatchSize int

	// Street audit configuration.
	StreetRulesFile    string
	UnclassifiedPolicy domain.UnclassifiedPolicy
	AuditCacheSize     int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mongoTimeout, err := parseDuration("MONGO_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBatchSize()
	if err != nil {
		return nil, err
	}

	policy, err := domain.ParseUnclassifiedPolicy(sharedcfg.EnvOrDefault("UNCLASSIFIED_POLICY", string(domain.PolicyDrop)))
	if err != nil {
		return nil, fmt.Errorf("invalid UNCLASSIFIED_POLICY: %w", err)
	}

	showProgress, err := parseBool("SHOW_PROGRESS", false)
	if err != nil {
		return nil, err
	}

	cacheSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("STREET_AUDIT_CACHE_SIZE", "4096"))
	if err != nil || cacheSize < 0 {
		return nil, errors.New("invalid STREET_AUDIT_CACHE_SIZE: must be a non-negative integer")
	}

	cfg := &Config{
		OSMFile:      sharedcfg.EnvOrDefault("OSM_FILE", "osm-extracts/berlin.osm.bz2"),
		ShowProgress: showProgress,

		Sink: Sink(sharedcfg.EnvOrDefault("SINK", string(SinkMongo))),

		MongoURI:        sharedcfg.EnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   sharedcfg.EnvOrDefault("MONGO_DATABASE", "dand"),
		MongoCollection: sharedcfg.EnvOrDefault("MONGO_COLLECTION", "osm_berlin"),
		MongoTimeout:    mongoTimeout,

		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "osm-berlin-elements"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		BatchSize:       batchSize,

		StreetRulesFile:    sharedcfg.EnvOrDefault("STREET_RULES_FILE", ""),
		UnclassifiedPolicy: policy,
		AuditCacheSize:     cacheSize,
	}

	switch cfg.Sink {
	case SinkMongo, SinkKafka:
	default:
		return nil, fmt.Errorf("invalid SINK %q: want mongo or kafka", cfg.Sink)
	}
	if cfg.Sink == SinkKafka && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}

	return cfg, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBatchSize() (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault("BATCH_SIZE", "500"))
	if err != nil || n < minBatchSize || n > maxBatchSize {
		return 0, fmt.Errorf("invalid BATCH_SIZE: must be between %d and %d", minBatchSize, maxBatchSize)
	}
	return n, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}
