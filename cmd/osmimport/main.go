package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/osm-berlin-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/osm-berlin-etl/internal/adapter/kafka"
	mongoadapter "github.com/couchcryptid/osm-berlin-etl/internal/adapter/mongo"
	"github.com/couchcryptid/osm-berlin-etl/internal/adapter/osmfile"
	"github.com/couchcryptid/osm-berlin-etl/internal/config"
	"github.com/couchcryptid/osm-berlin-etl/internal/domain"
	"github.com/couchcryptid/osm-berlin-etl/internal/observability"
	"github.com/couchcryptid/osm-berlin-etl/internal/pipeline"
)

// sink is a BatchLoader that must be released on shutdown.
type sink struct {
	pipeline.BatchLoader
	close func(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rules, err := domain.LoadRuleSet(cfg.StreetRulesFile)
	if err != nil {
		return err
	}
	auditor := domain.NewCachedStreetNameAuditor(domain.NewStreetAuditor(rules), cfg.UnclassifiedPolicy, cfg.AuditCacheSize)
	logger.Info("street rules loaded",
		"file", cfg.StreetRulesFile,
		"patterns", rules.PatternCount(),
		"policy", cfg.UnclassifiedPolicy,
		"cache_size", cfg.AuditCacheSize,
	)

	opts := []osmfile.Option{
		osmfile.WithReadObserver(func(n int) { metrics.InputBytesRead.Add(float64(n)) }),
	}
	if cfg.ShowProgress {
		opts = append(opts, osmfile.WithProgress(os.Stderr))
	}
	source, err := osmfile.Open(ctx, cfg.OSMFile, opts...)
	if err != nil {
		return err
	}
	defer source.Close()
	header := source.Header()
	logger.Info("osm extract opened", "file", cfg.OSMFile, "version", header.Version, "generator", header.Generator)

	out, err := openSink(ctx, cfg, logger)
	if err != nil {
		return err
	}

	transformer := pipeline.NewTransformer([]*domain.TagAuditor{auditor}, metrics, logger)
	p := pipeline.New(source, transformer, out, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run returns at the end of the input or once a signal cancels ctx.
	runErr := p.Run(ctx)
	logger.Info("shutting down", "status", p.Status())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := out.close(shutdownCtx); err != nil {
		logger.Error("sink close error", "sink", cfg.Sink, "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}

func openSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sink, error) {
	switch cfg.Sink {
	case config.SinkMongo:
		store, err := mongoadapter.Connect(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("mongo sink ready", "database", cfg.MongoDatabase, "collection", cfg.MongoCollection)
		return &sink{BatchLoader: store, close: store.Close}, nil
	case config.SinkKafka:
		writer := kafkaadapter.NewWriter(cfg, logger)
		logger.Info("kafka sink ready", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
		return &sink{BatchLoader: writer, close: func(context.Context) error { return writer.Close() }}, nil
	default:
		return nil, fmt.Errorf("unsupported sink %q", cfg.Sink)
	}
}
