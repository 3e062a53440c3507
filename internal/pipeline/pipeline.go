package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/osm-berlin-etl/internal/domain"
	"github.com/couchcryptid/osm-berlin-etl/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize elements from the source. At the end
// of the input it returns the remaining elements together with io.EOF.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.Element, error)
}

// Transformer converts an element into a document.
type Transformer interface {
	Transform(ctx context.Context, el domain.Element) (domain.Document, error)
}

// BatchLoader writes multiple documents to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, docs []domain.Document) error
}

// Pipeline orchestrates the extract-transform-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int

	state   atomic.Value // State
	read    atomic.Int64
	loaded  atomic.Int64
	skipped atomic.Int64
}

// State is the lifecycle phase of a Pipeline.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateFinished State = "finished"
	StateStopped  State = "stopped"
	StateFailed   State = "failed"
)

// Status is a point-in-time snapshot of pipeline progress.
type Status struct {
	State           State `json:"state"`
	Ready           bool  `json:"ready"`
	ElementsRead    int64 `json:"elements_read"`
	DocumentsLoaded int64 `json:"documents_loaded"`
	ElementsSkipped int64 `json:"elements_skipped"`
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
	p.state.Store(StateIdle)
	return p
}

// Status returns the current progress counters.
func (p *Pipeline) Status() Status {
	return Status{
		State:           p.state.Load().(State),
		Ready:           p.Ready(),
		ElementsRead:    p.read.Load(),
		DocumentsLoaded: p.loaded.Load(),
		ElementsSkipped: p.skipped.Load(),
	}
}

// Ready reports whether at least one batch has been loaded.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// CheckReadiness returns nil if the pipeline has loaded at least one batch,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.Ready() {
		return errors.New("pipeline has not loaded any documents yet")
	}
	return nil
}

// Run executes the batch ETL loop until the input is exhausted or the
// context is cancelled. Extraction errors are fatal; load errors are retried
// with exponential backoff.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	defer p.logSummary()
	p.state.Store(StateRunning)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			p.state.Store(StateStopped)
			return nil
		default:
		}

		more, err := p.processBatch(ctx)
		if err != nil {
			p.state.Store(StateFailed)
			return err
		}
		if !more {
			if ctx.Err() != nil {
				p.state.Store(StateStopped)
			} else {
				p.state.Store(StateFinished)
			}
			return nil
		}
	}
}

// processBatch runs one extract-transform-load cycle. It returns false when
// the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context) (bool, error) {
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	eof := errors.Is(err, io.EOF)
	if err != nil && !eof {
		if ctx.Err() != nil {
			return false, nil
		}
		return false, fmt.Errorf("extract batch: %w", err)
	}

	if len(batch) > 0 {
		p.read.Add(int64(len(batch)))
		p.metrics.ElementsRead.Add(float64(len(batch)))
		p.metrics.BatchSize.Observe(float64(len(batch)))

		loaded, ok := p.transformAndLoad(ctx, batch)
		if !ok {
			return false, nil
		}
		if loaded > 0 {
			p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
			p.ready.Store(true)
		}
	}

	if eof {
		p.logger.Info("input exhausted")
		return false, nil
	}
	return ctx.Err() == nil, nil
}

// transformAndLoad transforms each element in the batch and loads the
// successes. Elements that fail to transform are logged and skipped. It
// returns the number of loaded documents and false if the pipeline should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, batch []domain.Element) (int, bool) {
	docs := make([]domain.Document, 0, len(batch))

	for _, el := range batch {
		doc, err := p.transformer.Transform(ctx, el)
		if err != nil {
			p.logger.Warn("transform failed, skipping element",
				"error", err,
				"element", el.Key(),
			)
			p.metrics.TransformErrors.Inc()
			p.skipped.Add(1)
			continue
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return 0, true
	}

	if !p.loadWithRetry(ctx, docs) {
		return 0, false
	}

	p.loaded.Add(int64(len(docs)))
	p.metrics.DocumentsLoaded.Add(float64(len(docs)))
	return len(docs), true
}

// loadWithRetry retries the same batch until it is loaded or ctx is done.
func (p *Pipeline) loadWithRetry(ctx context.Context, docs []domain.Document) bool {
	backoff := initialBackoff
	for {
		err := p.loader.LoadBatch(ctx, docs)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(docs), "retry_in", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return false
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

func (p *Pipeline) logSummary() {
	if s, ok := p.transformer.(fmt.Stringer); ok {
		p.logger.Info("audit summary", "auditors", s.String())
	}
}
