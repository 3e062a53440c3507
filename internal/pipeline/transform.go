package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/couchcryptid/osm-berlin-etl/internal/domain"
	"github.com/couchcryptid/osm-berlin-etl/internal/observability"
)

const outcomeUnclassified = "unclassified"

// ElementTransformer implements Transformer by running the tag auditors over
// an element and converting the result into a document.
type ElementTransformer struct {
	auditors []*domain.TagAuditor
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewTransformer creates an ElementTransformer. Auditors run in order.
func NewTransformer(auditors []*domain.TagAuditor, metrics *observability.Metrics, logger *slog.Logger) *ElementTransformer {
	return &ElementTransformer{
		auditors: auditors,
		metrics:  metrics,
		logger:   logger,
	}
}

func (t *ElementTransformer) Transform(_ context.Context, el domain.Element) (domain.Document, error) {
	el.Tags = append([]domain.Tag(nil), el.Tags...)

	for _, a := range t.auditors {
		audits, err := a.Audit(&el)
		if err != nil {
			if errors.Is(err, domain.ErrUnclassifiedName) {
				t.metrics.StreetAudits.WithLabelValues(outcomeUnclassified).Inc()
			}
			return domain.Document{}, err
		}
		t.record(el, audits)
	}

	return domain.ToDocument(&el), nil
}

func (t *ElementTransformer) record(el domain.Element, audits []domain.TagAudit) {
	for _, audit := range audits {
		if audit.Err != nil {
			t.metrics.StreetAudits.WithLabelValues(outcomeUnclassified).Inc()
			t.logger.Debug("dropped unclassified tag", "element", el.Key(), "value", audit.Result.Original)
			continue
		}
		t.metrics.StreetAudits.WithLabelValues(audit.Result.Outcome.String()).Inc()
		if audit.Result.Outcome == domain.OutcomeCorrected {
			t.logger.Debug("corrected tag", "element", el.Key(),
				"from", audit.Result.Original, "to", audit.Result.Name)
		}
	}
}

// String summarizes every auditor, one per line.
func (t *ElementTransformer) String() string {
	lines := make([]string, len(t.auditors))
	for i, a := range t.auditors {
		lines[i] = a.String()
	}
	return strings.Join(lines, "\n")
}
