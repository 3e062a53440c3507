package domain

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
)

// UnclassifiedPolicy decides what happens to a tag the catalogue cannot
// classify.
type UnclassifiedPolicy string

const (
	// PolicyDrop removes the tag from the element and keeps the element.
	PolicyDrop UnclassifiedPolicy = "drop"
	// PolicyFail returns the error so the caller can skip the element.
	PolicyFail UnclassifiedPolicy = "fail"
)

// ParseUnclassifiedPolicy validates a policy name.
func ParseUnclassifiedPolicy(s string) (UnclassifiedPolicy, error) {
	switch p := UnclassifiedPolicy(s); p {
	case PolicyDrop, PolicyFail:
		return p, nil
	default:
		return "", fmt.Errorf("unknown unclassified policy %q", s)
	}
}

// AuditFunc classifies a single tag value.
type AuditFunc func(value string) (AuditResult, error)

// TagAudit records what happened to one audited tag.
type TagAudit struct {
	Result AuditResult
	// Err is set when the value could not be classified.
	Err error
}

// TagAuditor applies an AuditFunc to every tag with a given key on elements
// of the configured types, rewriting or removing tags in place.
type TagAuditor struct {
	name    string
	key     string
	types   []ElementType
	audit   AuditFunc
	policy  UnclassifiedPolicy
	removed atomic.Int64
	fixed   atomic.Int64
}

// NewTagAuditor creates a tag auditor for key on the given element types.
func NewTagAuditor(name, key string, types []ElementType, audit AuditFunc, policy UnclassifiedPolicy) *TagAuditor {
	return &TagAuditor{
		name:   name,
		key:    key,
		types:  types,
		audit:  audit,
		policy: policy,
	}
}

// NewStreetNameAuditor audits addr:street on nodes, ways and relations.
func NewStreetNameAuditor(auditor *StreetAuditor, policy UnclassifiedPolicy) *TagAuditor {
	return NewCachedStreetNameAuditor(auditor, policy, 0)
}

// NewCachedStreetNameAuditor is NewStreetNameAuditor with an LRU cache of up
// to cacheSize audited values in front of auditor.
func NewCachedStreetNameAuditor(auditor *StreetAuditor, policy UnclassifiedPolicy, cacheSize int) *TagAuditor {
	return NewTagAuditor("StreetNameAuditor", StreetKey,
		[]ElementType{TypeNode, TypeWay, TypeRelation}, CachedAudit(auditor.Audit, cacheSize), policy)
}

// AttributesRemoved returns how many tags were dropped so far.
func (a *TagAuditor) AttributesRemoved() int64 { return a.removed.Load() }

// AttributesCorrected returns how many tag values were rewritten so far.
// This includes valid names whose stored bytes changed when they were
// trimmed or NFC-normalised, although those audit as OutcomeValid.
func (a *TagAuditor) AttributesCorrected() int64 { return a.fixed.Load() }

// Audit checks the matching tags of el. Valid values are replaced by their
// canonical form, corrections are written back and rejected tags removed.
// Every value whose bytes change counts towards AttributesCorrected.
// Under PolicyFail the first unclassified value aborts with its error and
// leaves el unchanged.
func (a *TagAuditor) Audit(el *Element) ([]TagAudit, error) {
	if !slices.Contains(a.types, el.Type) {
		return nil, nil
	}
	if _, ok := el.Tag(a.key); !ok {
		return nil, nil
	}

	var audits []TagAudit
	kept := make([]Tag, 0, len(el.Tags))
	var fixed, removed int64

	for _, tag := range el.Tags {
		if tag.Key != a.key {
			kept = append(kept, tag)
			continue
		}

		res, err := a.audit(tag.Value)
		if err != nil {
			if a.policy == PolicyFail || !errors.Is(err, ErrUnclassifiedName) {
				return nil, fmt.Errorf("%s: %s: %w", a.name, el.Key(), err)
			}
			audits = append(audits, TagAudit{Result: AuditResult{Original: tag.Value}, Err: err})
			removed++
			continue
		}

		audits = append(audits, TagAudit{Result: res})
		if res.Outcome == OutcomeRejected {
			removed++
			continue
		}
		if res.Name != tag.Value {
			fixed++
		}
		tag.Value = res.Name
		kept = append(kept, tag)
	}

	el.Tags = kept
	a.fixed.Add(fixed)
	a.removed.Add(removed)
	return audits, nil
}

func (a *TagAuditor) String() string {
	return fmt.Sprintf("%s: corrected %d, removed %d", a.name, a.AttributesCorrected(), a.AttributesRemoved())
}
