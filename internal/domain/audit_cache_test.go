package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingAudit counts calls into the wrapped auditor.
type countingAudit struct {
	calls   map[string]int
	auditor *StreetAuditor
}

func newCountingAudit() *countingAudit {
	return &countingAudit{calls: make(map[string]int), auditor: NewStreetAuditor(nil)}
}

func (c *countingAudit) audit(value string) (AuditResult, error) {
	c.calls[value]++
	return c.auditor.Audit(value)
}

func TestCachedAudit_Hit(t *testing.T) {
	inner := newCountingAudit()
	audit := CachedAudit(inner.audit, 10)

	r1, err := audit("Musterstaße")
	require.NoError(t, err)
	r2, err := audit("Musterstaße")
	require.NoError(t, err)

	assert.Equal(t, Corrected("Musterstaße", "Musterstraße"), r1)
	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls["Musterstaße"], "should only call inner once")
}

func TestCachedAudit_DifferentKeysMiss(t *testing.T) {
	inner := newCountingAudit()
	audit := CachedAudit(inner.audit, 10)

	_, _ = audit("Unter den Linden")
	_, _ = audit("Zossener Straße")

	assert.Equal(t, 1, inner.calls["Unter den Linden"])
	assert.Equal(t, 1, inner.calls["Zossener Straße"])
}

func TestCachedAudit_UnclassifiedNotCached(t *testing.T) {
	inner := newCountingAudit()
	audit := CachedAudit(inner.audit, 10)

	_, err := audit("###not a real street###")
	require.ErrorIs(t, err, ErrUnclassifiedName)
	_, err = audit("###not a real street###")
	require.ErrorIs(t, err, ErrUnclassifiedName)

	assert.Equal(t, 2, inner.calls["###not a real street###"])
}

func TestCachedAudit_Disabled(t *testing.T) {
	inner := newCountingAudit()
	audit := CachedAudit(inner.audit, 0)

	_, _ = audit("Unter den Linden")
	_, _ = audit("Unter den Linden")

	assert.Equal(t, 2, inner.calls["Unter den Linden"])
}

func TestCachedAudit_WithTagAuditor(t *testing.T) {
	inner := newCountingAudit()
	ta := NewTagAuditor("StreetNameAuditor", StreetKey, []ElementType{TypeWay},
		CachedAudit(inner.audit, 10), PolicyDrop)

	for range 3 {
		el := streetElement(TypeWay, "alma-Straße")
		_, err := ta.Audit(el)
		require.NoError(t, err)
		assert.Equal(t, "Alma-Straße", el.Tags[1].Value)
	}
	assert.Equal(t, 1, inner.calls["alma-Straße"])
	assert.Equal(t, int64(3), ta.AttributesCorrected())
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache[string, AuditResult](3)

	c.put("a", Valid("A"))
	c.put("b", Valid("B"))

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", result.Name)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache[string, int](2)

	c.put("a", 1)
	c.put("b", 2)
	c.put("c", 3) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	v, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache[string, int](2)

	c.put("a", 1)
	c.put("b", 2)

	c.get("a")

	// "b" is now least recently used.
	c.put("c", 3)

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache[string, int](2)

	c.put("a", 1)
	c.put("a", 2)

	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.len())
}
