package domain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRulesYAML = `
known_valid:
  - Am Tierpark Süd
not_a_street:
  - S-Bahnhof Westkreuz
corrections:
  Bernauer Str.: Bernauer Straße
patterns:
  - 'Kolonie\s[A-Z][a-zäöüß]+\s\d+'
`

func TestDefaultRuleSet_IsShared(t *testing.T) {
	assert.Same(t, DefaultRuleSet(), DefaultRuleSet())
	assert.Equal(t, len(streetPatterns), DefaultRuleSet().PatternCount())
}

func TestDefaultRuleSet_KleinSchoenebeckerIsValidException(t *testing.T) {
	rs := DefaultRuleSet()
	assert.True(t, rs.IsKnownValid("Klein Schönebecker Straße"))
	_, isCorrection := rs.Correction("Klein Schönebecker Straße")
	assert.False(t, isCorrection)
}

func TestNewRuleSet_PatternsAreAnchored(t *testing.T) {
	rs, err := NewRuleSet(nil, nil, nil, []string{`[A-Z][a-z]+weg`})
	require.NoError(t, err)

	assert.True(t, rs.MatchesPattern("Buchholzweg"))
	assert.False(t, rs.MatchesPattern("Buchholzweg 12"))
	assert.False(t, rs.MatchesPattern("am Buchholzweg"))
}

func TestNewRuleSet_CaseSensitive(t *testing.T) {
	rs, err := NewRuleSet(nil, nil, nil, []string{`Am\s[A-Z][a-zäöüß]+`})
	require.NoError(t, err)

	assert.True(t, rs.MatchesPattern("Am Anger"))
	assert.False(t, rs.MatchesPattern("am anger"))
}

func TestNewRuleSet_InvalidPattern(t *testing.T) {
	_, err := NewRuleSet(nil, nil, nil, []string{`(unclosed`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "street pattern 0")
}

func TestNewRuleSet_CopiesInputs(t *testing.T) {
	corrections := map[string]string{"a": "b"}
	rs, err := NewRuleSet(nil, nil, corrections, nil)
	require.NoError(t, err)

	corrections["a"] = "changed"
	fixed, ok := rs.Correction("a")
	assert.True(t, ok)
	assert.Equal(t, "b", fixed)

	rs.Corrections()["a"] = "changed again"
	fixed, _ = rs.Correction("a")
	assert.Equal(t, "b", fixed)
}

func TestParseRuleExtension(t *testing.T) {
	ext, err := ParseRuleExtension(strings.NewReader(testRulesYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"Am Tierpark Süd"}, ext.KnownValid)
	assert.Equal(t, []string{"S-Bahnhof Westkreuz"}, ext.NotAStreet)
	assert.Equal(t, map[string]string{"Bernauer Str.": "Bernauer Straße"}, ext.Corrections)
	assert.Len(t, ext.Patterns, 1)
}

func TestParseRuleExtension_Empty(t *testing.T) {
	ext, err := ParseRuleExtension(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, ext.KnownValid)
}

func TestParseRuleExtension_UnknownField(t *testing.T) {
	_, err := ParseRuleExtension(strings.NewReader("known_valids:\n  - x\n"))
	require.Error(t, err)
}

func TestRuleSet_Extend(t *testing.T) {
	ext, err := ParseRuleExtension(strings.NewReader(testRulesYAML))
	require.NoError(t, err)

	base := DefaultRuleSet()
	extended, err := base.Extend(ext)
	require.NoError(t, err)

	a := NewStreetAuditor(extended)

	res, err := a.Audit("Am Tierpark Süd")
	require.NoError(t, err)
	assert.Equal(t, Valid("Am Tierpark Süd"), res)

	res, err = a.Audit("S-Bahnhof Westkreuz")
	require.NoError(t, err)
	assert.Equal(t, Rejected("S-Bahnhof Westkreuz"), res)

	res, err = a.Audit("Bernauer Str.")
	require.NoError(t, err)
	assert.Equal(t, Corrected("Bernauer Str.", "Bernauer Straße"), res)

	res, err = a.Audit("Kolonie Eigenheim 3")
	require.NoError(t, err)
	assert.Equal(t, Valid("Kolonie Eigenheim 3"), res)

	// The default catalogue is untouched.
	assert.False(t, base.IsKnownValid("Am Tierpark Süd"))
	assert.Equal(t, base.PatternCount()+1, extended.PatternCount())
	_, err = NewStreetAuditor(base).Audit("Kolonie Eigenheim 3")
	assert.ErrorIs(t, err, ErrUnclassifiedName)
}

func TestLoadRuleSet(t *testing.T) {
	t.Run("empty path uses defaults", func(t *testing.T) {
		rs, err := LoadRuleSet("")
		require.NoError(t, err)
		assert.Same(t, DefaultRuleSet(), rs)
	})

	t.Run("file extends defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte(testRulesYAML), 0o600))

		rs, err := LoadRuleSet(path)
		require.NoError(t, err)
		assert.True(t, rs.IsKnownValid("Am Tierpark Süd"))
		assert.True(t, rs.IsKnownValid("Hanne Nüte"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRuleSet(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}
