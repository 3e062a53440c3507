package domain

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// RuleSet is the street-name catalogue. It is immutable once built and may be
// shared across goroutines without locking.
type RuleSet struct {
	knownValid  map[string]struct{}
	notAStreet  map[string]struct{}
	corrections map[string]string
	patterns    []*regexp.Regexp
}

// NewRuleSet compiles a catalogue. Patterns are anchored to the whole name.
func NewRuleSet(knownValid, notAStreet []string, corrections map[string]string, patterns []string) (*RuleSet, error) {
	rs := &RuleSet{
		knownValid:  toSet(knownValid),
		notAStreet:  toSet(notAStreet),
		corrections: maps.Clone(corrections),
		patterns:    make([]*regexp.Regexp, 0, len(patterns)),
	}
	if rs.corrections == nil {
		rs.corrections = map[string]string{}
	}
	for i, p := range patterns {
		re, err := compileAnchored(p)
		if err != nil {
			return nil, fmt.Errorf("street pattern %d: %w", i, err)
		}
		rs.patterns = append(rs.patterns, re)
	}
	return rs, nil
}

// Extend returns a new RuleSet with the extension's entries added. The
// receiver is left untouched. Extension patterns are checked after the
// existing ones.
func (rs *RuleSet) Extend(ext RuleExtension) (*RuleSet, error) {
	valid := append(rs.KnownValid(), ext.KnownValid...)
	notStreet := append(rs.NotAStreet(), ext.NotAStreet...)

	corrections := maps.Clone(rs.corrections)
	maps.Copy(corrections, ext.Corrections)

	out, err := NewRuleSet(valid, notStreet, corrections, nil)
	if err != nil {
		return nil, err
	}
	out.patterns = slices.Clone(rs.patterns)
	for i, p := range ext.Patterns {
		re, err := compileAnchored(p)
		if err != nil {
			return nil, fmt.Errorf("extension pattern %d: %w", i, err)
		}
		out.patterns = append(out.patterns, re)
	}
	return out, nil
}

func (rs *RuleSet) IsKnownValid(name string) bool {
	_, ok := rs.knownValid[name]
	return ok
}

func (rs *RuleSet) IsNotAStreet(name string) bool {
	_, ok := rs.notAStreet[name]
	return ok
}

// Correction returns the exact-match fix for name, if any.
func (rs *RuleSet) Correction(name string) (string, bool) {
	fixed, ok := rs.corrections[name]
	return fixed, ok
}

// MatchesPattern reports whether any accepted name shape matches.
func (rs *RuleSet) MatchesPattern(name string) bool {
	for _, re := range rs.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// KnownValid returns the verbatim exceptions in sorted order.
func (rs *RuleSet) KnownValid() []string {
	return slices.Sorted(maps.Keys(rs.knownValid))
}

// NotAStreet returns the known non-street names in sorted order.
func (rs *RuleSet) NotAStreet() []string {
	return slices.Sorted(maps.Keys(rs.notAStreet))
}

// Corrections returns a copy of the exact-match fixes.
func (rs *RuleSet) Corrections() map[string]string {
	return maps.Clone(rs.corrections)
}

// PatternCount returns the number of accepted name shapes.
func (rs *RuleSet) PatternCount() int {
	return len(rs.patterns)
}

func compileAnchored(p string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + unicodeSpaces(p) + `)$`)
}

// unicodeSpaces widens every \s in p to Unicode separators. RE2's \s is
// ASCII-only, but OSM names carry no-break and thin spaces.
func unicodeSpaces(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	inClass := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '\\' && i+1 < len(p):
			i++
			switch {
			case p[i] != 's':
				b.WriteByte(c)
				b.WriteByte(p[i])
			case inClass:
				b.WriteString(`\s\p{Z}`)
			default:
				b.WriteString(`[\s\p{Z}]`)
			}
		case c == '[' && !inClass:
			inClass = true
			b.WriteByte(c)
			if i+1 < len(p) && p[i+1] == '^' {
				i++
				b.WriteByte('^')
			}
			if i+1 < len(p) && p[i+1] == ']' {
				i++
				b.WriteByte(']')
			}
		case c == '[' && inClass && i+1 < len(p) && p[i+1] == ':':
			// [:alpha:] inside a class.
			end := strings.Index(p[i:], ":]")
			if end < 0 {
				b.WriteByte(c)
				continue
			}
			b.WriteString(p[i : i+end+2])
			i += end + 1
		case c == ']' && inClass:
			inClass = false
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}
