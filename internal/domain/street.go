package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// StreetKey is the OSM tag key holding the street part of an address.
const StreetKey = "addr:street"

// Outcome classifies the result of a street-name audit.
type Outcome int

// The zero Outcome is OutcomeUnknown, so an AuditResult returned alongside
// an error never reads as valid.
const (
	OutcomeUnknown Outcome = iota
	OutcomeValid
	OutcomeCorrected
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnknown:
		return "unknown"
	case OutcomeValid:
		return "valid"
	case OutcomeCorrected:
		return "corrected"
	case OutcomeRejected:
		return "rejected"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// AuditResult is the outcome of auditing one street name.
// Name is the accepted or corrected name and is empty for rejections.
type AuditResult struct {
	Outcome  Outcome
	Original string
	Name     string
}

// Valid reports a name that passed the catalogue as-is.
func Valid(name string) AuditResult {
	return AuditResult{Outcome: OutcomeValid, Original: name, Name: name}
}

// Corrected reports a name that was fixed deterministically.
func Corrected(original, corrected string) AuditResult {
	return AuditResult{Outcome: OutcomeCorrected, Original: original, Name: corrected}
}

// Rejected reports a name that does not denote a street.
func Rejected(original string) AuditResult {
	return AuditResult{Outcome: OutcomeRejected, Original: original}
}

// ErrUnclassifiedName matches any *UnclassifiedNameError via errors.Is.
var ErrUnclassifiedName = errors.New("unclassified street name")

// UnclassifiedNameError is returned when no rule of the catalogue covers a name.
type UnclassifiedNameError struct {
	Name string
}

func (e *UnclassifiedNameError) Error() string {
	return fmt.Sprintf("no rule matches street name %q", e.Name)
}

func (e *UnclassifiedNameError) Is(target error) bool {
	return target == ErrUnclassifiedName
}

// StreetAuditor classifies and corrects street names against a RuleSet.
// It holds no mutable state and is safe for concurrent use.
type StreetAuditor struct {
	rules *RuleSet
}

// NewStreetAuditor creates an auditor. A nil rule set selects DefaultRuleSet.
func NewStreetAuditor(rules *RuleSet) *StreetAuditor {
	if rules == nil {
		rules = DefaultRuleSet()
	}
	return &StreetAuditor{rules: rules}
}

// Audit classifies a raw addr:street value. The checks run in a fixed
// order and the first decisive one wins; see the package documentation.
func (a *StreetAuditor) Audit(raw string) (AuditResult, error) {
	name := canonicalName(raw)
	if name == "" {
		return Rejected(name), nil
	}

	if a.rules.IsKnownValid(name) {
		return Valid(name), nil
	}
	if a.rules.IsNotAStreet(name) {
		return Rejected(name), nil
	}

	if fixed, ok := a.mechanicalFix(name); ok {
		return Corrected(name, fixed), nil
	}

	if a.rules.MatchesPattern(name) {
		return Valid(name), nil
	}

	return AuditResult{}, &UnclassifiedNameError{Name: name}
}

// mechanicalFix applies the cheap typo repairs in order.
func (a *StreetAuditor) mechanicalFix(name string) (string, bool) {
	first, size := utf8.DecodeRuneInString(name)
	if unicode.IsLower(first) {
		if upper := unicode.ToUpper(first); upper != first {
			return string(upper) + name[size:], true
		}
	}

	if stem, ok := strings.CutSuffix(name, "staße"); ok {
		return stem + "straße", true
	}
	if stem, ok := strings.CutSuffix(name, "promedade"); ok {
		return stem + "promenade", true
	}

	if fixed, ok := a.rules.Correction(name); ok {
		return fixed, true
	}
	return "", false
}

func canonicalName(raw string) string {
	return norm.NFC.String(strings.TrimSpace(raw))
}
