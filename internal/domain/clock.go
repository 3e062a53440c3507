package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock replaces the source of Document.ImportedAt. A nil clock restores
// wall time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}

// importTime is the UTC instant stamped on converted documents.
func importTime() time.Time {
	return clock.Now().UTC()
}
