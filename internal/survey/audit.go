package survey

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/osm-berlin-etl/internal/domain"
)

// AuditSummary tallies the outcomes of an AuditNames run.
type AuditSummary struct {
	Total        int
	Valid        int
	Corrected    int
	Rejected     int
	Unclassified int
}

// AuditNames audits one street name per line of r. Rejections and
// corrections are reported to out, unclassified names to errOut. With strict
// set, the first unclassified name aborts the run with an error wrapping
// domain.ErrUnclassifiedName.
func AuditNames(r io.Reader, auditor *domain.StreetAuditor, out, errOut io.Writer, strict bool) (AuditSummary, error) {
	var sum AuditSummary
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		name := strings.TrimSuffix(sc.Text(), "\r")
		sum.Total++

		res, err := auditor.Audit(name)
		if errors.Is(err, domain.ErrUnclassifiedName) {
			sum.Unclassified++
			if strict {
				return sum, fmt.Errorf("line %d: %w", sum.Total, err)
			}
			fmt.Fprintf(errOut, "Unclassified %q: no rule matches.\n", name)
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("line %d: %w", sum.Total, err)
		}

		switch res.Outcome {
		case domain.OutcomeRejected:
			sum.Rejected++
			fmt.Fprintf(out, "Skipped %q: Not a street.\n", name)
		case domain.OutcomeCorrected:
			sum.Corrected++
			fmt.Fprintf(out, "Corrected %q to %q.\n", name, res.Name)
		case domain.OutcomeValid:
			sum.Valid++
		}
	}
	if err := sc.Err(); err != nil {
		return sum, fmt.Errorf("read street names: %w", err)
	}
	return sum, nil
}

func (s AuditSummary) String() string {
	return fmt.Sprintf("%d names: %d valid, %d corrected, %d skipped, %d unclassified",
		s.Total, s.Valid, s.Corrected, s.Rejected, s.Unclassified)
}
