// File: internal/ingest/validate.go
package ingest

import (
	"fmt"
	"net/netip"
	"strings"
)

// ValidIP reports whether s is a syntactically valid IPv4 or IPv6 literal.
// Zoned addresses (fe80::1%eth0) are rejected; this predicate identifies
// bare addresses only.
func ValidIP(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return addr.Zone() == ""
}

// Validate checks the raw table's shape before cleaning. It returns overall
// validity plus one descriptive string per violation: missing required
// columns, an empty dataset, and the count of unparseable IP values. All
// checks run; validity is their conjunction.
func (p *Processor) Validate(t *Table) (bool, []string) {
	var errs []string

	var missing []string
	for _, col := range p.cfg.RequiredColumns {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		errs = append(errs, fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")))
	}

	if t.Len() == 0 {
		errs = append(errs, "dataset is empty")
	}

	// The per-value IP check only makes sense when the column exists at all.
	if t.HasColumn("ip") {
		invalid := 0
		for _, row := range t.Rows {
			if !ValidIP(strings.TrimSpace(row.Get("ip"))) {
				invalid++
			}
		}
		if invalid > 0 {
			errs = append(errs, fmt.Sprintf("found %d invalid IP addresses", invalid))
		}
	}

	return len(errs) == 0, errs
}
