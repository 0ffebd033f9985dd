// File: internal/ingest/summary.go
package ingest

import (
	"sort"

	"github.com/xkilldash9x/exitscope/api/schemas"
)

const topN = 10

// Summarize reduces a cleaned table to its descriptive shape: cardinalities
// and top-10 rankings for countries, ports, and ISPs. It is a pure read.
func Summarize(t *Table) schemas.DatasetSummary {
	summary := schemas.DatasetSummary{
		TotalRecords: t.Len(),
	}
	if t.Len() == 0 {
		return summary
	}

	ips := make(map[string]struct{}, t.Len())
	for _, row := range t.Rows {
		if row.Has("ip") {
			ips[row.Get("ip")] = struct{}{}
		}
	}
	summary.UniqueIPs = len(ips)

	countries := countValues(t, "country")
	ports := countValues(t, "port")
	isps := countValues(t, "isp")

	summary.Countries = len(countries)
	summary.Ports = len(ports)
	summary.TopCountries = topValues(countries, topN)
	summary.TopPorts = topValues(ports, topN)
	summary.TopISPs = topValues(isps, topN)
	return summary
}

func countValues(t *Table, col string) map[string]int {
	counts := make(map[string]int)
	for _, row := range t.Rows {
		if row.Has(col) {
			counts[row.Get(col)]++
		}
	}
	return counts
}

// topValues ranks counts descending, breaking ties lexically so the ranking
// is deterministic.
func topValues(counts map[string]int, n int) []schemas.ValueCount {
	if len(counts) == 0 {
		return nil
	}
	ranked := make([]schemas.ValueCount, 0, len(counts))
	for value, count := range counts {
		ranked = append(ranked, schemas.ValueCount{Value: value, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Value < ranked[j].Value
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
