// File: internal/stats/stats.go

// Package stats reduces a scored batch to its aggregate shape: per-level
// counts, percentages and the mean score.
package stats

import (
	"math"
	"sort"

	"github.com/xkilldash9x/exitscope/api/schemas"
)

// Compute tallies risk levels and the average score over nodes. A node with
// an unrecognized level counts as Unknown. Empty input yields the zero
// value; it is never an error.
func Compute(nodes []schemas.Node) schemas.Statistics {
	s := schemas.Statistics{Total: len(nodes)}
	if s.Total == 0 {
		return s
	}

	scoreSum := 0.0
	for i := range nodes {
		scoreSum += nodes[i].RiskScore
		switch nodes[i].RiskLevel {
		case schemas.RiskHigh:
			s.HighRisk++
		case schemas.RiskMedium:
			s.MediumRisk++
		case schemas.RiskLow:
			s.LowRisk++
		default:
			s.Unknown++
		}
	}

	total := float64(s.Total)
	s.AverageScore = round2(scoreSum / total)
	s.HighRiskPct = round1(float64(s.HighRisk) / total * 100)
	s.MediumRiskPct = round1(float64(s.MediumRisk) / total * 100)
	s.LowRiskPct = round1(float64(s.LowRisk) / total * 100)
	s.UnknownPct = round1(float64(s.Unknown) / total * 100)
	return s
}

// TopByScore returns the n highest-scoring nodes as a new slice, leaving the
// input order untouched. Ties break by severity rank, then by IP so the
// ranking is stable across runs.
func TopByScore(nodes []schemas.Node, n int) []schemas.Node {
	if n <= 0 || len(nodes) == 0 {
		return nil
	}

	ranked := make([]schemas.Node, len(nodes))
	copy(ranked, nodes)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].RiskScore != ranked[j].RiskScore {
			return ranked[i].RiskScore > ranked[j].RiskScore
		}
		if ri, rj := ranked[i].RiskLevel.Rank(), ranked[j].RiskLevel.Rank(); ri != rj {
			return ri < rj
		}
		return ranked[i].IP < ranked[j].IP
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
