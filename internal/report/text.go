// File: internal/report/text.go
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/xkilldash9x/exitscope/api/schemas"
	"github.com/xkilldash9x/exitscope/internal/geo"
	"github.com/xkilldash9x/exitscope/internal/stats"
)

// TextReporter renders a human-readable run summary: header, risk
// breakdown, dataset summary, and the highest-scoring nodes.
type TextReporter struct {
	writer   io.WriteCloser
	topNodes int
}

// NewTextReporter takes ownership of the writer. topNodes bounds the
// highlighted-node table; zero suppresses it.
func NewTextReporter(writer io.WriteCloser, topNodes int) *TextReporter {
	return &TextReporter{writer: writer, topNodes: topNodes}
}

func (r *TextReporter) Write(report *schemas.AnalysisReport) error {
	var b strings.Builder

	r.writeHeader(&b, report)
	r.writeStatistics(&b, &report.Statistics)
	r.writeSummary(&b, &report.Summary)
	r.writeTopNodes(&b, report.Nodes)

	if _, err := io.WriteString(r.writer, b.String()); err != nil {
		return fmt.Errorf("writing text report: %w", err)
	}
	return nil
}

func (r *TextReporter) Close() error {
	return r.writer.Close()
}

func (r *TextReporter) writeHeader(b *strings.Builder, report *schemas.AnalysisReport) {
	network := "offline"
	if report.UsedNetwork {
		network = "network enabled"
	}

	fmt.Fprintf(b, "Exit Node Analysis\n")
	fmt.Fprintf(b, "==================\n")
	fmt.Fprintf(b, "Run ID:    %s\n", report.RunID)
	if report.Source != "" {
		fmt.Fprintf(b, "Source:    %s\n", report.Source)
	}
	fmt.Fprintf(b, "Started:   %s\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(b, "Finished:  %s\n", report.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(b, "Duration:  %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(b, "Nodes:     %d\n", report.NodeCount)
	fmt.Fprintf(b, "API calls: %d (%s)\n\n", report.APICalls, network)
}

func (r *TextReporter) writeStatistics(b *strings.Builder, s *schemas.Statistics) {
	fmt.Fprintf(b, "Risk Breakdown\n")
	fmt.Fprintf(b, "--------------\n")

	tw := tabwriter.NewWriter(b, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Level\tCount\tShare\n")
	fmt.Fprintf(tw, "High\t%d\t%.1f%%\n", s.HighRisk, s.HighRiskPct)
	fmt.Fprintf(tw, "Medium\t%d\t%.1f%%\n", s.MediumRisk, s.MediumRiskPct)
	fmt.Fprintf(tw, "Low\t%d\t%.1f%%\n", s.LowRisk, s.LowRiskPct)
	fmt.Fprintf(tw, "Unknown\t%d\t%.1f%%\n", s.Unknown, s.UnknownPct)
	tw.Flush()

	fmt.Fprintf(b, "Average score: %.2f\n\n", s.AverageScore)
}

func (r *TextReporter) writeSummary(b *strings.Builder, s *schemas.DatasetSummary) {
	fmt.Fprintf(b, "Dataset Summary\n")
	fmt.Fprintf(b, "---------------\n")
	fmt.Fprintf(b, "Records: %d   Unique IPs: %d   Countries: %d   Ports: %d\n",
		s.TotalRecords, s.UniqueIPs, s.Countries, s.Ports)

	if len(s.TopCountries) > 0 {
		fmt.Fprintf(b, "Top countries: %s\n", formatRanking(s.TopCountries, geo.CountryName))
	}
	if len(s.TopPorts) > 0 {
		fmt.Fprintf(b, "Top ports:     %s\n", formatRanking(s.TopPorts, nil))
	}
	if len(s.TopISPs) > 0 {
		fmt.Fprintf(b, "Top ISPs:      %s\n", formatRanking(s.TopISPs, nil))
	}
	b.WriteString("\n")
}

func (r *TextReporter) writeTopNodes(b *strings.Builder, nodes []schemas.Node) {
	top := stats.TopByScore(nodes, r.topNodes)
	if len(top) == 0 {
		return
	}

	fmt.Fprintf(b, "Highest Scoring Nodes\n")
	fmt.Fprintf(b, "---------------------\n")

	tw := tabwriter.NewWriter(b, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "IP\tPORT\tCOUNTRY\tSCORE\tLEVEL\tFACTORS\n")
	for i := range top {
		port := ""
		if top[i].Port != 0 {
			port = fmt.Sprintf("%d", top[i].Port)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%s\n",
			top[i].IP,
			port,
			geo.CountryName(top[i].Country),
			top[i].RiskScore,
			top[i].RiskLevel,
			strings.Join(top[i].RiskFactors, "; "))
	}
	tw.Flush()
}

// formatRanking renders "value (count), value (count)". displayName, when
// non-nil, maps stored values to presentation text.
func formatRanking(entries []schemas.ValueCount, displayName func(string) string) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		value := e.Value
		if displayName != nil {
			value = displayName(value)
		}
		parts = append(parts, fmt.Sprintf("%s (%d)", value, e.Count))
	}
	return strings.Join(parts, ", ")
}
