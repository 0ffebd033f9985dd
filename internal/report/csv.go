// File: internal/report/csv.go
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xkilldash9x/exitscope/api/schemas"
)

// csvHeader uses the canonical column names the ingest stage recognizes, so
// an exported CSV feeds straight back into an analyze run. The trailing
// risk columns are ignored on re-ingestion.
var csvHeader = []string{
	"ip", "port", "country", "region", "city", "asn", "isp",
	"first_seen", "last_seen", "latitude", "longitude",
	"risk_score", "risk_level", "risk_factors",
}

// CSVReporter writes one row per node and nothing else.
type CSVReporter struct {
	writer io.WriteCloser
}

// NewCSVReporter takes ownership of the writer.
func NewCSVReporter(writer io.WriteCloser) *CSVReporter {
	return &CSVReporter{writer: writer}
}

func (r *CSVReporter) Write(report *schemas.AnalysisReport) error {
	w := csv.NewWriter(r.writer)

	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for i := range report.Nodes {
		if err := w.Write(nodeRecord(&report.Nodes[i])); err != nil {
			return fmt.Errorf("writing csv row %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv report: %w", err)
	}
	return nil
}

func (r *CSVReporter) Close() error {
	return r.writer.Close()
}

func nodeRecord(node *schemas.Node) []string {
	port := ""
	if node.Port != 0 {
		port = strconv.Itoa(node.Port)
	}
	return []string{
		node.IP,
		port,
		node.Country,
		node.Region,
		node.City,
		node.ASN,
		node.ISP,
		node.FirstSeen,
		node.LastSeen,
		formatCoord(node.Latitude),
		formatCoord(node.Longitude),
		strconv.FormatFloat(node.RiskScore, 'f', 2, 64),
		string(node.RiskLevel),
		strings.Join(node.RiskFactors, "; "),
	}
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
