// File: internal/report/reporter_test.go
package report_test

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/exitscope/api/schemas"
	"github.com/xkilldash9x/exitscope/internal/report"
)

// captureWriteCloser records everything written plus whether Close ran.
type captureWriteCloser struct {
	bytes.Buffer
	closed bool
}

func (c *captureWriteCloser) Close() error {
	c.closed = true
	return nil
}

func sampleReport() *schemas.AnalysisReport {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	medium := schemas.NewNode("203.0.113.7")
	medium.Port = 22
	medium.Country = "US"
	medium.ISP = "Acme Hosting Cloud"
	medium.ASN = "AS64500"
	medium.SetCoords(37.0902, -95.7129)
	medium.RiskScore = 5.0
	medium.RiskLevel = schemas.RiskMedium
	medium.RiskFactors = []string{"High-risk port (22)", "Datacenter/hosting provider"}

	low := schemas.NewNode("198.51.100.9")
	low.RiskScore = 0.5
	low.RiskLevel = schemas.RiskLow
	low.RiskFactors = []string{"Insufficient metadata"}

	return &schemas.AnalysisReport{
		RunID:       "0b7aa640-63a4-4167-8c6c-2ea932fa31c9",
		Source:      "testdata.csv",
		StartedAt:   started,
		FinishedAt:  started.Add(1500 * time.Millisecond),
		NodeCount:   2,
		APICalls:    1,
		UsedNetwork: true,
		Nodes:       []schemas.Node{medium, low},
		Statistics: schemas.Statistics{
			Total:         2,
			MediumRisk:    1,
			LowRisk:       1,
			AverageScore:  2.75,
			MediumRiskPct: 50.0,
			LowRiskPct:    50.0,
		},
		Summary: schemas.DatasetSummary{
			TotalRecords: 2,
			UniqueIPs:    2,
			Countries:    1,
			Ports:        1,
			TopCountries: []schemas.ValueCount{{Value: "US", Count: 1}},
			TopPorts:     []schemas.ValueCount{{Value: "22", Count: 1}},
			TopISPs:      []schemas.ValueCount{{Value: "Acme Hosting Cloud", Count: 1}},
		},
	}
}

func TestNewStdoutReporters(t *testing.T) {
	for _, format := range []string{"json", "csv", "text"} {
		r, err := report.New(format, "stdout", 10)
		require.NoError(t, err, format)
		require.NotNil(t, r)
		// Closing a stdout reporter must be a no-op, not close os.Stdout.
		assert.NoError(t, r.Close())

		r, err = report.New(format, "", 10)
		require.NoError(t, err, format)
		assert.NoError(t, r.Close())
	}
}

func TestNewFileReporter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.json")
	r, err := report.New("json", path, 10)
	require.NoError(t, err)

	require.NoError(t, r.Write(sampleReport()))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "0b7aa640-63a4-4167-8c6c-2ea932fa31c9")
}

func TestNewUnsupportedFormat(t *testing.T) {
	t.Parallel()

	r, err := report.New("yaml", "", 10)
	assert.Nil(t, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format: yaml")
}

func TestJSONReporterRoundTrip(t *testing.T) {
	t.Parallel()

	capture := &captureWriteCloser{}
	r := report.NewJSONReporter(capture)

	original := sampleReport()
	require.NoError(t, r.Write(original))
	require.NoError(t, r.Close())
	assert.True(t, capture.closed)

	var decoded schemas.AnalysisReport
	require.NoError(t, json.Unmarshal(capture.Bytes(), &decoded))

	if diff := cmp.Diff(*original, decoded); diff != "" {
		t.Errorf("envelope did not round-trip (-want +got):\n%s", diff)
	}
}

func TestCSVReporter(t *testing.T) {
	t.Parallel()

	capture := &captureWriteCloser{}
	r := report.NewCSVReporter(capture)
	require.NoError(t, r.Write(sampleReport()))
	require.NoError(t, r.Close())

	records, err := csv.NewReader(capture).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 nodes

	assert.Equal(t, []string{
		"ip", "port", "country", "region", "city", "asn", "isp",
		"first_seen", "last_seen", "latitude", "longitude",
		"risk_score", "risk_level", "risk_factors",
	}, records[0])

	first := records[1]
	assert.Equal(t, "203.0.113.7", first[0])
	assert.Equal(t, "22", first[1])
	assert.Equal(t, "US", first[2])
	assert.Equal(t, "37.0902", first[9])
	assert.Equal(t, "5.00", first[11])
	assert.Equal(t, "Medium", first[12])
	assert.Equal(t, "High-risk port (22); Datacenter/hosting provider", first[13])

	second := records[2]
	assert.Equal(t, "198.51.100.9", second[0])
	// Absent port and coordinates stay empty rather than rendering zeros.
	assert.Empty(t, second[1])
	assert.Empty(t, second[9])
	assert.Empty(t, second[10])
}

func TestTextReporter(t *testing.T) {
	t.Parallel()

	t.Run("renders every section", func(t *testing.T) {
		t.Parallel()

		capture := &captureWriteCloser{}
		r := report.NewTextReporter(capture, 10)
		require.NoError(t, r.Write(sampleReport()))

		out := capture.String()
		assert.Contains(t, out, "Exit Node Analysis")
		assert.Contains(t, out, "Run ID:    0b7aa640-63a4-4167-8c6c-2ea932fa31c9")
		assert.Contains(t, out, "API calls: 1 (network enabled)")
		assert.Contains(t, out, "Risk Breakdown")
		assert.Contains(t, out, "Average score: 2.75")
		assert.Contains(t, out, "Dataset Summary")
		// Country codes render as display names.
		assert.Contains(t, out, "Top countries: United States (1)")
		assert.Contains(t, out, "Highest Scoring Nodes")
		assert.Contains(t, out, "203.0.113.7")
		assert.Contains(t, out, "5.00")
	})

	t.Run("top table honors the node bound", func(t *testing.T) {
		t.Parallel()

		capture := &captureWriteCloser{}
		r := report.NewTextReporter(capture, 1)
		require.NoError(t, r.Write(sampleReport()))

		out := capture.String()
		assert.Contains(t, out, "203.0.113.7")
		assert.NotContains(t, out, "198.51.100.9")
	})

	t.Run("zero bound suppresses the table", func(t *testing.T) {
		t.Parallel()

		capture := &captureWriteCloser{}
		r := report.NewTextReporter(capture, 0)
		require.NoError(t, r.Write(sampleReport()))

		assert.NotContains(t, capture.String(), "Highest Scoring Nodes")
	})

	t.Run("offline run says so", func(t *testing.T) {
		t.Parallel()

		rep := sampleReport()
		rep.APICalls = 0
		rep.UsedNetwork = false

		capture := &captureWriteCloser{}
		r := report.NewTextReporter(capture, 10)
		require.NoError(t, r.Write(rep))

		assert.Contains(t, capture.String(), "API calls: 0 (offline)")
	})
}
