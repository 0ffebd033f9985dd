// File: internal/ingest/clean_test.go
package ingest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/exitscope/api/schemas"
)

func TestClean_DropsInvalidIPs(t *testing.T) {
	t.Parallel()
	p := newTestProcessor()

	table := &Table{
		Columns: []string{"ip", "country"},
		Rows: []Row{
			{"ip": "1.2.3.4", "country": "US"},
			{"ip": "not-an-ip", "country": "DE"},
			{"country": "FR"}, // no ip at all
			{"ip": "2001:db8::1", "country": "NL"},
		},
	}

	cleaned := p.Clean(table)

	require.Equal(t, 2, cleaned.Len())
	assert.Equal(t, "1.2.3.4", cleaned.Rows[0].Get("ip"))
	assert.Equal(t, "2001:db8::1", cleaned.Rows[1].Get("ip"))
}

func TestClean_FirstDuplicateWins(t *testing.T) {
	t.Parallel()
	p := newTestProcessor()

	table := &Table{
		Columns: []string{"ip", "country"},
		Rows: []Row{
			{"ip": "1.2.3.4", "country": "US"},
			{"ip": "1.2.3.4", "country": "DE"},
			{"ip": "5.6.7.8", "country": "FR"},
			{"ip": "1.2.3.4", "country": "NL"},
		},
	}

	cleaned := p.Clean(table)

	require.Equal(t, 2, cleaned.Len())
	assert.Equal(t, "US", cleaned.Rows[0].Get("country"), "the first occurrence must win")
	assert.Equal(t, "5.6.7.8", cleaned.Rows[1].Get("ip"))
}

func TestClean_NeverEmitsDuplicateIPs(t *testing.T) {
	t.Parallel()
	p := newTestProcessor()

	cleaned := p.Clean(Sample(500, 7))

	seen := make(map[string]bool, cleaned.Len())
	for _, row := range cleaned.Rows {
		ip := row.Get("ip")
		assert.False(t, seen[ip], "duplicate ip %q survived cleaning", ip)
		seen[ip] = true
	}
}

func TestClean_MapsAlternateColumnSpellings(t *testing.T) {
	t.Parallel()
	p := newTestProcessor()

	table := &Table{
		Columns: []string{"IP", "Port", "Country", "ISP", "First Seen"},
		Rows: []Row{
			{"IP": "1.2.3.4", "Port": "443", "Country": "US", "ISP": "Acme", "First Seen": "2025-01-01"},
		},
	}

	cleaned := p.Clean(table)

	assert.Equal(t, []string{"ip", "port", "country", "isp", "first_seen"}, cleaned.Columns)
	require.Equal(t, 1, cleaned.Len())
	row := cleaned.Rows[0]
	assert.Equal(t, "1.2.3.4", row.Get("ip"))
	assert.Equal(t, "443", row.Get("port"))
	assert.Equal(t, "US", row.Get("country"))
	assert.Equal(t, "Acme", row.Get("isp"))
	assert.Equal(t, "2025-01-01", row.Get("first_seen"))
}

func TestClean_CanonicalValueBeatsAlias(t *testing.T) {
	t.Parallel()
	p := newTestProcessor()

	table := &Table{
		Columns: []string{"ip", "country", "Country"},
		Rows: []Row{
			{"ip": "1.2.3.4", "country": "US", "Country": "DE"},
		},
	}

	cleaned := p.Clean(table)

	require.Equal(t, 1, cleaned.Len())
	assert.Equal(t, "US", cleaned.Rows[0].Get("country"))
}

func TestClean_CoercesPort(t *testing.T) {
	t.Parallel()
	p := newTestProcessor()

	testCases := []struct {
		name     string
		port     string
		want     string
		wantGone bool
	}{
		{"plain integer", "443", "443", false},
		{"float formatted", "443.0", "443", false},
		{"zero is absent", "0", "", true},
		{"non numeric is absent", "https", "", true},
		{"negative is absent", "-1", "", true},
		{"out of range is absent", "70000", "", true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			table := &Table{
				Columns: []string{"ip", "port"},
				Rows:    []Row{{"ip": "1.2.3.4", "port": tc.port}},
			}

			cleaned := p.Clean(table)
			require.Equal(t, 1, cleaned.Len())

			if tc.wantGone {
				assert.False(t, cleaned.Rows[0].Has("port"))
			} else {
				assert.Equal(t, tc.want, cleaned.Rows[0].Get("port"))
			}
		})
	}
}

func TestClean_CoordinatePairInvariant(t *testing.T) {
	t.Parallel()
	p := newTestProcessor()

	testCases := []struct {
		name    string
		row     Row
		wantLat string
		wantLon string
	}{
		{
			"both valid",
			Row{"ip": "1.2.3.4", "latitude": "51.5", "longitude": "-0.12"},
			"51.5", "-0.12",
		},
		{
			"latitude only is dropped",
			Row{"ip": "1.2.3.4", "latitude": "51.5"},
			"", "",
		},
		{
			"longitude only is dropped",
			Row{"ip": "1.2.3.4", "longitude": "-0.12"},
			"", "",
		},
		{
			"non numeric latitude drops the pair",
			Row{"ip": "1.2.3.4", "latitude": "north", "longitude": "-0.12"},
			"", "",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			table := &Table{
				Columns: []string{"ip", "latitude", "longitude"},
				Rows:    []Row{tc.row},
			}

			cleaned := p.Clean(table)
			require.Equal(t, 1, cleaned.Len())
			assert.Equal(t, tc.wantLat, cleaned.Rows[0].Get("latitude"))
			assert.Equal(t, tc.wantLon, cleaned.Rows[0].Get("longitude"))
		})
	}
}

func TestClean_TrimsWhitespace(t *testing.T) {
	t.Parallel()
	p := newTestProcessor()

	table := &Table{
		Columns: []string{"ip", "isp", "city"},
		Rows: []Row{
			{"ip": "  1.2.3.4 ", "isp": "  Acme Hosting  ", "city": "\tBerlin\n"},
		},
	}

	cleaned := p.Clean(table)

	require.Equal(t, 1, cleaned.Len())
	row := cleaned.Rows[0]
	assert.Equal(t, "1.2.3.4", row.Get("ip"))
	assert.Equal(t, "Acme Hosting", row.Get("isp"))
	assert.Equal(t, "Berlin", row.Get("city"))
}

func TestClean_IsIdempotent(t *testing.T) {
	t.Parallel()
	p := newTestProcessor()

	table := &Table{
		Columns: []string{"IP", "Port", "Country", "Latitude", "Longitude"},
		Rows: []Row{
			{"IP": " 1.2.3.4 ", "Port": "443.0", "Country": " US", "Latitude": "37.1", "Longitude": "-95.7"},
			{"IP": "1.2.3.4", "Country": "DE"},
			{"IP": "bogus"},
			{"IP": "9.8.7.6", "Port": "0", "Latitude": "12.0"},
		},
	}

	once := p.Clean(table)
	twice := p.Clean(once)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("Clean is not idempotent (-once +twice):\n%s", diff)
	}
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	p := newTestProcessor()

	table := &Table{
		Columns: []string{"IP"},
		Rows:    []Row{{"IP": " 1.2.3.4 "}},
	}

	_ = p.Clean(table)

	assert.Equal(t, []string{"IP"}, table.Columns)
	assert.Equal(t, " 1.2.3.4 ", table.Rows[0].Get("IP"))
}

func TestNodes_ConvertsCleanRows(t *testing.T) {
	t.Parallel()
	p := newTestProcessor()

	table := &Table{
		Columns: []string{"IP", "Port", "Country", "ISP", "Latitude", "Longitude"},
		Rows: []Row{
			{"IP": "1.2.3.4", "Port": "22", "Country": "US", "ISP": "Acme Hosting", "Latitude": "37.1", "Longitude": "-95.7"},
			{"IP": "5.6.7.8"},
		},
	}

	nodes := p.Nodes(p.Clean(table))

	require.Len(t, nodes, 2)

	full := nodes[0]
	assert.Equal(t, "1.2.3.4", full.IP)
	assert.Equal(t, 22, full.Port)
	assert.Equal(t, "US", full.Country)
	assert.Equal(t, "Acme Hosting", full.ISP)
	require.NotNil(t, full.Latitude)
	require.NotNil(t, full.Longitude)
	assert.InDelta(t, 37.1, *full.Latitude, 1e-9)
	assert.InDelta(t, -95.7, *full.Longitude, 1e-9)
	assert.Equal(t, schemas.RiskUnknown, full.RiskLevel)
	require.NotNil(t, full.RiskFactors)
	assert.Empty(t, full.RiskFactors)

	bare := nodes[1]
	assert.Equal(t, "5.6.7.8", bare.IP)
	assert.Zero(t, bare.Port)
	assert.Nil(t, bare.Latitude)
	assert.Nil(t, bare.Longitude)
}

func TestNodes_SkipsUnconvertibleRows(t *testing.T) {
	t.Parallel()
	p := newTestProcessor()

	// Rows straight from a hostile source, without cleaning.
	table := &Table{
		Columns: []string{"ip", "port"},
		Rows: []Row{
			{"ip": "1.2.3.4", "port": "nope"},
			{"ip": "5.6.7.8", "port": "80"},
			{"ip": "garbage"},
		},
	}

	nodes := p.Nodes(table)

	// Bad rows are skipped, the batch continues.
	require.Len(t, nodes, 1)
	assert.Equal(t, "5.6.7.8", nodes[0].IP)
	assert.Equal(t, 80, nodes[0].Port)
}
