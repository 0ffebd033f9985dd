// File: internal/ingest/sample.go
package ingest

import (
	"fmt"
	"math/rand"
	"strconv"
)

// Pools the sampler draws from. They lean toward the shapes the pipeline
// cares about: datacenter and VPN ISPs, risky ports, and gaps in metadata.
var (
	sampleCountries = []string{"US", "DE", "NL", "GB", "FR", "RU", "SG", "CA", "JP", "BR"}

	sampleISPs = []string{
		"Hetzner Online GmbH",
		"DigitalOcean LLC",
		"OVH Hosting SAS",
		"NordVPN",
		"Mullvad VPN AB",
		"Comcast Cable Communications",
		"Deutsche Telekom AG",
		"Cloud Innovation Ltd",
		"Quantum Virtual Systems",
		"Orange S.A.",
	}

	samplePorts = []int{22, 80, 443, 1194, 3389, 8080, 8443, 9001, 9050, 51820}
)

// Sample synthesizes a raw dataset of n rows for demos and offline tests.
// The same n and seed always produce the same table. Output is deliberately
// dirty: alternate column spellings, whitespace, duplicate and invalid IPs,
// and partially missing metadata, so it exercises the full cleaning path.
func Sample(n int, seed int64) *Table {
	rng := rand.New(rand.NewSource(seed))

	table := &Table{
		// Alternate spellings on purpose; Clean maps them to canonical names.
		Columns: []string{"IP", "Port", "Country", "ISP", "ASN", "First Seen", "Last Seen", "Latitude", "Longitude"},
	}
	if n <= 0 {
		return table
	}

	var emitted []string
	for i := 0; i < n; i++ {
		row := make(Row, 9)
		ip := sampleIP(rng, emitted)
		row["IP"] = ip
		emitted = append(emitted, ip)

		if rng.Float64() < 0.85 {
			row["Port"] = strconv.Itoa(samplePorts[rng.Intn(len(samplePorts))])
		}
		if rng.Float64() < 0.7 {
			row["Country"] = sampleCountries[rng.Intn(len(sampleCountries))]
		}
		if rng.Float64() < 0.75 {
			// Occasional padding exercises the trimming rule.
			isp := sampleISPs[rng.Intn(len(sampleISPs))]
			if rng.Float64() < 0.2 {
				isp = "  " + isp + " "
			}
			row["ISP"] = isp
		}
		if rng.Float64() < 0.6 {
			row["ASN"] = fmt.Sprintf("AS%d", 1000+rng.Intn(60000))
		}
		if rng.Float64() < 0.8 {
			day := 1 + rng.Intn(28)
			row["First Seen"] = fmt.Sprintf("2025-%02d-%02d", 1+rng.Intn(12), day)
			row["Last Seen"] = fmt.Sprintf("2025-12-%02d", day)
		}
		if rng.Float64() < 0.25 {
			lat := rng.Float64()*140 - 70
			lon := rng.Float64()*340 - 170
			row["Latitude"] = strconv.FormatFloat(lat, 'f', 4, 64)
			row["Longitude"] = strconv.FormatFloat(lon, 'f', 4, 64)
		}

		table.Rows = append(table.Rows, row)
	}
	return table
}

// SampleClean synthesizes a dataset that passes validation unchanged:
// canonical column names and valid, unique addresses. Metadata gaps remain
// so enrichment and scoring still have work to do. The same n and seed
// always produce the same table.
func SampleClean(n int, seed int64) *Table {
	rng := rand.New(rand.NewSource(seed))

	table := &Table{
		Columns: []string{"ip", "port", "country", "isp", "asn", "first_seen", "last_seen", "latitude", "longitude"},
	}
	if n <= 0 {
		return table
	}

	seen := make(map[string]struct{}, n)
	for len(table.Rows) < n {
		ip := fmt.Sprintf("%d.%d.%d.%d", 1+rng.Intn(223), rng.Intn(256), rng.Intn(256), 1+rng.Intn(254))
		if _, dup := seen[ip]; dup {
			continue
		}
		seen[ip] = struct{}{}

		row := make(Row, 9)
		row["ip"] = ip
		if rng.Float64() < 0.9 {
			row["port"] = strconv.Itoa(samplePorts[rng.Intn(len(samplePorts))])
		}
		if rng.Float64() < 0.75 {
			row["country"] = sampleCountries[rng.Intn(len(sampleCountries))]
		}
		if rng.Float64() < 0.8 {
			row["isp"] = sampleISPs[rng.Intn(len(sampleISPs))]
		}
		if rng.Float64() < 0.6 {
			row["asn"] = fmt.Sprintf("AS%d", 1000+rng.Intn(60000))
		}
		if rng.Float64() < 0.8 {
			day := 1 + rng.Intn(28)
			row["first_seen"] = fmt.Sprintf("2025-%02d-%02d", 1+rng.Intn(12), day)
			row["last_seen"] = fmt.Sprintf("2025-12-%02d", day)
		}
		if rng.Float64() < 0.25 {
			lat := rng.Float64()*140 - 70
			lon := rng.Float64()*340 - 170
			row["latitude"] = strconv.FormatFloat(lat, 'f', 4, 64)
			row["longitude"] = strconv.FormatFloat(lon, 'f', 4, 64)
		}

		table.Rows = append(table.Rows, row)
	}
	return table
}

// sampleIP emits mostly valid public-looking IPv4 addresses, a sprinkle of
// IPv6, and the occasional garbage value or duplicate that cleaning must
// handle.
func sampleIP(rng *rand.Rand, emitted []string) string {
	switch {
	case len(emitted) > 0 && rng.Float64() < 0.04:
		// Repeat an earlier row's IP so dedup has something to drop.
		return emitted[rng.Intn(len(emitted))]
	case rng.Float64() < 0.03:
		return fmt.Sprintf("999.%d.%d.%d", rng.Intn(256), rng.Intn(256), rng.Intn(256))
	case rng.Float64() < 0.02:
		return "not-an-ip"
	case rng.Float64() < 0.05:
		return fmt.Sprintf("2001:db8::%x", 1+rng.Intn(0xffff))
	default:
		return fmt.Sprintf("%d.%d.%d.%d", 1+rng.Intn(223), rng.Intn(256), rng.Intn(256), 1+rng.Intn(254))
	}
}
