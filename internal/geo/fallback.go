// File: internal/geo/fallback.go
package geo

import (
	"net/netip"
	"strings"

	"github.com/xkilldash9x/exitscope/api/schemas"
)

// countryCentroids maps ISO country codes to a representative coordinate
// pair. Fallback geolocation places a node at its country's centroid when
// no provider supplied coordinates.
var countryCentroids = map[string][2]float64{
	"US": {37.0902, -95.7129},
	"GB": {55.3781, -3.4360},
	"DE": {51.1657, 10.4515},
	"FR": {46.2276, 2.2137},
	"NL": {52.1326, 5.2913},
	"CA": {56.1304, -106.3468},
	"AU": {-25.2744, 133.7751},
	"JP": {36.2048, 138.2529},
	"CN": {35.8617, 104.1954},
	"IN": {20.5937, 78.9629},
	"BR": {-14.2350, -51.9253},
	"RU": {61.5240, 105.3188},
	"SG": {1.3521, 103.8198},
	"EU": {50.8503, 4.3517},
}

// FallbackCountry derives a coarse country bucket from the first octet of
// an IPv4 address. It is deliberately crude: the buckets only need to be
// deterministic and plausible when every real source of geolocation has
// failed. IPv6 and unparseable addresses land in Unknown.
func FallbackCountry(ip string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil || !addr.Is4() {
		return "Unknown"
	}

	octet := addr.As4()[0]
	switch {
	case octet < 50:
		return "US"
	case octet < 100:
		return "EU"
	case octet < 150:
		return "CN"
	default:
		return "Unknown"
	}
}

// CentroidFor returns the centroid coordinates for a country code, or
// (0, 0) when the country is absent from the table.
func CentroidFor(country string) (lat, lon float64) {
	if c, ok := countryCentroids[country]; ok {
		return c[0], c[1]
	}
	return 0, 0
}

// ApplyFallback fills a node's missing geolocation fields from the octet
// heuristic and the centroid table. Fields already populated are left
// untouched, so a node that got a country (but no coordinates) from a
// provider keeps that country and receives its centroid.
func ApplyFallback(node *schemas.Node) {
	if node.Country == "" {
		node.Country = FallbackCountry(node.IP)
	}
	if node.Latitude == nil || node.Longitude == nil {
		node.SetCoords(CentroidFor(node.Country))
	}
}
