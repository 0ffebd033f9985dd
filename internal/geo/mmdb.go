// File: internal/geo/mmdb.go
package geo

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// MMDBProvider serves lookups from local MaxMind GeoLite2 databases. It is
// fully offline: no pacing, no budget, no timeout. It sits after the HTTP
// providers so a configured database only answers when the network tier was
// unavailable or empty-handed.
type MMDBProvider struct {
	cityReader *geoip2.Reader
	asnReader  *geoip2.Reader
	mu         sync.RWMutex
}

// NewMMDBProvider opens GeoLite2-City.mmdb and GeoLite2-ASN.mmdb from dir.
// Both databases must be present.
func NewMMDBProvider(dir string) (*MMDBProvider, error) {
	cityReader, err := geoip2.Open(filepath.Join(dir, "GeoLite2-City.mmdb"))
	if err != nil {
		return nil, fmt.Errorf("mmdb: opening city database: %w", err)
	}

	asnReader, err := geoip2.Open(filepath.Join(dir, "GeoLite2-ASN.mmdb"))
	if err != nil {
		cityReader.Close()
		return nil, fmt.Errorf("mmdb: opening asn database: %w", err)
	}

	return &MMDBProvider{
		cityReader: cityReader,
		asnReader:  asnReader,
	}, nil
}

func (m *MMDBProvider) Name() string  { return "mmdb" }
func (m *MMDBProvider) Network() bool { return false }

// Lookup reads both databases for ip. An address the databases know nothing
// about yields ErrNoData.
func (m *MMDBProvider) Lookup(_ context.Context, ip string) (*Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, fmt.Errorf("mmdb: invalid ip %q: %w", ip, ErrNoData)
	}

	city, err := m.cityReader.City(parsed)
	if err != nil {
		return nil, fmt.Errorf("mmdb: city query: %w", err)
	}

	loc := &Location{
		Country: city.Country.IsoCode,
		City:    localizedName(city.City.Names),
	}
	if len(city.Subdivisions) > 0 {
		loc.Region = localizedName(city.Subdivisions[0].Names)
	}
	if city.Country.IsoCode != "" {
		loc.Coords(city.Location.Latitude, city.Location.Longitude)
	}

	if asn, err := m.asnReader.ASN(parsed); err == nil && asn.AutonomousSystemNumber != 0 {
		loc.ASN = fmt.Sprintf("AS%d", asn.AutonomousSystemNumber)
		loc.ISP = asn.AutonomousSystemOrganization
	}

	if loc.Country == "" && loc.ASN == "" {
		return nil, ErrNoData
	}
	return loc, nil
}

// Close releases the underlying database readers.
func (m *MMDBProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	if m.cityReader != nil {
		firstErr = m.cityReader.Close()
		m.cityReader = nil
	}
	if m.asnReader != nil {
		if err := m.asnReader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.asnReader = nil
	}
	return firstErr
}

func localizedName(names map[string]string) string {
	if name, ok := names["en"]; ok {
		return name
	}
	return ""
}
