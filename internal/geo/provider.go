// File: internal/geo/provider.go
package geo

import (
	"context"
	"errors"
)

// Sentinel errors providers use to signal expected lookup outcomes. The
// chain treats either as "try the next provider"; only ErrNoData implies a
// call was actually attempted.
var (
	// ErrNotConfigured means the provider is missing credentials or local
	// data and cannot serve lookups at all.
	ErrNotConfigured = errors.New("geo: provider not configured")
	// ErrNoData means the provider answered but had nothing for the address
	// (non-success status, empty record). Absence of data, not a failure.
	ErrNoData = errors.New("geo: no data for address")
)

// Location is the provider-neutral lookup result. Fields the provider could
// not supply stay zero; coordinates are pointers so "absent" and "0,0" stay
// distinguishable.
type Location struct {
	Country   string
	Region    string
	City      string
	Latitude  *float64
	Longitude *float64
	ASN       string
	ISP       string
}

// Coords stores a coordinate pair on the location.
func (l *Location) Coords(lat, lon float64) {
	l.Latitude = &lat
	l.Longitude = &lon
}

// Provider resolves geolocation and ownership metadata for a single IP.
// Implementations return sentinel errors rather than panicking; any error
// tells the chain to move on.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string
	// Network reports whether Lookup reaches an external service, which
	// makes it subject to the pacer and the per-batch call budget.
	Network() bool
	Lookup(ctx context.Context, ip string) (*Location, error)
}
