// File: internal/geo/ipinfo.go
package geo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/json-iterator/go"
)

// IPInfoProvider queries the keyed ipinfo.io endpoint. Without a token it
// reports ErrNotConfigured before touching the pacer or the network.
type IPInfoProvider struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *http.Client
	pacer   *Pacer
}

// ipinfoResponse mirrors the provider's JSON schema: location as a
// comma-joined "lat,lon" string and ownership as a single "AS#### Org" org
// field.
type ipinfoResponse struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Loc     string `json:"loc"`
	Org     string `json:"org"`
}

// NewIPInfoProvider builds the keyed provider. baseURL is overridable so
// tests can point it at a local server.
func NewIPInfoProvider(baseURL, token string, timeout time.Duration, client *http.Client, pacer *Pacer) *IPInfoProvider {
	return &IPInfoProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: timeout,
		client:  client,
		pacer:   pacer,
	}
}

func (p *IPInfoProvider) Name() string  { return "ipinfo" }
func (p *IPInfoProvider) Network() bool { return true }

// Lookup fetches https://ipinfo.io/{ip}/json with a Bearer token. A non-200
// answer is absence of data, never a run-halting failure.
func (p *IPInfoProvider) Lookup(ctx context.Context, ip string) (*Location, error) {
	if p.token == "" {
		return nil, ErrNotConfigured
	}

	if err := p.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	url := fmt.Sprintf("%s/%s/json", p.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ipinfo: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ipinfo: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ipinfo: status %d: %w", resp.StatusCode, ErrNoData)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("ipinfo: reading response: %w", err)
	}

	var payload ipinfoResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("ipinfo: decoding response: %w", err)
	}

	loc := &Location{
		Country: payload.Country,
		Region:  payload.Region,
		City:    payload.City,
		ISP:     payload.Org,
	}
	if asn := firstToken(payload.Org); asn != "" {
		loc.ASN = asn
	}
	if lat, lon, ok := splitLoc(payload.Loc); ok {
		loc.Coords(lat, lon)
	}
	return loc, nil
}

// splitLoc parses the provider's "lat,lon" pair. Anything malformed means no
// coordinates, not an error.
func splitLoc(s string) (lat, lon float64, ok bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// firstToken returns the first whitespace-separated token of s, the "AS####"
// part of an org string like "AS13335 Cloudflare, Inc.".
func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
