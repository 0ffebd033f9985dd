// File: internal/geo/ipapi.go
package geo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/json-iterator/go"
)

// IPAPIProvider queries the keyless ip-api.com endpoint, the free tier the
// chain degrades to when no token is configured.
type IPAPIProvider struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	pacer   *Pacer
}

// ipapiResponse mirrors the provider's JSON schema. Status must be
// "success"; anything else carries a message instead of data.
type ipapiResponse struct {
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	CountryCode string   `json:"countryCode"`
	RegionName  string   `json:"regionName"`
	City        string   `json:"city"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	AS          string   `json:"as"`
	ISP         string   `json:"isp"`
}

// NewIPAPIProvider builds the keyless provider. baseURL is overridable so
// tests can point it at a local server.
func NewIPAPIProvider(baseURL string, timeout time.Duration, client *http.Client, pacer *Pacer) *IPAPIProvider {
	return &IPAPIProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  client,
		pacer:   pacer,
	}
}

func (p *IPAPIProvider) Name() string  { return "ip-api" }
func (p *IPAPIProvider) Network() bool { return true }

// Lookup fetches http://ip-api.com/json/{ip}. A non-200 answer or a
// non-"success" status flag is absence of data, never a run-halting failure.
func (p *IPAPIProvider) Lookup(ctx context.Context, ip string) (*Location, error) {
	if err := p.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	url := fmt.Sprintf("%s/%s", p.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ip-api: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ip-api: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ip-api: status %d: %w", resp.StatusCode, ErrNoData)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("ip-api: reading response: %w", err)
	}

	var payload ipapiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("ip-api: decoding response: %w", err)
	}
	if payload.Status != "success" {
		return nil, fmt.Errorf("ip-api: status %q (%s): %w", payload.Status, payload.Message, ErrNoData)
	}

	loc := &Location{
		Country: payload.CountryCode,
		Region:  payload.RegionName,
		City:    payload.City,
		ISP:     payload.ISP,
	}
	if asn := firstToken(payload.AS); asn != "" {
		loc.ASN = asn
	}
	if payload.Lat != nil && payload.Lon != nil {
		loc.Coords(*payload.Lat, *payload.Lon)
	}
	return loc, nil
}
