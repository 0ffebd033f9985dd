// File: internal/geo/enricher.go
package geo

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/xkilldash9x/exitscope/api/schemas"
	"github.com/xkilldash9x/exitscope/internal/config"
)

// Enricher fills missing geolocation fields on nodes by walking an ordered
// provider chain, falling back to the octet heuristic when every provider
// comes up empty. Nodes that already carry a full location are skipped, and
// existing fields are never overwritten.
type Enricher struct {
	providers []Provider
	client    *http.Client
	logger    *zap.Logger
}

// NewEnricher builds the provider chain from configuration: the keyed
// ipinfo provider first, the keyless ip-api provider second, and the local
// MaxMind databases last when a database directory is configured. The two
// HTTP providers share one client and one pacer, so the minimum interval
// holds across the whole chain.
func NewEnricher(cfg config.GeoConfig, logger *zap.Logger) *Enricher {
	client := NewHTTPClient()
	pacer := NewPacer(cfg.MinInterval)

	providers := []Provider{
		NewIPInfoProvider(cfg.IPInfoURL, cfg.IPInfoToken, cfg.Timeout, client, pacer),
		NewIPAPIProvider(cfg.IPAPIURL, cfg.Timeout, client, pacer),
	}

	if cfg.MMDBDir != "" {
		mmdb, err := NewMMDBProvider(cfg.MMDBDir)
		if err != nil {
			logger.Warn("Local MaxMind databases unavailable, continuing without them",
				zap.String("dir", cfg.MMDBDir), zap.Error(err))
		} else {
			providers = append(providers, mmdb)
		}
	}

	return &Enricher{providers: providers, client: client, logger: logger}
}

// NewEnricherWithProviders assembles an enricher over an explicit chain.
func NewEnricherWithProviders(providers []Provider, logger *zap.Logger) *Enricher {
	return &Enricher{providers: providers, logger: logger}
}

// Enrich fills the node's missing location fields in place. With useAPI set
// it walks the provider chain and applies the first successful result;
// otherwise (or when the whole chain fails) the heuristic fallback supplies
// coarse values. It reports whether any network call was attempted, which
// is what batch enrichment charges against the API budget.
func (e *Enricher) Enrich(ctx context.Context, node *schemas.Node, useAPI bool) bool {
	if node.HasLocation() {
		return false
	}

	if !useAPI {
		ApplyFallback(node)
		return false
	}

	loc, networkUsed := e.lookupChain(ctx, node.IP)
	if loc != nil {
		fill(node, loc)
	} else {
		ApplyFallback(node)
	}
	return networkUsed
}

// EnrichBatch enriches every node in place, charging each node that reaches
// the network against maxAPICalls. Once the budget is exhausted, or ctx is
// cancelled, the remaining nodes degrade to the offline fallback rather
// than fail. It returns the number of nodes that used the network.
func (e *Enricher) EnrichBatch(ctx context.Context, nodes []schemas.Node, useAPI bool, maxAPICalls int) int {
	apiCalls := 0
	for i := range nodes {
		networkAllowed := useAPI && apiCalls < maxAPICalls && ctx.Err() == nil
		if e.Enrich(ctx, &nodes[i], networkAllowed) {
			apiCalls++
		}
	}

	e.logger.Info("Geolocation enrichment finished",
		zap.Int("nodes", len(nodes)),
		zap.Int("api_calls", apiCalls),
		zap.Bool("network_enabled", useAPI))
	return apiCalls
}

// lookupChain asks each provider in order and returns the first result.
// Unconfigured providers are skipped silently; real failures are logged and
// the chain moves on. The second return value reports whether any network
// provider actually attempted a call.
func (e *Enricher) lookupChain(ctx context.Context, ip string) (*Location, bool) {
	networkUsed := false
	for _, p := range e.providers {
		loc, err := p.Lookup(ctx, ip)
		if err == nil {
			if p.Network() {
				networkUsed = true
			}
			return loc, networkUsed
		}
		if errors.Is(err, ErrNotConfigured) {
			continue
		}
		if p.Network() {
			networkUsed = true
		}
		e.logger.Debug("Geolocation provider returned no result",
			zap.String("provider", p.Name()),
			zap.String("ip", ip),
			zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, networkUsed
}

// fill copies provider data into the node's empty fields only.
func fill(node *schemas.Node, loc *Location) {
	if node.Country == "" {
		node.Country = loc.Country
	}
	if node.Region == "" {
		node.Region = loc.Region
	}
	if node.City == "" {
		node.City = loc.City
	}
	if node.ASN == "" {
		node.ASN = loc.ASN
	}
	if node.ISP == "" {
		node.ISP = loc.ISP
	}
	if (node.Latitude == nil || node.Longitude == nil) &&
		loc.Latitude != nil && loc.Longitude != nil {
		node.SetCoords(*loc.Latitude, *loc.Longitude)
	}
}

// Close releases any providers holding resources, such as the local
// database readers, and drops idle outbound connections.
func (e *Enricher) Close() error {
	var firstErr error
	for _, p := range e.providers {
		if closer, ok := p.(io.Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if e.client != nil {
		e.client.CloseIdleConnections()
	}
	return firstErr
}
