// File: internal/geo/enricher_test.go
package geo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/exitscope/api/schemas"
	"github.com/xkilldash9x/exitscope/internal/config"
)

// scriptedProvider returns a canned result and counts how often it was
// asked, which is what the budget assertions hinge on.
type scriptedProvider struct {
	name    string
	network bool
	loc     *Location
	err     error
	calls   int
}

func (p *scriptedProvider) Name() string  { return p.name }
func (p *scriptedProvider) Network() bool { return p.network }

func (p *scriptedProvider) Lookup(_ context.Context, _ string) (*Location, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.loc, nil
}

// closingProvider wraps scriptedProvider with a Close the enricher must
// invoke on shutdown.
type closingProvider struct {
	scriptedProvider
	closed bool
}

func (p *closingProvider) Close() error {
	p.closed = true
	return nil
}

func fullLocation() *Location {
	loc := &Location{
		Country: "NL",
		Region:  "North Holland",
		City:    "Amsterdam",
		ASN:     "AS1101",
		ISP:     "SURF B.V.",
	}
	loc.Coords(52.3676, 4.9041)
	return loc
}

func TestEnrichSkipsCompleteNodes(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{name: "api", network: true, loc: fullLocation()}
	e := NewEnricherWithProviders([]Provider{provider}, zap.NewNop())

	node := schemas.NewNode("8.8.8.8")
	node.Country = "US"
	node.SetCoords(37.0, -95.0)

	used := e.Enrich(context.Background(), &node, true)

	assert.False(t, used)
	assert.Zero(t, provider.calls)
	assert.Equal(t, "US", node.Country)
	assert.InDelta(t, 37.0, *node.Latitude, 1e-9)
}

func TestEnrichFillsOnlyMissingFields(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{name: "api", network: true, loc: fullLocation()}
	e := NewEnricherWithProviders([]Provider{provider}, zap.NewNop())

	node := schemas.NewNode("52.1.2.3")
	node.Country = "DE"
	node.ISP = "Deutsche Telekom AG"

	used := e.Enrich(context.Background(), &node, true)

	assert.True(t, used)
	// Pre-existing fields survive; gaps take the provider's values.
	assert.Equal(t, "DE", node.Country)
	assert.Equal(t, "Deutsche Telekom AG", node.ISP)
	assert.Equal(t, "North Holland", node.Region)
	assert.Equal(t, "Amsterdam", node.City)
	assert.Equal(t, "AS1101", node.ASN)
	require.NotNil(t, node.Latitude)
	assert.InDelta(t, 52.3676, *node.Latitude, 1e-9)
}

func TestEnrichWalksChainInOrder(t *testing.T) {
	t.Parallel()

	t.Run("unconfigured provider is skipped silently", func(t *testing.T) {
		t.Parallel()

		first := &scriptedProvider{name: "keyed", network: true, err: ErrNotConfigured}
		second := &scriptedProvider{name: "free", network: true, loc: fullLocation()}
		e := NewEnricherWithProviders([]Provider{first, second}, zap.NewNop())

		node := schemas.NewNode("52.1.2.3")
		used := e.Enrich(context.Background(), &node, true)

		assert.True(t, used)
		assert.Equal(t, 1, first.calls)
		assert.Equal(t, 1, second.calls)
		assert.Equal(t, "NL", node.Country)
	})

	t.Run("empty-handed provider falls through to the next", func(t *testing.T) {
		t.Parallel()

		first := &scriptedProvider{name: "keyed", network: true, err: ErrNoData}
		second := &scriptedProvider{name: "free", network: true, loc: fullLocation()}
		e := NewEnricherWithProviders([]Provider{first, second}, zap.NewNop())

		node := schemas.NewNode("52.1.2.3")
		used := e.Enrich(context.Background(), &node, true)

		assert.True(t, used)
		assert.Equal(t, 1, first.calls)
		assert.Equal(t, 1, second.calls)
		assert.Equal(t, "NL", node.Country)
	})

	t.Run("first success stops the chain", func(t *testing.T) {
		t.Parallel()

		first := &scriptedProvider{name: "keyed", network: true, loc: fullLocation()}
		second := &scriptedProvider{name: "free", network: true, loc: fullLocation()}
		e := NewEnricherWithProviders([]Provider{first, second}, zap.NewNop())

		node := schemas.NewNode("52.1.2.3")
		e.Enrich(context.Background(), &node, true)

		assert.Equal(t, 1, first.calls)
		assert.Zero(t, second.calls)
	})
}

func TestEnrichFallsBackWhenChainFails(t *testing.T) {
	t.Parallel()

	first := &scriptedProvider{name: "keyed", network: true, err: ErrNoData}
	second := &scriptedProvider{name: "free", network: true, err: ErrNoData}
	e := NewEnricherWithProviders([]Provider{first, second}, zap.NewNop())

	node := schemas.NewNode("8.8.8.8")
	used := e.Enrich(context.Background(), &node, true)

	// The network was attempted, so the call still counts against the
	// budget even though the heuristic supplied the data.
	assert.True(t, used)
	assert.Equal(t, "US", node.Country)
	require.NotNil(t, node.Latitude)
	assert.InDelta(t, 37.0902, *node.Latitude, 1e-9)
}

func TestEnrichFullyUnconfiguredChainIsFree(t *testing.T) {
	t.Parallel()

	first := &scriptedProvider{name: "keyed", network: true, err: ErrNotConfigured}
	second := &scriptedProvider{name: "free", network: true, err: ErrNotConfigured}
	e := NewEnricherWithProviders([]Provider{first, second}, zap.NewNop())

	node := schemas.NewNode("8.8.8.8")
	used := e.Enrich(context.Background(), &node, true)

	// No provider actually reached the network, so nothing is charged.
	assert.False(t, used)
	assert.Equal(t, "US", node.Country)
}

func TestEnrichOfflineUsesHeuristicOnly(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{name: "api", network: true, loc: fullLocation()}
	e := NewEnricherWithProviders([]Provider{provider}, zap.NewNop())

	node := schemas.NewNode("101.2.3.4")
	used := e.Enrich(context.Background(), &node, false)

	assert.False(t, used)
	assert.Zero(t, provider.calls)
	assert.Equal(t, "CN", node.Country)
	require.NotNil(t, node.Latitude)
	assert.InDelta(t, 35.8617, *node.Latitude, 1e-9)
}

// Not parallel: the leak check in the last subtest must run while no
// sibling test is mid-flight.
func TestEnrichBatchBudget(t *testing.T) {
	t.Run("budget caps network nodes and the rest degrade", func(t *testing.T) {
		t.Parallel()

		provider := &scriptedProvider{name: "api", network: true, loc: fullLocation()}
		e := NewEnricherWithProviders([]Provider{provider}, zap.NewNop())

		nodes := []schemas.Node{
			schemas.NewNode("8.8.8.8"),
			schemas.NewNode("9.9.9.9"),
			schemas.NewNode("8.8.4.4"),
			schemas.NewNode("1.1.1.1"),
			schemas.NewNode("1.0.0.1"),
		}
		calls := e.EnrichBatch(context.Background(), nodes, true, 2)

		assert.Equal(t, 2, calls)
		assert.Equal(t, 2, provider.calls)
		// The first two nodes carry provider data, the rest the heuristic.
		assert.Equal(t, "NL", nodes[0].Country)
		assert.Equal(t, "NL", nodes[1].Country)
		assert.Equal(t, "US", nodes[2].Country)
		assert.Equal(t, "US", nodes[3].Country)
		assert.Equal(t, "US", nodes[4].Country)
		for i := range nodes {
			assert.True(t, nodes[i].HasLocation(), "node %d should be located", i)
		}
	})

	t.Run("zero budget never touches the network", func(t *testing.T) {
		t.Parallel()

		provider := &scriptedProvider{name: "api", network: true, loc: fullLocation()}
		e := NewEnricherWithProviders([]Provider{provider}, zap.NewNop())

		nodes := []schemas.Node{
			schemas.NewNode("8.8.8.8"),
			schemas.NewNode("60.1.2.3"),
		}
		calls := e.EnrichBatch(context.Background(), nodes, true, 0)

		assert.Zero(t, calls)
		assert.Zero(t, provider.calls)
		assert.Equal(t, "US", nodes[0].Country)
		assert.Equal(t, "EU", nodes[1].Country)
	})

	t.Run("already located nodes consume no budget", func(t *testing.T) {
		t.Parallel()

		provider := &scriptedProvider{name: "api", network: true, loc: fullLocation()}
		e := NewEnricherWithProviders([]Provider{provider}, zap.NewNop())

		complete := schemas.NewNode("5.5.5.5")
		complete.Country = "FR"
		complete.SetCoords(46.2276, 2.2137)

		nodes := []schemas.Node{
			complete,
			schemas.NewNode("8.8.8.8"),
			schemas.NewNode("9.9.9.9"),
		}
		calls := e.EnrichBatch(context.Background(), nodes, true, 1)

		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, provider.calls)
		assert.Equal(t, "FR", nodes[0].Country)
		assert.Equal(t, "NL", nodes[1].Country)
		assert.Equal(t, "US", nodes[2].Country)
	})

	t.Run("cancelled context degrades everything to the heuristic", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		provider := &scriptedProvider{name: "api", network: true, loc: fullLocation()}
		e := NewEnricherWithProviders([]Provider{provider}, zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		nodes := []schemas.Node{
			schemas.NewNode("8.8.8.8"),
			schemas.NewNode("9.9.9.9"),
		}
		calls := e.EnrichBatch(ctx, nodes, true, 10)

		assert.Zero(t, calls)
		assert.Zero(t, provider.calls)
		for i := range nodes {
			assert.True(t, nodes[i].HasLocation(), "node %d should still be located", i)
		}
	})
}

func TestEnricherCloseReleasesProviders(t *testing.T) {
	t.Parallel()

	closer := &closingProvider{scriptedProvider: scriptedProvider{name: "mmdb"}}
	plain := &scriptedProvider{name: "api", network: true}
	e := NewEnricherWithProviders([]Provider{plain, closer}, zap.NewNop())

	require.NoError(t, e.Close())
	assert.True(t, closer.closed)
}

func TestNewEnricherBuildsChainFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("http providers only by default", func(t *testing.T) {
		t.Parallel()

		cfg := config.GeoConfig{
			MinInterval: 100 * time.Millisecond,
			Timeout:     time.Second,
			IPInfoURL:   "https://ipinfo.example",
			IPAPIURL:    "http://ipapi.example/json",
		}
		e := NewEnricher(cfg, zap.NewNop())
		defer e.Close()

		require.Len(t, e.providers, 2)
		assert.Equal(t, "ipinfo", e.providers[0].Name())
		assert.Equal(t, "ip-api", e.providers[1].Name())
	})

	t.Run("missing mmdb directory logs and is skipped", func(t *testing.T) {
		t.Parallel()

		cfg := config.GeoConfig{
			MinInterval: 100 * time.Millisecond,
			Timeout:     time.Second,
			IPInfoURL:   "https://ipinfo.example",
			IPAPIURL:    "http://ipapi.example/json",
			MMDBDir:     t.TempDir(), // no databases inside
		}
		e := NewEnricher(cfg, zap.NewNop())
		defer e.Close()

		require.Len(t, e.providers, 2)
	})
}
