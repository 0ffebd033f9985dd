// File: internal/risk/engine.go

// Package risk scores exit nodes with an explainable, rule-based engine.
// Every point a node receives is matched by a human-readable factor string,
// so a report can always answer "why is this node High".
package risk

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/exitscope/api/schemas"
	"github.com/xkilldash9x/exitscope/internal/config"
)

// Rule weights. The rule data (which ports, which keywords, which
// thresholds) lives in configuration; the weights are part of the engine's
// definition and change only with a code change.
const (
	weightHighRiskPort   = 3.0
	weightMediumRiskPort = 1.5
	weightDatacenterISP  = 2.0
	weightDatacenterASN  = 1.5
	weightVPNProvider    = 1.0
	weightSparseMetadata = 0.5
)

// Engine is a stateless scorer; one instance serves any number of
// concurrent Score calls.
type Engine struct {
	highPorts   map[int]struct{}
	mediumPorts map[int]struct{}
	// keywords are pre-lowered datacenter/hosting indicators matched as
	// substrings against ISP and ASN text.
	keywords        []string
	highThreshold   float64
	mediumThreshold float64
	logger          *zap.Logger
}

// NewEngine builds an engine from the rule data in cfg.
func NewEngine(cfg config.RiskConfig, logger *zap.Logger) *Engine {
	e := &Engine{
		highPorts:       make(map[int]struct{}, len(cfg.HighRiskPorts)),
		mediumPorts:     make(map[int]struct{}, len(cfg.MediumRiskPorts)),
		keywords:        make([]string, 0, len(cfg.DatacenterKeywords)),
		highThreshold:   cfg.HighThreshold,
		mediumThreshold: cfg.MediumThreshold,
		logger:          logger,
	}
	for _, port := range cfg.HighRiskPorts {
		e.highPorts[port] = struct{}{}
	}
	for _, port := range cfg.MediumRiskPorts {
		e.mediumPorts[port] = struct{}{}
	}
	for _, kw := range cfg.DatacenterKeywords {
		e.keywords = append(e.keywords, strings.ToLower(kw))
	}
	return e
}

// Score assesses a single node in place, replacing its score, level and
// factor list wholesale. Scoring the same node twice yields the same
// result; factors never accumulate across calls.
func (e *Engine) Score(node *schemas.Node) {
	score := 0.0
	factors := make([]string, 0, 4)

	// Port rules are mutually exclusive; the high set shadows the medium
	// set when a port appears in both.
	if node.Port != 0 {
		if _, ok := e.highPorts[node.Port]; ok {
			score += weightHighRiskPort
			factors = append(factors, fmt.Sprintf("High-risk port (%d)", node.Port))
		} else if _, ok := e.mediumPorts[node.Port]; ok {
			score += weightMediumRiskPort
			factors = append(factors, fmt.Sprintf("Medium-risk port (%d)", node.Port))
		}
	}

	ispLower := strings.ToLower(node.ISP)
	if node.ISP != "" && containsAny(ispLower, e.keywords) {
		score += weightDatacenterISP
		factors = append(factors, "Datacenter/hosting provider")
	}

	if node.ASN != "" && containsAny(strings.ToLower(node.ASN), e.keywords) {
		score += weightDatacenterASN
		factors = append(factors, "Datacenter ASN pattern")
	}

	// Independent of the keyword list: an ISP naming itself a VPN is its
	// own signal and stacks with the datacenter rule.
	if node.ISP != "" && strings.Contains(ispLower, "vpn") {
		score += weightVPNProvider
		factors = append(factors, "Known VPN provider")
	}

	missing := 0
	for _, field := range []string{node.Country, node.ISP, node.ASN} {
		if field == "" {
			missing++
		}
	}
	if missing >= 2 {
		score += weightSparseMetadata
		factors = append(factors, "Insufficient metadata")
	}

	node.RiskScore = round2(score)
	node.RiskLevel = e.classify(node.RiskScore)
	node.RiskFactors = factors
}

// ScoreBatch assesses every node concurrently. Each goroutine owns one
// disjoint slice slot, so the group is the only synchronization required.
func (e *Engine) ScoreBatch(ctx context.Context, nodes []schemas.Node) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range nodes {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.Score(&nodes[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("risk assessment aborted: %w", err)
	}

	e.logger.Debug("Risk assessment finished", zap.Int("nodes", len(nodes)))
	return nil
}

func (e *Engine) classify(score float64) schemas.RiskLevel {
	switch {
	case score >= e.highThreshold:
		return schemas.RiskHigh
	case score >= e.mediumThreshold:
		return schemas.RiskMedium
	case score > 0:
		return schemas.RiskLow
	default:
		return schemas.RiskUnknown
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
