// File: internal/pipeline/pipeline.go

// Package pipeline wires the processing stages together: validate, clean,
// enrich, score, aggregate. It owns stage construction and the per-run
// envelope; rendering belongs to internal/report and input parsing to
// internal/ingest.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/exitscope/api/schemas"
	"github.com/xkilldash9x/exitscope/internal/config"
	"github.com/xkilldash9x/exitscope/internal/geo"
	"github.com/xkilldash9x/exitscope/internal/ingest"
	"github.com/xkilldash9x/exitscope/internal/risk"
	"github.com/xkilldash9x/exitscope/internal/stats"
)

// ValidationError carries every dataset violation found before processing.
// The run halts on it; nothing has been enriched or scored yet.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("dataset validation failed: %s", strings.Join(e.Errors, "; "))
}

// RunOptions selects per-run behavior on top of the static configuration.
type RunOptions struct {
	// UseAPI enables the network provider chain; off means heuristic-only.
	UseAPI bool
	// MaxAPICalls caps network lookups for this run. Negative means "use
	// the configured default"; zero forbids the network entirely.
	MaxAPICalls int
	// Source labels the run in the report, usually the input path.
	Source string
}

// Pipeline owns the stages of one analysis flow and is reusable across runs.
type Pipeline struct {
	cfg       *config.Config
	processor *ingest.Processor
	enricher  *geo.Enricher
	engine    *risk.Engine
	logger    *zap.Logger
}

// New assembles a pipeline from configuration. Call Close when done; the
// enricher may hold local database handles.
func New(cfg *config.Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg: cfg,
		// NewProcessor names its own logger.
		processor: ingest.NewProcessor(cfg.Ingest, logger),
		enricher:  geo.NewEnricher(cfg.Geo, logger.Named("geo")),
		engine:    risk.NewEngine(cfg.Risk, logger.Named("risk")),
		logger:    logger,
	}
}

// Run takes a raw table through the full flow and assembles the report
// envelope. Validation failures halt the run with a *ValidationError before
// any enrichment or scoring happens; after that point no single record can
// abort the batch.
func (p *Pipeline) Run(ctx context.Context, table *ingest.Table, opts RunOptions) (*schemas.AnalysisReport, error) {
	startedAt := time.Now().UTC()
	runID := uuid.New().String()
	logger := p.logger.With(zap.String("run_id", runID))

	logger.Info("Starting analysis run",
		zap.String("source", opts.Source),
		zap.Int("rows", table.Len()),
		zap.Bool("use_api", opts.UseAPI))

	if ok, errs := p.processor.Validate(table); !ok {
		return nil, &ValidationError{Errors: errs}
	}

	cleaned := p.processor.Clean(table)
	nodes := p.processor.Nodes(cleaned)
	summary := ingest.Summarize(cleaned)

	maxCalls := opts.MaxAPICalls
	if maxCalls < 0 {
		maxCalls = p.cfg.Geo.DefaultMaxAPICalls
	}
	apiCalls := p.enricher.EnrichBatch(ctx, nodes, opts.UseAPI, maxCalls)

	if err := p.engine.ScoreBatch(ctx, nodes); err != nil {
		return nil, fmt.Errorf("scoring batch: %w", err)
	}

	report := &schemas.AnalysisReport{
		RunID:       runID,
		Source:      opts.Source,
		StartedAt:   startedAt,
		FinishedAt:  time.Now().UTC(),
		NodeCount:   len(nodes),
		APICalls:    apiCalls,
		UsedNetwork: opts.UseAPI && apiCalls > 0,
		Nodes:       nodes,
		Statistics:  stats.Compute(nodes),
		Summary:     summary,
	}

	logger.Info("Analysis run finished",
		zap.Int("nodes", report.NodeCount),
		zap.Int("api_calls", report.APICalls),
		zap.Int("high_risk", report.Statistics.HighRisk),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))
	return report, nil
}

// LookupAndAssess runs the single-IP path: validate the literal, enrich it
// through the provider chain (one node's budget), then score it.
func (p *Pipeline) LookupAndAssess(ctx context.Context, ip string) (*schemas.Node, error) {
	trimmed := strings.TrimSpace(ip)
	if !ingest.ValidIP(trimmed) {
		return nil, fmt.Errorf("invalid IP address %q", ip)
	}

	node := schemas.NewNode(trimmed)
	p.enricher.Enrich(ctx, &node, true)
	p.engine.Score(&node)

	p.logger.Info("Lookup finished",
		zap.String("ip", trimmed),
		zap.String("risk_level", string(node.RiskLevel)),
		zap.Float64("risk_score", node.RiskScore))
	return &node, nil
}

// Load reads a dataset file through the ingestion layer.
func (p *Pipeline) Load(path string) (*ingest.Table, error) {
	return p.processor.Load(path)
}

// Close releases stage resources.
func (p *Pipeline) Close() error {
	return p.enricher.Close()
}
