// Package pipeline wires segmentation, rate building, risk assignment and
// enrichment into one run over a loan tape. Stages run in order; the four
// numbered buckets flow through every stage while the remaining groups are
// carried on the result untouched.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atlasfin/loanengine/internal/enrich"
	"github.com/atlasfin/loanengine/internal/model"
	"github.com/atlasfin/loanengine/internal/rates"
	"github.com/atlasfin/loanengine/internal/risk"
	"github.com/atlasfin/loanengine/internal/segmentation"
)

// Assumptions is the store surface the pipeline stages read.
type Assumptions interface {
	rates.IndexSource
	enrich.AssumptionSource
	CostOfRiskCurves() map[string]model.Curve
	PrepaymentCurves() map[string]model.Curve
}

// Config tunes the pipeline stages.
type Config struct {
	// Risk configures the risk assignment stage.
	Risk risk.Config
	// EnrichWorkers bounds the enrichment task pool.
	EnrichWorkers int
	// RiskLookup, when set, replaces the lookup the engine would build
	// from the store's mapping-form curves. Callers with wide-form risk
	// tables build one with risk.NewLookupFromTables.
	RiskLookup *risk.Lookup
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Risk:          risk.DefaultConfig(),
		EnrichWorkers: 4,
	}
}

// Engine runs the pricing stages over one tape at a time.
type Engine struct {
	classifier *segmentation.Classifier
	rates      *rates.Builder
	assigner   *risk.Assigner
	enricher   *enrich.Enricher
	lookup     *risk.Lookup
	store      Assumptions
	logger     *slog.Logger
}

// NewEngine creates an Engine over the given assumption store.
func NewEngine(cfg Config, store Assumptions, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		classifier: segmentation.NewClassifier(logger),
		rates:      rates.NewBuilder(logger),
		assigner:   risk.NewAssigner(cfg.Risk, logger),
		enricher:   enrich.NewEnricher(store, cfg.EnrichWorkers, logger),
		lookup:     cfg.RiskLookup,
		store:      store,
		logger:     logger,
	}
}

// Run prices one loan tape end to end: segment, build rate curves, attach
// risk curves, enrich. A structural failure in segmentation aborts the run;
// enrichment failures stay on their bucket's result. The stages are
// CPU-bound and never block, so ctx is threaded to the logger only.
func (e *Engine) Run(ctx context.Context, in segmentation.Input) (*Result, error) {
	started := time.Now()
	runID := uuid.New()
	log := e.logger.With(slog.String("run_id", runID.String()))

	log.InfoContext(ctx, "Starting pricing run", slog.Int("loan_count", len(in.Loans)))

	segmented, err := e.classifier.Segment(in)
	if err != nil {
		return nil, fmt.Errorf("segment tape: %w", err)
	}

	combined := e.buildRates(ctx, log, segmented)
	e.assignRisk(combined)
	buckets := e.enricher.Enrich(combined)

	res := &Result{
		RunID:               runID,
		StartedAt:           started,
		FinishedAt:          time.Now(),
		Summary:             segmented.Summary,
		Buckets:             buckets,
		Asset:               segmented.Asset,
		Special:             segmented.Special,
		NPLWithGuarantee:    segmented.NPLWithGuarantee,
		NPLWithoutGuarantee: segmented.NPLWithoutGuarantee,
		NotFound:            segmented.NotFound,
		Problematic:         segmented.Problematic,
	}

	log.InfoContext(ctx, "Pricing run complete",
		slog.Int("enriched_loans", len(res.EnrichedLoans())),
		slog.Int("failed_buckets", len(res.FailedBuckets())),
		slog.Duration("duration", res.FinishedAt.Sub(res.StartedAt)),
	)

	return res, nil
}

// buildRates prices each numbered bucket's floating and fixed halves and
// concatenates them, floating first, the order the downstream stages keep.
func (e *Engine) buildRates(ctx context.Context, log *slog.Logger, segmented *segmentation.Result) map[model.Bucket][]model.PricedLoan {
	combined := make(map[model.Bucket][]model.PricedLoan, len(model.NumberedBuckets))
	total := 0
	for _, bucket := range model.NumberedBuckets {
		floating := e.rates.BuildFloating(bucket, segmented.Floating[bucket], e.store)
		fixed := e.rates.BuildFixed(bucket, segmented.Fixed[bucket])
		combined[bucket] = append(floating, fixed...)
		total += len(combined[bucket])
	}
	log.InfoContext(ctx, "Rate curves built", slog.Int("priced_loans", total))
	return combined
}

// assignRisk attaches risk curves to every combined bucket in place.
func (e *Engine) assignRisk(combined map[model.Bucket][]model.PricedLoan) {
	lookup := e.lookup
	if lookup == nil {
		lookup = risk.NewLookupFromCurves(e.store.CostOfRiskCurves(), e.store.PrepaymentCurves())
	}
	for _, bucket := range model.NumberedBuckets {
		combined[bucket] = e.assigner.Assign(bucket, combined[bucket], lookup)
	}
}
