// Package enrich appends the run-level valuation scalars and per-type fee
// rates to priced loans. Each numbered bucket is enriched as one task on a
// small worker pool, and a failure in one bucket lands on that bucket's
// result without touching the others.
package enrich

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/atlasfin/loanengine/internal/assumption"
	"github.com/atlasfin/loanengine/internal/model"
	"github.com/atlasfin/loanengine/pkg/currency"
)

const defaultWorkers = 4

// AssumptionSource is the slice of the assumption store the enricher reads.
type AssumptionSource interface {
	Scalars() (model.ValuationInputs, error)
	FXRate(quote, base currency.Currency) decimal.Decimal
	TaxRate(cur currency.Currency) decimal.Decimal
	Fees() []assumption.LoanFees
}

// BucketResult is the outcome of enriching one numbered bucket.
type BucketResult struct {
	Bucket model.Bucket
	Loans  []model.PricedLoan
	Err    error
}

// Enricher fills the Enrichment field of priced loans from the assumption
// store.
type Enricher struct {
	store   AssumptionSource
	workers int
	logger  *slog.Logger
}

// NewEnricher creates an Enricher backed by the given assumption source.
// A workers value below one falls back to the default pool size.
func NewEnricher(store AssumptionSource, workers int, logger *slog.Logger) *Enricher {
	if workers < 1 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{store: store, workers: workers, logger: logger}
}

// Enrich runs one enrichment task per numbered bucket and returns the
// results in bucket order. The run-level scalars are read once up front;
// if they are unusable every bucket fails with that error.
func (e *Enricher) Enrich(buckets map[model.Bucket][]model.PricedLoan) []BucketResult {
	results := make([]BucketResult, len(model.NumberedBuckets))

	inputs, err := e.store.Scalars()
	if err != nil {
		e.logger.Error("Summary assumptions unusable, failing all buckets",
			slog.String("error", err.Error()),
		)
		for i, bucket := range model.NumberedBuckets {
			results[i] = BucketResult{Bucket: bucket, Err: fmt.Errorf("summary assumptions: %w", err)}
		}
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				bucket := model.NumberedBuckets[i]
				results[i] = e.enrichBucket(bucket, buckets[bucket], inputs)
			}
		}()
	}
	for i := range model.NumberedBuckets {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, res := range results {
		if res.Err != nil {
			e.logger.Error("Bucket enrichment failed",
				slog.String("bucket", string(res.Bucket)),
				slog.String("error", res.Err.Error()),
			)
			continue
		}
		e.logger.Info("Bucket enriched",
			slog.String("bucket", string(res.Bucket)),
			slog.Int("loan_count", len(res.Loans)),
		)
	}

	return results
}

// enrichBucket enriches one bucket's loans. A panic in the bucket's task is
// captured on its result so the remaining buckets still complete.
func (e *Enricher) enrichBucket(bucket model.Bucket, loans []model.PricedLoan, inputs model.ValuationInputs) (res BucketResult) {
	res.Bucket = bucket
	defer func() {
		if r := recover(); r != nil {
			res.Loans = nil
			res.Err = fmt.Errorf("enrich bucket %s: %v", bucket, r)
		}
	}()

	fees := e.bucketFees(bucket)
	out := make([]model.PricedLoan, len(loans))
	for i, l := range loans {
		out[i] = l
		out[i].Enrichment = e.enrichLoan(l.Loan, inputs, fees)
	}
	res.Loans = out
	return res
}

// enrichLoan builds one loan's scalar set. Fee fields stay null when the
// loan's type has no row in the bucket's rates and fees table.
func (e *Enricher) enrichLoan(l model.Loan, inputs model.ValuationInputs, fees map[string]assumption.LoanFees) *model.Enrichment {
	enrichment := &model.Enrichment{
		ValuationInputs: inputs,
		FXRate:          e.store.FXRate(l.Currency, inputs.OutputCurrency),
		TaxRate:         e.store.TaxRate(l.Currency),
	}
	if f, ok := fees[strings.TrimSpace(l.Type)]; ok {
		enrichment.DiscountRate = f.DiscountRate
		enrichment.FeesUndrawn = f.FeesUndrawn
		enrichment.FeesOutstanding = f.FeesOutstanding
		enrichment.ServicingFee = f.ServicingFee
	}
	return enrichment
}

// bucketFees indexes the fee rows priced under the given bucket by loan
// type. The rates and fees table spans all buckets; each row belongs to
// exactly one.
func (e *Enricher) bucketFees(bucket model.Bucket) map[string]assumption.LoanFees {
	fees := make(map[string]assumption.LoanFees)
	for _, row := range e.store.Fees() {
		if model.EnrichmentBucket(row.LoanType) == bucket {
			fees[row.LoanType] = row
		}
	}
	return fees
}
