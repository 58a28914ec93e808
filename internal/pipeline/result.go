package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/atlasfin/loanengine/internal/enrich"
	"github.com/atlasfin/loanengine/internal/model"
	"github.com/atlasfin/loanengine/internal/segmentation"
)

// Result is the outcome of one pricing run. Buckets holds the four numbered
// groups in order, each carrying its loans or its failure; the remaining
// fields are the segmentation groups that bypass pricing.
type Result struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time

	Summary segmentation.Summary
	Buckets []enrich.BucketResult

	Asset               []model.Loan
	Special             []model.Loan
	NPLWithGuarantee    []model.Loan
	NPLWithoutGuarantee []model.Loan
	NotFound            []model.Loan
	Problematic         []model.Loan
}

// EnrichedLoans flattens the successfully enriched buckets in bucket order.
func (r *Result) EnrichedLoans() []model.PricedLoan {
	var all []model.PricedLoan
	for _, b := range r.Buckets {
		if b.Err == nil {
			all = append(all, b.Loans...)
		}
	}
	return all
}

// FailedBuckets returns the bucket results that carry an error.
func (r *Result) FailedBuckets() []enrich.BucketResult {
	var failed []enrich.BucketResult
	for _, b := range r.Buckets {
		if b.Err != nil {
			failed = append(failed, b)
		}
	}
	return failed
}
