// Package segmentation splits a loan tape into the groups the pricing stages
// run on: performing loans by calculation bucket and rate type,
// non-performing loans by guarantee cover, and the problematic records
// excluded from pricing altogether.
package segmentation

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/atlasfin/loanengine/internal/apperror"
	"github.com/atlasfin/loanengine/internal/model"
)

// GuaranteeSource selects where NPL guarantee values are read from.
type GuaranteeSource int

const (
	// GuaranteeSourceEmbedded reads the tape's own guarantee column.
	GuaranteeSourceEmbedded GuaranteeSource = iota
	// GuaranteeSourceTable reads the standalone guarantee table that
	// complex-format tapes ship alongside the loan records.
	GuaranteeSourceTable
)

// Input is one run's tape plus its guarantee data.
type Input struct {
	Loans      []model.Loan
	Source     GuaranteeSource
	Guarantees []model.GuaranteeEntry // required for GuaranteeSourceTable
}

// Result is the segmented portfolio. Every tape record lands in exactly one
// of its sets: a numbered bucket's floating or fixed slice, Asset, Special,
// NotFound, one of the NPL sides, or the problematic report.
type Result struct {
	Floating map[model.Bucket][]model.Loan
	Fixed    map[model.Bucket][]model.Loan
	Asset    []model.Loan
	Special  []model.Loan
	NotFound []model.Loan

	NPLWithGuarantee    []model.Loan
	NPLWithoutGuarantee []model.Loan

	Problematic []model.Loan
	Summary     Summary
}

// Summary is the per-run segmentation tally. Performing counts loans that
// survived the problematic filter.
type Summary struct {
	TotalLoans          int `json:"totalLoans"`
	Performing          int `json:"performingCount"`
	NonPerforming       int `json:"nonPerformingCount"`
	NPLWithGuarantee    int `json:"nplWithGuarantees"`
	NPLWithoutGuarantee int `json:"nplWithoutGuarantees"`
	Problematic         int `json:"problematicCount"`
}

// Classifier runs the segmentation stage.
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier creates a Classifier logging through the given logger.
func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{logger: logger}
}

// Segment splits the tape into the full portfolio Result. Loans whose type
// maps to the non-performing bucket (called bank guarantees) are dropped
// from the performing set, as are unmapped types from pricing; both events
// are logged with counts and the unmapped records kept on the Result.
func (c *Classifier) Segment(in Input) (*Result, error) {
	c.logger.Info("Segmenting loan tape", slog.Int("loan_count", len(in.Loans)))

	pl, npl := SplitPerforming(in.Loans)

	var withG, withoutG []model.Loan
	if len(npl) > 0 {
		var err error
		withG, withoutG, err = SplitGuarantees(npl, in.Source, in.Guarantees)
		if err != nil {
			return nil, fmt.Errorf("split non-performing loans: %w", err)
		}
	}

	kept, problematic := FilterProblematic(pl)
	if len(problematic) > 0 {
		c.logger.Warn("Excluding problematic loans from pricing",
			slog.Int("count", len(problematic)),
		)
	}

	buckets := AssignBuckets(kept)
	if n := len(buckets[model.BucketNonPerforming]); n > 0 {
		c.logger.Warn("Dropping called-guarantee loans from the performing set",
			slog.Int("count", n),
		)
	}
	if n := len(buckets[model.BucketNotFound]); n > 0 {
		c.logger.Warn("Loan types missing from the bucket table",
			slog.Int("count", n),
		)
	}

	result := &Result{
		Floating:            make(map[model.Bucket][]model.Loan, len(model.NumberedBuckets)),
		Fixed:               make(map[model.Bucket][]model.Loan, len(model.NumberedBuckets)),
		Asset:               buckets[model.BucketAsset],
		Special:             buckets[model.BucketSpecial],
		NotFound:            buckets[model.BucketNotFound],
		NPLWithGuarantee:    withG,
		NPLWithoutGuarantee: withoutG,
		Problematic:         problematic,
		Summary: Summary{
			TotalLoans:          len(in.Loans),
			Performing:          len(kept),
			NonPerforming:       len(npl),
			NPLWithGuarantee:    len(withG),
			NPLWithoutGuarantee: len(withoutG),
			Problematic:         len(problematic),
		},
	}
	for _, b := range model.NumberedBuckets {
		floating, fixed := SplitRateType(buckets[b])
		result.Floating[b] = floating
		result.Fixed[b] = fixed
	}

	c.logger.Info("Segmentation complete",
		slog.Int("performing", result.Summary.Performing),
		slog.Int("non_performing", result.Summary.NonPerforming),
		slog.Int("problematic", result.Summary.Problematic),
	)
	return result, nil
}

// SplitPerforming partitions the tape into performing and non-performing
// records. Only a past-due cell that parsed to a real date makes a loan
// non-performing; blank or unreadable cells count as "no past due".
func SplitPerforming(loans []model.Loan) (pl, npl []model.Loan) {
	for _, l := range loans {
		if l.Status() == model.StatusNonPerforming {
			npl = append(npl, l)
		} else {
			pl = append(pl, l)
		}
	}
	return pl, npl
}

// SplitGuarantees partitions non-performing loans by guarantee cover. The
// best (maximum) guarantee value per loan ID decides: strictly positive
// means covered. Simple tapes carry the value on the loan record itself;
// complex tapes ship a standalone guarantee table whose rows are filtered
// to the non-performing IDs first. Unusable values count as zero.
func SplitGuarantees(npl []model.Loan, src GuaranteeSource, table []model.GuaranteeEntry) (with, without []model.Loan, err error) {
	best := make(map[string]decimal.Decimal, len(npl))

	switch src {
	case GuaranteeSourceTable:
		if table == nil {
			return nil, nil, apperror.MissingTable(model.TableGuarantees)
		}
		ids := make(map[string]bool, len(npl))
		for _, l := range npl {
			ids[l.ID] = true
		}
		for _, e := range table {
			if !ids[e.LoanID] {
				continue
			}
			v := decimal.Zero
			if e.Value.Valid {
				v = e.Value.Decimal
			}
			if cur, ok := best[e.LoanID]; !ok || v.GreaterThan(cur) {
				best[e.LoanID] = v
			}
		}
	default:
		for _, l := range npl {
			v := decimal.Zero
			if l.Guarantee.Valid {
				v = l.Guarantee.Decimal
			}
			if cur, ok := best[l.ID]; !ok || v.GreaterThan(cur) {
				best[l.ID] = v
			}
		}
	}

	for _, l := range npl {
		if best[l.ID].IsPositive() {
			with = append(with, l)
		} else {
			without = append(without, l)
		}
	}
	return with, without, nil
}

// FilterProblematic removes performing loans that carry too little data to
// price. Excluded records are returned for the audit report; kept plus
// problematic always partition the input exactly.
func FilterProblematic(pl []model.Loan) (kept, problematic []model.Loan) {
	for _, l := range pl {
		if IsProblematic(l) {
			problematic = append(problematic, l)
		} else {
			kept = append(kept, l)
		}
	}
	return kept, problematic
}

// IsProblematic reports whether a performing loan is unpriceable. All three
// must hold: the maturity cell is blank or a sentinel, the type is outside
// the revolving set, and the balance is blank, a sentinel or exactly zero.
// A maturity or balance that is merely unparseable does not count.
func IsProblematic(l model.Loan) bool {
	if l.Maturity != nil || !model.IsMissingText(l.MaturityText) {
		return false
	}
	if model.RevolvingTypes[strings.TrimSpace(l.Type)] {
		return false
	}
	if l.Balance.Valid {
		return l.Balance.Decimal.IsZero()
	}
	return model.IsMissingText(l.Balance.Raw)
}

// AssignBuckets groups performing loans by segmentation bucket, trimming
// the type cell before lookup. Unmapped types land in the NotFound group.
func AssignBuckets(pl []model.Loan) map[model.Bucket][]model.Loan {
	buckets := make(map[model.Bucket][]model.Loan)
	for _, l := range pl {
		b := model.SegmentationBucket(strings.TrimSpace(l.Type))
		buckets[b] = append(buckets[b], l)
	}
	return buckets
}

// SplitRateType partitions a bucket's loans by the exact, case-sensitive
// floating marker. Everything else prices as fixed.
func SplitRateType(loans []model.Loan) (floating, fixed []model.Loan) {
	for _, l := range loans {
		if l.IsFloating() {
			floating = append(floating, l)
		} else {
			fixed = append(fixed, l)
		}
	}
	return floating, fixed
}
