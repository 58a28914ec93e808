// Package rates builds each performing loan's total-rate curve: index rate
// plus margin per curve date for floating loans, a single nominal-rate point
// at maturity for fixed loans.
package rates

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/atlasfin/loanengine/internal/model"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// IndexSource resolves a floating index name to its rate curve.
type IndexSource interface {
	IndexCurve(name string) model.Curve
}

// Builder constructs total-rate curves for performing loans.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a Builder logging through the given logger.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// BuildFloating prices one bucket's floating loans, tagging each result with
// the bucket and the floating rate type.
func (b *Builder) BuildFloating(bucket model.Bucket, loans []model.Loan, indexes IndexSource) []model.PricedLoan {
	b.logger.Info("Building floating rate curves",
		slog.String("bucket", string(bucket)),
		slog.Int("loan_count", len(loans)),
	)

	priced := make([]model.PricedLoan, 0, len(loans))
	for _, l := range loans {
		priced = append(priced, model.PricedLoan{
			Loan:             l,
			Bucket:           bucket,
			InterestRateType: model.InterestRateFloating,
			TotalRates:       b.FloatingCurve(l, indexes),
		})
	}
	return priced
}

// BuildFixed prices one bucket's fixed loans, tagging each result with the
// bucket and the fixed rate type.
func (b *Builder) BuildFixed(bucket model.Bucket, loans []model.Loan) []model.PricedLoan {
	b.logger.Info("Building fixed rate curves",
		slog.String("bucket", string(bucket)),
		slog.Int("loan_count", len(loans)),
	)

	priced := make([]model.PricedLoan, 0, len(loans))
	for _, l := range loans {
		priced = append(priced, model.PricedLoan{
			Loan:             l,
			Bucket:           bucket,
			InterestRateType: model.InterestRateFixed,
			TotalRates:       b.FixedCurve(l),
		})
	}
	return priced
}

// FloatingCurve computes one loan's percent-scale curve: for every index
// curve date on or before maturity, the index rate plus the loan's margin.
// The curve is empty when the loan has no index name, the index is not
// registered, or the maturity is missing. A missing margin counts as zero.
func (b *Builder) FloatingCurve(l model.Loan, indexes IndexSource) model.RateCurve {
	curve := model.NewRateCurve(model.UnitPercent)
	if l.Index == "" {
		return curve
	}

	indexCurve := indexes.IndexCurve(l.Index)
	if len(indexCurve) == 0 || l.Maturity == nil {
		return curve
	}

	margin := l.Margin.OrZero()
	for date, rate := range indexCurve {
		if date.OnOrBefore(*l.Maturity) {
			curve.Points[date] = rate.Add(margin)
		}
	}
	return curve
}

// FixedCurve computes one loan's fraction-scale curve: a single point at
// maturity holding the rescaled nominal rate, or an empty curve when the
// maturity is missing.
func (b *Builder) FixedCurve(l model.Loan) model.RateCurve {
	curve := model.NewRateCurve(model.UnitFraction)
	if l.Maturity == nil {
		return curve
	}
	curve.Points[*l.Maturity] = NominalDecimal(l.NominalRate)
	return curve
}

// NominalDecimal rescales a fixed loan's nominal rate to fraction units:
// "%"-suffixed text and plain values at or above 1 divide by 100, smaller
// values are already fractions. Missing or unusable cells price at zero.
func NominalDecimal(n model.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	if n.Percent || n.Decimal.GreaterThanOrEqual(one) {
		return n.Decimal.Div(hundred)
	}
	return n.Decimal
}
