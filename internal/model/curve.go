package model

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/atlasfin/loanengine/pkg/datetime"
)

// Unit tags the scale a curve's values are stated in. Floating curves come
// out percent scale (1.49 means 1.49%), fixed curves fraction scale (0.05
// means 5%). The mismatch is inherited from the assumption workbook; it is
// recorded here so nothing downstream has to guess from magnitudes.
type Unit string

const (
	UnitPercent  Unit = "percent"
	UnitFraction Unit = "fraction"
)

// Curve is a date-indexed series of rates.
type Curve map[datetime.Date]decimal.Decimal

// Dates returns the curve's dates in ascending order.
func (c Curve) Dates() []datetime.Date {
	dates := make([]datetime.Date, 0, len(c))
	for d := range c {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j].Time) })
	return dates
}

// MaxDate returns the latest date on the curve, false when empty.
func (c Curve) MaxDate() (datetime.Date, bool) {
	var max datetime.Date
	found := false
	for d := range c {
		if !found || d.After(max.Time) {
			max = d
			found = true
		}
	}
	return max, found
}

// RateCurve is a loan's date→rate curve together with its unit tag.
type RateCurve struct {
	Unit   Unit  `json:"unit,omitempty"`
	Points Curve `json:"points"`
}

func NewRateCurve(unit Unit) RateCurve {
	return RateCurve{Unit: unit, Points: Curve{}}
}

func (c RateCurve) Len() int {
	return len(c.Points)
}

// RiskCurve is the aligned per-date risk series in the exact shape the
// valuation engine consumes.
type RiskCurve struct {
	Dates      []datetime.Date   `json:"Date"`
	CostOfRisk []decimal.Decimal `json:"Cost of Risk"`
	Prepayment []decimal.Decimal `json:"Prepayment Risk"`
}

// EmptyRiskCurve returns a curve whose arrays marshal as [] rather than null.
func EmptyRiskCurve() RiskCurve {
	return RiskCurve{
		Dates:      []datetime.Date{},
		CostOfRisk: []decimal.Decimal{},
		Prepayment: []decimal.Decimal{},
	}
}

func (r RiskCurve) Len() int {
	return len(r.Dates)
}
