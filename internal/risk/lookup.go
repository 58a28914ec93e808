// Package risk attaches cost-of-risk and prepayment curves to priced loans.
// The two source tables are merged into one per-type lookup of aligned date
// series; assignment filters each loan's series to its maturity.
package risk

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/atlasfin/loanengine/internal/apperror"
	"github.com/atlasfin/loanengine/internal/assumption"
	"github.com/atlasfin/loanengine/internal/model"
	"github.com/atlasfin/loanengine/pkg/datetime"
)

// Lookup resolves a loan type to its aligned risk series.
type Lookup struct {
	types map[string]model.RiskCurve
}

// Get returns the full risk series for a loan type.
func (l *Lookup) Get(loanType string) (model.RiskCurve, bool) {
	entry, ok := l.types[loanType]
	return entry, ok
}

// Len returns the number of loan types in the lookup.
func (l *Lookup) Len() int {
	return len(l.types)
}

// NewLookupFromCurves merges the mapping-form risk tables into aligned
// per-type series. The merge is outer on (type, date): a date present in
// only one source appears with 0 for the other, and a type present in only
// one source gets zeros throughout the missing side.
func NewLookupFromCurves(cost, prepay map[string]model.Curve) *Lookup {
	types := make(map[string]model.RiskCurve, len(cost))
	for loanType := range cost {
		types[loanType] = mergeEntry(cost[loanType], prepay[loanType])
	}
	for loanType := range prepay {
		if _, ok := types[loanType]; !ok {
			types[loanType] = mergeEntry(cost[loanType], prepay[loanType])
		}
	}
	return &Lookup{types: types}
}

// NewLookupFromTables builds the lookup from wide-form tables: one row per
// loan type, one date column per period. This is the tables' entry point,
// so cells are typed and percent-normalized here; blank or unusable cells
// become 0 at their date, matching the mapping-form merge. Unparseable date
// columns are skipped.
func NewLookupFromTables(cost, prepay model.Table, logger *slog.Logger) (*Lookup, error) {
	if logger == nil {
		logger = slog.Default()
	}

	costCurves, err := tableCurves(cost, logger)
	if err != nil {
		return nil, err
	}
	prepayCurves, err := tableCurves(prepay, logger)
	if err != nil {
		return nil, err
	}
	return NewLookupFromCurves(costCurves, prepayCurves), nil
}

func mergeEntry(cost, prepay model.Curve) model.RiskCurve {
	dates := unionDates(cost, prepay)
	entry := model.RiskCurve{
		Dates:      dates,
		CostOfRisk: make([]decimal.Decimal, len(dates)),
		Prepayment: make([]decimal.Decimal, len(dates)),
	}
	for i, d := range dates {
		if v, ok := cost[d]; ok {
			entry.CostOfRisk[i] = v
		}
		if v, ok := prepay[d]; ok {
			entry.Prepayment[i] = v
		}
	}
	return entry
}

func unionDates(a, b model.Curve) []datetime.Date {
	dates := make([]datetime.Date, 0, len(a)+len(b))
	for d := range a {
		dates = append(dates, d)
	}
	for d := range b {
		if _, ok := a[d]; !ok {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j].Time) })
	return dates
}

func tableCurves(t model.Table, logger *slog.Logger) (map[string]model.Curve, error) {
	typeCol := t.ColumnIndex(model.ColumnTypeOfLoan)
	if typeCol < 0 {
		return nil, apperror.MissingColumn(t.Name, model.ColumnTypeOfLoan)
	}

	dateCols := make(map[int]datetime.Date, len(t.Columns))
	for ci, col := range t.Columns {
		if ci == typeCol {
			continue
		}
		date, err := datetime.ParseDate(strings.TrimSpace(col))
		if err != nil {
			logger.Warn("Skipping unparseable date column",
				slog.String("table", t.Name),
				slog.String("column", col),
			)
			continue
		}
		dateCols[ci] = date
	}

	curves := make(map[string]model.Curve, t.Len())
	for ri := range t.Rows {
		loanType := t.CellAt(ri, typeCol)
		if loanType == "" {
			continue
		}
		curve := make(model.Curve, len(dateCols))
		for ci, date := range dateCols {
			curve[date] = assumption.NormalizeNumeric(model.ParseNumeric(t.CellAt(ri, ci)))
		}
		curves[loanType] = curve
	}
	return curves, nil
}
