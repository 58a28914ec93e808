package assumption

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/atlasfin/loanengine/internal/apperror"
	"github.com/atlasfin/loanengine/internal/logger"
	"github.com/atlasfin/loanengine/internal/model"
	"github.com/atlasfin/loanengine/pkg/currency"
	"github.com/atlasfin/loanengine/pkg/datetime"
)

// LoanFees is one loan type's typed pricing row. A field stays null when
// the workbook cell was blank or unusable.
type LoanFees struct {
	LoanType        string
	DiscountRate    decimal.NullDecimal
	FeesUndrawn     decimal.NullDecimal
	FeesOutstanding decimal.NullDecimal
	ServicingFee    decimal.NullDecimal
}

// Store is the typed, normalized view over the assumption workbook. Curve
// and fee cells pass through the percent normalization exactly once, here;
// FX and tax rates are taken at face value.
type Store struct {
	log         *slog.Logger
	summary     map[string]string
	indexCurves map[string]model.Curve
	costOfRisk  map[string]model.Curve
	prepayment  map[string]model.Curve
	fx          map[currency.Pair]decimal.Decimal
	tax         map[currency.Currency]decimal.Decimal
	fees        []LoanFees
}

// NewStore builds a Store from a raw workbook. The index, cost-of-risk,
// prepayment and summary tables are required; FX, tax and rates/fees may be
// absent or empty.
func NewStore(wb *model.Workbook) (*Store, error) {
	switch {
	case wb == nil:
		return nil, apperror.Structural("workbook", "no workbook supplied")
	case wb.CostOfRisk == nil:
		return nil, apperror.MissingTable(model.TableCostOfRisk)
	case wb.Prepayment == nil:
		return nil, apperror.MissingTable(model.TablePrepayment)
	case wb.IndexCurves == nil:
		return nil, apperror.MissingTable(model.TableIndexRates)
	case wb.Summary == nil:
		return nil, apperror.MissingTable(model.TableSummary)
	}

	s := &Store{
		log:     logger.Logger().With("component", "assumptions"),
		summary: wb.Summary,
		fx:      make(map[currency.Pair]decimal.Decimal, len(wb.FX)),
		tax:     make(map[currency.Currency]decimal.Decimal, len(wb.Tax)),
		fees:    make([]LoanFees, 0, len(wb.RatesFees)),
	}

	s.indexCurves = s.buildCurves(model.TableIndexRates, wb.IndexCurves)
	s.costOfRisk = s.buildCurves(model.TableCostOfRisk, wb.CostOfRisk)
	s.prepayment = s.buildCurves(model.TablePrepayment, wb.Prepayment)

	for _, row := range wb.FX {
		rate := model.ParseNumeric(row.Rate)
		if !rate.Valid {
			s.log.Warn("dropping FX row with unusable rate",
				"quote", row.Quote, "base", row.Base, "rate", row.Rate)
			continue
		}
		s.fx[currency.NewPair(row.Quote, row.Base)] = rate.Decimal
	}

	for _, row := range wb.Tax {
		rate := model.ParseNumeric(row.Rate)
		if !rate.Valid {
			s.log.Warn("dropping tax row with unusable rate",
				"currency", row.Currency, "rate", row.Rate)
			continue
		}
		s.tax[currency.Normalize(row.Currency)] = rate.Decimal
	}

	for _, row := range wb.RatesFees {
		s.fees = append(s.fees, LoanFees{
			LoanType:        strings.TrimSpace(row.LoanType),
			DiscountRate:    feeCell(row.DiscountRate),
			FeesUndrawn:     feeCell(row.FeesUndrawn),
			FeesOutstanding: feeCell(row.FeesOutstanding),
			ServicingFee:    feeCell(row.ServicingFee),
		})
	}

	s.log.Info("assumption store built",
		"index_curves", len(s.indexCurves),
		"cost_of_risk_types", len(s.costOfRisk),
		"prepayment_types", len(s.prepayment),
		"fx_pairs", len(s.fx),
		"tax_currencies", len(s.tax),
		"fee_rows", len(s.fees))

	return s, nil
}

// buildCurves types and normalizes one raw curve table. Blank cells never
// become points; unparseable rates become zero; unparseable dates drop the
// point with a warning.
func (s *Store) buildCurves(table string, raw map[string]map[string]string) map[string]model.Curve {
	curves := make(map[string]model.Curve, len(raw))
	for key, cells := range raw {
		curve := model.Curve{}
		for dateText, rateText := range cells {
			date, err := datetime.ParseDate(strings.TrimSpace(dateText))
			if err != nil {
				s.log.Warn("dropping curve point with unparseable date",
					"table", table, "key", key, "date", dateText)
				continue
			}
			if model.IsMissingText(rateText) {
				continue
			}
			curve[date] = NormalizeNumeric(model.ParseNumeric(rateText))
		}
		curves[strings.TrimSpace(key)] = curve
	}
	return curves
}

func feeCell(raw string) decimal.NullDecimal {
	n := model.ParseNumeric(raw)
	if !n.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: NormalizeNumeric(n), Valid: true}
}

// IndexCurve returns the named index's rate curve. An unknown name yields
// an empty curve and a warning, never an error.
func (s *Store) IndexCurve(name string) model.Curve {
	if curve, ok := s.indexCurves[name]; ok {
		return curve
	}
	s.log.Warn("index curve not found", "table", model.TableIndexRates, "index", name)
	return model.Curve{}
}

// CostOfRiskCurves returns the loan-type keyed cost-of-risk curves.
func (s *Store) CostOfRiskCurves() map[string]model.Curve {
	return s.costOfRisk
}

// PrepaymentCurves returns the loan-type keyed prepayment-risk curves.
func (s *Store) PrepaymentCurves() map[string]model.Curve {
	return s.prepayment
}

// FXRate converts one unit of quote into base at the valuation date. An
// unknown pair converts at 1.
func (s *Store) FXRate(quote, base currency.Currency) decimal.Decimal {
	if rate, ok := s.fx[currency.Pair{Quote: quote, Base: base}]; ok {
		return rate
	}
	s.log.Debug("no FX rate for pair, using 1", "pair", currency.Pair{Quote: quote, Base: base}.String())
	return decimal.NewFromInt(1)
}

// TaxRate returns the corporate tax rate for a local currency, zero when
// unknown.
func (s *Store) TaxRate(cur currency.Currency) decimal.Decimal {
	if rate, ok := s.tax[cur]; ok {
		return rate
	}
	s.log.Debug("no tax rate for currency, using 0", "currency", string(cur))
	return decimal.Zero
}

// Fees returns every typed rates/fees row.
func (s *Store) Fees() []LoanFees {
	return s.fees
}

// Scalars extracts the run-level valuation inputs from the summary table.
// A missing label is structural; percent-scale labels are normalized here.
func (s *Store) Scalars() (model.ValuationInputs, error) {
	var out model.ValuationInputs

	rawDate, err := s.requiredLabel(model.LabelValuationDate)
	if err != nil {
		return out, err
	}
	if d, perr := datetime.ParseDate(rawDate); perr == nil {
		out.ValuationDate = &d
	} else {
		s.log.Warn("valuation date cell is not a date", "value", rawDate)
	}

	rawCurrency, err := s.requiredLabel(model.LabelOutputCurrency)
	if err != nil {
		return out, err
	}
	out.OutputCurrency = currency.Normalize(rawCurrency)

	out.GlobalTaxFlag, err = s.requiredLabel(model.LabelGlobalTaxFlag)
	if err != nil {
		return out, err
	}

	percentLabels := []struct {
		label string
		dst   *decimal.Decimal
	}{
		{model.LabelGlobalTax, &out.GlobalTax},
		{model.LabelCostOfRiskSpread, &out.CostOfRiskSpread},
		{model.LabelDiscountSensVar, &out.DiscountSensitivityVar},
		{model.LabelDiscountSensRange, &out.DiscountSensitivityRange},
		{model.LabelCostRiskSensVar, &out.CostRiskSensitivityVar},
		{model.LabelCostRiskSensRange, &out.CostRiskSensitivityRange},
	}
	for _, pl := range percentLabels {
		raw, err := s.requiredLabel(pl.label)
		if err != nil {
			return out, err
		}
		*pl.dst = NormalizeNumeric(model.ParseNumeric(raw))
	}

	return out, nil
}

func (s *Store) requiredLabel(label string) (string, error) {
	v, ok := s.summary[label]
	if !ok {
		return "", apperror.Structural(model.TableSummary, fmt.Sprintf("required label %q not found", label))
	}
	return v, nil
}
