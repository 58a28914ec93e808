package report

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasfin/loanengine/internal/enrich"
	"github.com/atlasfin/loanengine/internal/model"
	"github.com/atlasfin/loanengine/internal/pipeline"
	"github.com/atlasfin/loanengine/internal/segmentation"
	"github.com/atlasfin/loanengine/pkg/currency"
	"github.com/atlasfin/loanengine/pkg/datetime"
)

func datePtr(year int, month time.Month, day int) *datetime.Date {
	d := datetime.NewDate(year, month, day)
	return &d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func enrichedFixture() model.PricedLoan {
	return model.PricedLoan{
		Loan: model.Loan{
			ID:       "L-001",
			Type:     model.TypeConsumer,
			RateType: model.FloatingMarker,
			Currency: currency.USD,
			Balance:  model.ParseNumeric("120000.50"),
			Maturity: datePtr(2026, time.March, 31),
		},
		Bucket:           model.Bucket1,
		InterestRateType: model.InterestRateFloating,
		TotalRates: model.RateCurve{
			Unit: model.UnitPercent,
			Points: model.Curve{
				datetime.NewDate(2025, time.September, 30): dec("1.49"),
			},
		},
		RiskRates: model.RiskCurve{
			Dates:      []datetime.Date{datetime.NewDate(2025, time.September, 30)},
			CostOfRisk: []decimal.Decimal{dec("0.2")},
			Prepayment: []decimal.Decimal{dec("0.1")},
		},
		Enrichment: &model.Enrichment{
			ValuationInputs: model.ValuationInputs{
				ValuationDate:            datePtr(2025, time.June, 30),
				OutputCurrency:           currency.EUR,
				GlobalTaxFlag:            "Yes",
				GlobalTax:                dec("25"),
				CostOfRiskSpread:         dec("1"),
				DiscountSensitivityVar:   dec("0.5"),
				DiscountSensitivityRange: dec("1"),
				CostRiskSensitivityVar:   dec("0.2"),
				CostRiskSensitivityRange: dec("0.4"),
			},
			FXRate:          dec("0.92"),
			TaxRate:         dec("0.24"),
			DiscountRate:    decimal.NullDecimal{Decimal: dec("5"), Valid: true},
			FeesUndrawn:     decimal.NullDecimal{Decimal: dec("0.1"), Valid: true},
			FeesOutstanding: decimal.NullDecimal{Decimal: dec("0.2"), Valid: true},
		},
	}
}

func TestSummarizePortfolio(t *testing.T) {
	t.Parallel()

	loans := []model.Loan{
		{ID: "A", Type: model.TypeConsumer, RateType: model.FloatingMarker},
		{ID: "B", Type: "  Consumer ", RateType: "Fixed", PastDue: datePtr(2024, time.May, 1)},
		{ID: "C", Type: model.TypeOverdraft, RateType: model.FloatingMarker},
		{ID: "D"},
	}

	s := SummarizePortfolio(loans)

	assert.Equal(t, 4, s.TotalLoans)
	assert.Equal(t, map[string]int{
		model.TypeConsumer:  2,
		model.TypeOverdraft: 1,
		"":                  1,
	}, s.ByType)
	assert.Equal(t, map[model.LoanStatus]int{
		model.StatusPerforming:    3,
		model.StatusNonPerforming: 1,
	}, s.ByStatus)
	assert.Equal(t, map[string]int{
		model.FloatingMarker: 2,
		"Fixed":              1,
		"":                   1,
	}, s.ByRateType)
}

func TestBuildOutput(t *testing.T) {
	t.Parallel()

	priced := enrichedFixture()
	bare := model.PricedLoan{
		Loan:             model.Loan{ID: "X-001", Type: model.TypeDiscountedBill, Currency: currency.EUR},
		Bucket:           model.Bucket2,
		InterestRateType: model.InterestRateFixed,
		TotalRates:       model.NewRateCurve(model.UnitFraction),
		RiskRates:        model.EmptyRiskCurve(),
	}

	res := &pipeline.Result{
		Buckets: []enrich.BucketResult{
			{Bucket: model.Bucket1, Loans: []model.PricedLoan{priced}},
			{Bucket: model.Bucket2, Loans: []model.PricedLoan{bare}},
			{Bucket: model.Bucket3, Err: errors.New("fees table corrupted")},
			{Bucket: model.Bucket4, Loans: []model.PricedLoan{}},
		},
	}

	records := BuildOutput(res)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "L-001", first.LoanID)
	assert.Equal(t, model.TypeConsumer, first.LoanType)
	assert.Equal(t, "1", first.TypeOfCalculation)
	assert.Equal(t, "floating", first.InterestRateType)
	assert.Equal(t, currency.EUR, first.OutputCurrency)
	assert.True(t, first.GlobalTax.Equal(dec("25")))
	assert.True(t, first.FXRate.Equal(dec("0.92")))
	require.True(t, first.DiscountRate.Valid)
	assert.True(t, first.DiscountRate.Decimal.Equal(dec("5")))
	assert.False(t, first.ServicingFee.Valid)
	assert.Equal(t, 1, first.TotalRates.Len())
	assert.Equal(t, 1, first.RiskRates.Len())

	// A loan that was never enriched still flattens, with empty scalars.
	second := records[1]
	assert.Equal(t, "X-001", second.LoanID)
	assert.Equal(t, "2", second.TypeOfCalculation)
	assert.Equal(t, "fixed", second.InterestRateType)
	assert.Equal(t, currency.Currency(""), second.OutputCurrency)
	assert.False(t, second.DiscountRate.Valid)
	assert.True(t, second.GlobalTax.IsZero())
}

func TestOutputRecord_ContractNames(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(outputRecord(enrichedFixture()))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	for _, key := range []string{
		"Unique Loan ID",
		"Type of Loan",
		"Currency",
		"Maturity Date",
		"Outstanding Balance After Adjustments",
		"Type of Calculation",
		"interest_rate_type",
		"val_date",
		"output_currency",
		"global_tax_flag",
		"global_tax",
		"cor_spread",
		"dr_sensitivity_var",
		"dr_sensitivity_range",
		"cr_sensitivity_var",
		"cr_sensitivity_range",
		"fx_rate",
		"tax_rate",
		"discount_rate",
		"fees_undrawn_commitment",
		"fees_outstanding_balance",
		"servicing_fee",
		"total_rates",
		"risk_rates",
	} {
		assert.Contains(t, m, key)
	}
	assert.NotContains(t, m, "fxRate")
	assert.NotContains(t, m, "enrichment")

	assert.Equal(t, "2026-03-31", m["Maturity Date"])
	assert.Nil(t, m["servicing_fee"])

	risk, ok := m["risk_rates"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, risk, "Date")
	assert.Contains(t, risk, "Cost of Risk")
	assert.Contains(t, risk, "Prepayment Risk")
}

func TestBuildRunReport(t *testing.T) {
	t.Parallel()

	runID := uuid.New()
	started := time.Date(2025, time.June, 30, 9, 0, 0, 0, time.UTC)

	res := &pipeline.Result{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Summary: segmentation.Summary{
			TotalLoans:    6,
			Performing:    4,
			NonPerforming: 2,
			Problematic:   1,
		},
		Buckets: []enrich.BucketResult{
			{Bucket: model.Bucket1, Loans: []model.PricedLoan{enrichedFixture()}},
			{Bucket: model.Bucket2, Err: errors.New("summary assumptions: bad date")},
		},
		Asset:    []model.Loan{{ID: "G-1"}},
		Special:  []model.Loan{{ID: "S-1"}, {ID: "S-2"}},
		NotFound: []model.Loan{{ID: "U-1"}},
	}

	rep := BuildRunReport(res)

	assert.Equal(t, runID, rep.RunID)
	assert.NotEqual(t, uuid.Nil, rep.ReportID)
	assert.NotEqual(t, rep.RunID, rep.ReportID)
	assert.False(t, rep.GeneratedAt.IsZero())
	assert.Equal(t, started, rep.StartedAt)
	assert.Equal(t, 6, rep.Summary.TotalLoans)
	assert.Equal(t, 1, rep.AssetLoans)
	assert.Equal(t, 2, rep.SpecialLoans)
	assert.Equal(t, 1, rep.NotFoundLoans)

	// june valuation to march maturity: the valuation date plus nine month ends
	require.Len(t, rep.ValuationGrid, 10)
	assert.Equal(t, datetime.NewDate(2025, time.June, 30), rep.ValuationGrid[0])
	assert.Equal(t, datetime.NewDate(2026, time.March, 31), rep.ValuationGrid[9])

	require.Len(t, rep.Buckets, 2)
	assert.Equal(t, model.Bucket1, rep.Buckets[0].Bucket)
	assert.Equal(t, 1, rep.Buckets[0].LoanCount)
	assert.Empty(t, rep.Buckets[0].Error)
	assert.Equal(t, model.Bucket2, rep.Buckets[1].Bucket)
	assert.Zero(t, rep.Buckets[1].LoanCount)
	assert.Contains(t, rep.Buckets[1].Error, "summary assumptions")
}

func TestBuildProblematicReport(t *testing.T) {
	t.Parallel()

	res := &pipeline.Result{
		Problematic: []model.Loan{
			{ID: "P-1", Type: model.TypeConsumer, Balance: model.ParseNumeric("0")},
			{ID: "P-2", Type: model.TypeOther, MaturityText: "soon"},
		},
	}

	entries := BuildProblematicReport(res)
	require.Len(t, entries, 2)
	assert.Equal(t, "P-1", entries[0].LoanID)
	assert.Equal(t, "P-1", entries[0].Record.ID)
	assert.Equal(t, "P-2", entries[1].LoanID)

	empty := BuildProblematicReport(&pipeline.Result{})
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
