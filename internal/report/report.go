// Package report shapes a pricing run into its serializable outputs: the
// pre-run portfolio composition, the enriched output table under its
// contract column names, the run report and the problematic-loan audit.
package report

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlasfin/loanengine/internal/model"
	"github.com/atlasfin/loanengine/internal/pipeline"
	"github.com/atlasfin/loanengine/internal/segmentation"
	"github.com/atlasfin/loanengine/pkg/currency"
	"github.com/atlasfin/loanengine/pkg/datetime"
)

// PortfolioSummary is the tape's composition before any processing.
type PortfolioSummary struct {
	TotalLoans int                      `json:"totalLoans"`
	ByType     map[string]int           `json:"byType"`
	ByStatus   map[model.LoanStatus]int `json:"byStatus"`
	ByRateType map[string]int           `json:"byRateType"`
}

// SummarizePortfolio tallies the raw tape by loan type, derived status and
// rate type.
func SummarizePortfolio(loans []model.Loan) PortfolioSummary {
	s := PortfolioSummary{
		TotalLoans: len(loans),
		ByType:     make(map[string]int),
		ByStatus:   make(map[model.LoanStatus]int),
		ByRateType: make(map[string]int),
	}
	for _, l := range loans {
		s.ByType[strings.TrimSpace(l.Type)]++
		s.ByStatus[l.Status()]++
		s.ByRateType[strings.TrimSpace(l.RateType)]++
	}
	return s
}

// Log writes the composition at Info, with the per-category tallies at
// Debug.
func (s PortfolioSummary) Log(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Portfolio composition",
		slog.Int("total_loans", s.TotalLoans),
		slog.Int("loan_types", len(s.ByType)),
		slog.Int("performing", s.ByStatus[model.StatusPerforming]),
		slog.Int("non_performing", s.ByStatus[model.StatusNonPerforming]),
	)
	for loanType, n := range s.ByType {
		logger.Debug("Loan type count", slog.String("loan_type", loanType), slog.Int("count", n))
	}
	for rateType, n := range s.ByRateType {
		logger.Debug("Rate type count", slog.String("rate_type", rateType), slog.Int("count", n))
	}
}

// OutputRecord is one enriched loan flattened under the output table's
// column names. The appended scalar and curve names are a contract with the
// valuation engine and must not drift.
type OutputRecord struct {
	LoanID   string            `json:"Unique Loan ID"`
	LoanType string            `json:"Type of Loan"`
	Currency currency.Currency `json:"Currency"`
	Maturity *datetime.Date    `json:"Maturity Date"`
	Balance  model.Numeric     `json:"Outstanding Balance After Adjustments"`

	TypeOfCalculation string `json:"Type of Calculation"`
	InterestRateType  string `json:"interest_rate_type"`

	ValDate            *datetime.Date    `json:"val_date"`
	OutputCurrency     currency.Currency `json:"output_currency"`
	GlobalTaxFlag      string            `json:"global_tax_flag"`
	GlobalTax          decimal.Decimal   `json:"global_tax"`
	CorSpread          decimal.Decimal   `json:"cor_spread"`
	DrSensitivityVar   decimal.Decimal   `json:"dr_sensitivity_var"`
	DrSensitivityRange decimal.Decimal   `json:"dr_sensitivity_range"`
	CrSensitivityVar   decimal.Decimal   `json:"cr_sensitivity_var"`
	CrSensitivityRange decimal.Decimal   `json:"cr_sensitivity_range"`

	FXRate                 decimal.Decimal     `json:"fx_rate"`
	TaxRate                decimal.Decimal     `json:"tax_rate"`
	DiscountRate           decimal.NullDecimal `json:"discount_rate"`
	FeesUndrawnCommitment  decimal.NullDecimal `json:"fees_undrawn_commitment"`
	FeesOutstandingBalance decimal.NullDecimal `json:"fees_outstanding_balance"`
	ServicingFee           decimal.NullDecimal `json:"servicing_fee"`

	TotalRates model.RateCurve `json:"total_rates"`
	RiskRates  model.RiskCurve `json:"risk_rates"`
}

// BuildOutput flattens the successfully enriched buckets, in bucket order,
// into output records.
func BuildOutput(res *pipeline.Result) []OutputRecord {
	var records []OutputRecord
	for _, b := range res.Buckets {
		if b.Err != nil {
			continue
		}
		for _, l := range b.Loans {
			records = append(records, outputRecord(l))
		}
	}
	return records
}

func outputRecord(l model.PricedLoan) OutputRecord {
	rec := OutputRecord{
		LoanID:            l.ID,
		LoanType:          l.Type,
		Currency:          l.Currency,
		Maturity:          l.Maturity,
		Balance:           l.Balance,
		TypeOfCalculation: string(l.Bucket),
		InterestRateType:  string(l.InterestRateType),
		TotalRates:        l.TotalRates,
		RiskRates:         l.RiskRates,
	}
	if e := l.Enrichment; e != nil {
		rec.ValDate = e.ValuationDate
		rec.OutputCurrency = e.OutputCurrency
		rec.GlobalTaxFlag = e.GlobalTaxFlag
		rec.GlobalTax = e.GlobalTax
		rec.CorSpread = e.CostOfRiskSpread
		rec.DrSensitivityVar = e.DiscountSensitivityVar
		rec.DrSensitivityRange = e.DiscountSensitivityRange
		rec.CrSensitivityVar = e.CostRiskSensitivityVar
		rec.CrSensitivityRange = e.CostRiskSensitivityRange
		rec.FXRate = e.FXRate
		rec.TaxRate = e.TaxRate
		rec.DiscountRate = e.DiscountRate
		rec.FeesUndrawnCommitment = e.FeesUndrawn
		rec.FeesOutstandingBalance = e.FeesOutstanding
		rec.ServicingFee = e.ServicingFee
	}
	return rec
}

// BucketOutcome is one numbered bucket's result line in the run report.
type BucketOutcome struct {
	Bucket    model.Bucket `json:"bucket"`
	LoanCount int          `json:"loanCount"`
	Error     string       `json:"error,omitempty"`
}

// RunReport is the run-level account of a pricing run.
type RunReport struct {
	ReportID    uuid.UUID `json:"reportId"`
	RunID       uuid.UUID `json:"runId"`
	GeneratedAt time.Time `json:"generatedAt"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`

	Summary segmentation.Summary `json:"summary"`
	Buckets []BucketOutcome      `json:"buckets"`

	AssetLoans    int `json:"assetLoans"`
	SpecialLoans  int `json:"specialLoans"`
	NotFoundLoans int `json:"notFoundLoans"`

	// ValuationGrid is the month-end time axis from the valuation date
	// through the latest priced maturity.
	ValuationGrid []datetime.Date `json:"valuationGrid,omitempty"`
}

// BuildRunReport assembles the run report from a pipeline result.
func BuildRunReport(res *pipeline.Result) RunReport {
	rep := RunReport{
		ReportID:      uuid.New(),
		RunID:         res.RunID,
		GeneratedAt:   time.Now().UTC(),
		StartedAt:     res.StartedAt,
		FinishedAt:    res.FinishedAt,
		Summary:       res.Summary,
		Buckets:       make([]BucketOutcome, 0, len(res.Buckets)),
		AssetLoans:    len(res.Asset),
		SpecialLoans:  len(res.Special),
		NotFoundLoans: len(res.NotFound),
		ValuationGrid: valuationGrid(res),
	}
	for _, b := range res.Buckets {
		out := BucketOutcome{Bucket: b.Bucket, LoanCount: len(b.Loans)}
		if b.Err != nil {
			out.Error = b.Err.Error()
		}
		rep.Buckets = append(rep.Buckets, out)
	}
	return rep
}

// valuationGrid derives the run's time axis from the enriched valuation date
// and the latest maturity across priced loans. Either bound missing means no
// grid.
func valuationGrid(res *pipeline.Result) []datetime.Date {
	var valDate, maxMaturity *datetime.Date
	for _, b := range res.Buckets {
		for i := range b.Loans {
			l := &b.Loans[i]
			if valDate == nil && l.Enrichment != nil && l.Enrichment.ValuationDate != nil {
				valDate = l.Enrichment.ValuationDate
			}
			if l.Maturity != nil && (maxMaturity == nil || l.Maturity.After(maxMaturity.Time)) {
				maxMaturity = l.Maturity
			}
		}
	}
	if valDate == nil || maxMaturity == nil || maxMaturity.Before(valDate.Time) {
		return nil
	}
	return datetime.MonthEndSeries(*valDate, *maxMaturity)
}

// ProblematicEntry pairs an excluded loan's id with its full record for the
// audit trail.
type ProblematicEntry struct {
	LoanID string     `json:"loanId"`
	Record model.Loan `json:"record"`
}

// BuildProblematicReport lists the loans the problematic filter excluded.
func BuildProblematicReport(res *pipeline.Result) []ProblematicEntry {
	entries := make([]ProblematicEntry, 0, len(res.Problematic))
	for _, l := range res.Problematic {
		entries = append(entries, ProblematicEntry{LoanID: l.ID, Record: l})
	}
	return entries
}
