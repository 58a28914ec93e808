package model

import (
	"github.com/shopspring/decimal"

	"github.com/atlasfin/loanengine/pkg/currency"
	"github.com/atlasfin/loanengine/pkg/datetime"
)

type LoanStatus string

const (
	StatusPerforming    LoanStatus = "PL"
	StatusNonPerforming LoanStatus = "NPL"
)

// FloatingMarker is the exact tape cell that marks a floating-rate loan.
// The comparison is case sensitive: anything else, including "floating" or
// "FLOATING", is treated as fixed.
const FloatingMarker = "Floating"

type InterestRateType string

const (
	InterestRateFloating InterestRateType = "floating"
	InterestRateFixed    InterestRateType = "fixed"
)

// Loan types recognized by the bucket tables.
const (
	TypeMediumLongTerm       = "Medium / Long Term Loan"
	TypeRELeasing            = "RE Leasing"
	TypeOverdraft            = "Overdraft"
	TypeSyndicated           = "Syndicated Loan"
	TypeFactoring            = "Factoring"
	TypeResidentialMortgage  = "Residential Mortgage"
	TypeCreditCard           = "Credit Card"
	TypeCorporateDevelopment = "Corporate/ Development Loan"
	TypeCurrentAccount       = "Current Account"
	TypeNonRELeasing         = "Non RE Leasing"
	TypeDiscountedBill       = "Discounted Bill/ Note"
	TypeConsumer             = "Consumer Loan"
	TypeOther                = "Other"
	TypeTradeFinance         = "Trade Finance"
	TypeRestructured         = "Restructured Loan"
	TypeUncalledGuarantee    = "Uncalled Bank Guarantee"
	TypeCalledGuarantee      = "Called Bank Guarantee"
)

// RevolvingTypes are facilities with no scheduled amortization. A missing
// maturity is expected for these, so they are exempt from the
// problematic-loan filter.
var RevolvingTypes = map[string]bool{
	TypeCurrentAccount: true,
	TypeOverdraft:      true,
	TypeCreditCard:     true,
}

// Loan is one tape record. Optional cells are pointers or Null types; raw
// numeric text is preserved in Numeric so sentinel and percent-suffix
// detection happen once, at ingestion. MaturityText keeps the original cell
// because the problematic-loan filter distinguishes a blank or sentinel
// maturity from one that is merely unparseable.
type Loan struct {
	ID           string              `json:"id"`
	Type         string              `json:"type"`
	RateType     string              `json:"rateType"` // raw cell; FloatingMarker means floating
	Currency     currency.Currency   `json:"currency"`
	Balance      Numeric             `json:"balance"`
	Maturity     *datetime.Date      `json:"maturity,omitempty"`
	MaturityText string              `json:"-"`
	PastDue      *datetime.Date      `json:"pastDue,omitempty"`
	Index        string              `json:"index,omitempty"`
	Margin       Numeric             `json:"margin"`
	NominalRate  Numeric             `json:"nominalRate"`
	Guarantee    decimal.NullDecimal `json:"guarantee"`
}

// Status derives PL/NPL from the past-due cell: only a cell that parsed to
// a real date makes the loan non-performing.
func (l Loan) Status() LoanStatus {
	if l.PastDue != nil {
		return StatusNonPerforming
	}
	return StatusPerforming
}

func (l Loan) IsFloating() bool {
	return l.RateType == FloatingMarker
}

// HasGuarantee reports whether the loan's best guarantee value is strictly
// positive. A missing value counts as zero.
func (l Loan) HasGuarantee() bool {
	return l.Guarantee.Valid && l.Guarantee.Decimal.IsPositive()
}

// GuaranteeEntry is one row of the standalone guarantee table used by
// complex-format tapes. A loan ID may appear on several rows, one per
// pledged asset.
type GuaranteeEntry struct {
	LoanID string              `json:"loanId"`
	Value  decimal.NullDecimal `json:"value"`
}

// PricedLoan is a loan carried through the pricing stages. Each stage fills
// its own fields and never mutates the embedded tape record.
type PricedLoan struct {
	Loan
	Bucket           Bucket           `json:"bucket"`
	InterestRateType InterestRateType `json:"interestRateType,omitempty"`
	TotalRates       RateCurve        `json:"totalRates"`
	RiskRates        RiskCurve        `json:"riskRates"`
	Enrichment       *Enrichment      `json:"enrichment,omitempty"`
}

// ValuationInputs are the run-level assumption scalars repeated on every
// enriched loan, mirroring the flat output table.
type ValuationInputs struct {
	ValuationDate            *datetime.Date    `json:"valDate"`
	OutputCurrency           currency.Currency `json:"outputCurrency"`
	GlobalTaxFlag            string            `json:"globalTaxFlag"`
	GlobalTax                decimal.Decimal   `json:"globalTax"`
	CostOfRiskSpread         decimal.Decimal   `json:"corSpread"`
	DiscountSensitivityVar   decimal.Decimal   `json:"drSensitivityVar"`
	DiscountSensitivityRange decimal.Decimal   `json:"drSensitivityRange"`
	CostRiskSensitivityVar   decimal.Decimal   `json:"crSensitivityVar"`
	CostRiskSensitivityRange decimal.Decimal   `json:"crSensitivityRange"`
}

// Enrichment is the per-loan scalar set appended by the enrichment stage.
// Fee fields stay null when the loan's type is not priced by the bucket's
// rates/fees table.
type Enrichment struct {
	ValuationInputs
	FXRate          decimal.Decimal     `json:"fxRate"`
	TaxRate         decimal.Decimal     `json:"taxRate"`
	DiscountRate    decimal.NullDecimal `json:"discountRate"`
	FeesUndrawn     decimal.NullDecimal `json:"feesUndrawnCommitment"`
	FeesOutstanding decimal.NullDecimal `json:"feesOutstandingBalance"`
	ServicingFee    decimal.NullDecimal `json:"servicingFee"`
}
