package model

// Canonical assumption table aliases used throughout the pipeline.
const (
	TableCostOfRisk = "Cost_Risk"
	TablePrepayment = "Prepayment_Risk"
	TableIndexRates = "Index_Type"
	TableSummary    = "Assumption_Summary"
	TableFX         = "Assumption_FX"
	TableTax        = "Assumption_Tax"
	TableRatesFees  = "Rates_Fees"
	TableGuarantees = "GuaranteesConso"
)

// TableAliases maps workbook table titles to their canonical aliases.
var TableAliases = map[string]string{
	"Cost of Risk - Loan with Guarantee":    TableCostOfRisk,
	"Prepayment Risk - Loan with Guarantee": TablePrepayment,
	"Index Type":                            TableIndexRates,
}

// Assumption summary row labels.
const (
	LabelValuationDate     = "Valuation Date"
	LabelOutputCurrency    = "Output conclusions display currency"
	LabelGlobalTaxFlag     = "Global Tax Flag (Performing Loans only)"
	LabelGlobalTax         = "Global Tax (Performing Loans only)"
	LabelCostOfRiskSpread  = "Assumption: % of the initial debt to be repaid - minimum Credit Card Monthly Payment"
	LabelDiscountSensVar   = "Discount Rate Sensitivity Variance"
	LabelDiscountSensRange = "Sensitivity Table: Discount Rate Sensitivity Range"
	LabelCostRiskSensVar   = "Cost of Risk Sensitivity Variance"
	LabelCostRiskSensRange = "Sensitivity Table: Cost of Risk Sensitivity Range"
)

// Rates/fees table column names.
const (
	ColumnLoanTypes       = "Types of Loans"
	ColumnDiscountRate    = "Discount Rate"
	ColumnFeesUndrawn     = "Non-interest fees (over undrawn commitment)"
	ColumnFeesOutstanding = "Non-interest fees (over outstanding balance)"
	ColumnServicingFee    = "Servicing Fee"
)

// ColumnTypeOfLoan keys the wide risk tables and the loan tape itself.
const ColumnTypeOfLoan = "Type of Loan"

// FX and tax table column names.
const (
	ColumnQuoteCurrency = "Quote Currency"
	ColumnBaseCurrency  = "Base Currency"
	ColumnFXRate        = "Exchange Rate at Valuation Date"
	ColumnTaxCurrency   = "Local Currency (Performing Loans only)"
	ColumnCorporateTax  = "Corporate Tax"
)

// Workbook is the assumption workbook's logical layout with every cell kept
// as raw text. Typing and the one-pass percent normalization happen when an
// assumption store is built from it.
type Workbook struct {
	Summary     map[string]string            `yaml:"summary" validate:"required"`
	IndexCurves map[string]map[string]string `yaml:"index_curves" validate:"required"`
	CostOfRisk  map[string]map[string]string `yaml:"cost_of_risk" validate:"required"`
	Prepayment  map[string]map[string]string `yaml:"prepayment_risk" validate:"required"`
	FX          []FXRow                      `yaml:"fx"`
	Tax         []TaxRow                     `yaml:"tax"`
	RatesFees   []FeeRow                     `yaml:"rates_fees"`
}

// FXRow is one exchange-rate row: one unit of Quote expressed in Base at
// the valuation date.
type FXRow struct {
	Quote string `yaml:"quote"`
	Base  string `yaml:"base"`
	Rate  string `yaml:"rate"`
}

// TaxRow is one corporate-tax row keyed by local currency.
type TaxRow struct {
	Currency string `yaml:"currency"`
	Rate     string `yaml:"rate"`
}

// FeeRow is one loan type's row from the rates/fees table.
type FeeRow struct {
	LoanType        string `yaml:"loan_type"`
	DiscountRate    string `yaml:"discount_rate"`
	FeesUndrawn     string `yaml:"fees_undrawn_commitment"`
	FeesOutstanding string `yaml:"fees_outstanding_balance"`
	ServicingFee    string `yaml:"servicing_fee"`
}
