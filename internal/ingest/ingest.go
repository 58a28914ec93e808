// Package ingest loads the pipeline's file inputs: the loan tape and the
// consolidated guarantee table from CSV, the assumption workbook from YAML.
// Cells are kept as raw text into the typed records; sentinel detection and
// percent normalization belong to the stages that consume them.
package ingest

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/atlasfin/loanengine/internal/apperror"
	"github.com/atlasfin/loanengine/internal/model"
	"github.com/atlasfin/loanengine/pkg/currency"
	"github.com/atlasfin/loanengine/pkg/datetime"
)

// Loan tape column names.
const (
	ColumnLoanID      = "Unique Loan ID"
	ColumnRateType    = "Interest Rate Type"
	ColumnCurrency    = "Currency"
	ColumnMaturity    = "Maturity Date"
	ColumnPastDue     = "Past Due Date"
	ColumnBalance     = "Outstanding Balance After Adjustments"
	ColumnNominalRate = "Interest Rate (%)"
	ColumnMargin      = "Interest Rate Margin (%)"
	ColumnIndex       = "Index"
	ColumnGuarantee   = "Guarantee current value"
)

// requiredTapeColumns must exist on every tape. The rate and guarantee
// columns are conditional on rate type and tape format, so their absence
// just reads as missing cells.
var requiredTapeColumns = []string{
	ColumnLoanID,
	model.ColumnTypeOfLoan,
	ColumnRateType,
	ColumnCurrency,
	ColumnMaturity,
	ColumnPastDue,
	ColumnBalance,
}

// Loader reads input files into the model types.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadTape reads the loan tape CSV into typed loan records. A required
// column that is missing fails the load; unusable cells inside a row
// become sentinels on the record instead.
func (ld *Loader) LoadTape(path string) ([]model.Loan, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	return ld.loansFromTable(&table)
}

func (ld *Loader) loansFromTable(t *model.Table) ([]model.Loan, error) {
	for _, col := range requiredTapeColumns {
		if !t.HasColumn(col) {
			return nil, apperror.MissingColumn(t.Name, col)
		}
	}

	loans := make([]model.Loan, 0, t.Len())
	for ri := range t.Rows {
		maturity := t.Cell(ri, ColumnMaturity)
		l := model.Loan{
			ID:           t.Cell(ri, ColumnLoanID),
			Type:         t.Cell(ri, model.ColumnTypeOfLoan),
			RateType:     t.Cell(ri, ColumnRateType),
			Currency:     currency.Normalize(t.Cell(ri, ColumnCurrency)),
			Balance:      model.ParseNumeric(t.Cell(ri, ColumnBalance)),
			MaturityText: maturity,
			Index:        indexName(t.Cell(ri, ColumnIndex)),
			Margin:       model.ParseNumeric(t.Cell(ri, ColumnMargin)),
			NominalRate:  model.ParseNumeric(t.Cell(ri, ColumnNominalRate)),
			Guarantee:    numericNull(t.Cell(ri, ColumnGuarantee)),
		}
		if d, err := datetime.ParseDate(maturity); err == nil {
			l.Maturity = &d
		}
		if d, err := datetime.ParseDate(t.Cell(ri, ColumnPastDue)); err == nil {
			l.PastDue = &d
		}
		loans = append(loans, l)
	}

	ld.logger.Info("Loan tape loaded",
		slog.String("table", t.Name),
		slog.Int("loan_count", len(loans)),
	)
	return loans, nil
}

// LoadGuarantees reads the consolidated guarantee table shipped alongside
// complex-format tapes. Rows without a loan id are dropped.
func (ld *Loader) LoadGuarantees(path string) ([]model.GuaranteeEntry, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{ColumnLoanID, ColumnGuarantee} {
		if !table.HasColumn(col) {
			return nil, apperror.MissingColumn(table.Name, col)
		}
	}

	entries := make([]model.GuaranteeEntry, 0, table.Len())
	dropped := 0
	for ri := range table.Rows {
		id := table.Cell(ri, ColumnLoanID)
		if id == "" {
			dropped++
			continue
		}
		entries = append(entries, model.GuaranteeEntry{
			LoanID: id,
			Value:  numericNull(table.Cell(ri, ColumnGuarantee)),
		})
	}

	if dropped > 0 {
		ld.logger.Warn("Dropped guarantee rows without a loan id",
			slog.String("table", table.Name),
			slog.Int("row_count", dropped),
		)
	}
	ld.logger.Info("Guarantee table loaded",
		slog.String("table", table.Name),
		slog.Int("entry_count", len(entries)),
	)
	return entries, nil
}

// LoadRiskTable reads a wide-form risk table, one loan type per row under
// date columns, in the shape risk.NewLookupFromTables consumes.
func (ld *Loader) LoadRiskTable(path string) (model.Table, error) {
	return readTable(path)
}

// readTable reads a CSV file into a Table. The first row is the header;
// ragged rows are tolerated and read as empty cells.
func readTable(path string) (model.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.Table{}, fmt.Errorf("open table file: %w", err)
	}
	defer file.Close()

	name := filepath.Base(path)

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return model.Table{}, fmt.Errorf("read %s: %w", name, err)
	}
	if len(records) == 0 {
		return model.Table{}, apperror.Structural(name, "table file has no header row")
	}

	header := records[0]
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}
	return model.Table{Name: name, Columns: header, Rows: records[1:]}, nil
}

// indexName canonicalizes the index cell: sentinel spellings mean the loan
// has no index.
func indexName(raw string) string {
	if model.IsMissingText(raw) {
		return ""
	}
	return raw
}

// numericNull converts an amount cell to a nullable decimal.
func numericNull(raw string) decimal.NullDecimal {
	n := model.ParseNumeric(raw)
	return decimal.NullDecimal{Decimal: n.Decimal, Valid: n.Valid}
}
