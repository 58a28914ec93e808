package segmentation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasfin/loanengine/internal/apperror"
	"github.com/atlasfin/loanengine/internal/model"
	"github.com/atlasfin/loanengine/pkg/datetime"
)

func datePtr(t *testing.T, value string) *datetime.Date {
	t.Helper()
	d, err := datetime.ParseDate(value)
	require.NoError(t, err)
	return &d
}

func guarantee(value string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(value), Valid: true}
}

func TestSplitPerforming(t *testing.T) {
	t.Parallel()

	loans := []model.Loan{
		{ID: "L1"},
		{ID: "L2", PastDue: datePtr(t, "2020-03-15")},
		{ID: "L3"},
	}

	pl, npl := SplitPerforming(loans)

	require.Len(t, pl, 2)
	require.Len(t, npl, 1)
	assert.Equal(t, "L2", npl[0].ID)
	assert.Equal(t, "L1", pl[0].ID)
	assert.Equal(t, "L3", pl[1].ID)
}

func TestSplitGuarantees_Embedded(t *testing.T) {
	t.Parallel()

	npl := []model.Loan{
		{ID: "N1", Guarantee: guarantee("5000")},
		{ID: "N2"},
		{ID: "N3", Guarantee: guarantee("0")},
		{ID: "N4", Guarantee: guarantee("-10")},
		// duplicate ID rows: the best value wins for both
		{ID: "N5", Guarantee: guarantee("0")},
		{ID: "N5", Guarantee: guarantee("250")},
	}

	with, without, err := SplitGuarantees(npl, GuaranteeSourceEmbedded, nil)
	require.NoError(t, err)

	withIDs := loanIDs(with)
	withoutIDs := loanIDs(without)
	assert.ElementsMatch(t, []string{"N1", "N5", "N5"}, withIDs)
	assert.ElementsMatch(t, []string{"N2", "N3", "N4"}, withoutIDs)
}

func TestSplitGuarantees_Table(t *testing.T) {
	t.Parallel()

	npl := []model.Loan{
		{ID: "N1"},
		{ID: "N2"},
		{ID: "N3"},
	}
	table := []model.GuaranteeEntry{
		{LoanID: "N1", Value: guarantee("0")},
		{LoanID: "N1", Value: guarantee("120")},
		{LoanID: "N2", Value: guarantee("0")},
		// row for a loan that is not in the NPL set is ignored
		{LoanID: "P9", Value: guarantee("999")},
	}

	with, without, err := SplitGuarantees(npl, GuaranteeSourceTable, table)
	require.NoError(t, err)

	assert.Equal(t, []string{"N1"}, loanIDs(with))
	// N3 has no table row at all and counts as uncovered
	assert.Equal(t, []string{"N2", "N3"}, loanIDs(without))
}

func TestSplitGuarantees_TableMissing(t *testing.T) {
	t.Parallel()

	_, _, err := SplitGuarantees([]model.Loan{{ID: "N1"}}, GuaranteeSourceTable, nil)

	require.Error(t, err)
	assert.True(t, apperror.IsStructural(err))

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, model.TableGuarantees, appErr.Table)
}

func TestIsProblematic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		loan        model.Loan
		problematic bool
	}{
		{
			"all three conditions hold",
			model.Loan{ID: "L1", Type: "Consumer Loan", MaturityText: "not available", Balance: model.ParseNumeric("")},
			true,
		},
		{
			"zero balance counts as missing",
			model.Loan{ID: "L2", Type: "Consumer Loan", MaturityText: "", Balance: model.ParseNumeric("0")},
			true,
		},
		{
			"real maturity rescues the loan",
			model.Loan{ID: "L3", Type: "Consumer Loan", Maturity: datePtr(t, "2024-06-30"), MaturityText: "2024-06-30", Balance: model.ParseNumeric("0")},
			false,
		},
		{
			"revolving type is exempt",
			model.Loan{ID: "L4", Type: "Overdraft", MaturityText: "null", Balance: model.ParseNumeric("")},
			false,
		},
		{
			"positive balance rescues the loan",
			model.Loan{ID: "L5", Type: "Consumer Loan", MaturityText: "nan", Balance: model.ParseNumeric("1000")},
			false,
		},
		{
			"unparseable maturity is not a sentinel",
			model.Loan{ID: "L6", Type: "Consumer Loan", MaturityText: "soon", Balance: model.ParseNumeric("")},
			false,
		},
		{
			"unparseable balance is not a sentinel",
			model.Loan{ID: "L7", Type: "Consumer Loan", MaturityText: "", Balance: model.ParseNumeric("abc")},
			false,
		},
		{
			"padded revolving type is exempt",
			model.Loan{ID: "L8", Type: "  Credit Card  ", MaturityText: "", Balance: model.ParseNumeric("0")},
			false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.problematic, IsProblematic(tt.loan))
		})
	}
}

func TestFilterProblematic_Partition(t *testing.T) {
	t.Parallel()

	pl := []model.Loan{
		{ID: "L1", Type: "Consumer Loan", MaturityText: "", Balance: model.ParseNumeric("")},
		{ID: "L2", Type: "Consumer Loan", Maturity: datePtr(t, "2024-06-30"), MaturityText: "2024-06-30", Balance: model.ParseNumeric("500")},
		{ID: "L3", Type: "Overdraft", MaturityText: "", Balance: model.ParseNumeric("")},
		{ID: "L4", Type: "Factoring", MaturityText: "not applicable", Balance: model.ParseNumeric("0")},
	}

	kept, problematic := FilterProblematic(pl)

	assert.Len(t, kept, 2)
	assert.Len(t, problematic, 2)
	assert.ElementsMatch(t, []string{"L1", "L4"}, loanIDs(problematic))
	assert.ElementsMatch(t, loanIDs(pl), append(loanIDs(kept), loanIDs(problematic)...))
}

func TestAssignBuckets(t *testing.T) {
	t.Parallel()

	pl := []model.Loan{
		{ID: "L1", Type: "Medium / Long Term Loan"},
		{ID: "L2", Type: "Discounted Bill/ Note"},
		{ID: "L3", Type: "Overdraft"},
		{ID: "L4", Type: "Uncalled Bank Guarantee"},
		{ID: "L5", Type: "Called Bank Guarantee"},
		{ID: "L6", Type: "Mystery Product"},
		{ID: "L7", Type: "  Consumer Loan  "},
	}

	buckets := AssignBuckets(pl)

	assert.Equal(t, []string{"L1", "L7"}, loanIDs(buckets[model.Bucket1]))
	assert.Equal(t, []string{"L2"}, loanIDs(buckets[model.Bucket2]))
	assert.Equal(t, []string{"L3"}, loanIDs(buckets[model.BucketSpecial]))
	assert.Equal(t, []string{"L4"}, loanIDs(buckets[model.BucketAsset]))
	assert.Equal(t, []string{"L5"}, loanIDs(buckets[model.BucketNonPerforming]))
	assert.Equal(t, []string{"L6"}, loanIDs(buckets[model.BucketNotFound]))
}

func TestSplitRateType(t *testing.T) {
	t.Parallel()

	loans := []model.Loan{
		{ID: "L1", RateType: "Floating"},
		{ID: "L2", RateType: "Fixed"},
		{ID: "L3", RateType: "floating"},
		{ID: "L4", RateType: "FLOATING"},
		{ID: "L5", RateType: ""},
	}

	floating, fixed := SplitRateType(loans)

	assert.Equal(t, []string{"L1"}, loanIDs(floating))
	assert.Equal(t, []string{"L2", "L3", "L4", "L5"}, loanIDs(fixed))
}

func TestClassifier_Segment(t *testing.T) {
	t.Parallel()

	loans := []model.Loan{
		{ID: "L1", Type: "Medium / Long Term Loan", RateType: "Floating", Maturity: datePtr(t, "2025-06-30"), MaturityText: "2025-06-30", Balance: model.ParseNumeric("10000")},
		{ID: "L2", Type: "Discounted Bill/ Note", RateType: "Fixed", Maturity: datePtr(t, "2024-12-31"), MaturityText: "2024-12-31", Balance: model.ParseNumeric("2500")},
		{ID: "L3", Type: "Overdraft", RateType: "Floating", MaturityText: "", Balance: model.ParseNumeric("1000")},
		{ID: "L4", Type: "Uncalled Bank Guarantee", Balance: model.ParseNumeric("800")},
		{ID: "L5", Type: "Called Bank Guarantee", Balance: model.ParseNumeric("300")},
		{ID: "L6", Type: "Mystery Product", Maturity: datePtr(t, "2024-03-31"), MaturityText: "2024-03-31", Balance: model.ParseNumeric("70")},
		{ID: "L7", Type: "Consumer Loan", PastDue: datePtr(t, "2020-01-15"), Guarantee: guarantee("5000")},
		{ID: "L8", Type: "Consumer Loan", PastDue: datePtr(t, "2019-11-01")},
		{ID: "L9", Type: "Consumer Loan", MaturityText: "not available", Balance: model.ParseNumeric("")},
	}

	result, err := NewClassifier(nil).Segment(Input{Loans: loans})
	require.NoError(t, err)

	assert.Equal(t, []string{"L1"}, loanIDs(result.Floating[model.Bucket1]))
	assert.Equal(t, []string{"L2"}, loanIDs(result.Fixed[model.Bucket2]))
	// the Overdraft with no maturity and a real balance stays performing and
	// lands in Special untouched by the problematic filter
	assert.Equal(t, []string{"L3"}, loanIDs(result.Special))
	assert.Equal(t, []string{"L4"}, loanIDs(result.Asset))
	assert.Equal(t, []string{"L6"}, loanIDs(result.NotFound))
	assert.Equal(t, []string{"L7"}, loanIDs(result.NPLWithGuarantee))
	assert.Equal(t, []string{"L8"}, loanIDs(result.NPLWithoutGuarantee))
	assert.Equal(t, []string{"L9"}, loanIDs(result.Problematic))

	// the called-guarantee loan is dropped from every performing set
	for _, b := range model.NumberedBuckets {
		assert.NotContains(t, loanIDs(result.Floating[b]), "L5")
		assert.NotContains(t, loanIDs(result.Fixed[b]), "L5")
	}
	assert.NotContains(t, loanIDs(result.Asset), "L5")
	assert.NotContains(t, loanIDs(result.Special), "L5")
	assert.NotContains(t, loanIDs(result.NotFound), "L5")

	assert.Equal(t, Summary{
		TotalLoans:          9,
		Performing:          6,
		NonPerforming:       2,
		NPLWithGuarantee:    1,
		NPLWithoutGuarantee: 1,
		Problematic:         1,
	}, result.Summary)
}

func TestClassifier_Segment_TableSource(t *testing.T) {
	t.Parallel()

	loans := []model.Loan{
		{ID: "N1", Type: "Consumer Loan", PastDue: datePtr(t, "2020-01-15"), Guarantee: guarantee("9000")},
		{ID: "N2", Type: "Consumer Loan", PastDue: datePtr(t, "2020-02-20")},
	}
	table := []model.GuaranteeEntry{
		{LoanID: "N2", Value: guarantee("410")},
	}

	result, err := NewClassifier(nil).Segment(Input{
		Loans:      loans,
		Source:     GuaranteeSourceTable,
		Guarantees: table,
	})
	require.NoError(t, err)

	// the embedded guarantee column is ignored when the table drives the split
	assert.Equal(t, []string{"N2"}, loanIDs(result.NPLWithGuarantee))
	assert.Equal(t, []string{"N1"}, loanIDs(result.NPLWithoutGuarantee))
}

func TestClassifier_Segment_TableSourceMissing(t *testing.T) {
	t.Parallel()

	loans := []model.Loan{
		{ID: "N1", Type: "Consumer Loan", PastDue: datePtr(t, "2020-01-15")},
	}

	_, err := NewClassifier(nil).Segment(Input{Loans: loans, Source: GuaranteeSourceTable})

	require.Error(t, err)
	assert.True(t, apperror.IsStructural(err))
}

func loanIDs(loans []model.Loan) []string {
	ids := make([]string, 0, len(loans))
	for _, l := range loans {
		ids = append(ids, l.ID)
	}
	return ids
}
