package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsMissingText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		missing bool
	}{
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"not available", "Not Available", true},
		{"not applicable", "NOT APPLICABLE", true},
		{"nan", "NaN", true},
		{"null", "null", true},
		{"padded sentinel", "  nan  ", true},
		{"zero is a value", "0", false},
		{"number", "42.5", false},
		{"text", "pending", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.missing, IsMissingText(tt.value))
		})
	}
}

func TestParseNumeric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		valid   bool
		percent bool
		value   string
	}{
		{"plain number", "2.5", true, false, "2.5"},
		{"negative", "-0.51", true, false, "-0.51"},
		{"integer", "5", true, false, "5"},
		{"percent suffix", "10.0000%", true, true, "10"},
		{"percent with space", "2.5 %", true, true, "2.5"},
		{"padded", "  1.49  ", true, false, "1.49"},
		{"missing", "", false, false, "0"},
		{"sentinel", "Not Available", false, false, "0"},
		{"unparseable", "abc", false, false, "0"},
		{"thousands separator rejected", "1,000", false, false, "0"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n := ParseNumeric(tt.raw)

			assert.Equal(t, tt.valid, n.Valid)
			assert.Equal(t, tt.percent, n.Percent)
			assert.Equal(t, tt.raw, n.Raw)
			if tt.valid {
				assert.True(t, n.Decimal.Equal(decimal.RequireFromString(tt.value)),
					"got %s want %s", n.Decimal, tt.value)
			}
		})
	}
}

func TestNumeric_OrZero(t *testing.T) {
	t.Parallel()

	assert.True(t, ParseNumeric("nan").OrZero().IsZero())
	assert.True(t, ParseNumeric("3.5").OrZero().Equal(decimal.RequireFromString("3.5")))
}

func TestNumeric_MarshalJSON(t *testing.T) {
	t.Parallel()

	got, err := ParseNumeric("2.5").MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"2.5"`, string(got))

	got, err = ParseNumeric("not available").MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, "null", string(got))
}
