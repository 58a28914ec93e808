package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Missing-value sentinels, compared after trimming and lowercasing.
var missingTexts = map[string]bool{
	"":               true,
	"not available":  true,
	"not applicable": true,
	"nan":            true,
	"null":           true,
}

// IsMissingText reports whether a cell holds one of the sentinel spellings
// of "no value".
func IsMissingText(s string) bool {
	return missingTexts[strings.ToLower(strings.TrimSpace(s))]
}

// Numeric is a numeric cell paired with its raw source text. Percent records
// an explicit "%" suffix on the source; the suffix is stripped but the value
// is kept at its stated scale.
type Numeric struct {
	Raw     string          `json:"raw"`
	Decimal decimal.Decimal `json:"value"`
	Valid   bool            `json:"valid"`
	Percent bool            `json:"percent,omitempty"`
}

// ParseNumeric converts a cell to a Numeric. Sentinel or unparseable text
// yields Valid=false with the raw text retained for reporting.
func ParseNumeric(raw string) Numeric {
	trimmed := strings.TrimSpace(raw)
	if IsMissingText(trimmed) {
		return Numeric{Raw: raw}
	}

	percent := strings.HasSuffix(trimmed, "%")
	if percent {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "%"))
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Numeric{Raw: raw}
	}

	return Numeric{Raw: raw, Decimal: d, Valid: true, Percent: percent}
}

// OrZero returns the parsed value, or zero when the cell was missing or
// unusable.
func (n Numeric) OrZero() decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	return n.Decimal
}

// MarshalJSON renders the parsed value, or null when the cell was missing or
// unusable, matching decimal.NullDecimal output.
func (n Numeric) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return n.Decimal.MarshalJSON()
}
