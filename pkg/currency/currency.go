// Package currency provides standardized currency handling across the application.
// All monetary amounts are stored as decimal.Decimal to avoid floating-point errors.
package currency

import (
	"fmt"
	"strings"
)

// Currency represents an ISO 4217 currency code.
type Currency string

// Common currencies seen in loan tapes.
const (
	EUR Currency = "EUR" // Euro
	USD Currency = "USD" // US Dollar
	GBP Currency = "GBP" // British Pound
	CHF Currency = "CHF" // Swiss Franc
	JPY Currency = "JPY" // Japanese Yen
	TRY Currency = "TRY" // Turkish Lira
	RON Currency = "RON" // Romanian Leu
	PLN Currency = "PLN" // Polish Zloty
)

// DefaultCurrency is assumed when a loan record carries no currency.
const DefaultCurrency = EUR

// Normalize canonicalizes a raw currency code: trimmed, upper-cased,
// defaulting when blank.
func Normalize(code string) Currency {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return DefaultCurrency
	}
	return Currency(c)
}

// IsValid checks that a code has the ISO 4217 shape: three ASCII letters.
func IsValid(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Pair identifies an exchange rate as quote currency against base currency.
// FX tables are keyed by Pair; the base is the portfolio's output currency.
type Pair struct {
	Quote Currency
	Base  Currency
}

// NewPair creates a Pair from raw quote/base codes.
func NewPair(quote, base string) Pair {
	return Pair{Quote: Normalize(quote), Base: Normalize(base)}
}

// String returns the pair in "QUOTE/BASE" form.
func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.Quote, p.Base)
}
