package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code string
		want Currency
	}{
		{"already canonical", "EUR", EUR},
		{"lower case", "usd", USD},
		{"surrounding whitespace", "  gbp ", GBP},
		{"blank defaults", "", DefaultCurrency},
		{"whitespace only defaults", "   ", DefaultCurrency},
		{"unknown code kept", "xau", Currency("XAU")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.code))
		})
	}
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValid("EUR"))
	assert.True(t, IsValid("TRY"))
	assert.False(t, IsValid("eur"))
	assert.False(t, IsValid("EURO"))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("E1R"))
}

func TestPair(t *testing.T) {
	t.Parallel()

	p := NewPair("usd", "eur")
	assert.Equal(t, USD, p.Quote)
	assert.Equal(t, EUR, p.Base)
	assert.Equal(t, "USD/EUR", p.String())
}

func TestPairAsMapKey(t *testing.T) {
	t.Parallel()

	rates := map[Pair]string{
		NewPair("USD", "EUR"): "0.92",
		NewPair("GBP", "EUR"): "1.17",
	}

	assert.Equal(t, "0.92", rates[Pair{Quote: USD, Base: EUR}])
	_, ok := rates[Pair{Quote: CHF, Base: EUR}]
	assert.False(t, ok)
}
