package assumption

import (
	"github.com/shopspring/decimal"

	"github.com/atlasfin/loanengine/internal/model"
)

var (
	negOne  = decimal.NewFromInt(-1)
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Normalize rescales a fraction to percent scale: a value strictly inside
// (-1, 1) and not zero is multiplied by 100, anything else passes through
// unchanged. Apply it exactly once per source value, at the point where the
// value enters the pipeline; the rule is not idempotent, so a second pass
// would corrupt genuinely fractional data.
func Normalize(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return d
	}
	if d.GreaterThan(negOne) && d.LessThan(one) {
		return d.Mul(hundred)
	}
	return d
}

// NormalizeNumeric applies Normalize to a parsed cell. A "%"-suffixed cell
// already states percent scale and passes through as parsed; an unusable
// cell becomes zero.
func NormalizeNumeric(n model.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	if n.Percent {
		return n.Decimal
	}
	return Normalize(n.Decimal)
}
