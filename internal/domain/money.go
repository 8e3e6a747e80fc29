package domain

import (
	"github.com/shopspring/decimal"
)

// ─── Money ──────────────────────────────────────────────────────────────────
// Amounts travel through the system as int64 minor units (paise) so the
// storage layer can apply them as single atomic increments. The decimal
// representation exists only at the API boundary.

// ParseAmount converts a decimal rupee string ("500", "-123.45") to signed
// paise. More than two fractional digits is a validation error, as is a
// value that overflows int64.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, Invalidf("malformed amount %q", s)
	}
	if d.Exponent() < -2 {
		return 0, Invalidf("amount %q has sub-paise precision", s)
	}
	p := d.Shift(2)
	if !p.IsInteger() {
		return 0, Invalidf("amount %q has sub-paise precision", s)
	}
	if !p.BigInt().IsInt64() {
		return 0, Invalidf("amount %q out of range", s)
	}
	return p.IntPart(), nil
}

// FormatAmount renders signed paise as a fixed two-decimal rupee string.
func FormatAmount(paise int64) string {
	return decimal.NewFromInt(paise).Shift(-2).StringFixed(2)
}
