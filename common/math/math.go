package math

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// MinBig returns the smaller of a and b without copying.
func MinBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) < 0 {
		return a
	}
	return b
}

// MulDiv computes a*b/c truncating toward zero.
func MulDiv(a, b, c *big.Int) *big.Int {
	r := new(big.Int).Mul(a, b)
	return r.Quo(r, c)
}

// DecimalToInt truncates a decimal to a big integer.
func DecimalToInt(value decimal.Decimal) *big.Int {
	return ToInt(&value)
}
