// Package money holds helpers for amounts expressed in integer currency units.
package money

import (
	"math"
	"math/bits"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Percent returns amount * pct / 100 rounded half away from zero to a whole unit.
func Percent(amount int64, pct decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(pct).Div(hundred).Round(0).IntPart()
}

// Clamp bounds value to [lo, hi].
func Clamp(value, lo, hi int64) int64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Ratio returns part/whole as a percentage rounded to two decimals. A zero whole yields zero.
func Ratio(part, whole int64) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(whole)).Round(2)
}

// Average returns total/count rounded to a whole unit. A zero count yields zero.
func Average(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return decimal.NewFromInt(total).Div(decimal.NewFromInt(count)).Round(0).IntPart()
}

// Mul returns a*b for non-negative operands. ok is false when either operand is negative
// or the product does not fit in an int64.
func Mul(a, b int64) (product int64, ok bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, false
	}
	return int64(lo), true
}

// Add returns a+b. ok is false on overflow.
func Add(a, b int64) (sum int64, ok bool) {
	sum = a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}
