package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pos-terminal/pkg/enums"
)

func singleLine(price, qty int64) []Line {
	return []Line{{ProductID: 1, Name: "Kopi Susu", UnitPrice: price, UnitCost: price / 2, Quantity: qty}}
}

func TestCalculate_NoDiscountExactTender(t *testing.T) {
	res := Calculate(Input{
		Lines:          singleLine(10000, 2),
		ConversionRate: 100,
		AmountTendered: 20000,
	})

	assert.Equal(t, int64(20000), res.Subtotal)
	assert.Equal(t, int64(20000), res.FinalTotal)
	assert.Equal(t, int64(0), res.Change)
	assert.Equal(t, int64(2), res.ItemCount)
	assert.Equal(t, int64(10000), res.CostTotal)
	assert.True(t, res.CanSubmit)
	assert.Empty(t, res.Warnings)
}

func TestCalculate_FixedDiscount(t *testing.T) {
	res := Calculate(Input{
		Lines:          singleLine(25000, 2),
		Discount:       &Discount{Code: "HEMAT10", Kind: enums.DiscountKindFixed, Value: decimal.NewFromInt(10000)},
		AmountTendered: 40000,
	})

	assert.Equal(t, int64(50000), res.Subtotal)
	assert.Equal(t, int64(10000), res.DiscountAmount)
	assert.Equal(t, int64(40000), res.FinalTotal)
	assert.True(t, res.CanSubmit)
}

func TestCalculate_PercentageDiscount(t *testing.T) {
	res := Calculate(Input{
		Lines:          singleLine(50000, 1),
		Discount:       &Discount{Code: "PROMO", Kind: enums.DiscountKindPercentage, Value: decimal.NewFromInt(10)},
		AmountTendered: 50000,
	})

	assert.Equal(t, int64(5000), res.DiscountAmount)
	assert.Equal(t, int64(45000), res.FinalTotal)
	assert.Equal(t, int64(5000), res.Change)
}

func TestCalculate_PointsClampedToSubtotal(t *testing.T) {
	res := Calculate(Input{
		Lines:          singleLine(10000, 1),
		Customer:       &Customer{ID: 7, LoyaltyPoints: 200},
		PointsToRedeem: 200,
		ConversionRate: 100,
	})

	assert.Equal(t, int64(100), res.MaxRedeemablePoints)
	assert.Equal(t, int64(100), res.RedeemedPoints)
	assert.Equal(t, int64(10000), res.PointsDiscountAmount)
	assert.Equal(t, int64(0), res.FinalTotal)
	assert.Equal(t, int64(0), res.Change)
	assert.True(t, res.CanSubmit)

	require.True(t, res.HasWarning(enums.CheckoutWarningTypePointsClamped))
	assert.Equal(t, map[string]int64{"requested": 200, "applied": 100}, res.Warnings[0].Details)
}

func TestCalculate_InsufficientPaymentBlocks(t *testing.T) {
	res := Calculate(Input{
		Lines:          singleLine(8000, 1),
		AmountTendered: 5000,
	})

	assert.Equal(t, int64(8000), res.FinalTotal)
	assert.Equal(t, int64(-3000), res.Change)
	assert.False(t, res.CanSubmit)

	blocking := res.BlockingWarnings()
	require.Len(t, blocking, 1)
	assert.Equal(t, enums.CheckoutWarningTypeInsufficientPayment, blocking[0].Type)
	assert.Equal(t, "insufficient payment", blocking[0].Message)
	assert.Equal(t, int64(3000), blocking[0].Details["shortfall"])
}

func TestCalculate_NegativeTotalBlocks(t *testing.T) {
	res := Calculate(Input{
		Lines:          singleLine(10000, 1),
		Discount:       &Discount{Kind: enums.DiscountKindPercentage, Value: decimal.NewFromInt(50)},
		Customer:       &Customer{ID: 1, LoyaltyPoints: 500},
		PointsToRedeem: 100,
		ConversionRate: 100,
		AmountTendered: 10000,
	})

	assert.Equal(t, int64(5000), res.DiscountAmount)
	assert.Equal(t, int64(10000), res.PointsDiscountAmount)
	assert.Equal(t, int64(0), res.FinalTotal)
	assert.False(t, res.CanSubmit)
	assert.True(t, res.HasWarning(enums.CheckoutWarningTypeNegativeTotal))
}

func TestCalculate_PointsIgnoredWithoutCustomer(t *testing.T) {
	res := Calculate(Input{
		Lines:          singleLine(10000, 1),
		PointsToRedeem: 50,
		AmountTendered: 10000,
	})

	assert.Equal(t, int64(0), res.RedeemedPoints)
	assert.Equal(t, int64(0), res.PointsDiscountAmount)
	assert.Equal(t, int64(10000), res.FinalTotal)
	assert.True(t, res.CanSubmit)
	assert.True(t, res.HasWarning(enums.CheckoutWarningTypePointsWithoutCustomer))
}

func TestCalculate_ExcludesInvalidLines(t *testing.T) {
	res := Calculate(Input{
		Lines: []Line{
			{ProductID: 1, Name: "Teh", UnitPrice: 5000, Quantity: 2},
			{ProductID: 2, Name: "Roti", UnitPrice: 7000, Quantity: 0},
			{ProductID: 3, Name: "Gula", UnitPrice: 3000, Quantity: -4},
		},
		AmountTendered: 10000,
	})

	assert.Equal(t, int64(10000), res.Subtotal)
	assert.Len(t, res.Lines, 1)
	assert.True(t, res.CanSubmit)

	excluded := 0
	for _, w := range res.Warnings {
		if w.Type == enums.CheckoutWarningTypeInvalidLineExcluded {
			excluded++
		}
	}
	assert.Equal(t, 2, excluded)
}

func TestCalculate_ExcludesOverflowingLines(t *testing.T) {
	res := Calculate(Input{
		Lines:          []Line{{ProductID: 9, Name: "Emas", UnitPrice: 1 << 62, Quantity: 4}},
		AmountTendered: 0,
	})

	assert.Equal(t, int64(0), res.Subtotal)
	assert.Empty(t, res.Lines)
	assert.True(t, res.HasWarning(enums.CheckoutWarningTypeInvalidLineExcluded))
	assert.True(t, res.HasWarning(enums.CheckoutWarningTypeEmptyCart))
	assert.False(t, res.CanSubmit)

	res = Calculate(Input{
		Lines: []Line{
			{ProductID: 1, Name: "A", UnitPrice: 1 << 61, Quantity: 2},
			{ProductID: 2, Name: "B", UnitPrice: 1 << 61, Quantity: 2},
			{ProductID: 3, Name: "C", UnitPrice: 5000, UnitCost: 2000, Quantity: 1},
		},
	})

	require.Len(t, res.Lines, 2)
	assert.Equal(t, int64(1<<62)+5000, res.Subtotal)
	assert.Equal(t, int64(3), res.ItemCount)
	assert.Equal(t, int64(2000), res.CostTotal)
	assert.True(t, res.HasWarning(enums.CheckoutWarningTypeInvalidLineExcluded))
	assert.GreaterOrEqual(t, res.FinalTotal, int64(0))
}

func TestCalculate_EmptyCartBlocks(t *testing.T) {
	res := Calculate(Input{AmountTendered: 1000})

	assert.Equal(t, int64(0), res.Subtotal)
	assert.False(t, res.CanSubmit)
	assert.True(t, res.HasWarning(enums.CheckoutWarningTypeEmptyCart))
}

func TestCalculate_Idempotent(t *testing.T) {
	in := Input{
		Lines: []Line{
			{ProductID: 1, Name: "A", UnitPrice: 12500, UnitCost: 9000, Quantity: 3},
			{ProductID: 2, Name: "B", UnitPrice: 4300, UnitCost: 2000, Quantity: 1},
		},
		Discount:       &Discount{Kind: enums.DiscountKindPercentage, Value: decimal.RequireFromString("7.5")},
		Customer:       &Customer{ID: 3, LoyaltyPoints: 40},
		PointsToRedeem: 90,
		ConversionRate: 100,
		AmountTendered: 50000,
	}

	first := Calculate(in)
	second := Calculate(in)
	assert.Equal(t, first, second)
	assert.Equal(t, first.Subtotal-first.DiscountAmount-first.PointsDiscountAmount, first.FinalTotal)
	assert.Equal(t, first.AmountTendered-first.FinalTotal, first.Change)
}

func TestCalculate_DefaultConversionRate(t *testing.T) {
	res := Calculate(Input{
		Lines:          singleLine(10000, 1),
		Customer:       &Customer{ID: 1, LoyaltyPoints: 10},
		PointsToRedeem: 10,
		AmountTendered: 9000,
	})

	assert.Equal(t, int64(1000), res.PointsDiscountAmount)
	assert.Equal(t, int64(9000), res.FinalTotal)
}

func TestDiscountAmount(t *testing.T) {
	cases := []struct {
		name     string
		subtotal int64
		discount *Discount
		want     int64
	}{
		{name: "nil", subtotal: 10000, discount: nil, want: 0},
		{name: "fixed under subtotal", subtotal: 50000, discount: &Discount{Kind: enums.DiscountKindFixed, Value: decimal.NewFromInt(10000)}, want: 10000},
		{name: "fixed above subtotal", subtotal: 5000, discount: &Discount{Kind: enums.DiscountKindFixed, Value: decimal.NewFromInt(10000)}, want: 5000},
		{name: "fixed negative", subtotal: 5000, discount: &Discount{Kind: enums.DiscountKindFixed, Value: decimal.NewFromInt(-100)}, want: 0},
		{name: "percentage", subtotal: 50000, discount: &Discount{Kind: enums.DiscountKindPercentage, Value: decimal.NewFromInt(10)}, want: 5000},
		{name: "percentage rounds", subtotal: 333, discount: &Discount{Kind: enums.DiscountKindPercentage, Value: decimal.NewFromInt(15)}, want: 50},
		{name: "percentage above hundred", subtotal: 1000, discount: &Discount{Kind: enums.DiscountKindPercentage, Value: decimal.NewFromInt(150)}, want: 1000},
		{name: "unknown kind", subtotal: 1000, discount: &Discount{Kind: "bogus", Value: decimal.NewFromInt(10)}, want: 0},
		{name: "empty subtotal", subtotal: 0, discount: &Discount{Kind: enums.DiscountKindFixed, Value: decimal.NewFromInt(10)}, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DiscountAmount(tc.subtotal, tc.discount))
		})
	}
}

func TestMaxRedeemablePoints(t *testing.T) {
	assert.Equal(t, int64(100), MaxRedeemablePoints(10000, 200, 100))
	assert.Equal(t, int64(40), MaxRedeemablePoints(10000, 40, 100))
	assert.Equal(t, int64(99), MaxRedeemablePoints(9999, 500, 100))
	assert.Equal(t, int64(0), MaxRedeemablePoints(0, 500, 100))
	assert.Equal(t, int64(0), MaxRedeemablePoints(10000, -3, 100))
	assert.Equal(t, int64(100), MaxRedeemablePoints(10000, 200, 0))
}

func TestClampRedemption(t *testing.T) {
	customer := &Customer{ID: 1, LoyaltyPoints: 50}

	applied, clamped := ClampRedemption(30, 10000, customer, 100)
	assert.Equal(t, int64(30), applied)
	assert.False(t, clamped)

	applied, clamped = ClampRedemption(80, 10000, customer, 100)
	assert.Equal(t, int64(50), applied)
	assert.True(t, clamped)

	applied, clamped = ClampRedemption(-5, 10000, customer, 100)
	assert.Equal(t, int64(0), applied)
	assert.True(t, clamped)

	applied, clamped = ClampRedemption(10, 10000, nil, 100)
	assert.Equal(t, int64(0), applied)
	assert.True(t, clamped)

	applied, clamped = ClampRedemption(0, 10000, nil, 100)
	assert.Equal(t, int64(0), applied)
	assert.False(t, clamped)
}
