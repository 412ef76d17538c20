package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-terminal/pkg/enums"
	"github.com/angelmondragon/pos-terminal/pkg/money"
)

// DefaultConversionRate is the currency units one loyalty point is worth when no rate is configured.
const DefaultConversionRate int64 = 100

// Line is a cart line as seen by the calculator.
type Line struct {
	ProductID int64
	Name      string
	UnitPrice int64
	UnitCost  int64
	Quantity  int64
}

// Discount is the applied discount snapshot. Value is a percent for percentage
// discounts and currency units for fixed ones.
type Discount struct {
	Code  string
	Kind  enums.DiscountKind
	Value decimal.Decimal
}

// Customer carries the loyalty balance of the selected customer.
type Customer struct {
	ID            int64
	LoyaltyPoints int64
}

// Input gathers everything a checkout computation depends on.
type Input struct {
	Lines          []Line
	Discount       *Discount
	Customer       *Customer
	PointsToRedeem int64
	ConversionRate int64
	AmountTendered int64
}

// Warning is a user-facing notice produced while computing a checkout.
type Warning struct {
	Type    enums.CheckoutWarningType `json:"type"`
	Message string                    `json:"message"`
	Details map[string]int64          `json:"details,omitempty"`
}

// Blocking reports whether the warning prevents submission.
func (w Warning) Blocking() bool {
	switch w.Type {
	case enums.CheckoutWarningTypeEmptyCart,
		enums.CheckoutWarningTypeNegativeTotal,
		enums.CheckoutWarningTypeInsufficientPayment:
		return true
	default:
		return false
	}
}

// LineTotal is an included line with its extended price.
type LineTotal struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	UnitCost  int64  `json:"unit_cost"`
	Quantity  int64  `json:"quantity"`
	Total     int64  `json:"total"`
}

// Result is the derived checkout state. FinalTotal is never negative; Change may be.
type Result struct {
	Lines                []LineTotal `json:"lines"`
	ItemCount            int64       `json:"item_count"`
	Subtotal             int64       `json:"subtotal"`
	DiscountAmount       int64       `json:"discount_amount"`
	PointsDiscountAmount int64       `json:"points_discount_amount"`
	RedeemedPoints       int64       `json:"redeemed_points"`
	MaxRedeemablePoints  int64       `json:"max_redeemable_points"`
	FinalTotal           int64       `json:"final_total"`
	AmountTendered       int64       `json:"amount_tendered"`
	Change               int64       `json:"change"`
	CostTotal            int64       `json:"cost_total"`
	CanSubmit            bool        `json:"can_submit"`
	Warnings             []Warning   `json:"warnings"`
}

// BlockingWarnings returns the warnings that prevent submission.
func (r Result) BlockingWarnings() []Warning {
	var out []Warning
	for _, w := range r.Warnings {
		if w.Blocking() {
			out = append(out, w)
		}
	}
	return out
}

// HasWarning reports whether a warning of the given type was produced.
func (r Result) HasWarning(t enums.CheckoutWarningType) bool {
	for _, w := range r.Warnings {
		if w.Type == t {
			return true
		}
	}
	return false
}

// Calculate computes subtotal, discounts, final total and change. It has no side effects
// and returns the same result for the same input.
func Calculate(in Input) Result {
	rate := normalizeRate(in.ConversionRate)
	res := Result{
		Lines:          []LineTotal{},
		AmountTendered: in.AmountTendered,
		Warnings:       []Warning{},
	}

	for _, line := range in.Lines {
		if line.Quantity <= 0 || line.UnitPrice < 0 {
			res.Warnings = append(res.Warnings, Warning{
				Type:    enums.CheckoutWarningTypeInvalidLineExcluded,
				Message: fmt.Sprintf("line %q excluded from total", line.Name),
				Details: map[string]int64{"product_id": line.ProductID, "quantity": line.Quantity},
			})
			continue
		}
		total, ok := addLine(&res, line)
		if !ok {
			res.Warnings = append(res.Warnings, Warning{
				Type:    enums.CheckoutWarningTypeInvalidLineExcluded,
				Message: fmt.Sprintf("line %q exceeds the maximum amount", line.Name),
				Details: map[string]int64{"product_id": line.ProductID, "quantity": line.Quantity},
			})
			continue
		}
		res.Lines = append(res.Lines, LineTotal{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			UnitCost:  line.UnitCost,
			Quantity:  line.Quantity,
			Total:     total,
		})
	}
	if len(res.Lines) == 0 {
		res.Warnings = append(res.Warnings, Warning{
			Type:    enums.CheckoutWarningTypeEmptyCart,
			Message: "cart is empty",
		})
	}

	res.DiscountAmount = DiscountAmount(res.Subtotal, in.Discount)

	if in.Customer == nil {
		if in.PointsToRedeem > 0 {
			res.Warnings = append(res.Warnings, Warning{
				Type:    enums.CheckoutWarningTypePointsWithoutCustomer,
				Message: "points can only be redeemed for a selected customer",
				Details: map[string]int64{"requested": in.PointsToRedeem},
			})
		}
	} else {
		res.MaxRedeemablePoints = MaxRedeemablePoints(res.Subtotal, in.Customer.LoyaltyPoints, rate)
		applied, clamped := ClampRedemption(in.PointsToRedeem, res.Subtotal, in.Customer, rate)
		if clamped {
			res.Warnings = append(res.Warnings, Warning{
				Type:    enums.CheckoutWarningTypePointsClamped,
				Message: fmt.Sprintf("points reduced to %d", applied),
				Details: map[string]int64{"requested": in.PointsToRedeem, "applied": applied},
			})
		}
		res.RedeemedPoints = applied
		res.PointsDiscountAmount = applied * rate
	}

	raw := res.Subtotal - res.DiscountAmount - res.PointsDiscountAmount
	if raw < 0 {
		res.Warnings = append(res.Warnings, Warning{
			Type:    enums.CheckoutWarningTypeNegativeTotal,
			Message: "discounts exceed the subtotal",
			Details: map[string]int64{"total": raw},
		})
		raw = 0
	}
	res.FinalTotal = raw
	res.Change = in.AmountTendered - res.FinalTotal
	if res.Change < 0 {
		res.Warnings = append(res.Warnings, Warning{
			Type:    enums.CheckoutWarningTypeInsufficientPayment,
			Message: "insufficient payment",
			Details: map[string]int64{"shortfall": -res.Change},
		})
	}

	res.CanSubmit = len(res.BlockingWarnings()) == 0
	return res
}

// addLine folds a line into the running totals and returns its extended price. The result
// is left untouched when any amount would overflow.
func addLine(res *Result, line Line) (int64, bool) {
	total, ok := money.Mul(line.UnitPrice, line.Quantity)
	if !ok {
		return 0, false
	}
	cost, ok := money.Mul(max(line.UnitCost, 0), line.Quantity)
	if !ok {
		return 0, false
	}
	subtotal, ok := money.Add(res.Subtotal, total)
	if !ok {
		return 0, false
	}
	costTotal, ok := money.Add(res.CostTotal, cost)
	if !ok {
		return 0, false
	}
	items, ok := money.Add(res.ItemCount, line.Quantity)
	if !ok {
		return 0, false
	}
	res.Subtotal, res.CostTotal, res.ItemCount = subtotal, costTotal, items
	return total, true
}

// DiscountAmount returns the discount for a subtotal, clamped to [0, subtotal].
func DiscountAmount(subtotal int64, discount *Discount) int64 {
	if discount == nil || subtotal <= 0 {
		return 0
	}
	var amount int64
	switch discount.Kind {
	case enums.DiscountKindPercentage:
		amount = money.Percent(subtotal, discount.Value)
	case enums.DiscountKindFixed:
		amount = discount.Value.Round(0).IntPart()
	default:
		return 0
	}
	return money.Clamp(amount, 0, subtotal)
}

// MaxRedeemablePoints is min(loyaltyPoints, floor(subtotal / rate)), never negative.
// The cap uses the pre-discount subtotal.
func MaxRedeemablePoints(subtotal, loyaltyPoints, rate int64) int64 {
	rate = normalizeRate(rate)
	if subtotal <= 0 || loyaltyPoints <= 0 {
		return 0
	}
	limit := subtotal / rate
	if loyaltyPoints < limit {
		return loyaltyPoints
	}
	return limit
}

// ClampRedemption bounds a requested redemption to what the customer can redeem against
// the subtotal. clamped is true when the request was changed.
func ClampRedemption(requested, subtotal int64, customer *Customer, rate int64) (applied int64, clamped bool) {
	if customer == nil {
		return 0, requested != 0
	}
	limit := MaxRedeemablePoints(subtotal, customer.LoyaltyPoints, rate)
	applied = money.Clamp(requested, 0, limit)
	return applied, applied != requested
}

func normalizeRate(rate int64) int64 {
	if rate <= 0 {
		return DefaultConversionRate
	}
	return rate
}
