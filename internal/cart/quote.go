package cart

import (
	"github.com/angelmondragon/pos-terminal/pkg/checkout"
	"github.com/angelmondragon/pos-terminal/pkg/db/models"
)

// View is a session together with its computed totals.
type View struct {
	Session *models.CheckoutSession
	Result  checkout.Result
}

// CalculatorInput maps a persisted session onto the calculator input.
func CalculatorInput(session *models.CheckoutSession, conversionRate int64) checkout.Input {
	in := checkout.Input{
		Lines:          make([]checkout.Line, 0, len(session.Lines)),
		PointsToRedeem: session.PointsToRedeem,
		ConversionRate: conversionRate,
		AmountTendered: session.AmountTendered,
	}
	for _, line := range session.Lines {
		in.Lines = append(in.Lines, checkout.Line{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			UnitCost:  line.UnitCost,
			Quantity:  line.Quantity,
		})
	}
	if d := session.Discount; d != nil {
		in.Discount = &checkout.Discount{Code: d.Code, Kind: d.Kind, Value: d.Value}
	}
	if c := session.Customer; c != nil {
		in.Customer = &checkout.Customer{ID: c.ID, LoyaltyPoints: c.LoyaltyPoints}
	}
	return in
}

// StockInputs returns the stock snapshot of every line for validation.
func StockInputs(session *models.CheckoutSession) []checkout.StockValidationInput {
	out := make([]checkout.StockValidationInput, 0, len(session.Lines))
	for _, line := range session.Lines {
		out = append(out, checkout.StockValidationInput{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Available:   line.AvailableStock,
			Quantity:    line.Quantity,
		})
	}
	return out
}
