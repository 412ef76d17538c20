package checkout

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
)

// StockValidationInput describes the data required to verify a line against available stock.
type StockValidationInput struct {
	ProductID   int64
	ProductName string
	Available   int64
	Quantity    int64
}

// StockViolationDetail exposes the data returned to callers when a validation fails.
type StockViolationDetail struct {
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name,omitempty"`
	AvailableQty int64  `json:"available_qty"`
	RequestedQty int64  `json:"requested_qty"`
}

// ValidateStock ensures no line asks for more units than the product has in stock.
func ValidateStock(items []StockValidationInput) error {
	var violations []StockViolationDetail
	for _, item := range items {
		if item.Quantity <= item.Available {
			continue
		}
		violations = append(violations, StockViolationDetail{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			AvailableQty: item.Available,
			RequestedQty: item.Quantity,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("insufficient stock for %d item(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
