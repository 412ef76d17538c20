package types

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-terminal/pkg/enums"
)

// DiscountSnapshot is the discount applied to a checkout session at the time it was resolved.
type DiscountSnapshot struct {
	Code         string             `json:"code"`
	Kind         enums.DiscountKind `json:"type"`
	Value        decimal.Decimal    `json:"value"`
	CustomerType *string            `json:"customer_type,omitempty"`
}

// CustomerSnapshot is the customer selected for a checkout session. LoyaltyPoints is advisory.
type CustomerSnapshot struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	LoyaltyPoints int64  `json:"loyalty_points"`
	CustomerType  string `json:"customer_type"`
}

// TransactionItem is one sold line as journaled and sent to the backend.
type TransactionItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Price     int64  `json:"price"`
	Cost      int64  `json:"cost"`
	Subtotal  int64  `json:"subtotal"`
}

// TransactionItems is stored as a json column.
type TransactionItems []TransactionItem
