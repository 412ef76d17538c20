package backend

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-terminal/pkg/enums"
	"github.com/angelmondragon/pos-terminal/pkg/types"
)

// PageMeta is the pagination block the backend returns with list endpoints.
type PageMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// User is the backend account returned at login.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// LoginRequest is the credential payload forwarded to the backend.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the backend bearer token.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Product is a catalog entry. Prices are integer currency units.
type Product struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Cost     int64  `json:"cost"`
	Stock    int64  `json:"stock"`
	Barcode  string `json:"barcode"`
	Category string `json:"category,omitempty"`
}

// ProductPage is one page of a product search.
type ProductPage struct {
	Items []Product `json:"items"`
	Meta  PageMeta  `json:"meta"`
}

// Discount is a discount code definition. Value is a percent or currency units depending on Type.
type Discount struct {
	ID           int64              `json:"id"`
	Code         string             `json:"code"`
	Type         enums.DiscountKind `json:"type"`
	Value        decimal.Decimal    `json:"value"`
	CustomerType *string            `json:"customer_type"`
	StartDate    *Date              `json:"start_date"`
	EndDate      *Date              `json:"end_date"`
	IsActive     *bool              `json:"is_active"`
}

// Customer is a loyalty customer snapshot.
type Customer struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Phone         string `json:"phone,omitempty"`
	LoyaltyPoints int64  `json:"loyalty_points"`
	CustomerType  string `json:"customer_type"`
}

// TransactionRequest is the transaction-creation payload. Field names follow the backend contract.
type TransactionRequest struct {
	Items                types.TransactionItems `json:"items"`
	Total                int64                  `json:"total"`
	Subtotal             int64                  `json:"subtotal"`
	AmountPaid           int64                  `json:"bayar"`
	Change               int64                  `json:"kembalian"`
	AppliedDiscountValue int64                  `json:"applied_discount_value"`
	PointsDiscount       int64                  `json:"points_discount"`
	RedeemedPoints       int64                  `json:"redeemed_points"`
	DiscountCode         *string                `json:"discount_code"`
	CustomerID           *int64                 `json:"customer_id"`
	PaymentMethod        enums.PaymentMethod    `json:"payment_method"`
	ShiftID              string                 `json:"shift_id"`
	TerminalID           string                 `json:"terminal_id"`
}

// Transaction is the backend's record of a created transaction.
type Transaction struct {
	ID            int64  `json:"id"`
	InvoiceNumber string `json:"invoice_number"`
}

// StockAdjustmentRequest corrects a product's stock by Delta units.
type StockAdjustmentRequest struct {
	Delta  int64                  `json:"delta"`
	Reason enums.AdjustmentReason `json:"reason"`
	Note   string                 `json:"note,omitempty"`
}

// StockLevel is the backend stock after an adjustment.
type StockLevel struct {
	ProductID int64 `json:"product_id"`
	Stock     int64 `json:"stock"`
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// Date accepts the date formats the backend emits for discount windows.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			d.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unsupported date %q", raw)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.Format(time.RFC3339))
}
