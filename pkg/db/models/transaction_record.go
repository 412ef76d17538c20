package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pos-terminal/pkg/enums"
	"github.com/angelmondragon/pos-terminal/pkg/types"
)

// TransactionRecord journals a submitted checkout together with the backend's transaction id.
type TransactionRecord struct {
	ID                   uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	BackendTransactionID int64                  `gorm:"column:backend_transaction_id;not null"`
	SessionID            uuid.UUID              `gorm:"column:session_id;type:uuid;not null;uniqueIndex"`
	ShiftID              uuid.UUID              `gorm:"column:shift_id;type:uuid;not null;index"`
	TerminalID           string                 `gorm:"column:terminal_id;not null"`
	CashierID            int64                  `gorm:"column:cashier_id;not null"`
	CustomerID           *int64                 `gorm:"column:customer_id"`
	DiscountCode         *string                `gorm:"column:discount_code"`
	Subtotal             int64                  `gorm:"column:subtotal;not null"`
	DiscountAmount       int64                  `gorm:"column:discount_amount;not null;default:0"`
	PointsDiscountAmount int64                  `gorm:"column:points_discount_amount;not null;default:0"`
	RedeemedPoints       int64                  `gorm:"column:redeemed_points;not null;default:0"`
	FinalTotal           int64                  `gorm:"column:final_total;not null"`
	AmountTendered       int64                  `gorm:"column:amount_tendered;not null"`
	Change               int64                  `gorm:"column:change_amount;not null"`
	CostTotal            int64                  `gorm:"column:cost_total;not null;default:0"`
	PaymentMethod        enums.PaymentMethod    `gorm:"column:payment_method;type:text;not null"`
	Items                types.TransactionItems `gorm:"column:items;type:jsonb;serializer:json"`
	CreatedAt            time.Time              `gorm:"column:created_at;autoCreateTime"`
}
