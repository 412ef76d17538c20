package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pos-terminal/pkg/enums"
	"github.com/angelmondragon/pos-terminal/pkg/types"
)

// CheckoutSession is the cart a terminal is currently ringing up.
type CheckoutSession struct {
	ID             uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	TerminalID     string                      `gorm:"column:terminal_id;not null;index"`
	CashierID      int64                       `gorm:"column:cashier_id;not null"`
	ShiftID        *uuid.UUID                  `gorm:"column:shift_id;type:uuid"`
	Status         enums.CheckoutSessionStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Discount       *types.DiscountSnapshot     `gorm:"column:discount;type:jsonb;serializer:json"`
	Customer       *types.CustomerSnapshot     `gorm:"column:customer;type:jsonb;serializer:json"`
	PointsToRedeem int64                       `gorm:"column:points_to_redeem;not null;default:0"`
	AmountTendered int64                       `gorm:"column:amount_tendered;not null;default:0"`
	PaymentMethod  enums.PaymentMethod         `gorm:"column:payment_method;type:text;not null;default:'cash'"`
	SubmittedAt    *time.Time                  `gorm:"column:submitted_at"`
	Lines          []CartLine                  `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                   `gorm:"column:updated_at;autoUpdateTime"`

	// Set once the backend accepts the sale, before it is journaled locally.
	BackendTransactionID *int64  `gorm:"column:backend_transaction_id"`
	InvoiceNumber        *string `gorm:"column:invoice_number"`
}
