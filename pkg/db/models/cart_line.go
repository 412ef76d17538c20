package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine persists a product snapshot tied to a CheckoutSession.
type CartLine struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SessionID      uuid.UUID `gorm:"column:session_id;type:uuid;not null;index"`
	ProductID      int64     `gorm:"column:product_id;not null"`
	Barcode        string    `gorm:"column:barcode"`
	Name           string    `gorm:"column:name;not null"`
	UnitPrice      int64     `gorm:"column:unit_price;not null"`
	UnitCost       int64     `gorm:"column:unit_cost;not null;default:0"`
	Quantity       int64     `gorm:"column:quantity;not null"`
	AvailableStock int64     `gorm:"column:available_stock;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
