package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pos-terminal/pkg/enums"
)

// InventoryAdjustment is the local audit row for a stock correction sent to the backend.
type InventoryAdjustment struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    int64                  `gorm:"column:product_id;not null;index"`
	Delta        int64                  `gorm:"column:delta;not null"`
	Reason       enums.AdjustmentReason `gorm:"column:reason;type:text;not null"`
	Note         *string                `gorm:"column:note"`
	CashierID    int64                  `gorm:"column:cashier_id;not null"`
	TerminalID   string                 `gorm:"column:terminal_id;not null"`
	BackendStock *int64                 `gorm:"column:backend_stock"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`

	// Unjournaled marks an adjustment the backend applied but this row was never stored.
	Unjournaled bool `gorm:"-"`
}
