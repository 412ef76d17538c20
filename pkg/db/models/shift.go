package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pos-terminal/pkg/enums"
)

// Shift is a cashier's working session on a terminal.
type Shift struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	TerminalID     string            `gorm:"column:terminal_id;not null;index"`
	CashierID      int64             `gorm:"column:cashier_id;not null"`
	Status         enums.ShiftStatus `gorm:"column:status;type:text;not null;default:'open'"`
	OpeningCash    int64             `gorm:"column:opening_cash;not null;default:0"`
	ClosingCash    *int64            `gorm:"column:closing_cash"`
	ExpectedCash   *int64            `gorm:"column:expected_cash"`
	CashDifference *int64            `gorm:"column:cash_difference"`
	PinHash        string            `gorm:"column:pin_hash;not null" json:"-"`
	Note           *string           `gorm:"column:note"`
	OpenedAt       time.Time         `gorm:"column:opened_at;not null"`
	ClosedAt       *time.Time        `gorm:"column:closed_at"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
