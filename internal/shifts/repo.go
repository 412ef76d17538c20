package shifts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-terminal/pkg/db/models"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	pkgpagination "github.com/angelmondragon/pos-terminal/pkg/pagination"
)

// Totals aggregates the journal rows booked against a shift.
type Totals struct {
	TransactionCount    int64 `json:"transaction_count" gorm:"column:transaction_count"`
	GrossSales          int64 `json:"gross_sales" gorm:"column:gross_sales"`
	CashSales           int64 `json:"cash_sales" gorm:"column:cash_sales"`
	NonCashSales        int64 `json:"non_cash_sales" gorm:"column:non_cash_sales"`
	DiscountTotal       int64 `json:"discount_total" gorm:"column:discount_total"`
	PointsDiscountTotal int64 `json:"points_discount_total" gorm:"column:points_discount_total"`
}

type listQuery struct {
	terminalID string
	page       pkgpagination.Keyset
}

// Repository persists shifts.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a shift repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindOpen returns the open shift of the terminal.
func (r *Repository) FindOpen(ctx context.Context, terminalID string) (*models.Shift, error) {
	var shift models.Shift
	err := r.db.WithContext(ctx).
		Where("terminal_id = ? AND status = ?", terminalID, enums.ShiftStatusOpen).
		Order("opened_at DESC").
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

// Create inserts a shift.
func (r *Repository) Create(ctx context.Context, shift *models.Shift) error {
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(shift).Error
}

// Save updates a shift.
func (r *Repository) Save(ctx context.Context, shift *models.Shift) error {
	return r.db.WithContext(ctx).Save(shift).Error
}

// Totals sums the transaction journal for the shift.
func (r *Repository) Totals(ctx context.Context, shiftID uuid.UUID) (Totals, error) {
	var totals Totals
	err := r.db.WithContext(ctx).
		Model(&models.TransactionRecord{}).
		Select(`COUNT(*) AS transaction_count,
			COALESCE(SUM(final_total), 0) AS gross_sales,
			COALESCE(SUM(CASE WHEN payment_method = ? THEN final_total ELSE 0 END), 0) AS cash_sales,
			COALESCE(SUM(CASE WHEN payment_method <> ? THEN final_total ELSE 0 END), 0) AS non_cash_sales,
			COALESCE(SUM(discount_amount), 0) AS discount_total,
			COALESCE(SUM(points_discount_amount), 0) AS points_discount_total`,
			enums.PaymentMethodCash, enums.PaymentMethodCash).
		Where("shift_id = ?", shiftID).
		Scan(&totals).Error
	return totals, err
}

// List returns terminal-scoped shifts newest first using cursor pagination.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.Shift, error) {
	query := r.db.WithContext(ctx).Model(&models.Shift{}).Where("terminal_id = ?", opts.terminalID)
	query = opts.page.Scope(query)

	var rows []models.Shift
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
