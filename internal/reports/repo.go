package reports

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/pos-terminal/pkg/db/models"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	"github.com/angelmondragon/pos-terminal/pkg/types"
)

const totalsSelect = `
COUNT(*) AS transaction_count,
COALESCE(SUM(subtotal), 0) AS gross_subtotal,
COALESCE(SUM(discount_amount), 0) AS discount_total,
COALESCE(SUM(points_discount_amount), 0) AS points_discount_total,
COALESCE(SUM(final_total), 0) AS net_sales,
COALESCE(SUM(cost_total), 0) AS cost_total
`

type rangeQuery struct {
	terminalID string
	from       time.Time
	to         time.Time
}

type totalsRow struct {
	TransactionCount    int64 `gorm:"column:transaction_count"`
	GrossSubtotal       int64 `gorm:"column:gross_subtotal"`
	DiscountTotal       int64 `gorm:"column:discount_total"`
	PointsDiscountTotal int64 `gorm:"column:points_discount_total"`
	NetSales            int64 `gorm:"column:net_sales"`
	CostTotal           int64 `gorm:"column:cost_total"`
}

type paymentRow struct {
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method"`
	Count         int64               `gorm:"column:transaction_count"`
	Amount        int64               `gorm:"column:amount"`
}

type saleRow struct {
	FinalTotal int64                  `gorm:"column:final_total"`
	Items      types.TransactionItems `gorm:"column:items;serializer:json"`
	CreatedAt  time.Time              `gorm:"column:created_at"`
}

// Repository runs read-only aggregate queries over the transaction journal.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a reports repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) scoped(ctx context.Context, q rangeQuery) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.TransactionRecord{}).
		Where("created_at >= ? AND created_at <= ?", q.from, q.to)
	if q.terminalID != "" {
		query = query.Where("terminal_id = ?", q.terminalID)
	}
	return query
}

// Totals sums the money columns for the range.
func (r *Repository) Totals(ctx context.Context, q rangeQuery) (totalsRow, error) {
	var row totalsRow
	err := r.scoped(ctx, q).Select(totalsSelect).Scan(&row).Error
	return row, err
}

// PaymentBreakdown groups counts and net amounts by payment method.
func (r *Repository) PaymentBreakdown(ctx context.Context, q rangeQuery) ([]paymentRow, error) {
	var rows []paymentRow
	err := r.scoped(ctx, q).
		Select("payment_method, COUNT(*) AS transaction_count, COALESCE(SUM(final_total), 0) AS amount").
		Group("payment_method").
		Order("amount DESC").
		Scan(&rows).Error
	return rows, err
}

// Sales returns the per-transaction rows needed for item and daily rollups.
func (r *Repository) Sales(ctx context.Context, q rangeQuery) ([]saleRow, error) {
	var rows []saleRow
	err := r.scoped(ctx, q).
		Select("final_total, items, created_at").
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
