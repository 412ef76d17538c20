package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-terminal/pkg/db/models"
	pkgpagination "github.com/angelmondragon/pos-terminal/pkg/pagination"
)

type listQuery struct {
	productID *int64
	page      pkgpagination.Keyset
}

// Repository stores the local adjustment audit trail.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an adjustment repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts an adjustment row.
func (r *Repository) Create(ctx context.Context, adj *models.InventoryAdjustment) error {
	if adj.ID == uuid.Nil {
		adj.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(adj).Error
}

// List returns adjustments newest first, optionally for one product.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.InventoryAdjustment, error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryAdjustment{})
	if opts.productID != nil {
		query = query.Where("product_id = ?", *opts.productID)
	}
	query = opts.page.Scope(query)

	var rows []models.InventoryAdjustment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
