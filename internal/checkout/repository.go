package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-terminal/pkg/db/models"
	pkgpagination "github.com/angelmondragon/pos-terminal/pkg/pagination"
)

// JournalRepository persists submitted transactions.
type JournalRepository interface {
	WithTx(tx *gorm.DB) JournalRepository
	Create(ctx context.Context, record *models.TransactionRecord) error
	FindBySession(ctx context.Context, sessionID uuid.UUID) (*models.TransactionRecord, error)
	List(ctx context.Context, opts listQuery) ([]models.TransactionRecord, error)
}

type listQuery struct {
	terminalID string
	shiftID    *uuid.UUID
	page       pkgpagination.Keyset
}

// Repository is the GORM-backed transaction journal.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a journal repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) JournalRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a journal row.
func (r *Repository) Create(ctx context.Context, record *models.TransactionRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// FindBySession returns the journal row written for a checkout session.
func (r *Repository) FindBySession(ctx context.Context, sessionID uuid.UUID) (*models.TransactionRecord, error) {
	var record models.TransactionRecord
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns journal rows newest first using cursor pagination.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.TransactionRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.TransactionRecord{}).Where("terminal_id = ?", opts.terminalID)
	if opts.shiftID != nil {
		query = query.Where("shift_id = ?", *opts.shiftID)
	}
	query = opts.page.Scope(query)

	var rows []models.TransactionRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
