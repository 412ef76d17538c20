package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/pos-terminal/pkg/db/models"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
)

// ErrSessionNotActive is returned when a write expected an active session and found it
// already claimed, submitted or cleared.
var ErrSessionNotActive = errors.New("checkout session is not active")

// SessionRepository defines the persistence surface required by the cart and checkout
// services.
type SessionRepository interface {
	WithTx(tx *gorm.DB) SessionRepository
	FindActive(ctx context.Context, terminalID string) (*models.CheckoutSession, error)
	FindSubmitting(ctx context.Context, terminalID string) (*models.CheckoutSession, error)
	Create(ctx context.Context, session *models.CheckoutSession) error
	Save(ctx context.Context, session *models.CheckoutSession) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CheckoutSessionStatus, at *time.Time) error
	Claim(ctx context.Context, id, shiftID uuid.UUID) error
	Release(ctx context.Context, id uuid.UUID) error
	MarkAccepted(ctx context.Context, id uuid.UUID, backendID int64, invoice string) error
	MarkSubmitted(ctx context.Context, id uuid.UUID, at time.Time) error
	ListLines(ctx context.Context, sessionID uuid.UUID) ([]models.CartLine, error)
	CreateLine(ctx context.Context, line *models.CartLine) error
	SaveLine(ctx context.Context, line *models.CartLine) error
	DeleteLine(ctx context.Context, sessionID, lineID uuid.UUID) error
}

// Repository exposes persistence operations for checkout sessions and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a session repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) SessionRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindActive loads the active session for the terminal with its lines in insertion order.
func (r *Repository) FindActive(ctx context.Context, terminalID string) (*models.CheckoutSession, error) {
	return r.findByStatus(ctx, terminalID, enums.CheckoutSessionStatusActive)
}

// FindSubmitting loads a session claimed by a checkout that has not been journaled yet.
func (r *Repository) FindSubmitting(ctx context.Context, terminalID string) (*models.CheckoutSession, error) {
	return r.findByStatus(ctx, terminalID, enums.CheckoutSessionStatusSubmitting)
}

func (r *Repository) findByStatus(ctx context.Context, terminalID string, status enums.CheckoutSessionStatus) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("terminal_id = ? AND status = ?", terminalID, status).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Create inserts a new session.
func (r *Repository) Create(ctx context.Context, session *models.CheckoutSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.Status == "" {
		session.Status = enums.CheckoutSessionStatusActive
	}
	if session.PaymentMethod == "" {
		session.PaymentMethod = enums.PaymentMethodCash
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(session).Error
}

// Save persists the editable header fields of an active session. Lines are written
// through the line methods.
func (r *Repository) Save(ctx context.Context, session *models.CheckoutSession) error {
	res := r.db.WithContext(ctx).
		Model(session).
		Where("status = ?", enums.CheckoutSessionStatusActive).
		Select("cashier_id", "discount", "customer", "points_to_redeem", "amount_tendered", "payment_method", "updated_at").
		Omit(clause.Associations).
		Updates(session)
	return affectedOne(res)
}

// UpdateStatus moves an active session to status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CheckoutSessionStatus, at *time.Time) error {
	updates := map[string]any{"status": status, "updated_at": time.Now().UTC()}
	if at != nil {
		updates["submitted_at"] = *at
	}
	return r.transition(ctx, id, enums.CheckoutSessionStatusActive, updates)
}

// Claim moves an active session to submitting so only one checkout can send it to the
// backend.
func (r *Repository) Claim(ctx context.Context, id, shiftID uuid.UUID) error {
	return r.transition(ctx, id, enums.CheckoutSessionStatusActive, map[string]any{
		"status":     enums.CheckoutSessionStatusSubmitting,
		"shift_id":   shiftID,
		"updated_at": time.Now().UTC(),
	})
}

// Release hands a claimed session back to the cart. Sessions the backend already
// accepted stay claimed.
func (r *Repository) Release(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.CheckoutSession{}).
		Where("id = ? AND status = ? AND backend_transaction_id IS NULL", id, enums.CheckoutSessionStatusSubmitting).
		Updates(map[string]any{"status": enums.CheckoutSessionStatusActive, "updated_at": time.Now().UTC()})
	return affectedOne(res)
}

// MarkAccepted records the backend transaction on a claimed session.
func (r *Repository) MarkAccepted(ctx context.Context, id uuid.UUID, backendID int64, invoice string) error {
	return r.transition(ctx, id, enums.CheckoutSessionStatusSubmitting, map[string]any{
		"backend_transaction_id": backendID,
		"invoice_number":         invoice,
		"updated_at":             time.Now().UTC(),
	})
}

// MarkSubmitted closes a claimed session once its sale is journaled.
func (r *Repository) MarkSubmitted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.transition(ctx, id, enums.CheckoutSessionStatusSubmitting, map[string]any{
		"status":       enums.CheckoutSessionStatusSubmitted,
		"submitted_at": at,
		"updated_at":   at,
	})
}

func (r *Repository) transition(ctx context.Context, id uuid.UUID, from enums.CheckoutSessionStatus, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.CheckoutSession{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return affectedOne(res)
}

func affectedOne(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrSessionNotActive
	}
	return nil
}

// ListLines returns the lines of a session.
func (r *Repository) ListLines(ctx context.Context, sessionID uuid.UUID) ([]models.CartLine, error) {
	var rows []models.CartLine
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateLine inserts a line.
func (r *Repository) CreateLine(ctx context.Context, line *models.CartLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(line).Error
}

// SaveLine updates a line.
func (r *Repository) SaveLine(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

// DeleteLine removes a line owned by the session.
func (r *Repository) DeleteLine(ctx context.Context, sessionID, lineID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND session_id = ?", lineID, sessionID).
		Delete(&models.CartLine{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
