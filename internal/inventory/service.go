package inventory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/pos-terminal/pkg/backend"
	"github.com/angelmondragon/pos-terminal/pkg/db/models"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	pkgpagination "github.com/angelmondragon/pos-terminal/pkg/pagination"
)

const maxNoteLength = 500

type adjustmentRepository interface {
	Create(ctx context.Context, adj *models.InventoryAdjustment) error
	List(ctx context.Context, opts listQuery) ([]models.InventoryAdjustment, error)
}

type stockAdjuster interface {
	AdjustStock(ctx context.Context, productID int64, req backend.StockAdjustmentRequest) (*backend.StockLevel, error)
}

type catalogCache interface {
	Invalidate(ctx context.Context, id int64)
}

// AdjustInput is a stock correction entered at the terminal.
type AdjustInput struct {
	ProductID  int64
	Delta      int64
	Reason     enums.AdjustmentReason
	Note       string
	CashierID  int64
	TerminalID string
}

// HistoryPage is one page of adjustments.
type HistoryPage struct {
	Items  []models.InventoryAdjustment
	Cursor string
}

// Service sends stock corrections to the backend and keeps a local audit trail.
type Service interface {
	Adjust(ctx context.Context, input AdjustInput) (*models.InventoryAdjustment, error)
	History(ctx context.Context, productID *int64, params pkgpagination.Params) (*HistoryPage, error)
}

type service struct {
	repo    adjustmentRepository
	backend stockAdjuster
	catalog catalogCache
	logg    *logger.Logger
}

// NewService builds the inventory service. catalog may be nil.
func NewService(repo adjustmentRepository, client stockAdjuster, catalog catalogCache, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("adjustment repository required")
	}
	if client == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, backend: client, catalog: catalog, logg: logg}, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.InventoryAdjustment, error) {
	if input.ProductID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must not be zero")
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is invalid").
			WithDetails(map[string]any{"reason": input.Reason})
	}
	note := strings.TrimSpace(input.Note)
	if len(note) > maxNoteLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("note must be at most %d characters", maxNoteLength))
	}

	level, err := s.backend.AdjustStock(ctx, input.ProductID, backend.StockAdjustmentRequest{
		Delta:  input.Delta,
		Reason: input.Reason,
		Note:   note,
	})
	if err != nil {
		return nil, err
	}
	if s.catalog != nil {
		s.catalog.Invalidate(ctx, input.ProductID)
	}

	stock := level.Stock
	adj := &models.InventoryAdjustment{
		ProductID:    input.ProductID,
		Delta:        input.Delta,
		Reason:       input.Reason,
		CashierID:    input.CashierID,
		TerminalID:   input.TerminalID,
		BackendStock: &stock,
	}
	if note != "" {
		adj.Note = &note
	}
	// The backend change is done; failing here would let a retry apply the delta twice.
	if err := s.repo.Create(ctx, adj); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "product_id", input.ProductID), "stock adjusted on backend but not recorded", err)
		adj.Unjournaled = true
		return adj, nil
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"product_id": strconv.FormatInt(input.ProductID, 10),
		"delta":      input.Delta,
		"reason":     input.Reason.String(),
	}), "stock adjusted")
	return adj, nil
}

func (s *service) History(ctx context.Context, productID *int64, params pkgpagination.Params) (*HistoryPage, error) {
	if productID != nil && *productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	page, err := pkgpagination.NewKeyset(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, listQuery{productID: productID, page: page})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list adjustments")
	}

	rows, next := pkgpagination.Trim(page, rows, func(row models.InventoryAdjustment) pkgpagination.Cursor {
		return pkgpagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return &HistoryPage{Items: rows, Cursor: next}, nil
}
