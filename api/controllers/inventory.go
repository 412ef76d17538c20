package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pos-terminal/api/responses"
	"github.com/angelmondragon/pos-terminal/api/validators"
	inventorysvc "github.com/angelmondragon/pos-terminal/internal/inventory"
	"github.com/angelmondragon/pos-terminal/pkg/db/models"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

type adjustStockRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Delta     int64  `json:"delta" validate:"ne=0"`
	Reason    string `json:"reason" validate:"required,adjustment_reason"`
	Note      string `json:"note" validate:"max=500"`
}

type adjustmentResponse struct {
	ID           uuid.UUID              `json:"id"`
	ProductID    int64                  `json:"product_id"`
	Delta        int64                  `json:"delta"`
	Reason       enums.AdjustmentReason `json:"reason"`
	Note         *string                `json:"note,omitempty"`
	CashierID    int64                  `json:"cashier_id"`
	TerminalID   string                 `json:"terminal_id"`
	BackendStock *int64                 `json:"backend_stock,omitempty"`
	Journaled    bool                   `json:"journaled"`
	CreatedAt    time.Time              `json:"created_at"`
}

func newAdjustmentResponse(a *models.InventoryAdjustment) adjustmentResponse {
	return adjustmentResponse{
		ID:           a.ID,
		ProductID:    a.ProductID,
		Delta:        a.Delta,
		Reason:       a.Reason,
		Note:         a.Note,
		CashierID:    a.CashierID,
		TerminalID:   a.TerminalID,
		BackendStock: a.BackendStock,
		Journaled:    !a.Unjournaled,
		CreatedAt:    a.CreatedAt,
	}
}

// InventoryAdjust posts a stock correction to the backend and journals it.
func InventoryAdjust(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		scope, err := terminalScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req adjustStockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		adjustment, err := svc.Adjust(r.Context(), inventorysvc.AdjustInput{
			ProductID:  req.ProductID,
			Delta:      req.Delta,
			Reason:     enums.AdjustmentReason(req.Reason),
			Note:       req.Note,
			CashierID:  scope.CashierID,
			TerminalID: scope.TerminalID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newAdjustmentResponse(adjustment))
	}
}

// InventoryHistory lists journaled adjustments, optionally for one product.
func InventoryHistory(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		productID, err := validators.ParseQueryID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.History(r.Context(), productID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := pageResponse[adjustmentResponse]{Items: make([]adjustmentResponse, 0, len(page.Items)), NextCursor: page.Cursor}
		for i := range page.Items {
			out.Items = append(out.Items, newAdjustmentResponse(&page.Items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
