package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pos-terminal/api/responses"
	"github.com/angelmondragon/pos-terminal/api/validators"
	checkoutsvc "github.com/angelmondragon/pos-terminal/internal/checkout"
	"github.com/angelmondragon/pos-terminal/pkg/db/models"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	"github.com/angelmondragon/pos-terminal/pkg/types"
)

type transactionResponse struct {
	ID                   uuid.UUID              `json:"id"`
	BackendTransactionID int64                  `json:"backend_transaction_id"`
	SessionID            uuid.UUID              `json:"session_id"`
	ShiftID              uuid.UUID              `json:"shift_id"`
	TerminalID           string                 `json:"terminal_id"`
	CashierID            int64                  `json:"cashier_id"`
	CustomerID           *int64                 `json:"customer_id,omitempty"`
	DiscountCode         *string                `json:"discount_code,omitempty"`
	Subtotal             int64                  `json:"subtotal"`
	DiscountAmount       int64                  `json:"discount_amount"`
	PointsDiscountAmount int64                  `json:"points_discount_amount"`
	RedeemedPoints       int64                  `json:"redeemed_points"`
	FinalTotal           int64                  `json:"final_total"`
	AmountTendered       int64                  `json:"amount_tendered"`
	Change               int64                  `json:"change"`
	PaymentMethod        enums.PaymentMethod    `json:"payment_method"`
	Items                types.TransactionItems `json:"items"`
	CreatedAt            time.Time              `json:"created_at"`
}

func newTransactionResponse(t *models.TransactionRecord) transactionResponse {
	items := t.Items
	if items == nil {
		items = types.TransactionItems{}
	}
	return transactionResponse{
		ID:                   t.ID,
		BackendTransactionID: t.BackendTransactionID,
		SessionID:            t.SessionID,
		ShiftID:              t.ShiftID,
		TerminalID:           t.TerminalID,
		CashierID:            t.CashierID,
		CustomerID:           t.CustomerID,
		DiscountCode:         t.DiscountCode,
		Subtotal:             t.Subtotal,
		DiscountAmount:       t.DiscountAmount,
		PointsDiscountAmount: t.PointsDiscountAmount,
		RedeemedPoints:       t.RedeemedPoints,
		FinalTotal:           t.FinalTotal,
		AmountTendered:       t.AmountTendered,
		Change:               t.Change,
		PaymentMethod:        t.PaymentMethod,
		Items:                items,
		CreatedAt:            t.CreatedAt,
	}
}

// TransactionList pages through the terminal's journal, newest first.
func TransactionList(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		scope, err := terminalScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shiftID, err := validators.ParseQueryUUID(r, "shift_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListTransactions(r.Context(), scope.TerminalID, shiftID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := pageResponse[transactionResponse]{Items: make([]transactionResponse, 0, len(page.Items)), NextCursor: page.Cursor}
		for i := range page.Items {
			out.Items = append(out.Items, newTransactionResponse(&page.Items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
