package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pos-terminal/api/responses"
	"github.com/angelmondragon/pos-terminal/api/validators"
	shiftsvc "github.com/angelmondragon/pos-terminal/internal/shifts"
	"github.com/angelmondragon/pos-terminal/pkg/db/models"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

type openShiftRequest struct {
	OpeningCash int64  `json:"opening_cash" validate:"gte=0"`
	PIN         string `json:"pin" validate:"required,pin"`
	Note        string `json:"note" validate:"max=500"`
}

type closeShiftRequest struct {
	CountedCash int64  `json:"counted_cash" validate:"gte=0"`
	PIN         string `json:"pin" validate:"required,pin"`
	Note        string `json:"note" validate:"max=500"`
}

type shiftResponse struct {
	ID             uuid.UUID         `json:"id"`
	TerminalID     string            `json:"terminal_id"`
	CashierID      int64             `json:"cashier_id"`
	Status         enums.ShiftStatus `json:"status"`
	OpeningCash    int64             `json:"opening_cash"`
	ClosingCash    *int64            `json:"closing_cash,omitempty"`
	ExpectedCash   *int64            `json:"expected_cash,omitempty"`
	CashDifference *int64            `json:"cash_difference,omitempty"`
	Note           *string           `json:"note,omitempty"`
	OpenedAt       time.Time         `json:"opened_at"`
	ClosedAt       *time.Time        `json:"closed_at,omitempty"`
}

func newShiftResponse(s *models.Shift) shiftResponse {
	return shiftResponse{
		ID:             s.ID,
		TerminalID:     s.TerminalID,
		CashierID:      s.CashierID,
		Status:         s.Status,
		OpeningCash:    s.OpeningCash,
		ClosingCash:    s.ClosingCash,
		ExpectedCash:   s.ExpectedCash,
		CashDifference: s.CashDifference,
		Note:           s.Note,
		OpenedAt:       s.OpenedAt,
		ClosedAt:       s.ClosedAt,
	}
}

type shiftSummaryResponse struct {
	Shift        shiftResponse   `json:"shift"`
	Totals       shiftsvc.Totals `json:"totals"`
	ExpectedCash int64           `json:"expected_cash"`
}

func newShiftSummaryResponse(s *shiftsvc.Summary) shiftSummaryResponse {
	return shiftSummaryResponse{
		Shift:        newShiftResponse(s.Shift),
		Totals:       s.Totals,
		ExpectedCash: s.ExpectedCash,
	}
}

func shiftsUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shift service unavailable"))
}

// ShiftOpen starts a shift on the caller's terminal.
func ShiftOpen(svc shiftsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			shiftsUnavailable(w, r, logg)
			return
		}
		scope, err := terminalScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req openShiftRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shift, err := svc.Open(r.Context(), shiftsvc.OpenInput{
			TerminalID:  scope.TerminalID,
			CashierID:   scope.CashierID,
			OpeningCash: req.OpeningCash,
			PIN:         req.PIN,
			Note:        req.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newShiftResponse(shift))
	}
}

// ShiftCurrent returns the open shift with its running totals.
func ShiftCurrent(svc shiftsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			shiftsUnavailable(w, r, logg)
			return
		}
		scope, err := terminalScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Current(r.Context(), scope.TerminalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newShiftSummaryResponse(summary))
	}
}

// ShiftClose reconciles the counted drawer and closes the shift.
func ShiftClose(svc shiftsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			shiftsUnavailable(w, r, logg)
			return
		}
		scope, err := terminalScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req closeShiftRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Close(r.Context(), shiftsvc.CloseInput{
			TerminalID:  scope.TerminalID,
			CashierID:   scope.CashierID,
			CountedCash: req.CountedCash,
			PIN:         req.PIN,
			Note:        req.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newShiftSummaryResponse(summary))
	}
}

func ShiftList(svc shiftsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			shiftsUnavailable(w, r, logg)
			return
		}
		scope, err := terminalScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), scope.TerminalID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := pageResponse[shiftResponse]{Items: make([]shiftResponse, 0, len(result.Items)), NextCursor: result.Cursor}
		for i := range result.Items {
			out.Items = append(out.Items, newShiftResponse(&result.Items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
