package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-terminal/api/responses"
	"github.com/angelmondragon/pos-terminal/api/validators"
	cartsvc "github.com/angelmondragon/pos-terminal/internal/cart"
	checkoutsvc "github.com/angelmondragon/pos-terminal/internal/checkout"
	calc "github.com/angelmondragon/pos-terminal/pkg/checkout"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

type quoteLineRequest struct {
	ProductID int64  `json:"product_id" validate:"gte=0"`
	Name      string `json:"name" validate:"max=255"`
	UnitPrice int64  `json:"unit_price" validate:"lte=1000000000000"`
	UnitCost  int64  `json:"unit_cost" validate:"gte=0,lte=1000000000000"`
	Quantity  int64  `json:"quantity" validate:"lte=1000000"`
}

type quoteDiscountRequest struct {
	Code  string          `json:"code" validate:"max=64"`
	Type  string          `json:"type" validate:"required,oneof=percentage fixed"`
	Value decimal.Decimal `json:"value"`
}

type quoteCustomerRequest struct {
	ID            int64 `json:"id" validate:"gt=0"`
	LoyaltyPoints int64 `json:"loyalty_points" validate:"gte=0"`
}

type quoteRequest struct {
	Items          []quoteLineRequest    `json:"items" validate:"max=500,dive"`
	Discount       *quoteDiscountRequest `json:"discount,omitempty"`
	Customer       *quoteCustomerRequest `json:"customer,omitempty"`
	PointsToRedeem int64                 `json:"points_to_redeem" validate:"gte=0,lte=1000000000000"`
	AmountTendered int64                 `json:"amount_tendered" validate:"gte=0,lte=1000000000000"`
}

func (req quoteRequest) input(conversionRate int64) calc.Input {
	in := calc.Input{
		Lines:          make([]calc.Line, 0, len(req.Items)),
		PointsToRedeem: req.PointsToRedeem,
		ConversionRate: conversionRate,
		AmountTendered: req.AmountTendered,
	}
	for _, item := range req.Items {
		in.Lines = append(in.Lines, calc.Line{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			UnitCost:  item.UnitCost,
			Quantity:  item.Quantity,
		})
	}
	if d := req.Discount; d != nil {
		in.Discount = &calc.Discount{Code: d.Code, Kind: enums.DiscountKind(d.Type), Value: d.Value}
	}
	if c := req.Customer; c != nil {
		in.Customer = &calc.Customer{ID: c.ID, LoyaltyPoints: c.LoyaltyPoints}
	}
	return in
}

type receiptResponse struct {
	TransactionID        uuid.UUID           `json:"transaction_id"`
	BackendTransactionID int64               `json:"backend_transaction_id"`
	InvoiceNumber        string              `json:"invoice_number,omitempty"`
	SessionID            uuid.UUID           `json:"session_id"`
	ShiftID              uuid.UUID           `json:"shift_id"`
	PaymentMethod        enums.PaymentMethod `json:"payment_method"`
	Totals               calc.Result         `json:"totals"`
	CreatedAt            time.Time           `json:"created_at"`
}

func newReceiptResponse(r *checkoutsvc.Receipt) receiptResponse {
	return receiptResponse{
		TransactionID:        r.TransactionID,
		BackendTransactionID: r.BackendTransactionID,
		InvoiceNumber:        r.InvoiceNumber,
		SessionID:            r.SessionID,
		ShiftID:              r.ShiftID,
		PaymentMethod:        r.PaymentMethod,
		Totals:               r.Result,
		CreatedAt:            r.CreatedAt,
	}
}

// CheckoutQuote computes totals for an ad-hoc basket without touching any session.
func CheckoutQuote(conversionRate int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.Discount != nil && req.Discount.Value.IsNegative() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "discount value must not be negative"))
			return
		}
		responses.WriteSuccess(w, calc.Calculate(req.input(conversionRate)))
	}
}

// CartQuote recomputes the active cart's totals.
func CartQuote(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, scope cartsvc.Scope) (*cartsvc.View, error) {
		return svc.Quote(r.Context(), scope)
	})
}

// CheckoutSubmit sends the active cart to the backend and returns the receipt.
func CheckoutSubmit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		receipt, err := svc.Submit(r.Context(), scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newReceiptResponse(receipt))
	}
}
