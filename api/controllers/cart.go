package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pos-terminal/api/responses"
	"github.com/angelmondragon/pos-terminal/api/validators"
	cartsvc "github.com/angelmondragon/pos-terminal/internal/cart"
	"github.com/angelmondragon/pos-terminal/pkg/checkout"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	"github.com/angelmondragon/pos-terminal/pkg/types"
)

type addItemRequest struct {
	ProductID int64  `json:"product_id" validate:"gte=0"`
	Barcode   string `json:"barcode" validate:"max=64"`
	Quantity  int64  `json:"quantity" validate:"gte=0,lte=1000000"`
}

type updateQuantityRequest struct {
	Quantity int64 `json:"quantity" validate:"gte=0,lte=1000000"`
}

type applyDiscountRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type selectCustomerRequest struct {
	CustomerID int64 `json:"customer_id" validate:"required,gt=0"`
}

type setPointsRequest struct {
	Points int64 `json:"points" validate:"gte=0,lte=1000000000000"`
}

type setTenderRequest struct {
	Amount        int64  `json:"amount" validate:"gte=0,lte=1000000000000"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,payment_method"`
}

type cartLineResponse struct {
	ID             uuid.UUID `json:"id"`
	ProductID      int64     `json:"product_id"`
	Barcode        string    `json:"barcode,omitempty"`
	Name           string    `json:"name"`
	UnitPrice      int64     `json:"unit_price"`
	Quantity       int64     `json:"quantity"`
	AvailableStock int64     `json:"available_stock"`
	LineTotal      int64     `json:"line_total"`
}

type cartResponse struct {
	ID             uuid.UUID               `json:"id"`
	TerminalID     string                  `json:"terminal_id"`
	Status         string                  `json:"status"`
	Lines          []cartLineResponse      `json:"lines"`
	Discount       *types.DiscountSnapshot `json:"discount,omitempty"`
	Customer       *types.CustomerSnapshot `json:"customer,omitempty"`
	PointsToRedeem int64                   `json:"points_to_redeem"`
	AmountTendered int64                   `json:"amount_tendered"`
	PaymentMethod  enums.PaymentMethod     `json:"payment_method"`
	Totals         checkout.Result         `json:"totals"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

func newCartResponse(view *cartsvc.View) cartResponse {
	session := view.Session
	out := cartResponse{
		ID:             session.ID,
		TerminalID:     session.TerminalID,
		Status:         string(session.Status),
		Lines:          make([]cartLineResponse, 0, len(session.Lines)),
		Discount:       session.Discount,
		Customer:       session.Customer,
		PointsToRedeem: session.PointsToRedeem,
		AmountTendered: session.AmountTendered,
		PaymentMethod:  session.PaymentMethod,
		Totals:         view.Result,
		UpdatedAt:      session.UpdatedAt,
	}
	for _, line := range session.Lines {
		total := int64(0)
		if line.Quantity > 0 && line.UnitPrice >= 0 {
			total = line.UnitPrice * line.Quantity
		}
		out.Lines = append(out.Lines, cartLineResponse{
			ID:             line.ID,
			ProductID:      line.ProductID,
			Barcode:        line.Barcode,
			Name:           line.Name,
			UnitPrice:      line.UnitPrice,
			Quantity:       line.Quantity,
			AvailableStock: line.AvailableStock,
			LineTotal:      total,
		})
	}
	return out
}

// cartHandler wraps the boilerplate shared by every cart endpoint: the service check,
// the terminal scope and rendering the resulting view.
func cartHandler(svc cartsvc.Service, logg *logger.Logger, fn func(r *http.Request, scope cartsvc.Scope) (*cartsvc.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		scope, err := terminalScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := fn(r, scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(view))
	}
}

// CartGet returns the terminal's active cart, creating an empty one when needed.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, scope cartsvc.Scope) (*cartsvc.View, error) {
		return svc.GetActive(r.Context(), scope)
	})
}

// CartClear abandons the active cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		scope, err := terminalScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Clear(r.Context(), scope); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, scope cartsvc.Scope) (*cartsvc.View, error) {
		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.AddItem(r.Context(), scope, cartsvc.AddItemInput{
			ProductID: req.ProductID,
			Barcode:   req.Barcode,
			Quantity:  req.Quantity,
		})
	})
}

// CartUpdateItem sets a line quantity; zero removes the line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, scope cartsvc.Scope) (*cartsvc.View, error) {
		lineID, err := pathUUID(r, "lineId")
		if err != nil {
			return nil, err
		}
		var req updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.UpdateQuantity(r.Context(), scope, lineID, req.Quantity)
	})
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, scope cartsvc.Scope) (*cartsvc.View, error) {
		lineID, err := pathUUID(r, "lineId")
		if err != nil {
			return nil, err
		}
		return svc.RemoveLine(r.Context(), scope, lineID)
	})
}

func CartApplyDiscount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, scope cartsvc.Scope) (*cartsvc.View, error) {
		var req applyDiscountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.ApplyDiscount(r.Context(), scope, req.Code)
	})
}

func CartRemoveDiscount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, scope cartsvc.Scope) (*cartsvc.View, error) {
		return svc.RemoveDiscount(r.Context(), scope)
	})
}

func CartSelectCustomer(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, scope cartsvc.Scope) (*cartsvc.View, error) {
		var req selectCustomerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.SelectCustomer(r.Context(), scope, req.CustomerID)
	})
}

func CartRemoveCustomer(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, scope cartsvc.Scope) (*cartsvc.View, error) {
		return svc.RemoveCustomer(r.Context(), scope)
	})
}

// CartSetPoints records the requested redemption; the service clamps it.
func CartSetPoints(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, scope cartsvc.Scope) (*cartsvc.View, error) {
		var req setPointsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.SetRedemption(r.Context(), scope, req.Points)
	})
}

func CartSetTender(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, scope cartsvc.Scope) (*cartsvc.View, error) {
		var req setTenderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.SetTender(r.Context(), scope, req.Amount, enums.PaymentMethod(req.PaymentMethod))
	})
}
