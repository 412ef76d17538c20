package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/pos-terminal/api/middleware"
	cartsvc "github.com/angelmondragon/pos-terminal/internal/cart"
	"github.com/angelmondragon/pos-terminal/pkg/checkout"
	"github.com/angelmondragon/pos-terminal/pkg/db/models"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/types"
)

type stubCartService struct {
	cartsvc.Service
	addFn    func(ctx context.Context, scope cartsvc.Scope, input cartsvc.AddItemInput) (*cartsvc.View, error)
	updateFn func(ctx context.Context, scope cartsvc.Scope, lineID uuid.UUID, qty int64) (*cartsvc.View, error)
	tenderFn func(ctx context.Context, scope cartsvc.Scope, amount int64, method enums.PaymentMethod) (*cartsvc.View, error)
	cleared  []cartsvc.Scope
}

func (s *stubCartService) AddItem(ctx context.Context, scope cartsvc.Scope, input cartsvc.AddItemInput) (*cartsvc.View, error) {
	return s.addFn(ctx, scope, input)
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, scope cartsvc.Scope, lineID uuid.UUID, qty int64) (*cartsvc.View, error) {
	return s.updateFn(ctx, scope, lineID, qty)
}

func (s *stubCartService) SetTender(ctx context.Context, scope cartsvc.Scope, amount int64, method enums.PaymentMethod) (*cartsvc.View, error) {
	return s.tenderFn(ctx, scope, amount, method)
}

func (s *stubCartService) Clear(_ context.Context, scope cartsvc.Scope) error {
	s.cleared = append(s.cleared, scope)
	return nil
}

func withCashier(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithCashier(req.Context(), 7, string(enums.CashierRoleCashier), "front-1"))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func sampleView(qty int64) *cartsvc.View {
	session := &models.CheckoutSession{
		ID:            uuid.New(),
		TerminalID:    "front-1",
		CashierID:     7,
		Status:        enums.CheckoutSessionStatusActive,
		PaymentMethod: enums.PaymentMethodCash,
		Customer:      &types.CustomerSnapshot{ID: 3, Name: "Sari", LoyaltyPoints: 40},
		Lines: []models.CartLine{{
			ID:             uuid.New(),
			ProductID:      11,
			Name:           "Kopi Susu",
			UnitPrice:      18000,
			Quantity:       qty,
			AvailableStock: 20,
		}},
	}
	return &cartsvc.View{
		Session: session,
		Result:  checkout.Calculate(cartsvc.CalculatorInput(session, checkout.DefaultConversionRate)),
	}
}

func TestCartAddItem(t *testing.T) {
	svc := &stubCartService{
		addFn: func(_ context.Context, scope cartsvc.Scope, input cartsvc.AddItemInput) (*cartsvc.View, error) {
			if scope.TerminalID != "front-1" || scope.CashierID != 7 {
				t.Fatalf("unexpected scope %+v", scope)
			}
			if input.Barcode != "8991234" || input.Quantity != 2 {
				t.Fatalf("unexpected input %+v", input)
			}
			return sampleView(2), nil
		},
	}

	body := strings.NewReader(`{"barcode":"8991234","quantity":2}`)
	req := withCashier(httptest.NewRequest(http.MethodPost, "/", body))
	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Lines) != 1 || envelope.Data.Lines[0].LineTotal != 36000 {
		t.Fatalf("unexpected lines %+v", envelope.Data.Lines)
	}
	if envelope.Data.Totals.Subtotal != 36000 || envelope.Data.Customer == nil {
		t.Fatalf("unexpected cart %+v", envelope.Data)
	}
}

func TestCartAddItemRejectsUnknownFields(t *testing.T) {
	svc := &stubCartService{}
	req := withCashier(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"sku":"x"}`)))
	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartRequiresCashierContext(t *testing.T) {
	svc := &stubCartService{}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":1}`))
	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartUpdateItem(t *testing.T) {
	lineID := uuid.New()
	svc := &stubCartService{
		updateFn: func(_ context.Context, _ cartsvc.Scope, id uuid.UUID, qty int64) (*cartsvc.View, error) {
			if id != lineID || qty != 5 {
				t.Fatalf("unexpected update %s %d", id, qty)
			}
			return sampleView(5), nil
		},
	}

	req := withCashier(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"quantity":5}`)))
	req = withURLParam(req, "lineId", lineID.String())
	resp := httptest.NewRecorder()
	CartUpdateItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCartUpdateItemRejectsBadLineID(t *testing.T) {
	req := withCashier(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"quantity":5}`)))
	req = withURLParam(req, "lineId", "not-a-uuid")
	resp := httptest.NewRecorder()
	CartUpdateItem(&stubCartService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartSetTenderValidatesPaymentMethod(t *testing.T) {
	var gotMethod enums.PaymentMethod
	svc := &stubCartService{
		tenderFn: func(_ context.Context, _ cartsvc.Scope, amount int64, method enums.PaymentMethod) (*cartsvc.View, error) {
			gotMethod = method
			return sampleView(1), nil
		},
	}

	req := withCashier(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"amount":20000,"payment_method":"crypto"}`)))
	resp := httptest.NewRecorder()
	CartSetTender(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	req = withCashier(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"amount":20000,"payment_method":"qris"}`)))
	resp = httptest.NewRecorder()
	CartSetTender(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotMethod != enums.PaymentMethodQRIS {
		t.Fatalf("expected qris got %s", gotMethod)
	}
}

func TestCartServiceErrorsAreMapped(t *testing.T) {
	svc := &stubCartService{
		addFn: func(context.Context, cartsvc.Scope, cartsvc.AddItemInput) (*cartsvc.View, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "only 1 of Kopi Susu in stock")
		},
	}
	req := withCashier(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":11,"quantity":3}`)))
	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestCartClear(t *testing.T) {
	svc := &stubCartService{}
	req := withCashier(httptest.NewRequest(http.MethodDelete, "/", nil))
	resp := httptest.NewRecorder()
	CartClear(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if len(svc.cleared) != 1 || svc.cleared[0].TerminalID != "front-1" {
		t.Fatalf("unexpected clears %+v", svc.cleared)
	}
}
