package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-terminal/internal/discounts"
	"github.com/angelmondragon/pos-terminal/pkg/backend"
	"github.com/angelmondragon/pos-terminal/pkg/checkout"
	"github.com/angelmondragon/pos-terminal/pkg/db"
	"github.com/angelmondragon/pos-terminal/pkg/db/models"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLookup interface {
	GetByBarcode(ctx context.Context, barcode string) (*backend.Product, error)
	Refresh(ctx context.Context, id int64) (*backend.Product, error)
}

type discountResolver interface {
	Resolve(ctx context.Context, code string, customer *types.CustomerSnapshot, now time.Time) (*types.DiscountSnapshot, error)
}

type customerLookup interface {
	Get(ctx context.Context, id int64) (*types.CustomerSnapshot, error)
}

// Scope identifies the terminal and cashier a cart operation runs for.
type Scope struct {
	TerminalID string
	CashierID  int64
}

func (s Scope) validate() error {
	if strings.TrimSpace(s.TerminalID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "terminal id is required")
	}
	if s.CashierID <= 0 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "cashier is required")
	}
	return nil
}

// AddItemInput identifies a product by id or barcode.
type AddItemInput struct {
	ProductID int64
	Barcode   string
	Quantity  int64
}

// Service manages the active checkout session of a terminal.
type Service interface {
	GetActive(ctx context.Context, scope Scope) (*View, error)
	AddItem(ctx context.Context, scope Scope, input AddItemInput) (*View, error)
	UpdateQuantity(ctx context.Context, scope Scope, lineID uuid.UUID, quantity int64) (*View, error)
	RemoveLine(ctx context.Context, scope Scope, lineID uuid.UUID) (*View, error)
	Clear(ctx context.Context, scope Scope) error
	ApplyDiscount(ctx context.Context, scope Scope, code string) (*View, error)
	RemoveDiscount(ctx context.Context, scope Scope) (*View, error)
	SelectCustomer(ctx context.Context, scope Scope, customerID int64) (*View, error)
	RemoveCustomer(ctx context.Context, scope Scope) (*View, error)
	SetRedemption(ctx context.Context, scope Scope, points int64) (*View, error)
	SetTender(ctx context.Context, scope Scope, amount int64, method enums.PaymentMethod) (*View, error)
	Quote(ctx context.Context, scope Scope) (*View, error)
}

// ServiceParams groups the cart dependencies.
type ServiceParams struct {
	Repo           SessionRepository
	Tx             txRunner
	Products       productLookup
	Discounts      discountResolver
	Customers      customerLookup
	ConversionRate int64
	Clock          func() time.Time
}

type service struct {
	repo      SessionRepository
	tx        txRunner
	products  productLookup
	discounts discountResolver
	customers customerLookup
	rate      int64
	clock     func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("session repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if params.Discounts == nil {
		return nil, fmt.Errorf("discount resolver required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer lookup required")
	}
	rate := params.ConversionRate
	if rate <= 0 {
		rate = checkout.DefaultConversionRate
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		products:  params.Products,
		discounts: params.Discounts,
		customers: params.Customers,
		rate:      rate,
		clock:     clock,
	}, nil
}

// mutation edits the session header in memory and lines through repo.
// Extra warnings are appended to the computed result.
type mutation func(ctx context.Context, repo SessionRepository, session *models.CheckoutSession) ([]checkout.Warning, error)

func (s *service) GetActive(ctx context.Context, scope Scope) (*View, error) {
	return s.mutate(ctx, scope, nil)
}

func (s *service) Quote(ctx context.Context, scope Scope) (*View, error) {
	return s.mutate(ctx, scope, nil)
}

func (s *service) AddItem(ctx context.Context, scope Scope, input AddItemInput) (*View, error) {
	qty := input.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	product, err := s.resolveProduct(ctx, input)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, scope, func(ctx context.Context, repo SessionRepository, session *models.CheckoutSession) ([]checkout.Warning, error) {
		var existing *models.CartLine
		for i := range session.Lines {
			if session.Lines[i].ProductID == product.ID {
				existing = &session.Lines[i]
				break
			}
		}

		requested := qty
		if existing != nil {
			requested += existing.Quantity
		}
		if err := checkStock(product, requested); err != nil {
			return nil, err
		}

		if existing != nil {
			applySnapshot(existing, product)
			existing.Quantity = requested
			return nil, repo.SaveLine(ctx, existing)
		}
		line := &models.CartLine{SessionID: session.ID, Quantity: requested}
		applySnapshot(line, product)
		return nil, repo.CreateLine(ctx, line)
	})
}

func (s *service) UpdateQuantity(ctx context.Context, scope Scope, lineID uuid.UUID, quantity int64) (*View, error) {
	return s.mutate(ctx, scope, func(ctx context.Context, repo SessionRepository, session *models.CheckoutSession) ([]checkout.Warning, error) {
		line := findLine(session, lineID)
		if line == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		if quantity <= 0 {
			return nil, repo.DeleteLine(ctx, session.ID, lineID)
		}
		if quantity > line.Quantity {
			product, err := s.products.Refresh(ctx, line.ProductID)
			if err != nil {
				return nil, err
			}
			if err := checkStock(product, quantity); err != nil {
				return nil, err
			}
			applySnapshot(line, product)
		}
		line.Quantity = quantity
		return nil, repo.SaveLine(ctx, line)
	})
}

func (s *service) RemoveLine(ctx context.Context, scope Scope, lineID uuid.UUID) (*View, error) {
	return s.mutate(ctx, scope, func(ctx context.Context, repo SessionRepository, session *models.CheckoutSession) ([]checkout.Warning, error) {
		if findLine(session, lineID) == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, repo.DeleteLine(ctx, session.ID, lineID)
	})
}

// Clear abandons the active session; the next read starts an empty one.
func (s *service) Clear(ctx context.Context, scope Scope) error {
	if err := scope.validate(); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		session, err := repo.FindActive(ctx, scope.TerminalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load checkout session")
		}
		if err := repo.UpdateStatus(ctx, session.ID, enums.CheckoutSessionStatusCleared, nil); err != nil {
			return sessionWriteError(err, "clear checkout session")
		}
		return nil
	})
}

func (s *service) ApplyDiscount(ctx context.Context, scope Scope, code string) (*View, error) {
	return s.mutate(ctx, scope, func(ctx context.Context, repo SessionRepository, session *models.CheckoutSession) ([]checkout.Warning, error) {
		snapshot, err := s.discounts.Resolve(ctx, code, session.Customer, s.clock())
		if err != nil {
			return nil, err
		}
		session.Discount = snapshot
		return nil, nil
	})
}

func (s *service) RemoveDiscount(ctx context.Context, scope Scope) (*View, error) {
	return s.mutate(ctx, scope, func(ctx context.Context, repo SessionRepository, session *models.CheckoutSession) ([]checkout.Warning, error) {
		session.Discount = nil
		return nil, nil
	})
}

func (s *service) SelectCustomer(ctx context.Context, scope Scope, customerID int64) (*View, error) {
	customer, err := s.customers.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, scope, func(ctx context.Context, repo SessionRepository, session *models.CheckoutSession) ([]checkout.Warning, error) {
		if session.Customer == nil || session.Customer.ID != customer.ID {
			session.PointsToRedeem = 0
		}
		session.Customer = customer
		return dropIneligibleDiscount(session), nil
	})
}

func (s *service) RemoveCustomer(ctx context.Context, scope Scope) (*View, error) {
	return s.mutate(ctx, scope, func(ctx context.Context, repo SessionRepository, session *models.CheckoutSession) ([]checkout.Warning, error) {
		session.Customer = nil
		session.PointsToRedeem = 0
		return dropIneligibleDiscount(session), nil
	})
}

func (s *service) SetRedemption(ctx context.Context, scope Scope, points int64) (*View, error) {
	if points < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points must not be negative")
	}
	return s.mutate(ctx, scope, func(ctx context.Context, repo SessionRepository, session *models.CheckoutSession) ([]checkout.Warning, error) {
		if session.Customer == nil && points > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "select a customer before redeeming points")
		}
		session.PointsToRedeem = points
		return nil, nil
	})
}

func (s *service) SetTender(ctx context.Context, scope Scope, amount int64, method enums.PaymentMethod) (*View, error) {
	if amount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount tendered must not be negative")
	}
	if method == "" {
		method = enums.PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is invalid").
			WithDetails(map[string]any{"payment_method": method})
	}
	return s.mutate(ctx, scope, func(ctx context.Context, repo SessionRepository, session *models.CheckoutSession) ([]checkout.Warning, error) {
		session.AmountTendered = amount
		session.PaymentMethod = method
		return nil, nil
	})
}

// mutate runs fn against the terminal's active session inside a transaction, then
// recomputes totals and stores the re-clamped redemption.
func (s *service) mutate(ctx context.Context, scope Scope, fn mutation) (*View, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}

	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		session, err := s.loadOrCreate(ctx, repo, scope)
		if err != nil {
			return err
		}

		var extra []checkout.Warning
		if fn != nil {
			extra, err = fn(ctx, repo, session)
			if err != nil {
				return asInternal(err, "update checkout session")
			}
			lines, err := repo.ListLines(ctx, session.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart lines")
			}
			session.Lines = lines
		}

		result := checkout.Calculate(CalculatorInput(session, s.rate))
		result.Warnings = append(result.Warnings, extra...)

		if fn != nil || session.PointsToRedeem != result.RedeemedPoints {
			session.PointsToRedeem = result.RedeemedPoints
			session.CashierID = scope.CashierID
			if err := repo.Save(ctx, session); err != nil {
				return sessionWriteError(err, "save checkout session")
			}
		}
		view = &View{Session: session, Result: result}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) loadOrCreate(ctx context.Context, repo SessionRepository, scope Scope) (*models.CheckoutSession, error) {
	session, err := repo.FindActive(ctx, scope.TerminalID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load checkout session")
	}
	if _, err := repo.FindSubmitting(ctx, scope.TerminalID); err == nil {
		return nil, errCheckoutInProgress()
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load checkout session")
	}

	session = &models.CheckoutSession{
		TerminalID:    scope.TerminalID,
		CashierID:     scope.CashierID,
		Status:        enums.CheckoutSessionStatusActive,
		PaymentMethod: enums.PaymentMethodCash,
		Lines:         []models.CartLine{},
	}
	if err := repo.Create(ctx, session); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "checkout session already active for terminal")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create checkout session")
	}
	return session, nil
}

func (s *service) resolveProduct(ctx context.Context, input AddItemInput) (*backend.Product, error) {
	id := input.ProductID
	if barcode := strings.TrimSpace(input.Barcode); barcode != "" {
		product, err := s.products.GetByBarcode(ctx, barcode)
		if err != nil {
			return nil, err
		}
		id = product.ID
	}
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id or barcode is required")
	}
	// Stock must come from the backend, not the cache.
	return s.products.Refresh(ctx, id)
}

func checkStock(product *backend.Product, requested int64) error {
	if requested <= product.Stock {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("only %d of %s in stock", product.Stock, product.Name)).
		WithDetails(checkout.StockViolationDetail{
			ProductID:    product.ID,
			ProductName:  product.Name,
			AvailableQty: product.Stock,
			RequestedQty: requested,
		})
}

func applySnapshot(line *models.CartLine, product *backend.Product) {
	line.ProductID = product.ID
	line.Name = product.Name
	line.Barcode = product.Barcode
	line.UnitPrice = product.Price
	line.UnitCost = product.Cost
	line.AvailableStock = product.Stock
}

func findLine(session *models.CheckoutSession, lineID uuid.UUID) *models.CartLine {
	for i := range session.Lines {
		if session.Lines[i].ID == lineID {
			return &session.Lines[i]
		}
	}
	return nil
}

func dropIneligibleDiscount(session *models.CheckoutSession) []checkout.Warning {
	if session.Discount == nil {
		return nil
	}
	if err := discounts.CheckEligibility(session.Discount, session.Customer); err == nil {
		return nil
	}
	dropped := session.Discount.Code
	session.Discount = nil
	return []checkout.Warning{{
		Type:    enums.CheckoutWarningTypeDiscountDropped,
		Message: fmt.Sprintf("discount %s removed: not available for this customer", dropped),
	}}
}

func errCheckoutInProgress() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "a checkout is being submitted on this terminal")
}

// sessionWriteError reports a write that lost the session to a checkout as a state conflict.
func sessionWriteError(err error, msg string) error {
	if errors.Is(err, ErrSessionNotActive) {
		return errCheckoutInProgress()
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}

func asInternal(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart line not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
