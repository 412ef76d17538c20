package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-terminal/internal/cart"
	"github.com/angelmondragon/pos-terminal/pkg/backend"
	calc "github.com/angelmondragon/pos-terminal/pkg/checkout"
	"github.com/angelmondragon/pos-terminal/pkg/db/models"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	"github.com/angelmondragon/pos-terminal/pkg/metrics"
	pkgpagination "github.com/angelmondragon/pos-terminal/pkg/pagination"
	"github.com/angelmondragon/pos-terminal/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type shiftGuard interface {
	RequireOpen(ctx context.Context, terminalID string) (*models.Shift, error)
}

type transactionCreator interface {
	CreateTransaction(ctx context.Context, req backend.TransactionRequest) (*backend.Transaction, error)
}

// claimTimeout is how long an unanswered claim blocks the terminal. It outlasts the
// backend client timeout.
const claimTimeout = 2 * time.Minute

type stockCache interface {
	Invalidate(ctx context.Context, id int64)
}

// Receipt is returned for an accepted checkout.
type Receipt struct {
	TransactionID        uuid.UUID
	BackendTransactionID int64
	InvoiceNumber        string
	SessionID            uuid.UUID
	ShiftID              uuid.UUID
	PaymentMethod        enums.PaymentMethod
	Result               calc.Result
	CreatedAt            time.Time
}

// JournalPage is one page of the local transaction journal.
type JournalPage struct {
	Items  []models.TransactionRecord
	Cursor string
}

// Service submits checkouts and reads the transaction journal.
type Service interface {
	Submit(ctx context.Context, scope cart.Scope) (*Receipt, error)
	ListTransactions(ctx context.Context, terminalID string, shiftID *uuid.UUID, params pkgpagination.Params) (*JournalPage, error)
}

// ServiceParams groups the checkout dependencies.
type ServiceParams struct {
	Tx             txRunner
	Sessions       cart.SessionRepository
	Journal        JournalRepository
	Shifts         shiftGuard
	Backend        transactionCreator
	Stock          stockCache
	Metrics        *metrics.CheckoutMetrics
	Logger         *logger.Logger
	ConversionRate int64
}

type service struct {
	tx       txRunner
	sessions cart.SessionRepository
	journal  JournalRepository
	shifts   shiftGuard
	backend  transactionCreator
	stock    stockCache
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	rate     int64
	clock    func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session repository required")
	}
	if params.Journal == nil {
		return nil, fmt.Errorf("journal repository required")
	}
	if params.Shifts == nil {
		return nil, fmt.Errorf("shift guard required")
	}
	if params.Backend == nil {
		return nil, fmt.Errorf("backend client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	rate := params.ConversionRate
	if rate <= 0 {
		rate = calc.DefaultConversionRate
	}
	return &service{
		tx:       params.Tx,
		sessions: params.Sessions,
		journal:  params.Journal,
		shifts:   params.Shifts,
		backend:  params.Backend,
		stock:    params.Stock,
		metrics:  params.Metrics,
		logg:     params.Logger,
		rate:     rate,
		clock:    time.Now,
	}, nil
}

func (s *service) Submit(ctx context.Context, scope cart.Scope) (receipt *Receipt, err error) {
	started := s.clock()
	defer func() {
		s.metrics.ObserveSubmission(outcomeOf(err), s.clock().Sub(started))
	}()

	terminalID := strings.TrimSpace(scope.TerminalID)
	if terminalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terminal id is required")
	}
	if scope.CashierID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cashier is required")
	}
	ctx = s.logg.WithScope(ctx, logger.Scope{CashierID: scope.CashierID, TerminalID: terminalID})

	shift, err := s.shifts.RequireOpen(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithScope(ctx, logger.Scope{ShiftID: shift.ID.String()})

	session, err := s.sessions.FindActive(ctx, terminalID)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		session, err = s.pending(ctx, terminalID)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, blocked(calc.Calculate(calc.Input{ConversionRate: s.rate}))
		}
		if session.BackendTransactionID != nil {
			s.logg.Warn(s.logg.WithField(ctx, "backend_transaction_id", *session.BackendTransactionID), "resuming checkout accepted by backend")
			return s.journalSale(ctx, scope, session, calc.Calculate(cart.CalculatorInput(session, s.rate)))
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load checkout session")
	}

	if err := calc.ValidateStock(cart.StockInputs(session)); err != nil {
		return nil, err
	}

	result := calc.Calculate(cart.CalculatorInput(session, s.rate))
	if !result.CanSubmit {
		s.logg.Info(s.logg.WithField(ctx, "warnings", len(result.BlockingWarnings())), "checkout blocked")
		return nil, blocked(result)
	}

	if err := s.sessions.Claim(ctx, session.ID, shift.ID); err != nil {
		if errors.Is(err, cart.ErrSessionNotActive) {
			return nil, errInProgress()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim checkout session")
	}
	session.ShiftID = &shift.ID

	// The sale may reach the backend, so everything after the claim outlives the client.
	ctx = detached(ctx)

	created, err := s.backend.CreateTransaction(ctx, buildTransactionRequest(session, shift.ID, result))
	if err != nil {
		if relErr := s.sessions.Release(ctx, session.ID); relErr != nil {
			s.logg.Error(ctx, "release checkout session", relErr)
		}
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create backend transaction")
		}
		s.logg.Error(ctx, "backend rejected checkout", err)
		return nil, err
	}

	session.BackendTransactionID = &created.ID
	session.InvoiceNumber = &created.InvoiceNumber
	if err := s.sessions.MarkAccepted(ctx, session.ID, created.ID, created.InvoiceNumber); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "backend_transaction_id", created.ID), "record backend acceptance", err)
	}
	return s.journalSale(ctx, scope, session, result)
}

// pending returns the terminal's claimed session, or nil when there is none. A claim the
// backend never answered is released once it is older than claimTimeout.
func (s *service) pending(ctx context.Context, terminalID string) (*models.CheckoutSession, error) {
	session, err := s.sessions.FindSubmitting(ctx, terminalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load checkout session")
	}
	if session.BackendTransactionID != nil {
		return session, nil
	}
	if s.clock().Sub(session.UpdatedAt) < claimTimeout {
		return nil, errInProgress()
	}
	if err := s.sessions.Release(ctx, session.ID); err != nil {
		if errors.Is(err, cart.ErrSessionNotActive) {
			return nil, errInProgress()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release checkout session")
	}
	s.logg.Warn(s.logg.WithField(ctx, "session_id", session.ID.String()), "released stale checkout claim")
	session.Status = enums.CheckoutSessionStatusActive
	return session, nil
}

// journalSale records a sale the backend accepted and closes its session. When journaling
// fails the session keeps the backend id, so a retry finishes here without a second sale.
func (s *service) journalSale(ctx context.Context, scope cart.Scope, session *models.CheckoutSession, result calc.Result) (*Receipt, error) {
	backendID := *session.BackendTransactionID
	shiftID := uuid.Nil
	if session.ShiftID != nil {
		shiftID = *session.ShiftID
	}
	req := buildTransactionRequest(session, shiftID, result)
	now := s.clock().UTC()
	record := &models.TransactionRecord{
		ID:                   uuid.New(),
		BackendTransactionID: backendID,
		SessionID:            session.ID,
		ShiftID:              shiftID,
		TerminalID:           session.TerminalID,
		CashierID:            scope.CashierID,
		CustomerID:           req.CustomerID,
		DiscountCode:         req.DiscountCode,
		Subtotal:             result.Subtotal,
		DiscountAmount:       result.DiscountAmount,
		PointsDiscountAmount: result.PointsDiscountAmount,
		RedeemedPoints:       result.RedeemedPoints,
		FinalTotal:           result.FinalTotal,
		AmountTendered:       result.AmountTendered,
		Change:               result.Change,
		CostTotal:            result.CostTotal,
		PaymentMethod:        session.PaymentMethod,
		Items:                req.Items,
		CreatedAt:            now,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		journal := s.journal.WithTx(tx)
		existing, err := journal.FindBySession(ctx, session.ID)
		switch {
		case err == nil:
			record = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := journal.Create(ctx, record); err != nil {
				return err
			}
		default:
			return err
		}
		return s.sessions.WithTx(tx).MarkSubmitted(ctx, session.ID, now)
	})
	if err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeInternal, err, "journal checkout").
			WithDetails(map[string]any{"backend_transaction_id": backendID})
		s.logg.Error(s.logg.WithField(ctx, "backend_transaction_id", backendID), "checkout accepted by backend but not journaled", wrapped)
		return nil, wrapped
	}

	if s.stock != nil {
		for _, line := range result.Lines {
			s.stock.Invalidate(ctx, line.ProductID)
		}
	}
	s.metrics.RecordSale(string(session.PaymentMethod), result.FinalTotal, result.DiscountAmount, result.RedeemedPoints)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"backend_transaction_id": backendID,
		"final_total":            result.FinalTotal,
	}), "checkout submitted")

	invoice := ""
	if session.InvoiceNumber != nil {
		invoice = *session.InvoiceNumber
	}
	return &Receipt{
		TransactionID:        record.ID,
		BackendTransactionID: backendID,
		InvoiceNumber:        invoice,
		SessionID:            session.ID,
		ShiftID:              shiftID,
		PaymentMethod:        session.PaymentMethod,
		Result:               result,
		CreatedAt:            record.CreatedAt,
	}, nil
}

func (s *service) ListTransactions(ctx context.Context, terminalID string, shiftID *uuid.UUID, params pkgpagination.Params) (*JournalPage, error) {
	terminalID = strings.TrimSpace(terminalID)
	if terminalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terminal id is required")
	}

	page, err := pkgpagination.NewKeyset(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.journal.List(ctx, listQuery{terminalID: terminalID, shiftID: shiftID, page: page})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list transactions")
	}

	rows, next := pkgpagination.Trim(page, rows, func(row models.TransactionRecord) pkgpagination.Cursor {
		return pkgpagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return &JournalPage{Items: rows, Cursor: next}, nil
}

func buildTransactionRequest(session *models.CheckoutSession, shiftID uuid.UUID, result calc.Result) backend.TransactionRequest {
	items := make(types.TransactionItems, 0, len(result.Lines))
	for _, line := range result.Lines {
		items = append(items, types.TransactionItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
			Cost:      line.UnitCost,
			Subtotal:  line.Total,
		})
	}

	req := backend.TransactionRequest{
		Items:                items,
		Total:                result.FinalTotal,
		Subtotal:             result.Subtotal,
		AmountPaid:           result.AmountTendered,
		Change:               result.Change,
		AppliedDiscountValue: result.DiscountAmount,
		PointsDiscount:       result.PointsDiscountAmount,
		RedeemedPoints:       result.RedeemedPoints,
		PaymentMethod:        session.PaymentMethod,
		ShiftID:              shiftID.String(),
		TerminalID:           session.TerminalID,
	}
	if session.Discount != nil && result.DiscountAmount > 0 {
		code := session.Discount.Code
		req.DiscountCode = &code
	}
	if session.Customer != nil {
		id := session.Customer.ID
		req.CustomerID = &id
	}
	return req
}

// blocked reports the first blocking warning as the message and all warnings as details.
func blocked(result calc.Result) error {
	msg := "checkout blocked"
	if warnings := result.BlockingWarnings(); len(warnings) > 0 {
		msg = warnings[0].Message
	}
	return pkgerrors.New(pkgerrors.CodeBlocked, msg).WithDetails(map[string]any{
		"warnings": result.Warnings,
		"result":   result,
	})
}

// detached keeps the request's values but not its cancellation.
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func errInProgress() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "a checkout is already being submitted on this terminal")
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeAccepted
	case pkgerrors.Is(err, pkgerrors.CodeBlocked), pkgerrors.Is(err, pkgerrors.CodeStateConflict):
		return metrics.OutcomeBlocked
	default:
		return metrics.OutcomeFailed
	}
}
