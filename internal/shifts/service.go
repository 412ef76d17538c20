package shifts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-terminal/pkg/config"
	"github.com/angelmondragon/pos-terminal/pkg/db"
	"github.com/angelmondragon/pos-terminal/pkg/db/models"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	pkgpagination "github.com/angelmondragon/pos-terminal/pkg/pagination"
	"github.com/angelmondragon/pos-terminal/pkg/security"
)

type shiftRepository interface {
	FindOpen(ctx context.Context, terminalID string) (*models.Shift, error)
	Create(ctx context.Context, shift *models.Shift) error
	Save(ctx context.Context, shift *models.Shift) error
	Totals(ctx context.Context, shiftID uuid.UUID) (Totals, error)
	List(ctx context.Context, opts listQuery) ([]models.Shift, error)
}

// OpenInput starts a shift on a terminal.
type OpenInput struct {
	TerminalID  string
	CashierID   int64
	OpeningCash int64
	PIN         string
	Note        string
}

// CloseInput ends the open shift with the counted drawer cash.
type CloseInput struct {
	TerminalID  string
	CashierID   int64
	CountedCash int64
	PIN         string
	Note        string
}

// Summary is a shift with its running totals.
type Summary struct {
	Shift        *models.Shift
	Totals       Totals
	ExpectedCash int64
}

// ListResult is one page of shift history.
type ListResult struct {
	Items  []models.Shift
	Cursor string
}

// Service manages cashier shifts.
type Service interface {
	Open(ctx context.Context, input OpenInput) (*models.Shift, error)
	Current(ctx context.Context, terminalID string) (*Summary, error)
	RequireOpen(ctx context.Context, terminalID string) (*models.Shift, error)
	Close(ctx context.Context, input CloseInput) (*Summary, error)
	List(ctx context.Context, terminalID string, params pkgpagination.Params) (*ListResult, error)
}

type service struct {
	repo     shiftRepository
	password config.PasswordConfig
	logg     *logger.Logger
	clock    func() time.Time
}

// NewService builds the shift service.
func NewService(repo shiftRepository, password config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shift repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, password: password, logg: logg, clock: time.Now}, nil
}

func (s *service) Open(ctx context.Context, input OpenInput) (*models.Shift, error) {
	terminalID := strings.TrimSpace(input.TerminalID)
	if terminalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terminal id is required")
	}
	if input.CashierID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cashier is required")
	}
	if input.OpeningCash < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "opening cash must not be negative")
	}
	if err := security.ValidatePIN(input.PIN); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "pin must be 4 to 8 digits")
	}

	if existing, err := s.repo.FindOpen(ctx, terminalID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a shift is already open on this terminal").
			WithDetails(map[string]any{"shift_id": existing.ID})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load open shift")
	}

	hash, err := security.HashPIN(input.PIN, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash pin")
	}

	shift := &models.Shift{
		TerminalID:  terminalID,
		CashierID:   input.CashierID,
		Status:      enums.ShiftStatusOpen,
		OpeningCash: input.OpeningCash,
		PinHash:     hash,
		Note:        optionalString(input.Note),
		OpenedAt:    s.clock().UTC(),
	}
	if err := s.repo.Create(ctx, shift); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a shift is already open on this terminal")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create shift")
	}

	logCtx := s.logg.WithScope(ctx, logger.Scope{TerminalID: terminalID, ShiftID: shift.ID.String()})
	s.logg.Info(logCtx, "shift opened")
	return shift, nil
}

func (s *service) RequireOpen(ctx context.Context, terminalID string) (*models.Shift, error) {
	shift, err := s.repo.FindOpen(ctx, strings.TrimSpace(terminalID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no open shift on this terminal")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load open shift")
	}
	return shift, nil
}

func (s *service) Current(ctx context.Context, terminalID string) (*Summary, error) {
	shift, err := s.repo.FindOpen(ctx, strings.TrimSpace(terminalID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no open shift on this terminal")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load open shift")
	}
	return s.summarize(ctx, shift)
}

func (s *service) Close(ctx context.Context, input CloseInput) (*Summary, error) {
	if input.CountedCash < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counted cash must not be negative")
	}
	shift, err := s.RequireOpen(ctx, input.TerminalID)
	if err != nil {
		return nil, err
	}

	ok, err := security.VerifyPIN(input.PIN, shift.PinHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify pin")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "pin does not match")
	}

	summary, err := s.summarize(ctx, shift)
	if err != nil {
		return nil, err
	}

	closedAt := s.clock().UTC()
	counted := input.CountedCash
	expected := summary.ExpectedCash
	diff := counted - expected
	shift.Status = enums.ShiftStatusClosed
	shift.ClosingCash = &counted
	shift.ExpectedCash = &expected
	shift.CashDifference = &diff
	shift.ClosedAt = &closedAt
	if note := optionalString(input.Note); note != nil {
		shift.Note = note
	}
	if err := s.repo.Save(ctx, shift); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close shift")
	}

	logCtx := s.logg.WithScope(ctx, logger.Scope{TerminalID: shift.TerminalID, ShiftID: shift.ID.String()})
	if diff != 0 {
		s.logg.Warn(s.logg.WithField(logCtx, "cash_difference", diff), "shift closed with cash difference")
	} else {
		s.logg.Info(logCtx, "shift closed")
	}
	return summary, nil
}

func (s *service) List(ctx context.Context, terminalID string, params pkgpagination.Params) (*ListResult, error) {
	terminalID = strings.TrimSpace(terminalID)
	if terminalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terminal id is required")
	}

	page, err := pkgpagination.NewKeyset(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, listQuery{terminalID: terminalID, page: page})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list shifts")
	}

	rows, next := pkgpagination.Trim(page, rows, func(row models.Shift) pkgpagination.Cursor {
		return pkgpagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return &ListResult{Items: rows, Cursor: next}, nil
}

func (s *service) summarize(ctx context.Context, shift *models.Shift) (*Summary, error) {
	totals, err := s.repo.Totals(ctx, shift.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum shift transactions")
	}
	return &Summary{
		Shift:        shift,
		Totals:       totals,
		ExpectedCash: shift.OpeningCash + totals.CashSales,
	}, nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
