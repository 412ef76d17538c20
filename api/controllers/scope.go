package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/pos-terminal/api/middleware"
	"github.com/angelmondragon/pos-terminal/api/validators"
	cartsvc "github.com/angelmondragon/pos-terminal/internal/cart"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	pkgpagination "github.com/angelmondragon/pos-terminal/pkg/pagination"
)

// terminalScope reads the cashier and terminal placed in the context by the auth middleware.
func terminalScope(r *http.Request) (cartsvc.Scope, error) {
	scope := cartsvc.Scope{
		TerminalID: middleware.TerminalIDFromContext(r.Context()),
		CashierID:  middleware.CashierIDFromContext(r.Context()),
	}
	if scope.CashierID <= 0 {
		return scope, pkgerrors.New(pkgerrors.CodeUnauthorized, "cashier context missing")
	}
	if scope.TerminalID == "" {
		return scope, pkgerrors.New(pkgerrors.CodeForbidden, "terminal context missing")
	}
	return scope, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}

func pageParams(r *http.Request) (pkgpagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pkgpagination.DefaultLimit, 1, pkgpagination.MaxLimit)
	if err != nil {
		return pkgpagination.Params{}, err
	}
	return pkgpagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")}, nil
}

type pageResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}
