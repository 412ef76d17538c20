package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/pos-terminal/api/responses"
	"github.com/angelmondragon/pos-terminal/api/validators"
	customersvc "github.com/angelmondragon/pos-terminal/internal/customers"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	"github.com/angelmondragon/pos-terminal/pkg/types"
)

// CustomerSearch finds loyalty customers by name or phone.
func CustomerSearch(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}
		found, err := svc.Search(r.Context(), validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLength))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if found == nil {
			found = []types.CustomerSnapshot{}
		}
		responses.WriteSuccess(w, found)
	}
}

// CustomerGet returns one customer with a fresh loyalty balance.
func CustomerGet(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}
		id, err := validators.ParsePathID(chi.URLParam(r, "customerId"), "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}
