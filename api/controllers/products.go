package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/pos-terminal/api/responses"
	"github.com/angelmondragon/pos-terminal/api/validators"
	catalogsvc "github.com/angelmondragon/pos-terminal/internal/catalog"
	"github.com/angelmondragon/pos-terminal/pkg/backend"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

const maxSearchLength = 100

type productResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Stock    int64  `json:"stock"`
	Barcode  string `json:"barcode,omitempty"`
	Category string `json:"category,omitempty"`
	InStock  bool   `json:"in_stock"`
}

func newProductResponse(p *backend.Product) productResponse {
	return productResponse{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		Barcode:  p.Barcode,
		Category: p.Category,
		InStock:  p.Stock > 0,
	}
}

type productPageResponse struct {
	Items []productResponse `json:"items"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Total int64             `json:"total"`
}

// ProductSearch proxies a catalog search to the backend.
func ProductSearch(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Search(r.Context(), validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLength), page, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := productPageResponse{
			Items: make([]productResponse, 0, len(result.Items)),
			Page:  result.Meta.Page,
			Limit: result.Meta.Limit,
			Total: result.Meta.Total,
		}
		for i := range result.Items {
			out.Items = append(out.Items, newProductResponse(&result.Items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// ProductGet returns one product by backend id.
func ProductGet(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.ParsePathID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

// ProductByBarcode resolves a scanned barcode.
func ProductByBarcode(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		product, err := svc.GetByBarcode(r.Context(), chi.URLParam(r, "barcode"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}
