package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
)

// Login exchanges cashier credentials for a backend token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}
	var out LoginResponse
	if _, err := c.do(ctx, http.MethodPost, "auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "backend login returned no token")
	}
	return &out, nil
}

// SearchProducts lists products matching query. An empty query lists everything.
func (c *Client) SearchProducts(ctx context.Context, query string, page, limit int) (*ProductPage, error) {
	params := url.Values{}
	if q := strings.TrimSpace(query); q != "" {
		params.Set("search", q)
	}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var items []Product
	meta, err := c.do(ctx, http.MethodGet, "products", params, nil, &items)
	if err != nil {
		return nil, err
	}
	out := &ProductPage{Items: items}
	if meta != nil {
		out.Meta = *meta
	} else {
		out.Meta = PageMeta{Page: page, Limit: limit, Total: int64(len(items))}
	}
	return out, nil
}

// GetProduct fetches a product by id.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var out Product
	if _, err := c.do(ctx, http.MethodGet, "products/"+strconv.FormatInt(id, 10), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProductByBarcode fetches a product by barcode.
func (c *Client) GetProductByBarcode(ctx context.Context, barcode string) (*Product, error) {
	trimmed := strings.TrimSpace(barcode)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	var out Product
	if _, err := c.do(ctx, http.MethodGet, "products/barcode/"+url.PathEscape(trimmed), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDiscountByCode fetches a discount definition by its code.
func (c *Client) GetDiscountByCode(ctx context.Context, code string) (*Discount, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}
	var out Discount
	if _, err := c.do(ctx, http.MethodGet, "discounts/code/"+url.PathEscape(trimmed), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCustomer fetches a customer by id.
func (c *Client) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	var out Customer
	if _, err := c.do(ctx, http.MethodGet, "customers/"+strconv.FormatInt(id, 10), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchCustomers lists customers whose name or phone matches query.
func (c *Client) SearchCustomers(ctx context.Context, query string) ([]Customer, error) {
	params := url.Values{}
	if q := strings.TrimSpace(query); q != "" {
		params.Set("search", q)
	}
	var out []Customer
	if _, err := c.do(ctx, http.MethodGet, "customers", params, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTransaction submits a finished checkout. The backend re-validates stock and points.
func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction has no items")
	}
	var out Transaction
	if _, err := c.do(ctx, http.MethodPost, "transactions", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdjustStock applies a stock correction and returns the resulting level.
func (c *Client) AdjustStock(ctx context.Context, productID int64, req StockAdjustmentRequest) (*StockLevel, error) {
	var out StockLevel
	path := "products/" + strconv.FormatInt(productID, 10) + "/stock-adjustments"
	if _, err := c.do(ctx, http.MethodPost, path, nil, req, &out); err != nil {
		return nil, err
	}
	if out.ProductID == 0 {
		out.ProductID = productID
	}
	return &out, nil
}

// Ping checks that the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "health", nil, nil, nil)
	return err
}
