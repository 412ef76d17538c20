package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/pos-terminal/pkg/backend"
	"github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	"github.com/angelmondragon/pos-terminal/pkg/metrics"
	redisclient "github.com/angelmondragon/pos-terminal/pkg/redis"
)

const (
	cacheName       = "catalog"
	defaultTTL      = 5 * time.Minute
	maxJitterMinute = 3
)

// Service exposes product lookups backed by the remote catalog.
type Service interface {
	Search(ctx context.Context, query string, page, limit int) (*backend.ProductPage, error)
	GetByID(ctx context.Context, id int64) (*backend.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*backend.Product, error)
	Refresh(ctx context.Context, id int64) (*backend.Product, error)
	Invalidate(ctx context.Context, id int64)
}

type productSource interface {
	SearchProducts(ctx context.Context, query string, page, limit int) (*backend.ProductPage, error)
	GetProduct(ctx context.Context, id int64) (*backend.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*backend.Product, error)
}

type cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CatalogKey(parts ...string) string
}

// ServiceParams groups the catalog dependencies.
type ServiceParams struct {
	Source  productSource
	Cache   cache
	TTL     time.Duration
	Metrics *metrics.CacheMetrics
	Logger  *logger.Logger
}

type service struct {
	source  productSource
	cache   cache
	ttl     time.Duration
	metrics *metrics.CacheMetrics
	logg    *logger.Logger
	jitter  func() time.Duration
}

// NewService builds the catalog service. Cache may be nil, in which case every lookup goes to the backend.
func NewService(params ServiceParams) (Service, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("product source required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &service{
		source:  params.Source,
		cache:   params.Cache,
		ttl:     ttl,
		metrics: params.Metrics,
		logg:    params.Logger,
		jitter: func() time.Duration {
			return time.Duration(rand.Intn(maxJitterMinute*60)) * time.Second
		},
	}, nil
}

func (s *service) Search(ctx context.Context, query string, page, limit int) (*backend.ProductPage, error) {
	if page < 0 || limit < 0 {
		return nil, errors.New(errors.CodeValidation, "page and limit must not be negative")
	}
	return s.source.SearchProducts(ctx, query, page, limit)
}

func (s *service) GetByID(ctx context.Context, id int64) (*backend.Product, error) {
	if id <= 0 {
		return nil, errors.New(errors.CodeValidation, "product id must be positive")
	}
	if cached, ok := s.read(ctx, idKey(id)); ok {
		return cached, nil
	}
	return s.Refresh(ctx, id)
}

func (s *service) GetByBarcode(ctx context.Context, barcode string) (*backend.Product, error) {
	code := strings.TrimSpace(barcode)
	if code == "" {
		return nil, errors.New(errors.CodeValidation, "barcode is required")
	}
	if cached, ok := s.read(ctx, barcodeKey(code)); ok {
		return cached, nil
	}
	product, err := s.source.GetProductByBarcode(ctx, code)
	if err != nil {
		return nil, err
	}
	s.write(ctx, product)
	return product, nil
}

// Refresh skips the cached copy, fetches the product and rewrites the cache.
func (s *service) Refresh(ctx context.Context, id int64) (*backend.Product, error) {
	if id <= 0 {
		return nil, errors.New(errors.CodeValidation, "product id must be positive")
	}
	product, err := s.source.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.write(ctx, product)
	return product, nil
}

func (s *service) Invalidate(ctx context.Context, id int64) {
	if s.cache == nil || id <= 0 {
		return
	}
	keys := []string{s.cache.CatalogKey(idKey(id)...)}
	if cached, ok := s.peek(ctx, idKey(id)); ok && cached.Barcode != "" {
		keys = append(keys, s.cache.CatalogKey(barcodeKey(cached.Barcode)...))
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.metrics.Error(cacheName)
		s.logg.Warn(s.logCtx(ctx, err), "catalog cache invalidate failed")
	}
}

func (s *service) read(ctx context.Context, parts []string) (*backend.Product, bool) {
	if s.cache == nil {
		return nil, false
	}
	product, ok := s.peek(ctx, parts)
	if ok {
		s.metrics.Hit(cacheName)
	}
	return product, ok
}

func (s *service) peek(ctx context.Context, parts []string) (*backend.Product, bool) {
	raw, err := s.cache.Get(ctx, s.cache.CatalogKey(parts...))
	if err != nil {
		if redisclient.IsNil(err) {
			s.metrics.Miss(cacheName)
			return nil, false
		}
		s.metrics.Error(cacheName)
		s.logg.Warn(s.logCtx(ctx, err), "catalog cache read failed")
		return nil, false
	}
	var product backend.Product
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		s.metrics.Error(cacheName)
		s.logg.Warn(s.logCtx(ctx, err), "catalog cache entry corrupt")
		return nil, false
	}
	return &product, true
}

func (s *service) write(ctx context.Context, product *backend.Product) {
	if s.cache == nil || product == nil {
		return
	}
	payload, err := json.Marshal(product)
	if err != nil {
		s.metrics.Error(cacheName)
		return
	}
	ttl := s.ttl + s.jitter()
	keys := [][]string{idKey(product.ID)}
	if product.Barcode != "" {
		keys = append(keys, barcodeKey(product.Barcode))
	}
	for _, parts := range keys {
		if err := s.cache.Set(ctx, s.cache.CatalogKey(parts...), string(payload), ttl); err != nil {
			s.metrics.Error(cacheName)
			s.logg.Warn(s.logCtx(ctx, err), "catalog cache write failed")
			return
		}
	}
}

func (s *service) logCtx(ctx context.Context, err error) context.Context {
	return s.logg.WithField(ctx, "error", err.Error())
}

func idKey(id int64) []string {
	return []string{"product", strconv.FormatInt(id, 10)}
}

func barcodeKey(barcode string) []string {
	return []string{"barcode", barcode}
}
