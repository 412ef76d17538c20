package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/pos-terminal/api/controllers"
	"github.com/angelmondragon/pos-terminal/api/middleware"
	"github.com/angelmondragon/pos-terminal/internal/auth"
	"github.com/angelmondragon/pos-terminal/internal/cart"
	"github.com/angelmondragon/pos-terminal/internal/catalog"
	checkoutsvc "github.com/angelmondragon/pos-terminal/internal/checkout"
	"github.com/angelmondragon/pos-terminal/internal/customers"
	"github.com/angelmondragon/pos-terminal/internal/inventory"
	"github.com/angelmondragon/pos-terminal/internal/reports"
	"github.com/angelmondragon/pos-terminal/internal/shifts"
	"github.com/angelmondragon/pos-terminal/pkg/auth/session"
	"github.com/angelmondragon/pos-terminal/pkg/config"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	"github.com/angelmondragon/pos-terminal/pkg/metrics"
	"github.com/angelmondragon/pos-terminal/pkg/redis"
)

// Dependencies are the services and infrastructure the HTTP surface is built from.
// A nil service answers its routes with an internal error.
type Dependencies struct {
	DB       controllers.Pinger
	Backend  controllers.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Gatherer prometheus.Gatherer
	Metrics  *metrics.HTTPMetrics

	Auth      auth.Service
	Catalog   catalog.Service
	Customers customers.Service
	Cart      cart.Service
	Checkout  checkoutsvc.Service
	Shifts    shifts.Service
	Inventory inventory.Service
	Reports   reports.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(cfg.App.AllowedOrigins),
	)

	// A nil *redis.Client must not reach the middleware as a non-nil interface.
	var idempotencyStore redis.IdempotencyStore
	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["database"] = deps.DB
	}
	if deps.Backend != nil {
		readiness["backend"] = deps.Backend
	}
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		readiness["redis"] = deps.Redis
	}

	loginLimiter := func(next http.Handler) http.Handler { return next }
	if deps.Redis != nil {
		loginLimiter = middleware.LoginRateLimit(cfg.AuthRateLimit, deps.Redis, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	authenticate := middleware.Auth(cfg.JWT, deps.Sessions, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(loginLimiter).Post("/auth/login", controllers.AuthLogin(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Idempotency(idempotencyStore, logg))

			r.Post("/auth/logout", controllers.AuthLogout(deps.Auth, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductSearch(deps.Catalog, logg))
				r.Get("/barcode/{barcode}", controllers.ProductByBarcode(deps.Catalog, logg))
				r.Get("/{productId}", controllers.ProductGet(deps.Catalog, logg))
			})

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", controllers.CustomerSearch(deps.Customers, logg))
				r.Get("/{customerId}", controllers.CustomerGet(deps.Customers, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(deps.Cart, logg))
				r.Delete("/", controllers.CartClear(deps.Cart, logg))
				r.Get("/quote", controllers.CartQuote(deps.Cart, logg))
				r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
				r.Patch("/items/{lineId}", controllers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/items/{lineId}", controllers.CartRemoveItem(deps.Cart, logg))
				r.Put("/discount", controllers.CartApplyDiscount(deps.Cart, logg))
				r.Delete("/discount", controllers.CartRemoveDiscount(deps.Cart, logg))
				r.Put("/customer", controllers.CartSelectCustomer(deps.Cart, logg))
				r.Delete("/customer", controllers.CartRemoveCustomer(deps.Cart, logg))
				r.Put("/points", controllers.CartSetPoints(deps.Cart, logg))
				r.Put("/tender", controllers.CartSetTender(deps.Cart, logg))
			})

			r.Post("/checkout/quote", controllers.CheckoutQuote(cfg.Checkout.PointsConversionRate, logg))
			r.Post("/checkout", controllers.CheckoutSubmit(deps.Checkout, logg))
			r.Get("/transactions", controllers.TransactionList(deps.Checkout, logg))

			r.Route("/shifts", func(r chi.Router) {
				r.Get("/", controllers.ShiftList(deps.Shifts, logg))
				r.Get("/current", controllers.ShiftCurrent(deps.Shifts, logg))
				r.Post("/open", controllers.ShiftOpen(deps.Shifts, logg))
				r.Post("/close", controllers.ShiftClose(deps.Shifts, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.CashierRoleSupervisor, enums.CashierRoleAdmin))
				r.Post("/inventory/adjustments", controllers.InventoryAdjust(deps.Inventory, logg))
				r.Get("/inventory/adjustments", controllers.InventoryHistory(deps.Inventory, logg))
				r.Get("/reports/dashboard", controllers.ReportsDashboard(deps.Reports, logg))
			})
		})
	})

	return r
}
