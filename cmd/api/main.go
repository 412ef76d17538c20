package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/pos-terminal/api/routes"
	"github.com/angelmondragon/pos-terminal/internal/auth"
	"github.com/angelmondragon/pos-terminal/internal/cart"
	"github.com/angelmondragon/pos-terminal/internal/catalog"
	"github.com/angelmondragon/pos-terminal/internal/checkout"
	"github.com/angelmondragon/pos-terminal/internal/customers"
	"github.com/angelmondragon/pos-terminal/internal/discounts"
	"github.com/angelmondragon/pos-terminal/internal/inventory"
	"github.com/angelmondragon/pos-terminal/internal/reports"
	"github.com/angelmondragon/pos-terminal/internal/shifts"
	"github.com/angelmondragon/pos-terminal/pkg/auth/session"
	"github.com/angelmondragon/pos-terminal/pkg/backend"
	"github.com/angelmondragon/pos-terminal/pkg/config"
	"github.com/angelmondragon/pos-terminal/pkg/db"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	"github.com/angelmondragon/pos-terminal/pkg/metrics"
	"github.com/angelmondragon/pos-terminal/pkg/migrate"
	"github.com/angelmondragon/pos-terminal/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "pos-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "pos-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	backendClient, err := backend.NewClient(
		cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithAPIKey(cfg.Backend.APIKey),
	)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps, err := buildServices(cfg, logg, dbClient, redisClient, backendClient, registry)
	if err != nil {
		return err
	}
	deps.DB = dbClient
	deps.Backend = backendClient
	deps.Redis = redisClient
	deps.Sessions = sessionManager
	deps.Gatherer = registry
	deps.Metrics = metrics.NewHTTPMetrics(registry)

	authService, err := auth.NewService(auth.ServiceParams{
		Backend:           backendClient,
		SessionManager:    sessionManager,
		JWTConfig:         cfg.JWT,
		DefaultTerminalID: cfg.Checkout.TerminalID,
		Logger:            logg,
	})
	if err != nil {
		return err
	}
	deps.Auth = authService

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"terminal_id": cfg.Checkout.TerminalID,
		"sqlite":      cfg.FeatureFlags.UseSQLite,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildServices wires the domain services over the database, redis and the backend client.
func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	backendClient *backend.Client,
	registry prometheus.Registerer,
) (routes.Dependencies, error) {
	var deps routes.Dependencies

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Source:  backendClient,
		Cache:   redisClient,
		TTL:     cfg.Cache.CatalogTTL,
		Metrics: metrics.NewCacheMetrics(registry),
		Logger:  logg,
	})
	if err != nil {
		return deps, err
	}
	customerService, err := customers.NewService(backendClient)
	if err != nil {
		return deps, err
	}
	discountService, err := discounts.NewService(backendClient)
	if err != nil {
		return deps, err
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:           cartRepo,
		Tx:             dbClient,
		Products:       catalogService,
		Discounts:      discountService,
		Customers:      customerService,
		ConversionRate: cfg.Checkout.PointsConversionRate,
	})
	if err != nil {
		return deps, err
	}

	shiftService, err := shifts.NewService(shifts.NewRepository(dbClient.DB()), cfg.Password, logg)
	if err != nil {
		return deps, err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:             dbClient,
		Sessions:       cartRepo,
		Journal:        checkout.NewRepository(dbClient.DB()),
		Shifts:         shiftService,
		Backend:        backendClient,
		Stock:          catalogService,
		Metrics:        metrics.NewCheckoutMetrics(registry),
		Logger:         logg,
		ConversionRate: cfg.Checkout.PointsConversionRate,
	})
	if err != nil {
		return deps, err
	}

	inventoryService, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), backendClient, catalogService, logg)
	if err != nil {
		return deps, err
	}

	reportService, err := reports.NewService(reports.NewRepository(dbClient.DB()))
	if err != nil {
		return deps, err
	}

	deps.Catalog = catalogService
	deps.Customers = customerService
	deps.Cart = cartService
	deps.Checkout = checkoutService
	deps.Shifts = shiftService
	deps.Inventory = inventoryService
	deps.Reports = reportService
	return deps, nil
}
