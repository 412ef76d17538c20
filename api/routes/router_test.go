package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/pos-terminal/internal/auth"
	"github.com/angelmondragon/pos-terminal/internal/reports"
	pkgAuth "github.com/angelmondragon/pos-terminal/pkg/auth"
	"github.com/angelmondragon/pos-terminal/pkg/auth/session"
	"github.com/angelmondragon/pos-terminal/pkg/config"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	"github.com/angelmondragon/pos-terminal/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "token", TerminalID: "front-1"}, nil
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

// stubSessions accepts any jti and binds it to the identity encoded in the test token.
type stubSessions struct{}

func (stubSessions) Load(ctx context.Context, accessID string) (*session.Session, error) {
	return &session.Session{CashierID: 7, TerminalID: "front-1", BackendToken: "upstream"}, nil
}

type stubReportsService struct{}

func (stubReportsService) Dashboard(ctx context.Context, req reports.DashboardRequest) (*reports.Dashboard, error) {
	return &reports.Dashboard{TerminalID: req.TerminalID}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0", AllowedOrigins: []string{"http://localhost:3000"}},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
		Checkout: config.CheckoutConfig{PointsConversionRate: 100, TerminalID: "front-1"},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	reg := prometheus.NewRegistry()
	return NewRouter(cfg, logg, Dependencies{
		DB:       stubPinger{},
		Sessions: stubSessions{},
		Gatherer: reg,
		Metrics:  metrics.NewHTTPMetrics(reg),
		Auth:     stubAuthService{},
		Reports:  stubReportsService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.CashierRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		CashierID:  7,
		Username:   "rina",
		Role:       role,
		TerminalID: "front-1",
		JTI:        session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestMetricsEndpointExposesHTTPMetrics(t *testing.T) {
	router := newTestRouter(testConfig())

	warm := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	router.ServeHTTP(httptest.NewRecorder(), warm)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "pos_http_requests_total") {
		t.Fatalf("expected http metrics in exposition")
	}
}

func TestLoginIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"rina","password":"pw"}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestPrivateRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, path := range []string{"/api/v1/cart", "/api/v1/shifts/current", "/api/v1/transactions"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token got %d", path, resp.Code)
		}
	}
}

func TestCheckoutQuoteWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	body := `{"items":[{"product_id":1,"name":"Teh","unit_price":5000,"quantity":1}],"amount_tendered":5000}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/quote", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.CashierRoleCashier))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestReportsRequireSupervisor(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	cashier := httptest.NewRequest(http.MethodGet, "/api/v1/reports/dashboard", nil)
	cashier.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.CashierRoleCashier))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, cashier)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier got %d", resp.Code)
	}

	supervisor := httptest.NewRequest(http.MethodGet, "/api/v1/reports/dashboard", nil)
	supervisor.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.CashierRoleSupervisor))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, supervisor)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for supervisor got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestInventoryAdjustmentsRequireSupervisor(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/adjustments", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.CashierRoleCashier))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier got %d", resp.Code)
	}
}

func TestMissingServiceIsInternalError(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.CashierRoleCashier))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without cart service got %d", resp.Code)
	}
}
