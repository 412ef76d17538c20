package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	reportsvc "github.com/angelmondragon/pos-terminal/internal/reports"
)

type stubReportsService struct {
	got reportsvc.DashboardRequest
}

func (s *stubReportsService) Dashboard(_ context.Context, req reportsvc.DashboardRequest) (*reportsvc.Dashboard, error) {
	s.got = req
	return &reportsvc.Dashboard{TerminalID: req.TerminalID}, nil
}

func TestReportsDashboardParsesWindow(t *testing.T) {
	svc := &stubReportsService{}
	req := withCashier(httptest.NewRequest(http.MethodGet, "/?from=2026-10-01&to=2026-10-01", nil))
	resp := httptest.NewRecorder()
	ReportsDashboard(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.got.TerminalID != "front-1" {
		t.Fatalf("expected caller terminal, got %q", svc.got.TerminalID)
	}
	if svc.got.From == nil || svc.got.To == nil || svc.got.To.Sub(*svc.got.From) < 23*time.Hour {
		t.Fatalf("expected whole-day window, got %v %v", svc.got.From, svc.got.To)
	}
}

func TestReportsDashboardAllTerminals(t *testing.T) {
	svc := &stubReportsService{}
	req := withCashier(httptest.NewRequest(http.MethodGet, "/?terminal_id=all", nil))
	resp := httptest.NewRecorder()
	ReportsDashboard(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.got.TerminalID != "" {
		t.Fatalf("expected all terminals, got %q", svc.got.TerminalID)
	}
}

func TestReportsDashboardRejectsBadDate(t *testing.T) {
	req := withCashier(httptest.NewRequest(http.MethodGet, "/?from=yesterday", nil))
	resp := httptest.NewRecorder()
	ReportsDashboard(&stubReportsService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
