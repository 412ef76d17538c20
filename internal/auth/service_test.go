package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	pkgAuth "github.com/angelmondragon/pos-terminal/pkg/auth"
	"github.com/angelmondragon/pos-terminal/pkg/auth/session"
	"github.com/angelmondragon/pos-terminal/pkg/backend"
	"github.com/angelmondragon/pos-terminal/pkg/config"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

type stubBackend struct {
	resp *backend.LoginResponse
	err  error
	reqs []backend.LoginRequest
}

func (s *stubBackend) Login(_ context.Context, req backend.LoginRequest) (*backend.LoginResponse, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type stubSessions struct {
	created map[string]session.Session
	revoked []string
	err     error
}

func newStubSessions() *stubSessions {
	return &stubSessions{created: map[string]session.Session{}}
}

func (s *stubSessions) Create(_ context.Context, accessID string, sess session.Session) error {
	if s.err != nil {
		return s.err
	}
	s.created[accessID] = sess
	return nil
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	if s.err != nil {
		return s.err
	}
	s.revoked = append(s.revoked, accessID)
	delete(s.created, accessID)
	return nil
}

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "pos-terminal", ExpirationMinutes: 30}

func buildTestService(t *testing.T, upstream *stubBackend, sessions *stubSessions) *service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Backend:           upstream,
		SessionManager:    sessions,
		JWTConfig:         testJWT,
		DefaultTerminalID: "front-1",
		Logger:            logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc.(*service)
}

func TestServiceLoginMintsTokenAndStoresSession(t *testing.T) {
	upstream := &stubBackend{resp: &backend.LoginResponse{
		Token: "backend-token",
		User:  backend.User{ID: 12, Username: "rina", Name: "Rina", Role: "Manager"},
	}}
	sessions := newStubSessions()
	svc := buildTestService(t, upstream, sessions)
	now := time.Now().UTC().Truncate(time.Second)
	svc.clock = func() time.Time { return now }

	resp, err := svc.Login(context.Background(), LoginRequest{Username: " rina ", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if upstream.reqs[0].Username != "rina" {
		t.Fatalf("expected trimmed username, got %q", upstream.reqs[0].Username)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.CashierID != 12 || claims.TerminalID != "front-1" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Role != enums.CashierRoleSupervisor {
		t.Fatalf("expected supervisor role, got %s", claims.Role)
	}
	if !resp.ExpiresAt.Equal(now.Add(30 * time.Minute)) {
		t.Fatalf("unexpected expiry %s", resp.ExpiresAt)
	}

	stored, ok := sessions.created[claims.ID]
	if !ok {
		t.Fatalf("expected session stored under jti %s", claims.ID)
	}
	if stored.BackendToken != "backend-token" || stored.CashierID != 12 || stored.TerminalID != "front-1" {
		t.Fatalf("unexpected session %+v", stored)
	}
}

func TestServiceLoginUsesRequestedTerminal(t *testing.T) {
	upstream := &stubBackend{resp: &backend.LoginResponse{Token: "tok", User: backend.User{ID: 4, Username: "dewi", Role: "cashier"}}}
	svc := buildTestService(t, upstream, newStubSessions())

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "dewi", Password: "pw", TerminalID: "back-2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.TerminalID != "back-2" {
		t.Fatalf("expected back-2, got %s", resp.TerminalID)
	}
	if resp.Cashier.Name != "dewi" {
		t.Fatalf("expected username fallback for name, got %q", resp.Cashier.Name)
	}
	if resp.Cashier.Role != enums.CashierRoleCashier {
		t.Fatalf("expected cashier role, got %s", resp.Cashier.Role)
	}
}

func TestServiceLoginInvalidCredentials(t *testing.T) {
	upstream := &stubBackend{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "bad password")}
	sessions := newStubSessions()
	svc := buildTestService(t, upstream, sessions)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "rina", Password: "nope"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if typed.Message() != invalidCredentialsMessage {
		t.Fatalf("expected generic message, got %q", typed.Message())
	}
	if len(sessions.created) != 0 {
		t.Fatalf("expected no session on failed login")
	}
}

func TestServiceLoginValidation(t *testing.T) {
	svc := buildTestService(t, &stubBackend{}, newStubSessions())

	_, err := svc.Login(context.Background(), LoginRequest{Username: "  ", Password: "pw"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	svc.terminal = ""
	_, err = svc.Login(context.Background(), LoginRequest{Username: "rina", Password: "pw"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error without terminal, got %v", err)
	}
}

func TestServiceLoginSessionStoreFailure(t *testing.T) {
	upstream := &stubBackend{resp: &backend.LoginResponse{Token: "tok", User: backend.User{ID: 4, Username: "dewi"}}}
	sessions := newStubSessions()
	sessions.err = errors.New("redis down")
	svc := buildTestService(t, upstream, sessions)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "dewi", Password: "pw"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestServiceLogoutRevokes(t *testing.T) {
	sessions := newStubSessions()
	sessions.created["jti-1"] = session.Session{CashierID: 1, BackendToken: "tok"}
	svc := buildTestService(t, &stubBackend{}, sessions)

	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "jti-1" {
		t.Fatalf("expected jti-1 revoked, got %v", sessions.revoked)
	}
	if err := svc.Logout(context.Background(), ""); pkgerrors.CodeOf(err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for empty jti, got %v", err)
	}
}

func TestMapRole(t *testing.T) {
	cases := map[string]enums.CashierRole{
		"admin":      enums.CashierRoleAdmin,
		"SuperAdmin": enums.CashierRoleAdmin,
		"owner":      enums.CashierRoleSupervisor,
		"supervisor": enums.CashierRoleSupervisor,
		"cashier":    enums.CashierRoleCashier,
		"":           enums.CashierRoleCashier,
		"stocker":    enums.CashierRoleCashier,
	}
	for raw, want := range cases {
		if got := mapRole(raw); got != want {
			t.Fatalf("mapRole(%q) = %s, want %s", raw, got, want)
		}
	}
}
