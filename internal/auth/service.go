package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgAuth "github.com/angelmondragon/pos-terminal/pkg/auth"
	"github.com/angelmondragon/pos-terminal/pkg/auth/session"
	"github.com/angelmondragon/pos-terminal/pkg/backend"
	"github.com/angelmondragon/pos-terminal/pkg/config"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, accessID string) error
}

type authenticator interface {
	Login(ctx context.Context, req backend.LoginRequest) (*backend.LoginResponse, error)
}

type sessionManager interface {
	Create(ctx context.Context, accessID string, sess session.Session) error
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Backend           authenticator
	SessionManager    sessionManager
	JWTConfig         config.JWTConfig
	DefaultTerminalID string
	Logger            *logger.Logger
}

type service struct {
	backend  authenticator
	session  sessionManager
	jwtCfg   config.JWTConfig
	terminal string
	logg     *logger.Logger
	clock    func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("backend authenticator is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		backend:  params.Backend,
		session:  params.SessionManager,
		jwtCfg:   params.JWTConfig,
		terminal: strings.TrimSpace(params.DefaultTerminalID),
		logg:     params.Logger,
		clock:    time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}
	terminalID := strings.TrimSpace(req.TerminalID)
	if terminalID == "" {
		terminalID = s.terminal
	}
	if terminalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terminal id is required")
	}

	upstream, err := s.backend.Login(ctx, backend.LoginRequest{Username: username, Password: req.Password})
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, err
	}
	if upstream.Token == "" || upstream.User.ID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "backend login returned no identity")
	}

	role := mapRole(upstream.User.Role)
	now := s.clock().UTC()
	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		CashierID:  upstream.User.ID,
		Username:   upstream.User.Username,
		Role:       role,
		TerminalID: terminalID,
		JTI:        accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	if err := s.session.Create(ctx, accessID, session.Session{
		CashierID:    upstream.User.ID,
		TerminalID:   terminalID,
		BackendToken: upstream.Token,
		CreatedAt:    now,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store session")
	}

	logCtx := s.logg.WithScope(ctx, logger.Scope{CashierID: upstream.User.ID, TerminalID: terminalID})
	s.logg.Info(s.logg.WithField(logCtx, "username", upstream.User.Username), "cashier logged in")

	name := strings.TrimSpace(upstream.User.Name)
	if name == "" {
		name = upstream.User.Username
	}
	return &LoginResponse{
		AccessToken: accessToken,
		ExpiresAt:   now.Add(s.jwtCfg.TTL()),
		TerminalID:  terminalID,
		Cashier: CashierSummary{
			ID:       upstream.User.ID,
			Username: upstream.User.Username,
			Name:     name,
			Role:     role,
		},
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session is required")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

// mapRole maps backend role names onto terminal roles; unknown roles get the least privilege.
func mapRole(raw string) enums.CashierRole {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "manager", "owner":
		return enums.CashierRoleSupervisor
	case "superadmin":
		return enums.CashierRoleAdmin
	}
	if role, err := enums.ParseCashierRole(value); err == nil {
		return role
	}
	return enums.CashierRoleCashier
}
