package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/pos-terminal/api/responses"
	pkgAuth "github.com/angelmondragon/pos-terminal/pkg/auth"
	"github.com/angelmondragon/pos-terminal/pkg/auth/session"
	"github.com/angelmondragon/pos-terminal/pkg/backend"
	"github.com/angelmondragon/pos-terminal/pkg/config"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

// Auth validates a bearer token, loads the Redis session behind its jti and seeds the
// request context with the cashier identity and the backend token.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}
			if sessions == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session store unavailable"))
				return
			}

			sess, err := sessions.Load(r.Context(), claims.ID)
			if err != nil {
				if errors.Is(err, session.ErrSessionNotFound) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
				return
			}
			if sess.CashierID != claims.CashierID || sess.TerminalID != claims.TerminalID {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session does not match token"))
				return
			}

			ctx := WithCashier(r.Context(), claims.CashierID, string(claims.Role), claims.TerminalID)
			ctx = WithAccessID(ctx, claims.ID)
			ctx = backend.WithToken(ctx, sess.BackendToken)

			if logg != nil {
				ctx = logg.WithScope(ctx, logger.Scope{CashierID: claims.CashierID, TerminalID: claims.TerminalID})
				ctx = logg.WithField(ctx, "actor_role", string(claims.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
