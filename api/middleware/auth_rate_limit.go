package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/pos-terminal/api/responses"
	"github.com/angelmondragon/pos-terminal/pkg/config"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

// RateLimitStore counts attempts in fixed windows.
type RateLimitStore interface {
	RateLimitKey(scope string) string
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// loginCounter is one fixed-window budget applied to login attempts.
type loginCounter struct {
	scope   string
	limit   int64
	subject func(r *http.Request, body []byte) string
}

// LoginRateLimit throttles cashier login attempts per client IP and per username. A
// window or limit of zero disables the matching counter.
func LoginRateLimit(cfg config.AuthRateLimitConfig, store RateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	var counters []loginCounter
	if cfg.LoginIPLimit > 0 {
		counters = append(counters, loginCounter{scope: "ip", limit: int64(cfg.LoginIPLimit), subject: ipSubject})
	}
	if cfg.LoginUsernameLimit > 0 {
		counters = append(counters, loginCounter{scope: "username", limit: int64(cfg.LoginUsernameLimit), subject: usernameSubject})
	}
	window := cfg.LoginWindow

	return func(next http.Handler) http.Handler {
		if store == nil || window <= 0 || len(counters) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			for _, c := range counters {
				subject := c.subject(r, body)
				if subject == "" {
					continue
				}
				key := store.RateLimitKey("login:" + c.scope + ":" + subject)
				count, err := store.IncrWithTTL(ctx, key, window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > c.limit {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"scope":    c.scope,
							"subject":  subject,
							"attempts": count,
							"limit":    c.limit,
						}), "login rate limited")
					}
					w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts, try again later"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ipSubject(r *http.Request, _ []byte) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// usernameSubject hashes the lower-cased username so raw names never land in redis keys.
func usernameSubject(_ *http.Request, body []byte) string {
	var payload struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	username := strings.ToLower(strings.TrimSpace(payload.Username))
	if username == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(username))
	return hex.EncodeToString(sum[:])
}
