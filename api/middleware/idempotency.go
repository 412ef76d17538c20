package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/pos-terminal/api/responses"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	pkgredis "github.com/angelmondragon/pos-terminal/pkg/redis"
)

const (
	// reservationTTL bounds how long a crashed request can hold its key.
	reservationTTL = 2 * time.Minute
	pendingPrefix  = "pending:"

	// ReplayedHeader is set on responses served from the idempotency store.
	ReplayedHeader = "Idempotent-Replayed"
)

// idempotentRoutes maps "METHOD path" to how long the response is kept for replay.
var idempotentRoutes = map[string]time.Duration{
	http.MethodPost + " /api/v1/checkout":              7 * 24 * time.Hour,
	http.MethodPost + " /api/v1/shifts/open":           24 * time.Hour,
	http.MethodPost + " /api/v1/shifts/close":          24 * time.Hour,
	http.MethodPost + " /api/v1/inventory/adjustments": 24 * time.Hour,
}

type idempotencyRecord struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	RequestHash string `json:"request_hash"`
}

// Idempotency makes the mutating terminal routes safe to retry. The first request with an
// Idempotency-Key reserves it; a concurrent duplicate is rejected while it runs, and later
// duplicates replay the stored response. Reusing a key with another body is rejected.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := idempotencyTTL(r.Method, idempotencyPath(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := hashBody(body)
			key := store.IdempotencyKey(idempotencyScope(r), clientKey)

			existing, reserved, err := store.Reserve(ctx, key, pendingPrefix+hash, reservationTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !reserved {
				replay(ctx, logg, w, existing, hash)
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			// Server-side failures stay retryable under the same key.
			if rec.statusCode() >= http.StatusInternalServerError {
				release(ctx, logg, store, key)
				return
			}

			payload, err := json.Marshal(idempotencyRecord{
				Status:      rec.statusCode(),
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
				RequestHash: hash,
			})
			if err == nil {
				err = store.Complete(ctx, key, string(payload), ttl)
			}
			if err != nil {
				logError(ctx, logg, "persist idempotency record", err)
				release(ctx, logg, store, key)
			}
		})
	}
}

func replay(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, existing, hash string) {
	if existing == "" || strings.HasPrefix(existing, pendingPrefix) {
		if existing != "" && strings.TrimPrefix(existing, pendingPrefix) != hash {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
			return
		}
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still in progress"))
		return
	}

	var record idempotencyRecord
	if err := json.Unmarshal([]byte(existing), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != hash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}

	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(record.Body)
}

func release(ctx context.Context, logg *logger.Logger, store pkgredis.IdempotencyStore, key string) {
	if err := store.Release(ctx, key); err != nil {
		logError(ctx, logg, "release idempotency key", err)
	}
}

// idempotencyScope keeps keys from different cashiers and terminals apart.
func idempotencyScope(r *http.Request) string {
	ctx := r.Context()
	return strings.Join([]string{
		TerminalIDFromContext(ctx),
		strconv.FormatInt(CashierIDFromContext(ctx), 10),
		r.Method,
		r.URL.Path,
	}, "|")
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func idempotencyTTL(method, path string) (time.Duration, bool) {
	ttl, ok := idempotentRoutes[method+" "+path]
	return ttl, ok
}

// idempotencyPath is the resolved route pattern, or the request path while a mounted
// subrouter has only matched its wildcard.
func idempotencyPath(r *http.Request) string {
	pattern := ""
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		pattern = rctx.RoutePattern()
	}
	if pattern == "" || strings.Contains(pattern, "*") {
		return strings.TrimSuffix(r.URL.Path, "/")
	}
	return pattern
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
