package middleware

import "context"

type contextKey string

const (
	ctxCashierID  contextKey = "cashier_id"
	ctxRole       contextKey = "cashier_role"
	ctxTerminalID contextKey = "terminal_id"
	ctxAccessID   contextKey = "access_id"
)

// CashierIDFromContext returns the authenticated cashier or 0.
func CashierIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxCashierID).(int64); ok {
		return v
	}
	return 0
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func TerminalIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxTerminalID).(string); ok {
		return v
	}
	return ""
}

// AccessIDFromContext returns the jti of the token that authenticated the request.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// WithCashier injects the cashier identity into the context. Controller tests use it
// to skip token handling.
func WithCashier(ctx context.Context, cashierID int64, role, terminalID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxCashierID, cashierID)
	ctx = context.WithValue(ctx, ctxRole, role)
	return context.WithValue(ctx, ctxTerminalID, terminalID)
}

func WithAccessID(ctx context.Context, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccessID, accessID)
}
