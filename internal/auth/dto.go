package auth

import (
	"time"

	"github.com/angelmondragon/pos-terminal/pkg/enums"
)

// LoginRequest captures the cashier credentials sent to the login endpoint.
type LoginRequest struct {
	Username   string `json:"username" validate:"required,max=100"`
	Password   string `json:"password" validate:"required,max=200"`
	TerminalID string `json:"terminal_id" validate:"omitempty,max=64"`
}

// CashierSummary describes the cashier returned after login.
type CashierSummary struct {
	ID       int64             `json:"id"`
	Username string            `json:"username"`
	Name     string            `json:"name"`
	Role     enums.CashierRole `json:"role"`
}

// LoginResponse contains the terminal access token and the cashier it belongs to.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	ExpiresAt   time.Time      `json:"expires_at"`
	TerminalID  string         `json:"terminal_id"`
	Cashier     CashierSummary `json:"cashier"`
}
