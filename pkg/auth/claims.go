package auth

import (
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	CashierID  int64
	Username   string
	Role       enums.CashierRole
	TerminalID string
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to the cashier UI.
type AccessTokenClaims struct {
	CashierID  int64             `json:"cashier_id"`
	Username   string            `json:"username"`
	Role       enums.CashierRole `json:"role"`
	TerminalID string            `json:"terminal_id"`
	jwt.RegisteredClaims
}
