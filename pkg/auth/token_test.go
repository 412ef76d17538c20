package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/pos-terminal/pkg/config"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
)

func testJWTConfig(minutes int) config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "pos-terminal",
		ExpirationMinutes: minutes,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig(30)
	now := time.Now().UTC()

	payload := AccessTokenPayload{
		CashierID:  42,
		Username:   "sari",
		Role:       enums.CashierRoleSupervisor,
		TerminalID: "terminal-7",
		JTI:        "jti-abc",
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.CashierID != 42 {
		t.Fatalf("expected cashier_id 42, got %d", claims.CashierID)
	}
	if claims.Role != enums.CashierRoleSupervisor {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.TerminalID != "terminal-7" {
		t.Fatalf("unexpected terminal id %s", claims.TerminalID)
	}
	if claims.ID != "jti-abc" {
		t.Fatalf("expected jti to be preserved, got %s", claims.ID)
	}
	if claims.Subject != "42" {
		t.Fatalf("expected subject 42, got %s", claims.Subject)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestMintAccessTokenGeneratesJTI(t *testing.T) {
	token, err := MintAccessToken(testJWTConfig(5), time.Now(), AccessTokenPayload{
		CashierID:  1,
		Role:       enums.CashierRoleCashier,
		TerminalID: "t1",
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	claims, err := ParseAccessToken(testJWTConfig(5), token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.ID == "" {
		t.Fatal("expected generated jti")
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig(10)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		CashierID:  5,
		Role:       enums.CashierRoleCashier,
		TerminalID: "t1",
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig(15)
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{
		CashierID:  5,
		Role:       enums.CashierRoleCashier,
		TerminalID: "t1",
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMintAccessTokenRejectsInvalidPayload(t *testing.T) {
	cfg := testJWTConfig(5)
	cases := []AccessTokenPayload{
		{CashierID: 1, Role: "", TerminalID: "t1"},
		{CashierID: 0, Role: enums.CashierRoleCashier, TerminalID: "t1"},
		{CashierID: 1, Role: enums.CashierRoleCashier, TerminalID: "  "},
	}
	for _, payload := range cases {
		if _, err := MintAccessToken(cfg, time.Now(), payload); err == nil {
			t.Fatalf("expected error for payload %+v", payload)
		}
	}
}
