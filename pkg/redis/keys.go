package redis

import "strings"

const keyNamespace = "pos"

// IdempotencyKey namespaces a client-supplied Idempotency-Key within its cashier scope.
func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey("idempotency", scope, id)
}

// RateLimitKey namespaces a login rate-limit counter.
func (c *Client) RateLimitKey(scope string) string {
	return buildKey("rate_limit", scope)
}

// AccessSessionKey namespaces the session stored under a token's jti.
func (c *Client) AccessSessionKey(accessID string) string {
	return buildKey("session", "access", accessID)
}

// CatalogKey namespaces a cached catalog lookup.
func (c *Client) CatalogKey(parts ...string) string {
	return buildKey(append([]string{"catalog"}, parts...)...)
}

// buildKey joins the non-empty parts under the pos namespace.
func buildKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
