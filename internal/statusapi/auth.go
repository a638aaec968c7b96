package statusapi

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// isAuthorizedRequest reports whether r carries a Bearer JWT signed
// with secret using HS256. If secret is empty, the admin surface is
// unauthenticated — it exposes only read-only status, never control,
// so this is a deliberately weaker bar than the wire protocol, which
// has no auth story at all (spec.md Non-goals).
func isAuthorizedRequest(secret string, r *http.Request) bool {
	if secret == "" {
		return true
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	raw, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return false
	}

	token, err := jwt.Parse(strings.TrimSpace(raw), func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err == nil && token.Valid
}
