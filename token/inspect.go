// Package token inspects JWT claims on the client side. Tokens are issued
// and verified by the platform; this client only recovers scheduling data
// (exp) and the session identifier (sub) without validating signatures.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// Expiry recovers the exp claim from a raw JWT. The second return is false
// when the token does not parse or carries no exp claim.
func Expiry(raw string) (time.Time, bool) {
	claims, ok := inspect(raw)
	if !ok {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Subject recovers the sub claim from a raw JWT, used as the correlation
// key for realtime subscriptions.
func Subject(raw string) (string, bool) {
	claims, ok := inspect(raw)
	if !ok {
		return "", false
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}

func inspect(raw string) (jwt.MapClaims, bool) {
	if raw == "" {
		return nil, false
	}

	parsed, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	return claims, ok
}
