package session

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken is returned when the raw value does not decode
	// as a JWT structure at all.
	ErrMalformedToken = errors.New("malformed token")
	// ErrNoExpiry is returned when the token decodes but carries no
	// usable "exp" claim.
	ErrNoExpiry = errors.New("token has no expiry claim")
)

// NormalizeToken strips whitespace and stray wrapping quote characters
// from a stored token value. Some storage paths have historically written
// the token JSON-quoted; reads must tolerate that.
func NormalizeToken(raw string) string {
	tok := strings.TrimSpace(raw)
	for len(tok) >= 2 {
		first, last := tok[0], tok[len(tok)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			tok = tok[1 : len(tok)-1]
			continue
		}
		break
	}
	return tok
}

// DecodeClaims parses a normalized token without verifying its signature
// and extracts the subject and expiry claims. The console never holds the
// backend's signing key; the backend re-verifies every request, so an
// unverified parse is sufficient for local gating decisions.
func DecodeClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, ErrMalformedToken
	}

	exp, err := expiryFromClaim(mc["exp"])
	if err != nil {
		return Claims{}, err
	}

	claims := Claims{ExpiresAt: exp}
	if sub, ok := mc["sub"].(string); ok {
		claims.Subject = sub
	}
	return claims, nil
}

// expiryFromClaim coerces the "exp" claim to epoch seconds. Numeric
// strings are accepted; anything non-finite or missing is rejected.
func expiryFromClaim(v any) (int64, error) {
	switch exp := v.(type) {
	case float64:
		return int64(exp), nil
	case json.Number:
		f, err := exp.Float64()
		if err != nil {
			return 0, ErrNoExpiry
		}
		return int64(f), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(exp), 64)
		if err != nil {
			return 0, ErrNoExpiry
		}
		return int64(f), nil
	default:
		return 0, ErrNoExpiry
	}
}

// TokenValid reports whether a raw stored value holds a well-formed,
// unexpired token. Any decode failure counts as invalid; this predicate
// never panics or propagates parse errors.
func TokenValid(raw string, now time.Time) bool {
	tok := NormalizeToken(raw)
	if tok == "" {
		return false
	}
	claims, err := DecodeClaims(tok)
	if err != nil {
		return false
	}
	return claims.ExpiresAt*1000 > now.UnixMilli()
}
