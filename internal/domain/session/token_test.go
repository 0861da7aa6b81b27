package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signedToken builds a real HS256 token for tests. The signature is
// irrelevant (decode is unverified) but the structure must be valid.
func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestNormalizeToken(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "abc.def.ghi", "abc.def.ghi"},
		{"whitespace", "  abc.def.ghi\n", "abc.def.ghi"},
		{"double quoted", `"abc.def.ghi"`, "abc.def.ghi"},
		{"single quoted", "'abc.def.ghi'", "abc.def.ghi"},
		{"nested quotes", `"'abc.def.ghi'"`, "abc.def.ghi"},
		{"quoted with whitespace", ` "abc.def.ghi" `, "abc.def.ghi"},
		{"unmatched quote kept", `"abc.def.ghi`, `"abc.def.ghi`},
		{"empty", "", ""},
		{"only quotes", `""`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeToken(tt.in); got != tt.want {
				t.Errorf("NormalizeToken(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeClaims(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "admin", "exp": float64(1900000000)})

	claims, err := DecodeClaims(token)
	if err != nil {
		t.Fatalf("DecodeClaims: %v", err)
	}
	if claims.Subject != "admin" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "admin")
	}
	if claims.ExpiresAt != 1900000000 {
		t.Errorf("ExpiresAt = %d, want %d", claims.ExpiresAt, 1900000000)
	}
}

func TestDecodeClaimsStringExpiry(t *testing.T) {
	// Some backends serialize exp as a string; the decoder coerces it.
	token := signedToken(t, jwt.MapClaims{"sub": "admin", "exp": "1900000000"})

	claims, err := DecodeClaims(token)
	if err != nil {
		t.Fatalf("DecodeClaims: %v", err)
	}
	if claims.ExpiresAt != 1900000000 {
		t.Errorf("ExpiresAt = %d, want %d", claims.ExpiresAt, 1900000000)
	}
}

func TestDecodeClaimsMalformed(t *testing.T) {
	if _, err := DecodeClaims("not-a-jwt"); err != ErrMalformedToken {
		t.Errorf("err = %v, want ErrMalformedToken", err)
	}
}

func TestDecodeClaimsNoExpiry(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "admin"})
	if _, err := DecodeClaims(token); err != ErrNoExpiry {
		t.Errorf("err = %v, want ErrNoExpiry", err)
	}
}

func TestTokenValid(t *testing.T) {
	now := time.Unix(1700000000, 0)
	future := float64(now.Unix() + 3600)
	past := float64(now.Unix() - 3600)

	valid := signedToken(t, jwt.MapClaims{"sub": "a", "exp": future})
	expired := signedToken(t, jwt.MapClaims{"sub": "a", "exp": past})
	atBoundary := signedToken(t, jwt.MapClaims{"sub": "a", "exp": float64(now.Unix())})

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"valid", valid, true},
		{"valid quoted", `"` + valid + `"`, true},
		{"expired", expired, false},
		{"expires exactly now", atBoundary, false},
		{"malformed", "garbage", false},
		{"empty", "", false},
		{"whitespace only", "   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenValid(tt.raw, now); got != tt.want {
				t.Errorf("TokenValid = %v, want %v", got, tt.want)
			}
		})
	}
}
