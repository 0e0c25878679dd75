package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthMode selects the read API's auth gate: off by default for
// local/dev parity, or a bearer token issued by this package's own JWT
// stack.
type AuthMode string

const (
	AuthModeNone   AuthMode = "none"
	AuthModeBearer AuthMode = "bearer"
)

// operatorClaims is deliberately minimal: a single shared secret gates
// the whole read API, there is no per-user identity to carry.
type operatorClaims struct {
	jwt.RegisteredClaims
}

// IssueOperatorToken mints a bearer token for `mobasherctl channels add
// --issue-token`.
func IssueOperatorToken(secret []byte, ttl time.Duration) (string, error) {
	claims := &operatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func validateOperatorToken(tokenString string, secret []byte) error {
	_, err := jwt.ParseWithClaims(tokenString, &operatorClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return errors.New("token expired")
		}
		return errors.New("invalid token")
	}
	return nil
}

// BearerAuth rejects requests lacking a valid `Authorization: Bearer
// <token>` header. Pass-through when mode is AuthModeNone.
func BearerAuth(mode AuthMode, secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if mode != AuthModeBearer {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeAuthError(w)
				return
			}
			if err := validateOperatorToken(token, secret); err != nil {
				writeAuthError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}{Error: "unauthorized", Detail: "a valid bearer token is required"})
}
