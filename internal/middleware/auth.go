// Package middleware provides HTTP middleware for the token API.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"

	"github.com/SLC-Network/token_layer/pkg/logger"
)

type contextKey string

const callerKey contextKey = "caller"

// Claims are the JWT claims the API accepts. Address identifies the ledger
// account acting through this request.
type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// Auth authenticates requests with HMAC-signed JWTs.
type Auth struct {
	secret    []byte
	log       *logger.Logger
	skipPaths map[string]bool
}

// NewAuth creates an authentication middleware. Requests to skipPaths pass
// through unauthenticated.
func NewAuth(secret []byte, log *logger.Logger, skipPaths []string) *Auth {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	skip := make(map[string]bool, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &Auth{secret: secret, log: log, skipPaths: skip}
}

// Handler returns the middleware handler.
func (a *Auth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			a.deny(w, r, "missing Authorization header")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			a.deny(w, r, "malformed Authorization header")
			return
		}

		caller, err := a.validate(parts[1])
		if err != nil {
			a.log.WithContext(r.Context()).WithError(err).Warn("token validation failed")
			a.deny(w, r, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), callerKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Auth) validate(raw string) (common.Address, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		return common.Address{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return common.Address{}, jwt.ErrTokenInvalidClaims
	}
	if !common.IsHexAddress(claims.Address) {
		return common.Address{}, jwt.ErrTokenInvalidClaims
	}
	return common.HexToAddress(claims.Address), nil
}

func (a *Auth) deny(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": "unauthorized", "message": message},
	})
	a.log.WithFields(map[string]any{
		"path":   r.URL.Path,
		"method": r.Method,
	}).Warn("request denied")
}

// Caller extracts the authenticated ledger account from the context.
func Caller(ctx context.Context) (common.Address, bool) {
	caller, ok := ctx.Value(callerKey).(common.Address)
	return caller, ok
}

// IssueToken mints an HMAC-signed JWT for the given account, used by
// operator tooling and tests.
func IssueToken(secret []byte, address common.Address, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Address: address.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
