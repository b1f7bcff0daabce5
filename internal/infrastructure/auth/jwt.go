// Package auth verifies bearer tokens issued by the hosted backend and mints
// development tokens signed with the same secret.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/infrastructure/config"
)

// Claims are the token claims flashnet reads.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies HS256 tokens.
type Authenticator struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewAuthenticator builds an Authenticator from the auth config section.
func NewAuthenticator(cfg *config.Config) (*Authenticator, error) {
	secret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if secret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	return &Authenticator{
		secret:   []byte(secret),
		issuer:   cfg.Auth.Issuer,
		audience: cfg.Auth.Audience,
		now:      time.Now,
	}, nil
}

// Issue signs a token for p that expires after ttl.
func (a *Authenticator) Issue(p entity.Principal, ttl time.Duration) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	now := a.now()
	claims := Claims{
		Email: p.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if a.audience != "" {
		claims.Audience = jwt.ClaimStrings{a.audience}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses raw and returns the principal it names.
func (a *Authenticator) Verify(raw string) (entity.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return entity.Principal{}, entity.NewStoreError("verify token", entity.ErrNotAuthenticated, err.Error(), err)
	}

	p := entity.Principal{UserID: claims.Subject, Email: claims.Email}
	if err := p.Validate(); err != nil {
		return entity.Principal{}, entity.NewStoreError("verify token", entity.ErrNotAuthenticated, "token has no subject", nil)
	}
	return p, nil
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Middleware puts the verified principal into the request context. Requests
// without a valid token are passed to reject instead of next.
func (a *Authenticator) Middleware(reject func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				reject(w, r, entity.NewStoreError("authenticate", entity.ErrNotAuthenticated, "missing bearer token", nil))
				return
			}
			p, err := a.Verify(raw)
			if err != nil {
				reject(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(entity.WithPrincipal(r.Context(), p)))
		})
	}
}
