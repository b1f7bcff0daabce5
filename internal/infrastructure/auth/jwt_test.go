package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/infrastructure/config"
)

func newTestAuthenticator(t *testing.T, issuer, audience string) *Authenticator {
	t.Helper()
	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: "s3cret", Issuer: issuer, Audience: audience}}
	a, err := NewAuthenticator(cfg)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	a.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return a
}

func TestIssueAndVerify(t *testing.T) {
	a := newTestAuthenticator(t, "flashnet", "cli")
	token, err := a.Issue(entity.Principal{UserID: "u1", Email: "u1@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	p, err := a.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.UserID != "u1" || p.Email != "u1@example.com" {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestVerifyRejects(t *testing.T) {
	a := newTestAuthenticator(t, "flashnet", "")
	valid, err := a.Issue(entity.Principal{UserID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	expired, err := a.Issue(entity.Principal{UserID: "u1"}, -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := newTestAuthenticator(t, "someone-else", "")
	foreign, err := other.Issue(entity.Principal{UserID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	cases := map[string]string{
		"expired":      expired,
		"wrong issuer": foreign,
		"alg none":     unsigned,
		"tampered":     valid + "x",
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := a.Verify(token)
			if !errors.Is(err, entity.ErrNotAuthenticated) {
				t.Fatalf("expected not authenticated, got %v", err)
			}
		})
	}
}

func TestNewAuthenticatorRequiresSecret(t *testing.T) {
	if _, err := NewAuthenticator(&config.Config{}); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestMiddleware(t *testing.T) {
	a := newTestAuthenticator(t, "", "")
	token, err := a.Issue(entity.Principal{UserID: "u7"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var seen entity.Principal
	handler := a.Middleware(func(w http.ResponseWriter, _ *http.Request, err error) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = entity.PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/rest/v1/categories", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || seen.UserID != "u7" {
		t.Fatalf("expected pass-through for u7, got %d %+v", rec.Code, seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/rest/v1/categories", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}
