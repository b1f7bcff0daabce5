package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/eslsoft/flashnet/internal/adapter/connectrpc"
	"github.com/eslsoft/flashnet/internal/adapter/mapping"
	"github.com/eslsoft/flashnet/internal/adapter/rest"
	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/infrastructure/auth"
	"github.com/eslsoft/flashnet/internal/infrastructure/config"
	"github.com/eslsoft/flashnet/internal/repository"
	"github.com/eslsoft/flashnet/internal/usecase/learning"
)

type emptyStore struct{}

func (emptyStore) List(context.Context, *repository.ListFlashcardQuery) ([]entity.Flashcard, int64, error) {
	return nil, 0, nil
}

func (emptyStore) Update(context.Context, string, string, entity.FlashcardPatch) (*entity.Flashcard, error) {
	return nil, entity.ErrFlashcardNotFound
}

func (emptyStore) UpdateByCategory(context.Context, string, string, entity.FlashcardPatch) (int64, error) {
	return 0, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *auth.Authenticator, *test.Hook) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", HTTPPort: 8080, CORSOrigins: []string{"*"}},
		Auth:   config.AuthConfig{JWTSecret: "server-test-secret"},
	}
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	authn, err := auth.NewAuthenticator(cfg)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	manager := learning.NewManager(emptyStore{}, time.Minute, logger)
	s := NewServer(cfg, logger, rest.NewHandler(nil, nil), connectrpc.NewLearningServiceServer(manager), authn)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, authn, hook
}

func TestHealthzIsOpen(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRESTRequiresBearerToken(t *testing.T) {
	srv, authn, hook := newTestServer(t)

	resp, err := http.Get(srv.URL + rest.Prefix + "categories")
	if err != nil {
		t.Fatalf("GET categories: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var body rest.ErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Kind != "not_authenticated" {
		t.Fatalf("unexpected error body %+v", body)
	}

	var logged bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "http request" && entry.Level == logrus.WarnLevel && entry.Data["status"] == http.StatusUnauthorized {
			logged = true
		}
	}
	if !logged {
		t.Fatalf("expected a warn access log line for the rejected request")
	}

	token, err := authn.Issue(entity.Principal{UserID: "u1"}, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	req, _ := http.NewRequest(http.MethodGet, srv.URL+rest.Prefix+"no-such-route", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with token: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected authenticated request to reach the router, got %d", resp2.StatusCode)
	}
}

func TestConnectRequiresBearerToken(t *testing.T) {
	srv, authn, _ := newTestServer(t)
	ctx := context.Background()

	anonymous := connectrpc.NewLearningClient(srv.Client(), srv.URL, "")
	if _, err := anonymous.StartSession(ctx, "c1"); !errors.Is(err, entity.ErrNotAuthenticated) {
		t.Fatalf("expected not authenticated, got %v", err)
	}

	token, err := authn.Issue(entity.Principal{UserID: "u1"}, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	client := connectrpc.NewLearningClient(srv.Client(), srv.URL, token)
	started, err := client.StartSession(ctx, "c1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if !started.View.Empty() || !started.View.Complete {
		t.Fatalf("expected an empty loaded session, got %+v", started.View)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+rest.Prefix+"categories", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	req.Header.Set("Access-Control-Request-Headers", "authorization")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestCORSFixedOrigins(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	srv := httptest.NewServer(withCORS([]string{"https://app.example.com"}).Handler(ok))
	t.Cleanup(srv.Close)

	cases := []struct {
		origin string
		want   string
	}{
		{"https://app.example.com", "https://app.example.com"},
		{"https://evil.example.com", ""},
	}
	for _, tc := range cases {
		t.Run(tc.origin, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodOptions, srv.URL+rest.Prefix+"flashcards", nil)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
			req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("preflight: %v", err)
			}
			defer resp.Body.Close()
			if got := resp.Header.Get("Access-Control-Allow-Origin"); got != tc.want {
				t.Fatalf("allow origin = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLogLevels(t *testing.T) {
	cases := map[int]logrus.Level{
		http.StatusOK:                  logrus.DebugLevel,
		http.StatusNotFound:            logrus.WarnLevel,
		http.StatusServiceUnavailable:  logrus.ErrorLevel,
		http.StatusInternalServerError: logrus.ErrorLevel,
	}
	for status, want := range cases {
		if got := httpLevel(status); got != want {
			t.Errorf("httpLevel(%d) = %v, want %v", status, got, want)
		}
	}
	if got := rpcLevel(0, nil); got != logrus.InfoLevel {
		t.Errorf("successful rpc logged at %v", got)
	}
	if got := rpcLevel(connect.Code(mapping.Code(entity.ErrSessionNotFound)), entity.ErrSessionNotFound); got != logrus.WarnLevel {
		t.Errorf("not found rpc logged at %v", got)
	}
}
