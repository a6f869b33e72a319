package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/backoffice/internal/apiclient"
	"github.com/odyssey-erp/backoffice/internal/auth"
	"github.com/odyssey-erp/backoffice/internal/shared"
	_ "github.com/odyssey-erp/backoffice/testing"
)

type stubBackend struct {
	password string
	logouts  atomic.Int32
}

func (s *stubBackend) Login(_ context.Context, email, password string) (apiclient.Credentials, apiclient.Profile, error) {
	if password != s.password {
		return apiclient.Credentials{}, apiclient.Profile{}, &apiclient.APIError{Method: http.MethodPost, Path: "/auth/login", Status: http.StatusUnauthorized}
	}
	return apiclient.Credentials{AccessToken: "a1", RefreshToken: "r1"},
		apiclient.Profile{ID: "42", Name: "Rina", Email: email, Role: "sales"}, nil
}

func (s *stubBackend) Logout(ctx context.Context, tokens apiclient.TokenStore) error {
	s.logouts.Add(1)
	return tokens.ClearCredentials(ctx)
}

type fixture struct {
	router   http.Handler
	sessions *shared.SessionManager
	sess     *shared.Session
}

func newFixture(t *testing.T, backend auth.Backend) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	handler := auth.NewHandler(nil, auth.NewService(backend), sessionManager, csrfManager)

	sess, err := sessionManager.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	r.Route("/auth", handler.MountRoutes)
	return &fixture{router: r, sessions: sessionManager, sess: sess}
}

func (f *fixture) send(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, req)
	return res
}

type loginState struct {
	CSRFToken     string          `json:"csrf_token"`
	Authenticated bool            `json:"authenticated"`
	User          *shared.Profile `json:"user"`
}

func TestLoginPageIssuesCSRFToken(t *testing.T) {
	f := newFixture(t, &stubBackend{password: "correctpass"})

	res := f.send(http.MethodGet, "/auth/login", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	var state loginState
	if err := json.Unmarshal(res.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.CSRFToken == "" || state.CSRFToken != f.sess.Get(shared.CSRFSessionKey) {
		t.Fatalf("expected csrf token bound to session, got %q", state.CSRFToken)
	}
	if state.Authenticated {
		t.Fatalf("expected anonymous session")
	}
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t, &stubBackend{password: "correctpass"})

	res := f.send(http.MethodPost, "/auth/login", `{"email":"not-an-email","password":"short"}`)
	if res.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.Code)
	}
	body := res.Body.String()
	if !strings.Contains(body, "must be a valid email address") || !strings.Contains(body, "at least 8 characters") {
		t.Fatalf("expected field messages, got %s", body)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t, &stubBackend{password: "correctpass"})

	res := f.send(http.MethodPost, "/auth/login", `{"email":"user@test.local","password":"wrongpass"}`)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "email or password is incorrect") {
		t.Fatalf("expected error message in response")
	}
	if f.sess.Authenticated() {
		t.Fatalf("session must stay anonymous")
	}
}

func TestLoginSignsInAndRotatesCSRF(t *testing.T) {
	f := newFixture(t, &stubBackend{password: "correctpass"})
	before := f.send(http.MethodGet, "/auth/login", "")
	var initial loginState
	_ = json.Unmarshal(before.Body.Bytes(), &initial)

	res := f.send(http.MethodPost, "/auth/login", `{"email":"user@test.local","password":"correctpass"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var state loginState
	if err := json.Unmarshal(res.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !state.Authenticated || state.User == nil || state.User.ID != "42" || state.User.Role != "sales" {
		t.Fatalf("unexpected login state %+v", state)
	}
	if f.sess.Credentials().AccessToken != "a1" {
		t.Fatalf("credentials not stored in session")
	}
	if state.CSRFToken == "" || state.CSRFToken == initial.CSRFToken {
		t.Fatalf("expected rotated csrf token")
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	backend := &stubBackend{password: "correctpass"}
	f := newFixture(t, backend)
	f.sess.SignIn(shared.Profile{ID: "42", Role: "sales"}, apiclient.Credentials{AccessToken: "a1", RefreshToken: "r1"})

	res := f.send(http.MethodPost, "/auth/logout", "")
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if backend.logouts.Load() != 1 {
		t.Fatalf("expected backend logout")
	}
	if f.sess.Authenticated() {
		t.Fatalf("expected signed-out session")
	}

	commit := httptest.NewRecorder()
	if err := f.sessions.Commit(context.Background(), commit, httptest.NewRequest(http.MethodPost, "/auth/logout", nil), f.sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	cookies := commit.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("expected expired cookie, got %+v", cookies)
	}
}
