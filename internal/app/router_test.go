package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/backoffice/internal/apiclient"
	"github.com/odyssey-erp/backoffice/internal/auth"
	"github.com/odyssey-erp/backoffice/internal/masterdata"
	"github.com/odyssey-erp/backoffice/internal/observability"
	"github.com/odyssey-erp/backoffice/internal/platform/cache"
	"github.com/odyssey-erp/backoffice/internal/rbac"
	"github.com/odyssey-erp/backoffice/internal/shared"
	"github.com/odyssey-erp/backoffice/jobs"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-1","refresh_token":"refresh-1","user":{"id":7,"name":"Ana","email":"ana@example.com","role":"warehouse"}}`))
	})
	mux.HandleFunc("GET /items", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"ITM-001","sku":"SKU-1","name":"Widget","category_id":1,"price":"2.00","quantity":3,"location_id":1,"is_active":true}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backend := newBackend(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second, DefaultLocale: "en"}
	metrics := observability.NewMetrics()
	api := apiclient.New(backend.URL, apiclient.WithObserver(metrics))
	sessions := shared.NewSessionManager(client, "backoffice_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf")
	policy := rbac.DefaultPolicy()

	registry := masterdata.NewRegistry(masterdata.Modules(masterdata.Deps{
		Logger:        logger,
		Client:        api,
		Cache:         cache.NewVersioned(client, "test:list", time.Minute),
		RBAC:          rbac.Middleware{Policy: policy, Logger: logger},
		Exports:       masterdata.NewExportStore(client, time.Hour),
		Idempotency:   shared.NewIdempotencyStore(client, time.Hour),
		DefaultLocale: language.English,
	}))

	router := NewRouter(RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessions,
		CSRFManager:        csrf,
		AuthHandler:        auth.NewHandler(logger, auth.NewService(api), sessions, csrf),
		Registry:           registry,
		SummaryHandler:     masterdata.NewSummaryHandler(registry, policy, logger),
		PermissionsHandler: rbac.NewPermissionsHandler(policy),
		JobHandler:         jobs.NewHandler(nil, logger),
		Metrics:            metrics,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return srv, &http.Client{Jar: jar}
}

func call(t *testing.T, hc *http.Client, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(shared.CSRFHeader, token)
	}
	resp, err := hc.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func TestRouterSignInAndListFlow(t *testing.T) {
	srv, hc := newGateway(t)

	resp, body := call(t, hc, http.MethodGet, srv.URL+"/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, body = call(t, hc, http.MethodGet, srv.URL+"/auth/login", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state struct {
		CSRFToken     string `json:"csrf_token"`
		Authenticated bool   `json:"authenticated"`
	}
	require.NoError(t, json.Unmarshal(body, &state))
	require.NotEmpty(t, state.CSRFToken)
	assert.False(t, state.Authenticated)

	resp, _ = call(t, hc, http.MethodGet, srv.URL+"/api/items", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = call(t, hc, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{"email": "ana@example.com", "password": "password1"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "login without csrf token")

	resp, body = call(t, hc, http.MethodPost, srv.URL+"/auth/login", state.CSRFToken, map[string]string{"email": "ana@example.com", "password": "password1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &state))
	assert.True(t, state.Authenticated)

	resp, body = call(t, hc, http.MethodGet, srv.URL+"/api/items", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "ITM-001")

	resp, body = call(t, hc, http.MethodGet, srv.URL+"/api/me", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var principal rbac.Principal
	require.NoError(t, json.Unmarshal(body, &principal))
	assert.Equal(t, "7", principal.UserID)
	assert.Equal(t, "warehouse", principal.Role)

	resp, _ = call(t, hc, http.MethodGet, srv.URL+"/api/employees", "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = call(t, hc, http.MethodPut, srv.URL+"/api/items/filter", "", map[string]string{"value": "widget"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "mutation without csrf token")

	resp, body = call(t, hc, http.MethodGet, srv.URL+"/api/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "Not Found")

	resp, body = call(t, hc, http.MethodGet, srv.URL+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `backoffice_api_calls_total{code="200",method="GET",resource="/items"}`), string(body))

	resp, _ = call(t, hc, http.MethodGet, srv.URL+"/jobs/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLocaleMiddlewareNegotiates(t *testing.T) {
	var got language.Tag
	handler := LocaleMiddleware(language.English)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = shared.LocaleFromContext(r.Context(), language.Und)
	}))

	cases := map[string]language.Tag{
		"":                   language.English,
		"id-ID,id;q=0.9":     language.Indonesian,
		"de-CH, en;q=0.5":    language.German,
		"ja-JP":              language.English,
		"fr;q=0.4, es;q=0.8": language.Spanish,
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Accept-Language", header)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, want, got, "Accept-Language %q", header)
	}
}

func TestExportLimiterIsPerUser(t *testing.T) {
	sessions := shared.NewSessionManager(nil, "backoffice_session", "secret", time.Hour, false)
	limited := ExportLimiter(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/export.csv", nil)
		sess, err := sessions.Load(req.Context(), req)
		require.NoError(t, err)
		sess.SignIn(shared.Profile{ID: userID, Role: rbac.RoleOwner}, apiclient.Credentials{AccessToken: "a"})
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
		rr := httptest.NewRecorder()
		limited.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, request("1"))
	assert.Equal(t, http.StatusOK, request("1"))
	assert.Equal(t, http.StatusTooManyRequests, request("1"))
	assert.Equal(t, http.StatusOK, request("2"))
}
