package masterdata_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/backoffice/internal/apiclient"
	"github.com/odyssey-erp/backoffice/internal/masterdata"
	"github.com/odyssey-erp/backoffice/internal/platform/cache"
	"github.com/odyssey-erp/backoffice/internal/rbac"
	"github.com/odyssey-erp/backoffice/internal/shared"
	"github.com/odyssey-erp/backoffice/jobs"
	_ "github.com/odyssey-erp/backoffice/testing"
)

// fakeAPI is an in-memory REST backend keyed by collection name.
type fakeAPI struct {
	mu         sync.Mutex
	rows       map[string][]map[string]any
	calls      []string
	lastPatch  string
	expired    bool
	failCreate int
}

func newFakeAPI() *fakeAPI {
	api := &fakeAPI{rows: map[string][]map[string]any{}}
	for i := 1; i <= 12; i++ {
		name := fmt.Sprintf("Widget %d", i)
		if i%3 == 0 {
			name = fmt.Sprintf("Gadget %d", i)
		}
		api.rows["items"] = append(api.rows["items"], map[string]any{
			"id":          fmt.Sprintf("ITM-%03d", i),
			"sku":         fmt.Sprintf("SKU-%d", i),
			"name":        name,
			"category_id": 1,
			"price":       "1.50",
			"quantity":    i,
			"location_id": 1,
			"is_active":   true,
		})
	}
	return api
}

func (f *fakeAPI) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPI) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeAPI) setExpired(v bool) {
	f.mu.Lock()
	f.expired = v
	f.mu.Unlock()
}

func (f *fakeAPI) setFailCreate(status int) {
	f.mu.Lock()
	f.failCreate = status
	f.mu.Unlock()
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	if r.URL.Path == "/auth/refresh" {
		if f.expired {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "refresh token revoked"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "access-1"})
		return
	}
	if f.expired || r.Header.Get("Authorization") != "Bearer access-1" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	coll := parts[0]
	switch {
	case r.Method == http.MethodGet && len(parts) == 1:
		rows := f.rows[coll]
		if rows == nil {
			rows = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": rows})
	case r.Method == http.MethodPost && len(parts) == 1:
		if f.failCreate != 0 {
			writeJSON(w, f.failCreate, map[string]any{"message": "sku already exists", "errors": map[string]string{"sku": "taken"}})
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["id"] = fmt.Sprintf("ITM-%03d", len(f.rows[coll])+1)
		f.rows[coll] = append(f.rows[coll], body)
		writeJSON(w, http.StatusCreated, map[string]any{"data": body})
	case r.Method == http.MethodPatch && len(parts) == 2:
		raw := new(bytes.Buffer)
		_, _ = raw.ReadFrom(r.Body)
		f.lastPatch = raw.String()
		var patch map[string]any
		_ = json.Unmarshal(raw.Bytes(), &patch)
		for _, row := range f.rows[coll] {
			if row["id"] == parts[1] {
				for k, v := range patch {
					row[k] = v
				}
				writeJSON(w, http.StatusOK, row)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case r.Method == http.MethodDelete && len(parts) == 2:
		f.rows[coll] = slices.DeleteFunc(f.rows[coll], func(row map[string]any) bool { return row["id"] == parts[1] })
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type fakeQueue struct {
	mu       sync.Mutex
	payloads []jobs.ListExportPayload
}

func (q *fakeQueue) EnqueueListExport(_ context.Context, p jobs.ListExportPayload) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.payloads = append(q.payloads, p)
	return &asynq.TaskInfo{ID: p.ExportID, Queue: jobs.QueueDefault}, nil
}

type harness struct {
	api      *fakeAPI
	router   http.Handler
	sess     *shared.Session
	sessions *shared.SessionManager
	store    *masterdata.ExportStore
	registry *masterdata.Registry
	queue    *fakeQueue
}

var testDay = time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, role string) *harness {
	t.Helper()
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	api := newFakeAPI()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	sessions := shared.NewSessionManager(rdb, "bo_session", "secret", time.Hour, false)
	sess, err := sessions.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SignIn(shared.Profile{ID: "7", Name: "Ana", Role: role}, apiclient.Credentials{AccessToken: "access-1", RefreshToken: "refresh-1"})
	require.NoError(t, sessions.Save(ctx, sess))

	policy := rbac.DefaultPolicy()
	store := masterdata.NewExportStore(rdb, time.Hour)
	queue := &fakeQueue{}
	registry := masterdata.NewRegistry(masterdata.Modules(masterdata.Deps{
		Client:      apiclient.New(srv.URL),
		Cache:       cache.NewVersioned(rdb, "list", time.Minute),
		RBAC:        rbac.Middleware{Policy: policy},
		Exports:     store,
		Jobs:        queue,
		Idempotency: shared.NewIdempotencyStore(rdb, time.Hour),
		Now:         func() time.Time { return testDay },
	}))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	r.Route("/api", func(r chi.Router) {
		registry.MountRoutes(r)
		r.Route("/exports", masterdata.NewExportsHandler(store, nil).MountRoutes)
		r.Route("/summary", masterdata.NewSummaryHandler(registry, policy, nil).MountRoutes)
	})

	return &harness{api: api, router: r, sess: sess, sessions: sessions, store: store, registry: registry, queue: queue}
}

func (h *harness) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
