package jobs

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListExportTaskRoundTrip(t *testing.T) {
	task, err := NewListExportTask(ListExportPayload{
		ExportID:  "exp-1",
		Entity:    "items",
		SessionID: "sess-1",
		UserID:    "7",
		State:     json.RawMessage(`{"filter":"widget"}`),
		Format:    "xlsx",
		Locale:    "id",
	})
	require.NoError(t, err)
	assert.Equal(t, TaskListExport, task.Type())

	payload, err := DecodeListExport(task)
	require.NoError(t, err)
	assert.Equal(t, "exp-1", payload.ExportID)
	assert.Equal(t, "items", payload.Entity)
	assert.JSONEq(t, `{"filter":"widget"}`, string(payload.State))
	assert.Equal(t, "id", payload.Locale)
}

func TestListExportTaskRequiresIdentity(t *testing.T) {
	_, err := NewListExportTask(ListExportPayload{Entity: "items"})
	require.Error(t, err)
}

func TestDecodeListExportSkipsRetryOnBadPayload(t *testing.T) {
	_, err := DecodeListExport(asynq.NewTask(TaskListExport, []byte("{not json")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	_, err = DecodeListExport(asynq.NewTask(TaskListExport, []byte(`{"entity":"items"}`)))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"}})
	require.Error(t, err)
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, slog.New(slog.NewTextHandler(io.Discard, nil))).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0}`, rr.Body.String())
}
