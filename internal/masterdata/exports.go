package masterdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/backoffice/internal/apiclient"
	"github.com/odyssey-erp/backoffice/internal/export"
	jobmetrics "github.com/odyssey-erp/backoffice/internal/jobs"
	"github.com/odyssey-erp/backoffice/internal/listctl"
	"github.com/odyssey-erp/backoffice/internal/platform/httpx"
	"github.com/odyssey-erp/backoffice/internal/shared"
	"github.com/odyssey-erp/backoffice/jobs"
)

// ExportStatus tracks a background export.
type ExportStatus string

const (
	ExportPending ExportStatus = "pending"
	ExportReady   ExportStatus = "ready"
	ExportFailed  ExportStatus = "failed"
)

// ErrExportNotFound is returned for unknown or expired exports.
var ErrExportNotFound = fmt.Errorf("export: %w", httpx.ErrNotFound)

// ExportRecord describes a background export.
type ExportRecord struct {
	ID          string        `json:"id"`
	Entity      string        `json:"entity"`
	UserID      string        `json:"user_id"`
	Format      export.Format `json:"format"`
	Status      ExportStatus  `json:"status"`
	Filename    string        `json:"filename,omitempty"`
	ContentType string        `json:"content_type,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
}

// ExportStore keeps export status and payloads in Redis for a fixed TTL.
type ExportStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewExportStore constructs the store.
func NewExportStore(client *redis.Client, ttl time.Duration) *ExportStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ExportStore{client: client, ttl: ttl, now: time.Now}
}

func exportKey(id string) string     { return "export:" + id }
func exportDataKey(id string) string { return "export:" + id + ":data" }

// Create records a pending export.
func (s *ExportStore) Create(ctx context.Context, rec ExportRecord) error {
	rec.Status = ExportPending
	rec.CreatedAt = s.now().UTC()
	return s.put(ctx, s.client, rec)
}

// Get returns the export record.
func (s *ExportStore) Get(ctx context.Context, id string) (ExportRecord, error) {
	var rec ExportRecord
	raw, err := s.client.Get(ctx, exportKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return rec, ErrExportNotFound
	}
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("export: decode %s: %w", id, err)
	}
	return rec, nil
}

// Data returns the rendered file of a ready export.
func (s *ExportStore) Data(ctx context.Context, id string) ([]byte, error) {
	data, err := s.client.Get(ctx, exportDataKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrExportNotFound
	}
	return data, err
}

// Complete stores the file and marks the export ready.
func (s *ExportStore) Complete(ctx context.Context, id string, file File) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	finished := s.now().UTC()
	rec.Status = ExportReady
	rec.Filename = file.Filename
	rec.ContentType = file.ContentType
	rec.Error = ""
	rec.FinishedAt = &finished
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, exportDataKey(id), file.Data, s.ttl)
		return s.put(ctx, pipe, rec)
	})
	return err
}

// Fail marks the export failed with cause.
func (s *ExportStore) Fail(ctx context.Context, id string, cause error) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	finished := s.now().UTC()
	rec.Status = ExportFailed
	rec.Error = cause.Error()
	rec.FinishedAt = &finished
	return s.put(ctx, s.client, rec)
}

func (s *ExportStore) put(ctx context.Context, cmd redis.Cmdable, rec ExportRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return cmd.Set(ctx, exportKey(rec.ID), raw, s.ttl).Err()
}

// enqueueExport captures the caller's list state and queues the render.
func (m *resource[E, C, P]) enqueueExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		m.fail(w, r, &httpx.ValidationError{Fields: httpx.FieldErrors{"format": "must be csv or xlsx"}})
		return
	}
	sess := shared.SessionFromContext(ctx)
	if sess == nil || !sess.Authenticated() {
		m.fail(w, r, shared.ErrUnauthenticated)
		return
	}
	if m.deps.Jobs == nil || m.deps.Exports == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "background exports are disabled")
		return
	}

	id := uuid.NewString()
	idemScope := "export:" + sess.ID + ":" + m.cfg.Entity
	idemKey := r.Header.Get(shared.IdempotencyHeader)
	if idemKey != "" && m.deps.Idempotency != nil {
		existing, err := m.deps.Idempotency.Claim(ctx, idemScope, idemKey, id)
		switch {
		case errors.Is(err, shared.ErrIdempotencyConflict) && existing != "":
			rec, err := m.deps.Exports.Get(ctx, existing)
			if err != nil {
				m.fail(w, r, err)
				return
			}
			replyExport(w, rec)
			return
		case err != nil:
			m.fail(w, r, err)
			return
		}
	}

	state := json.RawMessage(sess.Get(m.stateKey()))
	if len(state) == 0 {
		state = json.RawMessage("{}")
	}
	profile := sess.Profile()
	rec := ExportRecord{ID: id, Entity: m.cfg.Entity, UserID: profile.ID, Format: format}
	if err := m.deps.Exports.Create(ctx, rec); err != nil {
		_ = m.deps.Idempotency.Release(ctx, idemScope, idemKey)
		m.fail(w, r, err)
		return
	}
	_, err = m.deps.Jobs.EnqueueListExport(ctx, jobs.ListExportPayload{
		ExportID:  id,
		Entity:    m.cfg.Entity,
		SessionID: sess.ID,
		UserID:    profile.ID,
		State:     state,
		Format:    string(format),
		Locale:    m.locale(ctx).String(),
	})
	if err != nil {
		m.deps.Logger.Error("enqueue export", slog.String("entity", m.cfg.Entity), slog.Any("error", err))
		_ = m.deps.Exports.Fail(ctx, id, err)
		_ = m.deps.Idempotency.Release(ctx, idemScope, idemKey)
		m.fail(w, r, err)
		return
	}
	rec, err = m.deps.Exports.Get(ctx, id)
	if err != nil {
		m.fail(w, r, err)
		return
	}
	replyExport(w, rec)
}

func replyExport(w http.ResponseWriter, rec ExportRecord) {
	w.Header().Set("Location", "/api/exports/"+rec.ID)
	status := http.StatusAccepted
	if rec.Status != ExportPending {
		status = http.StatusOK
	}
	httpx.JSON(w, status, rec)
}

// ExportsHandler serves export status and downloads.
type ExportsHandler struct {
	store  *ExportStore
	logger *slog.Logger
}

// NewExportsHandler constructs the handler.
func NewExportsHandler(store *ExportStore, logger *slog.Logger) *ExportsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportsHandler{store: store, logger: logger}
}

// MountRoutes registers export routes.
func (h *ExportsHandler) MountRoutes(r chi.Router) {
	r.Get("/{id}", h.show)
}

// show streams a ready export and reports the status of any other. Exports
// belong to the user who requested them.
func (h *ExportsHandler) show(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || !sess.Authenticated() {
		respondError(w, r, h.logger, shared.ErrUnauthenticated)
		return
	}
	rec, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err == nil && rec.UserID != sess.Profile().ID {
		err = ErrExportNotFound
	}
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if rec.Status != ExportReady {
		if rec.Status == ExportPending {
			w.Header().Set("Retry-After", "2")
		}
		replyExport(w, rec)
		return
	}
	data, err := h.store.Data(r.Context(), rec.ID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	fileReply(File{Filename: rec.Filename, ContentType: rec.ContentType, Data: data})(w)
}

// ExportJob renders queued list exports.
type ExportJob struct {
	Registry *Registry
	Sessions *shared.SessionManager
	Store    *ExportStore
	Metrics  *jobmetrics.Metrics
	Logger   *slog.Logger
}

// Handle processes jobs.TaskListExport tasks.
func (j *ExportJob) Handle(ctx context.Context, t *asynq.Task) error {
	payload, err := jobs.DecodeListExport(t)
	if err != nil {
		return err
	}
	tracker := j.Metrics.Track(jobs.TaskListExport)
	return tracker.End(j.run(ctx, payload))
}

func (j *ExportJob) run(ctx context.Context, p jobs.ListExportPayload) error {
	logger := j.logger().With(slog.String("export_id", p.ExportID), slog.String("entity", p.Entity))

	module, ok := j.Registry.Lookup(p.Entity)
	if !ok {
		return j.abandon(ctx, logger, p, errMissingModule(p.Entity))
	}
	format, err := export.ParseFormat(p.Format)
	if err != nil {
		return j.abandon(ctx, logger, p, err)
	}
	var state listctl.State
	if len(p.State) > 0 {
		if err := json.Unmarshal(p.State, &state); err != nil {
			return j.abandon(ctx, logger, p, fmt.Errorf("decode list state: %w", err))
		}
	}
	locale, err := language.Parse(p.Locale)
	if err != nil {
		locale = language.English
	}

	sess, err := j.Sessions.LoadByID(ctx, p.SessionID)
	if errors.Is(err, shared.ErrSessionNotFound) {
		return j.abandon(ctx, logger, p, apiclient.ErrSessionExpired)
	}
	if err != nil {
		return err
	}
	if sess.Profile().ID != p.UserID {
		return j.abandon(ctx, logger, p, apiclient.ErrSessionExpired)
	}

	before := sess.Credentials()
	file, err := module.Export(ctx, sess, state, format, locale)
	if sess.Credentials() != before {
		if saveErr := j.Sessions.Save(ctx, sess); saveErr != nil {
			logger.Warn("save refreshed session", slog.Any("error", saveErr))
		}
	}
	if err != nil {
		if errors.Is(err, apiclient.ErrSessionExpired) || errors.Is(err, export.ErrNothingToExport) {
			return j.abandon(ctx, logger, p, err)
		}
		if lastAttempt(ctx) {
			if failErr := j.Store.Fail(ctx, p.ExportID, err); failErr != nil {
				logger.Warn("mark export failed", slog.Any("error", failErr))
			}
		}
		logger.Error("export failed", slog.Any("error", err))
		return err
	}
	if err := j.Store.Complete(ctx, p.ExportID, file); err != nil {
		return err
	}
	j.Metrics.ObserveExport(p.Entity, string(format), len(file.Data))
	logger.Info("export ready", slog.String("filename", file.Filename), slog.Int("bytes", len(file.Data)))
	return nil
}

// abandon marks the export failed and stops retries.
func (j *ExportJob) abandon(ctx context.Context, logger *slog.Logger, p jobs.ListExportPayload, cause error) error {
	logger.Warn("export abandoned", slog.Any("error", cause))
	if err := j.Store.Fail(ctx, p.ExportID, cause); err != nil && !errors.Is(err, ErrExportNotFound) {
		logger.Warn("mark export failed", slog.Any("error", err))
	}
	return fmt.Errorf("%w: %w", cause, asynq.SkipRetry)
}

func (j *ExportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func lastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	max, ok := asynq.GetMaxRetry(ctx)
	return !ok || retried >= max
}
