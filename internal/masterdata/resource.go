package masterdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/backoffice/internal/apiclient"
	"github.com/odyssey-erp/backoffice/internal/export"
	"github.com/odyssey-erp/backoffice/internal/listctl"
	mdshared "github.com/odyssey-erp/backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/backoffice/internal/platform/httpx"
	"github.com/odyssey-erp/backoffice/internal/rbac"
	"github.com/odyssey-erp/backoffice/internal/shared"
)

type createForm[E any] interface {
	Entity() E
}

type patchForm[P any] interface {
	Normalise() P
}

// resource serves one entity. C and P are the add and edit dialog forms.
type resource[E any, C createForm[E], P patchForm[P]] struct {
	deps Deps
	cfg  listctl.Config[E]
}

func newResource[E any, C createForm[E], P patchForm[P]](d Deps, cfg listctl.Config[E]) *resource[E, C, P] {
	cfg.Strategy = d.Strategy
	cfg.Now = d.Now
	return &resource[E, C, P]{deps: d, cfg: cfg}
}

type (
	filterForm struct {
		Value string `json:"value" validate:"max=200"`
	}
	sortForm struct {
		Column string `json:"column" validate:"required"`
	}
	pageForm struct {
		Page int `json:"page"`
	}
	pageSizeForm struct {
		PageSize int `json:"page_size" validate:"required,gt=0"`
	}
	columnForm struct {
		Column  string `json:"column" validate:"required"`
		Visible *bool  `json:"visible" validate:"required"`
	}
)

type mutation[E any] struct {
	Item *E             `json:"item,omitempty"`
	View listctl.View[E] `json:"view"`
}

// reply writes the response once the list state has been stored.
type reply func(w http.ResponseWriter)

type operation[E any] func(ctx context.Context, ctl *listctl.Controller[E]) (reply, error)

func (m *resource[E, C, P]) Name() string {
	return m.cfg.Entity
}

func (m *resource[E, C, P]) stateKey() string {
	return "list:" + m.cfg.Entity
}

// Mount registers the entity routes.
func (m *resource[E, C, P]) Mount(r chi.Router) {
	view := rbac.Permission(m.cfg.Entity, rbac.ActionView)
	edit := rbac.Permission(m.cfg.Entity, rbac.ActionEdit)
	exp := rbac.Permission(m.cfg.Entity, rbac.ActionExport)

	r.Group(func(r chi.Router) {
		r.Use(m.deps.RBAC.RequireAny(view))
		r.Get("/", m.list)
		r.Put("/filter", m.setFilter)
		r.Post("/sort", m.sort)
		r.Put("/page", m.setPage)
		r.Put("/page-size", m.setPageSize)
		r.Put("/columns", m.setColumn)
		r.Delete("/dialogs/{kind}", m.closeDialog)
	})
	r.Group(func(r chi.Router) {
		r.Use(m.deps.RBAC.RequireAll(edit))
		r.Post("/dialogs/add", m.openAdd)
		r.Post("/dialogs/edit/{id}", m.openEdit)
		r.Post("/dialogs/delete/{id}", m.openDelete)
		r.Post("/", m.add)
		r.Patch("/selected", m.edit)
		r.Delete("/selected", m.remove)
	})
	r.Group(func(r chi.Router) {
		r.Use(m.deps.RBAC.RequireAll(exp))
		if m.deps.ExportLimit != nil {
			r.Use(m.deps.ExportLimit)
		}
		r.Get("/export.csv", m.download(export.FormatCSV))
		r.Get("/export.xlsx", m.download(export.FormatXLSX))
		r.Post("/exports", m.enqueueExport)
	})
}

func (m *resource[E, C, P]) list(w http.ResponseWriter, r *http.Request) {
	m.serve(w, r, m.viewAfter(func(*listctl.Controller[E]) error { return nil }))
}

func (m *resource[E, C, P]) setFilter(w http.ResponseWriter, r *http.Request) {
	var form filterForm
	if err := decode(r, &form); err != nil {
		m.fail(w, r, err)
		return
	}
	m.serve(w, r, m.viewAfter(func(ctl *listctl.Controller[E]) error {
		ctl.SetFilter(form.Value)
		return nil
	}))
}

func (m *resource[E, C, P]) sort(w http.ResponseWriter, r *http.Request) {
	var form sortForm
	if err := decode(r, &form); err != nil {
		m.fail(w, r, err)
		return
	}
	m.serve(w, r, m.viewAfter(func(ctl *listctl.Controller[E]) error {
		return ctl.Sort(form.Column)
	}))
}

func (m *resource[E, C, P]) setPage(w http.ResponseWriter, r *http.Request) {
	var form pageForm
	if err := decode(r, &form); err != nil {
		m.fail(w, r, err)
		return
	}
	m.serve(w, r, m.viewAfter(func(ctl *listctl.Controller[E]) error {
		ctl.SetPage(form.Page)
		return nil
	}))
}

func (m *resource[E, C, P]) setPageSize(w http.ResponseWriter, r *http.Request) {
	var form pageSizeForm
	if err := decode(r, &form); err != nil {
		m.fail(w, r, err)
		return
	}
	m.serve(w, r, m.viewAfter(func(ctl *listctl.Controller[E]) error {
		return ctl.SetPageSize(form.PageSize)
	}))
}

func (m *resource[E, C, P]) setColumn(w http.ResponseWriter, r *http.Request) {
	var form columnForm
	if err := decode(r, &form); err != nil {
		m.fail(w, r, err)
		return
	}
	m.serve(w, r, m.viewAfter(func(ctl *listctl.Controller[E]) error {
		return ctl.SetColumnVisible(form.Column, *form.Visible)
	}))
}

func (m *resource[E, C, P]) openAdd(w http.ResponseWriter, r *http.Request) {
	m.serve(w, r, m.viewAfter(func(ctl *listctl.Controller[E]) error {
		ctl.OpenAdd()
		return nil
	}))
}

func (m *resource[E, C, P]) openEdit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m.serve(w, r, m.viewAfter(func(ctl *listctl.Controller[E]) error {
		return ctl.OpenEdit(id)
	}))
}

func (m *resource[E, C, P]) openDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m.serve(w, r, m.viewAfter(func(ctl *listctl.Controller[E]) error {
		return ctl.OpenDelete(id)
	}))
}

func (m *resource[E, C, P]) closeDialog(w http.ResponseWriter, r *http.Request) {
	kind, err := listctl.ParseDialogKind(chi.URLParam(r, "kind"))
	if err != nil {
		m.fail(w, r, &httpx.ValidationError{Fields: httpx.FieldErrors{"kind": "must be add, edit or delete"}})
		return
	}
	m.serve(w, r, m.viewAfter(func(ctl *listctl.Controller[E]) error {
		ctl.CloseDialog(kind)
		return nil
	}))
}

func (m *resource[E, C, P]) add(w http.ResponseWriter, r *http.Request) {
	var form C
	if err := decode(r, &form); err != nil {
		m.fail(w, r, err)
		return
	}
	release, err := m.claim(r)
	if err != nil {
		m.fail(w, r, err)
		return
	}
	added := false
	m.serve(w, r, func(ctx context.Context, ctl *listctl.Controller[E]) (reply, error) {
		created, err := ctl.Add(ctx, form.Entity())
		if err != nil {
			return nil, err
		}
		added = true
		return jsonReply(http.StatusCreated, mutation[E]{Item: &created, View: ctl.View()}), nil
	})
	if !added {
		release()
	}
}

func (m *resource[E, C, P]) edit(w http.ResponseWriter, r *http.Request) {
	var form P
	if err := decode(r, &form); err != nil {
		m.fail(w, r, err)
		return
	}
	patch, err := json.Marshal(form.Normalise())
	if err != nil {
		m.fail(w, r, err)
		return
	}
	if bytes.Equal(patch, []byte("{}")) {
		m.fail(w, r, &httpx.ValidationError{Fields: httpx.FieldErrors{"body": "no changes"}})
		return
	}
	m.serve(w, r, func(ctx context.Context, ctl *listctl.Controller[E]) (reply, error) {
		updated, err := ctl.Edit(ctx, patch)
		if err != nil {
			return nil, err
		}
		return jsonReply(http.StatusOK, mutation[E]{Item: &updated, View: ctl.View()}), nil
	})
}

func (m *resource[E, C, P]) remove(w http.ResponseWriter, r *http.Request) {
	m.serve(w, r, m.viewAfter(func(ctl *listctl.Controller[E]) error {
		return ctl.Remove(r.Context())
	}))
}

func (m *resource[E, C, P]) download(format export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locale := m.locale(r.Context())
		m.serve(w, r, func(_ context.Context, ctl *listctl.Controller[E]) (reply, error) {
			file, err := m.render(ctl, format, locale)
			if err != nil {
				return nil, err
			}
			return fileReply(file), nil
		})
	}
}

// Export rebuilds the list from a captured state and renders its filtered
// rows.
func (m *resource[E, C, P]) Export(ctx context.Context, sess *shared.Session, state listctl.State, format export.Format, locale language.Tag) (File, error) {
	ctl, err := m.controller(sess, locale)
	if err != nil {
		return File{}, err
	}
	defer ctl.Close()
	ctl.Restore(state)
	if err := ctl.Load(ctx); err != nil {
		return File{}, err
	}
	return m.render(ctl, format, locale)
}

// Count returns the number of rows the backend lists for the session.
func (m *resource[E, C, P]) Count(ctx context.Context, sess *shared.Session) (int, error) {
	rows, err := m.remote(sess).List(ctx)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (m *resource[E, C, P]) render(ctl *listctl.Controller[E], format export.Format, locale language.Tag) (File, error) {
	var buf bytes.Buffer
	if err := export.Write(&buf, format, m.cfg.Exported(), ctl.Filtered(), export.NewFormatter(locale)); err != nil {
		return File{}, err
	}
	return File{
		Filename:    export.Filename(m.cfg.Entity, format, m.deps.Now()),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// serve rebuilds the controller for the session, runs op and stores the
// resulting state before replying. The state is stored on failure too, so
// a failed submit keeps its dialog open with the error.
func (m *resource[E, C, P]) serve(w http.ResponseWriter, r *http.Request, op operation[E]) {
	ctx := r.Context()
	sess := shared.SessionFromContext(ctx)
	if sess == nil || !sess.Authenticated() {
		m.fail(w, r, shared.ErrUnauthenticated)
		return
	}
	ctl, err := m.controller(sess, m.locale(ctx))
	if err != nil {
		m.fail(w, r, err)
		return
	}
	stop := context.AfterFunc(ctx, ctl.Close)
	defer stop()

	if state, ok := m.loadState(sess); ok {
		ctl.Restore(state)
	}
	if err := ctl.Load(ctx); err != nil {
		m.fail(w, r, err)
		return
	}
	respond, opErr := op(ctx, ctl)
	m.saveState(sess, ctl.State())
	if opErr != nil {
		m.fail(w, r, opErr)
		return
	}
	respond(w)
}

func (m *resource[E, C, P]) viewAfter(apply func(*listctl.Controller[E]) error) operation[E] {
	return func(_ context.Context, ctl *listctl.Controller[E]) (reply, error) {
		if err := apply(ctl); err != nil {
			return nil, err
		}
		return jsonReply(http.StatusOK, ctl.View()), nil
	}
}

func (m *resource[E, C, P]) remote(sess *shared.Session) cachedRemote[E] {
	return cachedRemote[E]{
		resource: apiclient.NewResource[E](m.deps.Client, sess, "/"+m.cfg.Entity),
		cache:    m.deps.Cache,
		scope:    cacheScope(sess.Profile().ID, m.cfg.Entity),
		logger:   m.deps.Logger,
	}
}

func (m *resource[E, C, P]) controller(sess *shared.Session, locale language.Tag) (*listctl.Controller[E], error) {
	return listctl.New(m.cfg,
		listctl.WithRemote[E](m.remote(sess)),
		listctl.WithLogger[E](m.deps.Logger),
		listctl.WithLocale[E](locale),
	)
}

func (m *resource[E, C, P]) locale(ctx context.Context) language.Tag {
	return shared.LocaleFromContext(ctx, m.deps.DefaultLocale)
}

func (m *resource[E, C, P]) loadState(sess *shared.Session) (listctl.State, bool) {
	var state listctl.State
	raw := sess.Get(m.stateKey())
	if raw == "" {
		return state, false
	}
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		m.deps.Logger.Warn("discard list state", slog.String("entity", m.cfg.Entity), slog.Any("error", err))
		sess.Delete(m.stateKey())
		return listctl.State{}, false
	}
	return state, true
}

func (m *resource[E, C, P]) saveState(sess *shared.Session, state listctl.State) {
	raw, err := json.Marshal(state)
	if err != nil {
		m.deps.Logger.Error("encode list state", slog.String("entity", m.cfg.Entity), slog.Any("error", err))
		return
	}
	sess.Set(m.stateKey(), string(raw))
}

// claim reserves the Idempotency-Key of an add request. The returned
// release frees the key when the add fails.
func (m *resource[E, C, P]) claim(r *http.Request) (func(), error) {
	key := r.Header.Get(shared.IdempotencyHeader)
	sess := shared.SessionFromContext(r.Context())
	if key == "" || m.deps.Idempotency == nil || sess == nil {
		return func() {}, nil
	}
	scope := "add:" + sess.ID + ":" + m.cfg.Entity
	if _, err := m.deps.Idempotency.Claim(r.Context(), scope, key, "pending"); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return nil, fmt.Errorf("%w: %w", httpx.ErrConflict, err)
		}
		return nil, err
	}
	return func() {
		if err := m.deps.Idempotency.Release(context.WithoutCancel(r.Context()), scope, key); err != nil {
			m.deps.Logger.Warn("release idempotency key", slog.Any("error", err))
		}
	}, nil
}

func decode(r *http.Request, form any) error {
	if err := httpx.DecodeJSON(r, form); err != nil {
		return err
	}
	return mdshared.ValidateForm(form)
}

func jsonReply(status int, body any) reply {
	return func(w http.ResponseWriter) {
		httpx.JSON(w, status, body)
	}
}

func fileReply(f File) reply {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", f.ContentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Filename}))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(f.Data)
	}
}
