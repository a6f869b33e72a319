// Package masterdata exposes the list controller of every back-office entity
// over HTTP. Each request rebuilds the entity's controller from the state
// stored in the caller's session, runs one operation and stores the state
// back.
package masterdata

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/backoffice/internal/apiclient"
	"github.com/odyssey-erp/backoffice/internal/export"
	"github.com/odyssey-erp/backoffice/internal/listctl"
	"github.com/odyssey-erp/backoffice/internal/masterdata/categories"
	"github.com/odyssey-erp/backoffice/internal/masterdata/employees"
	"github.com/odyssey-erp/backoffice/internal/masterdata/expenses"
	"github.com/odyssey-erp/backoffice/internal/masterdata/items"
	"github.com/odyssey-erp/backoffice/internal/masterdata/locations"
	"github.com/odyssey-erp/backoffice/internal/masterdata/orders"
	"github.com/odyssey-erp/backoffice/internal/masterdata/users"
	"github.com/odyssey-erp/backoffice/internal/platform/cache"
	"github.com/odyssey-erp/backoffice/internal/rbac"
	"github.com/odyssey-erp/backoffice/internal/shared"
	"github.com/odyssey-erp/backoffice/jobs"
)

// Module is the list surface of one entity.
type Module interface {
	Name() string
	// Mount registers the entity routes relative to /api/{entity}.
	Mount(r chi.Router)
	// Export renders the filtered rows for a captured list state.
	Export(ctx context.Context, sess *shared.Session, state listctl.State, format export.Format, locale language.Tag) (File, error)
	// Count returns the size of the collection visible to the session.
	Count(ctx context.Context, sess *shared.Session) (int, error)
}

// File is a rendered export.
type File struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// Enqueuer submits background exports.
type Enqueuer interface {
	EnqueueListExport(ctx context.Context, payload jobs.ListExportPayload) (*asynq.TaskInfo, error)
}

// Deps collects the collaborators shared by every entity module.
type Deps struct {
	Logger      *slog.Logger
	Client      *apiclient.Client
	Cache       *cache.Versioned
	RBAC        rbac.Middleware
	Exports     *ExportStore
	Jobs        Enqueuer
	Idempotency *shared.IdempotencyStore
	// ExportLimit throttles export endpoints per user. Nil disables it.
	ExportLimit   func(http.Handler) http.Handler
	DefaultLocale language.Tag
	Strategy      listctl.Strategy
	Now           func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.DefaultLocale == language.Und {
		d.DefaultLocale = language.English
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Modules builds every entity module.
func Modules(d Deps) []Module {
	d = d.withDefaults()
	return []Module{
		newResource[locations.Location, locations.CreateForm, locations.PatchForm](d, locations.Config()),
		newResource[categories.Category, categories.CreateForm, categories.PatchForm](d, categories.Config()),
		newResource[items.Item, items.CreateForm, items.PatchForm](d, items.Config()),
		newResource[employees.Employee, employees.CreateForm, employees.PatchForm](d, employees.Config()),
		newResource[users.User, users.CreateForm, users.PatchForm](d, users.Config()),
		newResource[expenses.Expense, expenses.CreateForm, expenses.PatchForm](d, expenses.Config()),
		newResource[orders.Order, orders.CreateForm, orders.PatchForm](d, orders.Config()),
	}
}

// Registry indexes modules by entity name.
type Registry struct {
	modules []Module
	byName  map[string]Module
}

// NewRegistry indexes modules.
func NewRegistry(modules []Module) *Registry {
	reg := &Registry{modules: modules, byName: make(map[string]Module, len(modules))}
	for _, m := range modules {
		reg.byName[m.Name()] = m
	}
	return reg
}

// Lookup returns the module for entity.
func (r *Registry) Lookup(entity string) (Module, bool) {
	m, ok := r.byName[entity]
	return m, ok
}

// Modules returns the modules in registration order.
func (r *Registry) Modules() []Module {
	return r.modules
}

// MountRoutes registers every entity under /{entity}.
func (r *Registry) MountRoutes(router chi.Router) {
	for _, m := range r.modules {
		router.Route("/"+m.Name(), m.Mount)
	}
}
