package masterdata

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/backoffice/internal/platform/httpx"
	"github.com/odyssey-erp/backoffice/internal/rbac"
	"github.com/odyssey-erp/backoffice/internal/shared"
)

// summaryConcurrency caps parallel backend calls per summary request.
const summaryConcurrency = 4

// SummaryHandler reports the collection size of every entity the caller
// may view.
type SummaryHandler struct {
	registry *Registry
	policy   *rbac.Policy
	logger   *slog.Logger
}

// NewSummaryHandler constructs the handler.
func NewSummaryHandler(registry *Registry, policy *rbac.Policy, logger *slog.Logger) *SummaryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryHandler{registry: registry, policy: policy, logger: logger}
}

// MountRoutes registers the summary route.
func (h *SummaryHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.summary)
}

func (h *SummaryHandler) summary(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || !sess.Authenticated() {
		respondError(w, r, h.logger, shared.ErrUnauthenticated)
		return
	}
	role := sess.Profile().Role
	var visible []Module
	for _, m := range h.registry.Modules() {
		if h.policy.Allowed(role, rbac.Permission(m.Name(), rbac.ActionView)) {
			visible = append(visible, m)
		}
	}

	counts := make([]int, len(visible))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(summaryConcurrency)
	for i, m := range visible {
		g.Go(func() error {
			n, err := m.Count(ctx, sess)
			if err != nil {
				return err
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	out := make(map[string]int, len(visible))
	for i, m := range visible {
		out[m.Name()] = counts[i]
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"counts": out})
}
