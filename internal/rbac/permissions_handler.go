package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/backoffice/internal/platform/httpx"
	"github.com/odyssey-erp/backoffice/internal/shared"
)

// PermissionsHandler reports the signed-in principal and its grants.
type PermissionsHandler struct {
	policy *Policy
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(policy *Policy) *PermissionsHandler {
	return &PermissionsHandler{policy: policy}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.me)
}

func (h *PermissionsHandler) me(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || !sess.Authenticated() {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.ErrUnauthenticated.Error())
		return
	}
	profile := sess.Profile()
	perms := h.policy.EffectivePermissions(profile.Role)
	if perms == nil {
		perms = []string{}
	}
	httpx.JSON(w, http.StatusOK, Principal{
		UserID:      profile.ID,
		Name:        profile.Name,
		Email:       profile.Email,
		Role:        profile.Role,
		Permissions: perms,
	})
}
