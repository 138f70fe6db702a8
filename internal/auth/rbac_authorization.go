package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/helpdesk/internal"
	"github.com/frahmantamala/helpdesk/internal/transport"
	"github.com/frahmantamala/helpdesk/internal/transport/metrics"
)

// RBACAuthorization is the HTTP form of RequireRole. It must be mounted after
// Handler.AuthMiddleware.
type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: transport.NewBaseHandler(logger)}
}

// Require admits requests whose identity has a role in allowed. A request with
// no resolved identity is rejected as unauthenticated, not forbidden.
func (ra *RBACAuthorization) Require(allowed RoleSet) func(http.Handler) http.Handler {
	gate := allowed.String()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := internal.IdentityFromContext(r.Context())
			if !ok {
				ra.Logger.WarnContext(r.Context(), "authorization check failed: identity not found in context")
				ra.WriteAppError(w, internal.ErrMissingToken)
				return
			}

			if _, err := RequireRole(identity, allowed); err != nil {
				metrics.AccessDenied.WithLabelValues(gate).Inc()
				ra.Logger.WarnContext(r.Context(), "access denied: role not allowed",
					"user_id", identity.ID,
					"role", identity.Role,
					"allowed", gate)
				ra.HandleServiceError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.Require(AdminOnly)
}

func (ra *RBACAuthorization) RequireStaff() func(http.Handler) http.Handler {
	return ra.Require(StaffRoles)
}

func (ra *RBACAuthorization) RequireAny() func(http.Handler) http.Handler {
	return ra.Require(AnyRole)
}
