package admin

import (
	"context"
	"log/slog"
	"net/http"

	"docstamp/internal/auth/models"
	"docstamp/pkg/platform/middleware/auth"
	request "docstamp/pkg/platform/middleware/request"
)

// Authorizer decides whether an identity holds a capability.
type Authorizer interface {
	Authorize(ctx context.Context, identity models.Identity, capability models.Capability) (bool, error)
}

// RequireCapability lets the request through only when the resolved identity
// holds capability. Anonymous callers are redirected to loginPath; signed-in
// callers without the capability get 403.
func RequireCapability(authz Authorizer, capability models.Capability, loginPath string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity := auth.GetIdentity(ctx)
			ok, err := authz.Authorize(ctx, identity, capability)
			if err != nil {
				logger.ErrorContext(ctx, "authorization check failed",
					"capability", string(capability),
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if ok {
				next.ServeHTTP(w, r)
				return
			}
			if identity.IsAnonymous() {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			logger.WarnContext(ctx, "capability denied",
				"actor", identity.Actor,
				"capability", string(capability),
				"request_id", request.GetRequestID(ctx),
			)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequireAdmin is RequireCapability for the administer capability.
func RequireAdmin(authz Authorizer, loginPath string, logger *slog.Logger) func(http.Handler) http.Handler {
	return RequireCapability(authz, models.CapabilityAdminister, loginPath, logger)
}
