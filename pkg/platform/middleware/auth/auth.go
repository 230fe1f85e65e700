package auth

import (
	"context"
	"log/slog"
	"net/http"

	"docstamp/internal/auth/models"
	request "docstamp/pkg/platform/middleware/request"
	"docstamp/pkg/requestcontext"
)

// SessionResolver maps a session ID to the caller's identity.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (models.Identity, error)
}

// SessionReader extracts a verified session ID from the request, or "".
type SessionReader interface {
	Read(r *http.Request) string
}

// GetIdentity retrieves the identity resolved for this request.
func GetIdentity(ctx context.Context) models.Identity {
	return models.Identity{
		Actor:     requestcontext.Actor(ctx),
		SessionID: requestcontext.SessionID(ctx),
	}
}

// WithIdentity injects an identity into a context.
// Useful for handler tests that don't run the full middleware chain.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	ctx = requestcontext.WithActor(ctx, identity.Actor)
	return requestcontext.WithSessionID(ctx, identity.SessionID)
}

// ResolveSession attaches the caller's identity to the request context.
// Callers without a usable session continue as anonymous.
func ResolveSession(resolver SessionResolver, reader SessionReader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var identity models.Identity
			if sid := reader.Read(r); sid != "" {
				resolved, err := resolver.Resolve(ctx, sid)
				if err != nil {
					logger.ErrorContext(ctx, "session lookup failed",
						"error", err,
						"request_id", request.GetRequestID(ctx),
					)
				} else {
					identity = resolved
				}
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}
