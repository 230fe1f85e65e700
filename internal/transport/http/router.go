package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"docstamp/internal/admin"
	"docstamp/internal/auth/models"
	"docstamp/internal/stamp"
	adminmw "docstamp/pkg/platform/middleware/admin"
	authmw "docstamp/pkg/platform/middleware/auth"
	"docstamp/pkg/platform/middleware/metadata"
	"docstamp/pkg/platform/middleware/request"
	"docstamp/pkg/platform/middleware/requesttime"
)

const loginPath = "/login"

// Gate is the access gate used by the handlers and the session middleware.
type Gate interface {
	Authenticate(ctx context.Context, username, password string) (*models.Session, error)
	Resolve(ctx context.Context, sessionID string) (models.Identity, error)
	Authorize(ctx context.Context, identity models.Identity, capability models.Capability) (bool, error)
	Logout(ctx context.Context, sessionID string) error
	Actor(identity models.Identity) string
}

type Issuer interface {
	Issue(ctx context.Context, actor string, req stamp.Request) (*stamp.Document, error)
}

type AdminService interface {
	ListUsers(ctx context.Context) (*admin.UsersListResponse, error)
	AddUser(ctx context.Context, username, password string, isAdmin bool) (*admin.UserInfoResponse, error)
	DeleteUser(ctx context.Context, username string) error
	ListLogs(ctx context.Context) (*admin.LogsListResponse, error)
	ClearLogs(ctx context.Context) error
}

// SessionCookies carries the session ID between requests.
type SessionCookies interface {
	Set(w http.ResponseWriter, sess *models.Session) error
	Clear(w http.ResponseWriter)
	Read(r *http.Request) string
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Handler is the thin HTTP layer. It delegates to domain services without
// embedding business logic so transport concerns remain isolated.
type Handler struct {
	gate           Gate
	issuer         Issuer
	admin          AdminService
	cookies        SessionCookies
	logger         *slog.Logger
	views          *views
	checks         map[string]HealthCheck
	metricsHandler http.Handler
	readyTimeout   time.Duration
}

type Option func(*Handler)

// WithReadinessCheck adds a dependency probed by /readyz.
func WithReadinessCheck(name string, check HealthCheck) Option {
	return func(h *Handler) {
		h.checks[name] = check
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(h *Handler) {
		h.metricsHandler = handler
	}
}

func NewHandler(gate Gate, issuer Issuer, admin AdminService, cookies SessionCookies, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		gate:         gate,
		issuer:       issuer,
		admin:        admin,
		cookies:      cookies,
		logger:       logger,
		views:        mustParseViews(),
		checks:       make(map[string]HealthCheck),
		readyTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter wires all public endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(h.logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(h.logger))

	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyz)
	if h.metricsHandler != nil {
		r.Handle("/metrics", h.metricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(authmw.ResolveSession(h.gate, h.cookies, h.logger))

		r.Get("/login", h.handleLoginForm)
		r.Post("/login", h.handleLogin)
		r.Get("/logout", h.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(adminmw.RequireCapability(h.gate, models.CapabilityGenerate, loginPath, h.logger))
			r.Get("/", h.handleIndex)
			r.Post("/generate", h.handleGenerate)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminmw.RequireAdmin(h.gate, loginPath, h.logger))
			r.Get("/", h.handleAdmin)
			r.Post("/add", h.handleAddUser)
			r.Post("/delete", h.handleDeleteUser)
			r.Get("/logs", h.handleLogs)
			r.Post("/logs/clear", h.handleClearLogs)
		})
	})
	return r
}
