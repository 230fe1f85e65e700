// Package gate decides who the caller is and what they may do.
//
// A caller starts anonymous, becomes authenticated after a successful login,
// and is an admin while their directory record says so. Logout, session
// expiry, or removal from the directory returns them to anonymous.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"docstamp/internal/auth/device"
	"docstamp/internal/auth/models"
	"docstamp/internal/platform/config"
	"docstamp/internal/platform/metrics"
	dErrors "docstamp/pkg/domain-errors"
	"docstamp/pkg/platform/audit"
	"docstamp/pkg/platform/sentinel"
	"docstamp/pkg/requestcontext"
)

type Directory interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	VerifyPassword(user *models.User, plaintext string) bool
}

type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByActor(ctx context.Context, actor string) (int, error)
}

const (
	loginSuccess = "success"
	loginFailure = "failure"
)

const invalidCredentials = "invalid username or password"

type Gate struct {
	directory Directory
	sessions  SessionStore
	cfg       config.Auth
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Gate)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

func New(directory Directory, sessions SessionStore, cfg config.Auth, opts ...Option) *Gate {
	g := &Gate{directory: directory, sessions: sessions, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate checks credentials and opens a session. Unknown users and wrong
// passwords fail with the same CodeInvalidCredentials error.
func (g *Gate) Authenticate(ctx context.Context, username, password string) (*models.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		g.recordLogin(ctx, username, loginFailure)
		return nil, dErrors.New(dErrors.CodeInvalidCredentials, invalidCredentials)
	}

	user, err := g.directory.FindByUsername(ctx, username)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			g.recordLogin(ctx, username, loginFailure)
			return nil, dErrors.New(dErrors.CodeInvalidCredentials, invalidCredentials)
		}
		return nil, err
	}
	if !g.directory.VerifyPassword(user, password) {
		g.recordLogin(ctx, username, loginFailure)
		return nil, dErrors.New(dErrors.CodeInvalidCredentials, invalidCredentials)
	}

	now := requestcontext.Now(ctx)
	sess := &models.Session{
		ID:        uuid.NewString(),
		Actor:     user.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(g.cfg.SessionTTL),
	}
	if err := g.sessions.Create(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageFailure, "failed to create session")
	}
	g.recordLogin(ctx, user.Username, loginSuccess)
	return sess, nil
}

// Resolve maps a session ID to the caller's identity. Unknown, expired, and
// orphaned sessions resolve to the anonymous identity.
func (g *Gate) Resolve(ctx context.Context, sessionID string) (models.Identity, error) {
	if sessionID == "" {
		return models.Identity{}, nil
	}
	sess, err := g.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return models.Identity{}, nil
		}
		return models.Identity{}, dErrors.Wrap(err, dErrors.CodeStorageFailure, "failed to load session")
	}

	if _, err := g.directory.FindByUsername(ctx, sess.Actor); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			if err := g.sessions.Delete(ctx, sess.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				g.logger.WarnContext(ctx, "failed to delete session of removed user",
					"actor", sess.Actor,
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
			}
			return models.Identity{}, nil
		}
		return models.Identity{}, err
	}
	return models.Identity{Actor: sess.Actor, SessionID: sess.ID}, nil
}

// Authorize reports whether identity holds capability.
func (g *Gate) Authorize(ctx context.Context, identity models.Identity, capability models.Capability) (bool, error) {
	switch capability {
	case models.CapabilityGenerate:
		if g.cfg.GenerationMode == config.GenerationOpen {
			return true, nil
		}
		return !identity.IsAnonymous(), nil
	case models.CapabilityAdminister:
		if identity.IsAnonymous() {
			return false, nil
		}
		user, err := g.directory.FindByUsername(ctx, identity.Actor)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				return false, nil
			}
			return false, err
		}
		return user.IsAdmin, nil
	default:
		return false, dErrors.New(dErrors.CodeInternal, "unknown capability")
	}
}

// Logout ends the session immediately. Unknown sessions are not an error.
func (g *Gate) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := g.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeStorageFailure, "failed to delete session")
	}
	g.logger.InfoContext(ctx, string(audit.EventLogout), append(audit.EventLogout.Attrs(),
		"actor", requestcontext.Actor(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)...)
	return nil
}

// RevokeActor ends every session held by actor.
func (g *Gate) RevokeActor(ctx context.Context, actor string) (int, error) {
	n, err := g.sessions.DeleteByActor(ctx, actor)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeStorageFailure, "failed to revoke sessions")
	}
	return n, nil
}

// Actor returns the name recorded in the generation log for identity.
func (g *Gate) Actor(identity models.Identity) string {
	if identity.IsAnonymous() && g.cfg.GenerationMode == config.GenerationOpen {
		return g.cfg.AnonymousActor
	}
	return identity.Actor
}

func (g *Gate) recordLogin(ctx context.Context, username, outcome string) {
	if g.metrics != nil {
		g.metrics.IncrementLogin(outcome)
	}
	level, event := slog.LevelInfo, audit.EventLoginSucceeded
	if outcome == loginFailure {
		level, event = slog.LevelWarn, audit.EventAuthFailed
	}
	ua := requestcontext.UserAgent(ctx)
	g.logger.Log(ctx, level, string(event), append(event.Attrs(),
		"username", username,
		"client_ip", requestcontext.ClientIP(ctx),
		"device", device.ParseUserAgent(ua),
		"bot", device.IsBot(ua),
		"request_id", requestcontext.RequestID(ctx),
	)...)
}
