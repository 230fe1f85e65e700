// Package admin implements the administrator operations over the user
// directory and the generation log.
package admin

import (
	"context"
	"log/slog"

	"docstamp/internal/audit"
	"docstamp/internal/auth/models"
	auditevents "docstamp/pkg/platform/audit"
	"docstamp/pkg/requestcontext"
)

type Directory interface {
	List(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, username, plaintext string, isAdmin bool) (*models.User, error)
	Delete(ctx context.Context, username string) error
}

type SessionRevoker interface {
	RevokeActor(ctx context.Context, actor string) (int, error)
}

type GenerationLog interface {
	ListDescendingByTime(ctx context.Context) ([]*audit.Record, error)
	Clear(ctx context.Context) error
}

type Service struct {
	directory Directory
	sessions  SessionRevoker
	logs      GenerationLog
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(directory Directory, sessions SessionRevoker, logs GenerationLog, opts ...Option) *Service {
	s := &Service{directory: directory, sessions: sessions, logs: logs, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListUsers returns every directory entry ordered by username.
func (s *Service) ListUsers(ctx context.Context) (*UsersListResponse, error) {
	users, err := s.directory.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &UsersListResponse{Users: make([]*UserInfoResponse, 0, len(users)), Total: len(users)}
	for _, u := range users {
		out.Users = append(out.Users, toUserInfo(u))
	}
	return out, nil
}

// AddUser creates a directory entry. Existing usernames fail with CodeConflict.
func (s *Service) AddUser(ctx context.Context, username, password string, isAdmin bool) (*UserInfoResponse, error) {
	u, err := s.directory.Create(ctx, username, password, isAdmin)
	if err != nil {
		s.logFailure(ctx, auditevents.EventUserCreateFailed, username, err)
		return nil, err
	}
	return toUserInfo(u), nil
}

// DeleteUser removes username and ends any sessions they hold.
func (s *Service) DeleteUser(ctx context.Context, username string) error {
	if err := s.directory.Delete(ctx, username); err != nil {
		s.logFailure(ctx, auditevents.EventUserDeleteFailed, username, err)
		return err
	}
	n, err := s.sessions.RevokeActor(ctx, username)
	if err != nil {
		s.logger.WarnContext(ctx, "session revocation failed",
			"username", username,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	}
	s.logger.InfoContext(ctx, string(auditevents.EventSessionsRevoked), append(auditevents.EventSessionsRevoked.Attrs(),
		"actor", requestcontext.Actor(ctx),
		"username", username,
		"count", n,
		"request_id", requestcontext.RequestID(ctx),
	)...)
	return nil
}

// ListLogs returns the generation log, most recent first.
func (s *Service) ListLogs(ctx context.Context) (*LogsListResponse, error) {
	records, err := s.logs.ListDescendingByTime(ctx)
	if err != nil {
		return nil, err
	}
	return &LogsListResponse{Logs: records, Total: len(records)}, nil
}

// ClearLogs irreversibly empties the generation log.
func (s *Service) ClearLogs(ctx context.Context) error {
	return s.logs.Clear(ctx)
}

func (s *Service) logFailure(ctx context.Context, event auditevents.AuditEvent, username string, err error) {
	s.logger.WarnContext(ctx, string(event), append(event.Attrs(),
		"actor", requestcontext.Actor(ctx),
		"username", username,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)...)
}
