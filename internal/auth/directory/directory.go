// Package directory is the user directory: credential lookup, password
// verification, and admin-role determination.
package directory

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"docstamp/internal/auth/models"
	"docstamp/internal/platform/metrics"
	dErrors "docstamp/pkg/domain-errors"
	"docstamp/pkg/platform/audit"
	"docstamp/pkg/platform/sentinel"
	"docstamp/pkg/requestcontext"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Delete(ctx context.Context, username string) error
	List(ctx context.Context) ([]*models.User, error)
}

type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) bool
}

// Directory resolves users from a store. With an operator configured, the
// operator is a read-only synthetic entry and the only admin.
type Directory struct {
	users    UserStore
	hasher   Hasher
	operator *models.User
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Directory)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Directory) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Directory) {
		d.metrics = m
	}
}

// WithOperator installs a config-backed admin credential. passwordHash is a bcrypt hash.
func WithOperator(username, passwordHash string) Option {
	return func(d *Directory) {
		d.operator = &models.User{Username: username, PasswordHash: passwordHash, IsAdmin: true}
	}
}

func New(users UserStore, hasher Hasher, opts ...Option) *Directory {
	d := &Directory{users: users, hasher: hasher, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FindByUsername returns the user or a CodeNotFound error.
func (d *Directory) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if d.isOperator(username) {
		op := *d.operator
		return &op, nil
	}
	u, err := d.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorageFailure, "failed to load user")
	}
	if d.operator != nil {
		u.IsAdmin = false
	}
	return u, nil
}

// VerifyPassword compares plaintext with the user's stored hash.
func (d *Directory) VerifyPassword(user *models.User, plaintext string) bool {
	if user == nil || plaintext == "" {
		return false
	}
	return d.hasher.Verify(user.PasswordHash, plaintext)
}

// Create adds a user. An existing username fails with CodeConflict and leaves the
// stored entry untouched.
func (d *Directory) Create(ctx context.Context, username, plaintext string, isAdmin bool) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if d.isOperator(username) {
		return nil, dErrors.New(dErrors.CodeConflict, "user already exists")
	}
	hash, err := d.hasher.Hash(plaintext)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	u := &models.User{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := d.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "user already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorageFailure, "failed to create user")
	}

	d.logAudit(ctx, audit.EventUserCreated, "username", username, "is_admin", isAdmin)
	if d.metrics != nil {
		d.metrics.IncrementUsersCreated()
	}
	return u, nil
}

// Delete removes a user. The operator entry cannot be deleted.
func (d *Directory) Delete(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if d.isOperator(username) {
		return dErrors.New(dErrors.CodeForbidden, "the operator account is managed by configuration")
	}
	if err := d.users.Delete(ctx, username); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeStorageFailure, "failed to delete user")
	}

	d.logAudit(ctx, audit.EventUserDeleted, "username", username)
	if d.metrics != nil {
		d.metrics.IncrementUsersDeleted()
	}
	return nil
}

// List returns stored users ordered by username.
func (d *Directory) List(ctx context.Context) ([]*models.User, error) {
	users, err := d.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageFailure, "failed to list users")
	}
	if d.operator != nil {
		for _, u := range users {
			u.IsAdmin = false
		}
	}
	return users, nil
}

// EnsureAdmin creates username as an admin unless it already exists.
func (d *Directory) EnsureAdmin(ctx context.Context, username, plaintext string) (bool, error) {
	_, err := d.FindByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return false, err
	}
	if _, err := d.Create(ctx, username, plaintext, true); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *Directory) isOperator(username string) bool {
	return d.operator != nil && username == d.operator.Username
}

func (d *Directory) logAudit(ctx context.Context, event audit.AuditEvent, attrs ...any) {
	args := append(event.Attrs(),
		"actor", requestcontext.Actor(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	d.logger.InfoContext(ctx, string(event), append(args, attrs...)...)
}
