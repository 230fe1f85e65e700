// Package audit names the security and compliance events written to the
// structured log with log_type=audit.
package audit

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing in log pipelines.
type EventCategory string

const (
	// CategoryCompliance covers changes to who may use the system and to the
	// generation log itself.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring: failed
	// logins, revocations and denied access.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine session activity.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	// Directory events
	EventUserCreated      AuditEvent = "user_created"
	EventUserDeleted      AuditEvent = "user_deleted"
	EventUserCreateFailed AuditEvent = "user_create_failed"
	EventUserDeleteFailed AuditEvent = "user_delete_failed"

	// Session events
	EventLoginSucceeded  AuditEvent = "login_succeeded"
	EventAuthFailed      AuditEvent = "auth_failed"
	EventLogout          AuditEvent = "logout"
	EventSessionsRevoked AuditEvent = "sessions_revoked"

	// Generation log events
	EventGenerationLogCleared AuditEvent = "generation_log_cleared"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserCreated:          CategoryCompliance,
	EventUserDeleted:          CategoryCompliance,
	EventGenerationLogCleared: CategoryCompliance,

	EventAuthFailed:       CategorySecurity,
	EventSessionsRevoked:  CategorySecurity,
	EventUserCreateFailed: CategorySecurity,
	EventUserDeleteFailed: CategorySecurity,

	EventLoginSucceeded: CategoryOperations,
	EventLogout:         CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to operations.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}

// Attrs returns the slog attributes that mark a log line as this audit event.
func (e AuditEvent) Attrs() []any {
	return []any{
		"log_type", "audit",
		"event", string(e),
		"category", string(e.Category()),
	}
}
