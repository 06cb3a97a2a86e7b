package ports

import (
	"context"

	"github.com/proveloce/connect/internal/core/domain"
)

// NotificationRepository persists per-user notifications.
type NotificationRepository interface {
	Insert(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// Notifier accepts notifications for asynchronous delivery. Implementations
// must not block the caller; delivery failures are logged, not surfaced.
type Notifier interface {
	Notify(n domain.Notification)
}

// AuditRepository persists the append-only audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
	ListByEntity(ctx context.Context, entityKind, entityID string) ([]*domain.AuditEntry, error)
}
