// Package audit emits record-lifecycle events for downstream consumers
// (sync, notification and audit pipelines). Events are fire-and-forget:
// the write path never blocks or fails on the audit channel.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Event describes one record-store mutation.
type Event struct {
	Action     string    `json:"action"` // entity_created, entity_corrected, entity_retired, cascade_retired
	ObjectType string    `json:"object_type"`
	EntityID   string    `json:"entity_id"`
	RevisionID string    `json:"revision_id,omitempty"`
	ProjectID  string    `json:"project_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers audit events.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// LogAudit logs an audit event to the structured logger and hands it to the
// publisher when one is configured. Publisher failures are logged, never
// propagated.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher Publisher, event Event) {
	if logger != nil {
		logger.InfoContext(ctx, event.Action,
			"object_type", event.ObjectType,
			"entity_id", event.EntityID,
			"revision_id", event.RevisionID,
			"log_type", "audit",
		)
	}
	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "audit emit failed", "error", err, "action", event.Action)
	}
}
