package event

import (
	"context"

	"github.com/disciplinario/backend/internal/domain/disciplinary"
	"github.com/disciplinario/backend/internal/domain/shared"
	"github.com/disciplinario/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditLogHandler writes one structured log line per domain event. It
// subscribes to every event type.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an audit log handler
func NewAuditLogHandler(l *zap.Logger) *AuditLogHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &AuditLogHandler{logger: l.Named("audit")}
}

// EventTypes returns nil so the handler receives all events
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event with its request-scoped fields
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}
	fields = append(fields, detailFields(event)...)

	logger.Enrich(ctx, h.logger).Info("domain event", fields...)
	return nil
}

func detailFields(event shared.DomainEvent) []zap.Field {
	switch e := event.(type) {
	case *disciplinary.RequestSubmittedEvent:
		return []zap.Field{zap.String("area", e.Area), zap.String("created_by", e.CreatedBy)}
	case *disciplinary.AttachmentsAddedEvent:
		return []zap.Field{zap.Int("added", e.Added), zap.Int("total", e.Total)}
	case *disciplinary.RequestReviewedEvent:
		return []zap.Field{
			zap.String("old_status", e.OldStatus.String()),
			zap.String("decision", e.Decision.String()),
			zap.String("reviewer", e.Reviewer),
		}
	case *disciplinary.SanctionImposedEvent:
		return []zap.Field{
			zap.String("old_status", e.OldStatus.String()),
			zap.String("sanction_type", e.SanctionType),
			zap.String("imposed_by", e.ImposedBy),
		}
	case *disciplinary.RequestDeletedEvent:
		return []zap.Field{zap.Int("released_blobs", e.ReleasedBlobs)}
	}
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
