package service

import (
	"context"
	"errors"
	"time"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
)

// ErrRmaNotFound is returned when no RMA exists for the given id
var ErrRmaNotFound = errors.New("rma not found")

// ErrStatusConflict is returned when a concurrent writer changed the RMA
// status between the guard check and the write
var ErrStatusConflict = errors.New("rma status changed concurrently")

// recordAudit appends an audit entry. Append failures are logged and
// swallowed so a broken audit sink never blocks the customer flow; admin
// override uses AuditRepository.Append directly because its audit entry is
// mandatory.
func recordAudit(ctx context.Context, repo port.AuditRepository, logger Logger, rmaID, eventType, actorType string, payload map[string]any) {
	entry := &entity.AuditLogEntry{
		RmaID:     rmaID,
		EventType: eventType,
		ActorType: actorType,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	if err := repo.Append(ctx, entry); err != nil {
		logger.Error("Failed to append audit entry", "error", err, "rma_id", rmaID, "event_type", eventType)
	}
}
