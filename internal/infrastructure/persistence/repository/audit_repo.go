package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
)

// AuditRepository implements port.AuditRepository. The table is append-only;
// there are no update or delete statements here on purpose.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts one audit entry
func (r *AuditRepository) Append(ctx context.Context, entry *entity.AuditLogEntry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode audit payload: %w", err)
	}

	query := `
		INSERT INTO audit_log (rma_id, event_type, actor_type, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.RmaID,
		entry.EventType,
		entry.ActorType,
		string(payload),
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append audit entry",
			zap.String("rma_id", entry.RmaID),
			zap.String("event_type", entry.EventType),
			zap.Error(err))
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.AuditID = id
	return nil
}

// ListByRma retrieves the event history for an RMA in insertion order
func (r *AuditRepository) ListByRma(ctx context.Context, rmaID string) ([]*entity.AuditLogEntry, error) {
	query := `
		SELECT audit_id, rma_id, event_type, actor_type, payload, created_at
		FROM audit_log
		WHERE rma_id = ?
		ORDER BY audit_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, rmaID)
	if err != nil {
		r.logger.Error("Failed to list audit entries", zap.String("rma_id", rmaID), zap.Error(err))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.AuditLogEntry
	for rows.Next() {
		var entry entity.AuditLogEntry
		var payload sql.NullString

		err := rows.Scan(
			&entry.AuditID,
			&entry.RmaID,
			&entry.EventType,
			&entry.ActorType,
			&payload,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		if payload.Valid && payload.String != "" {
			if err := json.Unmarshal([]byte(payload.String), &entry.Payload); err != nil {
				return nil, fmt.Errorf("failed to decode audit payload: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// Verify interface compliance
var _ port.AuditRepository = (*AuditRepository)(nil)
