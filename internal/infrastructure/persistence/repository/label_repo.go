package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
)

// LabelRepository implements port.LabelRepository
type LabelRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLabelRepository creates a new label repository
func NewLabelRepository(db *sql.DB, logger *zap.Logger) port.LabelRepository {
	return &LabelRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves the shipping record for an RMA
func (r *LabelRepository) Get(ctx context.Context, rmaID string) (*entity.RmaLabel, error) {
	query := `
		SELECT rma_id, shipment_id, rate_id, carrier, service,
			tracking_number, billing_mode, label_file_path, label_created_at
		FROM rma_labels
		WHERE rma_id = ?
	`

	var label entity.RmaLabel
	var createdAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, rmaID).Scan(
		&label.RmaID,
		&label.ShipmentID,
		&label.RateID,
		&label.Carrier,
		&label.Service,
		&label.TrackingNumber,
		&label.BillingMode,
		&label.LabelFilePath,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get label", zap.String("rma_id", rmaID), zap.Error(err))
		return nil, fmt.Errorf("failed to get label: %w", err)
	}

	if createdAt.Valid {
		label.LabelCreatedAt = &createdAt.Time
	}

	return &label, nil
}

// Upsert writes the shipping record keyed by rma_id
func (r *LabelRepository) Upsert(ctx context.Context, label *entity.RmaLabel) error {
	query := `
		INSERT INTO rma_labels (
			rma_id, shipment_id, rate_id, carrier, service,
			tracking_number, billing_mode, label_file_path, label_created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rma_id) DO UPDATE SET
			shipment_id = excluded.shipment_id,
			rate_id = excluded.rate_id,
			carrier = excluded.carrier,
			service = excluded.service,
			tracking_number = excluded.tracking_number,
			billing_mode = excluded.billing_mode,
			label_file_path = excluded.label_file_path,
			label_created_at = excluded.label_created_at
	`

	_, err := r.db.ExecContext(ctx, query,
		label.RmaID,
		label.ShipmentID,
		label.RateID,
		label.Carrier,
		label.Service,
		label.TrackingNumber,
		label.BillingMode,
		label.LabelFilePath,
		label.LabelCreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert label", zap.String("rma_id", label.RmaID), zap.Error(err))
		return fmt.Errorf("failed to upsert label: %w", err)
	}

	return nil
}

// Verify interface compliance
var _ port.LabelRepository = (*LabelRepository)(nil)
