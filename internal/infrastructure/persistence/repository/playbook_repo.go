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

// PlaybookRepository implements port.PlaybookRepository. Versions only ever
// append; the active playbook for a group is the highest version.
type PlaybookRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPlaybookRepository creates a new playbook repository
func NewPlaybookRepository(db *sql.DB, logger *zap.Logger) port.PlaybookRepository {
	return &PlaybookRepository{
		db:     db,
		logger: logger,
	}
}

// GetActive retrieves the highest playbook version for a SKU group
func (r *PlaybookRepository) GetActive(ctx context.Context, skuGroupName string) (*entity.Playbook, error) {
	query := `
		SELECT sku_group_name, version, steps
		FROM playbooks
		WHERE sku_group_name = ?
		ORDER BY version DESC
		LIMIT 1
	`

	var pb entity.Playbook
	var steps string

	err := r.db.QueryRowContext(ctx, query, skuGroupName).Scan(&pb.SKUGroupName, &pb.Version, &steps)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get playbook", zap.String("sku_group", skuGroupName), zap.Error(err))
		return nil, fmt.Errorf("failed to get playbook: %w", err)
	}

	if err := json.Unmarshal([]byte(steps), &pb.Steps); err != nil {
		return nil, fmt.Errorf("failed to decode playbook steps: %w", err)
	}

	return &pb, nil
}

// AppendVersion inserts the steps as the next version for the group and
// returns the new version number
func (r *PlaybookRepository) AppendVersion(ctx context.Context, skuGroupName string, steps []entity.PlaybookStep) (int, error) {
	encoded, err := json.Marshal(steps)
	if err != nil {
		return 0, fmt.Errorf("failed to encode playbook steps: %w", err)
	}

	query := `
		INSERT INTO playbooks (sku_group_name, version, steps)
		SELECT ?, COALESCE(MAX(version), 0) + 1, ?
		FROM playbooks
		WHERE sku_group_name = ?
	`

	_, err = r.db.ExecContext(ctx, query, skuGroupName, string(encoded), skuGroupName)
	if err != nil {
		r.logger.Error("Failed to append playbook version", zap.String("sku_group", skuGroupName), zap.Error(err))
		return 0, fmt.Errorf("failed to append playbook version: %w", err)
	}

	var version int
	err = r.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM playbooks WHERE sku_group_name = ?`, skuGroupName,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read playbook version: %w", err)
	}

	return version, nil
}

// Verify interface compliance
var _ port.PlaybookRepository = (*PlaybookRepository)(nil)
