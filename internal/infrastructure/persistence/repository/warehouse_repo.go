package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
)

// WarehouseRepository implements port.Warehouse against the locally mirrored
// warehouse tables. The mirror is read-only from the portal's point of view;
// a sync job outside this service keeps it fresh.
type WarehouseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWarehouseRepository creates a new warehouse repository
func NewWarehouseRepository(db *sql.DB, logger *zap.Logger) port.Warehouse {
	return &WarehouseRepository{
		db:     db,
		logger: logger,
	}
}

// FindOrderItem looks up an order line by order id and SKU
func (r *WarehouseRepository) FindOrderItem(ctx context.Context, orderID, sku string) (*port.OrderItem, error) {
	query := `
		SELECT order_id, order_item_id, sku, customer_email,
			ship_name, ship_street, ship_city, ship_state, ship_zip, ship_country,
			purchased_at
		FROM warehouse_order_items
		WHERE order_id = ? AND sku = ?
	`

	var item port.OrderItem
	err := r.db.QueryRowContext(ctx, query, orderID, sku).Scan(
		&item.OrderID,
		&item.OrderItemID,
		&item.SKU,
		&item.CustomerEmail,
		&item.ShipName,
		&item.ShipStreet,
		&item.ShipCity,
		&item.ShipState,
		&item.ShipZip,
		&item.ShipCountry,
		&item.PurchasedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to find order item", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("failed to find order item: %w", err)
	}

	return &item, nil
}

// CheckWarranty retrieves the warranty verdict for an order item
func (r *WarehouseRepository) CheckWarranty(ctx context.Context, orderItemID string) (*port.WarrantyStatus, error) {
	query := `
		SELECT eligible, end_date, reason_code
		FROM warehouse_warranty
		WHERE order_item_id = ?
	`

	var ws port.WarrantyStatus
	err := r.db.QueryRowContext(ctx, query, orderItemID).Scan(&ws.Eligible, &ws.EndDate, &ws.ReasonCode)
	if err == sql.ErrNoRows {
		// No warranty row means out of warranty, not an error
		return &port.WarrantyStatus{Eligible: false, ReasonCode: "NO_WARRANTY_RECORD"}, nil
	}
	if err != nil {
		r.logger.Error("Failed to check warranty", zap.String("order_item_id", orderItemID), zap.Error(err))
		return nil, fmt.Errorf("failed to check warranty: %w", err)
	}

	return &ws, nil
}

// SkuGroup resolves the playbook grouping for a SKU. SKUs without a mapping
// fall into the catch-all group.
func (r *WarehouseRepository) SkuGroup(ctx context.Context, sku string) (string, error) {
	query := `SELECT group_name FROM sku_groups WHERE sku = ?`

	var group string
	err := r.db.QueryRowContext(ctx, query, sku).Scan(&group)
	if err == sql.ErrNoRows {
		return "default", nil
	}
	if err != nil {
		r.logger.Error("Failed to resolve sku group", zap.String("sku", sku), zap.Error(err))
		return "", fmt.Errorf("failed to resolve sku group: %w", err)
	}

	return group, nil
}

// Verify interface compliance
var _ port.Warehouse = (*WarehouseRepository)(nil)
