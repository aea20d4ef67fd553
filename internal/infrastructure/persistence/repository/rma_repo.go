package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

// RmaRepository implements port.RmaRepository on sqlite
type RmaRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRmaRepository creates a new RMA repository
func NewRmaRepository(db *sql.DB, logger *zap.Logger) port.RmaRepository {
	return &RmaRepository{
		db:     db,
		logger: logger,
	}
}

const rmaColumns = `
	rma_id, brand, order_id, order_item_id, sku, sku_group_name,
	is_international, warranty_eligible, warranty_end_date, warranty_reason_code,
	status, return_method, carrier_preference,
	ship_name, ship_street, ship_city, ship_state, ship_zip, ship_country,
	bench_fee_cents, accepted_bench_fee_terms, accepted_at, accepted_ip, accepted_user_agent,
	ticket_id, contact_id, deal_id, created_at, updated_at
`

// Create inserts a new RMA row
func (r *RmaRepository) Create(ctx context.Context, rma *entity.RmaRequest) error {
	query := `
		INSERT INTO rma_requests (` + rmaColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		rma.RmaID,
		rma.Brand,
		rma.OrderID,
		rma.OrderItemID,
		rma.SKU,
		rma.SKUGroupName,
		rma.IsInternational,
		rma.WarrantyEligible,
		rma.WarrantyEndDate,
		rma.WarrantyReasonCode,
		string(rma.Status),
		rma.ReturnMethod,
		rma.CarrierPreference,
		rma.ShipName,
		rma.ShipStreet,
		rma.ShipCity,
		rma.ShipState,
		rma.ShipZip,
		rma.ShipCountry,
		rma.BenchFeeCents,
		rma.AcceptedBenchFeeTerms,
		rma.AcceptedAt,
		rma.AcceptedIP,
		rma.AcceptedUserAgent,
		rma.TicketID,
		rma.ContactID,
		rma.DealID,
		rma.CreatedAt,
		rma.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create rma", zap.String("rma_id", rma.RmaID), zap.Error(err))
		return fmt.Errorf("failed to create rma: %w", err)
	}

	return nil
}

// GetByID retrieves an RMA by its id
func (r *RmaRepository) GetByID(ctx context.Context, rmaID string) (*entity.RmaRequest, error) {
	query := `SELECT ` + rmaColumns + ` FROM rma_requests WHERE rma_id = ?`

	rma, err := scanRma(r.db.QueryRowContext(ctx, query, rmaID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get rma", zap.String("rma_id", rmaID), zap.Error(err))
		return nil, fmt.Errorf("failed to get rma: %w", err)
	}

	return rma, nil
}

// CompareAndSwapStatus updates the status only when the stored value still
// matches from. The affected-row count tells whether this writer won.
func (r *RmaRepository) CompareAndSwapStatus(ctx context.Context, rmaID string, from, to status.Status) (bool, error) {
	query := `UPDATE rma_requests SET status = ?, updated_at = ? WHERE rma_id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, string(to), time.Now().UTC(), rmaID, string(from))
	if err != nil {
		r.logger.Error("Failed to swap status",
			zap.String("rma_id", rmaID),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err))
		return false, fmt.Errorf("failed to swap status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected == 1, nil
}

// OverrideStatus writes the status without checking the current value
func (r *RmaRepository) OverrideStatus(ctx context.Context, rmaID string, to status.Status) error {
	query := `UPDATE rma_requests SET status = ?, updated_at = ? WHERE rma_id = ?`

	result, err := r.db.ExecContext(ctx, query, string(to), time.Now().UTC(), rmaID)
	if err != nil {
		r.logger.Error("Failed to override status", zap.String("rma_id", rmaID), zap.Error(err))
		return fmt.Errorf("failed to override status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rma %s not found", rmaID)
	}

	return nil
}

// RecordTermsAcceptance stores the acceptance flag and client fingerprint
func (r *RmaRepository) RecordTermsAcceptance(ctx context.Context, rmaID, ip, userAgent string, at time.Time) error {
	query := `
		UPDATE rma_requests
		SET accepted_bench_fee_terms = 1, accepted_at = ?, accepted_ip = ?, accepted_user_agent = ?, updated_at = ?
		WHERE rma_id = ?
	`

	_, err := r.db.ExecContext(ctx, query, at, ip, userAgent, time.Now().UTC(), rmaID)
	if err != nil {
		r.logger.Error("Failed to record terms acceptance", zap.String("rma_id", rmaID), zap.Error(err))
		return fmt.Errorf("failed to record terms acceptance: %w", err)
	}

	return nil
}

// UpdateTicketRefs stores CRM references on the RMA row
func (r *RmaRepository) UpdateTicketRefs(ctx context.Context, rmaID, ticketID, contactID, dealID string) error {
	query := `UPDATE rma_requests SET ticket_id = ?, contact_id = ?, deal_id = ?, updated_at = ? WHERE rma_id = ?`

	_, err := r.db.ExecContext(ctx, query, ticketID, contactID, dealID, time.Now().UTC(), rmaID)
	if err != nil {
		r.logger.Error("Failed to update ticket refs", zap.String("rma_id", rmaID), zap.Error(err))
		return fmt.Errorf("failed to update ticket refs: %w", err)
	}

	return nil
}

// CountOtherOpenSince counts non-terminal sibling RMAs for the same order
// item created at or after the cutoff
func (r *RmaRepository) CountOtherOpenSince(ctx context.Context, excludeRmaID, orderID, orderItemID string, cutoff time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM rma_requests
		WHERE rma_id != ?
			AND order_id = ?
			AND order_item_id = ?
			AND created_at >= ?
			AND status NOT IN (?, ?)
	`

	var count int
	err := r.db.QueryRowContext(ctx, query,
		excludeRmaID, orderID, orderItemID, cutoff,
		string(status.StatusDenied), string(status.StatusClosedFixed),
	).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count repeat rmas", zap.String("order_item_id", orderItemID), zap.Error(err))
		return 0, fmt.Errorf("failed to count repeat rmas: %w", err)
	}

	return count, nil
}

// ListQueue returns the review queue projection matching the filter
func (r *RmaRepository) ListQueue(ctx context.Context, filter port.QueueFilter) ([]*entity.RmaQueueItem, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Days > 0 {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, time.Now().UTC().AddDate(0, 0, -filter.Days))
	}
	if filter.IsInternational != nil {
		conditions = append(conditions, "is_international = ?")
		args = append(args, *filter.IsInternational)
	}
	if filter.OutOfWarranty != nil {
		conditions = append(conditions, "warranty_eligible = ?")
		args = append(args, !*filter.OutOfWarranty)
	}

	query := `
		SELECT rma_id, brand, order_id, order_item_id, sku, status,
			warranty_eligible, is_international, created_at
		FROM rma_requests
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list queue", zap.Error(err))
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}
	defer rows.Close()

	var items []*entity.RmaQueueItem
	for rows.Next() {
		var item entity.RmaQueueItem
		var st string

		err := rows.Scan(
			&item.RmaID,
			&item.Brand,
			&item.OrderID,
			&item.OrderItemID,
			&item.SKU,
			&st,
			&item.WarrantyEligible,
			&item.IsInternational,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue item: %w", err)
		}

		item.Status = status.Status(st)
		items = append(items, &item)
	}

	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRma(row rowScanner) (*entity.RmaRequest, error) {
	var rma entity.RmaRequest
	var st string
	var warrantyEnd, acceptedAt sql.NullTime

	err := row.Scan(
		&rma.RmaID,
		&rma.Brand,
		&rma.OrderID,
		&rma.OrderItemID,
		&rma.SKU,
		&rma.SKUGroupName,
		&rma.IsInternational,
		&rma.WarrantyEligible,
		&warrantyEnd,
		&rma.WarrantyReasonCode,
		&st,
		&rma.ReturnMethod,
		&rma.CarrierPreference,
		&rma.ShipName,
		&rma.ShipStreet,
		&rma.ShipCity,
		&rma.ShipState,
		&rma.ShipZip,
		&rma.ShipCountry,
		&rma.BenchFeeCents,
		&rma.AcceptedBenchFeeTerms,
		&acceptedAt,
		&rma.AcceptedIP,
		&rma.AcceptedUserAgent,
		&rma.TicketID,
		&rma.ContactID,
		&rma.DealID,
		&rma.CreatedAt,
		&rma.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rma.Status = status.Status(st)
	if warrantyEnd.Valid {
		rma.WarrantyEndDate = &warrantyEnd.Time
	}
	if acceptedAt.Valid {
		rma.AcceptedAt = &acceptedAt.Time
	}

	return &rma, nil
}

// Verify interface compliance
var _ port.RmaRepository = (*RmaRepository)(nil)
