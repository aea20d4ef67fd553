package port

import (
	"context"
	"time"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

// RmaRepository defines persistence operations for RmaRequest.
// Lookup methods return (nil, nil) when the row does not exist.
type RmaRepository interface {
	Create(ctx context.Context, rma *entity.RmaRequest) error
	GetByID(ctx context.Context, rmaID string) (*entity.RmaRequest, error)

	// CompareAndSwapStatus writes the new status only if the stored status
	// still equals from. Returns false when another writer got there first.
	CompareAndSwapStatus(ctx context.Context, rmaID string, from, to status.Status) (bool, error)

	// OverrideStatus writes the status unconditionally (admin path)
	OverrideStatus(ctx context.Context, rmaID string, to status.Status) error

	RecordTermsAcceptance(ctx context.Context, rmaID, ip, userAgent string, at time.Time) error
	UpdateTicketRefs(ctx context.Context, rmaID, ticketID, contactID, dealID string) error

	// CountOtherOpenSince counts RMAs other than excludeRmaID for the same
	// order item created at or after cutoff whose status is not DENIED or
	// CLOSED_FIXED.
	CountOtherOpenSince(ctx context.Context, excludeRmaID, orderID, orderItemID string, cutoff time.Time) (int, error)

	ListQueue(ctx context.Context, filter QueueFilter) ([]*entity.RmaQueueItem, error)
}

// QueueFilter narrows the admin review queue
type QueueFilter struct {
	Status          status.Status
	Days            int
	IsInternational *bool
	OutOfWarranty   *bool
}

// TroubleshootingRepository persists the per-RMA troubleshooting record.
// Get returns (nil, nil) when no record exists yet.
type TroubleshootingRepository interface {
	Get(ctx context.Context, rmaID string) (*entity.TroubleshootingData, error)

	// Save upserts the whole record keyed by RmaID
	Save(ctx context.Context, data *entity.TroubleshootingData) error
}

// PlaybookRepository defines persistence operations for versioned playbooks
type PlaybookRepository interface {
	// GetActive returns the highest version for the SKU group, or (nil, nil)
	// when the group has no playbook
	GetActive(ctx context.Context, skuGroupName string) (*entity.Playbook, error)

	// AppendVersion stores steps as a new version (max existing + 1) and
	// returns the version number. Prior versions are never mutated.
	AppendVersion(ctx context.Context, skuGroupName string, steps []entity.PlaybookStep) (int, error)
}

// LabelRepository persists the at-most-one-per-RMA shipping record
type LabelRepository interface {
	Get(ctx context.Context, rmaID string) (*entity.RmaLabel, error)
	Upsert(ctx context.Context, label *entity.RmaLabel) error
}

// AuditRepository is the append-only event log. Entries are never updated
// or deleted.
type AuditRepository interface {
	Append(ctx context.Context, entry *entity.AuditLogEntry) error
	ListByRma(ctx context.Context, rmaID string) ([]*entity.AuditLogEntry, error)
}
