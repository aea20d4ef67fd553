package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

// ErrOverrideReasonRequired is returned when an override omits the reason
var ErrOverrideReasonRequired = errors.New("override reason required")

// ErrAgentRequired is returned when an admin action omits the agent id
var ErrAgentRequired = errors.New("agent id required")

// ErrInvalidTargetStatus is returned when an override names a status outside
// the closed status set.
var ErrInvalidTargetStatus = errors.New("unknown status")

// RmaDetail is the full admin view of one RMA
type RmaDetail struct {
	Rma             *entity.RmaRequest          `json:"rma"`
	Troubleshooting *entity.TroubleshootingData `json:"troubleshooting,omitempty"`
	Label           *entity.RmaLabel            `json:"label,omitempty"`
	Audit           []*entity.AuditLogEntry     `json:"audit"`
}

// AdminService backs the agent console
type AdminService interface {
	Queue(ctx context.Context, filter port.QueueFilter) ([]*entity.RmaQueueItem, error)
	Detail(ctx context.Context, rmaID string) (*RmaDetail, error)
	Override(ctx context.Context, rmaID, agentID string, to status.Status, reason string) (*entity.RmaRequest, error)
	Feedback(ctx context.Context, rmaID, agentID, comment string) error
	UpsertPlaybook(ctx context.Context, skuGroupName string, steps []entity.PlaybookStep) (int, error)
	ExportQueue(ctx context.Context, filter port.QueueFilter) ([]byte, error)
}

type adminServiceImpl struct {
	rmaRepo      port.RmaRepository
	tsRepo       port.TroubleshootingRepository
	labelRepo    port.LabelRepository
	playbookRepo port.PlaybookRepository
	auditRepo    port.AuditRepository
	ticketing    port.TicketingClient
	logger       Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(
	rmaRepo port.RmaRepository,
	tsRepo port.TroubleshootingRepository,
	labelRepo port.LabelRepository,
	playbookRepo port.PlaybookRepository,
	auditRepo port.AuditRepository,
	ticketing port.TicketingClient,
	logger Logger,
) AdminService {
	return &adminServiceImpl{
		rmaRepo:      rmaRepo,
		tsRepo:       tsRepo,
		labelRepo:    labelRepo,
		playbookRepo: playbookRepo,
		auditRepo:    auditRepo,
		ticketing:    ticketing,
		logger:       logger,
	}
}

// Queue lists RMAs matching the filter for agent review
func (s *adminServiceImpl) Queue(ctx context.Context, filter port.QueueFilter) ([]*entity.RmaQueueItem, error) {
	items, err := s.rmaRepo.ListQueue(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return items, nil
}

// Detail assembles the RMA, its troubleshooting record, shipping record, and
// audit history
func (s *adminServiceImpl) Detail(ctx context.Context, rmaID string) (*RmaDetail, error) {
	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return nil, ErrRmaNotFound
	}

	ts, err := s.tsRepo.Get(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get troubleshooting data: %w", err)
	}
	label, err := s.labelRepo.Get(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get label: %w", err)
	}
	audit, err := s.auditRepo.ListByRma(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}

	return &RmaDetail{Rma: rma, Troubleshooting: ts, Label: label, Audit: audit}, nil
}

// Override moves the RMA to any valid status, bypassing the transition
// table. The audit entry is mandatory; if it cannot be written the override
// fails.
func (s *adminServiceImpl) Override(ctx context.Context, rmaID, agentID string, to status.Status, reason string) (*entity.RmaRequest, error) {
	if agentID == "" {
		return nil, ErrAgentRequired
	}
	if reason == "" {
		return nil, ErrOverrideReasonRequired
	}
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTargetStatus, to)
	}

	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return nil, ErrRmaNotFound
	}

	previous := rma.Status
	if err := s.rmaRepo.OverrideStatus(ctx, rmaID, to); err != nil {
		return nil, fmt.Errorf("override status: %w", err)
	}

	entry := &entity.AuditLogEntry{
		RmaID:     rmaID,
		EventType: entity.EventAdminOverride,
		ActorType: entity.ActorAgent,
		Payload: map[string]any{
			"agent_id":        agentID,
			"previous_status": string(previous),
			"new_status":      string(to),
			"reason":          reason,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.logger.Error("Override audit append failed", "error", err, "rma_id", rmaID, "agent_id", agentID)
		return nil, fmt.Errorf("audit override: %w", err)
	}

	if s.ticketing != nil && rma.TicketID != "" {
		note := fmt.Sprintf("Agent override: %s -> %s (%s)", previous, to, reason)
		if terr := s.ticketing.AddNote(ctx, rma.TicketID, note); terr != nil {
			s.logger.Error("Ticket note failed", "error", terr, "rma_id", rmaID)
		}
	}

	rma.Status = to
	s.logger.Info("Admin override applied",
		"rma_id", rmaID,
		"agent_id", agentID,
		"previous_status", string(previous),
		"new_status", string(to),
	)
	return rma, nil
}

// Feedback records an agent's note about rule or playbook quality
func (s *adminServiceImpl) Feedback(ctx context.Context, rmaID, agentID, comment string) error {
	if agentID == "" {
		return ErrAgentRequired
	}
	if comment == "" {
		return errors.New("feedback comment required")
	}

	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return ErrRmaNotFound
	}

	recordAudit(ctx, s.auditRepo, s.logger, rmaID, entity.EventAdminFeedback, entity.ActorAgent, map[string]any{
		"agent_id": agentID,
		"comment":  comment,
	})
	return nil
}

// UpsertPlaybook validates the steps and appends a new playbook version for
// the SKU group. Existing versions stay untouched; in-flight sessions keep
// the version they started with.
func (s *adminServiceImpl) UpsertPlaybook(ctx context.Context, skuGroupName string, steps []entity.PlaybookStep) (int, error) {
	if skuGroupName == "" {
		return 0, errors.New("sku group name required")
	}
	draft := &entity.Playbook{SKUGroupName: skuGroupName, Steps: steps}
	if err := draft.Validate(); err != nil {
		return 0, fmt.Errorf("validate playbook: %w", err)
	}

	version, err := s.playbookRepo.AppendVersion(ctx, skuGroupName, steps)
	if err != nil {
		return 0, fmt.Errorf("append playbook version: %w", err)
	}

	s.logger.Info("Playbook version published", "sku_group", skuGroupName, "version", version, "steps", len(steps))
	return version, nil
}

// ExportQueue renders the filtered queue as an xlsx workbook
func (s *adminServiceImpl) ExportQueue(ctx context.Context, filter port.QueueFilter) ([]byte, error) {
	items, err := s.rmaRepo.ListQueue(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"RMA ID", "Brand", "Order ID", "SKU", "Status", "Warranty", "International", "Created"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for row, item := range items {
		values := []interface{}{
			item.RmaID,
			item.Brand,
			item.OrderID,
			item.SKU,
			string(item.Status),
			item.WarrantyEligible,
			item.IsInternational,
			item.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row+1, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("Queue exported", "rows", len(items))
	return buf.Bytes(), nil
}
