package service

import (
	"context"
	"fmt"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

// CloseService ends RMAs that troubleshooting fixed
type CloseService interface {
	CloseFixed(ctx context.Context, rmaID string) (*entity.RmaRequest, error)
}

type closeServiceImpl struct {
	rmaRepo   port.RmaRepository
	auditRepo port.AuditRepository
	ticketing port.TicketingClient
	logger    Logger
}

// NewCloseService creates a new CloseService
func NewCloseService(rmaRepo port.RmaRepository, auditRepo port.AuditRepository, ticketing port.TicketingClient, logger Logger) CloseService {
	return &closeServiceImpl{rmaRepo: rmaRepo, auditRepo: auditRepo, ticketing: ticketing, logger: logger}
}

// CloseFixed records that the customer's unit works again and closes the RMA
func (s *closeServiceImpl) CloseFixed(ctx context.Context, rmaID string) (*entity.RmaRequest, error) {
	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return nil, ErrRmaNotFound
	}
	if err := status.Assert(rma.Status, status.ActionCloseFixed); err != nil {
		return nil, err
	}

	swapped, err := s.rmaRepo.CompareAndSwapStatus(ctx, rmaID, rma.Status, status.StatusClosedFixed)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !swapped {
		return nil, ErrStatusConflict
	}

	recordAudit(ctx, s.auditRepo, s.logger, rmaID, entity.EventCustomerMarkedFixed, entity.ActorCustomer, map[string]any{
		"previous_status": string(rma.Status),
	})

	if s.ticketing != nil && rma.TicketID != "" {
		if terr := s.ticketing.AddNote(ctx, rma.TicketID, "Customer reported the issue resolved during troubleshooting"); terr != nil {
			s.logger.Error("Ticket note failed", "error", terr, "rma_id", rmaID)
		}
	}

	rma.Status = status.StatusClosedFixed
	s.logger.Info("RMA closed as fixed", "rma_id", rmaID)
	return rma, nil
}
