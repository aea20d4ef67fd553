package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

// Logger is the minimal logging interface used by services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// TokenIssuer mints session tokens scoped to a single RMA
type TokenIssuer interface {
	Issue(rmaID, brand string) (string, error)
}

// ErrOwnershipNotVerified is returned when the order lookup fails to match
// the submitted order id, SKU, and email.
var ErrOwnershipNotVerified = errors.New("ownership not verified")

// StartRmaInput is the customer's entry form
type StartRmaInput struct {
	Brand   string `json:"brand"`
	OrderID string `json:"order_id"`
	Email   string `json:"email"`
	SKU     string `json:"sku"`
}

// StartRmaResult carries the created RMA and its session token
type StartRmaResult struct {
	Rma   *entity.RmaRequest `json:"rma"`
	Token string             `json:"token"`
}

// SessionSnapshot is the resume view of an RMA session
type SessionSnapshot struct {
	Rma            *entity.RmaRequest `json:"rma"`
	AllowedActions []status.Action    `json:"allowed_actions"`
}

// SessionService starts and resumes customer RMA sessions
type SessionService interface {
	StartRma(ctx context.Context, input StartRmaInput) (*StartRmaResult, error)
	GetSession(ctx context.Context, rmaID string) (*SessionSnapshot, error)
}

type sessionServiceImpl struct {
	rmaRepo   port.RmaRepository
	auditRepo port.AuditRepository
	warehouse port.Warehouse
	ticketing port.TicketingClient
	tokens    TokenIssuer
	logger    Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(
	rmaRepo port.RmaRepository,
	auditRepo port.AuditRepository,
	warehouse port.Warehouse,
	ticketing port.TicketingClient,
	tokens TokenIssuer,
	logger Logger,
) SessionService {
	return &sessionServiceImpl{
		rmaRepo:   rmaRepo,
		auditRepo: auditRepo,
		warehouse: warehouse,
		ticketing: ticketing,
		tokens:    tokens,
		logger:    logger,
	}
}

// StartRma validates ownership against the warehouse mirror, creates the RMA
// in STARTED, and returns a session token. Ticketing failures never block the
// customer.
func (s *sessionServiceImpl) StartRma(ctx context.Context, input StartRmaInput) (*StartRmaResult, error) {
	item, err := s.warehouse.FindOrderItem(ctx, input.OrderID, input.SKU)
	if err != nil {
		s.logger.Error("Order lookup failed", "error", err, "order_id", input.OrderID)
		return nil, fmt.Errorf("find order item: %w", err)
	}
	if item == nil {
		return nil, ErrOwnershipNotVerified
	}
	if !strings.EqualFold(strings.TrimSpace(item.CustomerEmail), strings.TrimSpace(input.Email)) {
		return nil, ErrOwnershipNotVerified
	}

	warranty, err := s.warehouse.CheckWarranty(ctx, item.OrderItemID)
	if err != nil {
		s.logger.Error("Warranty check failed", "error", err, "order_item_id", item.OrderItemID)
		return nil, fmt.Errorf("check warranty: %w", err)
	}

	skuGroup, err := s.warehouse.SkuGroup(ctx, input.SKU)
	if err != nil {
		s.logger.Error("SKU group lookup failed", "error", err, "sku", input.SKU)
		return nil, fmt.Errorf("sku group: %w", err)
	}

	now := time.Now().UTC()
	rma := &entity.RmaRequest{
		RmaID:           uuid.NewString(),
		Brand:           input.Brand,
		OrderID:         input.OrderID,
		OrderItemID:     item.OrderItemID,
		SKU:             input.SKU,
		SKUGroupName:    skuGroup,
		IsInternational: !strings.EqualFold(item.ShipCountry, "US"),
		ShipName:        item.ShipName,
		ShipStreet:      item.ShipStreet,
		ShipCity:        item.ShipCity,
		ShipState:       item.ShipState,
		ShipZip:         item.ShipZip,
		ShipCountry:     item.ShipCountry,
		Status:          status.StatusStarted,
		BenchFeeCents:   entity.DefaultBenchFeeCents,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if warranty != nil {
		rma.WarrantyEligible = warranty.Eligible
		rma.WarrantyReasonCode = warranty.ReasonCode
		if warranty.EndDate != "" {
			if end, perr := time.Parse("2006-01-02", warranty.EndDate); perr == nil {
				rma.WarrantyEndDate = &end
			}
		}
	}

	if err := s.rmaRepo.Create(ctx, rma); err != nil {
		s.logger.Error("Failed to create RMA", "error", err, "order_id", input.OrderID)
		return nil, fmt.Errorf("create rma: %w", err)
	}

	recordAudit(ctx, s.auditRepo, s.logger, rma.RmaID, entity.EventRmaStarted, entity.ActorCustomer, map[string]any{
		"order_id":      input.OrderID,
		"sku":           input.SKU,
		"sku_group":     skuGroup,
		"international": rma.IsInternational,
	})
	recordAudit(ctx, s.auditRepo, s.logger, rma.RmaID, entity.EventWarrantyChecked, entity.ActorSystem, map[string]any{
		"eligible":    rma.WarrantyEligible,
		"reason_code": rma.WarrantyReasonCode,
	})

	if s.ticketing != nil {
		refs, terr := s.ticketing.EnsureTicket(ctx, rma, input.Email)
		if terr != nil {
			s.logger.Error("Ticketing sync failed", "error", terr, "rma_id", rma.RmaID)
		} else if refs != nil {
			if uerr := s.rmaRepo.UpdateTicketRefs(ctx, rma.RmaID, refs.TicketID, refs.ContactID, refs.DealID); uerr != nil {
				s.logger.Error("Failed to persist ticket refs", "error", uerr, "rma_id", rma.RmaID)
			} else {
				rma.TicketID = refs.TicketID
				rma.ContactID = refs.ContactID
				rma.DealID = refs.DealID
			}
		}
	}

	token, err := s.tokens.Issue(rma.RmaID, rma.Brand)
	if err != nil {
		s.logger.Error("Failed to issue session token", "error", err, "rma_id", rma.RmaID)
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("RMA started",
		"rma_id", rma.RmaID,
		"order_id", rma.OrderID,
		"sku_group", rma.SKUGroupName,
		"warranty_eligible", rma.WarrantyEligible,
	)

	return &StartRmaResult{Rma: rma, Token: token}, nil
}

// GetSession returns the RMA with the actions currently allowed from its
// status
func (s *sessionServiceImpl) GetSession(ctx context.Context, rmaID string) (*SessionSnapshot, error) {
	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return nil, ErrRmaNotFound
	}

	return &SessionSnapshot{
		Rma:            rma,
		AllowedActions: status.AllowedActions(rma.Status),
	}, nil
}
