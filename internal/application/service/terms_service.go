package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

// TermsView is what the customer sees before accepting
type TermsView struct {
	BenchFeeCents    int64 `json:"bench_fee_cents"`
	WarrantyEligible bool  `json:"warranty_eligible"`
}

// TermsService presents and records bench fee terms acceptance
type TermsService interface {
	Terms(ctx context.Context, rmaID string) (*TermsView, error)
	Accept(ctx context.Context, rmaID, ip, userAgent string) (*entity.RmaRequest, error)
}

type termsServiceImpl struct {
	rmaRepo   port.RmaRepository
	auditRepo port.AuditRepository
	logger    Logger
}

// NewTermsService creates a new TermsService
func NewTermsService(rmaRepo port.RmaRepository, auditRepo port.AuditRepository, logger Logger) TermsService {
	return &termsServiceImpl{rmaRepo: rmaRepo, auditRepo: auditRepo, logger: logger}
}

// Terms returns the bench fee disclosure for the RMA
func (s *termsServiceImpl) Terms(ctx context.Context, rmaID string) (*TermsView, error) {
	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return nil, ErrRmaNotFound
	}

	return &TermsView{
		BenchFeeCents:    rma.BenchFeeCents,
		WarrantyEligible: rma.WarrantyEligible,
	}, nil
}

// Accept records the customer's acceptance with the client fingerprint and
// moves the RMA to AWAITING_TERMS_ACCEPTANCE so authorization can run
func (s *termsServiceImpl) Accept(ctx context.Context, rmaID, ip, userAgent string) (*entity.RmaRequest, error) {
	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return nil, ErrRmaNotFound
	}
	if err := status.Assert(rma.Status, status.ActionAcceptTerms); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.rmaRepo.RecordTermsAcceptance(ctx, rmaID, ip, userAgent, now); err != nil {
		return nil, fmt.Errorf("record terms acceptance: %w", err)
	}

	if rma.Status != status.StatusAwaitingTermsAcceptance {
		swapped, serr := s.rmaRepo.CompareAndSwapStatus(ctx, rmaID, rma.Status, status.StatusAwaitingTermsAcceptance)
		if serr != nil {
			return nil, fmt.Errorf("update status: %w", serr)
		}
		if !swapped {
			return nil, ErrStatusConflict
		}
	}

	rma.AcceptedBenchFeeTerms = true
	rma.AcceptedAt = &now
	rma.AcceptedIP = ip
	rma.AcceptedUserAgent = userAgent
	rma.Status = status.StatusAwaitingTermsAcceptance

	recordAudit(ctx, s.auditRepo, s.logger, rmaID, entity.EventTermsAccepted, entity.ActorCustomer, map[string]any{
		"bench_fee_cents": rma.BenchFeeCents,
		"ip":              ip,
		"user_agent":      userAgent,
	})

	s.logger.Info("Terms accepted", "rma_id", rmaID, "bench_fee_cents", rma.BenchFeeCents)
	return rma, nil
}
