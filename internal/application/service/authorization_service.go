package service

import (
	"context"
	"fmt"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/rules"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

// AuthorizationResult pairs the rule verdict with the status it produced
type AuthorizationResult struct {
	Decision      rules.Decision   `json:"decision"`
	ReasonCode    rules.ReasonCode `json:"reason_code"`
	ReasonMessage string           `json:"reason_message,omitempty"`
	Status        status.Status    `json:"status"`
}

// RuleEvaluator is the decision core the service applies
type RuleEvaluator interface {
	Evaluate(ctx context.Context, rma *entity.RmaRequest, ts *entity.TroubleshootingData) (*rules.Result, error)
}

// AuthorizationService runs rule evaluation and applies the verdict to the
// RMA
type AuthorizationService interface {
	Authorize(ctx context.Context, rmaID string) (*AuthorizationResult, error)
}

type authorizationServiceImpl struct {
	rmaRepo   port.RmaRepository
	tsRepo    port.TroubleshootingRepository
	auditRepo port.AuditRepository
	engine    RuleEvaluator
	notifier  port.ReviewNotifier
	ticketing port.TicketingClient
	logger    Logger
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(
	rmaRepo port.RmaRepository,
	tsRepo port.TroubleshootingRepository,
	auditRepo port.AuditRepository,
	engine RuleEvaluator,
	notifier port.ReviewNotifier,
	ticketing port.TicketingClient,
	logger Logger,
) AuthorizationService {
	return &authorizationServiceImpl{
		rmaRepo:   rmaRepo,
		tsRepo:    tsRepo,
		auditRepo: auditRepo,
		engine:    engine,
		notifier:  notifier,
		ticketing: ticketing,
		logger:    logger,
	}
}

// Authorize evaluates the rule chain against the RMA and its troubleshooting
// record, applies the resulting status, and writes the decision audit entry.
// Notifier and ticketing failures are logged, never returned.
func (s *authorizationServiceImpl) Authorize(ctx context.Context, rmaID string) (*AuthorizationResult, error) {
	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return nil, ErrRmaNotFound
	}
	if err := status.Assert(rma.Status, status.ActionAuthorize); err != nil {
		return nil, err
	}

	ts, err := s.tsRepo.Get(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get troubleshooting data: %w", err)
	}

	verdict, err := s.engine.Evaluate(ctx, rma, ts)
	if err != nil {
		s.logger.Error("Rule evaluation failed", "error", err, "rma_id", rmaID)
		return nil, fmt.Errorf("evaluate rules: %w", err)
	}

	target := statusForDecision(verdict.Decision)
	swapped, err := s.rmaRepo.CompareAndSwapStatus(ctx, rmaID, status.StatusAwaitingTermsAcceptance, target)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !swapped {
		return nil, ErrStatusConflict
	}

	recordAudit(ctx, s.auditRepo, s.logger, rmaID, entity.EventRuleDecision, entity.ActorRuleEngine, map[string]any{
		"decision":       string(verdict.Decision),
		"reason_code":    string(verdict.ReasonCode),
		"reason_message": verdict.ReasonMessage,
	})

	if verdict.Decision == rules.DecisionNeedsReview && s.notifier != nil {
		if nerr := s.notifier.NotifyReviewNeeded(ctx, rma, string(verdict.ReasonCode), verdict.ReasonMessage); nerr != nil {
			s.logger.Error("Review notification failed", "error", nerr, "rma_id", rmaID)
		}
	}
	if s.ticketing != nil && rma.TicketID != "" {
		note := fmt.Sprintf("Rule decision: %s (%s)", verdict.Decision, verdict.ReasonCode)
		if terr := s.ticketing.AddNote(ctx, rma.TicketID, note); terr != nil {
			s.logger.Error("Ticket note failed", "error", terr, "rma_id", rmaID)
		}
	}

	s.logger.Info("Authorization decided",
		"rma_id", rmaID,
		"decision", string(verdict.Decision),
		"reason_code", string(verdict.ReasonCode),
	)

	return &AuthorizationResult{
		Decision:      verdict.Decision,
		ReasonCode:    verdict.ReasonCode,
		ReasonMessage: verdict.ReasonMessage,
		Status:        target,
	}, nil
}

func statusForDecision(d rules.Decision) status.Status {
	switch d {
	case rules.DecisionAuthorized:
		return status.StatusAuthorized
	case rules.DecisionNeedsReview:
		return status.StatusNeedsReview
	case rules.DecisionDenied:
		return status.StatusDenied
	}
	return status.StatusNeedsReview
}
