package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/rules"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

func newAuthorizationFixture(rma *entity.RmaRequest, verdict *rules.Result) (AuthorizationService, *mockRmaRepo, *mockAuditRepo, *mockNotifier) {
	rmaRepo := &mockRmaRepo{
		getByIDFunc: func(ctx context.Context, rmaID string) (*entity.RmaRequest, error) {
			return rma, nil
		},
	}
	auditRepo := &mockAuditRepo{}
	notifier := &mockNotifier{}
	engine := &mockEngine{
		evaluateFunc: func(ctx context.Context, rma *entity.RmaRequest, ts *entity.TroubleshootingData) (*rules.Result, error) {
			return verdict, nil
		},
	}
	svc := NewAuthorizationService(rmaRepo, &mockTsRepo{}, auditRepo, engine, notifier, &mockTicketing{}, &mockLogger{})
	return svc, rmaRepo, auditRepo, notifier
}

func TestAuthorizationService_Authorize(t *testing.T) {
	tests := []struct {
		name       string
		verdict    *rules.Result
		wantStatus status.Status
		wantNotify int
	}{
		{
			name:       "auto approved",
			verdict:    &rules.Result{Decision: rules.DecisionAuthorized, ReasonCode: rules.ReasonAutoApproved},
			wantStatus: status.StatusAuthorized,
			wantNotify: 0,
		},
		{
			name:       "needs review notifies agents",
			verdict:    &rules.Result{Decision: rules.DecisionNeedsReview, ReasonCode: rules.ReasonRepeatRma, ReasonMessage: "Multiple RMAs detected (2 in last 30 days)"},
			wantStatus: status.StatusNeedsReview,
			wantNotify: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rma := &entity.RmaRequest{RmaID: "rma-1", Status: status.StatusAwaitingTermsAcceptance, AcceptedBenchFeeTerms: true}
			svc, rmaRepo, auditRepo, notifier := newAuthorizationFixture(rma, tt.verdict)

			result, err := svc.Authorize(context.Background(), "rma-1")
			if err != nil {
				t.Fatalf("Authorize() error = %v", err)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", result.Status, tt.wantStatus)
			}
			if len(rmaRepo.casCalls) != 1 || rmaRepo.casCalls[0].to != tt.wantStatus {
				t.Errorf("status swaps = %v", rmaRepo.casCalls)
			}
			if notifier.calls != tt.wantNotify {
				t.Errorf("notifier calls = %d, want %d", notifier.calls, tt.wantNotify)
			}

			if len(auditRepo.entries) != 1 {
				t.Fatalf("audit entries = %d, want 1", len(auditRepo.entries))
			}
			entry := auditRepo.entries[0]
			if entry.EventType != entity.EventRuleDecision || entry.ActorType != entity.ActorRuleEngine {
				t.Errorf("audit entry = %s/%s, want RULE_DECISION/RULE_ENGINE", entry.EventType, entry.ActorType)
			}
			if entry.Payload["decision"] != string(tt.verdict.Decision) {
				t.Errorf("audit decision payload = %v", entry.Payload["decision"])
			}
		})
	}
}

func TestAuthorizationService_Authorize_GuardsStatus(t *testing.T) {
	for _, current := range []status.Status{
		status.StatusStarted,
		status.StatusTroubleshootingInProgress,
		status.StatusAuthorized,
		status.StatusDenied,
	} {
		rma := &entity.RmaRequest{RmaID: "rma-1", Status: current}
		svc, _, _, _ := newAuthorizationFixture(rma, &rules.Result{Decision: rules.DecisionAuthorized})

		_, err := svc.Authorize(context.Background(), "rma-1")
		if !errors.Is(err, status.ErrInvalidTransition) {
			t.Errorf("Authorize() from %s error = %v, want invalid transition", current, err)
		}
	}
}

func TestAuthorizationService_Authorize_ConcurrentWriterLoses(t *testing.T) {
	rma := &entity.RmaRequest{RmaID: "rma-1", Status: status.StatusAwaitingTermsAcceptance}
	svc, rmaRepo, _, _ := newAuthorizationFixture(rma, &rules.Result{Decision: rules.DecisionAuthorized})
	rmaRepo.casFunc = func(ctx context.Context, rmaID string, from, to status.Status) (bool, error) {
		return false, nil
	}

	_, err := svc.Authorize(context.Background(), "rma-1")
	if !errors.Is(err, ErrStatusConflict) {
		t.Errorf("Authorize() error = %v, want ErrStatusConflict", err)
	}
}

func TestAuthorizationService_Authorize_NotifierFailureIsSwallowed(t *testing.T) {
	rma := &entity.RmaRequest{RmaID: "rma-1", Status: status.StatusAwaitingTermsAcceptance}
	svc, _, _, notifier := newAuthorizationFixture(rma, &rules.Result{Decision: rules.DecisionNeedsReview, ReasonCode: rules.ReasonOptedOutEarly})
	notifier.notifyFunc = func(ctx context.Context, rma *entity.RmaRequest, reasonCode, reasonMessage string) error {
		return errors.New("chat gateway down")
	}

	result, err := svc.Authorize(context.Background(), "rma-1")
	if err != nil {
		t.Fatalf("Authorize() should tolerate a notifier outage, got %v", err)
	}
	if result.Status != status.StatusNeedsReview {
		t.Errorf("status = %s, want NEEDS_REVIEW", result.Status)
	}
}
