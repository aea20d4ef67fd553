package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

func newAdminFixture(rma *entity.RmaRequest) (AdminService, *mockRmaRepo, *mockAuditRepo, *mockPlaybookRepo) {
	rmaRepo := &mockRmaRepo{
		getByIDFunc: func(ctx context.Context, rmaID string) (*entity.RmaRequest, error) {
			return rma, nil
		},
	}
	auditRepo := &mockAuditRepo{}
	playbookRepo := &mockPlaybookRepo{}
	svc := NewAdminService(rmaRepo, &mockTsRepo{}, &mockLabelRepo{}, playbookRepo, auditRepo, &mockTicketing{}, &mockLogger{})
	return svc, rmaRepo, auditRepo, playbookRepo
}

func TestAdminService_Override(t *testing.T) {
	rma := &entity.RmaRequest{RmaID: "rma-1", Status: status.StatusNeedsReview}
	svc, _, auditRepo, _ := newAdminFixture(rma)

	updated, err := svc.Override(context.Background(), "rma-1", "agent-7", status.StatusAuthorized, "verified serial photos manually")
	if err != nil {
		t.Fatalf("Override() error = %v", err)
	}
	if updated.Status != status.StatusAuthorized {
		t.Errorf("status = %s, want AUTHORIZED", updated.Status)
	}

	if len(auditRepo.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(auditRepo.entries))
	}
	entry := auditRepo.entries[0]
	if entry.EventType != entity.EventAdminOverride || entry.ActorType != entity.ActorAgent {
		t.Errorf("audit entry = %s/%s", entry.EventType, entry.ActorType)
	}
	if entry.Payload["previous_status"] != string(status.StatusNeedsReview) ||
		entry.Payload["new_status"] != string(status.StatusAuthorized) ||
		entry.Payload["agent_id"] != "agent-7" {
		t.Errorf("audit payload = %v", entry.Payload)
	}
}

func TestAdminService_Override_CanLeaveTerminalStatus(t *testing.T) {
	rma := &entity.RmaRequest{RmaID: "rma-1", Status: status.StatusDenied}
	svc, _, _, _ := newAdminFixture(rma)

	updated, err := svc.Override(context.Background(), "rma-1", "agent-7", status.StatusNeedsReview, "customer escalation")
	if err != nil {
		t.Fatalf("Override() from terminal status error = %v", err)
	}
	if updated.Status != status.StatusNeedsReview {
		t.Errorf("status = %s, want NEEDS_REVIEW", updated.Status)
	}
}

func TestAdminService_Override_Validation(t *testing.T) {
	rma := &entity.RmaRequest{RmaID: "rma-1", Status: status.StatusNeedsReview}

	tests := []struct {
		name    string
		agentID string
		to      status.Status
		reason  string
		wantErr error
	}{
		{name: "missing reason", agentID: "agent-7", to: status.StatusAuthorized, reason: "", wantErr: ErrOverrideReasonRequired},
		{name: "missing agent", agentID: "", to: status.StatusAuthorized, reason: "ok", wantErr: ErrAgentRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, auditRepo, _ := newAdminFixture(rma)
			_, err := svc.Override(context.Background(), "rma-1", tt.agentID, tt.to, tt.reason)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Override() error = %v, want %v", err, tt.wantErr)
			}
			if len(auditRepo.entries) != 0 {
				t.Error("rejected override must not write audit entries")
			}
		})
	}

	t.Run("unknown status", func(t *testing.T) {
		svc, _, _, _ := newAdminFixture(rma)
		if _, err := svc.Override(context.Background(), "rma-1", "agent-7", status.Status("BOGUS"), "ok"); err == nil {
			t.Error("unknown target status must be rejected")
		}
	})
}

func TestAdminService_Override_FailsWhenAuditFails(t *testing.T) {
	rma := &entity.RmaRequest{RmaID: "rma-1", Status: status.StatusNeedsReview}
	svc, _, auditRepo, _ := newAdminFixture(rma)
	auditRepo.appendFunc = func(ctx context.Context, entry *entity.AuditLogEntry) error {
		return errors.New("disk full")
	}

	if _, err := svc.Override(context.Background(), "rma-1", "agent-7", status.StatusAuthorized, "ok"); err == nil {
		t.Error("override without an audit entry must fail")
	}
}

func TestAdminService_UpsertPlaybook(t *testing.T) {
	svc, _, _, playbookRepo := newAdminFixture(nil)
	playbookRepo.appendVersionFunc = func(ctx context.Context, skuGroupName string, steps []entity.PlaybookStep) (int, error) {
		return 3, nil
	}

	version, err := svc.UpsertPlaybook(context.Background(), "thermostats", []entity.PlaybookStep{
		{ID: "a", Title: "Step A", Branches: []entity.BranchRule{{Condition: "pass", End: true}, {Condition: "fail", NextStepID: "b"}}},
		{ID: "b", Title: "Step B"},
	})
	if err != nil {
		t.Fatalf("UpsertPlaybook() error = %v", err)
	}
	if version != 3 {
		t.Errorf("version = %d, want 3", version)
	}
}

func TestAdminService_UpsertPlaybook_RejectsInvalidSteps(t *testing.T) {
	svc, _, _, _ := newAdminFixture(nil)

	tests := []struct {
		name  string
		steps []entity.PlaybookStep
	}{
		{
			name:  "duplicate step ids",
			steps: []entity.PlaybookStep{{ID: "a", Title: "A"}, {ID: "a", Title: "A again"}},
		},
		{
			name:  "dangling branch target",
			steps: []entity.PlaybookStep{{ID: "a", Title: "A", Branches: []entity.BranchRule{{Condition: "fail", NextStepID: "ghost"}}}},
		},
		{
			name:  "missing step id",
			steps: []entity.PlaybookStep{{Title: "anonymous"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.UpsertPlaybook(context.Background(), "thermostats", tt.steps); err == nil {
				t.Error("invalid playbook must be rejected")
			}
		})
	}
}

func TestAdminService_Feedback(t *testing.T) {
	rma := &entity.RmaRequest{RmaID: "rma-1", Status: status.StatusNeedsReview}
	svc, _, auditRepo, _ := newAdminFixture(rma)

	if err := svc.Feedback(context.Background(), "rma-1", "agent-7", "rule fired on a warranty replacement"); err != nil {
		t.Fatalf("Feedback() error = %v", err)
	}
	if got := auditRepo.eventTypes(); len(got) != 1 || got[0] != entity.EventAdminFeedback {
		t.Errorf("audit events = %v", got)
	}
}

func TestAdminService_ExportQueue(t *testing.T) {
	svc, repo, _, _ := newAdminFixture(nil)
	repo.listQueueFunc = func(ctx context.Context, filter port.QueueFilter) ([]*entity.RmaQueueItem, error) {
		return []*entity.RmaQueueItem{
			{RmaID: "rma-1", Brand: "acme", OrderID: "ORD-1", SKU: "SKU-A", Status: status.StatusNeedsReview},
		}, nil
	}

	data, err := svc.ExportQueue(context.Background(), port.QueueFilter{Status: status.StatusNeedsReview})
	if err != nil {
		t.Fatalf("ExportQueue() error = %v", err)
	}
	// xlsx files are zip archives
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("export should be a valid xlsx workbook")
	}
}
