package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/playbook"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

// ErrPlaybookNotFound is returned when no playbook exists for the RMA's SKU group
var ErrPlaybookNotFound = errors.New("no playbook for sku group")

// ErrUnknownStep is returned when the submitted step id is not declared in
// the active playbook
var ErrUnknownStep = errors.New("unknown playbook step")

// CompleteStepResult reports the state of the flow after a step is recorded
type CompleteStepResult struct {
	NextStep *entity.PlaybookStep `json:"next_step,omitempty"`
	Complete bool                 `json:"complete"`
	Status   status.Status        `json:"status"`
}

// TroubleshootingSnapshot is the customer's view of their session progress
type TroubleshootingSnapshot struct {
	Playbook    *entity.Playbook            `json:"playbook,omitempty"`
	Data        *entity.TroubleshootingData `json:"data,omitempty"`
	CurrentStep *entity.PlaybookStep        `json:"current_step,omitempty"`
	Complete    bool                        `json:"complete"`
}

// TroubleshootingService drives the guided troubleshooting flow
type TroubleshootingService interface {
	Snapshot(ctx context.Context, rmaID string) (*TroubleshootingSnapshot, error)
	SaveSymptoms(ctx context.Context, rmaID string, symptoms json.RawMessage) error
	CompleteStep(ctx context.Context, rmaID, stepID, answer string, evidenceIDs []string) (*CompleteStepResult, error)
	OptOut(ctx context.Context, rmaID string) error
	Assist(ctx context.Context, rmaID string) (*port.AssistSuggestion, error)
}

type troubleshootingServiceImpl struct {
	rmaRepo      port.RmaRepository
	tsRepo       port.TroubleshootingRepository
	playbookRepo port.PlaybookRepository
	auditRepo    port.AuditRepository
	assist       port.AssistClient
	logger       Logger
}

// NewTroubleshootingService creates a new TroubleshootingService
func NewTroubleshootingService(
	rmaRepo port.RmaRepository,
	tsRepo port.TroubleshootingRepository,
	playbookRepo port.PlaybookRepository,
	auditRepo port.AuditRepository,
	assist port.AssistClient,
	logger Logger,
) TroubleshootingService {
	return &troubleshootingServiceImpl{
		rmaRepo:      rmaRepo,
		tsRepo:       tsRepo,
		playbookRepo: playbookRepo,
		auditRepo:    auditRepo,
		assist:       assist,
		logger:       logger,
	}
}

// Snapshot returns the active playbook, the recorded progress, and the step
// the customer should see next
func (s *troubleshootingServiceImpl) Snapshot(ctx context.Context, rmaID string) (*TroubleshootingSnapshot, error) {
	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return nil, ErrRmaNotFound
	}

	pb, err := s.playbookRepo.GetActive(ctx, rma.SKUGroupName)
	if err != nil {
		return nil, fmt.Errorf("get playbook: %w", err)
	}

	data, err := s.tsRepo.Get(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get troubleshooting data: %w", err)
	}

	snap := &TroubleshootingSnapshot{Playbook: pb, Data: data}
	if pb != nil {
		var completed []entity.CompletedStep
		if data != nil {
			completed = data.CompletedSteps
		}
		snap.Complete = playbook.IsComplete(pb, completed)
		if !snap.Complete {
			snap.CurrentStep = playbook.NextStep(pb, lastStepID(data), answersByStep(completed))
		}
	}

	return snap, nil
}

// SaveSymptoms upserts the customer's free-form symptom description
func (s *troubleshootingServiceImpl) SaveSymptoms(ctx context.Context, rmaID string, symptoms json.RawMessage) error {
	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return ErrRmaNotFound
	}
	if rma.Status.IsTerminal() {
		return &status.TransitionError{Current: rma.Status, Action: status.ActionSaveSymptoms}
	}

	data, err := s.loadOrInitData(ctx, rmaID)
	if err != nil {
		return err
	}
	data.Symptoms = symptoms
	data.UpdatedAt = time.Now().UTC()

	if err := s.tsRepo.Save(ctx, data); err != nil {
		return fmt.Errorf("save troubleshooting data: %w", err)
	}
	return nil
}

// CompleteStep records one answered playbook step. The step's evidence flag
// is copied onto the record so later rule evaluation sees what was required
// at the time, not what the playbook says today.
func (s *troubleshootingServiceImpl) CompleteStep(ctx context.Context, rmaID, stepID, answer string, evidenceIDs []string) (*CompleteStepResult, error) {
	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return nil, ErrRmaNotFound
	}
	if err := status.Assert(rma.Status, status.ActionCompleteStep); err != nil {
		return nil, err
	}

	pb, err := s.playbookRepo.GetActive(ctx, rma.SKUGroupName)
	if err != nil {
		return nil, fmt.Errorf("get playbook: %w", err)
	}
	if pb == nil {
		return nil, ErrPlaybookNotFound
	}
	step := pb.Step(stepID)
	if step == nil {
		return nil, ErrUnknownStep
	}

	data, err := s.loadOrInitData(ctx, rmaID)
	if err != nil {
		return nil, err
	}
	data.CompletedSteps = append(data.CompletedSteps, entity.CompletedStep{
		StepID:           stepID,
		Answer:           answer,
		EvidenceIDs:      evidenceIDs,
		RequiresEvidence: step.RequiresEvidence,
		CompletedAt:      time.Now().UTC(),
	})
	data.UpdatedAt = time.Now().UTC()

	if err := s.tsRepo.Save(ctx, data); err != nil {
		return nil, fmt.Errorf("save troubleshooting data: %w", err)
	}

	current := rma.Status
	if current == status.StatusStarted {
		swapped, serr := s.rmaRepo.CompareAndSwapStatus(ctx, rmaID, status.StatusStarted, status.StatusTroubleshootingInProgress)
		if serr != nil {
			return nil, fmt.Errorf("update status: %w", serr)
		}
		if !swapped {
			return nil, ErrStatusConflict
		}
		current = status.StatusTroubleshootingInProgress
	}

	complete := playbook.IsComplete(pb, data.CompletedSteps)
	if complete && current == status.StatusTroubleshootingInProgress {
		swapped, serr := s.rmaRepo.CompareAndSwapStatus(ctx, rmaID, status.StatusTroubleshootingInProgress, status.StatusTroubleshootingComplete)
		if serr != nil {
			return nil, fmt.Errorf("update status: %w", serr)
		}
		if !swapped {
			return nil, ErrStatusConflict
		}
		current = status.StatusTroubleshootingComplete
	}

	recordAudit(ctx, s.auditRepo, s.logger, rmaID, entity.EventPlaybookStepCompleted, entity.ActorCustomer, map[string]any{
		"step_id":           stepID,
		"answer":            answer,
		"requires_evidence": step.RequiresEvidence,
		"evidence_count":    len(evidenceIDs),
	})

	result := &CompleteStepResult{Complete: complete, Status: current}
	if !complete {
		result.NextStep = playbook.NextStep(pb, stepID, answersByStep(data.CompletedSteps))
	}

	s.logger.Info("Playbook step completed",
		"rma_id", rmaID,
		"step_id", stepID,
		"complete", complete,
		"status", string(current),
	)

	return result, nil
}

// OptOut records that the customer chose to skip the rest of troubleshooting.
// The flag feeds rule evaluation later; the flow itself is closed out by
// moving the RMA to TROUBLESHOOTING_COMPLETE so terms acceptance stays
// reachable.
func (s *troubleshootingServiceImpl) OptOut(ctx context.Context, rmaID string) error {
	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return ErrRmaNotFound
	}
	if err := status.Assert(rma.Status, status.ActionOptOut); err != nil {
		return err
	}

	data, err := s.loadOrInitData(ctx, rmaID)
	if err != nil {
		return err
	}
	data.OptedOut = true
	data.UpdatedAt = time.Now().UTC()

	if err := s.tsRepo.Save(ctx, data); err != nil {
		return fmt.Errorf("save troubleshooting data: %w", err)
	}

	if rma.Status != status.StatusTroubleshootingComplete {
		swapped, serr := s.rmaRepo.CompareAndSwapStatus(ctx, rmaID, rma.Status, status.StatusTroubleshootingComplete)
		if serr != nil {
			return fmt.Errorf("update status: %w", serr)
		}
		if !swapped {
			return ErrStatusConflict
		}
	}

	recordAudit(ctx, s.auditRepo, s.logger, rmaID, entity.EventCustomerOptedOut, entity.ActorCustomer, map[string]any{
		"completed_steps": len(data.CompletedSteps),
	})

	s.logger.Info("Customer opted out of troubleshooting", "rma_id", rmaID, "completed_steps", len(data.CompletedSteps))
	return nil
}

// Assist asks the model for a read on the session and stores the suggestion
// alongside the troubleshooting record
func (s *troubleshootingServiceImpl) Assist(ctx context.Context, rmaID string) (*port.AssistSuggestion, error) {
	if s.assist == nil {
		return nil, errors.New("assist not configured")
	}

	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return nil, ErrRmaNotFound
	}

	pb, err := s.playbookRepo.GetActive(ctx, rma.SKUGroupName)
	if err != nil {
		return nil, fmt.Errorf("get playbook: %w", err)
	}

	data, err := s.loadOrInitData(ctx, rmaID)
	if err != nil {
		return nil, err
	}

	suggestion, err := s.assist.Summarize(ctx, rma, data, pb)
	if err != nil {
		s.logger.Error("Assist call failed", "error", err, "rma_id", rmaID)
		return nil, fmt.Errorf("assist: %w", err)
	}

	data.AISummary = suggestion.Summary
	data.AIRecommendation = suggestion.Recommendation
	data.AIConfidence = suggestion.Confidence
	data.UpdatedAt = time.Now().UTC()
	if err := s.tsRepo.Save(ctx, data); err != nil {
		s.logger.Error("Failed to persist assist suggestion", "error", err, "rma_id", rmaID)
	}

	return suggestion, nil
}

func (s *troubleshootingServiceImpl) loadOrInitData(ctx context.Context, rmaID string) (*entity.TroubleshootingData, error) {
	data, err := s.tsRepo.Get(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get troubleshooting data: %w", err)
	}
	if data == nil {
		data = &entity.TroubleshootingData{RmaID: rmaID}
	}
	return data, nil
}

func answersByStep(completed []entity.CompletedStep) map[string]string {
	answers := make(map[string]string, len(completed))
	for _, step := range completed {
		answers[step.StepID] = step.Answer
	}
	return answers
}

func lastStepID(data *entity.TroubleshootingData) string {
	if data == nil {
		return ""
	}
	return data.LastCompletedStepID()
}
