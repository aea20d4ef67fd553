// Package rules implements the authorization rules engine: an ordered,
// short-circuiting chain of named rules that combines warranty, terms,
// evidence, and abuse signals into a single decision.
package rules

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
)

// Decision is the verdict of an authorization attempt
type Decision string

const (
	DecisionAuthorized  Decision = "AUTHORIZED"
	DecisionNeedsReview Decision = "NEEDS_REVIEW"
	DecisionDenied      Decision = "DENIED"
)

// ReasonCode is the closed set of explanations attached to a decision
type ReasonCode string

const (
	ReasonOutOfWarranty    ReasonCode = "OUT_OF_WARRANTY"
	ReasonTermsNotAccepted ReasonCode = "TERMS_NOT_ACCEPTED"
	ReasonOptedOutEarly    ReasonCode = "OPTED_OUT_EARLY"
	ReasonEvidenceMissing  ReasonCode = "EVIDENCE_MISSING"
	ReasonRepeatRma        ReasonCode = "REPEAT_RMA"
	ReasonAutoApproved     ReasonCode = "AUTO_APPROVED"
)

// Result is produced fresh on every authorization attempt and recorded in the
// audit trail by the caller; it is never mutated.
type Result struct {
	Decision      Decision   `json:"decision"`
	ReasonCode    ReasonCode `json:"reason_code"`
	ReasonMessage string     `json:"reason_message,omitempty"`
}

// RepeatWindowDays is the trailing calendar window for the repeat-RMA
// abuse signal
const RepeatWindowDays = 30

// RepeatCounter is the engine's single external read: how many RMAs other
// than excludeRmaID exist for the same order item, created at or after the
// cutoff, whose status is neither DENIED nor CLOSED_FIXED.
type RepeatCounter interface {
	CountOtherOpenSince(ctx context.Context, excludeRmaID, orderID, orderItemID string, cutoff time.Time) (int, error)
}

// Input carries everything a rule may inspect. Troubleshooting is nil when no
// troubleshooting record exists; rules treat absence as a valid state.
type Input struct {
	Rma             *entity.RmaRequest
	Troubleshooting *entity.TroubleshootingData
}

// rule is one predicate+verdict pair. A nil result means "no opinion, try the
// next rule"; the first non-nil result wins.
type rule struct {
	name     string
	evaluate func(ctx context.Context, in Input) (*Result, error)
}

// Engine evaluates the fixed ordered rule chain
type Engine struct {
	repeats RepeatCounter
	now     func() time.Time
	logger  *zap.Logger

	chain []rule
}

// NewEngine creates a rules engine backed by the given repeat-RMA counter
func NewEngine(repeats RepeatCounter, logger *zap.Logger) *Engine {
	e := &Engine{
		repeats: repeats,
		now:     time.Now,
		logger:  logger,
	}

	// Order is significant: first matching rule wins.
	e.chain = []rule{
		{"warranty_gate", e.warrantyGate},
		{"terms_gate", e.termsGate},
		{"early_opt_out", e.earlyOptOut},
		{"evidence_requirement", e.evidenceRequirement},
		{"repeat_rma", e.repeatRma},
	}

	return e
}

// Evaluate runs the ordered rule chain over the RMA and its troubleshooting
// record. It never mutates state; callers apply the decision to the state
// machine and audit log themselves.
func (e *Engine) Evaluate(ctx context.Context, rma *entity.RmaRequest, ts *entity.TroubleshootingData) (*Result, error) {
	in := Input{Rma: rma, Troubleshooting: ts}

	for _, r := range e.chain {
		result, err := r.evaluate(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.name, err)
		}
		if result != nil {
			e.logger.Info("Authorization rule matched",
				zap.String("rma_id", rma.RmaID),
				zap.String("rule", r.name),
				zap.String("decision", string(result.Decision)),
				zap.String("reason_code", string(result.ReasonCode)))
			return result, nil
		}
	}

	return &Result{Decision: DecisionAuthorized, ReasonCode: ReasonAutoApproved}, nil
}

// warrantyGate auto-authorizes out-of-warranty items as a paid evaluation.
// Warranty status never produces a denial at this stage.
func (e *Engine) warrantyGate(_ context.Context, in Input) (*Result, error) {
	if in.Rma.WarrantyEligible {
		return nil, nil
	}
	return &Result{
		Decision:      DecisionAuthorized,
		ReasonCode:    ReasonOutOfWarranty,
		ReasonMessage: "Out of warranty - authorized as paid evaluation",
	}, nil
}

// termsGate is a hard gate: nothing below it is evaluated until the customer
// accepted the bench-fee terms.
func (e *Engine) termsGate(_ context.Context, in Input) (*Result, error) {
	if in.Rma.AcceptedBenchFeeTerms {
		return nil, nil
	}
	return &Result{
		Decision:      DecisionNeedsReview,
		ReasonCode:    ReasonTermsNotAccepted,
		ReasonMessage: "Terms acceptance required",
	}, nil
}

func (e *Engine) earlyOptOut(_ context.Context, in Input) (*Result, error) {
	if in.Troubleshooting == nil || !in.Troubleshooting.OptedOut {
		return nil, nil
	}
	return &Result{
		Decision:      DecisionNeedsReview,
		ReasonCode:    ReasonOptedOutEarly,
		ReasonMessage: "Customer opted out of troubleshooting early",
	}, nil
}

// evidenceRequirement trusts the requires-evidence flag snapshotted onto the
// completed-step record at completion time, not a live playbook lookup.
func (e *Engine) evidenceRequirement(_ context.Context, in Input) (*Result, error) {
	ts := in.Troubleshooting
	if ts == nil || len(ts.CompletedSteps) == 0 || ts.HasEvidence() {
		return nil, nil
	}

	for _, step := range ts.CompletedSteps {
		if step.RequiresEvidence {
			return &Result{
				Decision:      DecisionNeedsReview,
				ReasonCode:    ReasonEvidenceMissing,
				ReasonMessage: "Evidence required but not provided",
			}, nil
		}
	}

	return nil, nil
}

func (e *Engine) repeatRma(ctx context.Context, in Input) (*Result, error) {
	cutoff := e.now().AddDate(0, 0, -RepeatWindowDays)
	count, err := e.repeats.CountOtherOpenSince(ctx, in.Rma.RmaID, in.Rma.OrderID, in.Rma.OrderItemID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("count repeat RMAs: %w", err)
	}

	if count > 0 {
		return &Result{
			Decision:      DecisionNeedsReview,
			ReasonCode:    ReasonRepeatRma,
			ReasonMessage: fmt.Sprintf("Multiple RMAs detected (%d in last 30 days)", count),
		}, nil
	}

	return nil, nil
}
