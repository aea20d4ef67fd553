package rules

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

type mockRepeatCounter struct {
	count  int
	err    error
	cutoff time.Time
	calls  int
}

func (m *mockRepeatCounter) CountOtherOpenSince(_ context.Context, _, _, _ string, cutoff time.Time) (int, error) {
	m.calls++
	m.cutoff = cutoff
	return m.count, m.err
}

func newTestEngine(counter *mockRepeatCounter) *Engine {
	return NewEngine(counter, zap.NewNop())
}

func baseRma() *entity.RmaRequest {
	return &entity.RmaRequest{
		RmaID:                 "rma-1",
		Brand:                 "UPFIX",
		OrderID:               "ORD123",
		OrderItemID:           "ITEM456",
		SKU:                   "SKU789",
		SKUGroupName:          "DEFAULT",
		WarrantyEligible:      true,
		Status:                status.StatusAwaitingTermsAcceptance,
		BenchFeeCents:         entity.DefaultBenchFeeCents,
		AcceptedBenchFeeTerms: true,
	}
}

func TestEvaluate_AutoApproved(t *testing.T) {
	engine := newTestEngine(&mockRepeatCounter{})

	result, err := engine.Evaluate(context.Background(), baseRma(), nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.Decision != DecisionAuthorized || result.ReasonCode != ReasonAutoApproved {
		t.Errorf("Evaluate() = %+v, want AUTHORIZED/AUTO_APPROVED", result)
	}
}

func TestEvaluate_OutOfWarrantyAlwaysAuthorized(t *testing.T) {
	// Warranty gate fires first regardless of terms, opt-out, or evidence.
	counter := &mockRepeatCounter{count: 5}
	engine := newTestEngine(counter)

	rma := baseRma()
	rma.WarrantyEligible = false
	rma.AcceptedBenchFeeTerms = false
	ts := &entity.TroubleshootingData{
		OptedOut:       true,
		CompletedSteps: []entity.CompletedStep{{StepID: "a", RequiresEvidence: true}},
	}

	result, err := engine.Evaluate(context.Background(), rma, ts)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.Decision != DecisionAuthorized || result.ReasonCode != ReasonOutOfWarranty {
		t.Errorf("Evaluate() = %+v, want AUTHORIZED/OUT_OF_WARRANTY", result)
	}
	if counter.calls != 0 {
		t.Errorf("repeat counter consulted %d times, want 0 (short circuit)", counter.calls)
	}
}

func TestEvaluate_TermsNotAcceptedIsHardGate(t *testing.T) {
	counter := &mockRepeatCounter{count: 3}
	engine := newTestEngine(counter)

	rma := baseRma()
	rma.AcceptedBenchFeeTerms = false

	result, err := engine.Evaluate(context.Background(), rma, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.Decision != DecisionNeedsReview || result.ReasonCode != ReasonTermsNotAccepted {
		t.Errorf("Evaluate() = %+v, want NEEDS_REVIEW/TERMS_NOT_ACCEPTED", result)
	}
	if counter.calls != 0 {
		t.Errorf("repeat counter consulted %d times, want 0 (short circuit)", counter.calls)
	}
}

func TestEvaluate_OptOutBeatsEvidenceMissing(t *testing.T) {
	// Rule order is a strict priority chain: a record triggering both the
	// opt-out and evidence conditions yields the earlier rule's verdict.
	engine := newTestEngine(&mockRepeatCounter{})

	ts := &entity.TroubleshootingData{
		OptedOut:       true,
		CompletedSteps: []entity.CompletedStep{{StepID: "a", RequiresEvidence: true}},
	}

	result, err := engine.Evaluate(context.Background(), baseRma(), ts)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.ReasonCode != ReasonOptedOutEarly {
		t.Errorf("Evaluate() = %+v, want OPTED_OUT_EARLY to win", result)
	}
}

func TestEvaluate_EvidenceMissing(t *testing.T) {
	engine := newTestEngine(&mockRepeatCounter{})

	ts := &entity.TroubleshootingData{
		CompletedSteps: []entity.CompletedStep{
			{StepID: "a", RequiresEvidence: true},
			{StepID: "b"},
		},
	}

	result, err := engine.Evaluate(context.Background(), baseRma(), ts)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.Decision != DecisionNeedsReview || result.ReasonCode != ReasonEvidenceMissing {
		t.Errorf("Evaluate() = %+v, want NEEDS_REVIEW/EVIDENCE_MISSING", result)
	}
}

func TestEvaluate_EvidencePresentFallsThrough(t *testing.T) {
	engine := newTestEngine(&mockRepeatCounter{count: 0})

	ts := &entity.TroubleshootingData{
		CompletedSteps: []entity.CompletedStep{{StepID: "a", RequiresEvidence: true}},
		Evidence: []entity.EvidenceRecord{
			{EvidenceID: "ev-1", FileName: "connector.jpg"},
		},
	}

	result, err := engine.Evaluate(context.Background(), baseRma(), ts)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.Decision != DecisionAuthorized || result.ReasonCode != ReasonAutoApproved {
		t.Errorf("Evaluate() = %+v, want AUTHORIZED/AUTO_APPROVED", result)
	}
}

func TestEvaluate_NoEvidenceRequiredByAnyStep(t *testing.T) {
	engine := newTestEngine(&mockRepeatCounter{})

	ts := &entity.TroubleshootingData{
		CompletedSteps: []entity.CompletedStep{{StepID: "a"}, {StepID: "b"}},
	}

	result, err := engine.Evaluate(context.Background(), baseRma(), ts)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.ReasonCode != ReasonAutoApproved {
		t.Errorf("Evaluate() = %+v, want AUTO_APPROVED", result)
	}
}

func TestEvaluate_RepeatRma(t *testing.T) {
	engine := newTestEngine(&mockRepeatCounter{count: 2})

	result, err := engine.Evaluate(context.Background(), baseRma(), nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.Decision != DecisionNeedsReview || result.ReasonCode != ReasonRepeatRma {
		t.Errorf("Evaluate() = %+v, want NEEDS_REVIEW/REPEAT_RMA", result)
	}
	if !strings.Contains(result.ReasonMessage, "2") {
		t.Errorf("ReasonMessage = %q, want the repeat count interpolated", result.ReasonMessage)
	}
}

func TestEvaluate_RepeatWindowCutoff(t *testing.T) {
	counter := &mockRepeatCounter{}
	engine := newTestEngine(counter)

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return now }

	if _, err := engine.Evaluate(context.Background(), baseRma(), nil); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	want := now.AddDate(0, 0, -30)
	if !counter.cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", counter.cutoff, want)
	}
}

func TestEvaluate_RepeatCounterFailure(t *testing.T) {
	engine := newTestEngine(&mockRepeatCounter{err: errors.New("db unavailable")})

	if _, err := engine.Evaluate(context.Background(), baseRma(), nil); err == nil {
		t.Fatal("Evaluate() error = nil, want error propagated from counter")
	}
}

// No rule in the chain produces DENIED: denial only ever comes from an admin
// override. Guard that property so a future rule change is deliberate.
func TestEvaluate_NoAutomaticDenialPath(t *testing.T) {
	inputs := []struct {
		name string
		rma  func() *entity.RmaRequest
		ts   *entity.TroubleshootingData
	}{
		{"out of warranty", func() *entity.RmaRequest { r := baseRma(); r.WarrantyEligible = false; return r }, nil},
		{"terms missing", func() *entity.RmaRequest { r := baseRma(); r.AcceptedBenchFeeTerms = false; return r }, nil},
		{"opted out", baseRma, &entity.TroubleshootingData{OptedOut: true}},
		{"evidence missing", baseRma, &entity.TroubleshootingData{
			CompletedSteps: []entity.CompletedStep{{StepID: "a", RequiresEvidence: true}},
		}},
		{"clean", baseRma, nil},
	}

	for _, repeat := range []int{0, 4} {
		engine := newTestEngine(&mockRepeatCounter{count: repeat})
		for _, in := range inputs {
			result, err := engine.Evaluate(context.Background(), in.rma(), in.ts)
			if err != nil {
				t.Fatalf("%s: Evaluate() error = %v", in.name, err)
			}
			if result.Decision == DecisionDenied {
				t.Errorf("%s (repeat=%d): decision = DENIED, no automatic rule should deny", in.name, repeat)
			}
		}
	}
}
