package playbook

import (
	"testing"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
)

func threeStepPlaybook() *entity.Playbook {
	return &entity.Playbook{
		SKUGroupName: "AIRBAG_MODULE",
		Version:      1,
		Steps: []entity.PlaybookStep{
			{ID: "check-connector", Title: "Inspect the connector"},
			{
				ID:    "reseat-harness",
				Title: "Reseat the wiring harness",
				Branches: []entity.BranchRule{
					{Condition: entity.BranchConditionPass, End: true},
					{Condition: entity.BranchConditionFail, NextStepID: "record-fault-codes"},
				},
			},
			{ID: "record-fault-codes", Title: "Record fault codes", RequiresEvidence: true},
		},
	}
}

func TestNextStep_EntryPoint(t *testing.T) {
	pb := threeStepPlaybook()

	step := NextStep(pb, "", nil)
	if step == nil || step.ID != "check-connector" {
		t.Fatalf("NextStep(entry) = %v, want check-connector", step)
	}
}

func TestNextStep_EmptyPlaybook(t *testing.T) {
	pb := &entity.Playbook{SKUGroupName: "DEFAULT"}

	if step := NextStep(pb, "", nil); step != nil {
		t.Errorf("NextStep(empty playbook) = %v, want nil", step)
	}
	if step := NextStep(nil, "", nil); step != nil {
		t.Errorf("NextStep(nil playbook) = %v, want nil", step)
	}
}

func TestNextStep_UnknownCurrentStep(t *testing.T) {
	pb := threeStepPlaybook()

	if step := NextStep(pb, "no-such-step", nil); step != nil {
		t.Errorf("NextStep(unknown id) = %v, want nil", step)
	}
}

func TestNextStep_PositionalDefault(t *testing.T) {
	pb := threeStepPlaybook()

	step := NextStep(pb, "check-connector", nil)
	if step == nil || step.ID != "reseat-harness" {
		t.Fatalf("NextStep() = %v, want reseat-harness", step)
	}
}

func TestNextStep_BranchEndTerminatesFlow(t *testing.T) {
	pb := threeStepPlaybook()

	step := NextStep(pb, "reseat-harness", map[string]string{"reseat-harness": "pass"})
	if step != nil {
		t.Errorf("NextStep(pass branch with end) = %v, want nil", step)
	}
}

func TestNextStep_BranchRoutesToNamedStep(t *testing.T) {
	pb := threeStepPlaybook()

	step := NextStep(pb, "reseat-harness", map[string]string{"reseat-harness": "fail"})
	if step == nil || step.ID != "record-fault-codes" {
		t.Fatalf("NextStep(fail branch) = %v, want record-fault-codes", step)
	}
}

func TestNextStep_UnmatchedAnswerFallsThroughPositionally(t *testing.T) {
	pb := threeStepPlaybook()

	step := NextStep(pb, "reseat-harness", map[string]string{"reseat-harness": "maybe"})
	if step == nil || step.ID != "record-fault-codes" {
		t.Fatalf("NextStep(unmatched answer) = %v, want positional record-fault-codes", step)
	}
}

func TestNextStep_BranchTargetMissingReturnsNil(t *testing.T) {
	pb := &entity.Playbook{
		Steps: []entity.PlaybookStep{
			{
				ID: "a",
				Branches: []entity.BranchRule{
					{Condition: entity.BranchConditionFail, NextStepID: "ghost"},
				},
			},
			{ID: "b"},
		},
	}

	if step := NextStep(pb, "a", map[string]string{"a": "fail"}); step != nil {
		t.Errorf("NextStep(dangling branch target) = %v, want nil", step)
	}
}

func TestNextStep_FirstMatchingBranchWins(t *testing.T) {
	pb := &entity.Playbook{
		Steps: []entity.PlaybookStep{
			{
				ID: "a",
				Branches: []entity.BranchRule{
					{Condition: entity.BranchConditionFail, NextStepID: "c"},
					{Condition: entity.BranchConditionFail, End: true},
				},
			},
			{ID: "b"},
			{ID: "c"},
		},
	}

	step := NextStep(pb, "a", map[string]string{"a": "fail"})
	if step == nil || step.ID != "c" {
		t.Fatalf("NextStep() = %v, want first declared branch target c", step)
	}
}

func TestNextStep_LastStepReturnsNil(t *testing.T) {
	pb := threeStepPlaybook()

	if step := NextStep(pb, "record-fault-codes", nil); step != nil {
		t.Errorf("NextStep(last step) = %v, want nil", step)
	}
}

func TestIsComplete(t *testing.T) {
	pb := threeStepPlaybook()

	tests := []struct {
		name      string
		completed []entity.CompletedStep
		expected  bool
	}{
		{"nothing completed", nil, false},
		{
			"partial coverage",
			[]entity.CompletedStep{{StepID: "check-connector"}},
			false,
		},
		{
			"full coverage",
			[]entity.CompletedStep{
				{StepID: "check-connector"},
				{StepID: "reseat-harness"},
				{StepID: "record-fault-codes"},
			},
			true,
		},
		{
			"duplicates do not change the result",
			[]entity.CompletedStep{
				{StepID: "check-connector"},
				{StepID: "check-connector"},
				{StepID: "reseat-harness"},
				{StepID: "record-fault-codes"},
				{StepID: "record-fault-codes"},
			},
			true,
		},
		{
			"unknown completed ids do not count toward coverage",
			[]entity.CompletedStep{
				{StepID: "check-connector"},
				{StepID: "stale-step-from-old-version"},
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsComplete(pb, tt.completed); got != tt.expected {
				t.Errorf("IsComplete() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsComplete_EmptyPlaybook(t *testing.T) {
	if !IsComplete(&entity.Playbook{}, nil) {
		t.Error("IsComplete(empty playbook) = false, want true")
	}
	if !IsComplete(nil, nil) {
		t.Error("IsComplete(nil playbook) = false, want true")
	}
}

// A pass branch with End set terminates the interactive flow, but completion
// still requires coverage of every declared step.
func TestBranchEndDoesNotImplyComplete(t *testing.T) {
	pb := threeStepPlaybook()
	completed := []entity.CompletedStep{
		{StepID: "check-connector"},
		{StepID: "reseat-harness", Answer: "pass"},
	}

	if step := NextStep(pb, "reseat-harness", map[string]string{"reseat-harness": "pass"}); step != nil {
		t.Fatalf("NextStep() = %v, want nil after end branch", step)
	}
	if IsComplete(pb, completed) {
		t.Error("IsComplete() = true, want false: record-fault-codes was never visited")
	}
}
