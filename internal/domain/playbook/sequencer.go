// Package playbook implements traversal of troubleshooting playbooks:
// which step to present next, and when the guided sequence is complete.
package playbook

import (
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
)

// NextStep computes the step to present after currentStepID.
//
//   - An empty currentStepID yields the playbook's first step (entry point).
//   - An unknown currentStepID ends the flow (nil) rather than erroring.
//   - When the current step declares branches and an answer was supplied for
//     it, branches are scanned in declared order and the first one whose
//     condition equals the answer wins: End terminates the flow, otherwise
//     the named next step is resolved (nil when the id is unknown).
//   - With no matching branch, the step following the current one in array
//     order is returned, or nil when the current step is last.
//
// Completion bookkeeping is separate; see IsComplete.
func NextStep(pb *entity.Playbook, currentStepID string, answers map[string]string) *entity.PlaybookStep {
	if pb == nil || len(pb.Steps) == 0 {
		return nil
	}

	if currentStepID == "" {
		return &pb.Steps[0]
	}

	idx := pb.StepIndex(currentStepID)
	if idx < 0 {
		return nil
	}

	current := &pb.Steps[idx]
	if answer, ok := answers[currentStepID]; ok {
		for _, branch := range current.Branches {
			if branch.Condition != answer {
				continue
			}
			if branch.End {
				return nil
			}
			if branch.NextStepID != "" {
				return pb.Step(branch.NextStepID)
			}
		}
	}

	if idx+1 < len(pb.Steps) {
		return &pb.Steps[idx+1]
	}

	return nil
}

// IsComplete reports whether every declared step id appears in the completed
// list. An empty playbook is trivially complete. Duplicate completed entries
// do not change the result.
//
// Note that a branch with End set can terminate the interactive flow before
// all declared steps were visited; such a sequence still reports incomplete
// here. Coverage of all declared steps is the completion criterion.
func IsComplete(pb *entity.Playbook, completed []entity.CompletedStep) bool {
	if pb == nil || len(pb.Steps) == 0 {
		return true
	}

	done := make(map[string]bool, len(completed))
	for _, step := range completed {
		done[step.StepID] = true
	}

	for _, step := range pb.Steps {
		if !done[step.ID] {
			return false
		}
	}

	return true
}
