package entity

import "fmt"

// Branch condition labels understood by the playbook authoring UI
const (
	BranchConditionPass = "pass"
	BranchConditionFail = "fail"
)

// BranchRule routes the flow after a step based on the customer's answer.
// If End is set the interactive flow terminates regardless of NextStepID and
// any remaining steps.
type BranchRule struct {
	Condition  string `json:"condition"`
	NextStepID string `json:"next_step_id,omitempty"`
	End        bool   `json:"end,omitempty"`
}

// PlaybookStep is a single troubleshooting instruction
type PlaybookStep struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description,omitempty"`
	MediaURL         string       `json:"media_url,omitempty"`
	RequiresEvidence bool         `json:"requires_evidence,omitempty"`
	Branches         []BranchRule `json:"branches,omitempty"`
}

// Playbook is a versioned, ordered troubleshooting sequence scoped to a SKU
// group. Versions append; exactly one is active per group at a time.
type Playbook struct {
	SKUGroupName string         `json:"sku_group_name"`
	Version      int            `json:"version"`
	Steps        []PlaybookStep `json:"steps"`
}

// Step returns the step with the given id, or nil if absent
func (p *Playbook) Step(id string) *PlaybookStep {
	for i := range p.Steps {
		if p.Steps[i].ID == id {
			return &p.Steps[i]
		}
	}
	return nil
}

// StepIndex returns the positional index of the step with the given id, or -1
func (p *Playbook) StepIndex(id string) int {
	for i := range p.Steps {
		if p.Steps[i].ID == id {
			return i
		}
	}
	return -1
}

// Validate checks structural integrity: non-empty unique step ids and branch
// targets that resolve within the playbook. Run at the admin upsert boundary;
// the sequencer itself stays defensive about unresolved ids.
func (p *Playbook) Validate() error {
	seen := make(map[string]bool, len(p.Steps))
	for i, step := range p.Steps {
		if step.ID == "" {
			return fmt.Errorf("step %d: missing id", i)
		}
		if seen[step.ID] {
			return fmt.Errorf("step %d: duplicate id %q", i, step.ID)
		}
		seen[step.ID] = true
	}

	for _, step := range p.Steps {
		for _, branch := range step.Branches {
			if branch.Condition == "" {
				return fmt.Errorf("step %q: branch with empty condition", step.ID)
			}
			if branch.End {
				continue
			}
			if branch.NextStepID == "" {
				return fmt.Errorf("step %q: branch %q names no next step and does not end", step.ID, branch.Condition)
			}
			if !seen[branch.NextStepID] {
				return fmt.Errorf("step %q: branch %q targets unknown step %q", step.ID, branch.Condition, branch.NextStepID)
			}
		}
	}

	return nil
}
