package entity

import (
	"encoding/json"
	"time"
)

// CompletedStep records one troubleshooting step the customer finished.
// RequiresEvidence is a snapshot of the playbook step's flag at completion
// time; the rules engine reads this snapshot, never the live playbook.
type CompletedStep struct {
	StepID           string    `json:"step_id"`
	Answer           string    `json:"answer"`
	EvidenceIDs      []string  `json:"evidence_ids,omitempty"`
	RequiresEvidence bool      `json:"requires_evidence,omitempty"`
	CompletedAt      time.Time `json:"completed_at"`
}

// EvidenceRecord describes one uploaded evidence file
type EvidenceRecord struct {
	EvidenceID string    `json:"evidence_id"`
	FileName   string    `json:"file_name"`
	FilePath   string    `json:"file_path"`
	FileSize   int64     `json:"file_size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// TroubleshootingData is the at-most-one-per-RMA troubleshooting record.
// CompletedSteps and Evidence grow monotonically; entries are never removed.
type TroubleshootingData struct {
	RmaID          string           `json:"rma_id"`
	Symptoms       json.RawMessage  `json:"symptoms,omitempty"`
	CompletedSteps []CompletedStep  `json:"completed_steps,omitempty"`
	Evidence       []EvidenceRecord `json:"evidence,omitempty"`
	OptedOut       bool             `json:"opted_out"`

	// AI-assist fields are informational only and never feed the rules engine
	AISummary        string  `json:"ai_summary,omitempty"`
	AIRecommendation string  `json:"ai_recommendation,omitempty"`
	AIConfidence     float64 `json:"ai_confidence,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// HasEvidence returns true if at least one evidence file was uploaded
func (t *TroubleshootingData) HasEvidence() bool {
	return t != nil && len(t.Evidence) > 0
}

// LastCompletedStepID returns the id of the most recently completed step, or
// empty when no step was completed yet.
func (t *TroubleshootingData) LastCompletedStepID() string {
	if t == nil || len(t.CompletedSteps) == 0 {
		return ""
	}
	return t.CompletedSteps[len(t.CompletedSteps)-1].StepID
}
