package entity

import "time"

// Audit event types written by workflow orchestrators
const (
	EventRmaStarted            = "RMA_STARTED"
	EventWarrantyChecked       = "WARRANTY_CHECKED"
	EventPlaybookStepCompleted = "PLAYBOOK_STEP_COMPLETED"
	EventCustomerOptedOut      = "CUSTOMER_OPTED_OUT"
	EventEvidenceUploaded      = "EVIDENCE_UPLOADED"
	EventTermsAccepted         = "TERMS_ACCEPTED"
	EventRuleDecision          = "RULE_DECISION"
	EventLabelOptionsShown     = "LABEL_OPTIONS_SHOWN"
	EventLabelPurchased        = "LABEL_PURCHASED"
	EventTrackingRecorded      = "TRACKING_RECORDED"
	EventCustomerMarkedFixed   = "CUSTOMER_MARKED_FIXED"
	EventAdminOverride         = "ADMIN_OVERRIDE"
	EventAdminFeedback         = "ADMIN_FEEDBACK"
)

// Actor types attached to audit entries
const (
	ActorSystem     = "SYSTEM"
	ActorCustomer   = "CUSTOMER"
	ActorAgent      = "AGENT"
	ActorRuleEngine = "RULE_ENGINE"
)

// AuditLogEntry is one append-only workflow event. Entries are never updated
// or deleted; together they form the event history of an RMA.
type AuditLogEntry struct {
	AuditID   int64          `json:"audit_id"`
	RmaID     string         `json:"rma_id"`
	EventType string         `json:"event_type"`
	ActorType string         `json:"actor_type"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
