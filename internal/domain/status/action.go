package status

// Action represents a workflow operation that mutates RMA status
type Action string

const (
	ActionSaveSymptoms            Action = "SAVE_SYMPTOMS"
	ActionCompleteStep            Action = "COMPLETE_STEP"
	ActionCompleteTroubleshooting Action = "COMPLETE_TROUBLESHOOTING"
	ActionOptOut                  Action = "OPT_OUT"
	ActionUploadEvidence          Action = "UPLOAD_EVIDENCE"
	ActionAcceptTerms             Action = "ACCEPT_TERMS"
	ActionAuthorize               Action = "AUTHORIZE"
	ActionShowLabelOptions        Action = "SHOW_LABEL_OPTIONS"
	ActionPurchaseLabel           Action = "PURCHASE_LABEL"
	ActionRecordSelfShip          Action = "RECORD_SELF_SHIP"
	ActionCloseFixed              Action = "CLOSE_FIXED"
	ActionAdminOverride           Action = "ADMIN_OVERRIDE"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}
