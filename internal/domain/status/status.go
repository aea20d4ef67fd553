package status

// Status represents the lifecycle state of an RMA request
type Status string

const (
	StatusStarted                   Status = "STARTED"
	StatusTroubleshootingInProgress Status = "TROUBLESHOOTING_IN_PROGRESS"
	StatusTroubleshootingComplete   Status = "TROUBLESHOOTING_COMPLETE"
	StatusAwaitingTermsAcceptance   Status = "AWAITING_TERMS_ACCEPTANCE"
	StatusAuthorized                Status = "AUTHORIZED"
	StatusNeedsReview               Status = "NEEDS_REVIEW"
	StatusDenied                    Status = "DENIED"
	StatusLabelOptionsPresented     Status = "LABEL_OPTIONS_PRESENTED"
	StatusAwaitingCustomerShipment  Status = "AWAITING_CUSTOMER_SHIPMENT"
	StatusLabelIssued               Status = "LABEL_ISSUED"
	StatusTrackingRecorded          Status = "TRACKING_RECORDED"
	StatusClosedFixed               Status = "CLOSED_FIXED"
)

var validStatuses = map[Status]bool{
	StatusStarted:                   true,
	StatusTroubleshootingInProgress: true,
	StatusTroubleshootingComplete:   true,
	StatusAwaitingTermsAcceptance:   true,
	StatusAuthorized:                true,
	StatusNeedsReview:               true,
	StatusDenied:                    true,
	StatusLabelOptionsPresented:     true,
	StatusAwaitingCustomerShipment:  true,
	StatusLabelIssued:               true,
	StatusTrackingRecorded:          true,
	StatusClosedFixed:               true,
}

// Terminal statuses for the ordinary customer flow. Admin override can still
// move an RMA out of any of these.
var terminalStatuses = map[Status]bool{
	StatusDenied:           true,
	StatusClosedFixed:      true,
	StatusLabelIssued:      true,
	StatusTrackingRecorded: true,
}

// IsTerminal returns true if the status ends the ordinary customer flow
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsValid returns true if the status is a member of the closed status set
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}
