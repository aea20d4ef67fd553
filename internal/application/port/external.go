package port

import (
	"context"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
)

// OrderItem is a warehouse order line as stored in the mirror tables
type OrderItem struct {
	OrderID       string
	OrderItemID   string
	SKU           string
	CustomerEmail string
	ShipName      string
	ShipStreet    string
	ShipCity      string
	ShipState     string
	ShipZip       string
	ShipCountry   string
	PurchasedAt   int64
}

// WarrantyStatus is the warehouse warranty verdict for an order item
type WarrantyStatus struct {
	Eligible   bool
	EndDate    string
	ReasonCode string
}

// Warehouse defines read access to the warehouse order mirror
type Warehouse interface {
	FindOrderItem(ctx context.Context, orderID, sku string) (*OrderItem, error)
	CheckWarranty(ctx context.Context, orderItemID string) (*WarrantyStatus, error)
	SkuGroup(ctx context.Context, sku string) (string, error)
}

// TicketContact represents CRM references created for an RMA
type TicketContact struct {
	TicketID  string
	ContactID string
	DealID    string
}

// TicketingClient defines CRM ticket operations. Failures are logged and
// never block the customer flow.
type TicketingClient interface {
	EnsureTicket(ctx context.Context, rma *entity.RmaRequest, email string) (*TicketContact, error)
	UpdateStage(ctx context.Context, ticketID, stage string) error
	AddNote(ctx context.Context, ticketID, note string) error
}

// LabelRate is a purchasable rate quote from the carrier
type LabelRate struct {
	RateID      string
	ShipmentID  string
	Carrier     string
	Service     string
	AmountCents int64
	Currency    string
	BillingMode string
}

// PurchasedLabel is the result of buying a rate
type PurchasedLabel struct {
	ShipmentID     string
	RateID         string
	Carrier        string
	Service        string
	TrackingNumber string
	LabelURL       string
}

// CarrierClient defines shipping label operations
type CarrierClient interface {
	GetRates(ctx context.Context, rma *entity.RmaRequest) ([]LabelRate, error)
	BuyLabel(ctx context.Context, shipmentID, rateID string) (*PurchasedLabel, error)
	DownloadLabel(ctx context.Context, labelURL string) ([]byte, error)
}

// ReviewNotifier pushes NEEDS_REVIEW cases to the agent channel. Failures
// are logged and never block the customer flow.
type ReviewNotifier interface {
	NotifyReviewNeeded(ctx context.Context, rma *entity.RmaRequest, reasonCode, reasonMessage string) error
}

// AssistSuggestion is the model's read of the troubleshooting session
type AssistSuggestion struct {
	Summary        string
	Recommendation string
	Confidence     float64
}

// AssistClient defines the troubleshooting assist operation
type AssistClient interface {
	Summarize(ctx context.Context, rma *entity.RmaRequest, ts *entity.TroubleshootingData, playbook *entity.Playbook) (*AssistSuggestion, error)
}

// EvidenceInspector validates uploaded document content
type EvidenceInspector interface {
	// InspectPDF returns the page count, or an error when the bytes are not
	// a readable PDF
	InspectPDF(data []byte) (int, error)
}
