package entity

import (
	"time"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

// DefaultBenchFeeCents is the bench-test fee charged when a returned item
// tests as non-defective, in cents.
const DefaultBenchFeeCents int64 = 3999

// RmaRequest is the operational row for a single return request. The RMA id
// is immutable once created; rows are never deleted.
type RmaRequest struct {
	RmaID              string        `json:"rma_id"`
	Brand              string        `json:"brand"`
	OrderID            string        `json:"order_id"`
	OrderItemID        string        `json:"order_item_id"`
	SKU                string        `json:"sku"`
	SKUGroupName       string        `json:"sku_group_name"`
	IsInternational    bool          `json:"is_international"`
	WarrantyEligible   bool          `json:"warranty_eligible"`
	WarrantyEndDate    *time.Time    `json:"warranty_end_date,omitempty"`
	WarrantyReasonCode string        `json:"warranty_reason_code,omitempty"`
	Status             status.Status `json:"status"`

	ReturnMethod      string `json:"return_method,omitempty"`
	CarrierPreference string `json:"carrier_preference,omitempty"`

	// Ship-from address, copied from the order at RMA creation
	ShipName    string `json:"ship_name,omitempty"`
	ShipStreet  string `json:"ship_street,omitempty"`
	ShipCity    string `json:"ship_city,omitempty"`
	ShipState   string `json:"ship_state,omitempty"`
	ShipZip     string `json:"ship_zip,omitempty"`
	ShipCountry string `json:"ship_country,omitempty"`

	BenchFeeCents         int64      `json:"bench_fee_cents"`
	AcceptedBenchFeeTerms bool       `json:"accepted_bench_fee_terms"`
	AcceptedAt            *time.Time `json:"accepted_at,omitempty"`
	AcceptedIP            string     `json:"accepted_ip,omitempty"`
	AcceptedUserAgent     string     `json:"accepted_user_agent,omitempty"`

	// Ticketing references are populated asynchronously and are not
	// authoritative for any workflow decision.
	TicketID  string `json:"ticket_id,omitempty"`
	ContactID string `json:"contact_id,omitempty"`
	DealID    string `json:"deal_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RmaQueueItem is the projection used by the admin review queue
type RmaQueueItem struct {
	RmaID            string        `json:"rma_id"`
	Brand            string        `json:"brand"`
	OrderID          string        `json:"order_id"`
	OrderItemID      string        `json:"order_item_id"`
	SKU              string        `json:"sku"`
	Status           status.Status `json:"status"`
	WarrantyEligible bool          `json:"warranty_eligible"`
	IsInternational  bool          `json:"is_international"`
	CreatedAt        time.Time     `json:"created_at"`
}
