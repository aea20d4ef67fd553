package entity

import "time"

// Billing modes recorded on a purchased or self-ship label row
const (
	BillingModePrepaid           = "PREPAID"
	BillingModeUSPSPayOnDelivery = "USPS_PAY_ON_DELIVERY"
)

// RmaLabel is the at-most-one-per-RMA shipping record. It covers both
// carrier-purchased labels and customer self-ship tracking.
type RmaLabel struct {
	RmaID          string     `json:"rma_id"`
	ShipmentID     string     `json:"shipment_id,omitempty"`
	RateID         string     `json:"rate_id,omitempty"`
	Carrier        string     `json:"carrier,omitempty"`
	Service        string     `json:"service,omitempty"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	BillingMode    string     `json:"billing_mode,omitempty"`
	LabelFilePath  string     `json:"label_file_path,omitempty"`
	LabelCreatedAt *time.Time `json:"label_created_at,omitempty"`
}
