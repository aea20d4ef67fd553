package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

func newShippingFixture(rma *entity.RmaRequest, cfg ShippingConfig) (ShippingService, *mockRmaRepo, *mockLabelRepo, *mockCarrier, *mockStorage) {
	rmaRepo := &mockRmaRepo{
		getByIDFunc: func(ctx context.Context, rmaID string) (*entity.RmaRequest, error) {
			return rma, nil
		},
	}
	labelRepo := &mockLabelRepo{}
	carrier := &mockCarrier{}
	storage := &mockStorage{}
	svc := NewShippingService(rmaRepo, labelRepo, &mockAuditRepo{}, carrier, storage, cfg, &mockLogger{})
	return svc, rmaRepo, labelRepo, carrier, storage
}

func TestShippingService_Options_PrepaidPolicy(t *testing.T) {
	rates := []port.LabelRate{
		{RateID: "r1", Carrier: "UPS", BillingMode: entity.BillingModePrepaid},
		{RateID: "r2", Carrier: "USPS", BillingMode: entity.BillingModeUSPSPayOnDelivery},
	}

	tests := []struct {
		name        string
		rma         *entity.RmaRequest
		uspsEnabled bool
		wantPrepaid bool
		wantRates   int
		wantStatus  status.Status
	}{
		{
			name:        "domestic in warranty gets rates",
			rma:         &entity.RmaRequest{RmaID: "rma-1", Status: status.StatusAuthorized, WarrantyEligible: true},
			uspsEnabled: true,
			wantPrepaid: true,
			wantRates:   2,
			wantStatus:  status.StatusLabelOptionsPresented,
		},
		{
			name:        "usps pay on delivery filtered when disabled",
			rma:         &entity.RmaRequest{RmaID: "rma-1", Status: status.StatusAuthorized, WarrantyEligible: true},
			uspsEnabled: false,
			wantPrepaid: true,
			wantRates:   1,
			wantStatus:  status.StatusLabelOptionsPresented,
		},
		{
			name:        "international goes self ship",
			rma:         &entity.RmaRequest{RmaID: "rma-1", Status: status.StatusAuthorized, WarrantyEligible: true, IsInternational: true},
			uspsEnabled: true,
			wantPrepaid: false,
			wantRates:   0,
			wantStatus:  status.StatusAwaitingCustomerShipment,
		},
		{
			name:        "out of warranty goes self ship",
			rma:         &entity.RmaRequest{RmaID: "rma-1", Status: status.StatusAuthorized, WarrantyEligible: false},
			uspsEnabled: true,
			wantPrepaid: false,
			wantRates:   0,
			wantStatus:  status.StatusAwaitingCustomerShipment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, rmaRepo, _, carrier, _ := newShippingFixture(tt.rma, ShippingConfig{USPSPayOnDeliveryEnabled: tt.uspsEnabled})
			carrier.getRatesFunc = func(ctx context.Context, rma *entity.RmaRequest) ([]port.LabelRate, error) {
				return rates, nil
			}

			opts, err := svc.Options(context.Background(), "rma-1")
			if err != nil {
				t.Fatalf("Options() error = %v", err)
			}
			if opts.PrepaidEligible != tt.wantPrepaid {
				t.Errorf("prepaid eligible = %v, want %v", opts.PrepaidEligible, tt.wantPrepaid)
			}
			if len(opts.Rates) != tt.wantRates {
				t.Errorf("rates = %d, want %d", len(opts.Rates), tt.wantRates)
			}
			if opts.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", opts.Status, tt.wantStatus)
			}
			if len(rmaRepo.casCalls) != 1 || rmaRepo.casCalls[0].to != tt.wantStatus {
				t.Errorf("status swaps = %v", rmaRepo.casCalls)
			}
		})
	}
}

func TestShippingService_PurchaseLabel(t *testing.T) {
	rma := &entity.RmaRequest{
		RmaID: "rma-1", Brand: "acme", OrderID: "ORD-1",
		Status: status.StatusLabelOptionsPresented, WarrantyEligible: true,
	}
	svc, rmaRepo, labelRepo, carrier, storage := newShippingFixture(rma, ShippingConfig{})
	carrier.buyLabelFunc = func(ctx context.Context, shipmentID, rateID string) (*port.PurchasedLabel, error) {
		return &port.PurchasedLabel{
			ShipmentID:     shipmentID,
			RateID:         rateID,
			Carrier:        "UPS",
			Service:        "Ground",
			TrackingNumber: "1Z999",
			LabelURL:       "https://carrier.example/label.pdf",
		}, nil
	}

	label, err := svc.PurchaseLabel(context.Background(), "rma-1", "shp-1", "r1")
	if err != nil {
		t.Fatalf("PurchaseLabel() error = %v", err)
	}
	if label.TrackingNumber != "1Z999" || label.BillingMode != entity.BillingModePrepaid {
		t.Errorf("label = %+v", label)
	}
	if labelRepo.upserted == nil {
		t.Fatal("label must be persisted")
	}
	if len(rmaRepo.casCalls) != 1 || rmaRepo.casCalls[0].to != status.StatusLabelIssued {
		t.Errorf("status swaps = %v", rmaRepo.casCalls)
	}

	stored := false
	for path := range storage.saved {
		if strings.Contains(path, "/labels/1Z999.pdf") {
			stored = true
		}
	}
	if !stored {
		t.Error("label document should be stored under the labels prefix")
	}
}

func TestShippingService_PurchaseLabel_RejectedWhenNotEligible(t *testing.T) {
	rma := &entity.RmaRequest{RmaID: "rma-1", Status: status.StatusAuthorized, IsInternational: true, WarrantyEligible: true}
	svc, _, _, _, _ := newShippingFixture(rma, ShippingConfig{})

	_, err := svc.PurchaseLabel(context.Background(), "rma-1", "shp-1", "r1")
	if !errors.Is(err, ErrPrepaidNotAvailable) {
		t.Errorf("PurchaseLabel() error = %v, want ErrPrepaidNotAvailable", err)
	}
}

func TestShippingService_PurchaseLabel_GuardsStatus(t *testing.T) {
	rma := &entity.RmaRequest{RmaID: "rma-1", Status: status.StatusNeedsReview, WarrantyEligible: true}
	svc, _, _, _, _ := newShippingFixture(rma, ShippingConfig{})

	_, err := svc.PurchaseLabel(context.Background(), "rma-1", "shp-1", "r1")
	if !errors.Is(err, status.ErrInvalidTransition) {
		t.Errorf("PurchaseLabel() error = %v, want invalid transition", err)
	}
}

func TestShippingService_RecordSelfShip(t *testing.T) {
	rma := &entity.RmaRequest{RmaID: "rma-1", Status: status.StatusAwaitingCustomerShipment}
	svc, rmaRepo, labelRepo, _, _ := newShippingFixture(rma, ShippingConfig{})

	label, err := svc.RecordSelfShip(context.Background(), "rma-1", "FedEx", "FX123")
	if err != nil {
		t.Fatalf("RecordSelfShip() error = %v", err)
	}
	if label.TrackingNumber != "FX123" || label.Carrier != "FedEx" {
		t.Errorf("label = %+v", label)
	}
	if labelRepo.upserted == nil {
		t.Fatal("tracking must be persisted")
	}
	if len(rmaRepo.casCalls) != 1 || rmaRepo.casCalls[0].to != status.StatusTrackingRecorded {
		t.Errorf("status swaps = %v", rmaRepo.casCalls)
	}
}

func TestShippingService_RecordSelfShip_RequiresTracking(t *testing.T) {
	rma := &entity.RmaRequest{RmaID: "rma-1", Status: status.StatusAuthorized}
	svc, _, _, _, _ := newShippingFixture(rma, ShippingConfig{})

	if _, err := svc.RecordSelfShip(context.Background(), "rma-1", "FedEx", ""); err == nil {
		t.Error("empty tracking number must be rejected")
	}
}
