package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

// ErrPrepaidNotAvailable is returned when a label purchase is attempted for
// an RMA that only qualifies for self-ship
var ErrPrepaidNotAvailable = errors.New("prepaid label not available for this rma")

// ShippingConfig carries carrier policy toggles
type ShippingConfig struct {
	USPSPayOnDeliveryEnabled bool
}

// LabelOptions is the set of return shipping choices shown to the customer
type LabelOptions struct {
	PrepaidEligible bool             `json:"prepaid_eligible"`
	Rates           []port.LabelRate `json:"rates,omitempty"`
	SelfShipAllowed bool             `json:"self_ship_allowed"`
	Status          status.Status    `json:"status"`
}

// ShippingService presents label options and records how the unit ships back
type ShippingService interface {
	Options(ctx context.Context, rmaID string) (*LabelOptions, error)
	PurchaseLabel(ctx context.Context, rmaID, shipmentID, rateID string) (*entity.RmaLabel, error)
	RecordSelfShip(ctx context.Context, rmaID, carrier, trackingNumber string) (*entity.RmaLabel, error)
}

type shippingServiceImpl struct {
	rmaRepo   port.RmaRepository
	labelRepo port.LabelRepository
	auditRepo port.AuditRepository
	carrier   port.CarrierClient
	storage   port.FileStorage
	cfg       ShippingConfig
	logger    Logger
}

// NewShippingService creates a new ShippingService
func NewShippingService(
	rmaRepo port.RmaRepository,
	labelRepo port.LabelRepository,
	auditRepo port.AuditRepository,
	carrier port.CarrierClient,
	storage port.FileStorage,
	cfg ShippingConfig,
	logger Logger,
) ShippingService {
	return &shippingServiceImpl{
		rmaRepo:   rmaRepo,
		labelRepo: labelRepo,
		auditRepo: auditRepo,
		carrier:   carrier,
		storage:   storage,
		cfg:       cfg,
		logger:    logger,
	}
}

// prepaidEligible applies the label policy: international shipments and
// out-of-warranty units ship back at the customer's expense.
func prepaidEligible(rma *entity.RmaRequest) bool {
	return !rma.IsInternational && rma.WarrantyEligible
}

// Options returns the return shipping choices and moves the RMA out of
// AUTHORIZED into the matching waiting status
func (s *shippingServiceImpl) Options(ctx context.Context, rmaID string) (*LabelOptions, error) {
	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return nil, ErrRmaNotFound
	}
	if err := status.Assert(rma.Status, status.ActionShowLabelOptions); err != nil {
		return nil, err
	}

	opts := &LabelOptions{
		PrepaidEligible: prepaidEligible(rma),
		SelfShipAllowed: true,
		Status:          rma.Status,
	}

	if opts.PrepaidEligible {
		rates, rerr := s.carrier.GetRates(ctx, rma)
		if rerr != nil {
			s.logger.Error("Rate lookup failed", "error", rerr, "rma_id", rmaID)
			return nil, fmt.Errorf("get rates: %w", rerr)
		}
		for _, rate := range rates {
			if rate.BillingMode == entity.BillingModeUSPSPayOnDelivery && !s.cfg.USPSPayOnDeliveryEnabled {
				continue
			}
			opts.Rates = append(opts.Rates, rate)
		}
	}

	if rma.Status == status.StatusAuthorized {
		target := status.StatusLabelOptionsPresented
		if !opts.PrepaidEligible {
			target = status.StatusAwaitingCustomerShipment
		}
		swapped, serr := s.rmaRepo.CompareAndSwapStatus(ctx, rmaID, status.StatusAuthorized, target)
		if serr != nil {
			return nil, fmt.Errorf("update status: %w", serr)
		}
		if !swapped {
			return nil, ErrStatusConflict
		}
		opts.Status = target

		recordAudit(ctx, s.auditRepo, s.logger, rmaID, entity.EventLabelOptionsShown, entity.ActorSystem, map[string]any{
			"prepaid_eligible": opts.PrepaidEligible,
			"rate_count":       len(opts.Rates),
		})
	}

	return opts, nil
}

// PurchaseLabel buys the selected rate, stores the label document, and
// finishes the flow in LABEL_ISSUED
func (s *shippingServiceImpl) PurchaseLabel(ctx context.Context, rmaID, shipmentID, rateID string) (*entity.RmaLabel, error) {
	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return nil, ErrRmaNotFound
	}
	if err := status.Assert(rma.Status, status.ActionPurchaseLabel); err != nil {
		return nil, err
	}
	if !prepaidEligible(rma) {
		return nil, ErrPrepaidNotAvailable
	}

	purchased, err := s.carrier.BuyLabel(ctx, shipmentID, rateID)
	if err != nil {
		s.logger.Error("Label purchase failed", "error", err, "rma_id", rmaID, "rate_id", rateID)
		return nil, fmt.Errorf("buy label: %w", err)
	}

	now := time.Now().UTC()
	label := &entity.RmaLabel{
		RmaID:          rmaID,
		ShipmentID:     purchased.ShipmentID,
		RateID:         purchased.RateID,
		Carrier:        purchased.Carrier,
		Service:        purchased.Service,
		TrackingNumber: purchased.TrackingNumber,
		BillingMode:    entity.BillingModePrepaid,
		LabelCreatedAt: &now,
	}

	// Fetch and store the label document. A storage failure does not void
	// the purchase; the tracking number is already assigned.
	if purchased.LabelURL != "" {
		if content, derr := s.carrier.DownloadLabel(ctx, purchased.LabelURL); derr != nil {
			s.logger.Error("Label download failed", "error", derr, "rma_id", rmaID)
		} else {
			path := fmt.Sprintf("rma/%s/%s/%s/labels/%s.pdf", rma.Brand, rma.OrderID, rma.RmaID, purchased.TrackingNumber)
			if serr := s.storage.Save(ctx, path, content); serr != nil {
				s.logger.Error("Label store failed", "error", serr, "rma_id", rmaID, "path", path)
			} else {
				label.LabelFilePath = path
			}
		}
	}

	if err := s.labelRepo.Upsert(ctx, label); err != nil {
		return nil, fmt.Errorf("save label: %w", err)
	}

	swapped, err := s.rmaRepo.CompareAndSwapStatus(ctx, rmaID, rma.Status, status.StatusLabelIssued)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !swapped {
		return nil, ErrStatusConflict
	}

	recordAudit(ctx, s.auditRepo, s.logger, rmaID, entity.EventLabelPurchased, entity.ActorCustomer, map[string]any{
		"carrier":         purchased.Carrier,
		"service":         purchased.Service,
		"tracking_number": purchased.TrackingNumber,
	})

	s.logger.Info("Label purchased", "rma_id", rmaID, "carrier", purchased.Carrier, "tracking_number", purchased.TrackingNumber)
	return label, nil
}

// RecordSelfShip stores the customer's own tracking number and finishes the
// flow in TRACKING_RECORDED
func (s *shippingServiceImpl) RecordSelfShip(ctx context.Context, rmaID, carrier, trackingNumber string) (*entity.RmaLabel, error) {
	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return nil, ErrRmaNotFound
	}
	if err := status.Assert(rma.Status, status.ActionRecordSelfShip); err != nil {
		return nil, err
	}
	if trackingNumber == "" {
		return nil, errors.New("tracking number required")
	}

	label := &entity.RmaLabel{
		RmaID:          rmaID,
		Carrier:        carrier,
		TrackingNumber: trackingNumber,
	}
	if err := s.labelRepo.Upsert(ctx, label); err != nil {
		return nil, fmt.Errorf("save label: %w", err)
	}

	swapped, err := s.rmaRepo.CompareAndSwapStatus(ctx, rmaID, rma.Status, status.StatusTrackingRecorded)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !swapped {
		return nil, ErrStatusConflict
	}

	recordAudit(ctx, s.auditRepo, s.logger, rmaID, entity.EventTrackingRecorded, entity.ActorCustomer, map[string]any{
		"carrier":         carrier,
		"tracking_number": trackingNumber,
	})

	s.logger.Info("Self-ship tracking recorded", "rma_id", rmaID, "carrier", carrier, "tracking_number", trackingNumber)
	return label, nil
}
