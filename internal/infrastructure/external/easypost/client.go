package easypost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
)

// Client implements port.CarrierClient against the EasyPost shipping API.
type Client struct {
	baseURL    string
	apiKey     string
	returnAddr Address
	httpClient *http.Client
	logger     *zap.Logger
}

// Address is the warehouse return destination for all inbound RMA shipments.
type Address struct {
	Name    string
	Street1 string
	City    string
	State   string
	Zip     string
	Country string
}

// Config holds EasyPost client configuration
type Config struct {
	BaseURL       string
	APIKey        string
	ReturnAddress Address
}

// NewClient creates a new EasyPost client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.easypost.com/v2"
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		returnAddr: cfg.ReturnAddress,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		logger:     logger,
	}
}

type apiAddress struct {
	Name    string `json:"name,omitempty"`
	Street1 string `json:"street1"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type apiRate struct {
	ID       string `json:"id"`
	Carrier  string `json:"carrier"`
	Service  string `json:"service"`
	Rate     string `json:"rate"`
	Currency string `json:"currency"`
}

type apiShipment struct {
	ID           string    `json:"id"`
	Rates        []apiRate `json:"rates"`
	TrackingCode string    `json:"tracking_code"`
	PostageLabel *struct {
		LabelURL string `json:"label_url"`
	} `json:"postage_label"`
	SelectedRate *apiRate `json:"selected_rate"`
}

// GetRates creates a shipment from the customer's address to the return
// warehouse and returns the carrier rates on it
func (c *Client) GetRates(ctx context.Context, rma *entity.RmaRequest) ([]port.LabelRate, error) {
	body := map[string]interface{}{
		"shipment": map[string]interface{}{
			"from_address": apiAddress{
				Street1: rma.ShipStreet,
				City:    rma.ShipCity,
				State:   rma.ShipState,
				Zip:     rma.ShipZip,
				Country: rma.ShipCountry,
			},
			"to_address": apiAddress{
				Name:    c.returnAddr.Name,
				Street1: c.returnAddr.Street1,
				City:    c.returnAddr.City,
				State:   c.returnAddr.State,
				Zip:     c.returnAddr.Zip,
				Country: c.returnAddr.Country,
			},
			"parcel": map[string]interface{}{
				"weight": 32.0,
			},
		},
	}

	var shipment apiShipment
	if err := c.post(ctx, "/shipments", body, &shipment); err != nil {
		c.logger.Error("Failed to create shipment", zap.String("rma_id", rma.RmaID), zap.Error(err))
		return nil, fmt.Errorf("failed to create shipment: %w", err)
	}

	rates := make([]port.LabelRate, 0, len(shipment.Rates))
	for _, r := range shipment.Rates {
		cents, err := parseCents(r.Rate)
		if err != nil {
			c.logger.Warn("Skipping rate with unparseable amount",
				zap.String("rate_id", r.ID),
				zap.String("amount", r.Rate))
			continue
		}
		rates = append(rates, port.LabelRate{
			RateID:      r.ID,
			ShipmentID:  shipment.ID,
			Carrier:     r.Carrier,
			Service:     r.Service,
			AmountCents: cents,
			Currency:    r.Currency,
			BillingMode: billingMode(r.Carrier),
		})
	}

	c.logger.Info("Rates retrieved",
		zap.String("rma_id", rma.RmaID),
		zap.String("shipment_id", shipment.ID),
		zap.Int("count", len(rates)))

	return rates, nil
}

// BuyLabel purchases the selected rate on the shipment
func (c *Client) BuyLabel(ctx context.Context, shipmentID, rateID string) (*port.PurchasedLabel, error) {
	body := map[string]interface{}{
		"rate": map[string]string{"id": rateID},
	}

	var shipment apiShipment
	if err := c.post(ctx, "/shipments/"+shipmentID+"/buy", body, &shipment); err != nil {
		c.logger.Error("Failed to buy label",
			zap.String("shipment_id", shipmentID),
			zap.String("rate_id", rateID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to buy label: %w", err)
	}

	label := &port.PurchasedLabel{
		ShipmentID:     shipment.ID,
		RateID:         rateID,
		TrackingNumber: shipment.TrackingCode,
	}
	if shipment.SelectedRate != nil {
		label.Carrier = shipment.SelectedRate.Carrier
		label.Service = shipment.SelectedRate.Service
	}
	if shipment.PostageLabel != nil {
		label.LabelURL = shipment.PostageLabel.LabelURL
	}

	c.logger.Info("Label purchased",
		zap.String("shipment_id", shipment.ID),
		zap.String("tracking_number", label.TrackingNumber))

	return label, nil
}

// DownloadLabel fetches the label document bytes
func (c *Client) DownloadLabel(ctx context.Context, labelURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, labelURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download label: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download label: status=%d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func billingMode(carrier string) string {
	if carrier == "USPS" {
		return entity.BillingModeUSPSPayOnDelivery
	}
	return entity.BillingModePrepaid
}

func parseCents(amount string) (int64, error) {
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0, err
	}
	return int64(v*100 + 0.5), nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("API error: status=%d body=%s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Verify interface compliance
var _ port.CarrierClient = (*Client)(nil)
