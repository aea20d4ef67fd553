package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
)

// Client implements port.TicketingClient against the HubSpot CRM API. All
// calls here are off the critical path; callers log failures and move on.
type Client struct {
	baseURL    string
	token      string
	pipelineID string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds HubSpot client configuration
type Config struct {
	BaseURL    string
	Token      string
	PipelineID string
}

// NewClient creates a new HubSpot client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.hubapi.com"
	}

	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		pipelineID: cfg.PipelineID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type ticketProperties struct {
	Subject  string `json:"subject"`
	Content  string `json:"content"`
	Pipeline string `json:"hs_pipeline,omitempty"`
	Stage    string `json:"hs_pipeline_stage,omitempty"`
}

// EnsureTicket creates a support ticket and contact for the RMA and returns
// their ids
func (c *Client) EnsureTicket(ctx context.Context, rma *entity.RmaRequest, email string) (*port.TicketContact, error) {
	contactID, err := c.upsertContact(ctx, email)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"properties": ticketProperties{
			Subject:  fmt.Sprintf("RMA %s - %s", rma.RmaID, rma.SKU),
			Content:  fmt.Sprintf("Return request for order %s, item %s.", rma.OrderID, rma.OrderItemID),
			Pipeline: c.pipelineID,
		},
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/crm/v3/objects/tickets", body, &created); err != nil {
		c.logger.Error("Failed to create ticket", zap.String("rma_id", rma.RmaID), zap.Error(err))
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	c.logger.Info("Ticket created",
		zap.String("rma_id", rma.RmaID),
		zap.String("ticket_id", created.ID))

	return &port.TicketContact{TicketID: created.ID, ContactID: contactID}, nil
}

// UpdateStage moves the ticket to a new pipeline stage
func (c *Client) UpdateStage(ctx context.Context, ticketID, stage string) error {
	body := map[string]interface{}{
		"properties": map[string]string{"hs_pipeline_stage": stage},
	}

	if err := c.patch(ctx, "/crm/v3/objects/tickets/"+ticketID, body, nil); err != nil {
		c.logger.Error("Failed to update ticket stage",
			zap.String("ticket_id", ticketID),
			zap.String("stage", stage),
			zap.Error(err))
		return fmt.Errorf("failed to update ticket stage: %w", err)
	}

	return nil
}

// AddNote attaches a note to the ticket
func (c *Client) AddNote(ctx context.Context, ticketID, note string) error {
	body := map[string]interface{}{
		"properties": map[string]string{
			"hs_note_body": note,
			"hs_timestamp": fmt.Sprintf("%d", time.Now().UnixMilli()),
		},
		"associations": []map[string]interface{}{
			{
				"to": map[string]string{"id": ticketID},
				"types": []map[string]interface{}{
					{"associationCategory": "HUBSPOT_DEFINED", "associationTypeId": 228},
				},
			},
		},
	}

	if err := c.post(ctx, "/crm/v3/objects/notes", body, nil); err != nil {
		c.logger.Error("Failed to add note", zap.String("ticket_id", ticketID), zap.Error(err))
		return fmt.Errorf("failed to add note: %w", err)
	}

	return nil
}

func (c *Client) upsertContact(ctx context.Context, email string) (string, error) {
	body := map[string]interface{}{
		"properties": map[string]string{"email": email},
	}

	var created struct {
		ID string `json:"id"`
	}
	err := c.post(ctx, "/crm/v3/objects/contacts", body, &created)
	if err != nil {
		// Conflict means the contact already exists; not fatal for the RMA
		c.logger.Warn("Contact upsert failed", zap.Error(err))
		return "", nil
	}

	return created.ID, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
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
var _ port.TicketingClient = (*Client)(nil)
