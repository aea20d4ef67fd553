package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/service"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
	"github.com/jeremygz0607/Customer-RMA-Portal/pkg/utils"
)

// Handlers contains the customer-facing HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// StartRma handles POST /api/rma
func (h *Handlers) StartRma(c *gin.Context) {
	var input service.StartRmaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if input.OrderID == "" || input.Email == "" || input.SKU == "" {
		badRequest(c, "order_id, email, and sku are required")
		return
	}
	if err := utils.ValidateEmail(input.Email); err != nil {
		badRequest(c, "invalid email address")
		return
	}

	result, err := h.services.Session.StartRma(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err, "failed to start rma")
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: result})
}

// GetSession handles GET /api/rma/session
func (h *Handlers) GetSession(c *gin.Context) {
	snapshot, err := h.services.Session.GetSession(c.Request.Context(), sessionRmaID(c))
	if err != nil {
		h.fail(c, err, "failed to load session")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: snapshot})
}

// TroubleshootingSnapshot handles GET /api/rma/troubleshooting
func (h *Handlers) TroubleshootingSnapshot(c *gin.Context) {
	snapshot, err := h.services.Troubleshooting.Snapshot(c.Request.Context(), sessionRmaID(c))
	if err != nil {
		h.fail(c, err, "failed to load troubleshooting")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: snapshot})
}

// SaveSymptoms handles POST /api/rma/troubleshooting/symptoms
func (h *Handlers) SaveSymptoms(c *gin.Context) {
	var body struct {
		Symptoms json.RawMessage `json:"symptoms"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || len(body.Symptoms) == 0 {
		badRequest(c, "symptoms payload required")
		return
	}

	if err := h.services.Troubleshooting.SaveSymptoms(c.Request.Context(), sessionRmaID(c), body.Symptoms); err != nil {
		h.fail(c, err, "failed to save symptoms")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// CompleteStep handles POST /api/rma/troubleshooting/steps/:stepId
func (h *Handlers) CompleteStep(c *gin.Context) {
	var body struct {
		Answer      string   `json:"answer"`
		EvidenceIDs []string `json:"evidence_ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.services.Troubleshooting.CompleteStep(
		c.Request.Context(), sessionRmaID(c), c.Param("stepId"), body.Answer, body.EvidenceIDs)
	if err != nil {
		h.fail(c, err, "failed to complete step")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// OptOut handles POST /api/rma/troubleshooting/opt-out
func (h *Handlers) OptOut(c *gin.Context) {
	if err := h.services.Troubleshooting.OptOut(c.Request.Context(), sessionRmaID(c)); err != nil {
		h.fail(c, err, "failed to opt out")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// Assist handles POST /api/rma/troubleshooting/assist
func (h *Handlers) Assist(c *gin.Context) {
	suggestion, err := h.services.Troubleshooting.Assist(c.Request.Context(), sessionRmaID(c))
	if err != nil {
		h.fail(c, err, "assist unavailable")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: suggestion})
}

// UploadEvidence handles POST /api/rma/evidence
func (h *Handlers) UploadEvidence(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file field required")
		return
	}
	if file.Size > service.MaxEvidenceSize {
		c.JSON(http.StatusRequestEntityTooLarge, Response{
			Success: false,
			Error:   "evidence file too large",
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		badRequest(c, "unreadable upload")
		return
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, service.MaxEvidenceSize+1))
	if err != nil {
		badRequest(c, "unreadable upload")
		return
	}

	record, err := h.services.Evidence.Upload(
		c.Request.Context(), sessionRmaID(c), file.Filename, file.Header.Get("Content-Type"), content)
	if err != nil {
		h.fail(c, err, "failed to upload evidence")
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: record})
}

// ListEvidence handles GET /api/rma/evidence
func (h *Handlers) ListEvidence(c *gin.Context) {
	records, err := h.services.Evidence.List(c.Request.Context(), sessionRmaID(c))
	if err != nil {
		h.fail(c, err, "failed to list evidence")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// GetTerms handles GET /api/rma/terms
func (h *Handlers) GetTerms(c *gin.Context) {
	terms, err := h.services.Terms.Terms(c.Request.Context(), sessionRmaID(c))
	if err != nil {
		h.fail(c, err, "failed to load terms")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: terms})
}

// AcceptTerms handles POST /api/rma/terms/accept
func (h *Handlers) AcceptTerms(c *gin.Context) {
	rma, err := h.services.Terms.Accept(
		c.Request.Context(), sessionRmaID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.fail(c, err, "failed to accept terms")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: rma})
}

// Authorize handles POST /api/rma/authorize
func (h *Handlers) Authorize(c *gin.Context) {
	result, err := h.services.Authorization.Authorize(c.Request.Context(), sessionRmaID(c))
	if err != nil {
		h.fail(c, err, "failed to authorize")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ShippingOptions handles GET /api/rma/shipping/options
func (h *Handlers) ShippingOptions(c *gin.Context) {
	options, err := h.services.Shipping.Options(c.Request.Context(), sessionRmaID(c))
	if err != nil {
		h.fail(c, err, "failed to load shipping options")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: options})
}

// PurchaseLabel handles POST /api/rma/shipping/label
func (h *Handlers) PurchaseLabel(c *gin.Context) {
	var body struct {
		ShipmentID string `json:"shipment_id"`
		RateID     string `json:"rate_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.ShipmentID == "" || body.RateID == "" {
		badRequest(c, "shipment_id and rate_id are required")
		return
	}

	label, err := h.services.Shipping.PurchaseLabel(c.Request.Context(), sessionRmaID(c), body.ShipmentID, body.RateID)
	if err != nil {
		h.fail(c, err, "failed to purchase label")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: label})
}

// RecordSelfShip handles POST /api/rma/shipping/self-ship
func (h *Handlers) RecordSelfShip(c *gin.Context) {
	var body struct {
		Carrier        string `json:"carrier"`
		TrackingNumber string `json:"tracking_number"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := utils.ValidateTrackingNumber(body.TrackingNumber); err != nil {
		badRequest(c, "invalid tracking number")
		return
	}

	label, err := h.services.Shipping.RecordSelfShip(c.Request.Context(), sessionRmaID(c), body.Carrier, body.TrackingNumber)
	if err != nil {
		h.fail(c, err, "failed to record tracking")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: label})
}

// CloseFixed handles POST /api/rma/close
func (h *Handlers) CloseFixed(c *gin.Context) {
	rma, err := h.services.Close.CloseFixed(c.Request.Context(), sessionRmaID(c))
	if err != nil {
		h.fail(c, err, "failed to close rma")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: rma})
}

// ReturnInstructions handles GET /api/rma/instructions
func (h *Handlers) ReturnInstructions(c *gin.Context) {
	docs, err := h.services.Documents.GenerateReturnInstructions(c.Request.Context(), sessionRmaID(c))
	if err != nil {
		h.fail(c, err, "failed to generate instructions")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: docs})
}

// fail maps service errors onto HTTP status codes
func (h *Handlers) fail(c *gin.Context, err error, logMsg string) {
	code := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, service.ErrRmaNotFound):
		code, msg = http.StatusNotFound, "rma not found"
	case errors.Is(err, service.ErrOwnershipNotVerified):
		code, msg = http.StatusForbidden, "order not found or email does not match"
	case errors.Is(err, status.ErrInvalidTransition):
		code, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrStatusConflict):
		code, msg = http.StatusConflict, "rma changed concurrently, reload and retry"
	case errors.Is(err, service.ErrPlaybookNotFound):
		code, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrUnknownStep):
		code, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrEvidenceTooLarge):
		code, msg = http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, service.ErrEvidenceTypeNotAllowed):
		code, msg = http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, service.ErrEvidenceUnreadable):
		code, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrPrepaidNotAvailable):
		code, msg = http.StatusConflict, err.Error()
	}

	if code == http.StatusInternalServerError {
		h.logger.Error(logMsg, "error", err, "rma_id", sessionRmaID(c))
	}

	c.JSON(code, Response{Success: false, Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}
