package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/service"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

// AdminHandlers contains the agent console HTTP request handlers
type AdminHandlers struct {
	adminService service.AdminService
	logger       Logger
}

// NewAdminHandlers creates a new AdminHandlers instance
func NewAdminHandlers(adminService service.AdminService, logger Logger) *AdminHandlers {
	return &AdminHandlers{
		adminService: adminService,
		logger:       logger,
	}
}

// queueFilter builds a queue filter from query parameters
func queueFilter(c *gin.Context) port.QueueFilter {
	var filter port.QueueFilter

	if st := c.Query("status"); st != "" {
		filter.Status = status.Status(st)
	}
	if days, err := strconv.Atoi(c.Query("days")); err == nil && days > 0 {
		filter.Days = days
	}
	if v := c.Query("international"); v != "" {
		b := v == "true"
		filter.IsInternational = &b
	}
	if v := c.Query("out_of_warranty"); v != "" {
		b := v == "true"
		filter.OutOfWarranty = &b
	}

	return filter
}

// Queue handles GET /api/admin/rmas
func (h *AdminHandlers) Queue(c *gin.Context) {
	items, err := h.adminService.Queue(c.Request.Context(), queueFilter(c))
	if err != nil {
		h.logger.Error("Failed to list queue", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to list queue"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: items})
}

// ExportQueue handles GET /api/admin/rmas/export
func (h *AdminHandlers) ExportQueue(c *gin.Context) {
	data, err := h.adminService.ExportQueue(c.Request.Context(), queueFilter(c))
	if err != nil {
		h.logger.Error("Failed to export queue", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to export queue"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="rma_queue.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// Detail handles GET /api/admin/rmas/:rmaId
func (h *AdminHandlers) Detail(c *gin.Context) {
	detail, err := h.adminService.Detail(c.Request.Context(), c.Param("rmaId"))
	if err != nil {
		if errors.Is(err, service.ErrRmaNotFound) {
			c.JSON(http.StatusNotFound, Response{Success: false, Error: "rma not found"})
			return
		}
		h.logger.Error("Failed to load rma detail", "error", err, "rma_id", c.Param("rmaId"))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to load rma"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: detail})
}

// OverrideRequest is the agent override payload
type OverrideRequest struct {
	AgentID string `json:"agent_id"`
	To      string `json:"to"`
	Reason  string `json:"reason"`
}

// Override handles POST /api/admin/rmas/:rmaId/override
func (h *AdminHandlers) Override(c *gin.Context) {
	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	rma, err := h.adminService.Override(
		c.Request.Context(), c.Param("rmaId"), req.AgentID, status.Status(req.To), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRmaNotFound):
			c.JSON(http.StatusNotFound, Response{Success: false, Error: "rma not found"})
		case errors.Is(err, service.ErrAgentRequired),
			errors.Is(err, service.ErrOverrideReasonRequired),
			errors.Is(err, service.ErrInvalidTargetStatus):
			badRequest(c, err.Error())
		default:
			h.logger.Error("Override failed", "error", err, "rma_id", c.Param("rmaId"))
			c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "override failed"})
		}
		return
	}

	h.logger.Info("Status overridden",
		"rma_id", rma.RmaID,
		"agent_id", req.AgentID,
		"new_status", string(rma.Status))

	c.JSON(http.StatusOK, Response{Success: true, Data: rma})
}

// FeedbackRequest is the agent feedback payload
type FeedbackRequest struct {
	AgentID string `json:"agent_id"`
	Comment string `json:"comment"`
}

// Feedback handles POST /api/admin/rmas/:rmaId/feedback
func (h *AdminHandlers) Feedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := h.adminService.Feedback(c.Request.Context(), c.Param("rmaId"), req.AgentID, req.Comment); err != nil {
		if errors.Is(err, service.ErrRmaNotFound) {
			c.JSON(http.StatusNotFound, Response{Success: false, Error: "rma not found"})
			return
		}
		badRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// UpsertPlaybookRequest is the playbook publish payload
type UpsertPlaybookRequest struct {
	Steps []entity.PlaybookStep `json:"steps"`
}

// UpsertPlaybook handles PUT /api/admin/playbooks/:skuGroup
func (h *AdminHandlers) UpsertPlaybook(c *gin.Context) {
	var req UpsertPlaybookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	version, err := h.adminService.UpsertPlaybook(c.Request.Context(), c.Param("skuGroup"), req.Steps)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"sku_group_name": c.Param("skuGroup"), "version": version},
	})
}
