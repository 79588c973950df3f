package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UMS-P-2025/coursework-service/internal/services"
	"github.com/UMS-P-2025/coursework-service/internal/utils"
)

// AdminHandler exposes the faculty approval workflow.
type AdminHandler struct {
	BaseHandler
	approvalService services.ApprovalService
}

func NewAdminHandler(approvalService services.ApprovalService, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:     NewBaseHandler(logger),
		approvalService: approvalService,
	}
}

// ListPendingFaculty returns pending faculty requests, oldest first.
func (h *AdminHandler) ListPendingFaculty(c *gin.Context) {
	accounts, err := h.approvalService.ListPending(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Data: accounts})
}

func (h *AdminHandler) ApproveFaculty(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Approving faculty", "account_id", id)

	account, err := h.approvalService.Approve(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Faculty approved",
		Data:    account,
	})
}

func (h *AdminHandler) RejectFaculty(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Rejecting faculty", "account_id", id)

	account, err := h.approvalService.Reject(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Faculty rejected",
		Data:    account,
	})
}
