package handlers

import (
	"net/http"

	"kiosk_pos_backend/internal/models"
	"kiosk_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService services.AuditService
}

func NewAuditHandler(as services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: as}
}

func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	var filters models.AuditLogFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondBindError(c, err, "GetAuditLogs")
		return
	}
	normalizePage(&filters.Page, &filters.PageSize)
	logs, total, err := h.auditService.List(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetAuditLogs: error from auditService.List")
		return
	}
	c.JSON(http.StatusOK, pageResponse(logs, total, filters.Page, filters.PageSize))
}
