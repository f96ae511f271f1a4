package handlers

import (
	"net/http"

	"kiosk_pos_backend/internal/models"
	"kiosk_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves the admin insights.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// GetInsights takes start_date and end_date as YYYY-MM-DD, both optional.
func (h *ReportHandler) GetInsights(c *gin.Context) {
	params := models.ReportRequestParams{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
	insights, err := h.reportService.GetInsights(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err, "GetInsights: error from reportService.GetInsights")
		return
	}
	c.JSON(http.StatusOK, insights)
}
