package handlers

import (
	"net/http"

	"kiosk_pos_backend/internal/middleware"
	"kiosk_pos_backend/internal/models"
	"kiosk_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// StockHandler serves stock edits and the stock movement ledger.
type StockHandler struct {
	stockService services.StockService
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(ss services.StockService) *StockHandler {
	return &StockHandler{stockService: ss}
}

// AdjustStock sets an absolute stock value. A negative value is clamped to 0
// and the response carries a warning.
func (h *StockHandler) AdjustStock(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req models.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "AdjustStock")
		return
	}
	adj, err := h.stockService.AdjustStock(c.Request.Context(), middleware.ActorFromContext(c), id, *req.Stock)
	if err != nil {
		respondServiceError(c, err, "AdjustStock: error from stockService.AdjustStock")
		return
	}
	c.JSON(http.StatusOK, adj)
}

func (h *StockHandler) GetMovements(c *gin.Context) {
	var filters models.StockMovementFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondBindError(c, err, "GetMovements")
		return
	}
	normalizePage(&filters.Page, &filters.PageSize)
	movements, total, err := h.stockService.ListMovements(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetMovements: error from stockService.ListMovements")
		return
	}
	c.JSON(http.StatusOK, pageResponse(movements, total, filters.Page, filters.PageSize))
}
