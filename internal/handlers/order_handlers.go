package handlers

import (
	"net/http"

	"kiosk_pos_backend/internal/middleware"
	"kiosk_pos_backend/internal/models"
	"kiosk_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// GetOrders handles fetching orders with filters. Voided orders are hidden
// unless include_voided=true.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var filters models.OrderFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondBindError(c, err, "GetOrders")
		return
	}
	normalizePage(&filters.Page, &filters.PageSize)

	orders, total, err := h.orderService.GetOrders(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetOrders: error from orderService.GetOrders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, pageResponse(orders, total, filters.Page, filters.PageSize))
}

// GetOrderByID handles fetching a single order with its lines.
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrderByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetOrderByID: error from orderService.GetOrderByID")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) VoidOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.VoidOrder(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		respondServiceError(c, err, "VoidOrder: error from orderService.VoidOrder")
		return
	}
	c.JSON(http.StatusOK, order)
}
