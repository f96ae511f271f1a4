package handlers

import (
	"net/http"

	"kiosk_pos_backend/internal/middleware"
	"kiosk_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// CheckoutHandler drives review, payment and order commit for a kiosk session.
type CheckoutHandler struct {
	checkoutService services.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(cs services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: cs}
}

func (h *CheckoutHandler) Review(c *gin.Context) {
	view, err := h.checkoutService.Review(c.Request.Context(), middleware.SessionFromContext(c))
	if err != nil {
		respondServiceError(c, err, "Review: error from checkoutService.Review")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CheckoutHandler) BeginPayment(c *gin.Context) {
	view, err := h.checkoutService.BeginPayment(c.Request.Context(), middleware.SessionFromContext(c))
	if err != nil {
		respondServiceError(c, err, "BeginPayment: error from checkoutService.BeginPayment")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CheckoutHandler) Cancel(c *gin.Context) {
	view, err := h.checkoutService.Cancel(c.Request.Context(), middleware.SessionFromContext(c))
	if err != nil {
		respondServiceError(c, err, "Cancel: error from checkoutService.Cancel")
		return
	}
	c.JSON(http.StatusOK, view)
}

// Pay commits the order. 201 means the order is durable even when
// receipt_error is set.
func (h *CheckoutHandler) Pay(c *gin.Context) {
	var req services.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Pay")
		return
	}
	result, err := h.checkoutService.Pay(c.Request.Context(), middleware.SessionFromContext(c), req)
	if err != nil {
		respondServiceError(c, err, "Pay: error from checkoutService.Pay")
		return
	}
	c.JSON(http.StatusCreated, result)
}
