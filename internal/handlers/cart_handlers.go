package handlers

import (
	"net/http"

	"kiosk_pos_backend/internal/middleware"
	"kiosk_pos_backend/internal/services"
	"kiosk_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type addToCartRequest struct {
	ItemID int64 `json:"item_id" binding:"required,gt=0"`
}

type changeQuantityRequest struct {
	Delta *int `json:"delta" binding:"required"`
}

// CartHandler serves the kiosk session and its cart.
type CartHandler struct {
	sessions    *services.SessionStore
	cartService services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(sessions *services.SessionStore, cs services.CartService) *CartHandler {
	return &CartHandler{sessions: sessions, cartService: cs}
}

// CreateSession starts a new kiosk session with an empty cart.
func (h *CartHandler) CreateSession(c *gin.Context) {
	sess := h.sessions.Create()
	c.JSON(http.StatusCreated, h.cartService.View(c.Request.Context(), sess))
}

// EndSession drops the session and everything in it.
func (h *CartHandler) EndSession(c *gin.Context) {
	sess := middleware.SessionFromContext(c)
	h.cartService.Reset(c.Request.Context(), sess)
	h.sessions.Delete(sess.ID)
	utils.LogDebug("Kiosk session ended", map[string]interface{}{"session_id": sess.ID})
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartService.View(c.Request.Context(), middleware.SessionFromContext(c)))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "AddItem")
		return
	}
	view, err := h.cartService.AddItem(c.Request.Context(), middleware.SessionFromContext(c), req.ItemID)
	if err != nil {
		respondServiceError(c, err, "AddItem: error from cartService.AddItem")
		return
	}
	c.JSON(http.StatusOK, view)
}

// ChangeQuantity applies a signed delta to one cart line.
func (h *CartHandler) ChangeQuantity(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req changeQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "ChangeQuantity")
		return
	}
	view, err := h.cartService.ChangeQuantity(c.Request.Context(), middleware.SessionFromContext(c), itemID, *req.Delta)
	if err != nil {
		respondServiceError(c, err, "ChangeQuantity: error from cartService.ChangeQuantity")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.cartService.RemoveItem(c.Request.Context(), middleware.SessionFromContext(c), itemID)
	if err != nil {
		respondServiceError(c, err, "RemoveItem: error from cartService.RemoveItem")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	view, err := h.cartService.Clear(c.Request.Context(), middleware.SessionFromContext(c))
	if err != nil {
		respondServiceError(c, err, "ClearCart: error from cartService.Clear")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CartHandler) Undo(c *gin.Context) {
	view, err := h.cartService.Undo(c.Request.Context(), middleware.SessionFromContext(c))
	if err != nil {
		respondServiceError(c, err, "Undo: error from cartService.Undo")
		return
	}
	c.JSON(http.StatusOK, view)
}
