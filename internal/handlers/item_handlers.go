package handlers

import (
	"net/http"

	"kiosk_pos_backend/internal/middleware"
	"kiosk_pos_backend/internal/models"
	"kiosk_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// ItemHandler serves the catalog to the kiosk and to admins.
type ItemHandler struct {
	itemService services.ItemService
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(is services.ItemService) *ItemHandler {
	return &ItemHandler{itemService: is}
}

// --- Categories ---

func (h *ItemHandler) CreateCategory(c *gin.Context) {
	var req services.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateCategory")
		return
	}
	category, err := h.itemService.CreateCategory(c.Request.Context(), middleware.ActorFromContext(c), req)
	if err != nil {
		respondServiceError(c, err, "CreateCategory: error from itemService.CreateCategory")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *ItemHandler) GetCategories(c *gin.Context) {
	categories, err := h.itemService.GetCategories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetCategories: error from itemService.GetCategories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *ItemHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.itemService.DeleteCategory(c.Request.Context(), middleware.ActorFromContext(c), id); err != nil {
		respondServiceError(c, err, "DeleteCategory: error from itemService.DeleteCategory")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Items ---

func (h *ItemHandler) CreateItem(c *gin.Context) {
	var req models.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateItem")
		return
	}
	item, err := h.itemService.CreateItem(c.Request.Context(), middleware.ActorFromContext(c), req)
	if err != nil {
		respondServiceError(c, err, "CreateItem: error from itemService.CreateItem")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItems lists the whole catalog, inactive items included.
func (h *ItemHandler) GetItems(c *gin.Context) {
	var filters models.ItemFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondBindError(c, err, "GetItems")
		return
	}
	h.listItems(c, filters)
}

// GetKioskItems lists only what a customer can add to the cart.
func (h *ItemHandler) GetKioskItems(c *gin.Context) {
	var filters models.ItemFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondBindError(c, err, "GetKioskItems")
		return
	}
	filters.ActiveOnly = true
	h.listItems(c, filters)
}

func (h *ItemHandler) listItems(c *gin.Context, filters models.ItemFilters) {
	items, err := h.itemService.GetItems(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetItems: error from itemService.GetItems")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *ItemHandler) GetItemByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, err := h.itemService.GetItemByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetItemByID: error from itemService.GetItemByID")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) UpdateItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateItem")
		return
	}
	item, err := h.itemService.UpdateItem(c.Request.Context(), middleware.ActorFromContext(c), id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateItem: error from itemService.UpdateItem")
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem deactivates the item; order history keeps referencing it.
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.itemService.DeleteItem(c.Request.Context(), middleware.ActorFromContext(c), id); err != nil {
		respondServiceError(c, err, "DeleteItem: error from itemService.DeleteItem")
		return
	}
	c.Status(http.StatusNoContent)
}
