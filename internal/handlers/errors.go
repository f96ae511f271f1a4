package handlers

import (
	"errors"
	"net/http"

	"kiosk_pos_backend/internal/services"
	"kiosk_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// apiErrorFor maps a service error to the response the client sees.
func apiErrorFor(err error) *utils.APIError {
	switch {
	case errors.Is(err, services.ErrCommitFailure):
		return utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeCommitFailure, "The order could not be saved. Nothing was charged; please try again.", "")
	case errors.Is(err, services.ErrStockExceeded):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeStockExceeded, "Not enough stock for this item.", err.Error())
	case errors.Is(err, services.ErrEmptyCart):
		return utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeEmptyCart, "The cart is empty.", err.Error())
	case errors.Is(err, services.ErrCartAlreadyEmpty):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeCartAlreadyEmpty, "The cart is already empty.", err.Error())
	case errors.Is(err, services.ErrNothingToUndo):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeNothingToUndo, "Nothing to undo.", err.Error())
	case errors.Is(err, services.ErrInsufficientPayment):
		return utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeInsufficientPayment, "Amount given is less than the total.", err.Error())
	case errors.Is(err, services.ErrCheckoutInProgress), errors.Is(err, services.ErrInvalidCheckoutState):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeCheckoutState, "Action not allowed at this checkout step.", err.Error())
	case errors.Is(err, services.ErrSessionNotFound):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeSessionNotFound, "Kiosk session not found.", err.Error())
	case errors.Is(err, services.ErrInvalidPaymentMethod), errors.Is(err, services.ErrValidation):
		return utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Input validation failed.", err.Error())
	case errors.Is(err, services.ErrItemNotFound):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Item not found.", err.Error())
	case errors.Is(err, services.ErrCategoryNotFound):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Category not found.", err.Error())
	case errors.Is(err, services.ErrOrderNotFound):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", err.Error())
	case errors.Is(err, services.ErrCategoryInUse):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Category still has items.", err.Error())
	case errors.Is(err, services.ErrCategoryConflict), errors.Is(err, services.ErrItemNameConflict), errors.Is(err, services.ErrUserExists):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Name already exists.", err.Error())
	case errors.Is(err, services.ErrOrderAlreadyVoided):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Order is already voided.", err.Error())
	case errors.Is(err, services.ErrAccountLocked):
		return utils.NewAPIError(http.StatusLocked, utils.ErrCodeAccountLocked, "Account is temporarily locked.", err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid username or password.", "")
	}
	return utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal error.", "")
}

// respondServiceError logs err under op and writes the mapped response.
func respondServiceError(c *gin.Context, err error, op string) {
	apiErr := apiErrorFor(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		utils.LogError(err, op, map[string]interface{}{"path": c.FullPath()})
	} else {
		utils.LogDebug(op, map[string]interface{}{"path": c.FullPath(), "error": err.Error()})
	}
	utils.RespondWithError(c, apiErr)
}

func respondBindError(c *gin.Context, err error, op string) {
	utils.LogDebug(op+": failed to bind request", map[string]interface{}{"error": err.Error()})
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
}

// parseIDParam reads a positive int64 path parameter and responds 400 otherwise.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param(name))
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", c.Param(name)))
		return 0, false
	}
	return id, true
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// normalizePage applies the same defaults the repositories use.
func normalizePage(page, pageSize *int) {
	if *page < 1 {
		*page = 1
	}
	if *pageSize < 1 || *pageSize > maxPageSize {
		*pageSize = defaultPageSize
	}
}

func pageResponse(data interface{}, total, page, pageSize int) gin.H {
	return gin.H{
		"data":      data,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	}
}
