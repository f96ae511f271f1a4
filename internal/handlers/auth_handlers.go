package handlers

import (
	"net/http"

	"kiosk_pos_backend/internal/middleware"
	"kiosk_pos_backend/internal/models"
	"kiosk_pos_backend/internal/services"
	"kiosk_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Login handles operator login.
func (h *AuthHandler) Login(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		respondBindError(c, err, "Login")
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), creds)
	if err != nil {
		respondServiceError(c, err, "Login: error from authService.Login")
		return
	}
	utils.LogInfo("Operator logged in", map[string]interface{}{"username": resp.User.Username})
	c.JSON(http.StatusOK, resp)
}

// GetCurrentUser returns the profile of the token's owner.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if actor == nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated", ""))
		return
	}
	user, err := h.authService.GetUserProfile(c.Request.Context(), actor.UserID)
	if err != nil {
		respondServiceError(c, err, "GetCurrentUser: error from authService.GetUserProfile")
		return
	}
	c.JSON(http.StatusOK, user)
}
