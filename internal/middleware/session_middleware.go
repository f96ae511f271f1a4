package middleware

import (
	"net/http"

	"kiosk_pos_backend/internal/services"
	"kiosk_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SessionHeader carries the kiosk session id on every kiosk request.
const SessionHeader = "X-Kiosk-Session"

const contextSession = "kioskSession"

// SessionMiddleware resolves the kiosk session named by SessionHeader.
func SessionMiddleware(store *services.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if id == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, SessionHeader+" header required", ""))
			return
		}
		sess, err := store.Get(id)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeSessionNotFound, "Kiosk session not found. Start a new session.", err.Error()))
			return
		}
		c.Set(contextSession, sess)
		c.Next()
	}
}

// SessionFromContext returns the session resolved by SessionMiddleware.
func SessionFromContext(c *gin.Context) *services.Session {
	v, ok := c.Get(contextSession)
	if !ok {
		return nil
	}
	sess, _ := v.(*services.Session)
	return sess
}
