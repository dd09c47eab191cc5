package middleware

import (
	"net/http"

	"workflow/internal/model"
	"workflow/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireCapability rejects sessions whose role lacks capability.
func RequireCapability(capability model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := SessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required."))
			return
		}
		if !model.Can(claims.Role, capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied."))
			return
		}
		c.Next()
	}
}
