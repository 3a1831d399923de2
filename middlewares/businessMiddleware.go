package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/dealer_backend/utils"
)

const BusinessIdHeader = "business-id"

// BusinessMiddleware puts the business-id header into the request context. Requests without
// it are rejected; the session layer in front of this service is responsible for setting it.
func BusinessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId := strings.TrimSpace(c.Request.Header.Get(BusinessIdHeader))
		if businessId == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "business id is required"})
			return
		}
		ctx := utils.SetBusinessIdInContext(c.Request.Context(), businessId)
		if user := strings.TrimSpace(c.Request.Header.Get("x-user-name")); user != "" {
			ctx = utils.SetUserNameInContext(ctx, user)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
