package middlewares

import (
	"context"
	"net/http"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/gin-gonic/gin"
)

// SessionMiddleware resolves the opaque session token minted by
// models.Authenticate. A missing token passes through; route handlers decide
// whether the request needs a client identity.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		clientId, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), utils.ContextKeyToken, token)
		ctx = context.WithValue(ctx, utils.ContextKeyUsername, clientId)

		var client models.ApiClient
		if cached, err := config.GetRedisObject("ApiClient:"+clientId, &client); err == nil && cached {
			ctx = utils.SetIsAdminInContext(ctx, client.IsAdmin != nil && *client.IsAdmin)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
