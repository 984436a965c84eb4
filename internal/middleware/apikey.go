package middleware

import (
	"crypto/subtle"
	"net/http"

	"navi-route-go/pkg/models"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader заголовок с ключом API
const APIKeyHeader = "X-API-Key"

// APIKey проверяет ключ API. Пустой expected отключает проверку
func APIKey(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}

		key := c.GetHeader(APIKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Detail: "API Key is missing"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Detail: "Invalid API Key"})
			return
		}

		c.Next()
	}
}
