package middleware

import (
	"errors"
	"net/http"

	"navi-route-go/internal/ratelimit"
	"navi-route-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// RateLimitMessage текст ответа при превышении лимита
const RateLimitMessage = "Rate limit exceeded"

// RateLimit ограничивает частоту запросов по IP клиента.
// rejected может быть nil.
func RateLimit(limiter *ratelimit.Limiter, rejected prometheus.Counter, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		if err := limiter.Allow(clientIP); err != nil {
			if !errors.Is(err, ratelimit.ErrRateLimitExceeded) {
				logger.Errorf("Ошибка проверки лимита запросов: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Detail: InternalErrorMessage})
				return
			}

			if rejected != nil {
				rejected.Inc()
			}
			logger.Warnf("Превышен лимит запросов для %s", clientIP)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{Detail: RateLimitMessage})
			return
		}

		c.Next()
	}
}
