package middleware

import (
	"net/http"

	"navi-route-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// InternalErrorMessage текст ответа на непредвиденную ошибку
const InternalErrorMessage = "An unexpected error occurred. Please try again later."

// Recovery перехватывает панику в обработчике и отвечает 500 без подробностей
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, err any) {
		logger.WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
		}).Errorf("Необработанная ошибка: %v", err)

		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Detail: InternalErrorMessage})
	})
}
