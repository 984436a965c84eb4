package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"navi-route-go/internal/service"
	"navi-route-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Version версия API
const Version = "1.0.0"

// coordinatesBody координаты в теле запроса. Указатели отличают отсутствующее поле от нуля
type coordinatesBody struct {
	Lat *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" binding:"required,gte=-180,lte=180"`
}

type routeRequestBody struct {
	Start *coordinatesBody `json:"start" binding:"required"`
	End   *coordinatesBody `json:"end" binding:"required"`
}

func (b routeRequestBody) toModel() models.RouteRequest {
	return models.RouteRequest{
		Start: models.Coordinates{Lat: *b.Start.Lat, Lng: *b.Start.Lng},
		End:   models.Coordinates{Lat: *b.End.Lat, Lng: *b.End.Lng},
	}
}

// NavigationHandler обрабатывает HTTP запросы навигации
type NavigationHandler struct {
	navigation *service.NavigationService
	history    *service.HistoryService
	logger     *logrus.Logger
	startedAt  time.Time
}

// NewNavigationHandler создает новый экземпляр NavigationHandler. history может быть nil
func NewNavigationHandler(navigation *service.NavigationService, history *service.HistoryService, logger *logrus.Logger) *NavigationHandler {
	return &NavigationHandler{
		navigation: navigation,
		history:    history,
		logger:     logger,
		startedAt:  time.Now(),
	}
}

// RegisterRoutes регистрирует маршруты API. auth применяется к построению маршрута
func (h *NavigationHandler) RegisterRoutes(api *gin.RouterGroup, auth gin.HandlerFunc) {
	api.POST("/navigation/route", auth, h.FindRoute)
	if h.history != nil {
		api.GET("/navigation/history", auth, h.ListHistory)
	}
	api.GET("/metrics", h.GetMetrics)
	api.GET("/health", h.CheckHealth)
}

// FindRoute строит маршрут между двумя точками
func (h *NavigationHandler) FindRoute(c *gin.Context) {
	var body routeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		status, detail := bindingError(err)
		h.logger.Warnf("Некорректный запрос на построение маршрута: %v", err)
		c.JSON(status, models.ErrorResponse{Detail: detail})
		return
	}

	req := body.toModel()
	result := h.navigation.ComputeRoute(c.Request.Context(), req)

	h.logger.WithFields(logrus.Fields{
		"points": len(result.Path),
		"source": result.Source,
		"cached": result.Cached,
	}).Debugf("Маршрут построен за %.3f мс", result.CalculationTimeMs)

	if h.history != nil {
		h.history.Record(c.Request.Context(), req, result, c.ClientIP())
	}

	c.JSON(http.StatusOK, result)
}

// bindingError сопоставляет ошибку разбора тела с кодом ответа
func bindingError(err error) (int, string) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusUnprocessableEntity, "Invalid coordinates: " + validationErrs.Error()
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return http.StatusUnprocessableEntity, "Invalid coordinates: field " + typeErr.Field + " must be a number"
	}

	return http.StatusBadRequest, "Malformed JSON body"
}

// ListHistory возвращает историю построенных маршрутов с пагинацией
func (h *NavigationHandler) ListHistory(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 || size > 100 {
		size = 10
	}

	records, total, err := h.history.List(c.Request.Context(), page, size)
	if err != nil {
		h.logger.Errorf("Ошибка получения истории маршрутов: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Failed to load route history"})
		return
	}

	c.JSON(http.StatusOK, models.ListHistoryResponse{
		Records: records,
		Total:   total,
		Page:    page,
		Size:    size,
	})
}

// GetMetrics возвращает счетчики сервиса
func (h *NavigationHandler) GetMetrics(c *gin.Context) {
	stats := h.navigation.Stats()

	c.JSON(http.StatusOK, models.MetricsResponse{
		UptimeSeconds:         time.Since(h.startedAt).Seconds(),
		RouteCalculationCount: stats.CalculationCount,
		CacheHits:             stats.CacheHits,
		CacheSize:             stats.CacheSize,
		UsingWasm:             stats.UsingWasm,
	})
}

// CheckHealth проверяет состояние сервиса.
// Без нативного бэкенда сервис продолжает работать на резервном алгоритме.
func (h *NavigationHandler) CheckHealth(c *gin.Context) {
	stats := h.navigation.Stats()

	status := "healthy"
	if !h.navigation.BackendAvailable() {
		status = "degraded"
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:           status,
		Backend:          stats.Backend,
		BackendAvailable: h.navigation.BackendAvailable(),
		Version:          Version,
	})
}
