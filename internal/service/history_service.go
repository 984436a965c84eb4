package service

import (
	"context"
	"fmt"

	"navi-route-go/internal/cache"
	"navi-route-go/internal/geo"
	"navi-route-go/internal/model"
	"navi-route-go/internal/repository"
	"navi-route-go/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// HistoryService сервис для работы с историей построенных маршрутов
type HistoryService struct {
	repo    repository.RouteHistoryRepository
	geoCalc *geo.Calculator
	logger  *logrus.Logger
}

// NewHistoryService создает новый сервис истории маршрутов
func NewHistoryService(repo repository.RouteHistoryRepository, geoCalc *geo.Calculator, logger *logrus.Logger) *HistoryService {
	return &HistoryService{
		repo:    repo,
		geoCalc: geoCalc,
		logger:  logger,
	}
}

// Record сохраняет запись о построенном маршруте.
// Ошибки только логируются: история не влияет на ответ клиенту.
func (s *HistoryService) Record(ctx context.Context, req models.RouteRequest, result models.RouteResult, clientIP string) {
	record := &model.RouteRecord{
		ID:                uuid.New().String(),
		Fingerprint:       cache.Fingerprint(req),
		StartLat:          req.Start.Lat,
		StartLng:          req.Start.Lng,
		EndLat:            req.End.Lat,
		EndLng:            req.End.Lng,
		PointsCount:       len(result.Path),
		DistanceMeters:    s.geoCalc.PathLengthMeters(result.Path),
		Source:            result.Source,
		Cached:            result.Cached,
		CalculationTimeMs: result.CalculationTimeMs,
		ClientIP:          clientIP,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Errorf("Ошибка сохранения маршрута %s в историю: %v", record.ID, err)
		return
	}

	s.logger.Debugf("Маршрут %s сохранен в историю (%d точек, %.0f м)", record.ID, record.PointsCount, record.DistanceMeters)
}

// List получает страницу истории маршрутов
func (s *HistoryService) List(ctx context.Context, page, pageSize int) ([]models.RouteRecord, int64, error) {
	s.logger.Infof("Получаем историю маршрутов: страница %d, размер %d", page, pageSize)

	records, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		s.logger.Errorf("Ошибка получения истории маршрутов: %v", err)
		return nil, 0, fmt.Errorf("failed to list route history: %w", err)
	}

	responses := make([]models.RouteRecord, len(records))
	for i, record := range records {
		responses[i] = modelToResponse(record)
	}

	return responses, total, nil
}

// modelToResponse преобразует модель базы данных в ответ API
func modelToResponse(record *model.RouteRecord) models.RouteRecord {
	return models.RouteRecord{
		ID:                record.ID,
		Start:             models.Coordinates{Lat: record.StartLat, Lng: record.StartLng},
		End:               models.Coordinates{Lat: record.EndLat, Lng: record.EndLng},
		PointsCount:       record.PointsCount,
		DistanceMeters:    record.DistanceMeters,
		Source:            record.Source,
		Cached:            record.Cached,
		CalculationTimeMs: record.CalculationTimeMs,
		CreatedAt:         record.CreatedAt,
	}
}
