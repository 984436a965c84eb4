package repository

import (
	"context"
	"fmt"

	"navi-route-go/internal/model"

	"gorm.io/gorm"
)

// RouteHistoryRepository интерфейс для работы с историей маршрутов
type RouteHistoryRepository interface {
	Create(ctx context.Context, record *model.RouteRecord) error
	List(ctx context.Context, page, pageSize int) ([]*model.RouteRecord, int64, error)
}

// routeHistoryRepository реализация RouteHistoryRepository
type routeHistoryRepository struct {
	db *gorm.DB
}

// NewRouteHistoryRepository создает новый instance RouteHistoryRepository
func NewRouteHistoryRepository(db *gorm.DB) RouteHistoryRepository {
	return &routeHistoryRepository{
		db: db,
	}
}

// Create сохраняет запись о построенном маршруте
func (r *routeHistoryRepository) Create(ctx context.Context, record *model.RouteRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create route record: %w", err)
	}
	return nil
}

// List получает историю маршрутов с пагинацией, новые записи первыми
func (r *routeHistoryRepository) List(ctx context.Context, page, pageSize int) ([]*model.RouteRecord, int64, error) {
	var records []*model.RouteRecord
	var total int64

	db := r.db.WithContext(ctx)

	if err := db.Model(&model.RouteRecord{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count route records: %w", err)
	}

	offset := (page - 1) * pageSize
	err := db.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list route records: %w", err)
	}

	return records, total, nil
}
