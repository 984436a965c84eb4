package model

import (
	"time"
)

// RouteRecord представляет запись истории построенных маршрутов в базе данных
type RouteRecord struct {
	ID          string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Fingerprint string  `gorm:"type:varchar(64);not null;index" json:"fingerprint"`
	StartLat    float64 `gorm:"not null" json:"start_lat"`
	StartLng    float64 `gorm:"not null" json:"start_lng"`
	EndLat      float64 `gorm:"not null" json:"end_lat"`
	EndLng      float64 `gorm:"not null" json:"end_lng"`

	// Результат расчета
	PointsCount       int     `gorm:"not null;default:0" json:"points_count"`
	DistanceMeters    float64 `gorm:"not null;default:0" json:"distance_meters"`
	Source            string  `gorm:"type:varchar(32);not null" json:"source"`
	Cached            bool    `gorm:"not null;default:false" json:"cached"`
	CalculationTimeMs float64 `gorm:"not null;default:0" json:"calculation_time_ms"`
	ClientIP          string  `gorm:"type:varchar(64)" json:"client_ip"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName указывает имя таблицы для RouteRecord
func (RouteRecord) TableName() string {
	return "route_history"
}
