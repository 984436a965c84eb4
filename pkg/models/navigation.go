package models

import "time"

// Coordinates представляет географические координаты
type Coordinates struct {
	Lat float64 `json:"lat"` // Широта
	Lng float64 `json:"lng"` // Долгота
}

// RouteRequest представляет запрос на построение маршрута
type RouteRequest struct {
	Start Coordinates `json:"start"` // Начальная точка маршрута
	End   Coordinates `json:"end"`   // Конечная точка маршрута
}

// RouteResult представляет результат построения маршрута
type RouteResult struct {
	Path              []Coordinates `json:"path"`                // Точки маршрута от start до end
	CalculationTimeMs float64       `json:"calculation_time_ms"` // Время расчета в миллисекундах
	Source            string        `json:"-"`                   // Бэкенд, построивший маршрут (wasm/http/fallback)
	Cached            bool          `json:"-"`                   // Результат взят из кэша
}

// MetricsResponse представляет ответ с метриками сервиса
type MetricsResponse struct {
	UptimeSeconds         float64 `json:"uptime_seconds"`          // Время работы процесса
	RouteCalculationCount uint64  `json:"route_calculation_count"` // Общее количество запросов на расчет
	CacheHits             uint64  `json:"cache_hits"`              // Количество попаданий в кэш
	CacheSize             int     `json:"cache_size"`              // Текущий размер кэша
	UsingWasm             bool    `json:"using_wasm"`              // Используется ли WASM модуль
}

// HealthResponse представляет ответ проверки здоровья сервиса
type HealthResponse struct {
	Status           string `json:"status"`            // Статус сервиса (healthy/degraded)
	Backend          string `json:"backend"`           // Активный бэкенд расчета маршрутов
	BackendAvailable bool   `json:"backend_available"` // Загружен ли нативный бэкенд
	Version          string `json:"version"`           // Версия сервиса
}

// ErrorResponse представляет тело ответа с ошибкой
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// RouteRecord представляет запись истории построенных маршрутов
type RouteRecord struct {
	ID                string      `json:"id"`
	Start             Coordinates `json:"start"`
	End               Coordinates `json:"end"`
	PointsCount       int         `json:"points_count"`
	DistanceMeters    float64     `json:"distance_meters"`
	Source            string      `json:"source"`
	Cached            bool        `json:"cached"`
	CalculationTimeMs float64     `json:"calculation_time_ms"`
	CreatedAt         time.Time   `json:"created_at"`
}

// ListHistoryResponse ответ со списком записей истории
type ListHistoryResponse struct {
	Records []RouteRecord `json:"records"`
	Total   int64         `json:"total"`
	Page    int           `json:"page"`
	Size    int           `json:"size"`
}
