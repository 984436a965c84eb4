// Package backend содержит варианты бэкенда поиска пути: нативный WASM модуль
// и всегда доступный резервный алгоритм интерполяции.
package backend

import (
	"context"
	"errors"

	"navi-route-go/pkg/models"
)

var (
	// ErrArtifactNotFound файл скомпилированного модуля отсутствует
	ErrArtifactNotFound = errors.New("backend artifact not found")
	// ErrLoad модуль поврежден или отклонен средой исполнения
	ErrLoad = errors.New("backend load error")
	// ErrCall ошибка вызова find_path: ловушка, таймаут или некорректный результат
	ErrCall = errors.New("backend call error")
)

// Backend интерфейс поиска пути между двумя точками
type Backend interface {
	// Name возвращает короткое имя бэкенда для логов и метрик
	Name() string
	// FindPath строит путь от start до end
	FindPath(ctx context.Context, start, end models.Coordinates) ([]models.Coordinates, error)
}

// Имена бэкендов
const (
	NameWasm     = "wasm"
	NameHTTP     = "http"
	NameFallback = "fallback"
)
