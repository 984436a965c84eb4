package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"navi-route-go/internal/backend"
	"navi-route-go/internal/cache"
	"navi-route-go/internal/geo"
	"navi-route-go/internal/metrics"
	"navi-route-go/pkg/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultBackendTimeout ограничение времени вызова нативного бэкенда по умолчанию
const DefaultBackendTimeout = 2 * time.Second

// Причины перехода на резервный алгоритм
const (
	reasonTimeout       = "timeout"
	reasonCallError     = "call_error"
	reasonInvalidResult = "invalid_result"
)

// NavigationService сервис построения маршрутов.
// Нативный бэкенд только ускоритель: при его отсутствии или ошибке маршрут
// всегда строится резервным алгоритмом.
type NavigationService struct {
	native   backend.Backend
	fallback *backend.Fallback
	cache    cache.Cache
	metrics  *metrics.Metrics
	logger   *logrus.Logger
	timeout  time.Duration

	flights singleflight.Group

	calculationCount atomic.Uint64
	cacheHits        atomic.Uint64
}

// NewNavigationService создает сервис. native может быть nil, если бэкенд недоступен
func NewNavigationService(
	native backend.Backend,
	fallback *backend.Fallback,
	c cache.Cache,
	m *metrics.Metrics,
	logger *logrus.Logger,
	timeout time.Duration,
) *NavigationService {
	if timeout <= 0 {
		timeout = DefaultBackendTimeout
	}
	return &NavigationService{
		native:   native,
		fallback: fallback,
		cache:    c,
		metrics:  m,
		logger:   logger,
		timeout:  timeout,
	}
}

// ComputeRoute строит маршрут от req.Start до req.End. Никогда не завершается ошибкой
func (s *NavigationService) ComputeRoute(ctx context.Context, req models.RouteRequest) models.RouteResult {
	s.calculationCount.Add(1)
	s.metrics.RouteCalculations.Inc()

	fingerprint := cache.Fingerprint(req)

	if cached, ok := s.cache.Get(fingerprint); ok {
		s.cacheHits.Add(1)
		s.metrics.CacheHits.Inc()
		// время расчета остается записанным при первом вычислении
		cached.Path = slices.Clone(cached.Path)
		cached.Cached = true
		return cached
	}
	s.metrics.CacheMisses.Inc()

	v, _, shared := s.flights.Do(fingerprint, func() (interface{}, error) {
		// отмена одного клиента не должна ухудшать результат для остальных участников
		result := s.calculate(context.WithoutCancel(ctx), req)
		s.cache.Put(fingerprint, result)
		return result, nil
	})
	if shared {
		s.logger.Debugf("Маршрут %s рассчитан в рамках общего запроса", fingerprint[:12])
	}

	result := v.(models.RouteResult)
	result.Path = slices.Clone(result.Path)
	return result
}

// calculate выполняет шаги вычисления без кэша: нативный бэкенд, затем резервный алгоритм
func (s *NavigationService) calculate(ctx context.Context, req models.RouteRequest) models.RouteResult {
	startTime := time.Now()

	if s.native != nil {
		path, err := s.callNative(ctx, req)
		if err == nil {
			return s.finish(path, s.native.Name(), startTime)
		}

		reason := failureReason(err)
		s.metrics.BackendFailures.WithLabelValues(s.native.Name(), reason).Inc()
		s.logger.WithFields(logrus.Fields{
			"backend": s.native.Name(),
			"reason":  reason,
		}).Warnf("Ошибка нативного бэкенда, используем резервный алгоритм: %v", err)
	}

	path := s.fallback.Interpolate(req.Start, req.End)
	return s.finish(path, s.fallback.Name(), startTime)
}

func (s *NavigationService) callNative(ctx context.Context, req models.RouteRequest) (path []models.Coordinates, err error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			path, err = nil, fmt.Errorf("%w: panic: %v", backend.ErrCall, r)
		}
	}()

	path, err = s.native.FindPath(callCtx, req.Start, req.End)
	if err != nil {
		if ctxErr := callCtx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return nil, errors.Join(err, ctxErr)
		}
		return nil, err
	}

	if err := validatePath(path); err != nil {
		return nil, err
	}
	return path, nil
}

func (s *NavigationService) finish(path []models.Coordinates, source string, startTime time.Time) models.RouteResult {
	elapsed := time.Since(startTime)
	s.metrics.CalculationTime.WithLabelValues(source).Observe(elapsed.Seconds())

	return models.RouteResult{
		Path:              path,
		CalculationTimeMs: float64(elapsed.Nanoseconds()) / float64(time.Millisecond),
		Source:            source,
	}
}

// Stats возвращает счетчики сервиса
func (s *NavigationService) Stats() Stats {
	backendName := backend.NameFallback
	if s.native != nil {
		backendName = s.native.Name()
	}

	return Stats{
		CalculationCount: s.calculationCount.Load(),
		CacheHits:        s.cacheHits.Load(),
		CacheSize:        s.cache.Len(),
		Backend:          backendName,
		UsingWasm:        backendName == backend.NameWasm,
	}
}

// BackendAvailable сообщает, загружен ли нативный бэкенд
func (s *NavigationService) BackendAvailable() bool {
	return s.native != nil
}

var errInvalidResult = errors.New("invalid backend result")

func validatePath(path []models.Coordinates) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: %w: empty path", backend.ErrCall, errInvalidResult)
	}
	for i, p := range path {
		if !geo.ValidCoordinates(p) {
			return fmt.Errorf("%w: %w: point %d out of range", backend.ErrCall, errInvalidResult, i)
		}
	}
	return nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return reasonTimeout
	case errors.Is(err, errInvalidResult):
		return reasonInvalidResult
	default:
		return reasonCallError
	}
}
