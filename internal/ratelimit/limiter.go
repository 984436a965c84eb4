package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
)

// ErrRateLimitExceeded клиент исчерпал лимит запросов в текущем окне
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

const (
	// DefaultWindow длина скользящего окна
	DefaultWindow = time.Minute
	// DefaultSweepInterval период очистки пустых окон
	DefaultSweepInterval = time.Minute
)

// Limiter ограничивает число запросов от клиента в скользящем окне.
// Для каждого клиента хранятся отметки времени принятых запросов.
type Limiter struct {
	limit  int
	window time.Duration

	clock         clock.Clock
	logger        *logrus.Logger
	sweepInterval time.Duration

	mu      sync.Mutex
	windows map[string][]time.Time

	stop chan struct{}
	done chan struct{}
}

// Option настройка лимитера
type Option func(*Limiter)

// WithClock задает источник времени
func WithClock(c clock.Clock) Option {
	return func(l *Limiter) { l.clock = c }
}

// WithLogger задает логгер
func WithLogger(logger *logrus.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// WithSweepInterval задает период фоновой очистки
func WithSweepInterval(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.sweepInterval = d
		}
	}
}

// New создает лимитер на limit запросов за window. limit <= 0 отключает ограничение
func New(limit int, window time.Duration, opts ...Option) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}

	l := &Limiter{
		limit:         limit,
		window:        window,
		clock:         clock.New(),
		sweepInterval: DefaultSweepInterval,
		windows:       make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logrus.StandardLogger()
	}
	return l
}

// Enabled сообщает, действует ли ограничение
func (l *Limiter) Enabled() bool {
	return l.limit > 0
}

// Allow проверяет запрос клиента в текущий момент времени
func (l *Limiter) Allow(clientID string) error {
	return l.Admit(clientID, l.clock.Now())
}

// Admit принимает или отклоняет запрос клиента clientID в момент now.
// Отклоненный запрос в окне не учитывается.
func (l *Limiter) Admit(clientID string, now time.Time) error {
	if !l.Enabled() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamps := prune(l.windows[clientID], now, l.window)
	if len(timestamps) >= l.limit {
		l.windows[clientID] = timestamps
		return ErrRateLimitExceeded
	}

	l.windows[clientID] = append(timestamps, now)
	return nil
}

// prune оставляет отметки, попадающие в окно. Отметки упорядочены по возрастанию
func prune(timestamps []time.Time, now time.Time, window time.Duration) []time.Time {
	i := 0
	for i < len(timestamps) && now.Sub(timestamps[i]) >= window {
		i++
	}
	if i == 0 {
		return timestamps
	}
	return append(timestamps[:0], timestamps[i:]...)
}

// Sweep удаляет окна клиентов без актуальных запросов. Возвращает число удаленных
func (l *Limiter) Sweep() int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for clientID, timestamps := range l.windows {
		timestamps = prune(timestamps, now, l.window)
		if len(timestamps) == 0 {
			delete(l.windows, clientID)
			removed++
			continue
		}
		l.windows[clientID] = timestamps
	}
	return removed
}

// Clients возвращает число отслеживаемых клиентов
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Start запускает фоновую очистку. Останавливается по Stop или отмене ctx
func (l *Limiter) Start(ctx context.Context) {
	l.mu.Lock()
	if l.stop != nil {
		l.mu.Unlock()
		return
	}
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	stop, done := l.stop, l.done
	l.mu.Unlock()

	ticker := l.clock.Ticker(l.sweepInterval)
	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if removed := l.Sweep(); removed > 0 {
					l.logger.Debugf("Очищено окон rate limit: %d", removed)
				}
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop останавливает фоновую очистку и ждет завершения
func (l *Limiter) Stop() {
	l.mu.Lock()
	stop, done := l.stop, l.done
	l.stop, l.done = nil, nil
	l.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
