package cache

import (
	"encoding/hex"
	"strconv"
	"strings"
	"sync"

	"navi-route-go/pkg/models"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/minio/sha256-simd"
)

// Cache кэш результатов построения маршрутов по отпечатку запроса
type Cache interface {
	Get(fingerprint string) (models.RouteResult, bool)
	Put(fingerprint string, result models.RouteResult)
	Len() int
}

// New создает кэш. size > 0 ограничивает кэш политикой LRU,
// size <= 0 дает неограниченный кэш без вытеснения.
func New(size int) Cache {
	if size <= 0 {
		return newUnbounded()
	}

	// lru.New возвращает ошибку только для size <= 0
	c, _ := lru.New[string, models.RouteResult](size)
	return &lruCache{entries: c}
}

// Fingerprint вычисляет отпечаток запроса: SHA-256 от десятичной записи четырех координат.
// Каждое число записывается кратчайшим точным представлением, поэтому разные
// координаты никогда не дают одинаковый текст.
func Fingerprint(req models.RouteRequest) string {
	var b strings.Builder
	b.Grow(96)
	writeFloat(&b, req.Start.Lat)
	b.WriteByte(',')
	writeFloat(&b, req.Start.Lng)
	b.WriteByte(';')
	writeFloat(&b, req.End.Lat)
	b.WriteByte(',')
	writeFloat(&b, req.End.Lng)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func writeFloat(b *strings.Builder, v float64) {
	b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
}

type lruCache struct {
	entries *lru.Cache[string, models.RouteResult]
}

func (c *lruCache) Get(fingerprint string) (models.RouteResult, bool) {
	return c.entries.Get(fingerprint)
}

func (c *lruCache) Put(fingerprint string, result models.RouteResult) {
	c.entries.Add(fingerprint, result)
}

func (c *lruCache) Len() int {
	return c.entries.Len()
}

type unboundedCache struct {
	mu      sync.RWMutex
	entries map[string]models.RouteResult
}

func newUnbounded() *unboundedCache {
	return &unboundedCache{entries: make(map[string]models.RouteResult)}
}

func (c *unboundedCache) Get(fingerprint string) (models.RouteResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[fingerprint]
	return r, ok
}

func (c *unboundedCache) Put(fingerprint string, result models.RouteResult) {
	c.mu.Lock()
	c.entries[fingerprint] = result
	c.mu.Unlock()
}

func (c *unboundedCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
