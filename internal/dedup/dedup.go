// Package dedup отбрасывает повторно доставленные события по их идентификатору.
package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Filter запоминает идентификаторы обработанных событий
type Filter interface {
	// Seen отмечает id как обработанный и сообщает, встречался ли он раньше
	Seen(ctx context.Context, id string) (bool, error)
}

// MemoryFilter - ограниченный по размеру фильтр в памяти.
// При переполнении вытесняются самые старые идентификаторы.
type MemoryFilter struct {
	mu    sync.Mutex
	size  int
	ids   map[string]struct{}
	order []string
	next  int
}

// NewMemoryFilter создает фильтр на size последних идентификаторов
func NewMemoryFilter(size int) *MemoryFilter {
	if size < 1 {
		size = 1
	}
	return &MemoryFilter{
		size:  size,
		ids:   make(map[string]struct{}, size),
		order: make([]string, 0, size),
	}
}

// Seen реализует Filter
func (f *MemoryFilter) Seen(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.ids[id]; ok {
		return true, nil
	}

	if len(f.order) < f.size {
		f.order = append(f.order, id)
	} else {
		delete(f.ids, f.order[f.next])
		f.order[f.next] = id
		f.next = (f.next + 1) % f.size
	}
	f.ids[id] = struct{}{}
	return false, nil
}

// RedisFilter - общий для всех районов фильтр на SETNX с TTL
type RedisFilter struct {
	redisClient *redis.Client
	prefix      string
	ttl         time.Duration
}

// NewRedisFilter создает RedisFilter
func NewRedisFilter(client *redis.Client, ttl time.Duration) *RedisFilter {
	return &RedisFilter{
		redisClient: client,
		prefix:      "urban:dedup:",
		ttl:         ttl,
	}
}

// Seen реализует Filter
func (f *RedisFilter) Seen(ctx context.Context, id string) (bool, error) {
	created, err := f.redisClient.SetNX(ctx, f.prefix+id, 1, f.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup: failed to mark event %s: %w", id, err)
	}
	return !created, nil
}
