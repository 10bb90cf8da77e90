package cache

import (
	"context"
	"time"
)

const dedupPrefix = "webhook:mid:"

// Deduplicator отсекает повторные доставки входящих сообщений по их mid.
type Deduplicator struct {
	cache *Cache
	ttl   time.Duration
}

// NewDeduplicator создаёт Deduplicator с временем хранения ttl.
func NewDeduplicator(c *Cache, ttl time.Duration) *Deduplicator {
	return &Deduplicator{cache: c, ttl: ttl}
}

// FirstSeen возвращает true, если событие с этим ключом встречается впервые.
// Пустой ключ всегда считается новым.
func (d *Deduplicator) FirstSeen(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	return d.cache.Reserve(ctx, dedupPrefix+key, d.ttl)
}
