package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Entry 一个固定 key 的 JSON 缓存项
type Entry[T any] struct {
	c   *Cache
	key string
	ttl time.Duration
}

func NewEntry[T any](c *Cache, key string, ttl time.Duration) Entry[T] {
	return Entry[T]{c: c, key: key, ttl: ttl}
}

func (e Entry[T]) Key() string { return e.key }

// Load 命中直接解码；未命中回源后写入。零值（nil 切片等）按 "null" 缓存，
// 空结果也不会反复击穿
func (e Entry[T]) Load(ctx context.Context, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	b, err := e.c.GetOrLoad(ctx, e.key, e.ttl, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		// 缓存内容损坏时删掉，下次回源
		e.c.Invalidate(ctx, e.key)
		return zero, err
	}
	return out, nil
}

func (e Entry[T]) Invalidate(ctx context.Context) { e.c.Invalidate(ctx, e.key) }
