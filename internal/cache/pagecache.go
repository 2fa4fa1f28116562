package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/feedgraph/internal/model"
)

// PageCache 整页响应缓存。短 TTL + 发布时按用户模式失效；
// 计数器变化不触达它（允许 TTL 内读到旧计数）
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &PageCache{client: client, ttl: ttl}
}

func pageKey(kind model.ContentKind, userID string, page, limit int) string {
	return fmt.Sprintf("feedpage:%s:%s:%d:%d", kind, userID, page, limit)
}

// Get unmarshals a cached page into out; ok=false on miss or decode failure.
func (p *PageCache) Get(ctx context.Context, kind model.ContentKind, userID string, page, limit int, out interface{}) bool {
	data, err := p.client.Get(ctx, pageKey(kind, userID, page, limit)).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// Set 写入失败只降级不报错（缓存不可用不应影响读路径）
func (p *PageCache) Set(ctx context.Context, kind model.ContentKind, userID string, page, limit int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = p.client.Set(ctx, pageKey(kind, userID, page, limit), data, p.ttl).Err()
}

// InvalidateUser 删除该用户两条 feed 的所有缓存页（SCAN 游标，避免 KEYS 阻塞）
func (p *PageCache) InvalidateUser(ctx context.Context, userID string) error {
	for _, kind := range []model.ContentKind{model.KindPost, model.KindReel} {
		pattern := fmt.Sprintf("feedpage:%s:%s:*", kind, userID)
		var cursor uint64
		for {
			keys, next, err := p.client.Scan(ctx, cursor, pattern, 100).Result()
			if err != nil {
				return err
			}
			if len(keys) > 0 {
				if err := p.client.Del(ctx, keys...).Err(); err != nil {
					return err
				}
			}
			cursor = next
			if cursor == 0 {
				break
			}
		}
	}
	return nil
}
