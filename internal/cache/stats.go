package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ContentStats 单条内容的计数快照
type ContentStats struct {
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Saves    int64 `json:"saves"`
	Shares   int64 `json:"shares"`
	Views    int64 `json:"views"`
}

// StatsCache 按内容缓存计数。计数器变化只打掉这一个 key，绝不触达页缓存
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &StatsCache{client: client, ttl: ttl}
}

func statsKey(contentID string) string { return fmt.Sprintf("content:%s:stats", contentID) }

func (s *StatsCache) Get(ctx context.Context, contentID string) (*ContentStats, bool) {
	data, err := s.client.Get(ctx, statsKey(contentID)).Bytes()
	if err != nil {
		return nil, false
	}
	var stats ContentStats
	if json.Unmarshal(data, &stats) != nil {
		return nil, false
	}
	return &stats, true
}

func (s *StatsCache) Set(ctx context.Context, contentID string, stats ContentStats) {
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	_ = s.client.Set(ctx, statsKey(contentID), data, s.ttl).Err()
}

// Invalidate 计数器变化钩子调这里
func (s *StatsCache) Invalidate(ctx context.Context, contentID string) error {
	return s.client.Del(ctx, statsKey(contentID)).Err()
}
