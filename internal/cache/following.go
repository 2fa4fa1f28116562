package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/feedgraph/internal/repository"
)

// FollowingCache keeps each viewer's accepted following-id set as a Redis list
// with a short TTL, rebuilt from the follow edges on miss. The pull model and
// the reel social score both read from here instead of hitting the edge table
// on every request.
type FollowingCache struct {
	client *redis.Client
	repo   repository.FollowRepository
	ttl    time.Duration
}

func NewFollowingCache(client *redis.Client, repo repository.FollowRepository, ttl time.Duration) *FollowingCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &FollowingCache{client: client, repo: repo, ttl: ttl}
}

func followingKey(userID string) string { return fmt.Sprintf("following:%s", userID) }

// IDs returns the viewer's accepted followee ids, rebuilding the index on miss.
func (c *FollowingCache) IDs(ctx context.Context, userID string) ([]string, error) {
	key := followingKey(userID)
	exists, _ := c.client.Exists(ctx, key).Result()
	if exists > 0 {
		ids, err := c.client.LRange(ctx, key, 0, -1).Result()
		if err == nil {
			return ids, nil
		}
	}
	return c.rebuild(ctx, userID)
}

func (c *FollowingCache) rebuild(ctx context.Context, userID string) ([]string, error) {
	ids, err := c.repo.ListFollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	key := followingKey(userID)
	if len(ids) > 0 {
		pipe := c.client.Pipeline()
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, interfaceSlice(ids)...)
		pipe.Expire(ctx, key, c.ttl)
		_, _ = pipe.Exec(ctx)
	}
	return ids, nil
}

// Invalidate 关注图变化时删除索引（影响的是 following 索引，不是页缓存）
func (c *FollowingCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, followingKey(userID)).Err()
}

func interfaceSlice(strs []string) []interface{} {
	result := make([]interface{}, len(strs))
	for i, s := range strs {
		result[i] = s
	}
	return result
}
