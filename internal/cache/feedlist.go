package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/feedgraph/internal/model"
)

// FeedList is the bounded, per-user candidate id list maintained by fan-out.
// It is a cache of candidates, never a source of truth: entries may be missing
// (eviction, cold start) and the assembler falls back to the pull model.
type FeedList struct {
	client  *redis.Client
	postCap int64
	reelCap int64
}

func NewFeedList(client *redis.Client, postCap, reelCap int) *FeedList {
	if postCap <= 0 {
		postCap = 500
	}
	if reelCap <= 0 {
		reelCap = 200
	}
	return &FeedList{client: client, postCap: int64(postCap), reelCap: int64(reelCap)}
}

func (f *FeedList) key(userID string, kind model.ContentKind) string {
	return fmt.Sprintf("feedlist:%s:%s", kind, userID)
}

func (f *FeedList) cap(kind model.ContentKind) int64 {
	if kind == model.KindReel {
		return f.reelCap
	}
	return f.postCap
}

// Push front-pushes contentID and trims the list to its cap in one pipeline,
// so another job's push to the same key cannot interleave between the two.
// Duplicate ids are tolerated: a re-run fan-out pushes the same id again and
// the assembler dedupes at hydration. We deliberately do not sweep for them.
func (f *FeedList) Push(ctx context.Context, userID string, kind model.ContentKind, contentID string) error {
	key := f.key(userID, kind)
	pipe := f.client.TxPipeline()
	pipe.LPush(ctx, key, contentID)
	pipe.LTrim(ctx, key, 0, f.cap(kind)-1)
	_, err := pipe.Exec(ctx)
	return err
}

// Range reads ids [offset, offset+limit). Empty result means cold/short list.
func (f *FeedList) Range(ctx context.Context, userID string, kind model.ContentKind, offset, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	start := int64(offset)
	stop := start + int64(limit) - 1
	return f.client.LRange(ctx, f.key(userID, kind), start, stop).Result()
}

func (f *FeedList) Len(ctx context.Context, userID string, kind model.ContentKind) (int64, error) {
	return f.client.LLen(ctx, f.key(userID, kind)).Result()
}

func (f *FeedList) Clear(ctx context.Context, userID string, kind model.ContentKind) error {
	return f.client.Del(ctx, f.key(userID, kind)).Err()
}

// Cap exposes the configured bound for a kind (tests assert the invariant).
func (f *FeedList) Cap(kind model.ContentKind) int64 { return f.cap(kind) }
