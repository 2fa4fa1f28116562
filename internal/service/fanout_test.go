package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/feedgraph/internal/cache"
	"github.com/d60-Lab/feedgraph/internal/model"
	"github.com/d60-Lab/feedgraph/internal/repository"
)

func TestFanoutDeliversToEveryFan(t *testing.T) {
	db := newTestDB(t)
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	fanRepo := repository.NewFanRepository(db)
	eventRepo := repository.NewPublishEventRepository(db)
	feedList := cache.NewFeedList(rdb, 500, 200)
	pageCache := cache.NewPageCache(rdb, time.Minute)

	for _, fan := range []string{"f1", "f2", "f3"} {
		require.NoError(t, fanRepo.Create(ctx, "author", fan))
	}
	// f1 已有一页缓存，扇出后必须失效
	pageCache.Set(ctx, model.KindPost, "f1", 1, 20, map[string]int{"stale": 1})

	require.NoError(t, eventRepo.Enqueue(ctx, nil, "author", "post-1", model.KindPost))

	w := NewFanoutWorker(eventRepo, fanRepo, feedList, pageCache, 1, 500, 64, 3, time.Millisecond)
	require.NoError(t, w.ProcessOnce(ctx))

	for _, fan := range []string{"f1", "f2", "f3"} {
		ids, err := feedList.Range(ctx, fan, model.KindPost, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"post-1"}, ids, "fan %s", fan)
	}

	var out map[string]int
	assert.False(t, pageCache.Get(ctx, model.KindPost, "f1", 1, 20, &out))

	var ev model.PublishEvent
	require.NoError(t, db.Where("content_id = ?", "post-1").First(&ev).Error)
	assert.Equal(t, model.EventStatusDone, ev.Status)
	assert.Equal(t, int64(3), ev.FanoutCount)
	assert.NotNil(t, ev.ProcessedAt)
}

func TestFanoutKeepsListsBounded(t *testing.T) {
	db := newTestDB(t)
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	fanRepo := repository.NewFanRepository(db)
	eventRepo := repository.NewPublishEventRepository(db)
	feedList := cache.NewFeedList(rdb, 3, 2)
	pageCache := cache.NewPageCache(rdb, time.Minute)

	require.NoError(t, fanRepo.Create(ctx, "author", "f1"))
	for i := 0; i < 6; i++ {
		require.NoError(t, eventRepo.Enqueue(ctx, nil, "author", fmt.Sprintf("post-%d", i), model.KindPost))
		require.NoError(t, eventRepo.Enqueue(ctx, nil, "author", fmt.Sprintf("reel-%d", i), model.KindReel))
	}

	w := NewFanoutWorker(eventRepo, fanRepo, feedList, pageCache, 1, 500, 64, 3, time.Millisecond)
	require.NoError(t, w.ProcessOnce(ctx))

	np, _ := feedList.Len(ctx, "f1", model.KindPost)
	nr, _ := feedList.Len(ctx, "f1", model.KindReel)
	assert.Equal(t, int64(3), np)
	assert.Equal(t, int64(2), nr)
}

func TestFanoutZeroFansCompletes(t *testing.T) {
	db := newTestDB(t)
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	fanRepo := repository.NewFanRepository(db)
	eventRepo := repository.NewPublishEventRepository(db)
	w := NewFanoutWorker(eventRepo, fanRepo,
		cache.NewFeedList(rdb, 500, 200), cache.NewPageCache(rdb, time.Minute),
		1, 500, 64, 3, time.Millisecond)

	require.NoError(t, eventRepo.Enqueue(ctx, nil, "loner", "post-1", model.KindPost))
	require.NoError(t, w.ProcessOnce(ctx))

	var ev model.PublishEvent
	require.NoError(t, db.Where("content_id = ?", "post-1").First(&ev).Error)
	assert.Equal(t, model.EventStatusDone, ev.Status)
	assert.Zero(t, ev.FanoutCount)
}

func TestFanoutRetriesThenFails(t *testing.T) {
	db := newTestDB(t)
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	fanRepo := repository.NewFanRepository(db)
	eventRepo := repository.NewPublishEventRepository(db)
	w := NewFanoutWorker(eventRepo, fanRepo,
		cache.NewFeedList(rdb, 500, 200), cache.NewPageCache(rdb, time.Minute),
		1, 500, 64, 3, time.Millisecond)

	require.NoError(t, fanRepo.Create(ctx, "author", "f1"))
	require.NoError(t, eventRepo.Enqueue(ctx, nil, "author", "post-1", model.KindPost))

	// 列表存储不可用：事件在预算内反复回 pending，预算耗尽进 failed
	mr.Close()
	for i := 0; i < 3; i++ {
		require.NoError(t, w.ProcessOnce(ctx))
	}

	var ev model.PublishEvent
	require.NoError(t, db.Where("content_id = ?", "post-1").First(&ev).Error)
	assert.Equal(t, model.EventStatusFailed, ev.Status)
	assert.Equal(t, 3, ev.Attempts)
}

func TestFanoutEnqueueIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	eventRepo := repository.NewPublishEventRepository(db)

	require.NoError(t, eventRepo.Enqueue(ctx, nil, "author", "post-1", model.KindPost))
	require.NoError(t, eventRepo.Enqueue(ctx, nil, "author", "post-1", model.KindPost))

	var cnt int64
	db.Model(&model.PublishEvent{}).Where("content_id = ?", "post-1").Count(&cnt)
	assert.Equal(t, int64(1), cnt)
}
