package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/feedgraph/internal/cache"
	"github.com/d60-Lab/feedgraph/internal/model"
	"github.com/d60-Lab/feedgraph/internal/repository"
	"github.com/d60-Lab/feedgraph/pkg/logger"
)

// FanoutWorker consumes publish events and pushes the new content id onto
// every accepted follower's bounded feed list, then invalidates that
// follower's cached pages. Followers are walked with a paged cursor so the
// full set is never held in memory. Delivery is at-least-once: a retried
// event may re-push an id, which the assembler dedupes at render time.
type FanoutWorker struct {
	eventRepo    repository.PublishEventRepository
	fanRepo      repository.FanRepository
	feedList     *cache.FeedList
	pageCache    *cache.PageCache
	pageSize     int
	claimLimit   int
	pollInterval time.Duration
	workers      int
	maxAttempts  int
	metricsCh    chan time.Duration // enqueue -> done latency
}

func NewFanoutWorker(
	eventRepo repository.PublishEventRepository,
	fanRepo repository.FanRepository,
	feedList *cache.FeedList,
	pageCache *cache.PageCache,
	workers, pageSize, claimLimit, maxAttempts int,
	pollInterval time.Duration,
) *FanoutWorker {
	if workers <= 0 {
		workers = 4
	}
	if pageSize <= 0 {
		pageSize = 500
	}
	if claimLimit <= 0 {
		claimLimit = 64
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if pollInterval <= 0 {
		pollInterval = 50 * time.Millisecond
	}
	return &FanoutWorker{
		eventRepo:    eventRepo,
		fanRepo:      fanRepo,
		feedList:     feedList,
		pageCache:    pageCache,
		workers:      workers,
		pageSize:     pageSize,
		claimLimit:   claimLimit,
		maxAttempts:  maxAttempts,
		pollInterval: pollInterval,
		metricsCh:    make(chan time.Duration, 65536),
	}
}

func (w *FanoutWorker) Metrics() <-chan time.Duration { return w.metricsCh }

// Start 启动若干 worker 轮询处理发布事件；返回停止函数。
func (w *FanoutWorker) Start() func(context.Context) error {
	stop := make(chan struct{})
	for i := 0; i < w.workers; i++ {
		go w.loop(stop)
	}
	return func(ctx context.Context) error { close(stop); return nil }
}

func (w *FanoutWorker) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = w.ProcessOnce(context.Background())
		}
	}
}

// ProcessOnce claims a batch of pending events and fans each one out.
// Exported so tests and the bench can drive the worker synchronously.
func (w *FanoutWorker) ProcessOnce(ctx context.Context) error {
	batch, err := w.eventRepo.Claim(ctx, w.claimLimit)
	if err != nil {
		return err
	}
	for _, ev := range batch {
		count, err := w.fanOut(ctx, ev)
		if err != nil {
			logger.Warn("fanout event failed",
				zap.String("event", ev.ID),
				zap.String("content", ev.ContentID),
				zap.Int("attempts", ev.Attempts),
				zap.Error(err))
			// 预算内回 pending 重试；耗尽后拉模型兜底，无用户可见错误
			_ = w.eventRepo.Release(ctx, ev.ID, w.maxAttempts)
			continue
		}
		if err := w.eventRepo.MarkDone(ctx, ev.ID, count); err != nil {
			logger.Warn("mark event done failed", zap.String("event", ev.ID), zap.Error(err))
		}
		if !ev.CreatedAt.IsZero() {
			select {
			case w.metricsCh <- time.Since(ev.CreatedAt):
			default:
			}
		}
	}
	return nil
}

// fanOut 按粉丝游标逐页推进：每个粉丝一次 push+trim，再打掉其页缓存。
// 中途失败由上层整事件重试；部分完成是可接受的（拉模型覆盖缺口）
func (w *FanoutWorker) fanOut(ctx context.Context, ev *model.PublishEvent) (int64, error) {
	var total int64
	offset := 0
	for {
		fans, err := w.fanRepo.ListFans(ctx, ev.AuthorID, offset, w.pageSize)
		if err != nil {
			return total, err
		}
		if len(fans) == 0 {
			break
		}
		for _, f := range fans {
			if err := w.feedList.Push(ctx, f.FanID, ev.Kind, ev.ContentID); err != nil {
				return total, err
			}
			if err := w.pageCache.InvalidateUser(ctx, f.FanID); err != nil {
				// 缓存失效失败只降级：TTL 很快兜底
				logger.Debug("page invalidation failed", zap.String("user", f.FanID), zap.Error(err))
			}
			total++
		}
		if len(fans) < w.pageSize {
			break
		}
		offset += w.pageSize
	}
	return total, nil
}
