package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/feedgraph/config"
	"github.com/d60-Lab/feedgraph/internal/cache"
	"github.com/d60-Lab/feedgraph/internal/model"
	"github.com/d60-Lab/feedgraph/internal/repository"
	"github.com/d60-Lab/feedgraph/internal/service"
	"github.com/d60-Lab/feedgraph/pkg/database"
	"github.com/d60-Lab/feedgraph/pkg/logger"
	redislib "github.com/d60-Lab/feedgraph/pkg/redis"
)

// 扇出吞吐压测：一个作者 FANS 个粉丝，EVENTS 条发布事件，
// 同步驱动 ProcessOnce 直到排空，打印入队到落地的延迟分位
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	_ = logger.Init("release", "")
	db, err := database.InitDB(cfg)
	if err != nil {
		panic(err)
	}
	if err := database.Migrate(db); err != nil {
		panic(err)
	}
	rdb, err := redislib.NewClient(cfg)
	if err != nil {
		panic(err)
	}

	fans := envInt("FANS", 1000)
	events := envInt("EVENTS", 100)

	ctx := context.Background()
	fanRepo := repository.NewFanRepository(db)
	eventRepo := repository.NewPublishEventRepository(db)
	feedList := cache.NewFeedList(rdb, cfg.Feed.PostListCap, cfg.Feed.ReelListCap)
	pageCache := cache.NewPageCache(rdb, cfg.Feed.PageTTL)

	author := uuid.New().String()
	probe := ""
	for i := 0; i < fans; i++ {
		fanID := uuid.New().String()
		if probe == "" {
			probe = fanID
		}
		if err := fanRepo.Create(ctx, author, fanID); err != nil {
			panic(err)
		}
	}
	for i := 0; i < events; i++ {
		if err := eventRepo.Enqueue(ctx, nil, author, uuid.New().String(), model.KindPost); err != nil {
			panic(err)
		}
	}

	worker := service.NewFanoutWorker(eventRepo, fanRepo, feedList, pageCache,
		1, cfg.Fanout.PageSize, cfg.Fanout.ClaimLimit, cfg.Fanout.MaxAttempts, cfg.Fanout.PollInterval)

	start := time.Now()
	for {
		if err := worker.ProcessOnce(ctx); err != nil {
			panic(err)
		}
		pending, err := eventRepo.CountByStatus(ctx, model.EventStatusPending)
		if err != nil {
			panic(err)
		}
		if pending == 0 {
			break
		}
	}
	elapsed := time.Since(start)

	var lats []time.Duration
drain:
	for {
		select {
		case d := <-worker.Metrics():
			lats = append(lats, d)
		default:
			break drain
		}
	}
	sort.Slice(lats, func(i, j int) bool { return lats[i] < lats[j] })
	pct := func(p float64) time.Duration {
		if len(lats) == 0 {
			return 0
		}
		k := int(float64(len(lats)) * p)
		if k >= len(lats) {
			k = len(lats) - 1
		}
		return lats[k]
	}

	deliveries := int64(fans) * int64(events)
	fmt.Printf("FANS=%d EVENTS=%d\n", fans, events)
	fmt.Printf("total=%v deliveries=%d rate=%.0f pushes/s\n", elapsed, deliveries, float64(deliveries)/elapsed.Seconds())
	fmt.Printf("event latency: p50=%v p95=%v p99=%v\n", pct(0.50), pct(0.95), pct(0.99))

	// 抽查一个粉丝：首屏条目落地，长度不超过上限
	ids, err := feedList.Range(ctx, probe, model.KindPost, 0, 20)
	if err != nil {
		panic(err)
	}
	n, err := feedList.Len(ctx, probe, model.KindPost)
	if err != nil {
		panic(err)
	}
	if len(ids) == 0 || n > feedList.Cap(model.KindPost) {
		panic(fmt.Sprintf("probe fan list broken: first page %d, len %d", len(ids), n))
	}
	fmt.Printf("probe fan: first page %d items, list len %d (cap %d)\n", len(ids), n, feedList.Cap(model.KindPost))
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}
