package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/feedgraph/config"
	"github.com/d60-Lab/feedgraph/docs"
	"github.com/d60-Lab/feedgraph/internal/api/handler"
	"github.com/d60-Lab/feedgraph/internal/api/router"
	"github.com/d60-Lab/feedgraph/internal/cache"
	"github.com/d60-Lab/feedgraph/internal/repository"
	"github.com/d60-Lab/feedgraph/internal/service"
	"github.com/d60-Lab/feedgraph/pkg/database"
	"github.com/d60-Lab/feedgraph/pkg/logger"
	redislib "github.com/d60-Lab/feedgraph/pkg/redis"
	"github.com/d60-Lab/feedgraph/pkg/tracing"
)

// @title FeedGraph API
// @version 1.0
// @description 混合推拉 feed 与 reel 排名服务
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Server.Mode, cfg.Sentry.DSN); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	shutdownTracing, err := tracing.Init(ctx, cfg)
	if err != nil {
		logger.Warn("tracing init failed", zap.Error(err))
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("database init failed", zap.Error(err))
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		logger.Error("migration failed", zap.Error(err))
		os.Exit(1)
	}

	rdb, err := redislib.NewClient(cfg)
	if err != nil {
		logger.Error("redis init failed", zap.Error(err))
		os.Exit(1)
	}

	// repositories
	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	reelRepo := repository.NewReelRepository(db)
	engRepo := repository.NewEngagementRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	sponsoredRepo := repository.NewSponsoredRepository(db)
	eventRepo := repository.NewPublishEventRepository(db)

	// caches
	feedList := cache.NewFeedList(rdb, cfg.Feed.PostListCap, cfg.Feed.ReelListCap)
	pageCache := cache.NewPageCache(rdb, cfg.Feed.PageTTL)
	followingCache := cache.NewFollowingCache(rdb, followRepo, cfg.Feed.FollowingTTL)
	statsCache := cache.NewStatsCache(rdb, cfg.Feed.StatsTTL)

	// services
	replicator := service.NewFanReplicator(fanRepo, followingCache, 0)
	stopReplicator := replicator.Start(4)

	relService := service.NewRelationshipService(followRepo, fanRepo, userRepo, blockRepo, followingCache, replicator)
	publisher := service.NewPublisher(db, eventRepo, postRepo, reelRepo)
	suggester := service.NewSuggestService(postRepo, userRepo, engRepo, cfg.Feed.MoodTagLimit, cfg.Feed.RecentLikesWindow)
	feedSvc := service.NewFeedService(postRepo, userRepo, engRepo, feedList, pageCache, followingCache, suggester, cfg.Feed.SuggestEvery, cfg.Feed.SuggestQuota)
	reelSvc := service.NewReelFeedService(reelRepo, userRepo, engRepo, blockRepo, sponsoredRepo, feedList, pageCache, followingCache, cfg.Feed.CandidateLimit, cfg.Feed.SponsoredEvery)
	engSvc := service.NewEngagementService(postRepo, reelRepo, engRepo, statsCache, pageCache)

	fanoutWorker := service.NewFanoutWorker(eventRepo, fanRepo, feedList, pageCache,
		cfg.Fanout.Workers, cfg.Fanout.PageSize, cfg.Fanout.ClaimLimit, cfg.Fanout.MaxAttempts, cfg.Fanout.PollInterval)
	stopFanout := fanoutWorker.Start()

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.Server.Port)
	h := handler.NewHandler(relService, publisher, feedSvc, reelSvc, engSvc)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router.New(cfg, h),
	}

	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server exited", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	_ = stopFanout(shutdownCtx)
	_ = stopReplicator(shutdownCtx)
	if shutdownTracing != nil {
		_ = shutdownTracing(shutdownCtx)
	}
	_ = rdb.Close()
}
