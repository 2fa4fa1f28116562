package handler

import (
	"github.com/d60-Lab/feedgraph/internal/service"
)

// Handler 聚合各路由处理器的依赖
type Handler struct {
	relService service.RelationshipService
	publisher  *service.Publisher
	feed       *service.FeedService
	reels      *service.ReelFeedService
	engagement *service.EngagementService
}

func NewHandler(
	relService service.RelationshipService,
	publisher *service.Publisher,
	feed *service.FeedService,
	reels *service.ReelFeedService,
	engagement *service.EngagementService,
) *Handler {
	return &Handler{
		relService: relService,
		publisher:  publisher,
		feed:       feed,
		reels:      reels,
		engagement: engagement,
	}
}
