package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/feedgraph/internal/api/middleware"
	"github.com/d60-Lab/feedgraph/pkg/response"
)

// GetFeed 主 feed：推模式命中走 Redis 列表，未覆盖用户拉模式兜底
// @Summary 获取主信息流
// @Tags 信息流
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=service.FeedPage}
// @Failure 500 {object} response.Response
// @Router /api/v1/feed [get]
func (h *Handler) GetFeed(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	result, err := h.feed.GetFeed(c.Request.Context(), middleware.UserID(c), page, limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, result)
}

// GetReelsFeed 排名后的 reel feed
// @Summary 获取 Reels 信息流
// @Tags 信息流
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=service.ReelPage}
// @Failure 500 {object} response.Response
// @Router /api/v1/feed/reels [get]
func (h *Handler) GetReelsFeed(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	result, err := h.reels.GetReelsFeed(c.Request.Context(), middleware.UserID(c), page, limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, result)
}
