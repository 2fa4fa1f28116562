package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/d60-Lab/feedgraph/internal/api/middleware"
	"github.com/d60-Lab/feedgraph/internal/model"
	"github.com/d60-Lab/feedgraph/internal/service"
	"github.com/d60-Lab/feedgraph/pkg/response"
)

// LikePost 点赞帖子
// @Summary 点赞帖子
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param post_id path string true "帖子ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{post_id}/like [post]
func (h *Handler) LikePost(c *gin.Context) {
	err := h.engagement.LikePost(c.Request.Context(), middleware.UserID(c), c.Param("post_id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyLiked):
			response.BadRequest(c, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "post not found")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Success(c, nil)
}

// UnlikePost 取消点赞
// @Summary 取消点赞帖子
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param post_id path string true "帖子ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{post_id}/like [delete]
func (h *Handler) UnlikePost(c *gin.Context) {
	err := h.engagement.UnlikePost(c.Request.Context(), middleware.UserID(c), c.Param("post_id"))
	if err != nil {
		if errors.Is(err, service.ErrLikeNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// ToggleLikeReel reel 点赞开关
// @Summary 点赞/取消点赞 Reel
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param reel_id path string true "ReelID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/reels/{reel_id}/like [post]
func (h *Handler) ToggleLikeReel(c *gin.Context) {
	liked, err := h.engagement.ToggleLikeReel(c.Request.Context(), middleware.UserID(c), c.Param("reel_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "reel not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"liked": liked})
}

type commentRequest struct {
	Body string `json:"body" binding:"required,max=2200"`
	Kind string `json:"kind" binding:"required,oneof=posts reels"`
}

// AddComment 评论内容
// @Summary 评论
// @Tags 互动
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param content_id path string true "内容ID"
// @Param request body commentRequest true "评论内容"
// @Success 200 {object} response.Response{data=model.Comment}
// @Failure 400 {object} response.Response
// @Router /api/v1/content/{content_id}/comments [post]
func (h *Handler) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	comment, err := h.engagement.AddComment(c.Request.Context(), middleware.UserID(c), c.Param("content_id"), model.ContentKind(req.Kind), req.Body)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, comment)
}

// SaveReel 收藏 reel
// @Summary 收藏 Reel
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param reel_id path string true "ReelID"
// @Success 200 {object} response.Response
// @Router /api/v1/reels/{reel_id}/save [post]
func (h *Handler) SaveReel(c *gin.Context) {
	if err := h.engagement.SaveReel(c.Request.Context(), middleware.UserID(c), c.Param("reel_id")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// ShareReel 转发 reel
// @Summary 转发 Reel
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param reel_id path string true "ReelID"
// @Success 200 {object} response.Response
// @Router /api/v1/reels/{reel_id}/share [post]
func (h *Handler) ShareReel(c *gin.Context) {
	if err := h.engagement.ShareReel(c.Request.Context(), middleware.UserID(c), c.Param("reel_id")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// AddReelView 上报 reel 播放
// @Summary 上报播放
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param reel_id path string true "ReelID"
// @Success 200 {object} response.Response
// @Router /api/v1/reels/{reel_id}/view [post]
func (h *Handler) AddReelView(c *gin.Context) {
	if err := h.engagement.AddView(c.Request.Context(), c.Param("reel_id")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// GetContentStats 读穿 stats 缓存取计数快照
// @Summary 查询内容计数
// @Tags 互动
// @Produce json
// @Param content_id path string true "内容ID"
// @Param kind query string false "内容类型 posts|reels" default(posts)
// @Success 200 {object} response.Response{data=cache.ContentStats}
// @Failure 404 {object} response.Response
// @Router /api/v1/content/{content_id}/stats [get]
func (h *Handler) GetContentStats(c *gin.Context) {
	kind := model.ContentKind(c.DefaultQuery("kind", string(model.KindPost)))
	stats, err := h.engagement.ContentStats(c.Request.Context(), c.Param("content_id"), kind)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "content not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, stats)
}
