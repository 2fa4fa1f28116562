package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/d60-Lab/feedgraph/internal/api/middleware"
	"github.com/d60-Lab/feedgraph/internal/model"
	"github.com/d60-Lab/feedgraph/internal/service"
	"github.com/d60-Lab/feedgraph/pkg/response"
)

type createPostRequest struct {
	Content   string   `json:"content" binding:"max=2200"`
	MediaURLs []string `json:"media_urls" binding:"max=10,dive,url"`
	MediaType string   `json:"media_type" binding:"omitempty,oneof=text image video carousel"`
	Location  string   `json:"location"`
	Hashtags  []string `json:"hashtags" binding:"dive,hashtag"`
}

type createReelRequest struct {
	VideoURL     string   `json:"video_url" binding:"required,url"`
	ThumbnailURL string   `json:"thumbnail_url" binding:"omitempty,url"`
	Title        string   `json:"title" binding:"max=200"`
	Description  string   `json:"description" binding:"max=2200"`
	Hashtags     []string `json:"hashtags" binding:"dive,hashtag"`
	Duration     int      `json:"duration" binding:"min=0"`
}

// CreatePost 发布帖子，发布事件同事务入队
// @Summary 发布帖子
// @Tags 内容
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createPostRequest true "帖子内容"
// @Success 200 {object} response.Response{data=model.Post}
// @Failure 400 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	post, err := h.publisher.CreatePost(c.Request.Context(), middleware.UserID(c), service.PostInput{
		Content:   req.Content,
		MediaURLs: req.MediaURLs,
		MediaType: req.MediaType,
		Location:  req.Location,
		Hashtags:  req.Hashtags,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyPost) || errors.Is(err, service.ErrContentTooLong) || errors.Is(err, service.ErrTooManyMedia) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, post)
}

// CreateReel 发布 reel
// @Summary 发布 Reel
// @Tags 内容
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createReelRequest true "Reel 内容"
// @Success 200 {object} response.Response{data=model.Reel}
// @Failure 400 {object} response.Response
// @Router /api/v1/reels [post]
func (h *Handler) CreateReel(c *gin.Context) {
	var req createReelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	reel, err := h.publisher.CreateReel(c.Request.Context(), middleware.UserID(c), service.ReelInput{
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		Title:        req.Title,
		Description:  req.Description,
		Hashtags:     req.Hashtags,
		Duration:     req.Duration,
	})
	if err != nil {
		if errors.Is(err, service.ErrMissingVideo) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, reel)
}

// ArchivePost 归档帖子（仅作者）
// @Summary 归档帖子
// @Tags 内容
// @Produce json
// @Security BearerAuth
// @Param post_id path string true "帖子ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{post_id}/archive [post]
func (h *Handler) ArchivePost(c *gin.Context) {
	err := h.publisher.ArchivePost(c.Request.Context(), c.Param("post_id"), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "post not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// DeleteReel 删除 reel（仅作者，软删）
// @Summary 删除 Reel
// @Tags 内容
// @Produce json
// @Security BearerAuth
// @Param reel_id path string true "ReelID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/reels/{reel_id} [delete]
func (h *Handler) DeleteReel(c *gin.Context) {
	err := h.publisher.DeleteReel(c.Request.Context(), c.Param("reel_id"), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "reel not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

type publishHookRequest struct {
	AuthorID  string `json:"author_id" binding:"required,uuid"`
	ContentID string `json:"content_id" binding:"required,uuid"`
	Kind      string `json:"kind" binding:"required,oneof=posts reels"`
}

// PublishHook 供内容服务回调：内容已落地，入队扇出事件
// @Summary 发布回调
// @Tags 内容
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body publishHookRequest true "发布事件"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/hooks/publish [post]
func (h *Handler) PublishHook(c *gin.Context) {
	var req publishHookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.publisher.OnPublish(c.Request.Context(), req.AuthorID, req.ContentID, model.ContentKind(req.Kind)); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// ListUserPosts 查询某作者的帖子（归档行不返回）
// @Summary 查询用户帖子
// @Tags 内容
// @Produce json
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/users/{user_id}/posts [get]
func (h *Handler) ListUserPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	posts, meta, err := h.publisher.ListUserPosts(c.Request.Context(), c.Param("user_id"), page, limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"list": posts, "meta": meta})
}

type counterChangeHookRequest struct {
	ContentID string `json:"content_id" binding:"required,uuid"`
}

// CounterChangeHook 计数变化回调：只失效单条统计缓存，不碰页缓存
// @Summary 计数变化回调
// @Tags 缓存
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body counterChangeHookRequest true "计数变化事件"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/hooks/counter-change [post]
func (h *Handler) CounterChangeHook(c *gin.Context) {
	var req counterChangeHookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.engagement.OnCounterChange(c.Request.Context(), req.ContentID); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

type invalidateHookRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// InvalidateHook 结构性变化回调：清空该用户两类 feed 的全部页缓存
// @Summary 页缓存失效回调
// @Tags 缓存
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body invalidateHookRequest true "失效事件"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/hooks/invalidate [post]
func (h *Handler) InvalidateHook(c *gin.Context) {
	var req invalidateHookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.engagement.InvalidateUserPages(c.Request.Context(), req.UserID); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}
