package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/d60-Lab/feedgraph/internal/cache"
	"github.com/d60-Lab/feedgraph/internal/model"
	"github.com/d60-Lab/feedgraph/internal/repository"
)

var ErrAlreadyLiked = errors.New("content already liked")
var ErrLikeNotFound = errors.New("like not found")

// EngagementService 点赞/评论/收藏/转发计数维护。
// 计数器变化只打掉单条内容的 stats 缓存，从不触达页缓存与扇出列表
type EngagementService struct {
	postRepo   repository.PostRepository
	reelRepo   repository.ReelRepository
	engRepo    repository.EngagementRepository
	statsCache *cache.StatsCache
	pageCache  *cache.PageCache
}

func NewEngagementService(
	postRepo repository.PostRepository,
	reelRepo repository.ReelRepository,
	engRepo repository.EngagementRepository,
	statsCache *cache.StatsCache,
	pageCache *cache.PageCache,
) *EngagementService {
	return &EngagementService{
		postRepo:   postRepo,
		reelRepo:   reelRepo,
		engRepo:    engRepo,
		statsCache: statsCache,
		pageCache:  pageCache,
	}
}

// LikePost 点赞并同步计数；重复点赞报冲突
func (s *EngagementService) LikePost(ctx context.Context, userID, postID string) error {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return err
	}
	created, err := s.engRepo.CreateLike(ctx, userID, postID)
	if err != nil {
		return err
	}
	if !created {
		return ErrAlreadyLiked
	}
	if err := s.postRepo.AddCounters(ctx, postID, 1, 0); err != nil {
		return err
	}
	return s.OnCounterChange(ctx, postID)
}

func (s *EngagementService) UnlikePost(ctx context.Context, userID, postID string) error {
	deleted, err := s.engRepo.DeleteLike(ctx, userID, postID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrLikeNotFound
	}
	if err := s.postRepo.AddCounters(ctx, postID, -1, 0); err != nil {
		return err
	}
	return s.OnCounterChange(ctx, postID)
}

// ToggleLikeReel 点赞/取消点赞切换，返回最新状态
func (s *EngagementService) ToggleLikeReel(ctx context.Context, userID, reelID string) (liked bool, err error) {
	if _, err := s.reelRepo.GetByID(ctx, reelID); err != nil {
		return false, err
	}
	created, err := s.engRepo.CreateLike(ctx, userID, reelID)
	if err != nil {
		return false, err
	}
	if created {
		if err := s.reelRepo.AddCounters(ctx, reelID, 1, 0, 0, 0, 0); err != nil {
			return true, err
		}
		return true, s.OnCounterChange(ctx, reelID)
	}
	if _, err := s.engRepo.DeleteLike(ctx, userID, reelID); err != nil {
		return true, err
	}
	if err := s.reelRepo.AddCounters(ctx, reelID, -1, 0, 0, 0, 0); err != nil {
		return false, err
	}
	return false, s.OnCounterChange(ctx, reelID)
}

func (s *EngagementService) AddComment(ctx context.Context, userID, contentID string, kind model.ContentKind, body string) (*model.Comment, error) {
	comment := &model.Comment{ID: uuid.New().String(), UserID: userID, ContentID: contentID, Body: body}
	if err := s.engRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	var err error
	if kind == model.KindReel {
		err = s.reelRepo.AddCounters(ctx, contentID, 0, 1, 0, 0, 0)
	} else {
		err = s.postRepo.AddCounters(ctx, contentID, 0, 1)
	}
	if err != nil {
		return nil, err
	}
	return comment, s.OnCounterChange(ctx, contentID)
}

func (s *EngagementService) RemoveComment(ctx context.Context, userID, commentID, contentID string, kind model.ContentKind) error {
	deleted, err := s.engRepo.DeleteComment(ctx, commentID, userID)
	if err != nil || !deleted {
		return err
	}
	if kind == model.KindReel {
		err = s.reelRepo.AddCounters(ctx, contentID, 0, -1, 0, 0, 0)
	} else {
		err = s.postRepo.AddCounters(ctx, contentID, 0, -1)
	}
	if err != nil {
		return err
	}
	return s.OnCounterChange(ctx, contentID)
}

func (s *EngagementService) SaveReel(ctx context.Context, userID, reelID string) error {
	created, err := s.engRepo.CreateSave(ctx, userID, reelID)
	if err != nil || !created {
		return err
	}
	if err := s.reelRepo.AddCounters(ctx, reelID, 0, 0, 1, 0, 0); err != nil {
		return err
	}
	return s.OnCounterChange(ctx, reelID)
}

func (s *EngagementService) ShareReel(ctx context.Context, userID, reelID string) error {
	if err := s.engRepo.CreateShare(ctx, userID, reelID); err != nil {
		return err
	}
	if err := s.reelRepo.AddCounters(ctx, reelID, 0, 0, 0, 1, 0); err != nil {
		return err
	}
	return s.OnCounterChange(ctx, reelID)
}

func (s *EngagementService) AddView(ctx context.Context, reelID string) error {
	return s.reelRepo.AddCounters(ctx, reelID, 0, 0, 0, 0, 1)
}

// ContentStats 读穿 stats 缓存；miss 时回源数据库并回填
func (s *EngagementService) ContentStats(ctx context.Context, contentID string, kind model.ContentKind) (*cache.ContentStats, error) {
	if stats, ok := s.statsCache.Get(ctx, contentID); ok {
		return stats, nil
	}
	var stats cache.ContentStats
	if kind == model.KindReel {
		reel, err := s.reelRepo.GetByID(ctx, contentID)
		if err != nil {
			return nil, err
		}
		stats = cache.ContentStats{
			Likes:    reel.LikesCount,
			Comments: reel.CommentsCount,
			Saves:    reel.SavesCount,
			Shares:   reel.SharesCount,
			Views:    reel.ViewCount,
		}
	} else {
		post, err := s.postRepo.GetByID(ctx, contentID)
		if err != nil {
			return nil, err
		}
		stats = cache.ContentStats{Likes: post.LikesCount, Comments: post.CommentsCount}
	}
	s.statsCache.Set(ctx, contentID, stats)
	return &stats, nil
}

// OnCounterChange 计数变化钩子：只失效单条内容的 stats 缓存
func (s *EngagementService) OnCounterChange(ctx context.Context, contentID string) error {
	return s.statsCache.Invalidate(ctx, contentID)
}

// InvalidateUserPages 显式页缓存失效（外部计数钩子按需调用）
func (s *EngagementService) InvalidateUserPages(ctx context.Context, userID string) error {
	return s.pageCache.InvalidateUser(ctx, userID)
}
