package service

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/feedgraph/internal/cache"
	"github.com/d60-Lab/feedgraph/internal/model"
	"github.com/d60-Lab/feedgraph/internal/repository"
	"github.com/d60-Lab/feedgraph/pkg/logger"
	"github.com/d60-Lab/feedgraph/pkg/pagination"
)

// 排名权重。互动按动作成本递增，好友互动整体高一档，
// freshness 双曲衰减（1h≈333 分，24h≈38 分），jitter 给长尾内容出头机会
const (
	weightLike        = 3
	weightComment     = 5
	weightSave        = 8
	weightShare       = 10
	weightView        = 0.05
	weightFollowed    = 50
	weightFolloweeLike    = 20
	weightFolloweeComment = 50
	weightFolloweeShare   = 50
	freshnessScale    = 1000.0
	freshnessDamping  = 2.0
	jitterMax         = 15.0
)

// ScoreBreakdown 单次排名的瞬时得分，只用于本次排序，从不落地
type ScoreBreakdown struct {
	Interaction float64
	Social      float64
	Freshness   float64
	Jitter      float64
}

func (s ScoreBreakdown) Total() float64 {
	return s.Interaction + s.Social + s.Freshness + s.Jitter
}

// InteractionScore 纯函数：3L + 5C + 8Sv + 10Sh + 0.05V
func InteractionScore(likes, comments, saves, shares, views int64) float64 {
	return float64(likes)*weightLike +
		float64(comments)*weightComment +
		float64(saves)*weightSave +
		float64(shares)*weightShare +
		float64(views)*weightView
}

// SocialScore 纯函数：关注作者 +50，好友赞/评/转分别 20/50/50
func SocialScore(followsAuthor bool, sig repository.FolloweeSignals) float64 {
	var score float64
	if followsAuthor {
		score += weightFollowed
	}
	score += float64(sig.Likes)*weightFolloweeLike +
		float64(sig.Comments)*weightFolloweeComment +
		float64(sig.Shares)*weightFolloweeShare
	return score
}

// FreshnessScore 纯函数：1000 / (小时数 + 2)
func FreshnessScore(age time.Duration) float64 {
	hours := age.Hours()
	if hours < 0 {
		hours = 0
	}
	return freshnessScale / (hours + freshnessDamping)
}

// ReelFeedService 给 reel feed 排名。候选集批量取数后走纯打分函数，
// 不依赖存储端聚合
type ReelFeedService struct {
	reelRepo      repository.ReelRepository
	userRepo      repository.UserRepository
	engRepo       repository.EngagementRepository
	blockRepo     repository.BlockRepository
	sponsoredRepo repository.SponsoredRepository
	feedList      *cache.FeedList
	pageCache     *cache.PageCache
	following     *cache.FollowingCache

	candidateLimit int
	sponsoredEvery int
	// jitter 每次读新抽一个 U(0, 15)。测试注入常量 0 得到确定性排序
	jitter func() float64
}

func NewReelFeedService(
	reelRepo repository.ReelRepository,
	userRepo repository.UserRepository,
	engRepo repository.EngagementRepository,
	blockRepo repository.BlockRepository,
	sponsoredRepo repository.SponsoredRepository,
	feedList *cache.FeedList,
	pageCache *cache.PageCache,
	following *cache.FollowingCache,
	candidateLimit, sponsoredEvery int,
) *ReelFeedService {
	if candidateLimit <= 0 {
		candidateLimit = 500
	}
	if sponsoredEvery <= 0 {
		sponsoredEvery = 6
	}
	return &ReelFeedService{
		reelRepo:       reelRepo,
		userRepo:       userRepo,
		engRepo:        engRepo,
		blockRepo:      blockRepo,
		sponsoredRepo:  sponsoredRepo,
		feedList:       feedList,
		pageCache:      pageCache,
		following:      following,
		candidateLimit: candidateLimit,
		sponsoredEvery: sponsoredEvery,
		jitter:         func() float64 { return rand.Float64() * jitterMax },
	}
}

// SetJitter 替换随机源（测试用）
func (s *ReelFeedService) SetJitter(fn func() float64) { s.jitter = fn }

type scoredReel struct {
	reel  *model.Reel
	score ScoreBreakdown
}

// GetReelsFeed 返回排名后的 reel feed 第 page 页
func (s *ReelFeedService) GetReelsFeed(ctx context.Context, userID string, page, limit int) (*ReelPage, error) {
	page, limit = pagination.Validate(page, limit)

	var cached ReelPage
	if s.pageCache.Get(ctx, model.KindReel, userID, page, limit, &cached) {
		return &cached, nil
	}

	blocked, err := s.blockRepo.ListInvolved(ctx, userID)
	if err != nil {
		return nil, err
	}
	followingIDs, err := s.following.IDs(ctx, userID)
	if err != nil {
		// social score 是增强信号，取不到时退化为全局热门 + 新鲜度
		logger.Warn("following lookup failed", zap.String("user", userID), zap.Error(err))
		followingIDs = nil
	}
	followingSet := make(map[string]bool, len(followingIDs))
	for _, id := range followingIDs {
		followingSet[id] = true
	}

	// total 统计的是可排名候选全集；首页捷径可能与之偏差（已知近似）
	total, err := s.reelRepo.CountCandidates(ctx, userID, blocked)
	if err != nil {
		return nil, err
	}

	reels, err := s.loadRanked(ctx, userID, blocked, followingIDs, page, limit)
	if err != nil {
		return nil, err
	}

	items, err := s.hydrate(ctx, userID, reels, followingSet)
	if err != nil {
		return nil, err
	}
	items = s.interleaveSponsored(ctx, items)

	result := &ReelPage{Items: items, Pagination: pagination.NewMeta(page, limit, total)}
	s.pageCache.Set(ctx, model.KindReel, userID, page, limit, result)
	return result, nil
}

// loadRanked 首页先试扇出列表（免打分直出最新），否则全量候选打分
func (s *ReelFeedService) loadRanked(ctx context.Context, userID string, blocked, followingIDs []string, page, limit int) ([]*model.Reel, error) {
	offset := pagination.Offset(page, limit)

	if page == 1 {
		ids, err := s.feedList.Range(ctx, userID, model.KindReel, 0, limit)
		if err == nil && len(ids) > 0 {
			reels, err := s.reelRepo.ListByIDs(ctx, dedupe(ids))
			if err != nil {
				return nil, err
			}
			if len(reels) > 0 {
				return orderReels(ids, reels), nil
			}
		}
	}

	candidates, err := s.reelRepo.ListCandidates(ctx, userID, blocked, s.candidateLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	contentIDs := make([]string, len(candidates))
	for i, r := range candidates {
		contentIDs[i] = r.ID
	}
	signals, err := s.engRepo.FolloweeSignals(ctx, followingIDs, contentIDs)
	if err != nil {
		logger.Warn("followee signals failed", zap.String("user", userID), zap.Error(err))
		signals = map[string]repository.FolloweeSignals{}
	}

	followingSet := make(map[string]bool, len(followingIDs))
	for _, id := range followingIDs {
		followingSet[id] = true
	}

	now := time.Now()
	scored := make([]scoredReel, len(candidates))
	for i, r := range candidates {
		scored[i] = scoredReel{
			reel: r,
			score: ScoreBreakdown{
				Interaction: InteractionScore(r.LikesCount, r.CommentsCount, r.SavesCount, r.SharesCount, r.ViewCount),
				Social:      SocialScore(followingSet[r.AuthorID], signals[r.ID]),
				Freshness:   FreshnessScore(now.Sub(r.CreatedAt)),
				Jitter:      s.jitter(),
			},
		}
	}
	// 稳定排序：jitter 恒定时同分保持候选序，两次运行结果一致
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score.Total() > scored[j].score.Total()
	})

	if offset >= len(scored) {
		return nil, nil
	}
	end := offset + limit
	if end > len(scored) {
		end = len(scored)
	}
	out := make([]*model.Reel, 0, end-offset)
	for _, sr := range scored[offset:end] {
		out = append(out, sr.reel)
	}
	return out, nil
}

func (s *ReelFeedService) hydrate(ctx context.Context, viewerID string, reels []*model.Reel, followingSet map[string]bool) ([]ReelItem, error) {
	if len(reels) == 0 {
		return []ReelItem{}, nil
	}
	authorIDs := make([]string, 0, len(reels))
	contentIDs := make([]string, 0, len(reels))
	for _, r := range reels {
		authorIDs = append(authorIDs, r.AuthorID)
		contentIDs = append(contentIDs, r.ID)
	}
	users, err := s.userRepo.ListByIDs(ctx, dedupe(authorIDs))
	if err != nil {
		return nil, err
	}
	authors := make(map[string]*model.User, len(users))
	for _, u := range users {
		if u.Visible() {
			authors[u.ID] = u
		}
	}
	liked, err := s.engRepo.LikedSet(ctx, viewerID, contentIDs)
	if err != nil {
		logger.Warn("liked-set lookup failed", zap.String("viewer", viewerID), zap.Error(err))
		liked = map[string]bool{}
	}

	items := make([]ReelItem, 0, len(reels))
	for _, r := range reels {
		author, ok := authors[r.AuthorID]
		if !ok {
			continue
		}
		items = append(items, ReelItem{
			ID:            r.ID,
			AuthorID:      r.AuthorID,
			VideoURL:      r.VideoURL,
			ThumbnailURL:  r.ThumbnailURL,
			Title:         r.Title,
			Description:   r.Description,
			Duration:      r.Duration,
			Author:        authorInfo(author),
			LikesCount:    r.LikesCount,
			CommentsCount: r.CommentsCount,
			SavesCount:    r.SavesCount,
			SharesCount:   r.SharesCount,
			ViewCount:     r.ViewCount,
			IsLiked:       liked[r.ID],
			IsFollowing:   followingSet[r.AuthorID],
			CreatedAt:     r.CreatedAt,
		})
	}
	return items, nil
}

// interleaveSponsored 每 sponsoredEvery 条自然内容追加一条广告。
// 广告是附加条目，不计入 total；素材取不到就静默跳过
func (s *ReelFeedService) interleaveSponsored(ctx context.Context, items []ReelItem) []ReelItem {
	if len(items) < s.sponsoredEvery {
		return items
	}
	want := len(items) / s.sponsoredEvery
	creatives, err := s.sponsoredRepo.ListActive(ctx, want)
	if err != nil || len(creatives) == 0 {
		if err != nil {
			logger.Debug("sponsored pool unavailable", zap.Error(err))
		}
		return items
	}

	out := make([]ReelItem, 0, len(items)+len(creatives))
	ci := 0
	for i, it := range items {
		out = append(out, it)
		if (i+1)%s.sponsoredEvery == 0 && ci < len(creatives) {
			c := creatives[ci]
			out = append(out, ReelItem{
				ID:           c.ID,
				VideoURL:     c.MediaURL,
				ThumbnailURL: c.ThumbnailURL,
				Description:  c.Caption,
				Sponsored:    true,
				CreatedAt:    c.CreatedAt,
			})
			ci++
		}
	}
	return out
}

func orderReels(ids []string, reels []*model.Reel) []*model.Reel {
	byID := make(map[string]*model.Reel, len(reels))
	for _, r := range reels {
		byID[r.ID] = r
	}
	out := make([]*model.Reel, 0, len(reels))
	seen := make(map[string]struct{}, len(reels))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		if r, ok := byID[id]; ok {
			seen[id] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}
