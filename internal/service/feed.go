package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/feedgraph/internal/cache"
	"github.com/d60-Lab/feedgraph/internal/model"
	"github.com/d60-Lab/feedgraph/internal/repository"
	"github.com/d60-Lab/feedgraph/pkg/logger"
	"github.com/d60-Lab/feedgraph/pkg/pagination"
)

// FeedService assembles the post feed: response cache first, then the
// push-model read against the bounded feed list, then the pull-model
// fallback over the follow graph. The two branches converge on a single
// hydrate+enrich exit so ordering and dedup behave identically.
type FeedService struct {
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	engRepo   repository.EngagementRepository
	feedList  *cache.FeedList
	pageCache *cache.PageCache
	following *cache.FollowingCache
	suggester *SuggestService
	// 注入节奏：每 suggestEvery 条自然内容插 1 条推荐，至多 suggestQuota 条
	suggestEvery int
	suggestQuota int
}

func NewFeedService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	engRepo repository.EngagementRepository,
	feedList *cache.FeedList,
	pageCache *cache.PageCache,
	following *cache.FollowingCache,
	suggester *SuggestService,
	suggestEvery, suggestQuota int,
) *FeedService {
	if suggestEvery <= 0 {
		suggestEvery = 4
	}
	if suggestQuota <= 0 {
		suggestQuota = 5
	}
	return &FeedService{
		postRepo:     postRepo,
		userRepo:     userRepo,
		engRepo:      engRepo,
		feedList:     feedList,
		pageCache:    pageCache,
		following:    following,
		suggester:    suggester,
		suggestEvery: suggestEvery,
		suggestQuota: suggestQuota,
	}
}

// GetFeed 返回 userID 的帖子 feed 第 page 页
func (s *FeedService) GetFeed(ctx context.Context, userID string, page, limit int) (*FeedPage, error) {
	page, limit = pagination.Validate(page, limit)

	var cached FeedPage
	if s.pageCache.Get(ctx, model.KindPost, userID, page, limit, &cached) {
		return &cached, nil
	}

	posts, total, err := s.loadPage(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	items, err := s.hydrate(ctx, userID, posts)
	if err != nil {
		return nil, err
	}

	if page == 1 && s.suggester != nil {
		items = s.inject(ctx, userID, items)
	}

	result := &FeedPage{Items: items, Pagination: pagination.NewMeta(page, limit, total)}
	s.pageCache.Set(ctx, model.KindPost, userID, page, limit, result)
	return result, nil
}

// loadPage 两分支取数：扇出列表命中走推模型，否则回退拉模型
func (s *FeedService) loadPage(ctx context.Context, userID string, page, limit int) ([]*model.Post, int64, error) {
	offset := pagination.Offset(page, limit)

	ids, err := s.feedList.Range(ctx, userID, model.KindPost, offset, limit)
	if err != nil {
		// 列表存储不可用按冷列表处理，拉模型兜底
		logger.Warn("feed list read failed", zap.String("user", userID), zap.Error(err))
		ids = nil
	}
	if len(ids) > 0 {
		posts, err := s.postRepo.ListByIDs(ctx, dedupe(ids))
		if err != nil {
			return nil, 0, err
		}
		if len(posts) > 0 {
			// ListByIDs 不保序，按列表序重排
			posts = orderPosts(ids, posts)
			listLen, _ := s.feedList.Len(ctx, userID, model.KindPost)
			return posts, listLen, nil
		}
	}

	// Pull model: following ids (cached) + self, direct store query.
	followingIDs, err := s.following.IDs(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	authors := append(followingIDs, userID)

	total, err := s.postRepo.CountByAuthors(ctx, authors)
	if err != nil {
		return nil, 0, err
	}
	posts, err := s.postRepo.ListByAuthors(ctx, authors, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// hydrate 批量补作者与 is_liked。作者不可见/缺失的条目静默丢弃（shadow-removed）
func (s *FeedService) hydrate(ctx context.Context, viewerID string, posts []*model.Post) ([]FeedItem, error) {
	if len(posts) == 0 {
		return []FeedItem{}, nil
	}

	authorIDs := make([]string, 0, len(posts))
	contentIDs := make([]string, 0, len(posts))
	seenAuthor := map[string]struct{}{}
	for _, p := range posts {
		contentIDs = append(contentIDs, p.ID)
		if _, ok := seenAuthor[p.AuthorID]; !ok {
			seenAuthor[p.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}

	users, err := s.userRepo.ListByIDs(ctx, authorIDs)
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
		// is_liked 是附加信息，取不到就全 false
		logger.Warn("liked-set lookup failed", zap.String("viewer", viewerID), zap.Error(err))
		liked = map[string]bool{}
	}

	items := make([]FeedItem, 0, len(posts))
	for _, p := range posts {
		author, ok := authors[p.AuthorID]
		if !ok {
			continue
		}
		items = append(items, FeedItem{
			ID:            p.ID,
			AuthorID:      p.AuthorID,
			Content:       p.Content,
			MediaURLs:     p.MediaURLs,
			MediaType:     p.MediaType,
			Location:      p.Location,
			Hashtags:      p.Hashtags,
			Author:        authorInfo(author),
			LikesCount:    p.LikesCount,
			CommentsCount: p.CommentsCount,
			IsLiked:       liked[p.ID],
			CreatedAt:     p.CreatedAt,
		})
	}
	return items, nil
}

// inject 以固定节奏把 mood 推荐混入自然流。任何失败都静默跳过注入
func (s *FeedService) inject(ctx context.Context, userID string, items []FeedItem) []FeedItem {
	if len(items) == 0 {
		return items
	}
	exclude := make([]string, len(items))
	for i, it := range items {
		exclude[i] = it.ID
	}
	suggestions := s.suggester.Suggest(ctx, userID, exclude, s.suggestQuota)
	if len(suggestions) == 0 {
		return items
	}

	out := make([]FeedItem, 0, len(items)+len(suggestions))
	si := 0
	for i, it := range items {
		out = append(out, it)
		if (i+1)%s.suggestEvery == 0 && si < len(suggestions) {
			out = append(out, suggestions[si])
			si++
		}
	}
	return out
}

func authorInfo(u *model.User) AuthorInfo {
	return AuthorInfo{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		AvatarURL:  u.AvatarURL,
		IsVerified: u.IsVerified,
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func orderPosts(ids []string, posts []*model.Post) []*model.Post {
	byID := make(map[string]*model.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	out := make([]*model.Post, 0, len(posts))
	seen := make(map[string]struct{}, len(posts))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		if p, ok := byID[id]; ok {
			seen[id] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
