package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/d60-Lab/feedgraph/internal/repository"
	"github.com/d60-Lab/feedgraph/pkg/logger"
)

// SuggestService 从最近点赞内容的 hashtag 推导 mood 标签并补充推荐。
// 推荐是可选增强：内部任何错误都吞掉并返回空，绝不影响主 feed
type SuggestService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	engRepo  repository.EngagementRepository
	// 频次排序后取前 moodTagLimit 个标签；取最近 likeWindow 条点赞做样本
	moodTagLimit int
	likeWindow   int
}

func NewSuggestService(postRepo repository.PostRepository, userRepo repository.UserRepository, engRepo repository.EngagementRepository, moodTagLimit, likeWindow int) *SuggestService {
	if moodTagLimit <= 0 {
		moodTagLimit = 5
	}
	if likeWindow <= 0 {
		likeWindow = 50
	}
	return &SuggestService{postRepo: postRepo, userRepo: userRepo, engRepo: engRepo, moodTagLimit: moodTagLimit, likeWindow: likeWindow}
}

// Suggest 返回至多 limit 条 mood 推荐，标记 Suggested
func (s *SuggestService) Suggest(ctx context.Context, userID string, excludeIDs []string, limit int) []FeedItem {
	tags, err := s.moodTags(ctx, userID)
	if err != nil {
		logger.Debug("mood tag derivation failed", zap.String("user", userID), zap.Error(err))
		return nil
	}
	if len(tags) == 0 {
		return nil
	}

	posts, err := s.postRepo.ListByHashtags(ctx, tags, userID, excludeIDs, limit)
	if err != nil {
		logger.Debug("suggestion query failed", zap.String("user", userID), zap.Error(err))
		return nil
	}

	authorIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
	}
	users, err := s.userRepo.ListByIDs(ctx, dedupe(authorIDs))
	if err != nil {
		logger.Debug("suggestion author lookup failed", zap.String("user", userID), zap.Error(err))
		return nil
	}
	authors := make(map[string]*AuthorInfo, len(users))
	for _, u := range users {
		if u.Visible() {
			info := authorInfo(u)
			authors[u.ID] = &info
		}
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
			Hashtags:      p.Hashtags,
			Author:        *author,
			LikesCount:    p.LikesCount,
			CommentsCount: p.CommentsCount,
			Suggested:     true,
			CreatedAt:     p.CreatedAt,
		})
	}
	return items
}

// moodTags 最近点赞内容的 hashtag 频次 Top-N
func (s *SuggestService) moodTags(ctx context.Context, userID string) ([]string, error) {
	likedIDs, err := s.engRepo.RecentLikedContentIDs(ctx, userID, s.likeWindow)
	if err != nil {
		return nil, err
	}
	if len(likedIDs) == 0 {
		return nil, nil
	}
	posts, err := s.postRepo.ListByIDs(ctx, likedIDs)
	if err != nil {
		return nil, err
	}

	freq := map[string]int{}
	for _, p := range posts {
		for _, tag := range p.Hashtags {
			freq[tag]++
		}
	}
	if len(freq) == 0 {
		return nil, nil
	}

	tags := make([]string, 0, len(freq))
	for t := range freq {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		if freq[tags[i]] != freq[tags[j]] {
			return freq[tags[i]] > freq[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > s.moodTagLimit {
		tags = tags[:s.moodTagLimit]
	}
	return tags, nil
}
