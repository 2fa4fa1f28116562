package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/feedgraph/internal/cache"
	"github.com/d60-Lab/feedgraph/internal/model"
	"github.com/d60-Lab/feedgraph/internal/repository"
)

type engFixture struct {
	db    *gorm.DB
	svc   *EngagementService
	stats *cache.StatsCache
	pages *cache.PageCache
}

func newEngFixture(t *testing.T) *engFixture {
	db := newTestDB(t)
	_, rdb := newTestRedis(t)
	stats := cache.NewStatsCache(rdb, 30*time.Minute)
	pages := cache.NewPageCache(rdb, time.Minute)
	svc := NewEngagementService(
		repository.NewPostRepository(db),
		repository.NewReelRepository(db),
		repository.NewEngagementRepository(db),
		stats, pages,
	)
	return &engFixture{db: db, svc: svc, stats: stats, pages: pages}
}

func TestLikePostUpdatesCounterAndInvalidatesStats(t *testing.T) {
	f := newEngFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Create(&model.Post{ID: "p1", AuthorID: "a", Content: "x"}).Error)
	f.stats.Set(ctx, "p1", cache.ContentStats{Likes: 0})
	// 另一个用户的页缓存不受计数变化影响
	f.pages.Set(ctx, model.KindPost, "other", 1, 20, map[string]int{"v": 1})

	require.NoError(t, f.svc.LikePost(ctx, "v", "p1"))

	var post model.Post
	require.NoError(t, f.db.First(&post, "id = ?", "p1").Error)
	assert.Equal(t, int64(1), post.LikesCount)

	_, ok := f.stats.Get(ctx, "p1")
	assert.False(t, ok, "stats cache must be invalidated")
	var out map[string]int
	assert.True(t, f.pages.Get(ctx, model.KindPost, "other", 1, 20, &out), "page cache must stay")
}

func TestLikePostRejectsDuplicates(t *testing.T) {
	f := newEngFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Create(&model.Post{ID: "p1", AuthorID: "a"}).Error)
	require.NoError(t, f.svc.LikePost(ctx, "v", "p1"))
	assert.ErrorIs(t, f.svc.LikePost(ctx, "v", "p1"), ErrAlreadyLiked)

	var post model.Post
	require.NoError(t, f.db.First(&post, "id = ?", "p1").Error)
	assert.Equal(t, int64(1), post.LikesCount)
}

func TestUnlikePost(t *testing.T) {
	f := newEngFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Create(&model.Post{ID: "p1", AuthorID: "a"}).Error)
	assert.ErrorIs(t, f.svc.UnlikePost(ctx, "v", "p1"), ErrLikeNotFound)

	require.NoError(t, f.svc.LikePost(ctx, "v", "p1"))
	require.NoError(t, f.svc.UnlikePost(ctx, "v", "p1"))

	var post model.Post
	require.NoError(t, f.db.First(&post, "id = ?", "p1").Error)
	assert.Zero(t, post.LikesCount)
}

func TestToggleLikeReel(t *testing.T) {
	f := newEngFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Create(&model.Reel{ID: "r1", AuthorID: "a", VideoURL: "v", IsPublic: true}).Error)

	liked, err := f.svc.ToggleLikeReel(ctx, "v", "r1")
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = f.svc.ToggleLikeReel(ctx, "v", "r1")
	require.NoError(t, err)
	assert.False(t, liked)

	var reel model.Reel
	require.NoError(t, f.db.First(&reel, "id = ?", "r1").Error)
	assert.Zero(t, reel.LikesCount)
}

func TestCommentLifecycleMaintainsCounter(t *testing.T) {
	f := newEngFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Create(&model.Post{ID: "p1", AuthorID: "a"}).Error)

	comment, err := f.svc.AddComment(ctx, "v", "p1", model.KindPost, "nice")
	require.NoError(t, err)
	require.NotEmpty(t, comment.ID)

	var post model.Post
	require.NoError(t, f.db.First(&post, "id = ?", "p1").Error)
	assert.Equal(t, int64(1), post.CommentsCount)

	require.NoError(t, f.svc.RemoveComment(ctx, "v", comment.ID, "p1", model.KindPost))
	require.NoError(t, f.db.First(&post, "id = ?", "p1").Error)
	assert.Zero(t, post.CommentsCount)
}

func TestSaveShareViewCounters(t *testing.T) {
	f := newEngFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Create(&model.Reel{ID: "r1", AuthorID: "a", VideoURL: "v", IsPublic: true}).Error)

	require.NoError(t, f.svc.SaveReel(ctx, "v", "r1"))
	// 重复收藏不再加计数
	require.NoError(t, f.svc.SaveReel(ctx, "v", "r1"))
	require.NoError(t, f.svc.ShareReel(ctx, "v", "r1"))
	require.NoError(t, f.svc.ShareReel(ctx, "v", "r1"))
	require.NoError(t, f.svc.AddView(ctx, "r1"))

	var reel model.Reel
	require.NoError(t, f.db.First(&reel, "id = ?", "r1").Error)
	assert.Equal(t, int64(1), reel.SavesCount)
	assert.Equal(t, int64(2), reel.SharesCount)
	assert.Equal(t, int64(1), reel.ViewCount)
}

func TestContentStatsReadThrough(t *testing.T) {
	f := newEngFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Create(&model.Reel{
		ID: "r1", AuthorID: "a", VideoURL: "v", IsPublic: true,
		LikesCount: 7, ViewCount: 1000,
	}).Error)

	stats, err := f.svc.ContentStats(ctx, "r1", model.KindReel)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stats.Likes)
	assert.Equal(t, int64(1000), stats.Views)

	// 第二次读走缓存：改库不改缓存，值不变
	require.NoError(t, f.db.Model(&model.Reel{ID: "r1"}).Update("likes_count", 8).Error)
	stats, err = f.svc.ContentStats(ctx, "r1", model.KindReel)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stats.Likes)

	require.NoError(t, f.svc.OnCounterChange(ctx, "r1"))
	stats, err = f.svc.ContentStats(ctx, "r1", model.KindReel)
	require.NoError(t, err)
	assert.Equal(t, int64(8), stats.Likes)
}

func TestContentStatsUnknownContent(t *testing.T) {
	f := newEngFixture(t)
	_, err := f.svc.ContentStats(context.Background(), "ghost", model.KindPost)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
