package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/feedgraph/internal/cache"
	"github.com/d60-Lab/feedgraph/internal/model"
	"github.com/d60-Lab/feedgraph/internal/repository"
)

type feedFixture struct {
	db        *gorm.DB
	feedList  *cache.FeedList
	pageCache *cache.PageCache
	following *cache.FollowingCache
	svc       *FeedService
	publisher *Publisher
	worker    *FanoutWorker
}

func newFeedFixture(t *testing.T) *feedFixture {
	db := newTestDB(t)
	_, rdb := newTestRedis(t)

	postRepo := repository.NewPostRepository(db)
	userRepo := repository.NewUserRepository(db)
	engRepo := repository.NewEngagementRepository(db)
	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	eventRepo := repository.NewPublishEventRepository(db)

	feedList := cache.NewFeedList(rdb, 500, 200)
	pageCache := cache.NewPageCache(rdb, time.Minute)
	following := cache.NewFollowingCache(rdb, followRepo, time.Minute)

	suggester := NewSuggestService(postRepo, userRepo, engRepo, 5, 50)
	return &feedFixture{
		db:        db,
		feedList:  feedList,
		pageCache: pageCache,
		following: following,
		svc:       NewFeedService(postRepo, userRepo, engRepo, feedList, pageCache, following, suggester, 4, 5),
		publisher: NewPublisher(db, eventRepo, postRepo, repository.NewReelRepository(db)),
		worker:    NewFanoutWorker(eventRepo, fanRepo, feedList, pageCache, 1, 500, 64, 3, time.Millisecond),
	}
}

// follow 建立 accepted 边并同步写 fan 行（测试里不走异步冗余）
func (f *feedFixture) follow(t *testing.T, from, to string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repository.NewFollowRepository(f.db).Create(ctx, from, to, model.FollowStatusAccepted))
	require.NoError(t, repository.NewFanRepository(f.db).Create(ctx, to, from))
}

func TestFeedPushModelDeliversToFollowers(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	seedUser(t, f.db, "author")
	for _, v := range []string{"f1", "f2", "f3"} {
		seedUser(t, f.db, v)
		f.follow(t, v, "author")
	}

	post, err := f.publisher.CreatePost(ctx, "author", PostInput{Content: "hello"})
	require.NoError(t, err)
	require.NoError(t, f.worker.ProcessOnce(ctx))

	for _, v := range []string{"f1", "f2", "f3"} {
		page, err := f.svc.GetFeed(ctx, v, 1, 20)
		require.NoError(t, err)
		require.Len(t, page.Items, 1, "viewer %s", v)
		assert.Equal(t, post.ID, page.Items[0].ID)
		assert.Equal(t, "author", page.Items[0].Author.Username)
		assert.False(t, page.Items[0].IsLiked)
	}
}

func TestFeedPullFallbackMatchesPush(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	seedUser(t, f.db, "author")
	seedUser(t, f.db, "pushed")
	seedUser(t, f.db, "cold")
	f.follow(t, "pushed", "author")
	f.follow(t, "cold", "author")

	var want []string
	for i := 0; i < 3; i++ {
		post, err := f.publisher.CreatePost(ctx, "author", PostInput{Content: fmt.Sprintf("post %d", i)})
		require.NoError(t, err)
		want = append([]string{post.ID}, want...)
	}
	require.NoError(t, f.worker.ProcessOnce(ctx))

	// cold 的列表清空，模拟未被扇出覆盖的用户
	require.NoError(t, f.feedList.Clear(ctx, "cold", model.KindPost))

	pushedPage, err := f.svc.GetFeed(ctx, "pushed", 1, 20)
	require.NoError(t, err)
	coldPage, err := f.svc.GetFeed(ctx, "cold", 1, 20)
	require.NoError(t, err)

	ids := func(items []FeedItem) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.ID
		}
		return out
	}
	assert.Equal(t, want, ids(pushedPage.Items))
	// 两条路径收敛到同一结果
	assert.Equal(t, ids(pushedPage.Items), ids(coldPage.Items))
}

func TestFeedIncludesOwnPostsInPullModel(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	seedUser(t, f.db, "solo")
	post, err := f.publisher.CreatePost(ctx, "solo", PostInput{Content: "mine"})
	require.NoError(t, err)

	page, err := f.svc.GetFeed(ctx, "solo", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, post.ID, page.Items[0].ID)
}

func TestFeedDedupesRepeatedListEntries(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	seedUser(t, f.db, "author")
	seedUser(t, f.db, "v")
	post, err := f.publisher.CreatePost(ctx, "author", PostInput{Content: "once"})
	require.NoError(t, err)

	// 重试的扇出把同一 id 推了两次
	require.NoError(t, f.feedList.Push(ctx, "v", model.KindPost, post.ID))
	require.NoError(t, f.feedList.Push(ctx, "v", model.KindPost, post.ID))

	page, err := f.svc.GetFeed(ctx, "v", 1, 20)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestFeedShadowRemovesHiddenAuthors(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	banned := seedUser(t, f.db, "banned")
	seedUser(t, f.db, "v")
	post, err := f.publisher.CreatePost(ctx, "banned", PostInput{Content: "hidden soon"})
	require.NoError(t, err)
	require.NoError(t, f.feedList.Push(ctx, "v", model.KindPost, post.ID))

	require.NoError(t, f.db.Model(banned).Update("is_shadow_banned", true).Error)

	// 条目静默消失，无错误无占位
	page, err := f.svc.GetFeed(ctx, "v", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestFeedServesCachedPage(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	seedUser(t, f.db, "author")
	seedUser(t, f.db, "v")
	f.follow(t, "v", "author")
	post, err := f.publisher.CreatePost(ctx, "author", PostInput{Content: "cached"})
	require.NoError(t, err)
	require.NoError(t, f.worker.ProcessOnce(ctx))

	first, err := f.svc.GetFeed(ctx, "v", 1, 20)
	require.NoError(t, err)
	require.Len(t, first.Items, 1)

	// 底层数据变了，TTL 内仍读到缓存页
	require.NoError(t, f.db.Model(&model.Post{ID: post.ID}).Update("likes_count", 99).Error)
	second, err := f.svc.GetFeed(ctx, "v", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, first.Items[0].LikesCount, second.Items[0].LikesCount)
}

func TestFeedInjectsMoodSuggestions(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	seedUser(t, f.db, "author")
	seedUser(t, f.db, "v")
	seedUser(t, f.db, "stranger")
	f.follow(t, "v", "author")

	// 自然流：关注作者的 5 条帖子
	for i := 0; i < 5; i++ {
		_, err := f.publisher.CreatePost(ctx, "author", PostInput{Content: fmt.Sprintf("n%d", i)})
		require.NoError(t, err)
	}
	require.NoError(t, f.worker.ProcessOnce(ctx))

	// 口味信号：点赞过带 travel 标签的内容
	liked, err := f.publisher.CreatePost(ctx, "stranger", PostInput{Content: "tagged", Hashtags: []string{"travel"}})
	require.NoError(t, err)
	engRepo := repository.NewEngagementRepository(f.db)
	_, err = engRepo.CreateLike(ctx, "v", liked.ID)
	require.NoError(t, err)

	// 候选池：陌生作者的热门 travel 帖
	suggested, err := f.publisher.CreatePost(ctx, "stranger", PostInput{Content: "come visit", Hashtags: []string{"travel"}})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&model.Post{ID: suggested.ID}).Update("likes_count", 10).Error)

	page, err := f.svc.GetFeed(ctx, "v", 1, 20)
	require.NoError(t, err)

	var found bool
	for i, it := range page.Items {
		if it.Suggested {
			found = true
			assert.Equal(t, suggested.ID, it.ID)
			// 注入位在第 4 条自然内容之后
			assert.Equal(t, 4, i)
		}
	}
	assert.True(t, found, "expected a suggested item on page 1")
}
