package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/feedgraph/internal/model"
	"github.com/d60-Lab/feedgraph/internal/repository"
)

func newSuggestFixture(t *testing.T) (*gorm.DB, *SuggestService) {
	db := newTestDB(t)
	svc := NewSuggestService(
		repository.NewPostRepository(db),
		repository.NewUserRepository(db),
		repository.NewEngagementRepository(db),
		5, 50,
	)
	return db, svc
}

func seedPost(t *testing.T, db *gorm.DB, id, author string, likes int64, tags ...string) {
	t.Helper()
	require.NoError(t, db.Create(&model.Post{
		ID:         id,
		AuthorID:   author,
		Content:    "post " + id,
		Hashtags:   tags,
		LikesCount: likes,
	}).Error)
}

func like(t *testing.T, db *gorm.DB, user, content string) {
	t.Helper()
	_, err := repository.NewEngagementRepository(db).CreateLike(context.Background(), user, content)
	require.NoError(t, err)
}

func TestSuggestMatchesDominantMood(t *testing.T) {
	db, svc := newSuggestFixture(t)
	ctx := context.Background()

	seedUser(t, db, "creator")
	seedUser(t, db, "v")

	// 口味样本：travel 出现两次，food 一次
	seedPost(t, db, "liked-1", "creator", 0, "travel")
	seedPost(t, db, "liked-2", "creator", 0, "travel", "food")
	like(t, db, "v", "liked-1")
	like(t, db, "v", "liked-2")

	seedPost(t, db, "cand-travel", "creator", 9, "travel")
	seedPost(t, db, "cand-other", "creator", 9, "music")

	items := svc.Suggest(ctx, "v", []string{"liked-1", "liked-2"}, 5)
	require.NotEmpty(t, items)
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
		assert.True(t, it.Suggested)
	}
	assert.Contains(t, ids, "cand-travel")
	assert.NotContains(t, ids, "cand-other")
}

func TestSuggestExcludesViewerOwnAndShownContent(t *testing.T) {
	db, svc := newSuggestFixture(t)
	ctx := context.Background()

	seedUser(t, db, "creator")
	seedUser(t, db, "v")

	seedPost(t, db, "liked", "creator", 0, "travel")
	like(t, db, "v", "liked")

	seedPost(t, db, "mine", "v", 5, "travel")
	seedPost(t, db, "fresh", "creator", 5, "travel")

	// liked 已在当前页里展示过
	items := svc.Suggest(ctx, "v", []string{"liked"}, 5)
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	assert.Contains(t, ids, "fresh")
	assert.NotContains(t, ids, "mine")
	assert.NotContains(t, ids, "liked")
}

func TestSuggestOrdersByEngagement(t *testing.T) {
	db, svc := newSuggestFixture(t)
	ctx := context.Background()

	seedUser(t, db, "creator")
	seedUser(t, db, "v")
	seedPost(t, db, "liked", "creator", 0, "art")
	like(t, db, "v", "liked")

	for i, likes := range []int64{2, 50, 10} {
		seedPost(t, db, fmt.Sprintf("cand-%d", i), "creator", likes, "art")
	}

	items := svc.Suggest(ctx, "v", []string{"liked"}, 5)
	require.Len(t, items, 3)
	assert.Equal(t, "cand-1", items[0].ID)
	assert.Equal(t, "cand-2", items[1].ID)
	assert.Equal(t, "cand-0", items[2].ID)
}

func TestSuggestColdViewerGetsNothing(t *testing.T) {
	db, svc := newSuggestFixture(t)

	seedUser(t, db, "creator")
	seedUser(t, db, "v")
	seedPost(t, db, "cand", "creator", 100, "travel")

	// 无点赞历史 → 无 mood → 无推荐，且不报错
	items := svc.Suggest(context.Background(), "v", nil, 5)
	assert.Empty(t, items)
}

func TestSuggestRespectsLimit(t *testing.T) {
	db, svc := newSuggestFixture(t)
	ctx := context.Background()

	seedUser(t, db, "creator")
	seedUser(t, db, "v")
	seedPost(t, db, "liked", "creator", 0, "travel")
	like(t, db, "v", "liked")

	for i := 0; i < 10; i++ {
		seedPost(t, db, fmt.Sprintf("cand-%d", i), "creator", int64(i), "travel")
	}

	items := svc.Suggest(ctx, "v", []string{"liked"}, 3)
	assert.Len(t, items, 3)
}
