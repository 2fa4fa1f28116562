package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/feedgraph/internal/model"
)

type testPage struct {
	Items []string `json:"items"`
	Total int64    `json:"total"`
}

func TestPageCacheRoundtrip(t *testing.T) {
	_, rdb := newTestRedis(t)
	pc := NewPageCache(rdb, time.Minute)
	ctx := context.Background()

	var out testPage
	assert.False(t, pc.Get(ctx, model.KindPost, "u1", 1, 20, &out))

	in := testPage{Items: []string{"a", "b"}, Total: 2}
	pc.Set(ctx, model.KindPost, "u1", 1, 20, in)

	require.True(t, pc.Get(ctx, model.KindPost, "u1", 1, 20, &out))
	assert.Equal(t, in, out)

	// 不同 limit 是不同的 key
	assert.False(t, pc.Get(ctx, model.KindPost, "u1", 1, 10, &out))
}

func TestPageCacheExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	pc := NewPageCache(rdb, time.Minute)
	ctx := context.Background()

	pc.Set(ctx, model.KindPost, "u1", 1, 20, testPage{Total: 1})
	mr.FastForward(61 * time.Second)

	var out testPage
	assert.False(t, pc.Get(ctx, model.KindPost, "u1", 1, 20, &out))
}

func TestPageCacheInvalidateUser(t *testing.T) {
	_, rdb := newTestRedis(t)
	pc := NewPageCache(rdb, time.Minute)
	ctx := context.Background()

	pc.Set(ctx, model.KindPost, "u1", 1, 20, testPage{Total: 1})
	pc.Set(ctx, model.KindPost, "u1", 2, 20, testPage{Total: 1})
	pc.Set(ctx, model.KindReel, "u1", 1, 20, testPage{Total: 1})
	pc.Set(ctx, model.KindPost, "u2", 1, 20, testPage{Total: 2})

	require.NoError(t, pc.InvalidateUser(ctx, "u1"))

	var out testPage
	assert.False(t, pc.Get(ctx, model.KindPost, "u1", 1, 20, &out))
	assert.False(t, pc.Get(ctx, model.KindPost, "u1", 2, 20, &out))
	assert.False(t, pc.Get(ctx, model.KindReel, "u1", 1, 20, &out))
	// 其他用户的页不受影响
	assert.True(t, pc.Get(ctx, model.KindPost, "u2", 1, 20, &out))
}
