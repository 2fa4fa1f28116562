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

type relFixture struct {
	db  *gorm.DB
	svc RelationshipService
	rep *FanReplicator
}

func newRelFixture(t *testing.T) *relFixture {
	db := newTestDB(t)
	_, rdb := newTestRedis(t)

	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	following := cache.NewFollowingCache(rdb, followRepo, time.Minute)
	rep := NewFanReplicator(fanRepo, following, 16)

	svc := NewRelationshipService(followRepo, fanRepo,
		repository.NewUserRepository(db),
		repository.NewBlockRepository(db),
		following, rep)
	return &relFixture{db: db, svc: svc, rep: rep}
}

// drain 同步消化积压的冗余任务（测试里不起 worker）
func (f *relFixture) drain(t *testing.T) {
	t.Helper()
	stop := f.rep.Start(1)
	require.Eventually(t, func() bool { return f.rep.QueueLen() == 0 }, time.Second, 5*time.Millisecond)
	// 队列空不等于已落地，留一拍给在途任务
	time.Sleep(20 * time.Millisecond)
	_ = stop(context.Background())
}

func TestFollowPublicAccountIsAccepted(t *testing.T) {
	f := newRelFixture(t)
	ctx := context.Background()

	seedUser(t, f.db, "alice")
	seedUser(t, f.db, "bob")

	status, err := f.svc.Follow(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, model.FollowStatusAccepted, status)
	f.drain(t)

	// accepted 边立刻进入扇出范围
	fans, err := f.svc.ListFans(ctx, "bob", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, fans)

	ok, err := repository.NewFollowRepository(f.db).IsFollowing(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFollowPrivateAccountIsPendingUntilAccepted(t *testing.T) {
	f := newRelFixture(t)
	ctx := context.Background()

	seedUser(t, f.db, "alice")
	private := seedUser(t, f.db, "carol")
	require.NoError(t, f.db.Model(private).Update("is_private", true).Error)

	status, err := f.svc.Follow(ctx, "alice", "carol")
	require.NoError(t, err)
	assert.Equal(t, model.FollowStatusPending, status)

	// pending 边不产生粉丝行，也不算关注
	fans, err := f.svc.ListFans(ctx, "carol", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, fans)
	ok, _ := repository.NewFollowRepository(f.db).IsFollowing(ctx, "alice", "carol")
	assert.False(t, ok)

	require.NoError(t, f.svc.AcceptFollow(ctx, "alice", "carol"))
	f.drain(t)

	fans, err = f.svc.ListFans(ctx, "carol", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, fans)
	ok, _ = repository.NewFollowRepository(f.db).IsFollowing(ctx, "alice", "carol")
	assert.True(t, ok)
}

func TestFollowSelfRejected(t *testing.T) {
	f := newRelFixture(t)
	seedUser(t, f.db, "alice")

	_, err := f.svc.Follow(context.Background(), "alice", "alice")
	assert.ErrorIs(t, err, ErrFollowSelf)
}

func TestFollowBlockedUserRejected(t *testing.T) {
	f := newRelFixture(t)
	ctx := context.Background()

	seedUser(t, f.db, "alice")
	seedUser(t, f.db, "bob")
	require.NoError(t, repository.NewBlockRepository(f.db).Create(ctx, "bob", "alice"))

	_, err := f.svc.Follow(ctx, "alice", "bob")
	assert.ErrorIs(t, err, ErrUserBlocked)
}

func TestFollowIsIdempotent(t *testing.T) {
	f := newRelFixture(t)
	ctx := context.Background()

	seedUser(t, f.db, "alice")
	seedUser(t, f.db, "bob")

	_, err := f.svc.Follow(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = f.svc.Follow(ctx, "alice", "bob")
	require.NoError(t, err)

	var cnt int64
	f.db.Model(&model.Follow{}).Where("follower_id = ? AND followee_id = ?", "alice", "bob").Count(&cnt)
	assert.Equal(t, int64(1), cnt)
}

func TestUnfollowRemovesEdgeAndFanRow(t *testing.T) {
	f := newRelFixture(t)
	ctx := context.Background()

	seedUser(t, f.db, "alice")
	seedUser(t, f.db, "bob")
	_, err := f.svc.Follow(ctx, "alice", "bob")
	require.NoError(t, err)
	f.drain(t)

	require.NoError(t, f.svc.Unfollow(ctx, "alice", "bob"))
	f.drain(t)

	fans, err := f.svc.ListFans(ctx, "bob", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, fans)
	following, err := f.svc.ListFollowing(ctx, "alice", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, following)
}
