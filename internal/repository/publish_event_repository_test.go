package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/feedgraph/internal/model"
)

func setupEventDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.PublishEvent{}))
	return db
}

func TestClaimTransitionsToProcessing(t *testing.T) {
	db := setupEventDB(t)
	repo := NewPublishEventRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Enqueue(ctx, nil, "a", fmt.Sprintf("c%d", i), model.KindPost))
	}

	batch, err := repo.Claim(ctx, 3)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	for _, ev := range batch {
		assert.Equal(t, model.EventStatusProcessing, ev.Status)
		assert.Equal(t, 1, ev.Attempts)
	}

	// 已认领的不会被第二批重复拿到
	second, err := repo.Claim(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, second, 2)

	pending, err := repo.CountByStatus(ctx, model.EventStatusPending)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestMarkDoneRecordsFanoutCount(t *testing.T) {
	db := setupEventDB(t)
	repo := NewPublishEventRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, nil, "a", "c1", model.KindPost))
	batch, err := repo.Claim(ctx, 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	require.NoError(t, repo.MarkDone(ctx, batch[0].ID, 42))

	var ev model.PublishEvent
	require.NoError(t, db.First(&ev, "id = ?", batch[0].ID).Error)
	assert.Equal(t, model.EventStatusDone, ev.Status)
	assert.Equal(t, int64(42), ev.FanoutCount)
	assert.NotNil(t, ev.ProcessedAt)
}

func TestReleaseRespectsRetryBudget(t *testing.T) {
	db := setupEventDB(t)
	repo := NewPublishEventRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, nil, "a", "c1", model.KindPost))

	// attempts 1、2：回 pending
	for i := 0; i < 2; i++ {
		batch, err := repo.Claim(ctx, 1)
		require.NoError(t, err)
		require.Len(t, batch, 1)
		require.NoError(t, repo.Release(ctx, batch[0].ID, 3))

		pending, err := repo.CountByStatus(ctx, model.EventStatusPending)
		require.NoError(t, err)
		assert.Equal(t, int64(1), pending)
	}

	// attempts 3：预算耗尽，置 failed
	batch, err := repo.Claim(ctx, 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.NoError(t, repo.Release(ctx, batch[0].ID, 3))

	var ev model.PublishEvent
	require.NoError(t, db.First(&ev, "id = ?", batch[0].ID).Error)
	assert.Equal(t, model.EventStatusFailed, ev.Status)
	assert.Equal(t, 3, ev.Attempts)

	// failed 不会再被认领
	batch, err = repo.Claim(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestEnqueueWithinTransactionRollsBack(t *testing.T) {
	db := setupEventDB(t)
	repo := NewPublishEventRepository(db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.Enqueue(ctx, tx, "a", "c1", model.KindPost); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	require.Error(t, err)

	// 事务回滚后事件不存在：内容行与事件要么都在要么都不在
	var cnt int64
	db.Model(&model.PublishEvent{}).Count(&cnt)
	assert.Zero(t, cnt)
}
