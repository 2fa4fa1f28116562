package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/feedgraph/internal/model"
)

type PublishEventRepository interface {
	Enqueue(ctx context.Context, tx *gorm.DB, authorID, contentID string, kind model.ContentKind) error
	// Claim 认领一批 pending 事件置为 processing 并累加 attempts。
	// 同一事件不会被两个 worker 同时拿到
	Claim(ctx context.Context, limit int) ([]*model.PublishEvent, error)
	MarkDone(ctx context.Context, id string, fanoutCount int64) error
	// Release 失败回滚：预算内回 pending 等待重试，否则置 failed
	Release(ctx context.Context, id string, maxAttempts int) error
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type publishEventRepository struct{ db *gorm.DB }

func NewPublishEventRepository(db *gorm.DB) PublishEventRepository {
	return &publishEventRepository{db: db}
}

func (r *publishEventRepository) Enqueue(ctx context.Context, tx *gorm.DB, authorID, contentID string, kind model.ContentKind) error {
	if tx == nil {
		tx = r.db
	}
	ev := &model.PublishEvent{
		ID:        uuid.New().String(),
		ContentID: contentID,
		AuthorID:  authorID,
		Kind:      kind,
		Status:    model.EventStatusPending,
	}
	// 同一内容重复入队只保留首个事件；重放由调用方显式 re-enqueue 另一事件 id
	return tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(ev).Error
}

func (r *publishEventRepository) Claim(ctx context.Context, limit int) ([]*model.PublishEvent, error) {
	var batch []*model.PublishEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := `
            SELECT * FROM publish_events
            WHERE status = ?
            ORDER BY created_at
            LIMIT ?`
		if tx.Dialector.Name() == "postgres" {
			q += " FOR UPDATE SKIP LOCKED"
		}
		if err := tx.Raw(q, model.EventStatusPending, limit).Scan(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		ids := make([]string, len(batch))
		for i, ev := range batch {
			ids[i] = ev.ID
			ev.Status = model.EventStatusProcessing
			ev.Attempts++
		}
		return tx.Model(&model.PublishEvent{}).
			Where("id IN ?", ids).
			Updates(map[string]any{"status": model.EventStatusProcessing, "attempts": gorm.Expr("attempts + 1")}).Error
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *publishEventRepository) MarkDone(ctx context.Context, id string, fanoutCount int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.PublishEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       model.EventStatusDone,
			"processed_at": now,
			"fanout_count": fanoutCount,
		}).Error
}

func (r *publishEventRepository) Release(ctx context.Context, id string, maxAttempts int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev model.PublishEvent
		if err := tx.Where("id = ?", id).First(&ev).Error; err != nil {
			return err
		}
		status := model.EventStatusPending
		if ev.Attempts >= maxAttempts {
			status = model.EventStatusFailed
		}
		return tx.Model(&model.PublishEvent{}).Where("id = ?", id).Update("status", status).Error
	})
}

func (r *publishEventRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.PublishEvent{}).
		Where("status = ?", status).
		Count(&cnt).Error
	return cnt, err
}
