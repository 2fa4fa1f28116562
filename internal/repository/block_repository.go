package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/feedgraph/internal/model"
)

type BlockRepository interface {
	Create(ctx context.Context, userID, blockedID string) error
	Delete(ctx context.Context, userID, blockedID string) error
	// AnyBetween 双向存在性检查
	AnyBetween(ctx context.Context, a, b string) (bool, error)
	// ListInvolved 返回与 userID 任一方向有拉黑关系的对端 id 集合
	ListInvolved(ctx context.Context, userID string) ([]string, error)
}

type blockRepository struct{ db *gorm.DB }

func NewBlockRepository(db *gorm.DB) BlockRepository { return &blockRepository{db: db} }

func (r *blockRepository) Create(ctx context.Context, userID, blockedID string) error {
	b := &model.Block{ID: uuid.New().String(), UserID: userID, BlockedID: blockedID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(b).Error
}

func (r *blockRepository) Delete(ctx context.Context, userID, blockedID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND blocked_id = ?", userID, blockedID).
		Delete(&model.Block{}).Error
}

func (r *blockRepository) AnyBetween(ctx context.Context, a, b string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Block{}).
		Where("(user_id = ? AND blocked_id = ?) OR (user_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *blockRepository) ListInvolved(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, nil
	}
	var blocked, blockedBy []string
	if err := r.db.WithContext(ctx).
		Model(&model.Block{}).
		Select("blocked_id").
		Where("user_id = ?", userID).
		Scan(&blocked).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Block{}).
		Select("user_id").
		Where("blocked_id = ?", userID).
		Scan(&blockedBy).Error; err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(blocked)+len(blockedBy))
	out := make([]string, 0, len(blocked)+len(blockedBy))
	for _, id := range append(blocked, blockedBy...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
