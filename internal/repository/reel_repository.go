package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/feedgraph/internal/model"
)

type ReelRepository interface {
	Create(ctx context.Context, reel *model.Reel) error
	GetByID(ctx context.Context, id string) (*model.Reel, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.Reel, error)
	// ListCandidates 排名候选集：公开、未删未归档、非本人、过滤拉黑作者，
	// 取最近 limit 条。freshness 衰减使窗口外的老内容得分趋零
	ListCandidates(ctx context.Context, viewerID string, excludeAuthors []string, limit int) ([]*model.Reel, error)
	CountCandidates(ctx context.Context, viewerID string, excludeAuthors []string) (int64, error)
	ListByAuthor(ctx context.Context, authorID string, offset, limit int) ([]*model.Reel, error)
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
	AddCounters(ctx context.Context, id string, likes, comments, saves, shares, views int64) error
	SoftDelete(ctx context.Context, id, authorID string) error
}

type reelRepository struct{ db *gorm.DB }

func NewReelRepository(db *gorm.DB) ReelRepository { return &reelRepository{db: db} }

func (r *reelRepository) Create(ctx context.Context, reel *model.Reel) error {
	return r.db.WithContext(ctx).Create(reel).Error
}

func (r *reelRepository) GetByID(ctx context.Context, id string) (*model.Reel, error) {
	var reel model.Reel
	if err := r.db.WithContext(ctx).Where("id = ? AND is_deleted = ?", id, false).First(&reel).Error; err != nil {
		return nil, err
	}
	return &reel, nil
}

func (r *reelRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.Reel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var res []*model.Reel
	err := r.db.WithContext(ctx).
		Where("id IN ? AND is_deleted = ? AND is_archived = ? AND is_public = ?", ids, false, false, true).
		Find(&res).Error
	return res, err
}

func (r *reelRepository) candidateQuery(ctx context.Context, viewerID string, excludeAuthors []string) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&model.Reel{}).
		Where("is_deleted = ? AND is_archived = ? AND is_public = ?", false, false, true)
	if viewerID != "" {
		q = q.Where("author_id <> ?", viewerID)
	}
	if len(excludeAuthors) > 0 {
		q = q.Where("author_id NOT IN ?", excludeAuthors)
	}
	return q
}

func (r *reelRepository) ListCandidates(ctx context.Context, viewerID string, excludeAuthors []string, limit int) ([]*model.Reel, error) {
	var res []*model.Reel
	err := r.candidateQuery(ctx, viewerID, excludeAuthors).
		Order("created_at DESC").
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *reelRepository) CountCandidates(ctx context.Context, viewerID string, excludeAuthors []string) (int64, error) {
	var cnt int64
	err := r.candidateQuery(ctx, viewerID, excludeAuthors).Count(&cnt).Error
	return cnt, err
}

func (r *reelRepository) ListByAuthor(ctx context.Context, authorID string, offset, limit int) ([]*model.Reel, error) {
	var res []*model.Reel
	err := r.db.WithContext(ctx).
		Where("author_id = ? AND is_deleted = ?", authorID, false).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *reelRepository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Reel{}).
		Where("author_id = ? AND is_deleted = ?", authorID, false).
		Count(&cnt).Error
	return cnt, err
}

func (r *reelRepository) AddCounters(ctx context.Context, id string, likes, comments, saves, shares, views int64) error {
	updates := map[string]any{}
	if likes != 0 {
		updates["likes_count"] = gorm.Expr("likes_count + ?", likes)
	}
	if comments != 0 {
		updates["comments_count"] = gorm.Expr("comments_count + ?", comments)
	}
	if saves != 0 {
		updates["saves_count"] = gorm.Expr("saves_count + ?", saves)
	}
	if shares != 0 {
		updates["shares_count"] = gorm.Expr("shares_count + ?", shares)
	}
	if views != 0 {
		updates["view_count"] = gorm.Expr("view_count + ?", views)
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Reel{}).Where("id = ?", id).Updates(updates).Error
}

func (r *reelRepository) SoftDelete(ctx context.Context, id, authorID string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Reel{}).
		Where("id = ? AND author_id = ?", id, authorID).
		Updates(map[string]any{"is_deleted": true, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
