package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/feedgraph/internal/model"
)

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	// ListByIDs 只返回未归档行；列表里被驱逐/归档的 id 在这里自然消失
	ListByIDs(ctx context.Context, ids []string) ([]*model.Post, error)
	// ListByAuthors 拉模型主查询：作者集合内未归档内容，时间倒序翻页
	ListByAuthors(ctx context.Context, authorIDs []string, offset, limit int) ([]*model.Post, error)
	CountByAuthors(ctx context.Context, authorIDs []string) (int64, error)
	ListByAuthor(ctx context.Context, authorID string, offset, limit int) ([]*model.Post, error)
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
	// ListByHashtags 命中任一 tag、排除作者与指定 id，按 likes+2·comments 降序、时间倒序
	ListByHashtags(ctx context.Context, tags []string, excludeAuthor string, excludeIDs []string, limit int) ([]*model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Archive(ctx context.Context, id, authorID string) error
	AddCounters(ctx context.Context, id string, likesDelta, commentsDelta int64) error
}

type postRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).Where("id = ? AND is_archived = ?", id, false).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var res []*model.Post
	err := r.db.WithContext(ctx).Where("id IN ? AND is_archived = ?", ids, false).Find(&res).Error
	return res, err
}

func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []string, offset, limit int) ([]*model.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	var res []*model.Post
	err := r.db.WithContext(ctx).
		Where("author_id IN ? AND is_archived = ?", authorIDs, false).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *postRepository) CountByAuthors(ctx context.Context, authorIDs []string) (int64, error) {
	if len(authorIDs) == 0 {
		return 0, nil
	}
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("author_id IN ? AND is_archived = ?", authorIDs, false).
		Count(&cnt).Error
	return cnt, err
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID string, offset, limit int) ([]*model.Post, error) {
	var res []*model.Post
	err := r.db.WithContext(ctx).
		Where("author_id = ? AND is_archived = ?", authorID, false).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("author_id = ? AND is_archived = ?", authorID, false).
		Count(&cnt).Error
	return cnt, err
}

func (r *postRepository) ListByHashtags(ctx context.Context, tags []string, excludeAuthor string, excludeIDs []string, limit int) ([]*model.Post, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	// hashtags 以 JSON 数组存 text 列，双后端统一用子串匹配
	q := r.db.WithContext(ctx).Model(&model.Post{}).Where("is_archived = ?", false)
	if excludeAuthor != "" {
		q = q.Where("author_id <> ?", excludeAuthor)
	}
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	conds := make([]string, len(tags))
	args := make([]interface{}, len(tags))
	for i, t := range tags {
		conds[i] = "hashtags LIKE ?"
		args[i] = `%"` + t + `"%`
	}
	q = q.Where(strings.Join(conds, " OR "), args...)

	var res []*model.Post
	err := q.Order("(likes_count + 2 * comments_count) DESC, created_at DESC").Limit(limit).Find(&res).Error
	return res, err
}

func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	post.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *postRepository) Archive(ctx context.Context, id, authorID string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("id = ? AND author_id = ? AND is_archived = ?", id, authorID, false).
		Updates(map[string]any{"is_archived": true, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *postRepository) AddCounters(ctx context.Context, id string, likesDelta, commentsDelta int64) error {
	updates := map[string]any{}
	if likesDelta != 0 {
		updates["likes_count"] = gorm.Expr("likes_count + ?", likesDelta)
	}
	if commentsDelta != 0 {
		updates["comments_count"] = gorm.Expr("comments_count + ?", commentsDelta)
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Updates(updates).Error
}
