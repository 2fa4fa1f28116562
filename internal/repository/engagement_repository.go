package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/feedgraph/internal/model"
)

// FolloweeSignals 候选内容上来自关注对象的互动聚合
type FolloweeSignals struct {
	Likes    int64
	Comments int64
	Shares   int64
}

type EngagementRepository interface {
	CreateLike(ctx context.Context, userID, contentID string) (created bool, err error)
	DeleteLike(ctx context.Context, userID, contentID string) (deleted bool, err error)
	// LikedSet 批量回答 "viewer 点赞过哪些"，禁止循环内逐条查
	LikedSet(ctx context.Context, userID string, contentIDs []string) (map[string]bool, error)
	// FolloweeSignals 一次 GROUP BY 取回候选集上好友的赞/评/转计数
	FolloweeSignals(ctx context.Context, followeeIDs, contentIDs []string) (map[string]FolloweeSignals, error)
	// RecentLikedContentIDs 最近点赞内容（mood 标签来源），新到旧
	RecentLikedContentIDs(ctx context.Context, userID string, limit int) ([]string, error)
	CreateComment(ctx context.Context, comment *model.Comment) error
	DeleteComment(ctx context.Context, commentID, userID string) (deleted bool, err error)
	CreateSave(ctx context.Context, userID, contentID string) (created bool, err error)
	CreateShare(ctx context.Context, userID, contentID string) error
}

type engagementRepository struct{ db *gorm.DB }

func NewEngagementRepository(db *gorm.DB) EngagementRepository { return &engagementRepository{db: db} }

func (r *engagementRepository) CreateLike(ctx context.Context, userID, contentID string) (bool, error) {
	l := &model.Like{ID: uuid.New().String(), UserID: userID, ContentID: contentID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(l)
	return res.RowsAffected > 0, res.Error
}

func (r *engagementRepository) DeleteLike(ctx context.Context, userID, contentID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Delete(&model.Like{})
	return res.RowsAffected > 0, res.Error
}

func (r *engagementRepository) LikedSet(ctx context.Context, userID string, contentIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(contentIDs))
	if userID == "" || len(contentIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Like{}).
		Select("content_id").
		Where("user_id = ? AND content_id IN ?", userID, contentIDs).
		Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

type signalRow struct {
	ContentID string
	Cnt       int64
}

func (r *engagementRepository) FolloweeSignals(ctx context.Context, followeeIDs, contentIDs []string) (map[string]FolloweeSignals, error) {
	out := make(map[string]FolloweeSignals)
	if len(followeeIDs) == 0 || len(contentIDs) == 0 {
		return out, nil
	}

	grouped := func(table string, extra string) ([]signalRow, error) {
		var rows []signalRow
		q := r.db.WithContext(ctx).
			Table(table).
			Select("content_id, COUNT(*) AS cnt").
			Where("user_id IN ? AND content_id IN ?", followeeIDs, contentIDs)
		if extra != "" {
			q = q.Where(extra)
		}
		err := q.Group("content_id").Scan(&rows).Error
		return rows, err
	}

	likeRows, err := grouped("likes", "")
	if err != nil {
		return nil, err
	}
	commentRows, err := grouped("comments", "is_deleted = false")
	if err != nil {
		return nil, err
	}
	shareRows, err := grouped("shares", "")
	if err != nil {
		return nil, err
	}

	for _, row := range likeRows {
		s := out[row.ContentID]
		s.Likes = row.Cnt
		out[row.ContentID] = s
	}
	for _, row := range commentRows {
		s := out[row.ContentID]
		s.Comments = row.Cnt
		out[row.ContentID] = s
	}
	for _, row := range shareRows {
		s := out[row.ContentID]
		s.Shares = row.Cnt
		out[row.ContentID] = s
	}
	return out, nil
}

func (r *engagementRepository) RecentLikedContentIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Like{}).
		Select("content_id").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Scan(&ids).Error
	return ids, err
}

func (r *engagementRepository) CreateComment(ctx context.Context, comment *model.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *engagementRepository) DeleteComment(ctx context.Context, commentID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", commentID, userID, false).
		Update("is_deleted", true)
	return res.RowsAffected > 0, res.Error
}

func (r *engagementRepository) CreateSave(ctx context.Context, userID, contentID string) (bool, error) {
	s := &model.Save{ID: uuid.New().String(), UserID: userID, ContentID: contentID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(s)
	return res.RowsAffected > 0, res.Error
}

func (r *engagementRepository) CreateShare(ctx context.Context, userID, contentID string) error {
	s := &model.Share{ID: uuid.New().String(), UserID: userID, ContentID: contentID}
	return r.db.WithContext(ctx).Create(s).Error
}
