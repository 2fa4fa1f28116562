package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/feedgraph/internal/model"
	"github.com/d60-Lab/feedgraph/internal/repository"
	"github.com/d60-Lab/feedgraph/pkg/pagination"
)

var (
	ErrEmptyPost      = errors.New("post must have content or media")
	ErrContentTooLong = errors.New("post content too long (max 2200 characters)")
	ErrTooManyMedia   = errors.New("maximum 10 media files per post")
	ErrMissingVideo   = errors.New("video url is required for reels")
)

// PostInput 创建帖子的入参
type PostInput struct {
	Content   string
	MediaURLs []string
	MediaType string
	Location  string
	Hashtags  []string
}

// ReelInput 创建 reel 的入参
type ReelInput struct {
	VideoURL     string
	ThumbnailURL string
	Title        string
	Description  string
	Hashtags     []string
	Duration     int
}

// Publisher 负责事务内写内容行 + 发布事件（outbox）。
// 扇出本身永远异步：发布路径只入队，不等待
type Publisher struct {
	db        *gorm.DB
	eventRepo repository.PublishEventRepository
	postRepo  repository.PostRepository
	reelRepo  repository.ReelRepository
}

func NewPublisher(db *gorm.DB, eventRepo repository.PublishEventRepository, postRepo repository.PostRepository, reelRepo repository.ReelRepository) *Publisher {
	return &Publisher{db: db, eventRepo: eventRepo, postRepo: postRepo, reelRepo: reelRepo}
}

// CreatePost 校验并在一个事务内落地 Post 与发布事件
func (p *Publisher) CreatePost(ctx context.Context, authorID string, in PostInput) (*model.Post, error) {
	if in.Content == "" && len(in.MediaURLs) == 0 {
		return nil, ErrEmptyPost
	}
	if len(in.Content) > 2200 {
		return nil, ErrContentTooLong
	}
	if len(in.MediaURLs) > 10 {
		return nil, ErrTooManyMedia
	}
	mediaType := in.MediaType
	if mediaType == "" {
		mediaType = "text"
	}

	now := time.Now()
	post := &model.Post{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		Content:   in.Content,
		MediaURLs: in.MediaURLs,
		MediaType: mediaType,
		Location:  in.Location,
		Hashtags:  in.Hashtags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		return p.eventRepo.Enqueue(ctx, tx, authorID, post.ID, model.KindPost)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// CreateReel 校验并在一个事务内落地 Reel 与发布事件
func (p *Publisher) CreateReel(ctx context.Context, authorID string, in ReelInput) (*model.Reel, error) {
	if in.VideoURL == "" {
		return nil, ErrMissingVideo
	}
	now := time.Now()
	reel := &model.Reel{
		ID:           uuid.New().String(),
		AuthorID:     authorID,
		VideoURL:     in.VideoURL,
		ThumbnailURL: in.ThumbnailURL,
		Title:        in.Title,
		Description:  in.Description,
		Hashtags:     in.Hashtags,
		Duration:     in.Duration,
		IsPublic:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reel).Error; err != nil {
			return err
		}
		return p.eventRepo.Enqueue(ctx, tx, authorID, reel.ID, model.KindReel)
	})
	if err != nil {
		return nil, err
	}
	return reel, nil
}

// ListUserPosts 作者主页分页，归档行自然过滤
func (p *Publisher) ListUserPosts(ctx context.Context, authorID string, page, limit int) ([]*model.Post, pagination.Meta, error) {
	page, limit = pagination.Validate(page, limit)
	total, err := p.postRepo.CountByAuthor(ctx, authorID)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	posts, err := p.postRepo.ListByAuthor(ctx, authorID, pagination.Offset(page, limit), limit)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return posts, pagination.NewMeta(page, limit, total), nil
}

// ArchivePost 归档后内容保留在各 Redis 列表里，装配阶段按 is_archived 过滤
func (p *Publisher) ArchivePost(ctx context.Context, postID, authorID string) error {
	return p.postRepo.Archive(ctx, postID, authorID)
}

// DeleteReel 软删，同样靠装配阶段过滤
func (p *Publisher) DeleteReel(ctx context.Context, reelID, authorID string) error {
	return p.reelRepo.SoftDelete(ctx, reelID, authorID)
}

// OnPublish 为外部服务已落地的内容入队扇出事件
func (p *Publisher) OnPublish(ctx context.Context, authorID, contentID string, kind model.ContentKind) error {
	return p.eventRepo.Enqueue(ctx, nil, authorID, contentID, kind)
}
