package model

import "time"

// Like 点赞行。post 与 reel 共用一张表（content_id 指向任一类内容），
// 既服务 is_liked 批查，也作为 social score 的好友互动信号源
type Like struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);index:idx_like_user;index:idx_like_pair,unique;not null"`
	ContentID string    `gorm:"type:varchar(36);not null;index:idx_like_content;index:idx_like_pair,unique"`
	CreatedAt time.Time `gorm:"index"`
}

func (Like) TableName() string { return "likes" }

// Comment 评论行。软删除，删除行不计入 comments_count
type Comment struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);index:idx_comment_user;not null"`
	ContentID string `gorm:"type:varchar(36);not null;index:idx_comment_content"`
	Body      string `gorm:"type:text"`
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Comment) TableName() string { return "comments" }

// Save 收藏行（仅 reel 信号）
type Save struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);index:idx_save_pair,unique;not null"`
	ContentID string    `gorm:"type:varchar(36);not null;index:idx_save_content;index:idx_save_pair,unique"`
	CreatedAt time.Time
}

func (Save) TableName() string { return "saves" }

// Share 转发行（仅 reel 信号）
type Share struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);index:idx_share_user;not null"`
	ContentID string    `gorm:"type:varchar(36);not null;index:idx_share_content"`
	CreatedAt time.Time
}

func (Share) TableName() string { return "shares" }
