package model

import "time"

// Post 内容主体。删除=归档，行永不物理删除
type Post struct {
	ID            string   `gorm:"primaryKey;type:varchar(36)"`
	AuthorID      string   `gorm:"type:varchar(36);index:idx_post_author"`
	Content       string   `gorm:"type:text"`
	MediaURLs     []string `gorm:"serializer:json"`
	MediaType     string   `gorm:"type:varchar(16)"` // text | image | video
	Location      string   `gorm:"type:varchar(128)"`
	Hashtags      []string `gorm:"serializer:json"`
	LikesCount    int64
	CommentsCount int64
	IsArchived    bool      `gorm:"index"`
	CreatedAt     time.Time `gorm:"index:idx_post_created"`
	UpdatedAt     time.Time
}

func (Post) TableName() string { return "posts" }
